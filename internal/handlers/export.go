package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const (
	mimeCSV  = "text/csv; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// planilha abre direto no Excel pt-BR: separador ";" e BOM UTF-8
func writeCSV(c *gin.Context, filename string, headers []string, rows [][]string) {
	var buf bytes.Buffer
	buf.WriteString("\ufeff")

	w := csv.NewWriter(&buf)
	w.Comma = ';'
	if err := w.Write(headers); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if err := w.WriteAll(rows); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
	c.Data(http.StatusOK, mimeCSV, buf.Bytes())
}

func writeXLSX(c *gin.Context, filename, sheet string, headers []string, rows [][]any) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if err := fillSheet(f, sheet, headers, rows); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", filename))
	c.Data(http.StatusOK, mimeXLSX, buf.Bytes())
}

// fillSheet grava cabeçalho em negrito na linha 1 e os dados a partir da 2.
func fillSheet(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, bold); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if len(headers) == 0 {
		return nil
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 18)
}
