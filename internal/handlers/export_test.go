package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFillSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, fillSheet(f, "Sheet1", []string{"ID", "Nome"}, [][]any{{1, "Britador"}}))
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ID", "Nome"}, {"1", "Britador"}}, rows)

	// planilha inexistente devolve erro em vez de gerar arquivo vazio
	assert.Error(t, fillSheet(f, "Outra", []string{"ID"}, nil))
}
