package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/domain/finance"
	"github.com/mandacaru/erp-api/internal/domain/maintenance"
	"github.com/mandacaru/erp-api/internal/domain/money"
	"github.com/mandacaru/erp-api/internal/domain/quote"
	"github.com/mandacaru/erp-api/internal/domain/serviceorder"
	"github.com/mandacaru/erp-api/internal/dto"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/httpresp"
	"github.com/mandacaru/erp-api/internal/models"
)

const (
	// relatório exportado não pagina; o teto evita planilhas gigantes
	maxReportRows = 5000

	// agenda de preventivas do painel
	maintenanceWindow = 30 * 24 * time.Hour
)

type ReportHandler struct {
	db                *gorm.DB
	lowStockThreshold float64
	maxRows           int
}

func NewReportHandler(db *gorm.DB, lowStockThreshold float64) *ReportHandler {
	return &ReportHandler{db: db, lowStockThreshold: lowStockThreshold, maxRows: maxReportRows}
}

// FinancialReport: o resumo cobre todo o filtro; Contas pode vir cortada.
type FinancialReport struct {
	Resumo   finance.Summary           `json:"resumo"`
	Contas   []models.FinancialAccount `json:"contas"`
	Truncado bool                      `json:"truncado"`
}

// GET /api/relatorios/financeiro/?mes=&ano=&cliente=&fornecedor=&formato=
func (h *ReportHandler) Financial(c *gin.Context) {
	q, ok := accountFilters(c, h.db.Model(&models.FinancialAccount{}))
	if !ok {
		return
	}

	q = q.Session(&gorm.Session{})

	var buckets []finance.Bucket
	if err := q.Select(
		"tipo, status, COUNT(*) AS quantidade, COALESCE(SUM(valor), 0) AS total, "+
			"COALESCE(SUM(CASE WHEN status = ? AND data_vencimento < ? THEN valor ELSE 0 END), 0) AS total_vencido",
		string(finance.StatusPending), today(),
	).Group("tipo, status").Scan(&buckets).Error; err != nil {
		httperr.Internal(c, "failed_to_build_report", "Erro ao gerar relatório.")
		return
	}
	summary := finance.FromBuckets(buckets)

	var accounts []models.FinancialAccount
	if err := q.Order("data_vencimento ASC, id ASC").
		Limit(h.maxRows + 1).
		Find(&accounts).Error; err != nil {

		httperr.Internal(c, "failed_to_build_report", "Erro ao gerar relatório.")
		return
	}

	truncated := len(accounts) > h.maxRows
	if truncated {
		accounts = accounts[:h.maxRows]
		c.Header("X-Report-Truncated", "true")
	}

	switch strings.ToLower(c.Query("formato")) {
	case "csv":
		rows := make([][]string, 0, len(accounts))
		for _, a := range accounts {
			rows = append(rows, []string{
				strconv.FormatUint(uint64(a.ID), 10),
				a.Tipo,
				a.Descricao,
				brl(a.Valor),
				a.DataVencimento.Format("02/01/2006"),
				optionalDate(a.DataPagamento),
				a.Status,
				a.FormaPagamento,
			})
		}
		writeCSV(c, "relatorio-financeiro", accountHeaders, rows)
	case "xlsx":
		rows := make([][]any, 0, len(accounts)+2)
		for _, a := range accounts {
			rows = append(rows, []any{
				a.ID,
				a.Tipo,
				a.Descricao,
				a.Valor,
				a.DataVencimento.Format("02/01/2006"),
				optionalDate(a.DataPagamento),
				a.Status,
				a.FormaPagamento,
			})
		}
		rows = append(rows,
			[]any{},
			[]any{"", "", "Total a receber", summary.TotalReceber},
			[]any{"", "", "Total a pagar", summary.TotalPagar},
			[]any{"", "", "Saldo", summary.Saldo},
		)
		writeXLSX(c, "relatorio-financeiro", "Financeiro", accountHeaders, rows)
	case "", "json":
		httpresp.OK(c, FinancialReport{Resumo: summary, Contas: accounts, Truncado: truncated})
	default:
		httperr.BadRequest(c, "invalid_format", "Formato inválido. Use json, csv ou xlsx.")
	}
}

var accountHeaders = []string{
	"ID", "Tipo", "Descrição", "Valor", "Vencimento", "Pagamento", "Status", "Forma de pagamento",
}

// brl formata com vírgula decimal, sem separador de milhar.
func brl(v float64) string {
	return strings.Replace(strconv.FormatFloat(money.Round2(v), 'f', 2, 64), ".", ",", 1)
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

type lowStockRow struct {
	productRow
	Minimo float64 `json:"minimo_considerado"`
}

// GET /api/relatorios/estoque-baixo/
func (h *ReportHandler) LowStock(c *gin.Context) {
	var products []models.Product
	if err := lowStockClause(h.db.Model(&models.Product{}), h.lowStockThreshold).
		Where("ativo = ?", true).
		Order("descricao").
		Find(&products).Error; err != nil {

		httperr.Internal(c, "failed_to_build_report", "Erro ao gerar relatório.")
		return
	}

	rows := make([]lowStockRow, 0, len(products))
	for _, p := range products {
		min := p.EstoqueMinimo
		if h.lowStockThreshold > min {
			min = h.lowStockThreshold
		}
		rows = append(rows, lowStockRow{
			productRow: productRow{
				Product:      p,
				Disponivel:   money.Round3(p.Disponivel()),
				EstoqueBaixo: true,
			},
			Minimo: min,
		})
	}
	httpresp.List(c, rows)
}

// GET /api/relatorios/os-por-cliente/?status=
func (h *ReportHandler) OrdersByClient(c *gin.Context) {
	q := h.db.Table("service_orders AS o").
		Joins("JOIN clients AS c ON c.id = o.client_id")
	if st := upper(c.Query("status")); st != "" {
		q = q.Where("o.status = ?", st)
	}

	var rows []dto.OrdersByClientDTO
	if err := q.
		Select("c.id AS client_id, COALESCE(NULLIF(c.nome_fantasia, ''), c.razao_social) AS nome, COUNT(o.id) AS quantidade, COALESCE(SUM(o.valor), 0) AS valor_total").
		Group("c.id, c.nome_fantasia, c.razao_social").
		Order("quantidade DESC, nome ASC").
		Scan(&rows).Error; err != nil {

		httperr.Internal(c, "failed_to_build_report", "Erro ao gerar relatório.")
		return
	}

	for i := range rows {
		rows[i].ValorTotal = money.Round2(rows[i].ValorTotal)
	}
	httpresp.List(c, rows)
}

type Dashboard struct {
	EquipamentosPorStatus map[string]int64 `json:"equipamentos_por_status"`
	OSAbertas             int64            `json:"os_abertas"`
	OrcamentosPendentes   int64            `json:"orcamentos_pendentes"`
	ReceberVencido        float64          `json:"receber_vencido"`
	PagarVencido          float64          `json:"pagar_vencido"`
	ProdutosEstoqueBaixo  int64            `json:"produtos_estoque_baixo"`
	ManutencoesProximas   int64            `json:"manutencoes_proximas"`
}

// GET /api/relatorios/dashboard/
func (h *ReportHandler) Dashboard(c *gin.Context) {
	var d Dashboard
	now := today()

	err := func() error {
		var byStatus []struct {
			Status string
			Total  int64
		}
		if err := h.db.Model(&models.Equipment{}).
			Select("status, COUNT(*) AS total").
			Group("status").
			Scan(&byStatus).Error; err != nil {
			return err
		}
		d.EquipamentosPorStatus = make(map[string]int64, len(byStatus))
		for _, s := range byStatus {
			d.EquipamentosPorStatus[s.Status] = s.Total
		}

		if err := h.db.Model(&models.ServiceOrder{}).
			Where("status IN ?", []string{string(serviceorder.StatusOpen), string(serviceorder.StatusInProgress)}).
			Count(&d.OSAbertas).Error; err != nil {
			return err
		}
		if err := h.db.Model(&models.Quote{}).
			Where("status = ?", string(quote.StatusPending)).
			Count(&d.OrcamentosPendentes).Error; err != nil {
			return err
		}

		var overdue []struct {
			Tipo  string
			Total float64
		}
		if err := h.db.Model(&models.FinancialAccount{}).
			Select("tipo, COALESCE(SUM(valor), 0) AS total").
			Where("status = ? AND data_vencimento < ?", string(finance.StatusPending), now).
			Group("tipo").
			Scan(&overdue).Error; err != nil {
			return err
		}
		for _, o := range overdue {
			switch finance.Kind(o.Tipo) {
			case finance.KindReceivable:
				d.ReceberVencido = money.Round2(o.Total)
			case finance.KindPayable:
				d.PagarVencido = money.Round2(o.Total)
			}
		}

		if err := lowStockClause(h.db.Model(&models.Product{}), h.lowStockThreshold).
			Where("ativo = ?", true).
			Count(&d.ProdutosEstoqueBaixo).Error; err != nil {
			return err
		}

		var scheduled []models.Equipment
		if err := h.db.Select("id", "proxima_manutencao").
			Where("proxima_manutencao IS NOT NULL").
			Find(&scheduled).Error; err != nil {
			return err
		}
		for _, eq := range scheduled {
			if maintenance.IsDue(eq, now, maintenanceWindow) {
				d.ManutencoesProximas++
			}
		}
		return nil
	}()
	if err != nil {
		httperr.Internal(c, "failed_to_build_dashboard", "Erro ao montar o painel.")
		return
	}

	httpresp.OK(c, d)
}
