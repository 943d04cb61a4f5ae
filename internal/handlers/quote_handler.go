package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mandacaru/erp-api/internal/audit"
	domain "github.com/mandacaru/erp-api/internal/domain/quote"
	"github.com/mandacaru/erp-api/internal/dto"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/httpresp"
	"github.com/mandacaru/erp-api/internal/metrics"
	"github.com/mandacaru/erp-api/internal/middleware"
	"github.com/mandacaru/erp-api/internal/models"
	quoteuc "github.com/mandacaru/erp-api/internal/usecase/quote"
)

type QuoteHandler struct {
	db      *gorm.DB
	audit   *audit.Dispatcher
	metrics *metrics.Metrics

	save    *quoteuc.SaveQuote
	approve *quoteuc.ApproveQuote
	status  *quoteuc.ChangeQuoteStatus
}

func NewQuoteHandler(
	db *gorm.DB,
	repo domain.Repository,
	audit *audit.Dispatcher,
	m *metrics.Metrics,
	kmRate float64,
) *QuoteHandler {
	return &QuoteHandler{
		db:      db,
		audit:   audit,
		metrics: m,
		save:    quoteuc.NewSaveQuote(repo, audit, kmRate),
		approve: quoteuc.NewApproveQuote(repo, audit),
		status:  quoteuc.NewChangeQuoteStatus(repo, audit),
	}
}

// --------- Requests ---------

type quoteItemRequest struct {
	ProductID     uint     `json:"produto" binding:"required"`
	Descricao     string   `json:"descricao"`
	Quantidade    float64  `json:"quantidade" binding:"required"`
	PrecoUnitario *float64 `json:"preco_unitario"`
}

// Totais (valor_total, subtotal...) não fazem parte do request: são
// sempre calculados no servidor.
type quoteRequest struct {
	ClientID       uint               `json:"cliente" binding:"required"`
	BusinessSiteID uint               `json:"empreendimento" binding:"required"`
	EquipmentID    *uint              `json:"equipamento"`
	Descricao      string             `json:"descricao"`
	DataVencimento string             `json:"data_vencimento" binding:"required"`
	Items          []quoteItemRequest `json:"itens" binding:"dive"`
}

func (r quoteRequest) input(c *gin.Context) (quoteuc.QuoteInput, error) {
	due, err := parseDate(r.DataVencimento, "invalid_due_date")
	if err != nil {
		return quoteuc.QuoteInput{}, err
	}

	in := quoteuc.QuoteInput{
		UserID:         middleware.UserID(c),
		ClientID:       r.ClientID,
		BusinessSiteID: r.BusinessSiteID,
		EquipmentID:    r.EquipmentID,
		Descricao:      r.Descricao,
		DataVencimento: due,
		Items:          make([]quoteuc.ItemInput, 0, len(r.Items)),
	}
	if in.EquipmentID != nil && *in.EquipmentID == 0 {
		in.EquipmentID = nil
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, quoteuc.ItemInput{
			ProductID:     it.ProductID,
			Descricao:     it.Descricao,
			Quantidade:    it.Quantidade,
			PrecoUnitario: it.PrecoUnitario,
		})
	}
	return in, nil
}

func (h *QuoteHandler) bind(c *gin.Context) (quoteuc.QuoteInput, bool) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return quoteuc.QuoteInput{}, false
	}
	in, err := req.input(c)
	if err != nil {
		httperr.FromError(c, err, "invalid_request")
		return quoteuc.QuoteInput{}, false
	}
	return in, true
}

// ======================================================
// LIST / GET
// ======================================================

func (h *QuoteHandler) List(c *gin.Context) {
	p := parseListParams(c)

	q := h.db.Table("quotes AS q").
		Joins("JOIN clients AS c ON c.id = q.client_id").
		Joins("JOIN business_sites AS s ON s.id = q.business_site_id")

	if st := upper(c.Query("status")); st != "" {
		q = q.Where("q.status = ?", st)
	}
	clientID, present, ok := queryID(c, "cliente")
	if !ok {
		httperr.BadRequest(c, "invalid_filter", "Filtro inválido: cliente.")
		return
	}
	if present {
		q = q.Where("q.client_id = ?", clientID)
	}
	if p.query != "" {
		q = q.Where("LOWER(q.descricao) LIKE ? OR LOWER(c.razao_social) LIKE ?", p.like(), p.like())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "failed_to_list_quotes", "Erro ao listar orçamentos.")
		return
	}

	var rows []dto.QuoteListDTO
	if err := q.
		Select("q.*, COALESCE(NULLIF(c.nome_fantasia, ''), c.razao_social) AS cliente_nome, s.nome AS empreendimento_nome").
		Order("q.created_at DESC, q.id DESC").
		Limit(p.limit).
		Offset(p.offset).
		Scan(&rows).Error; err != nil {

		httperr.Internal(c, "failed_to_list_quotes", "Erro ao listar orçamentos.")
		return
	}

	httpresp.Page(c, rows, p.page, p.limit, total)
}

func (h *QuoteHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var q models.Quote
	if err := h.db.Preload("Items").First(&q, id).Error; err != nil {
		httperr.FromError(c, notFoundAs(err, "quote_not_found"), "failed_to_get_quote")
		return
	}
	httpresp.OK(c, q)
}

// ======================================================
// WRITE
// ======================================================

func (h *QuoteHandler) Calculate(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}

	q, err := h.save.Calculate(c.Request.Context(), in)
	if err != nil {
		httperr.FromError(c, err, "failed_to_calculate_quote")
		return
	}
	httpresp.OK(c, q)
}

func (h *QuoteHandler) Create(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}

	q, err := h.save.Create(c.Request.Context(), in)
	if err != nil {
		httperr.FromError(c, err, "failed_to_create_quote")
		return
	}
	httpresp.Created(c, q)
}

// Update aceita PUT e PATCH com o orçamento completo: os itens são sempre
// substituídos e os totais recalculados.
func (h *QuoteHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in, ok := h.bind(c)
	if !ok {
		return
	}

	q, err := h.save.Update(c.Request.Context(), id, in)
	if err != nil {
		httperr.FromError(c, err, "failed_to_update_quote")
		return
	}
	httpresp.OK(c, q)
}

func (h *QuoteHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	// trava o orçamento para não concorrer com a aprovação
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var q models.Quote
		if err := findOr(tx.Clauses(clause.Locking{Strength: "UPDATE"}), &q, id, "quote_not_found"); err != nil {
			return err
		}
		if err := domain.CanDelete(domain.Status(q.Status)); err != nil {
			return err
		}
		return deleteGuarded(tx, &models.Quote{}, id, "quote_not_found", "quote_in_use",
			reference{&models.ServiceOrder{}, "quote_id"},
		)
	})
	if err != nil {
		httperr.FromError(c, err, "failed_to_delete_quote")
		return
	}

	writeAudit(h.audit, c, "quote_deleted", "quote", id, nil)
	httpresp.NoContent(c)
}

// ======================================================
// WORKFLOW
// ======================================================

func (h *QuoteHandler) Approve(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	out, err := h.approve.Execute(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		httperr.FromError(c, err, "failed_to_approve_quote")
		return
	}

	h.metrics.QuoteApproved()
	for range out.Withdrawal.Items {
		h.metrics.StockMovement("RESERVA")
	}

	httpresp.Created(c, out)
}

func (h *QuoteHandler) Reject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	q, err := h.status.Reject(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		httperr.FromError(c, err, "failed_to_reject_quote")
		return
	}
	httpresp.OK(c, q)
}

func (h *QuoteHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	q, err := h.status.Cancel(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		httperr.FromError(c, err, "failed_to_cancel_quote")
		return
	}
	httpresp.OK(c, q)
}
