package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/domain/money"
	domain "github.com/mandacaru/erp-api/internal/domain/serviceorder"
	"github.com/mandacaru/erp-api/internal/dto"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/httpresp"
	"github.com/mandacaru/erp-api/internal/metrics"
	"github.com/mandacaru/erp-api/internal/middleware"
	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/timezone"
	souc "github.com/mandacaru/erp-api/internal/usecase/serviceorder"
)

type ServiceOrderHandler struct {
	db      *gorm.DB
	audit   *audit.Dispatcher
	metrics *metrics.Metrics

	start  *souc.StartServiceOrder
	finish *souc.FinishServiceOrder
	cancel *souc.CancelServiceOrder
}

func NewServiceOrderHandler(
	db *gorm.DB,
	repo domain.Repository,
	audit *audit.Dispatcher,
	m *metrics.Metrics,
	rules souc.ReceivableRules,
) *ServiceOrderHandler {
	return &ServiceOrderHandler{
		db:      db,
		audit:   audit,
		metrics: m,
		start:   souc.NewStartServiceOrder(repo, audit),
		finish:  souc.NewFinishServiceOrder(repo, audit, rules),
		cancel:  souc.NewCancelServiceOrder(repo, audit),
	}
}

// OS manual: sem orçamento, sem retirada de estoque.
type serviceOrderCreateRequest struct {
	ClientID       uint     `json:"cliente" binding:"required"`
	BusinessSiteID uint     `json:"empreendimento" binding:"required"`
	EquipmentID    *uint    `json:"equipamento"`
	Descricao      string   `json:"descricao_servico" binding:"required"`
	Responsavel    string   `json:"responsavel"`
	Valor          *float64 `json:"valor"`
}

type serviceOrderUpdateRequest struct {
	Descricao   *string `json:"descricao_servico"`
	Responsavel *string `json:"responsavel"`
}

// ======================================================
// LIST / GET
// ======================================================

func (h *ServiceOrderHandler) List(c *gin.Context) {
	p := parseListParams(c)

	q := h.db.Table("service_orders AS o").
		Joins("JOIN clients AS c ON c.id = o.client_id").
		Joins("JOIN business_sites AS s ON s.id = o.business_site_id")

	if st := upper(c.Query("status")); st != "" {
		q = q.Where("o.status = ?", st)
	}
	clientID, present, ok := queryID(c, "cliente")
	if !ok {
		httperr.BadRequest(c, "invalid_filter", "Filtro inválido: cliente.")
		return
	}
	if present {
		q = q.Where("o.client_id = ?", clientID)
	}
	if done, present := queryBool(c, "finalizada"); present {
		if done {
			q = q.Where("o.status = ?", string(domain.StatusFinished))
		} else {
			q = q.Where("o.status <> ?", string(domain.StatusFinished))
		}
	}
	if p.query != "" {
		q = q.Where("LOWER(o.descricao) LIKE ? OR LOWER(o.responsavel) LIKE ?", p.like(), p.like())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "failed_to_list_service_orders", "Erro ao listar ordens de serviço.")
		return
	}

	var rows []dto.ServiceOrderListDTO
	if err := q.
		Select("o.*, COALESCE(NULLIF(c.nome_fantasia, ''), c.razao_social) AS cliente_nome, s.nome AS empreendimento_nome").
		Order("o.data_abertura DESC, o.id DESC").
		Limit(p.limit).
		Offset(p.offset).
		Scan(&rows).Error; err != nil {

		httperr.Internal(c, "failed_to_list_service_orders", "Erro ao listar ordens de serviço.")
		return
	}

	httpresp.Page(c, rows, p.page, p.limit, total)
}

func (h *ServiceOrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var o models.ServiceOrder
	if err := h.db.Preload("Withdrawal.Items").First(&o, id).Error; err != nil {
		httperr.FromError(c, notFoundAs(err, "service_order_not_found"), "failed_to_get_service_order")
		return
	}
	httpresp.OK(c, o)
}

// ======================================================
// WRITE
// ======================================================

func (h *ServiceOrderHandler) Create(c *gin.Context) {
	var req serviceOrderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	if err := checkSiteOwner(h.db, req.ClientID, req.BusinessSiteID); err != nil {
		httperr.FromError(c, err, "failed_to_create_service_order")
		return
	}
	if req.EquipmentID != nil && *req.EquipmentID == 0 {
		req.EquipmentID = nil
	}
	if req.EquipmentID != nil {
		var eq models.Equipment
		if err := findOr(h.db, &eq, *req.EquipmentID, "equipment_not_found"); err != nil {
			httperr.FromError(c, err, "failed_to_create_service_order")
			return
		}
		if eq.BusinessSiteID != req.BusinessSiteID {
			httperr.FromError(c, httperr.ErrBusiness("equipment_site_mismatch"), "failed_to_create_service_order")
			return
		}
	}

	o := models.ServiceOrder{
		ClientID:       req.ClientID,
		BusinessSiteID: req.BusinessSiteID,
		EquipmentID:    req.EquipmentID,
		Descricao:      req.Descricao,
		Responsavel:    req.Responsavel,
		Status:         string(domain.InitialStatus()),
		DataAbertura:   timezone.Now(),
	}
	if req.Valor != nil {
		if *req.Valor < 0 {
			httperr.FromError(c, httperr.ErrBusiness("invalid_amount"), "failed_to_create_service_order")
			return
		}
		o.Valor = money.Round2(*req.Valor)
	}

	if err := h.db.Create(&o).Error; err != nil {
		httperr.FromError(c, err, "failed_to_create_service_order")
		return
	}

	writeAudit(h.audit, c, "service_order_created", "service_order", o.ID, nil)
	httpresp.Created(c, o)
}

func (h *ServiceOrderHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req serviceOrderUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	var o models.ServiceOrder
	if err := findOr(h.db, &o, id, "service_order_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_update_service_order")
		return
	}
	if err := domain.CanEdit(domain.Status(o.Status)); err != nil {
		httperr.FromError(c, err, "failed_to_update_service_order")
		return
	}

	setString(&o.Descricao, req.Descricao)
	setString(&o.Responsavel, req.Responsavel)

	if err := h.db.Model(&o).Select("descricao", "responsavel").Updates(&o).Error; err != nil {
		httperr.FromError(c, err, "failed_to_update_service_order")
		return
	}

	writeAudit(h.audit, c, "service_order_updated", "service_order", o.ID, nil)
	httpresp.OK(c, o)
}

func (h *ServiceOrderHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var o models.ServiceOrder
	if err := findOr(h.db, &o, id, "service_order_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_delete_service_order")
		return
	}
	if err := domain.CanDelete(domain.Status(o.Status), o.QuoteID != nil); err != nil {
		httperr.FromError(c, err, "failed_to_delete_service_order")
		return
	}

	if err := deleteGuarded(h.db, &models.ServiceOrder{}, id, "service_order_not_found", "service_order_in_use",
		reference{&models.StockMovement{}, "service_order_id"},
		reference{&models.FinancialAccount{}, "service_order_id"},
		reference{&models.MaintenanceRecord{}, "service_order_id"},
	); err != nil {
		httperr.FromError(c, err, "failed_to_delete_service_order")
		return
	}

	writeAudit(h.audit, c, "service_order_deleted", "service_order", id, nil)
	httpresp.NoContent(c)
}

// ======================================================
// WORKFLOW
// ======================================================

func (h *ServiceOrderHandler) Start(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	o, err := h.start.Execute(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		httperr.FromError(c, err, "failed_to_start_service_order")
		return
	}
	httpresp.OK(c, o)
}

func (h *ServiceOrderHandler) Finish(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	o, err := h.finish.Execute(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		httperr.FromError(c, err, "failed_to_finish_service_order")
		return
	}

	h.metrics.OrderFinished()
	if o.Withdrawal != nil {
		for range o.Withdrawal.Items {
			h.metrics.StockMovement("SAIDA")
		}
	}

	httpresp.OK(c, o)
}

func (h *ServiceOrderHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	o, err := h.cancel.Execute(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		httperr.FromError(c, err, "failed_to_cancel_service_order")
		return
	}
	httpresp.OK(c, o)
}
