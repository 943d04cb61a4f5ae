package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/dto"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/httpresp"
	"github.com/mandacaru/erp-api/internal/models"
)

type BusinessSiteHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewBusinessSiteHandler(db *gorm.DB, audit *audit.Dispatcher) *BusinessSiteHandler {
	return &BusinessSiteHandler{db: db, audit: audit}
}

type siteRequest struct {
	ClientID    *uint    `json:"cliente"`
	Nome        *string  `json:"nome"`
	Descricao   *string  `json:"descricao"`
	DistanciaKm *float64 `json:"distancia_km"`

	addressRequest
}

func (r siteRequest) apply(db *gorm.DB, s *models.BusinessSite, full bool) error {
	if full && (r.ClientID == nil || isBlank(r.Nome)) {
		return httperr.ErrBusiness("missing_required_fields")
	}

	if r.ClientID != nil {
		if err := findOr(db, &models.Client{}, *r.ClientID, "client_not_found"); err != nil {
			return err
		}
		s.ClientID = *r.ClientID
	}
	if r.Nome != nil {
		if isBlank(r.Nome) {
			return httperr.ErrBusiness("missing_required_fields")
		}
		setString(&s.Nome, r.Nome)
	}
	if r.DistanciaKm != nil {
		if *r.DistanciaKm < 0 {
			return httperr.ErrBusiness("invalid_distance")
		}
		s.DistanciaKm = *r.DistanciaKm
	}
	setString(&s.Descricao, r.Descricao)

	return r.addressRequest.apply(&s.Address)
}

func (h *BusinessSiteHandler) List(c *gin.Context) {
	p := parseListParams(c)

	clientID, present, ok := queryID(c, "cliente")
	if !ok {
		httperr.BadRequest(c, "invalid_client_filter", "Filtro de cliente inválido.")
		return
	}

	q := h.db.Table("business_sites AS s").
		Joins("JOIN clients AS c ON c.id = s.client_id")
	if present {
		q = q.Where("s.client_id = ?", clientID)
	}
	if p.query != "" {
		q = q.Where("LOWER(s.nome) LIKE ? OR LOWER(s.cidade) LIKE ?", p.like(), p.like())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "failed_to_list_sites", "Erro ao listar empreendimentos.")
		return
	}

	var rows []dto.SiteListDTO
	if err := q.
		Select("s.*, COALESCE(NULLIF(c.nome_fantasia, ''), c.razao_social) AS cliente_nome").
		Order("s.nome").
		Limit(p.limit).
		Offset(p.offset).
		Scan(&rows).Error; err != nil {

		httperr.Internal(c, "failed_to_list_sites", "Erro ao listar empreendimentos.")
		return
	}

	httpresp.Page(c, rows, p.page, p.limit, total)
}

func (h *BusinessSiteHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var s models.BusinessSite
	if err := findOr(h.db, &s, id, "site_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_get_site")
		return
	}
	httpresp.OK(c, s)
}

func (h *BusinessSiteHandler) Create(c *gin.Context) {
	var req siteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	var s models.BusinessSite
	if err := req.apply(h.db, &s, true); err != nil {
		httperr.FromError(c, err, "failed_to_create_site")
		return
	}

	if err := h.db.Omit(clause.Associations).Create(&s).Error; err != nil {
		httperr.FromError(c, err, "failed_to_create_site")
		return
	}

	writeAudit(h.audit, c, "site_created", "business_site", s.ID, nil)
	httpresp.Created(c, s)
}

func (h *BusinessSiteHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var s models.BusinessSite
	if err := findOr(h.db, &s, id, "site_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_update_site")
		return
	}

	var req siteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	previousClient := s.ClientID
	if err := req.apply(h.db, &s, c.Request.Method == http.MethodPut); err != nil {
		httperr.FromError(c, err, "failed_to_update_site")
		return
	}

	// equipamentos, orçamentos e OS guardam o cliente do empreendimento
	if s.ClientID != previousClient {
		busy, err := inUse(h.db, s.ID,
			reference{&models.Equipment{}, "business_site_id"},
			reference{&models.Quote{}, "business_site_id"},
			reference{&models.ServiceOrder{}, "business_site_id"},
		)
		if err != nil {
			httperr.FromError(c, err, "failed_to_update_site")
			return
		}
		if busy {
			httperr.FromError(c, httperr.ErrBusiness("site_in_use"), "failed_to_update_site")
			return
		}
	}

	if err := h.db.Omit(clause.Associations).Save(&s).Error; err != nil {
		httperr.FromError(c, err, "failed_to_update_site")
		return
	}

	writeAudit(h.audit, c, "site_updated", "business_site", s.ID, nil)
	httpresp.OK(c, s)
}

func (h *BusinessSiteHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	err := deleteGuarded(h.db, &models.BusinessSite{}, id, "site_not_found", "site_in_use",
		reference{&models.Equipment{}, "business_site_id"},
		reference{&models.Quote{}, "business_site_id"},
		reference{&models.ServiceOrder{}, "business_site_id"},
	)
	if err != nil {
		httperr.FromError(c, err, "failed_to_delete_site")
		return
	}

	writeAudit(h.audit, c, "site_deleted", "business_site", id, nil)
	httpresp.NoContent(c)
}

// Equipments: segundo passo da cascata empreendimento → equipamento.
func (h *BusinessSiteHandler) Equipments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := findOr(h.db, &models.BusinessSite{}, id, "site_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_list_equipments")
		return
	}

	var eqs []models.Equipment
	if err := h.db.Where("business_site_id = ?", id).Order("nome").Find(&eqs).Error; err != nil {
		httperr.Internal(c, "failed_to_list_equipments", "Erro ao listar equipamentos.")
		return
	}

	httpresp.List(c, eqs)
}
