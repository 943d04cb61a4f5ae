package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/httpresp"
	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/validators"
)

type ClientHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewClientHandler(db *gorm.DB, audit *audit.Dispatcher) *ClientHandler {
	return &ClientHandler{db: db, audit: audit}
}

// --------- Requests ---------

type clientRequest struct {
	RazaoSocial       *string `json:"razao_social"`
	NomeFantasia      *string `json:"nome_fantasia"`
	CNPJ              *string `json:"cnpj"`
	InscricaoEstadual *string `json:"inscricao_estadual"`
	Email             *string `json:"email"`
	Telefone          *string `json:"telefone"`
	Observacoes       *string `json:"observacoes"`

	addressRequest
}

// apply copia os campos enviados. full=true (POST/PUT) exige os obrigatórios.
func (r clientRequest) apply(cl *models.Client, full bool) error {
	if full && (isBlank(r.RazaoSocial) || isBlank(r.CNPJ)) {
		return httperr.ErrBusiness("missing_required_fields")
	}

	if r.RazaoSocial != nil {
		if isBlank(r.RazaoSocial) {
			return httperr.ErrBusiness("missing_required_fields")
		}
		setString(&cl.RazaoSocial, r.RazaoSocial)
	}
	if r.CNPJ != nil {
		cnpj := validators.NormalizeCNPJ(*r.CNPJ)
		if cnpj == "" {
			return httperr.ErrBusiness("invalid_cnpj")
		}
		cl.CNPJ = cnpj
	}
	if r.Email != nil {
		email := *trimPtr(r.Email)
		if email != "" && !validators.IsEmail(email) {
			return httperr.ErrBusiness("invalid_email")
		}
		cl.Email = email
	}

	setString(&cl.NomeFantasia, r.NomeFantasia)
	setString(&cl.InscricaoEstadual, r.InscricaoEstadual)
	setString(&cl.Telefone, r.Telefone)
	setString(&cl.Observacoes, r.Observacoes)

	return r.addressRequest.apply(&cl.Address)
}

// ======================================================
// LIST
// ======================================================
func (h *ClientHandler) List(c *gin.Context) {
	p := parseListParams(c)

	q := h.db.Model(&models.Client{})
	if p.query != "" {
		if digits := validators.OnlyDigits(p.query); digits != "" {
			q = q.Where(
				"LOWER(razao_social) LIKE ? OR LOWER(nome_fantasia) LIKE ? OR cnpj LIKE ?",
				p.like(), p.like(), "%"+digits+"%",
			)
		} else {
			q = q.Where("LOWER(razao_social) LIKE ? OR LOWER(nome_fantasia) LIKE ?", p.like(), p.like())
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "failed_to_list_clients", "Erro ao listar clientes.")
		return
	}

	var clients []models.Client
	if err := q.
		Order("razao_social").
		Limit(p.limit).
		Offset(p.offset).
		Find(&clients).Error; err != nil {

		httperr.Internal(c, "failed_to_list_clients", "Erro ao listar clientes.")
		return
	}

	httpresp.Page(c, clients, p.page, p.limit, total)
}

func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var cl models.Client
	if err := findOr(h.db, &cl, id, "client_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_get_client")
		return
	}

	httpresp.OK(c, cl)
}

func (h *ClientHandler) Create(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	var cl models.Client
	if err := req.apply(&cl, true); err != nil {
		httperr.FromError(c, err, "failed_to_create_client")
		return
	}

	if err := h.db.Create(&cl).Error; err != nil {
		httperr.FromError(c, saveErr(err, "duplicate_cnpj"), "failed_to_create_client")
		return
	}

	writeAudit(h.audit, c, "client_created", "client", cl.ID, nil)
	httpresp.Created(c, cl)
}

// Update atende PUT (completo) e PATCH (parcial).
func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var cl models.Client
	if err := findOr(h.db, &cl, id, "client_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_update_client")
		return
	}

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	if err := req.apply(&cl, c.Request.Method == http.MethodPut); err != nil {
		httperr.FromError(c, err, "failed_to_update_client")
		return
	}

	if err := h.db.Save(&cl).Error; err != nil {
		httperr.FromError(c, saveErr(err, "duplicate_cnpj"), "failed_to_update_client")
		return
	}

	writeAudit(h.audit, c, "client_updated", "client", cl.ID, nil)
	httpresp.OK(c, cl)
}

func (h *ClientHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	err := deleteGuarded(h.db, &models.Client{}, id, "client_not_found", "client_in_use",
		reference{&models.BusinessSite{}, "client_id"},
		reference{&models.Equipment{}, "client_id"},
		reference{&models.Quote{}, "client_id"},
		reference{&models.ServiceOrder{}, "client_id"},
		reference{&models.FinancialAccount{}, "client_id"},
	)
	if err != nil {
		httperr.FromError(c, err, "failed_to_delete_client")
		return
	}

	writeAudit(h.audit, c, "client_deleted", "client", id, nil)
	httpresp.NoContent(c)
}

// Sites: primeiro passo da cascata cliente → empreendimento.
func (h *ClientHandler) Sites(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var cl models.Client
	if err := findOr(h.db, &cl, id, "client_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_list_sites")
		return
	}

	var sites []models.BusinessSite
	if err := h.db.Where("client_id = ?", id).Order("nome").Find(&sites).Error; err != nil {
		httperr.Internal(c, "failed_to_list_sites", "Erro ao listar empreendimentos.")
		return
	}

	httpresp.List(c, sites)
}
