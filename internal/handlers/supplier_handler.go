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

type SupplierHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewSupplierHandler(db *gorm.DB, audit *audit.Dispatcher) *SupplierHandler {
	return &SupplierHandler{db: db, audit: audit}
}

type supplierRequest struct {
	Nome     *string `json:"nome"`
	CNPJ     *string `json:"cnpj"`
	Telefone *string `json:"telefone"`
	Email    *string `json:"email"`

	addressRequest
}

// CNPJ é opcional para fornecedor; se vier, precisa ser válido.
func (r supplierRequest) apply(s *models.Supplier, full bool) error {
	if full && isBlank(r.Nome) {
		return httperr.ErrBusiness("missing_required_fields")
	}
	if r.Nome != nil {
		if isBlank(r.Nome) {
			return httperr.ErrBusiness("missing_required_fields")
		}
		setString(&s.Nome, r.Nome)
	}

	if r.CNPJ != nil {
		if isBlank(r.CNPJ) {
			s.CNPJ = ""
		} else {
			cnpj := validators.NormalizeCNPJ(*r.CNPJ)
			if cnpj == "" {
				return httperr.ErrBusiness("invalid_cnpj")
			}
			s.CNPJ = cnpj
		}
	}
	if r.Email != nil {
		email := *trimPtr(r.Email)
		if email != "" && !validators.IsEmail(email) {
			return httperr.ErrBusiness("invalid_email")
		}
		s.Email = email
	}
	setString(&s.Telefone, r.Telefone)

	return r.addressRequest.apply(&s.Address)
}

func (h *SupplierHandler) List(c *gin.Context) {
	p := parseListParams(c)

	q := h.db.Model(&models.Supplier{})
	if p.query != "" {
		digits := validators.OnlyDigits(p.query)
		if digits != "" {
			q = q.Where("LOWER(nome) LIKE ? OR cnpj LIKE ?", p.like(), "%"+digits+"%")
		} else {
			q = q.Where("LOWER(nome) LIKE ?", p.like())
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "failed_to_list_suppliers", "Erro ao listar fornecedores.")
		return
	}

	var suppliers []models.Supplier
	if err := q.Order("nome").
		Limit(p.limit).
		Offset(p.offset).
		Find(&suppliers).Error; err != nil {

		httperr.Internal(c, "failed_to_list_suppliers", "Erro ao listar fornecedores.")
		return
	}

	httpresp.Page(c, suppliers, p.page, p.limit, total)
}

func (h *SupplierHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var s models.Supplier
	if err := findOr(h.db, &s, id, "supplier_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_get_supplier")
		return
	}
	httpresp.OK(c, s)
}

func (h *SupplierHandler) Create(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	var s models.Supplier
	if err := req.apply(&s, true); err != nil {
		httperr.FromError(c, err, "failed_to_create_supplier")
		return
	}
	if err := h.db.Create(&s).Error; err != nil {
		httperr.FromError(c, err, "failed_to_create_supplier")
		return
	}

	writeAudit(h.audit, c, "supplier_created", "supplier", s.ID, nil)
	httpresp.Created(c, s)
}

func (h *SupplierHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var s models.Supplier
	if err := findOr(h.db, &s, id, "supplier_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_update_supplier")
		return
	}

	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}
	if err := req.apply(&s, c.Request.Method == http.MethodPut); err != nil {
		httperr.FromError(c, err, "failed_to_update_supplier")
		return
	}

	if err := h.db.Save(&s).Error; err != nil {
		httperr.FromError(c, err, "failed_to_update_supplier")
		return
	}

	writeAudit(h.audit, c, "supplier_updated", "supplier", s.ID, nil)
	httpresp.OK(c, s)
}

func (h *SupplierHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := deleteGuarded(h.db, &models.Supplier{}, id, "supplier_not_found", "supplier_in_use",
		reference{&models.FinancialAccount{}, "supplier_id"},
	); err != nil {
		httperr.FromError(c, err, "failed_to_delete_supplier")
		return
	}

	writeAudit(h.audit, c, "supplier_deleted", "supplier", id, nil)
	httpresp.NoContent(c)
}
