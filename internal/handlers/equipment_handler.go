package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/httpresp"
	"github.com/mandacaru/erp-api/internal/infra/storage"
	"github.com/mandacaru/erp-api/internal/middleware"
	"github.com/mandacaru/erp-api/internal/models"
)

var equipmentStatuses = map[string]bool{
	"OPERACIONAL": true,
	"MANUTENCAO":  true,
	"PARADO":      true,
	"INATIVO":     true,
}

type EquipmentHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
	files fileUploader
}

func NewEquipmentHandler(
	db *gorm.DB,
	audit *audit.Dispatcher,
	uploader storage.Uploader,
	maxUploadBytes int64,
) *EquipmentHandler {
	return &EquipmentHandler{
		db:    db,
		audit: audit,
		files: fileUploader{uploader: uploader, maxBytes: maxUploadBytes},
	}
}

type equipmentRequest struct {
	ClientID          *uint    `json:"cliente"`
	BusinessSiteID    *uint    `json:"empreendimento"`
	Nome              *string  `json:"nome"`
	Descricao         *string  `json:"descricao"`
	Tipo              *string  `json:"tipo"`
	Marca             *string  `json:"marca"`
	Modelo            *string  `json:"modelo"`
	NumeroSerie       *string  `json:"n_serie"`
	Horimetro         *float64 `json:"horimetro"`
	Status            *string  `json:"status"`
	ProximaManutencao *string  `json:"proxima_manutencao"`
}

func (r equipmentRequest) apply(db *gorm.DB, e *models.Equipment, full bool) error {
	if full && (r.ClientID == nil || r.BusinessSiteID == nil || isBlank(r.Nome)) {
		return httperr.ErrBusiness("missing_required_fields")
	}

	if r.ClientID != nil {
		e.ClientID = *r.ClientID
	}
	if r.BusinessSiteID != nil {
		e.BusinessSiteID = *r.BusinessSiteID
	}
	if r.ClientID != nil || r.BusinessSiteID != nil {
		if err := checkSiteOwner(db, e.ClientID, e.BusinessSiteID); err != nil {
			return err
		}
	}

	if r.Nome != nil {
		if isBlank(r.Nome) {
			return httperr.ErrBusiness("missing_required_fields")
		}
		setString(&e.Nome, r.Nome)
	}
	if r.NumeroSerie != nil {
		if isBlank(r.NumeroSerie) {
			e.NumeroSerie = nil
		} else {
			e.NumeroSerie = trimPtr(r.NumeroSerie)
		}
	}
	if r.Horimetro != nil {
		if *r.Horimetro < 0 {
			return httperr.ErrBusiness("invalid_horimetro")
		}
		e.Horimetro = *r.Horimetro
	}
	if r.Status != nil {
		st := upper(*r.Status)
		if !equipmentStatuses[st] {
			return httperr.ErrBusiness("invalid_equipment_status")
		}
		e.Status = st
	}
	if r.ProximaManutencao != nil {
		next, err := parseOptionalDate(r.ProximaManutencao, "invalid_next_maintenance")
		if err != nil {
			return err
		}
		e.ProximaManutencao = next
	}

	setString(&e.Descricao, r.Descricao)
	setString(&e.Tipo, r.Tipo)
	setString(&e.Marca, r.Marca)
	setString(&e.Modelo, r.Modelo)
	return nil
}

// checkSiteOwner garante a cascata: o empreendimento é do cliente informado.
func checkSiteOwner(db *gorm.DB, clientID, siteID uint) error {
	if err := findOr(db, &models.Client{}, clientID, "client_not_found"); err != nil {
		return err
	}
	var site models.BusinessSite
	if err := findOr(db, &site, siteID, "site_not_found"); err != nil {
		return err
	}
	if site.ClientID != clientID {
		return httperr.ErrBusiness("site_client_mismatch")
	}
	return nil
}

// ======================================================
// CRUD
// ======================================================

func (h *EquipmentHandler) List(c *gin.Context) {
	p := parseListParams(c)

	q := h.db.Model(&models.Equipment{})

	for param, column := range map[string]string{
		"cliente":        "client_id",
		"empreendimento": "business_site_id",
	} {
		id, present, ok := queryID(c, param)
		if !ok {
			httperr.BadRequest(c, "invalid_filter", "Filtro inválido: "+param+".")
			return
		}
		if present {
			q = q.Where(column+" = ?", id)
		}
	}
	if st := upper(c.Query("status")); st != "" {
		q = q.Where("status = ?", st)
	}
	if p.query != "" {
		q = q.Where(
			"LOWER(nome) LIKE ? OR LOWER(marca) LIKE ? OR LOWER(modelo) LIKE ? OR LOWER(numero_serie) LIKE ?",
			p.like(), p.like(), p.like(), p.like(),
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "failed_to_list_equipments", "Erro ao listar equipamentos.")
		return
	}

	var eqs []models.Equipment
	if err := q.
		Order("nome").
		Limit(p.limit).
		Offset(p.offset).
		Find(&eqs).Error; err != nil {

		httperr.Internal(c, "failed_to_list_equipments", "Erro ao listar equipamentos.")
		return
	}

	httpresp.Page(c, eqs, p.page, p.limit, total)
}

func (h *EquipmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var e models.Equipment
	if err := findOr(h.db, &e, id, "equipment_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_get_equipment")
		return
	}
	httpresp.OK(c, e)
}

// GetByUUID atende a leitura do QR code colado no equipamento.
func (h *EquipmentHandler) GetByUUID(c *gin.Context) {
	raw := strings.TrimSpace(c.Param("uuid"))
	if _, err := uuid.Parse(raw); err != nil {
		httperr.BadRequest(c, "invalid_uuid", "UUID inválido.")
		return
	}

	var e models.Equipment
	if err := h.db.Where("uuid = ?", strings.ToLower(raw)).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = httperr.ErrBusiness("equipment_not_found")
		}
		httperr.FromError(c, err, "failed_to_get_equipment")
		return
	}
	httpresp.OK(c, e)
}

func (h *EquipmentHandler) Create(c *gin.Context) {
	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	e := models.Equipment{
		UUID:   uuid.NewString(),
		Status: "OPERACIONAL",
	}
	if err := req.apply(h.db, &e, true); err != nil {
		httperr.FromError(c, err, "failed_to_create_equipment")
		return
	}

	if err := h.db.Omit(clause.Associations).Create(&e).Error; err != nil {
		httperr.FromError(c, saveErr(err, "duplicate_serial_number"), "failed_to_create_equipment")
		return
	}

	writeAudit(h.audit, c, "equipment_created", "equipment", e.ID, nil)
	httpresp.Created(c, e)
}

func (h *EquipmentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var e models.Equipment
	if err := findOr(h.db, &e, id, "equipment_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_update_equipment")
		return
	}

	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	if err := req.apply(h.db, &e, c.Request.Method == http.MethodPut); err != nil {
		httperr.FromError(c, err, "failed_to_update_equipment")
		return
	}

	if err := h.db.Omit(clause.Associations).Save(&e).Error; err != nil {
		httperr.FromError(c, saveErr(err, "duplicate_serial_number"), "failed_to_update_equipment")
		return
	}

	writeAudit(h.audit, c, "equipment_updated", "equipment", e.ID, nil)
	httpresp.OK(c, e)
}

func (h *EquipmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	err := deleteGuarded(h.db, &models.Equipment{}, id, "equipment_not_found", "equipment_in_use",
		reference{&models.MaintenanceRecord{}, "equipment_id"},
		reference{&models.FuelRecord{}, "equipment_id"},
		reference{&models.Quote{}, "equipment_id"},
		reference{&models.ServiceOrder{}, "equipment_id"},
	)
	if err != nil {
		httperr.FromError(c, err, "failed_to_delete_equipment")
		return
	}

	h.db.Where("entity = ? AND entity_id = ?", "equipment", id).Delete(&models.Attachment{})

	writeAudit(h.audit, c, "equipment_deleted", "equipment", id, nil)
	httpresp.NoContent(c)
}

// ======================================================
// ATTACHMENTS
// ======================================================

func (h *EquipmentHandler) UploadAttachment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := findOr(h.db, &models.Equipment{}, id, "equipment_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_upload_attachment")
		return
	}

	fh, err := c.FormFile("arquivo")
	if err != nil {
		httperr.BadRequest(c, "missing_file", "Arquivo não enviado (campo \"arquivo\").")
		return
	}

	att, err := h.files.upload(c.Request.Context(), fh, "equipamentos", id)
	if err != nil {
		httperr.FromError(c, err, "failed_to_upload_attachment")
		return
	}
	att.Entity = "equipment"
	att.UploadedBy = middleware.UserIDPtr(c)

	if err := h.db.Create(att).Error; err != nil {
		httperr.FromError(c, err, "failed_to_upload_attachment")
		return
	}

	writeAudit(h.audit, c, "attachment_uploaded", "equipment", id, map[string]any{"arquivo": att.FileName})
	httpresp.Created(c, att)
}

func (h *EquipmentHandler) ListAttachments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var atts []models.Attachment
	if err := h.db.
		Where("entity = ? AND entity_id = ?", "equipment", id).
		Order("created_at DESC").
		Find(&atts).Error; err != nil {

		httperr.Internal(c, "failed_to_list_attachments", "Erro ao listar anexos.")
		return
	}

	httpresp.List(c, atts)
}
