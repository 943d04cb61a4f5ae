package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/httpresp"
	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/timezone"
)

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	db *gorm.DB
}

func NewAuditLogsHandler(db *gorm.DB) *AuditLogsHandler {
	return &AuditLogsHandler{db: db}
}

// GET /api/audit-logs?action=&entity=&entity_id=&from=&to=
func (h *AuditLogsHandler) List(c *gin.Context) {
	p := parseListParams(c)

	q := h.db.Model(&models.AuditLog{})

	// --------------------------------------------------
	// Filtros opcionais
	// --------------------------------------------------

	if action := strings.TrimSpace(c.Query("action")); action != "" {
		q = q.Where("action = ?", action)
	}
	if entity := strings.TrimSpace(c.Query("entity")); entity != "" {
		q = q.Where("entity = ?", entity)
	}
	entityID, present, ok := queryID(c, "entity_id")
	if !ok {
		httperr.BadRequest(c, "invalid_filter", "Filtro inválido: entity_id.")
		return
	}
	if present {
		q = q.Where("entity_id = ?", entityID)
	}

	// datas inválidas são ignoradas
	if from, err := timezone.ParseDate(c.Query("from")); err == nil {
		q = q.Where("created_at >= ?", from)
	}
	if to, err := timezone.ParseDate(c.Query("to")); err == nil {
		q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	// --------------------------------------------------
	// Total + listagem
	// --------------------------------------------------

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "audit_count_failed", "Erro ao contar logs.")
		return
	}

	var logs []models.AuditLog
	if err := q.
		Order("created_at DESC, id DESC").
		Limit(p.limit).
		Offset(p.offset).
		Find(&logs).Error; err != nil {

		httperr.Internal(c, "audit_list_failed", "Erro ao listar logs.")
		return
	}

	httpresp.Page(c, logs, p.page, p.limit, total)
}
