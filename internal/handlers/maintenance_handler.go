package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/domain/maintenance"
	"github.com/mandacaru/erp-api/internal/dto"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/httpresp"
	"github.com/mandacaru/erp-api/internal/models"
)

type MaintenanceHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewMaintenanceHandler(db *gorm.DB, audit *audit.Dispatcher) *MaintenanceHandler {
	return &MaintenanceHandler{db: db, audit: audit}
}

type maintenanceRequest struct {
	EquipmentID       *uint    `json:"equipamento"`
	ServiceOrderID    *uint    `json:"ordem_servico"`
	Data              *string  `json:"data"`
	Tipo              *string  `json:"tipo"`
	Descricao         *string  `json:"descricao"`
	Horimetro         *float64 `json:"horimetro"`
	CustoEstimado     *float64 `json:"custo_estimado"`
	ProximaManutencao *string  `json:"proxima_manutencao"`
}

func (r maintenanceRequest) apply(m *models.MaintenanceRecord, full bool) error {
	if full && (r.EquipmentID == nil || isBlank(r.Data) || isBlank(r.Tipo) || isBlank(r.Descricao) || r.Horimetro == nil) {
		return httperr.ErrBusiness("missing_required_fields")
	}

	if r.EquipmentID != nil {
		m.EquipmentID = *r.EquipmentID
	}
	if r.ServiceOrderID != nil {
		m.ServiceOrderID = r.ServiceOrderID
	}
	if r.Data != nil {
		d, err := parseDate(*r.Data, "invalid_date")
		if err != nil {
			return err
		}
		m.Data = d
	}
	if r.Tipo != nil {
		m.Tipo = *trimPtr(r.Tipo)
	}
	if r.Descricao != nil {
		if isBlank(r.Descricao) {
			return httperr.ErrBusiness("missing_required_fields")
		}
		setString(&m.Descricao, r.Descricao)
	}
	if r.Horimetro != nil {
		m.Horimetro = *r.Horimetro
	}
	if r.CustoEstimado != nil {
		if *r.CustoEstimado < 0 {
			return httperr.ErrBusiness("invalid_amount")
		}
		m.CustoEstimado = *r.CustoEstimado
	}
	if r.ProximaManutencao != nil {
		next, err := parseOptionalDate(r.ProximaManutencao, "invalid_next_maintenance")
		if err != nil {
			return err
		}
		m.Proxima = next
	}
	return nil
}

// ======================================================
// LIST
// ======================================================
func (h *MaintenanceHandler) List(c *gin.Context) {
	p := parseListParams(c)

	q := h.db.Table("maintenance_records AS m").
		Joins("JOIN equipment AS e ON e.id = m.equipment_id")

	eqID, present, ok := queryID(c, "equipamento")
	if !ok {
		httperr.BadRequest(c, "invalid_filter", "Filtro inválido: equipamento.")
		return
	}
	if present {
		q = q.Where("m.equipment_id = ?", eqID)
	}
	if tipo := c.Query("tipo"); tipo != "" {
		q = q.Where("m.tipo = ?", tipo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "failed_to_list_maintenances", "Erro ao listar manutenções.")
		return
	}

	var rows []dto.MaintenanceListDTO
	if err := q.
		Select("m.*, e.nome AS equipamento_nome").
		Order("m.data DESC, m.id DESC").
		Limit(p.limit).
		Offset(p.offset).
		Scan(&rows).Error; err != nil {

		httperr.Internal(c, "failed_to_list_maintenances", "Erro ao listar manutenções.")
		return
	}

	httpresp.Page(c, rows, p.page, p.limit, total)
}

func (h *MaintenanceHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var m models.MaintenanceRecord
	if err := findOr(h.db, &m, id, "maintenance_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_get_maintenance")
		return
	}
	httpresp.OK(c, m)
}

func (h *MaintenanceHandler) Create(c *gin.Context) {
	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	var m models.MaintenanceRecord
	if err := req.apply(&m, true); err != nil {
		httperr.FromError(c, err, "failed_to_create_maintenance")
		return
	}

	if err := h.save(&m); err != nil {
		httperr.FromError(c, err, "failed_to_create_maintenance")
		return
	}

	writeAudit(h.audit, c, "maintenance_created", "maintenance", m.ID, map[string]any{
		"equipamento": m.EquipmentID,
		"horimetro":   m.Horimetro,
	})
	httpresp.Created(c, m)
}

func (h *MaintenanceHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var m models.MaintenanceRecord
	if err := findOr(h.db, &m, id, "maintenance_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_update_maintenance")
		return
	}

	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}
	if err := req.apply(&m, c.Request.Method == http.MethodPut); err != nil {
		httperr.FromError(c, err, "failed_to_update_maintenance")
		return
	}

	if err := h.save(&m); err != nil {
		httperr.FromError(c, err, "failed_to_update_maintenance")
		return
	}

	writeAudit(h.audit, c, "maintenance_updated", "maintenance", m.ID, nil)
	httpresp.OK(c, m)
}

func (h *MaintenanceHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := deleteGuarded(h.db, &models.MaintenanceRecord{}, id, "maintenance_not_found", "maintenance_in_use"); err != nil {
		httperr.FromError(c, err, "failed_to_delete_maintenance")
		return
	}

	writeAudit(h.audit, c, "maintenance_deleted", "maintenance", id, nil)
	httpresp.NoContent(c)
}

// save valida contra a leitura anterior e propaga horímetro / próxima data
// ao equipamento, na mesma transação.
func (h *MaintenanceHandler) save(m *models.MaintenanceRecord) error {
	return h.db.Transaction(func(tx *gorm.DB) error {
		var eq models.Equipment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&eq, m.EquipmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.ErrBusiness("equipment_not_found")
			}
			return err
		}

		prev, err := latestRecord(tx, m)
		if err != nil {
			return err
		}
		var last *float64
		newest := true
		if prev != nil {
			last = &prev.Horimetro
			newest = !m.Data.Before(prev.Data)
		}
		if err := maintenance.Validate(m, last); err != nil {
			return err
		}

		if m.ServiceOrderID != nil {
			if err := findOr(tx, &models.ServiceOrder{}, *m.ServiceOrderID, "service_order_not_found"); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Save(m).Error; err != nil {
			return err
		}

		maintenance.ApplyToEquipment(&eq, m, newest)
		return tx.Model(&eq).
			Select("horimetro", "proxima_manutencao").
			Updates(&eq).Error
	})
}

// latestRecord: último registro do equipamento (data, depois horímetro),
// ignorando o próprio registro em edição.
func latestRecord(tx *gorm.DB, m *models.MaintenanceRecord) (*models.MaintenanceRecord, error) {
	var prev models.MaintenanceRecord
	q := tx.Where("equipment_id = ?", m.EquipmentID)
	if m.ID != 0 {
		q = q.Where("id <> ?", m.ID)
	}

	err := q.Order("data DESC, horimetro DESC, id DESC").First(&prev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prev, nil
}
