package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/domain/fuel"
	"github.com/mandacaru/erp-api/internal/domain/inventory"
	"github.com/mandacaru/erp-api/internal/domain/money"
	"github.com/mandacaru/erp-api/internal/dto"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/httpresp"
	"github.com/mandacaru/erp-api/internal/metrics"
	"github.com/mandacaru/erp-api/internal/middleware"
	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/timezone"
)

// FuelHandler registra abastecimentos. Origem ALMOXARIFADO baixa o
// combustível do estoque na mesma transação.
type FuelHandler struct {
	db      *gorm.DB
	audit   *audit.Dispatcher
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewFuelHandler(db *gorm.DB, audit *audit.Dispatcher, metrics *metrics.Metrics) *FuelHandler {
	return &FuelHandler{db: db, audit: audit, metrics: metrics, now: timezone.Now}
}

type fuelRequest struct {
	EquipmentID      *uint    `json:"equipamento"`
	Origem           *string  `json:"origem_combustivel"`
	ProductID        *uint    `json:"produto"`
	Combustivel      *string  `json:"combustivel"`
	Data             *string  `json:"data_abastecimento"`
	QuantidadeLitros *float64 `json:"quantidade_litros"`
	PrecoLitro       *float64 `json:"preco_litro"`
	TipoMedicao      *string  `json:"tipo_medicao"`
	MedicaoAtual     *float64 `json:"medicao_atual"`
	Posto            *string  `json:"posto_combustivel"`
	Cidade           *string  `json:"cidade"`
	Observacoes      *string  `json:"observacoes"`
}

// applyCommon cobre os campos editáveis depois do cadastro.
func (r fuelRequest) applyCommon(f *models.FuelRecord) error {
	if r.Data != nil {
		d, err := parseDate(*r.Data, "invalid_date")
		if err != nil {
			return err
		}
		f.Data = d
	}
	if r.PrecoLitro != nil {
		f.PrecoLitro = money.Round3(*r.PrecoLitro)
	}
	if r.TipoMedicao != nil {
		f.TipoMedicao = upper(*r.TipoMedicao)
	}
	if r.MedicaoAtual != nil {
		f.MedicaoAtual = *r.MedicaoAtual
	}
	setString(&f.Combustivel, r.Combustivel)
	setString(&f.Posto, r.Posto)
	setString(&f.Cidade, r.Cidade)
	setString(&f.Observacoes, r.Observacoes)
	return nil
}

type fuelRow struct {
	models.FuelRecord
	ConsumoPeriodo *float64 `json:"consumo_periodo"`
}

func newFuelRow(f models.FuelRecord) fuelRow {
	return fuelRow{FuelRecord: f, ConsumoPeriodo: fuel.Consumption(f)}
}

// ======================================================
// LIST
// ======================================================
func (h *FuelHandler) List(c *gin.Context) {
	p := parseListParams(c)

	q := h.db.Table("fuel_records AS f").
		Joins("JOIN equipment AS e ON e.id = f.equipment_id")

	eqID, present, ok := queryID(c, "equipamento")
	if !ok {
		httperr.BadRequest(c, "invalid_filter", "Filtro inválido: equipamento.")
		return
	}
	if present {
		q = q.Where("f.equipment_id = ?", eqID)
	}
	if aprovado, present := queryBool(c, "aprovado"); present {
		q = q.Where("f.aprovado = ?", aprovado)
	}
	if origem := upper(c.Query("origem")); origem != "" {
		q = q.Where("f.origem = ?", origem)
	}
	if p.query != "" {
		q = q.Where("LOWER(f.numero) LIKE ? OR LOWER(e.nome) LIKE ? OR LOWER(f.posto) LIKE ?", p.like(), p.like(), p.like())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "failed_to_list_fuel_records", "Erro ao listar abastecimentos.")
		return
	}

	var rows []dto.FuelListDTO
	if err := q.
		Select("f.*, e.nome AS equipamento_nome").
		Order("f.data DESC, f.id DESC").
		Limit(p.limit).
		Offset(p.offset).
		Scan(&rows).Error; err != nil {

		httperr.Internal(c, "failed_to_list_fuel_records", "Erro ao listar abastecimentos.")
		return
	}

	httpresp.Page(c, rows, p.page, p.limit, total)
}

func (h *FuelHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var f models.FuelRecord
	if err := findOr(h.db, &f, id, "fuel_record_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_get_fuel_record")
		return
	}
	httpresp.OK(c, newFuelRow(f))
}

// ======================================================
// CREATE
// ======================================================
func (h *FuelHandler) Create(c *gin.Context) {
	var req fuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}
	if req.EquipmentID == nil || isBlank(req.Data) || req.QuantidadeLitros == nil || req.MedicaoAtual == nil {
		httperr.FromError(c, httperr.ErrBusiness("missing_required_fields"), "failed_to_create_fuel_record")
		return
	}

	f := models.FuelRecord{
		EquipmentID:      *req.EquipmentID,
		Origem:           string(fuel.OriginStation),
		ProductID:        req.ProductID,
		QuantidadeLitros: money.Round3(*req.QuantidadeLitros),
		TipoMedicao:      string(fuel.MeasureHours),
		CriadoPor:        middleware.UserID(c),
	}
	if req.Origem != nil {
		f.Origem = upper(*req.Origem)
	}
	if err := req.applyCommon(&f); err != nil {
		httperr.FromError(c, err, "failed_to_create_fuel_record")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := fuel.Validate(&f); err != nil {
			return err
		}
		if err := findOr(tx, &models.Equipment{}, f.EquipmentID, "equipment_not_found"); err != nil {
			return err
		}

		var product *models.Product
		if fuel.Origin(f.Origem) == fuel.OriginStock && f.ProductID != nil {
			product = &models.Product{}
			if err := findOr(tx.Clauses(clause.Locking{Strength: "UPDATE"}), product, *f.ProductID, "product_not_found"); err != nil {
				return err
			}
			if f.Combustivel == "" {
				f.Combustivel = product.Descricao
			}
			if req.PrecoLitro == nil {
				f.PrecoLitro = product.PrecoCusto
			}
		}
		if f.Combustivel == "" {
			return httperr.ErrBusiness("missing_required_fields")
		}

		prev, err := previousMeasurement(tx, &f)
		if err != nil {
			return err
		}
		f.MedicaoAnterior = prev
		f.ValorTotal = fuel.Total(f)

		if f.Numero, err = h.nextNumber(tx); err != nil {
			return err
		}

		if product != nil {
			before := product.EstoqueAtual
			if err := inventory.Apply(product, inventory.MovementOut, f.QuantidadeLitros); err != nil {
				return err
			}
			after := product.EstoqueAtual
			f.EstoqueAntes, f.EstoqueDepois = &before, &after

			if err := tx.Model(product).Update("estoque_atual", product.EstoqueAtual).Error; err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Create(&f).Error; err != nil {
			return saveErr(err, "duplicate_fuel_number")
		}

		if product == nil {
			return nil
		}
		return tx.Create(&models.StockMovement{
			ProductID:  product.ID,
			Tipo:       string(inventory.MovementOut),
			Quantidade: f.QuantidadeLitros,
			Origem:     fmt.Sprintf("Abastecimento %s", f.Numero),
			UserID:     userRef(f.CriadoPor),
		}).Error
	})
	if err != nil {
		httperr.FromError(c, err, "failed_to_create_fuel_record")
		return
	}

	if f.ProductID != nil && fuel.Origin(f.Origem) == fuel.OriginStock {
		h.metrics.StockMovement(string(inventory.MovementOut))
	}
	writeAudit(h.audit, c, "fuel_record_created", "fuel_record", f.ID, map[string]any{
		"numero":      f.Numero,
		"equipamento": f.EquipmentID,
		"litros":      f.QuantidadeLitros,
	})
	httpresp.Created(c, newFuelRow(f))
}

// nextNumber: último número do mês + 1, dentro da transação do cadastro.
func (h *FuelHandler) nextNumber(tx *gorm.DB) (string, error) {
	now := h.now()

	var last models.FuelRecord
	err := tx.Select("numero").
		Where("numero LIKE ?", fuel.NumberPrefix(now)+"%").
		Order("numero DESC").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	return fuel.NextNumber(now, last.Numero), nil
}

// previousMeasurement: leitura do abastecimento anterior do equipamento; 0 se não houver.
func previousMeasurement(tx *gorm.DB, f *models.FuelRecord) (float64, error) {
	var prev models.FuelRecord
	q := tx.Where("equipment_id = ? AND data < ?", f.EquipmentID, f.Data)
	if f.ID != 0 {
		q = q.Where("id <> ?", f.ID)
	}

	err := q.Order("data DESC, id DESC").First(&prev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return prev.MedicaoAtual, nil
}

// ======================================================
// UPDATE / DELETE
// ======================================================

// Update aceita só os campos descritivos: equipamento, origem, produto e
// litros ficam presos à baixa de estoque já feita.
func (h *FuelHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req fuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}
	if req.EquipmentID != nil || req.Origem != nil || req.ProductID != nil || req.QuantidadeLitros != nil {
		httperr.FromError(c, httperr.ErrBusiness("fuel_stock_fields_locked"), "failed_to_update_fuel_record")
		return
	}

	var f models.FuelRecord
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := findOr(tx.Clauses(clause.Locking{Strength: "UPDATE"}), &f, id, "fuel_record_not_found"); err != nil {
			return err
		}
		if err := fuel.CanEdit(f); err != nil {
			return err
		}
		if err := req.applyCommon(&f); err != nil {
			return err
		}
		if err := fuel.Validate(&f); err != nil {
			return err
		}

		prev, err := previousMeasurement(tx, &f)
		if err != nil {
			return err
		}
		f.MedicaoAnterior = prev
		f.ValorTotal = fuel.Total(f)

		return tx.Omit(clause.Associations).Save(&f).Error
	})
	if err != nil {
		httperr.FromError(c, err, "failed_to_update_fuel_record")
		return
	}

	writeAudit(h.audit, c, "fuel_record_updated", "fuel_record", f.ID, nil)
	httpresp.OK(c, newFuelRow(f))
}

// Delete estorna a baixa de estoque quando a origem é o almoxarifado.
func (h *FuelHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var f models.FuelRecord
		if err := findOr(tx.Clauses(clause.Locking{Strength: "UPDATE"}), &f, id, "fuel_record_not_found"); err != nil {
			return err
		}
		if err := fuel.CanEdit(f); err != nil {
			return err
		}

		if fuel.Origin(f.Origem) == fuel.OriginStock && f.ProductID != nil {
			var p models.Product
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, *f.ProductID).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err == nil {
				if err := inventory.Apply(&p, inventory.MovementIn, f.QuantidadeLitros); err != nil {
					return err
				}
				if err := tx.Model(&p).Update("estoque_atual", p.EstoqueAtual).Error; err != nil {
					return err
				}
				if err := tx.Create(&models.StockMovement{
					ProductID:  p.ID,
					Tipo:       string(inventory.MovementIn),
					Quantidade: f.QuantidadeLitros,
					Origem:     fmt.Sprintf("Estorno abastecimento %s", f.Numero),
					UserID:     userRef(middleware.UserID(c)),
				}).Error; err != nil {
					return err
				}
			}
		}

		return tx.Delete(&f).Error
	})
	if err != nil {
		httperr.FromError(c, err, "failed_to_delete_fuel_record")
		return
	}

	writeAudit(h.audit, c, "fuel_record_deleted", "fuel_record", id, nil)
	httpresp.NoContent(c)
}

// ======================================================
// APPROVE
// ======================================================
func (h *FuelHandler) Approve(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var f models.FuelRecord
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := findOr(tx.Clauses(clause.Locking{Strength: "UPDATE"}), &f, id, "fuel_record_not_found"); err != nil {
			return err
		}
		if err := fuel.Approve(&f, middleware.UserID(c), h.now()); err != nil {
			return err
		}
		return tx.Model(&f).
			Select("aprovado", "aprovado_por", "data_aprovacao").
			Updates(&f).Error
	})
	if err != nil {
		httperr.FromError(c, err, "failed_to_approve_fuel_record")
		return
	}

	writeAudit(h.audit, c, "fuel_record_approved", "fuel_record", f.ID, nil)
	httpresp.OK(c, newFuelRow(f))
}

func userRef(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
