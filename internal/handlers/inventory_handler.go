package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/domain/inventory"
	"github.com/mandacaru/erp-api/internal/domain/money"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/httpresp"
	"github.com/mandacaru/erp-api/internal/metrics"
	"github.com/mandacaru/erp-api/internal/middleware"
	"github.com/mandacaru/erp-api/internal/models"
	invuc "github.com/mandacaru/erp-api/internal/usecase/inventory"
)

type InventoryHandler struct {
	db      *gorm.DB
	audit   *audit.Dispatcher
	metrics *metrics.Metrics

	lowStockThreshold float64
	register          *invuc.RegisterMovement
}

func NewInventoryHandler(
	db *gorm.DB,
	repo inventory.Repository,
	audit *audit.Dispatcher,
	m *metrics.Metrics,
	lowStockThreshold float64,
) *InventoryHandler {
	return &InventoryHandler{
		db:                db,
		audit:             audit,
		metrics:           m,
		lowStockThreshold: lowStockThreshold,
		register:          invuc.NewRegisterMovement(repo, audit),
	}
}

// estoque_atual só é aceito na criação (saldo inicial). Depois disso o saldo
// muda apenas por movimentação.
type productRequest struct {
	Codigo        *string  `json:"codigo"`
	Descricao     *string  `json:"descricao"`
	UnidadeMedida *string  `json:"unidade_medida"`
	EstoqueAtual  *float64 `json:"estoque_atual"`
	EstoqueMinimo *float64 `json:"estoque_minimo"`
	PrecoCusto    *float64 `json:"preco_custo"`
	Ativo         *bool    `json:"ativo"`
}

func (r productRequest) apply(p *models.Product, full bool) error {
	if full && (isBlank(r.Codigo) || isBlank(r.Descricao) || isBlank(r.UnidadeMedida)) {
		return httperr.ErrBusiness("missing_required_fields")
	}
	for _, s := range []*string{r.Codigo, r.Descricao, r.UnidadeMedida} {
		if s != nil && isBlank(s) {
			return httperr.ErrBusiness("missing_required_fields")
		}
	}

	if r.Codigo != nil {
		p.Codigo = upper(*r.Codigo)
	}
	setString(&p.Descricao, r.Descricao)
	setString(&p.UnidadeMedida, r.UnidadeMedida)

	if r.EstoqueMinimo != nil {
		if *r.EstoqueMinimo < 0 {
			return httperr.ErrBusiness("invalid_quantity")
		}
		p.EstoqueMinimo = money.Round3(*r.EstoqueMinimo)
	}
	if r.PrecoCusto != nil {
		if *r.PrecoCusto < 0 {
			return httperr.ErrBusiness("invalid_item_price")
		}
		p.PrecoCusto = money.Round2(*r.PrecoCusto)
	}
	if r.Ativo != nil {
		p.Ativo = *r.Ativo
	}
	return nil
}

type movementRequest struct {
	ProductID  uint    `json:"produto" binding:"required"`
	Tipo       string  `json:"tipo" binding:"required"`
	Quantidade float64 `json:"quantidade"`
	Origem     string  `json:"origem"`
}

type productRow struct {
	models.Product
	Disponivel   float64 `json:"disponivel"`
	EstoqueBaixo bool    `json:"estoque_baixo"`
}

func (h *InventoryHandler) row(p models.Product) productRow {
	return productRow{
		Product:      p,
		Disponivel:   money.Round3(p.Disponivel()),
		EstoqueBaixo: inventory.IsLow(p, h.lowStockThreshold),
	}
}

// lowStockClause: disponível abaixo de max(estoque_minimo, limite global).
func lowStockClause(db *gorm.DB, threshold float64) *gorm.DB {
	return db.Where(
		"(estoque_atual - estoque_reservado) < CASE WHEN estoque_minimo > ? THEN estoque_minimo ELSE ? END",
		threshold, threshold,
	)
}

// ======================================================
// PRODUCTS
// ======================================================

func (h *InventoryHandler) ListProducts(c *gin.Context) {
	p := parseListParams(c)

	q := h.db.Model(&models.Product{})
	if p.query != "" {
		q = q.Where("LOWER(codigo) LIKE ? OR LOWER(descricao) LIKE ?", p.like(), p.like())
	}
	if low, present := queryBool(c, "baixo_estoque"); present && low {
		q = lowStockClause(q, h.lowStockThreshold)
	}
	if active, present := queryBool(c, "ativo"); present {
		q = q.Where("ativo = ?", active)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "failed_to_list_products", "Erro ao listar produtos.")
		return
	}

	var products []models.Product
	if err := q.Order("descricao ASC, id ASC").
		Limit(p.limit).
		Offset(p.offset).
		Find(&products).Error; err != nil {

		httperr.Internal(c, "failed_to_list_products", "Erro ao listar produtos.")
		return
	}

	rows := make([]productRow, 0, len(products))
	for _, pr := range products {
		rows = append(rows, h.row(pr))
	}
	httpresp.Page(c, rows, p.page, p.limit, total)
}

func (h *InventoryHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var p models.Product
	if err := findOr(h.db, &p, id, "product_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_get_product")
		return
	}
	httpresp.OK(c, h.row(p))
}

func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	p := models.Product{Ativo: true}
	if err := req.apply(&p, true); err != nil {
		httperr.FromError(c, err, "failed_to_create_product")
		return
	}

	initial := 0.0
	if req.EstoqueAtual != nil {
		initial = money.Round3(*req.EstoqueAtual)
		if initial < 0 {
			httperr.FromError(c, httperr.ErrBusiness("invalid_quantity"), "failed_to_create_product")
			return
		}
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return saveErr(err, "duplicate_product_code")
		}
		if initial == 0 {
			return nil
		}

		if err := inventory.Apply(&p, inventory.MovementIn, initial); err != nil {
			return err
		}
		if err := tx.Model(&p).Update("estoque_atual", p.EstoqueAtual).Error; err != nil {
			return err
		}
		return tx.Create(&models.StockMovement{
			ProductID:  p.ID,
			Tipo:       string(inventory.MovementIn),
			Quantidade: initial,
			Origem:     "Saldo inicial",
			UserID:     middleware.UserIDPtr(c),
		}).Error
	})
	if err != nil {
		httperr.FromError(c, err, "failed_to_create_product")
		return
	}

	if initial > 0 {
		h.metrics.StockMovement(string(inventory.MovementIn))
	}
	writeAudit(h.audit, c, "product_created", "product", p.ID, nil)
	httpresp.Created(c, h.row(p))
}

func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	var p models.Product
	if err := findOr(h.db, &p, id, "product_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_update_product")
		return
	}
	if err := req.apply(&p, c.Request.Method == http.MethodPut); err != nil {
		httperr.FromError(c, err, "failed_to_update_product")
		return
	}

	if err := h.db.Model(&p).
		Select("codigo", "descricao", "unidade_medida", "estoque_minimo", "preco_custo", "ativo").
		Updates(&p).Error; err != nil {

		httperr.FromError(c, saveErr(err, "duplicate_product_code"), "failed_to_update_product")
		return
	}

	writeAudit(h.audit, c, "product_updated", "product", p.ID, nil)
	httpresp.OK(c, h.row(p))
}

func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := deleteGuarded(h.db, &models.Product{}, id, "product_not_found", "product_in_use",
		reference{&models.QuoteItem{}, "product_id"},
		reference{&models.StockMovement{}, "product_id"},
		reference{&models.StockWithdrawalItem{}, "product_id"},
		reference{&models.FuelRecord{}, "product_id"},
	); err != nil {
		httperr.FromError(c, err, "failed_to_delete_product")
		return
	}

	writeAudit(h.audit, c, "product_deleted", "product", id, nil)
	httpresp.NoContent(c)
}

// ======================================================
// MOVEMENTS
// ======================================================

func (h *InventoryHandler) CreateMovement(c *gin.Context) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	out, err := h.register.Execute(c.Request.Context(), invuc.MovementInput{
		UserID:     middleware.UserID(c),
		ProductID:  req.ProductID,
		Tipo:       req.Tipo,
		Quantidade: req.Quantidade,
		Origem:     req.Origem,
	})
	if err != nil {
		httperr.FromError(c, err, "failed_to_register_movement")
		return
	}

	h.metrics.StockMovement(out.Movement.Tipo)
	httpresp.Created(c, out)
}

func (h *InventoryHandler) ListMovements(c *gin.Context) {
	p := parseListParams(c)

	q := h.db.Model(&models.StockMovement{})

	productID, present, ok := queryID(c, "produto")
	if !ok {
		httperr.BadRequest(c, "invalid_filter", "Filtro inválido: produto.")
		return
	}
	if present {
		q = q.Where("product_id = ?", productID)
	}
	orderID, present, ok := queryID(c, "ordem_servico")
	if !ok {
		httperr.BadRequest(c, "invalid_filter", "Filtro inválido: ordem_servico.")
		return
	}
	if present {
		q = q.Where("service_order_id = ?", orderID)
	}
	if tipo := upper(c.Query("tipo")); tipo != "" {
		q = q.Where("tipo = ?", tipo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "failed_to_list_movements", "Erro ao listar movimentações.")
		return
	}

	var movements []models.StockMovement
	if err := q.Order("created_at DESC, id DESC").
		Limit(p.limit).
		Offset(p.offset).
		Find(&movements).Error; err != nil {

		httperr.Internal(c, "failed_to_list_movements", "Erro ao listar movimentações.")
		return
	}

	httpresp.Page(c, movements, p.page, p.limit, total)
}
