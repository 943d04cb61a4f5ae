package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/infra/repository"
	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/testutil"
)

func inventoryRouter(db *gorm.DB) *gin.Engine {
	h := NewInventoryHandler(db, repository.NewInventoryGormRepository(db), nil, nil, 5)

	r := newRouter(3, "user")
	r.GET("/produtos/", h.ListProducts)
	r.POST("/produtos/", h.CreateProduct)
	r.GET("/produtos/:id/", h.GetProduct)
	r.PUT("/produtos/:id/", h.UpdateProduct)
	r.PATCH("/produtos/:id/", h.UpdateProduct)
	r.DELETE("/produtos/:id/", h.DeleteProduct)
	r.GET("/movimentacoes/", h.ListMovements)
	r.POST("/movimentacoes/", h.CreateMovement)
	return r
}

type movementResponse struct {
	Movement models.StockMovement `json:"movimentacao"`
	Product  models.Product       `json:"produto"`
}

func TestProductCreateWithInitialStock(t *testing.T) {
	db := testutil.NewTestDB(t)
	r := inventoryRouter(db)

	w := doJSON(t, r, http.MethodPost, "/produtos/", map[string]any{
		"codigo":         " oleo-15w40 ",
		"descricao":      "Óleo 15W40",
		"unidade_medida": "L",
		"estoque_atual":  20,
		"preco_custo":    32.456,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[productRow](t, w)
	assert.Equal(t, "OLEO-15W40", p.Codigo)
	assert.Equal(t, 20.0, p.EstoqueAtual)
	assert.Equal(t, 32.46, p.PrecoCusto)
	assert.Equal(t, 20.0, p.Disponivel)
	assert.False(t, p.EstoqueBaixo)

	var m models.StockMovement
	require.NoError(t, db.Where("product_id = ?", p.ID).First(&m).Error)
	assert.Equal(t, "ENTRADA", m.Tipo)
	assert.Equal(t, "Saldo inicial", m.Origem)
	require.NotNil(t, m.UserID)
	assert.EqualValues(t, 3, *m.UserID)

	w = doJSON(t, r, http.MethodPost, "/produtos/", map[string]any{
		"codigo": "OLEO-15W40", "descricao": "Outro", "unidade_medida": "L",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_product_code", errorCode(t, w))

	w = doJSON(t, r, http.MethodPost, "/produtos/", map[string]any{"codigo": "X"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_required_fields", errorCode(t, w))

	// estoque só muda por movimentação
	w = doJSON(t, r, http.MethodPatch, "/produtos/"+itoa(p.ID)+"/", map[string]any{
		"estoque_atual":  999,
		"estoque_minimo": 25,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[productRow](t, w)
	assert.Equal(t, 20.0, updated.EstoqueAtual)
	assert.True(t, updated.EstoqueBaixo)
}

func TestStockMovements(t *testing.T) {
	db := testutil.NewTestDB(t)
	p := testutil.SeedProduct(t, db, "CORREIA", 10, 4)
	r := inventoryRouter(db)

	tests := []struct {
		name      string
		tipo      string
		qty       float64
		status    int
		code      string
		wantStock float64
	}{
		{"out above available", "SAIDA", 7, http.StatusConflict, "insufficient_stock", 10},
		{"zero entry", "ENTRADA", 0, http.StatusBadRequest, "invalid_quantity", 10},
		{"reservation is not manual", "RESERVA", 1, http.StatusBadRequest, "invalid_movement_type", 10},
		{"adjust below reserved", "AJUSTE", 3, http.StatusUnprocessableEntity, "adjust_below_reserved", 10},
		{"entry", "entrada", 5, http.StatusCreated, "", 15},
		{"out", "SAIDA", 11, http.StatusCreated, "", 4},
		{"adjust", "AJUSTE", 8, http.StatusCreated, "", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/movimentacoes/", map[string]any{
				"produto":    p.ID,
				"tipo":       tt.tipo,
				"quantidade": tt.qty,
			})
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, w))
			} else {
				out := decode[movementResponse](t, w)
				assert.Equal(t, "Manual", out.Movement.Origem)
				assert.Equal(t, tt.wantStock, out.Product.EstoqueAtual)
			}

			var stored models.Product
			require.NoError(t, db.First(&stored, p.ID).Error)
			assert.Equal(t, tt.wantStock, stored.EstoqueAtual)
			assert.Equal(t, 4.0, stored.EstoqueReservado)
		})
	}

	w := doJSON(t, r, http.MethodGet, "/movimentacoes/?produto="+itoa(p.ID)+"&tipo=saida", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[page[models.StockMovement]](t, w).Total)

	w = doJSON(t, r, http.MethodGet, "/movimentacoes/?produto=abc", nil)
	assert.Equal(t, "invalid_filter", errorCode(t, w))
}

func TestProductListAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	plenty := testutil.SeedProduct(t, db, "A", 50, 0)
	low := testutil.SeedProduct(t, db, "B", 6, 2)
	r := inventoryRouter(db)

	w := doJSON(t, r, http.MethodGet, "/produtos/?baixo_estoque=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[page[productRow]](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, low.ID, list.Data[0].ID)
	assert.Equal(t, 4.0, list.Data[0].Disponivel)

	w = doJSON(t, r, http.MethodGet, "/produtos/?query=produto%20a", nil)
	assert.EqualValues(t, 1, decode[page[productRow]](t, w).Total)

	w = doJSON(t, r, http.MethodPost, "/movimentacoes/", map[string]any{
		"produto": plenty.ID, "tipo": "ENTRADA", "quantidade": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/produtos/"+itoa(plenty.ID)+"/", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "product_in_use", errorCode(t, w))

	w = doJSON(t, r, http.MethodDelete, "/produtos/"+itoa(low.ID)+"/", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/produtos/"+itoa(low.ID)+"/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductCreateInactive(t *testing.T) {
	db := testutil.NewTestDB(t)
	r := inventoryRouter(db)

	w := doJSON(t, r, http.MethodPost, "/produtos/", map[string]any{
		"codigo": "FILTRO-AR", "descricao": "Filtro de ar", "unidade_medida": "UN",
		"ativo": false,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[productRow](t, w)
	assert.False(t, p.Ativo)

	var stored models.Product
	require.NoError(t, db.First(&stored, p.ID).Error)
	assert.False(t, stored.Ativo)

	w = doJSON(t, r, http.MethodPost, "/produtos/", map[string]any{
		"codigo": "FILTRO-OLEO", "descricao": "Filtro de óleo", "unidade_medida": "UN",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, decode[productRow](t, w).Ativo)
}
