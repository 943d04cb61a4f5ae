package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/models"
)

func TestReserveConsumeRelease(t *testing.T) {
	p := &models.Product{EstoqueAtual: 10, EstoqueReservado: 2}

	require.NoError(t, Reserve(p, 8))
	assert.Equal(t, 10.0, p.EstoqueReservado)
	assert.Zero(t, p.Disponivel())

	assert.True(t, httperr.IsBusiness(Reserve(p, 0.001), "insufficient_stock"))

	require.NoError(t, Consume(p, 3))
	assert.Equal(t, 7.0, p.EstoqueAtual)
	assert.Equal(t, 7.0, p.EstoqueReservado)

	Release(p, 100)
	assert.Zero(t, p.EstoqueReservado)
}

func TestApply(t *testing.T) {
	p := &models.Product{EstoqueAtual: 5, EstoqueReservado: 2}

	require.NoError(t, Apply(p, MovementIn, 0.1))
	require.NoError(t, Apply(p, MovementIn, 0.2))
	assert.Equal(t, 5.3, p.EstoqueAtual)

	assert.True(t, httperr.IsBusiness(Apply(p, MovementOut, 3.4), "insufficient_stock"))
	require.NoError(t, Apply(p, MovementOut, 3.3))
	assert.Equal(t, 2.0, p.EstoqueAtual)

	assert.True(t, httperr.IsBusiness(Apply(p, MovementAdjust, 1), "adjust_below_reserved"))
	require.NoError(t, Apply(p, MovementAdjust, 2))

	assert.True(t, httperr.IsBusiness(Apply(p, MovementIn, -1), "invalid_quantity"))
	assert.True(t, httperr.IsBusiness(Apply(p, MovementReserve, 1), "invalid_movement_type"))
}

func TestDemandSumsRepeatedProducts(t *testing.T) {
	d := FromQuoteItems([]models.QuoteItem{
		{ProductID: 9, Quantidade: 1},
		{ProductID: 3, Quantidade: 2},
		{ProductID: 9, Quantidade: 1.5},
	})

	assert.Equal(t, []uint{3, 9}, d.ProductIDs())
	assert.Equal(t, 2.5, d[9])

	items := d.WithdrawalItems()
	require.Len(t, items, 2)
	assert.Equal(t, uint(3), items[0].ProductID)
}

func TestIsLow(t *testing.T) {
	p := models.Product{EstoqueAtual: 8, EstoqueReservado: 4, EstoqueMinimo: 2}

	assert.True(t, IsLow(p, 5))
	assert.False(t, IsLow(p, 0))

	p.EstoqueMinimo = 10
	assert.True(t, IsLow(p, 0))
}
