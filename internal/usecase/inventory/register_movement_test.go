package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/infra/repository"
	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/testutil"
)

func TestRegisterMovement(t *testing.T) {
	db := testutil.NewTestDB(t)
	p := testutil.SeedProduct(t, db, "OLEO", 10, 4)
	uc := NewRegisterMovement(repository.NewInventoryGormRepository(db), nil)
	ctx := context.Background()

	out, err := uc.Execute(ctx, MovementInput{UserID: 2, ProductID: p.ID, Tipo: "entrada", Quantidade: 5, Origem: "NF 123"})
	require.NoError(t, err)
	assert.Equal(t, 15.0, out.Product.EstoqueAtual)
	assert.Equal(t, "ENTRADA", out.Movement.Tipo)

	_, err = uc.Execute(ctx, MovementInput{ProductID: p.ID, Tipo: "SAIDA", Quantidade: 12})
	assert.True(t, httperr.IsBusiness(err, "insufficient_stock"))

	out, err = uc.Execute(ctx, MovementInput{ProductID: p.ID, Tipo: "SAIDA", Quantidade: 11})
	require.NoError(t, err)
	assert.Equal(t, 4.0, out.Product.EstoqueAtual)
	assert.Equal(t, "Manual", out.Movement.Origem)

	_, err = uc.Execute(ctx, MovementInput{ProductID: p.ID, Tipo: "AJUSTE", Quantidade: 3})
	assert.True(t, httperr.IsBusiness(err, "adjust_below_reserved"))

	out, err = uc.Execute(ctx, MovementInput{ProductID: p.ID, Tipo: "AJUSTE", Quantidade: 20})
	require.NoError(t, err)
	assert.Equal(t, 20.0, out.Product.EstoqueAtual)

	_, err = uc.Execute(ctx, MovementInput{ProductID: p.ID, Tipo: "RESERVA", Quantidade: 1})
	assert.True(t, httperr.IsBusiness(err, "invalid_movement_type"))

	_, err = uc.Execute(ctx, MovementInput{ProductID: 999, Tipo: "ENTRADA", Quantidade: 1})
	assert.True(t, httperr.IsBusiness(err, "product_not_found"))

	var stored models.Product
	require.NoError(t, db.First(&stored, p.ID).Error)
	assert.Equal(t, 20.0, stored.EstoqueAtual)
	assert.Equal(t, 4.0, stored.EstoqueReservado)

	var moves int64
	db.Model(&models.StockMovement{}).Where("product_id = ?", p.ID).Count(&moves)
	assert.Equal(t, int64(3), moves)
}
