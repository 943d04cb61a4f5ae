package quote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/infra/repository"
	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/testutil"
)

func price(v float64) *float64 { return &v }

func setup(t *testing.T) (*gorm.DB, testutil.Fixture, *SaveQuote, *ApproveQuote) {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := testutil.SeedCascade(t, db, "")
	repo := repository.NewQuoteGormRepository(db)
	return db, f, NewSaveQuote(repo, nil, 3.00), NewApproveQuote(repo, nil)
}

func draft(f testutil.Fixture, items ...ItemInput) QuoteInput {
	return QuoteInput{
		ClientID:       f.Client.ID,
		BusinessSiteID: f.Site.ID,
		EquipmentID:    &f.Equipment.ID,
		Descricao:      "Troca de correias",
		DataVencimento: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Items:          items,
	}
}

func TestCreateQuoteComputesTotals(t *testing.T) {
	db, f, save, _ := setup(t)
	a := testutil.SeedProduct(t, db, "A", 10, 0)
	b := testutil.SeedProduct(t, db, "B", 10, 0)

	q, err := save.Create(context.Background(), draft(f,
		ItemInput{ProductID: a.ID, Quantidade: 2, PrecoUnitario: price(50)},
		ItemInput{ProductID: b.ID, Quantidade: 1, PrecoUnitario: price(30)},
	))
	require.NoError(t, err)

	assert.Equal(t, "PENDENTE", q.Status)
	assert.Equal(t, 130.0, q.ValorItens)
	assert.Equal(t, 10.0, q.DistanciaKm)
	assert.Equal(t, 3.0, q.ValorKm)
	assert.Equal(t, 30.0, q.CustoDeslocamento)
	assert.Equal(t, 160.0, q.ValorTotal)

	var stored models.Quote
	require.NoError(t, db.Preload("Items").First(&stored, q.ID).Error)
	assert.Len(t, stored.Items, 2)
	assert.Equal(t, 100.0, stored.Items[0].Subtotal)
	assert.Equal(t, "Produto A", stored.Items[0].Descricao)
}

func TestCreateQuoteUsesCostPriceWhenOmitted(t *testing.T) {
	db, f, save, _ := setup(t)
	a := testutil.SeedProduct(t, db, "A", 10, 0)

	q, err := save.Calculate(context.Background(), draft(f, ItemInput{ProductID: a.ID, Quantidade: 3}))
	require.NoError(t, err)

	assert.Equal(t, 30.0, q.ValorItens)
	assert.Zero(t, q.ID)
}

func TestCreateQuoteCascadeErrors(t *testing.T) {
	db, f, save, _ := setup(t)
	other := testutil.SeedCascade(t, db, "b")
	a := testutil.SeedProduct(t, db, "A", 10, 0)
	item := ItemInput{ProductID: a.ID, Quantidade: 1, PrecoUnitario: price(1)}

	in := draft(f, item)
	in.BusinessSiteID = other.Site.ID
	_, err := save.Create(context.Background(), in)
	assert.True(t, httperr.IsBusiness(err, "site_client_mismatch"))

	in = draft(f, item)
	in.EquipmentID = &other.Equipment.ID
	_, err = save.Create(context.Background(), in)
	assert.True(t, httperr.IsBusiness(err, "equipment_site_mismatch"))

	in = draft(f, item)
	in.ClientID = 999
	_, err = save.Create(context.Background(), in)
	assert.True(t, httperr.IsBusiness(err, "client_not_found"))

	_, err = save.Create(context.Background(), draft(f))
	assert.True(t, httperr.IsBusiness(err, "missing_items"))

	_, err = save.Create(context.Background(), draft(f, ItemInput{ProductID: 999, Quantidade: 1}))
	assert.True(t, httperr.IsBusiness(err, "product_not_found"))

	_, err = save.Create(context.Background(), draft(f, ItemInput{ProductID: a.ID, Quantidade: 0, PrecoUnitario: price(1)}))
	assert.True(t, httperr.IsBusiness(err, "invalid_item_quantity"))
}

func TestUpdateQuoteReplacesItems(t *testing.T) {
	db, f, save, _ := setup(t)
	a := testutil.SeedProduct(t, db, "A", 10, 0)
	b := testutil.SeedProduct(t, db, "B", 10, 0)

	q, err := save.Create(context.Background(), draft(f, ItemInput{ProductID: a.ID, Quantidade: 1, PrecoUnitario: price(10)}))
	require.NoError(t, err)

	updated, err := save.Update(context.Background(), q.ID, draft(f,
		ItemInput{ProductID: b.ID, Quantidade: 4, PrecoUnitario: price(2.5)},
	))
	require.NoError(t, err)
	assert.Equal(t, 40.0, updated.ValorTotal)

	var items []models.QuoteItem
	require.NoError(t, db.Where("quote_id = ?", q.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, b.ID, items[0].ProductID)
}

func TestApproveQuoteReservesStockAndOpensOrder(t *testing.T) {
	db, f, save, approve := setup(t)
	a := testutil.SeedProduct(t, db, "A", 10, 0)
	b := testutil.SeedProduct(t, db, "B", 5, 1)

	q, err := save.Create(context.Background(), draft(f,
		ItemInput{ProductID: a.ID, Quantidade: 2, PrecoUnitario: price(50)},
		ItemInput{ProductID: a.ID, Quantidade: 1, PrecoUnitario: price(50)},
		ItemInput{ProductID: b.ID, Quantidade: 4, PrecoUnitario: price(10)},
	))
	require.NoError(t, err)

	out, err := approve.Execute(context.Background(), q.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, "APROVADO", out.Quote.Status)
	assert.Equal(t, "ABERTA", out.ServiceOrder.Status)
	assert.Equal(t, q.ValorTotal, out.ServiceOrder.Valor)
	assert.Equal(t, "PENDENTE", out.Withdrawal.Status)
	assert.Len(t, out.Withdrawal.Items, 2)

	var pa, pb models.Product
	require.NoError(t, db.First(&pa, a.ID).Error)
	require.NoError(t, db.First(&pb, b.ID).Error)
	assert.Equal(t, 3.0, pa.EstoqueReservado)
	assert.Equal(t, 10.0, pa.EstoqueAtual)
	assert.Equal(t, 5.0, pb.EstoqueReservado)

	var moves []models.StockMovement
	require.NoError(t, db.Where("tipo = ?", "RESERVA").Find(&moves).Error)
	assert.Len(t, moves, 2)

	var stored models.Quote
	require.NoError(t, db.First(&stored, q.ID).Error)
	assert.Equal(t, "APROVADO", stored.Status)
	require.NotNil(t, stored.ApprovedBy)
	assert.Equal(t, uint(1), *stored.ApprovedBy)

	_, err = approve.Execute(context.Background(), q.ID, 1)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
}

func TestApproveQuoteRollsBackOnInsufficientStock(t *testing.T) {
	db, f, save, approve := setup(t)
	a := testutil.SeedProduct(t, db, "A", 10, 0)
	b := testutil.SeedProduct(t, db, "B", 3, 2)

	q, err := save.Create(context.Background(), draft(f,
		ItemInput{ProductID: a.ID, Quantidade: 2, PrecoUnitario: price(1)},
		ItemInput{ProductID: b.ID, Quantidade: 2, PrecoUnitario: price(1)},
	))
	require.NoError(t, err)

	_, err = approve.Execute(context.Background(), q.ID, 1)
	assert.True(t, httperr.IsBusiness(err, "insufficient_stock"))

	var pa models.Product
	require.NoError(t, db.First(&pa, a.ID).Error)
	assert.Zero(t, pa.EstoqueReservado)

	var orders, moves, withdrawals int64
	db.Model(&models.ServiceOrder{}).Count(&orders)
	db.Model(&models.StockMovement{}).Count(&moves)
	db.Model(&models.StockWithdrawal{}).Count(&withdrawals)
	assert.Zero(t, orders)
	assert.Zero(t, moves)
	assert.Zero(t, withdrawals)

	var stored models.Quote
	require.NoError(t, db.First(&stored, q.ID).Error)
	assert.Equal(t, "PENDENTE", stored.Status)
}

func TestRejectAndCancelOnlyFromPending(t *testing.T) {
	db, f, save, _ := setup(t)
	a := testutil.SeedProduct(t, db, "A", 10, 0)
	status := NewChangeQuoteStatus(repository.NewQuoteGormRepository(db), nil)

	q, err := save.Create(context.Background(), draft(f, ItemInput{ProductID: a.ID, Quantidade: 1, PrecoUnitario: price(1)}))
	require.NoError(t, err)

	rejected, err := status.Reject(context.Background(), q.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "REJEITADO", rejected.Status)

	_, err = status.Cancel(context.Background(), q.ID, 1)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))

	_, err = save.Update(context.Background(), q.ID, draft(f, ItemInput{ProductID: a.ID, Quantidade: 1, PrecoUnitario: price(1)}))
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
}

func TestStatusChangesAfterApproval(t *testing.T) {
	db, f, save, approve := setup(t)
	a := testutil.SeedProduct(t, db, "A", 10, 0)
	status := NewChangeQuoteStatus(repository.NewQuoteGormRepository(db), nil)
	ctx := context.Background()

	q, err := save.Create(ctx, draft(f, ItemInput{ProductID: a.ID, Quantidade: 2, PrecoUnitario: price(5)}))
	require.NoError(t, err)
	_, err = approve.Execute(ctx, q.ID, 1)
	require.NoError(t, err)

	_, err = status.Reject(ctx, q.ID, 1)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
	_, err = status.Cancel(ctx, q.ID, 1)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
	_, err = save.Update(ctx, q.ID, draft(f, ItemInput{ProductID: a.ID, Quantidade: 9, PrecoUnitario: price(5)}))
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))

	var stored models.Quote
	require.NoError(t, db.Preload("Items").First(&stored, q.ID).Error)
	assert.Equal(t, "APROVADO", stored.Status)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 2.0, stored.Items[0].Quantidade)
}
