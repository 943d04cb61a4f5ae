package serviceorder

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
	quoteuc "github.com/mandacaru/erp-api/internal/usecase/quote"
)

// approvedOrder cria um orçamento com 3 un. do produto e aprova.
func approvedOrder(t *testing.T, db *gorm.DB) (*quoteuc.ApproveQuoteOutput, models.Product) {
	t.Helper()
	f := testutil.SeedCascade(t, db, "")
	p := testutil.SeedProduct(t, db, "FILTRO", 10, 0)

	qrepo := repository.NewQuoteGormRepository(db)
	price := 20.0
	q, err := quoteuc.NewSaveQuote(qrepo, nil, 3).Create(context.Background(), quoteuc.QuoteInput{
		ClientID:       f.Client.ID,
		BusinessSiteID: f.Site.ID,
		DataVencimento: time.Now(),
		Items:          []quoteuc.ItemInput{{ProductID: p.ID, Quantidade: 3, PrecoUnitario: &price}},
	})
	require.NoError(t, err)

	out, err := quoteuc.NewApproveQuote(qrepo, nil).Execute(context.Background(), q.ID, 1)
	require.NoError(t, err)
	return out, p
}

func TestFinishConsumesReservationAndCreatesReceivable(t *testing.T) {
	db := testutil.NewTestDB(t)
	out, p := approvedOrder(t, db)

	repo := repository.NewServiceOrderGormRepository(db)
	finish := NewFinishServiceOrder(repo, nil, ReceivableRules{DueDays: 30, PaymentMethod: "Boleto"})
	fixed := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	finish.now = func() time.Time { return fixed }

	_, err := NewStartServiceOrder(repo, nil).Execute(context.Background(), out.ServiceOrder.ID, 1)
	require.NoError(t, err)

	o, err := finish.Execute(context.Background(), out.ServiceOrder.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "FINALIZADA", o.Status)
	require.NotNil(t, o.DataFinalizacao)

	var prod models.Product
	require.NoError(t, db.First(&prod, p.ID).Error)
	assert.Equal(t, 7.0, prod.EstoqueAtual)
	assert.Equal(t, 0.0, prod.EstoqueReservado)

	var w models.StockWithdrawal
	require.NoError(t, db.Where("service_order_id = ?", o.ID).First(&w).Error)
	assert.Equal(t, "EFETIVADA", w.Status)

	var saida models.StockMovement
	require.NoError(t, db.Where("tipo = ?", "SAIDA").First(&saida).Error)
	assert.Equal(t, 3.0, saida.Quantidade)
	assert.Equal(t, "OS #1", saida.Origem)

	var q models.Quote
	require.NoError(t, db.First(&q, out.Quote.ID).Error)
	assert.Equal(t, "CONVERTIDO", q.Status)

	var acc models.FinancialAccount
	require.NoError(t, db.Where("service_order_id = ?", o.ID).First(&acc).Error)
	assert.Equal(t, "receber", acc.Tipo)
	assert.Equal(t, "pendente", acc.Status)
	assert.Equal(t, "Boleto", acc.FormaPagamento)
	assert.Equal(t, out.Quote.ValorTotal, acc.Valor)
	assert.Equal(t, 2024, acc.DataVencimento.Year())
	assert.Equal(t, time.July, acc.DataVencimento.Month())
	assert.Equal(t, 10, acc.DataVencimento.Day())

	_, err = finish.Execute(context.Background(), o.ID, 1)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))

	var count int64
	db.Model(&models.FinancialAccount{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCancelReleasesReservation(t *testing.T) {
	db := testutil.NewTestDB(t)
	out, p := approvedOrder(t, db)

	repo := repository.NewServiceOrderGormRepository(db)
	o, err := NewCancelServiceOrder(repo, nil).Execute(context.Background(), out.ServiceOrder.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "CANCELADA", o.Status)

	var prod models.Product
	require.NoError(t, db.First(&prod, p.ID).Error)
	assert.Equal(t, 10.0, prod.EstoqueAtual)
	assert.Equal(t, 0.0, prod.EstoqueReservado)

	var lib int64
	db.Model(&models.StockMovement{}).Where("tipo = ?", "LIBERACAO").Count(&lib)
	assert.Equal(t, int64(1), lib)

	var q models.Quote
	require.NoError(t, db.First(&q, out.Quote.ID).Error)
	assert.Equal(t, "CANCELADO", q.Status)

	_, err = NewFinishServiceOrder(repo, nil, ReceivableRules{}).Execute(context.Background(), o.ID, 1)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
}

func TestFinishManualOrderWithoutValueSkipsReceivable(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.SeedCascade(t, db, "")

	o := models.ServiceOrder{
		ClientID:       f.Client.ID,
		BusinessSiteID: f.Site.ID,
		Descricao:      "Inspeção",
		Status:         "ABERTA",
		DataAbertura:   time.Now(),
	}
	require.NoError(t, db.Create(&o).Error)

	repo := repository.NewServiceOrderGormRepository(db)
	_, err := NewFinishServiceOrder(repo, nil, ReceivableRules{DueDays: 30}).Execute(context.Background(), o.ID, 0)
	require.NoError(t, err)

	var count int64
	db.Model(&models.FinancialAccount{}).Count(&count)
	assert.Zero(t, count)
}

func TestUnknownOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewServiceOrderGormRepository(db)

	_, err := NewStartServiceOrder(repo, nil).Execute(context.Background(), 42, 1)
	assert.True(t, httperr.IsBusiness(err, "service_order_not_found"))
}
