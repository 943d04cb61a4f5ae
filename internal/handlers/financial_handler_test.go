package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/infra/payment"
	"github.com/mandacaru/erp-api/internal/infra/storage"
	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/testutil"
	"github.com/mandacaru/erp-api/internal/timezone"
)

type fakeLinks struct {
	got []payment.LinkRequest
}

func (f *fakeLinks) CreateLink(_ context.Context, req payment.LinkRequest) (*payment.Link, error) {
	f.got = append(f.got, req)
	return &payment.Link{PreferenceID: "pref-1", URL: "https://pay.test/pref-1"}, nil
}

func financialRouter(db *gorm.DB, up storage.Uploader, links payment.LinkCreator) *gin.Engine {
	h := NewFinancialHandler(db, nil, up, 1<<20, links)

	r := newRouter(1, "admin")
	r.GET("/contas/", h.List)
	r.POST("/contas/", h.Create)
	r.GET("/contas/:id/", h.Get)
	r.PUT("/contas/:id/", h.Update)
	r.PATCH("/contas/:id/", h.Update)
	r.DELETE("/contas/:id/", h.Delete)
	r.POST("/contas/:id/pagar/", h.Pay)
	r.POST("/contas/:id/link-pagamento/", h.PaymentLink)
	return r
}

func seedSupplier(t *testing.T, db *gorm.DB) models.Supplier {
	t.Helper()
	s := models.Supplier{Nome: "Peças Nordeste"}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func TestAccountValidation(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.SeedCascade(t, db, "")
	s := seedSupplier(t, db)
	r := financialRouter(db, &fakeUploader{}, payment.Disabled{})

	base := func(extra map[string]any) map[string]any {
		body := map[string]any{
			"tipo":            "pagar",
			"descricao":       "Compra de filtros",
			"valor":           150.0,
			"data_vencimento": "2024-05-10",
		}
		for k, v := range extra {
			body[k] = v
		}
		return body
	}

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"payable with client", base(map[string]any{"cliente": f.Client.ID}), http.StatusUnprocessableEntity, "account_party_mismatch"},
		{"receivable with supplier", base(map[string]any{"tipo": "receber", "fornecedor": s.ID}), http.StatusUnprocessableEntity, "account_party_mismatch"},
		{"unknown type", base(map[string]any{"tipo": "outro"}), http.StatusBadRequest, "invalid_account_type"},
		{"zero amount", base(map[string]any{"valor": 0}), http.StatusBadRequest, "invalid_amount"},
		{"bad payment method", base(map[string]any{"forma_pagamento": "Cheque"}), http.StatusBadRequest, "invalid_payment_method"},
		{"unknown supplier", base(map[string]any{"fornecedor": 999}), http.StatusNotFound, "supplier_not_found"},
		{"missing due date", base(map[string]any{"data_vencimento": ""}), http.StatusBadRequest, "missing_required_fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/contas/", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}

	w := doJSON(t, r, http.MethodPost, "/contas/", base(map[string]any{"fornecedor": s.ID, "status": "pago"}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	paid := decode[models.FinancialAccount](t, w)
	assert.Equal(t, "pago", paid.Status)
	assert.NotNil(t, paid.DataPagamento)
}

func TestAccountMultipartWithReceipt(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := seedSupplier(t, db)
	up := &fakeUploader{}
	r := financialRouter(db, up, payment.Disabled{})

	body, ct := multipartBody(t, map[string]string{
		"tipo":            "pagar",
		"descricao":       "Frete",
		"valor":           "89.90",
		"data_vencimento": "2024-06-01",
		"fornecedor":      itoa(s.ID),
	}, "comprovante", "nota.png", pngBytes(t))

	w := doMultipart(t, r, http.MethodPost, "/contas/", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	a := decode[models.FinancialAccount](t, w)
	require.Len(t, up.keys, 1)
	assert.True(t, strings.HasPrefix(up.keys[0], "comprovantes/"+itoa(a.ID)+"/"))
	assert.Equal(t, "https://files.test/"+up.keys[0], a.ComprovanteURL)

	var stored models.FinancialAccount
	require.NoError(t, db.First(&stored, a.ID).Error)
	assert.Equal(t, a.ComprovanteURL, stored.ComprovanteURL)
	assert.Equal(t, 89.9, stored.Valor)

	// PATCH sem arquivo mantém o comprovante
	w = doJSON(t, r, http.MethodPatch, "/contas/"+itoa(a.ID)+"/", map[string]any{"descricao": "Frete Recife"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.FinancialAccount](t, w)
	assert.Equal(t, "Frete Recife", updated.Descricao)
	assert.Equal(t, a.ComprovanteURL, updated.ComprovanteURL)
	require.NotNil(t, updated.SupplierID)
	assert.Equal(t, s.ID, *updated.SupplierID)
}

func TestAccountPayAndPaymentLink(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.SeedCascade(t, db, "")
	links := &fakeLinks{}
	r := financialRouter(db, &fakeUploader{}, links)

	w := doJSON(t, r, http.MethodPost, "/contas/", map[string]any{
		"tipo":            "receber",
		"descricao":       "OS 12",
		"valor":           330,
		"data_vencimento": "2024-07-15",
		"cliente":         f.Client.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	a := decode[models.FinancialAccount](t, w)

	w = doJSON(t, r, http.MethodPost, "/contas/"+itoa(a.ID)+"/link-pagamento/", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, links.got, 1)
	assert.Equal(t, payment.LinkRequest{AccountID: a.ID, Title: "OS 12", Amount: 330}, links.got[0])

	var stored models.FinancialAccount
	require.NoError(t, db.First(&stored, a.ID).Error)
	assert.Equal(t, "https://pay.test/pref-1", stored.PaymentLink)

	w = doJSON(t, r, http.MethodPost, "/contas/"+itoa(a.ID)+"/pagar/", map[string]any{
		"data_pagamento":  "2024-07-10",
		"forma_pagamento": "Boleto",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := decode[models.FinancialAccount](t, w)
	assert.Equal(t, "pago", paid.Status)
	assert.Equal(t, "Boleto", paid.FormaPagamento)
	require.NotNil(t, paid.DataPagamento)
	assert.Equal(t, "2024-07-10", paid.DataPagamento.Format(time.DateOnly))

	w = doJSON(t, r, http.MethodPost, "/contas/"+itoa(a.ID)+"/pagar/", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_state", errorCode(t, w))

	// conta paga não gera link
	w = doJSON(t, r, http.MethodPost, "/contas/"+itoa(a.ID)+"/link-pagamento/", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, links.got, 1)
}

func TestPaymentLinkDisabled(t *testing.T) {
	db := testutil.NewTestDB(t)
	r := financialRouter(db, &fakeUploader{}, payment.Disabled{})

	a := models.FinancialAccount{
		Tipo: "receber", Descricao: "Avulso", Valor: 10,
		DataVencimento: timezone.Today(), Status: "pendente",
	}
	require.NoError(t, db.Create(&a).Error)

	w := doJSON(t, r, http.MethodPost, "/contas/"+itoa(a.ID)+"/link-pagamento/", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "payment_disabled", errorCode(t, w))
}

func TestAccountListFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	r := financialRouter(db, &fakeUploader{}, payment.Disabled{})

	today := timezone.Today()
	past := time.Date(today.Year(), today.Month()-2, 15, 0, 0, 0, 0, today.Location())
	future := time.Date(today.Year(), today.Month()+2, 15, 0, 0, 0, 0, today.Location())
	for _, a := range []models.FinancialAccount{
		{Tipo: "receber", Descricao: "Vencida", Valor: 10, DataVencimento: past, Status: "pendente"},
		{Tipo: "receber", Descricao: "Paga", Valor: 20, DataVencimento: past, Status: "pago"},
		{Tipo: "pagar", Descricao: "Futura", Valor: 30, DataVencimento: future, Status: "pendente"},
	} {
		a := a
		require.NoError(t, db.Create(&a).Error)
	}

	tests := []struct {
		query string
		want  int64
	}{
		{"", 3},
		{"?tipo=receber", 2},
		{"?status=PENDENTE", 2},
		{"?vencidas=true", 1},
		{"?mes=" + itoa(uint(future.Month())) + "&ano=" + itoa(uint(future.Year())), 1},
		{"?query=paga", 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := doJSON(t, r, http.MethodGet, "/contas/"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.want, decode[page[models.FinancialAccount]](t, w).Total)
		})
	}

	w := doJSON(t, r, http.MethodGet, "/contas/?mes=13", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_filter", errorCode(t, w))
}

func TestAccountReceiptFailureRollsBack(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := seedSupplier(t, db)
	r := financialRouter(db, storage.Disabled{}, payment.Disabled{})

	fields := map[string]string{
		"tipo":            "pagar",
		"descricao":       "Frete",
		"valor":           "89.90",
		"data_vencimento": "2024-06-01",
		"fornecedor":      itoa(s.ID),
	}
	for i := 0; i < 2; i++ {
		body, ct := multipartBody(t, fields, "comprovante", "nota.png", pngBytes(t))
		w := doMultipart(t, r, http.MethodPost, "/contas/", body, ct)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "storage_disabled", errorCode(t, w))
	}

	var n int64
	require.NoError(t, db.Model(&models.FinancialAccount{}).Count(&n).Error)
	assert.Zero(t, n)

	// edição com upload falho não grava as demais alterações
	a := models.FinancialAccount{
		Tipo: "pagar", Descricao: "Frete", Valor: 10, Status: "pendente",
		DataVencimento: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), SupplierID: &s.ID,
	}
	require.NoError(t, db.Create(&a).Error)

	body, ct := multipartBody(t, map[string]string{"descricao": "Frete Recife"}, "comprovante", "nota.png", pngBytes(t))
	w := doMultipart(t, r, http.MethodPatch, "/contas/"+itoa(a.ID)+"/", body, ct)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var stored models.FinancialAccount
	require.NoError(t, db.First(&stored, a.ID).Error)
	assert.Equal(t, "Frete", stored.Descricao)
}
