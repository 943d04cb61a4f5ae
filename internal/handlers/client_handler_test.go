package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/testutil"
)

func clientRouter(db *gorm.DB) *gin.Engine {
	h := NewClientHandler(db, nil)
	s := NewBusinessSiteHandler(db, nil)

	r := newRouter(1, "admin")
	r.GET("/clientes/", h.List)
	r.POST("/clientes/", h.Create)
	r.GET("/clientes/:id/", h.Get)
	r.PUT("/clientes/:id/", h.Update)
	r.PATCH("/clientes/:id/", h.Update)
	r.DELETE("/clientes/:id/", h.Delete)
	r.GET("/clientes/:id/empreendimentos/", h.Sites)
	r.POST("/empreendimentos/", s.Create)
	r.PATCH("/empreendimentos/:id/", s.Update)
	r.DELETE("/empreendimentos/:id/", s.Delete)
	return r
}

func TestClientCreateNormalizesCNPJ(t *testing.T) {
	db := testutil.NewTestDB(t)
	r := clientRouter(db)

	w := doJSON(t, r, http.MethodPost, "/clientes/", map[string]any{
		"razao_social": "Pedreira Sertão LTDA",
		"cnpj":         "11.222.333/0001-81",
		"uf":           "ce",
		"cep":          "60.000-000",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	cl := decode[models.Client](t, w)
	assert.Equal(t, "11222333000181", cl.CNPJ)
	assert.Equal(t, "CE", cl.UF)
	assert.Equal(t, "60000000", cl.CEP)

	w = doJSON(t, r, http.MethodPost, "/clientes/", map[string]any{
		"razao_social": "Outra",
		"cnpj":         "11222333000181",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_cnpj", errorCode(t, w))
}

func TestClientCreateValidation(t *testing.T) {
	db := testutil.NewTestDB(t)
	r := clientRouter(db)

	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{"missing razao social", map[string]any{"cnpj": "11222333000181"}, "missing_required_fields"},
		{"bad checksum", map[string]any{"razao_social": "X", "cnpj": "11222333000182"}, "invalid_cnpj"},
		{"bad email", map[string]any{"razao_social": "X", "cnpj": "11222333000181", "email": "nope"}, "invalid_email"},
		{"bad uf", map[string]any{"razao_social": "X", "cnpj": "11222333000181", "uf": "CEA"}, "invalid_uf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/clientes/", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestClientPatchKeepsOmittedFields(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.SeedCascade(t, db, "")
	r := clientRouter(db)

	w := doJSON(t, r, http.MethodPatch, "/clientes/1/", map[string]any{"telefone": "85 99999-0000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cl := decode[models.Client](t, w)
	assert.Equal(t, f.Client.RazaoSocial, cl.RazaoSocial)
	assert.Equal(t, f.Client.CNPJ, cl.CNPJ)
	assert.Equal(t, "85 99999-0000", cl.Telefone)

	// PUT exige o cadastro completo
	w = doJSON(t, r, http.MethodPut, "/clientes/1/", map[string]any{"telefone": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClientListReflectsWrites(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.SeedCascade(t, db, "a")
	testutil.SeedCascade(t, db, "b")
	r := clientRouter(db)

	w := doJSON(t, r, http.MethodGet, "/clientes/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode[page[models.Client]](t, w).Total)

	w = doJSON(t, r, http.MethodGet, "/clientes/?query=444.777", nil)
	list := decode[page[models.Client]](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "11444777000161", list.Data[0].CNPJ)

	w = doJSON(t, r, http.MethodGet, "/clientes/1/empreendimentos/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[page[models.BusinessSite]](t, w).Total)
}

func TestClientDeleteRefusedWhileReferenced(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.SeedCascade(t, db, "")
	r := clientRouter(db)

	w := doJSON(t, r, http.MethodDelete, "/clientes/1/", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "client_in_use", errorCode(t, w))

	var n int64
	db.Model(&models.Client{}).Count(&n)
	assert.EqualValues(t, 1, n)

	require.NoError(t, db.Delete(&f.Equipment).Error)
	require.NoError(t, db.Delete(&f.Site).Error)

	w = doJSON(t, r, http.MethodDelete, "/clientes/1/", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/clientes/1/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "client_not_found", errorCode(t, w))
}

func TestSiteCannotMoveClientWithEquipment(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.SeedCascade(t, db, "a")
	other := testutil.SeedCascade(t, db, "b")
	r := clientRouter(db)

	w := doJSON(t, r, http.MethodPatch, "/empreendimentos/1/", map[string]any{"cliente": other.Client.ID})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodDelete, "/empreendimentos/1/", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "site_in_use", errorCode(t, w))
}

func TestClientListSearchByName(t *testing.T) {
	db := testutil.NewTestDB(t)
	a := testutil.SeedCascade(t, db, "a")
	testutil.SeedCascade(t, db, "b")
	require.NoError(t, db.Model(&a.Client).Update("razao_social", "Granito Norte").Error)
	r := clientRouter(db)

	w := doJSON(t, r, http.MethodGet, "/clientes/?query=granito", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[page[models.Client]](t, w)
	assert.EqualValues(t, 1, list.Total)
	require.Len(t, list.Data, 1)
	assert.Equal(t, a.Client.ID, list.Data[0].ID)

	w = doJSON(t, r, http.MethodGet, "/clientes/?query=sem-resultado", nil)
	assert.EqualValues(t, 0, decode[page[models.Client]](t, w).Total)
}

func TestSiteCannotMoveClientWithServiceOrders(t *testing.T) {
	db := testutil.NewTestDB(t)
	a := testutil.SeedCascade(t, db, "a")
	other := testutil.SeedCascade(t, db, "b")
	r := clientRouter(db)

	// empreendimento sem equipamento, só com uma OS manual
	site := models.BusinessSite{ClientID: a.Client.ID, Nome: "Britagem 2"}
	require.NoError(t, db.Create(&site).Error)
	require.NoError(t, db.Create(&models.ServiceOrder{
		ClientID: a.Client.ID, BusinessSiteID: site.ID, Status: "ABERTA", DataAbertura: time.Now(),
	}).Error)

	w := doJSON(t, r, http.MethodPatch, "/empreendimentos/"+itoa(site.ID)+"/", map[string]any{"cliente": other.Client.ID})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "site_in_use", errorCode(t, w))

	var stored models.BusinessSite
	require.NoError(t, db.First(&stored, site.ID).Error)
	assert.Equal(t, a.Client.ID, stored.ClientID)
}
