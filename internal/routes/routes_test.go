package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/config"
	"github.com/mandacaru/erp-api/internal/metrics"
	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "routes-test-secret-123"

func newServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:     testSecret,
		JWTExpiry:     time.Hour,
		MaxUploadMB:   1,
		EnableMetrics: true,
		Rules: config.BusinessRules{
			KmRate:               3,
			LowStockThreshold:    5,
			ReceivableDueDays:    30,
			DefaultPaymentMethod: "Pix",
		},
	}
	m := metrics.New()
	db := testutil.NewTestDB(t)

	r := gin.New()
	r.Use(m.Middleware())
	RegisterRoutes(r, Deps{
		DB:      db,
		Config:  cfg,
		Log:     zap.NewNop(),
		Metrics: m,
	})
	return r, db
}

// seedUser grava o usuário direto no banco e assina um token como o login faria.
func seedUser(t *testing.T, db *gorm.DB, email, role string) string {
	t.Helper()

	u := models.User{Name: email, Email: email, PasswordHash: "x", Role: role, Active: true}
	require.NoError(t, db.Create(&u).Error)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.ID,
		"role": u.Role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func call(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublicRoutes(t *testing.T) {
	r, _ := newServer(t)

	w := call(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, r, http.MethodGet, "/api/clientes/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, r, http.MethodGet, "/api/clientes/", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAuthenticatedFlow(t *testing.T) {
	r, db := newServer(t)
	admin := seedUser(t, db, "admin@example.com", "admin")
	operator := seedUser(t, db, "op@example.com", "operador")

	// registro fechado depois do bootstrap
	w := call(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"nome": "Outro", "email": "outro@example.com", "senha": "segredo123",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, r, http.MethodGet, "/api/me", operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"perfil":"operador"`)

	w = call(t, r, http.MethodPost, "/api/fornecedores/", operator, map[string]any{"nome": "Peças Nordeste"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var supplier struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &supplier))
	path := "/api/fornecedores/" + strconv.FormatUint(uint64(supplier.ID), 10) + "/"

	// exclusão é só para admin
	w = call(t, r, http.MethodDelete, path, operator, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, r, http.MethodGet, "/api/audit-logs", operator, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, r, http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = call(t, r, http.MethodGet, "/api/relatorios/dashboard/", operator, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, r, http.MethodPost, "/api/financeiro/contas/1/link-pagamento/", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
