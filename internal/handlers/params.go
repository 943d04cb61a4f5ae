package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mandacaru/erp-api/internal/httperr"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type listParams struct {
	page   int
	limit  int
	offset int
	query  string
}

// parseListParams lê page/limit/query. Defaults: page=1, limit=50 (máx. 200).
func parseListParams(c *gin.Context) listParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return listParams{
		page:   page,
		limit:  limit,
		offset: (page - 1) * limit,
		query:  strings.ToLower(strings.TrimSpace(c.Query("query"))),
	}
}

func (p listParams) like() string {
	return "%" + p.query + "%"
}

// pathID lê um id de rota; responde 400 e devolve false quando inválido.
func pathID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		httperr.BadRequest(c, "invalid_id", "Identificador inválido.")
		return 0, false
	}
	return uint(v), true
}

// queryID lê um filtro numérico opcional. ok=false quando presente e inválido.
func queryID(c *gin.Context, name string) (id uint, present bool, ok bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, false, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, true, false
	}
	return uint(v), true, true
}

func queryBool(c *gin.Context, name string) (value bool, present bool) {
	raw := strings.ToLower(strings.TrimSpace(c.Query(name)))
	switch raw {
	case "true", "1", "sim":
		return true, true
	case "false", "0", "nao", "não":
		return false, true
	}
	return false, false
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
