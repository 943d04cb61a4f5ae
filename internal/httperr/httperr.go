package httperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Conflict(c *gin.Context, code, message string) {
	Write(c, http.StatusConflict, code, message)
}

func Unprocessable(c *gin.Context, code, message string) {
	Write(c, http.StatusUnprocessableEntity, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

// InvalidRequest é usado quando o bind do payload falha.
func InvalidRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, HTTPError{
		Code:    "invalid_request",
		Message: "Dados inválidos.",
		Details: err.Error(),
	})
}

// ======================================================
// BUSINESS CODE -> HTTP
// ======================================================

var statusByCode = map[string]int{
	"invalid_state":             http.StatusConflict,
	"insufficient_stock":        http.StatusConflict,
	"request_in_progress":       http.StatusConflict,
	"site_client_mismatch":      http.StatusUnprocessableEntity,
	"equipment_site_mismatch":   http.StatusUnprocessableEntity,
	"account_party_mismatch":    http.StatusUnprocessableEntity,
	"horimetro_not_increasing":  http.StatusUnprocessableEntity,
	"next_maintenance_required": http.StatusUnprocessableEntity,
	"adjust_below_reserved":     http.StatusUnprocessableEntity,
	"unsupported_file_type":     http.StatusUnsupportedMediaType,
	"file_too_large":            http.StatusRequestEntityTooLarge,
	"payment_disabled":          http.StatusServiceUnavailable,
	"storage_disabled":          http.StatusServiceUnavailable,
	"registration_closed":       http.StatusForbidden,
	"forbidden":                 http.StatusForbidden,
	"invalid_credentials":       http.StatusUnauthorized,
}

var messageByCode = map[string]string{
	"invalid_state":             "Operação não permitida no status atual.",
	"insufficient_stock":        "Estoque insuficiente.",
	"request_in_progress":       "Requisição já em processamento.",
	"site_client_mismatch":      "Empreendimento não pertence ao cliente.",
	"equipment_site_mismatch":   "Equipamento não pertence ao empreendimento.",
	"account_party_mismatch":    "Cliente/fornecedor incompatível com o tipo da conta.",
	"horimetro_not_increasing":  "O horímetro deve ser maior que o da última manutenção.",
	"next_maintenance_required": "Próxima manutenção é obrigatória para preventivas.",
	"adjust_below_reserved":     "Ajuste deixaria o estoque abaixo do reservado.",
	"unsupported_file_type":     "Tipo de arquivo não suportado.",
	"file_too_large":            "Arquivo muito grande.",
	"payment_disabled":          "Pagamento online não configurado.",
	"storage_disabled":          "Armazenamento de arquivos não configurado.",
	"registration_closed":       "Cadastro fechado.",
	"forbidden":                 "Acesso negado.",
	"invalid_credentials":       "Credenciais inválidas.",
	"duplicate_record":          "Registro duplicado.",
	"fuel_stock_fields_locked":  "Campos ligados à baixa de estoque não podem ser alterados.",
	"missing_fuel_product":      "Informe o produto do almoxarifado.",
}

// StatusFor resolve o status HTTP de um código de negócio.
func StatusFor(code string) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	switch {
	case strings.HasSuffix(code, "_not_found"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "_in_use"), strings.HasPrefix(code, "duplicate_"):
		return http.StatusConflict
	case strings.HasPrefix(code, "invalid_"), strings.HasPrefix(code, "missing_"):
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

func messageFor(code string) string {
	if m, ok := messageByCode[code]; ok {
		return m
	}
	switch {
	case strings.HasSuffix(code, "_not_found"):
		return "Registro não encontrado."
	case strings.HasSuffix(code, "_in_use"):
		return "Registro em uso por outros cadastros."
	}
	return "Dados inválidos."
}

// FromError escreve a resposta adequada para qualquer erro vindo de use case
// ou repositório. fallback é o código usado para erros inesperados.
func FromError(c *gin.Context, err error, fallback string) {
	if code, ok := BusinessCode(err); ok {
		Write(c, StatusFor(code), code, messageFor(code))
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		NotFound(c, "not_found", "Registro não encontrado.")
		return
	}
	if IsUniqueViolation(err) {
		Conflict(c, "duplicate_record", messageFor("duplicate_record"))
		return
	}
	if IsForeignKeyViolation(err) {
		Conflict(c, "record_in_use", messageFor("record_in_use"))
		return
	}
	Internal(c, fallback, "Erro interno.")
}
