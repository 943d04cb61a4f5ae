package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/config"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/httpresp"
	"github.com/mandacaru/erp-api/internal/middleware"
	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/validators"
)

type AuthHandler struct {
	db     *gorm.DB
	config *config.Config
	audit  *audit.Dispatcher

	// checagem de domínio do e-mail (MX); trocada nos testes
	emailDomainOK func(email string) bool
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config, audit *audit.Dispatcher) *AuthHandler {
	return &AuthHandler{
		db:            db,
		config:        cfg,
		audit:         audit,
		emailDomainOK: validators.IsEmailDomainValid,
	}
}

// --------- Requests ---------

type RegisterRequest struct {
	Name     string `json:"nome" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"senha" binding:"required,min=6"`
	Role     string `json:"perfil"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"senha" binding:"required"`
}

type authResponse struct {
	User  models.User `json:"usuario"`
	Token string      `json:"token"`
}

// --------- Handlers ---------

// Register só é aberto enquanto não existe usuário (o primeiro vira admin).
// Depois disso exige token de admin.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	var count int64
	if err := h.db.Model(&models.User{}).Count(&count).Error; err != nil {
		httperr.Internal(c, "failed_to_create_user", "Erro ao criar usuário.")
		return
	}

	role := middleware.RoleAdmin
	if count > 0 {
		if c.GetString(middleware.ContextUserRole) != middleware.RoleAdmin {
			httperr.FromError(c, httperr.ErrBusiness("registration_closed"), "failed_to_create_user")
			return
		}
		role = strings.ToLower(strings.TrimSpace(req.Role))
		if role == "" {
			role = middleware.RoleOperator
		}
		if role != middleware.RoleAdmin && role != middleware.RoleOperator {
			httperr.BadRequest(c, "invalid_role", "Perfil inválido.")
			return
		}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validators.IsEmail(email) || !h.emailDomainOK(email) {
		httperr.BadRequest(c, "invalid_email_domain", "O domínio do e-mail informado não parece ser válido.")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Erro ao criar usuário.")
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
		Active:       true,
	}
	if err := h.insertUser(&user, count == 0); err != nil {
		httperr.FromError(c, saveErr(err, "duplicate_email"), "failed_to_create_user")
		return
	}

	token, err := h.generateToken(&user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Erro ao gerar token.")
		return
	}

	writeAudit(h.audit, c, "user_registered", "user", user.ID, map[string]any{"perfil": user.Role})
	httpresp.Created(c, authResponse{User: user, Token: token})
}

// insertUser grava o usuário. No cadastro inicial a tabela fica travada e a
// contagem é refeita, de modo que só um pedido concorrente vira admin.
func (h *AuthHandler) insertUser(user *models.User, bootstrap bool) error {
	if !bootstrap {
		return h.db.Create(user).Error
	}

	return h.db.Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
				return err
			}
		}

		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return httperr.ErrBusiness("registration_closed")
		}
		return tx.Create(user).Error
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.InvalidRequest(c, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.FromError(c, httperr.ErrBusiness("invalid_credentials"), "internal_error")
			return
		}
		httperr.Internal(c, "internal_error", "Erro interno.")
		return
	}

	if !user.Active {
		httperr.FromError(c, httperr.ErrBusiness("invalid_credentials"), "internal_error")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.FromError(c, httperr.ErrBusiness("invalid_credentials"), "internal_error")
		return
	}

	token, err := h.generateToken(&user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Erro ao gerar token.")
		return
	}

	httpresp.OK(c, authResponse{User: user, Token: token})
}

// --------- JWT ---------

func (h *AuthHandler) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  now.Add(h.config.JWTExpiry).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.config.JWTSecret))
}
