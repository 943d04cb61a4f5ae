package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/httpresp"
	"github.com/mandacaru/erp-api/internal/middleware"
	"github.com/mandacaru/erp-api/internal/models"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == 0 {
		httperr.Unauthorized(c, "user_not_in_context", "Autenticação necessária.")
		return
	}

	var user models.User
	if err := findOr(h.db, &user, userID, "user_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_get_user")
		return
	}

	httpresp.OK(c, user)
}
