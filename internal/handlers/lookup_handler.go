package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/httpresp"
	"github.com/mandacaru/erp-api/internal/models"
)

// Option é o item compacto dos selects dependentes
// (cliente → empreendimento → equipamento).
type Option struct {
	ID   uint   `json:"id"`
	Nome string `json:"nome"`
}

type LookupHandler struct {
	db *gorm.DB
}

func NewLookupHandler(db *gorm.DB) *LookupHandler {
	return &LookupHandler{db: db}
}

func (h *LookupHandler) Clients(c *gin.Context) {
	var opts []Option
	if err := h.db.Model(&models.Client{}).
		Select("id, COALESCE(NULLIF(nome_fantasia, ''), razao_social) AS nome").
		Order("nome").
		Scan(&opts).Error; err != nil {

		httperr.Internal(c, "failed_to_list_options", "Erro ao carregar opções.")
		return
	}
	httpresp.List(c, opts)
}

// Sites: sem cliente válido devolve lista vazia e o select é zerado no front.
func (h *LookupHandler) Sites(c *gin.Context) {
	h.children(c, "cliente", &models.BusinessSite{}, "client_id")
}

func (h *LookupHandler) Equipments(c *gin.Context) {
	h.children(c, "empreendimento", &models.Equipment{}, "business_site_id")
}

func (h *LookupHandler) children(c *gin.Context, param string, model any, column string) {
	parentID, present, ok := queryID(c, param)
	if !present || !ok {
		httpresp.List(c, []Option{})
		return
	}

	var opts []Option
	if err := h.db.Model(model).
		Select("id, nome").
		Where(column+" = ?", parentID).
		Order("nome").
		Scan(&opts).Error; err != nil {

		httperr.Internal(c, "failed_to_list_options", "Erro ao carregar opções.")
		return
	}
	httpresp.List(c, opts)
}
