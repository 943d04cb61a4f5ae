package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/middleware"
)

// writeAudit enfileira o evento; o dispatcher grava fora da requisição.
func writeAudit(
	d *audit.Dispatcher,
	c *gin.Context,
	action string,
	entity string,
	entityID uint,
	meta any,
) {
	id := entityID
	d.Dispatch(audit.Event{
		UserID:   middleware.UserIDPtr(c),
		Action:   action,
		Entity:   entity,
		EntityID: &id,
		Metadata: meta,
	})
}
