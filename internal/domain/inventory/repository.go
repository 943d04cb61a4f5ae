package inventory

import (
	"context"

	"github.com/mandacaru/erp-api/internal/models"
)

// Store é o pedaço de persistência de estoque compartilhado pelos fluxos
// de orçamento, OS e movimentação manual.
type Store interface {
	// LockProducts trava (FOR UPDATE) os produtos em ordem de id.
	LockProducts(ctx context.Context, ids []uint) (map[uint]*models.Product, error)
	SaveProduct(ctx context.Context, p *models.Product) error
	CreateMovement(ctx context.Context, m *models.StockMovement) error
}

type Repository interface {
	Store

	Transaction(
		ctx context.Context,
		fn func(tx Repository) error,
	) error
}
