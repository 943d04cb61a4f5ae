package serviceorder

import (
	"context"

	"github.com/mandacaru/erp-api/internal/domain/inventory"
	"github.com/mandacaru/erp-api/internal/models"
)

type Repository interface {
	inventory.Store

	Transaction(
		ctx context.Context,
		fn func(tx Repository) error,
	) error

	// GetOrderForUpdate carrega a OS com a retirada e trava a linha.
	GetOrderForUpdate(ctx context.Context, id uint) (*models.ServiceOrder, error)
	SaveOrder(ctx context.Context, o *models.ServiceOrder) error
	SaveWithdrawal(ctx context.Context, w *models.StockWithdrawal) error

	SetQuoteStatus(ctx context.Context, quoteID uint, status string) error

	HasReceivableForOrder(ctx context.Context, orderID uint) (bool, error)
	CreateAccount(ctx context.Context, a *models.FinancialAccount) error
}
