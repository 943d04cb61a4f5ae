package quote

import (
	"context"

	"github.com/mandacaru/erp-api/internal/domain/inventory"
	"github.com/mandacaru/erp-api/internal/models"
)

type Repository interface {
	inventory.Store

	// Transaction executa fn com um repositório preso à mesma transação.
	Transaction(
		ctx context.Context,
		fn func(tx Repository) error,
	) error

	// -------- Cadastros (cascata) --------
	GetClient(ctx context.Context, id uint) (*models.Client, error)
	GetSite(ctx context.Context, id uint) (*models.BusinessSite, error)
	GetEquipment(ctx context.Context, id uint) (*models.Equipment, error)
	GetProducts(ctx context.Context, ids []uint) (map[uint]models.Product, error)

	// -------- Orçamento --------
	GetQuote(ctx context.Context, id uint) (*models.Quote, error)
	GetQuoteForUpdate(ctx context.Context, id uint) (*models.Quote, error)
	CreateQuote(ctx context.Context, q *models.Quote) error
	ReplaceQuote(ctx context.Context, q *models.Quote) error
	UpdateQuoteStatus(ctx context.Context, q *models.Quote) error

	// -------- Aprovação --------
	CreateServiceOrder(ctx context.Context, o *models.ServiceOrder) error
	CreateWithdrawal(ctx context.Context, w *models.StockWithdrawal) error
}
