package serviceorder

import (
	"context"
	"fmt"

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/domain/inventory"
	"github.com/mandacaru/erp-api/internal/domain/quote"
	domain "github.com/mandacaru/erp-api/internal/domain/serviceorder"
	"github.com/mandacaru/erp-api/internal/models"
)

// CancelServiceOrder devolve as reservas ao disponível e cancela o orçamento
// de origem.
type CancelServiceOrder struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewCancelServiceOrder(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *CancelServiceOrder {
	return &CancelServiceOrder{
		repo:  repo,
		audit: audit,
	}
}

func (uc *CancelServiceOrder) Execute(
	ctx context.Context,
	orderID uint,
	userID uint,
) (*models.ServiceOrder, error) {

	var order *models.ServiceOrder

	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := domain.Cancel(o); err != nil {
			return err
		}

		if w := domain.PendingWithdrawal(o); w != nil {
			demand := inventory.FromWithdrawalItems(w.Items)
			products, err := tx.LockProducts(ctx, demand.ProductIDs())
			if err != nil {
				return err
			}

			origem := fmt.Sprintf("OS #%d cancelada", o.ID)
			for _, id := range demand.ProductIDs() {
				p, ok := products[id]
				if !ok {
					// produto apagado: nada a liberar
					continue
				}
				inventory.Release(p, demand[id])
				if err := tx.SaveProduct(ctx, p); err != nil {
					return err
				}
				if err := tx.CreateMovement(ctx, &models.StockMovement{
					ProductID:      id,
					Tipo:           string(inventory.MovementRelease),
					Quantidade:     demand[id],
					Origem:         origem,
					ServiceOrderID: &o.ID,
					UserID:         userPtr(userID),
				}); err != nil {
					return err
				}
			}

			w.Status = string(domain.WithdrawalCancelled)
			if err := tx.SaveWithdrawal(ctx, w); err != nil {
				return err
			}
		}

		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}

		if o.QuoteID != nil {
			if err := tx.SetQuoteStatus(ctx, *o.QuoteID, string(quote.StatusCancelled)); err != nil {
				return err
			}
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   userPtr(userID),
		Action:   "service_order_cancelled",
		Entity:   "service_order",
		EntityID: &order.ID,
	})

	return order, nil
}
