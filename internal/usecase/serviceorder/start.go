package serviceorder

import (
	"context"

	"github.com/mandacaru/erp-api/internal/audit"
	domain "github.com/mandacaru/erp-api/internal/domain/serviceorder"
	"github.com/mandacaru/erp-api/internal/models"
)

type StartServiceOrder struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewStartServiceOrder(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *StartServiceOrder {
	return &StartServiceOrder{
		repo:  repo,
		audit: audit,
	}
}

func (uc *StartServiceOrder) Execute(
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
		if err := domain.Start(o); err != nil {
			return err
		}
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   userPtr(userID),
		Action:   "service_order_started",
		Entity:   "service_order",
		EntityID: &order.ID,
	})

	return order, nil
}
