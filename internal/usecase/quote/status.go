package quote

import (
	"context"

	"github.com/mandacaru/erp-api/internal/audit"
	domain "github.com/mandacaru/erp-api/internal/domain/quote"
	"github.com/mandacaru/erp-api/internal/models"
)

// ChangeQuoteStatus cobre as transições simples (rejeitar / cancelar),
// que não mexem em estoque.
type ChangeQuoteStatus struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewChangeQuoteStatus(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *ChangeQuoteStatus {
	return &ChangeQuoteStatus{
		repo:  repo,
		audit: audit,
	}
}

func (uc *ChangeQuoteStatus) Reject(ctx context.Context, id, userID uint) (*models.Quote, error) {
	return uc.apply(ctx, id, userID, "quote_rejected", domain.Reject)
}

func (uc *ChangeQuoteStatus) Cancel(ctx context.Context, id, userID uint) (*models.Quote, error) {
	return uc.apply(ctx, id, userID, "quote_cancelled", domain.Cancel)
}

func (uc *ChangeQuoteStatus) apply(
	ctx context.Context,
	id uint,
	userID uint,
	action string,
	transition func(*models.Quote) error,
) (*models.Quote, error) {

	var q *models.Quote
	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		// mesma trava da aprovação
		locked, err := tx.GetQuoteForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transition(locked); err != nil {
			return err
		}
		q = locked
		return tx.UpdateQuoteStatus(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   userPtr(userID),
		Action:   action,
		Entity:   "quote",
		EntityID: &q.ID,
	})

	return q, nil
}
