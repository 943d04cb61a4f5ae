package serviceorder

import (
	"context"
	"fmt"
	"time"

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/domain/finance"
	"github.com/mandacaru/erp-api/internal/domain/inventory"
	"github.com/mandacaru/erp-api/internal/domain/quote"
	domain "github.com/mandacaru/erp-api/internal/domain/serviceorder"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/timezone"
)

type ReceivableRules struct {
	DueDays       int
	PaymentMethod string
}

// FinishServiceOrder efetiva a retirada, converte o orçamento e lança a
// conta a receber, tudo na mesma transação.
type FinishServiceOrder struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	rules ReceivableRules
	now   func() time.Time
}

func NewFinishServiceOrder(
	repo domain.Repository,
	audit *audit.Dispatcher,
	rules ReceivableRules,
) *FinishServiceOrder {
	return &FinishServiceOrder{
		repo:  repo,
		audit: audit,
		rules: rules,
		now:   timezone.Now,
	}
}

func (uc *FinishServiceOrder) Execute(
	ctx context.Context,
	orderID uint,
	userID uint,
) (*models.ServiceOrder, error) {

	var order *models.ServiceOrder

	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		now := uc.now()

		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := domain.Finish(o, now); err != nil {
			return err
		}

		// --------------------------------------------------
		// Retirada: reservado vira saída física
		// --------------------------------------------------
		if w := domain.PendingWithdrawal(o); w != nil {
			if err := consume(ctx, tx, o, w, userID); err != nil {
				return err
			}
			w.Status = string(domain.WithdrawalDone)
			if err := tx.SaveWithdrawal(ctx, w); err != nil {
				return err
			}
		}

		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}

		if o.QuoteID != nil {
			if err := tx.SetQuoteStatus(ctx, *o.QuoteID, string(quote.StatusConverted)); err != nil {
				return err
			}
		}

		// --------------------------------------------------
		// Conta a receber (uma por OS)
		// --------------------------------------------------
		if o.Valor > 0 {
			exists, err := tx.HasReceivableForOrder(ctx, o.ID)
			if err != nil {
				return err
			}
			if !exists {
				if err := tx.CreateAccount(ctx, uc.receivable(o, now)); err != nil {
					return err
				}
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
		Action:   "service_order_finished",
		Entity:   "service_order",
		EntityID: &order.ID,
		Metadata: map[string]any{"valor": order.Valor},
	})

	return order, nil
}

func (uc *FinishServiceOrder) receivable(o *models.ServiceOrder, now time.Time) *models.FinancialAccount {
	method := uc.rules.PaymentMethod
	if method == "" {
		method = "Pix"
	}

	clientID := o.ClientID
	orderID := o.ID

	return &models.FinancialAccount{
		Tipo:           string(finance.KindReceivable),
		Descricao:      fmt.Sprintf("Ordem de Serviço #%d", o.ID),
		Valor:          o.Valor,
		DataVencimento: timezone.StartOfDay(now).AddDate(0, 0, uc.rules.DueDays),
		FormaPagamento: method,
		Status:         string(finance.StatusPending),
		ClientID:       &clientID,
		ServiceOrderID: &orderID,
	}
}

func consume(
	ctx context.Context,
	tx domain.Repository,
	o *models.ServiceOrder,
	w *models.StockWithdrawal,
	userID uint,
) error {

	demand := inventory.FromWithdrawalItems(w.Items)
	products, err := tx.LockProducts(ctx, demand.ProductIDs())
	if err != nil {
		return err
	}

	origem := fmt.Sprintf("OS #%d", o.ID)
	for _, id := range demand.ProductIDs() {
		p, ok := products[id]
		if !ok {
			return httperr.ErrBusiness("product_not_found")
		}
		if err := inventory.Consume(p, demand[id]); err != nil {
			return err
		}
		if err := tx.SaveProduct(ctx, p); err != nil {
			return err
		}
		if err := tx.CreateMovement(ctx, &models.StockMovement{
			ProductID:      id,
			Tipo:           string(inventory.MovementOut),
			Quantidade:     demand[id],
			Origem:         origem,
			ServiceOrderID: &o.ID,
			UserID:         userPtr(userID),
		}); err != nil {
			return err
		}
	}
	return nil
}

func userPtr(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
