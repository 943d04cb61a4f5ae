package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/domain/inventory"
	domain "github.com/mandacaru/erp-api/internal/domain/quote"
	"github.com/mandacaru/erp-api/internal/domain/serviceorder"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/timezone"
)

type ApproveQuoteOutput struct {
	Quote        *models.Quote           `json:"orcamento"`
	ServiceOrder *models.ServiceOrder    `json:"ordem_servico"`
	Withdrawal   *models.StockWithdrawal `json:"retirada"`
}

// ApproveQuote converte o orçamento em OS numa única transação: reserva o
// estoque, abre a OS, emite a retirada e marca o orçamento como aprovado.
// Qualquer falha desfaz tudo.
type ApproveQuote struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	now   func() time.Time
}

func NewApproveQuote(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *ApproveQuote {
	return &ApproveQuote{
		repo:  repo,
		audit: audit,
		now:   timezone.Now,
	}
}

func (uc *ApproveQuote) Execute(
	ctx context.Context,
	quoteID uint,
	userID uint,
) (*ApproveQuoteOutput, error) {

	var out ApproveQuoteOutput

	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		now := uc.now()

		// --------------------------------------------------
		// 1️⃣ Orçamento travado e ainda pendente
		// --------------------------------------------------
		q, err := tx.GetQuoteForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		if err := domain.CanApprove(domain.Status(q.Status)); err != nil {
			return err
		}

		// --------------------------------------------------
		// 2️⃣ OS aberta com o valor do orçamento
		// --------------------------------------------------
		order := &models.ServiceOrder{
			QuoteID:        &q.ID,
			ClientID:       q.ClientID,
			BusinessSiteID: q.BusinessSiteID,
			EquipmentID:    q.EquipmentID,
			Descricao:      q.Descricao,
			Status:         string(serviceorder.InitialStatus()),
			Valor:          q.ValorTotal,
			DataAbertura:   now,
		}
		if err := tx.CreateServiceOrder(ctx, order); err != nil {
			return err
		}

		// --------------------------------------------------
		// 3️⃣ Reserva por produto (soma das linhas)
		// --------------------------------------------------
		demand := inventory.FromQuoteItems(q.Items)
		products, err := tx.LockProducts(ctx, demand.ProductIDs())
		if err != nil {
			return err
		}

		origem := fmt.Sprintf("Orçamento #%d", q.ID)
		for _, id := range demand.ProductIDs() {
			p, ok := products[id]
			if !ok {
				return httperr.ErrBusiness("product_not_found")
			}
			if err := inventory.Reserve(p, demand[id]); err != nil {
				return err
			}
			if err := tx.SaveProduct(ctx, p); err != nil {
				return err
			}
			if err := tx.CreateMovement(ctx, &models.StockMovement{
				ProductID:      id,
				Tipo:           string(inventory.MovementReserve),
				Quantidade:     demand[id],
				Origem:         origem,
				ServiceOrderID: &order.ID,
				UserID:         userPtr(userID),
			}); err != nil {
				return err
			}
		}

		// --------------------------------------------------
		// 4️⃣ Retirada pendente
		// --------------------------------------------------
		withdrawal := &models.StockWithdrawal{
			ServiceOrderID: order.ID,
			Status:         string(serviceorder.WithdrawalPending),
			Items:          demand.WithdrawalItems(),
		}
		if err := tx.CreateWithdrawal(ctx, withdrawal); err != nil {
			return err
		}

		// --------------------------------------------------
		// 5️⃣ Orçamento aprovado
		// --------------------------------------------------
		if err := domain.Approve(q, now, userID); err != nil {
			return err
		}
		if err := tx.UpdateQuoteStatus(ctx, q); err != nil {
			return err
		}

		order.Withdrawal = withdrawal
		out = ApproveQuoteOutput{Quote: q, ServiceOrder: order, Withdrawal: withdrawal}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   userPtr(userID),
		Action:   "quote_approved",
		Entity:   "quote",
		EntityID: &out.Quote.ID,
		Metadata: map[string]any{
			"ordem_servico": out.ServiceOrder.ID,
			"valor_total":   out.Quote.ValorTotal,
		},
	})

	return &out, nil
}
