package payment

import (
	"context"
	"fmt"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/mandacaru/erp-api/internal/httperr"
)

type LinkRequest struct {
	AccountID uint
	Title     string
	Amount    float64
}

type Link struct {
	PreferenceID string
	URL          string
}

type LinkCreator interface {
	CreateLink(ctx context.Context, req LinkRequest) (*Link, error)
}

func ExternalReference(accountID uint) string {
	return fmt.Sprintf("conta-%d", accountID)
}

// ===============================
// Mercado Pago
// ===============================

type MercadoPago struct {
	client preference.Client
}

var _ LinkCreator = (*MercadoPago)(nil)

func NewMercadoPago(accessToken string) (*MercadoPago, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return &MercadoPago{client: preference.NewClient(cfg)}, nil
}

func (m *MercadoPago) CreateLink(ctx context.Context, req LinkRequest) (*Link, error) {
	if req.Amount <= 0 {
		return nil, httperr.ErrBusiness("invalid_amount")
	}

	res, err := m.client.Create(ctx, preference.Request{
		Items: []preference.ItemRequest{
			{
				Title:      req.Title,
				Quantity:   1,
				UnitPrice:  req.Amount,
				CurrencyID: "BRL",
			},
		},
		ExternalReference: ExternalReference(req.AccountID),
	})
	if err != nil {
		return nil, fmt.Errorf("mercadopago preference: %w", err)
	}

	return &Link{PreferenceID: res.ID, URL: res.InitPoint}, nil
}

// Disabled responde quando MP_ACCESS_TOKEN não está configurado.
type Disabled struct{}

func (Disabled) CreateLink(context.Context, LinkRequest) (*Link, error) {
	return nil, httperr.ErrBusiness("payment_disabled")
}
