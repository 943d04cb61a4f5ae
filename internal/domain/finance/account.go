package finance

import (
	"time"

	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/models"
)

type Kind string

const (
	KindPayable    Kind = "pagar"
	KindReceivable Kind = "receber"
)

type Status string

const (
	StatusPending   Status = "pendente"
	StatusPaid      Status = "pago"
	StatusCancelled Status = "cancelado"
)

var paymentMethods = map[string]bool{
	"Pix":           true,
	"Boleto":        true,
	"Transferência": true,
	"Dinheiro":      true,
	"Cartão":        true,
}

func IsValidPaymentMethod(m string) bool {
	return paymentMethods[m]
}

// Validate checa as regras de uma conta antes de gravar.
func Validate(a *models.FinancialAccount) error {
	switch Kind(a.Tipo) {
	case KindPayable:
		if a.ClientID != nil {
			return httperr.ErrBusiness("account_party_mismatch")
		}
	case KindReceivable:
		if a.SupplierID != nil {
			return httperr.ErrBusiness("account_party_mismatch")
		}
	default:
		return httperr.ErrBusiness("invalid_account_type")
	}

	if a.Valor <= 0 {
		return httperr.ErrBusiness("invalid_amount")
	}
	if a.FormaPagamento != "" && !IsValidPaymentMethod(a.FormaPagamento) {
		return httperr.ErrBusiness("invalid_payment_method")
	}
	switch Status(a.Status) {
	case StatusPending, StatusPaid, StatusCancelled:
	default:
		return httperr.ErrBusiness("invalid_account_status")
	}
	return nil
}

func Pay(a *models.FinancialAccount, paidAt time.Time) error {
	if Status(a.Status) != StatusPending {
		return httperr.ErrBusiness("invalid_state")
	}
	a.Status = string(StatusPaid)
	a.DataPagamento = &paidAt
	return nil
}

// CanCreateLink: link de pagamento só para contas a receber ainda abertas
func CanCreateLink(a *models.FinancialAccount) error {
	if Kind(a.Tipo) != KindReceivable || Status(a.Status) != StatusPending {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

// IsOverdue: pendente com vencimento anterior ao dia de hoje.
func IsOverdue(a models.FinancialAccount, today time.Time) bool {
	return Status(a.Status) == StatusPending && a.DataVencimento.Before(today)
}
