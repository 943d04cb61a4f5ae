package quote

import "github.com/mandacaru/erp-api/internal/httperr"

// ===============================
// Quote Status
// ===============================

type Status string

const (
	StatusPending   Status = "PENDENTE"
	StatusApproved  Status = "APROVADO"
	StatusRejected  Status = "REJEITADO"
	StatusConverted Status = "CONVERTIDO"
	StatusCancelled Status = "CANCELADO"
)

func InitialStatus() Status {
	return StatusPending
}

// ===============================
// Validations
// ===============================

// CanEdit: itens e valores só mudam enquanto pendente
func CanEdit(current Status) error {
	if current != StatusPending {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

func CanApprove(current Status) error {
	if current != StatusPending {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

func CanReject(current Status) error {
	if current != StatusPending {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

func CanCancel(current Status) error {
	if current != StatusPending {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

func CanDelete(current Status) error {
	return CanEdit(current)
}
