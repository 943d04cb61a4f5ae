package serviceorder

import "github.com/mandacaru/erp-api/internal/httperr"

type Status string

const (
	StatusOpen       Status = "ABERTA"
	StatusInProgress Status = "EM_EXECUCAO"
	StatusFinished   Status = "FINALIZADA"
	StatusCancelled  Status = "CANCELADA"
)

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "PENDENTE"
	WithdrawalDone      WithdrawalStatus = "EFETIVADA"
	WithdrawalCancelled WithdrawalStatus = "CANCELADA"
)

func InitialStatus() Status {
	return StatusOpen
}

func CanStart(current Status) error {
	if current != StatusOpen {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

func CanFinish(current Status) error {
	if current != StatusOpen && current != StatusInProgress {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

func CanCancel(current Status) error {
	return CanFinish(current)
}

// CanDelete: só OS manual (sem orçamento) ainda aberta pode ser apagada
func CanDelete(current Status, fromQuote bool) error {
	if current != StatusOpen || fromQuote {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

// CanEdit: OS finalizada ou cancelada é somente leitura
func CanEdit(current Status) error {
	if current == StatusFinished || current == StatusCancelled {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}
