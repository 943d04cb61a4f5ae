package serviceorder

import (
	"time"

	"github.com/mandacaru/erp-api/internal/models"
)

func Start(o *models.ServiceOrder) error {
	if err := CanStart(Status(o.Status)); err != nil {
		return err
	}
	o.Status = string(StatusInProgress)
	return nil
}

func Finish(o *models.ServiceOrder, now time.Time) error {
	if err := CanFinish(Status(o.Status)); err != nil {
		return err
	}
	o.Status = string(StatusFinished)
	o.DataFinalizacao = &now
	return nil
}

func Cancel(o *models.ServiceOrder) error {
	if err := CanCancel(Status(o.Status)); err != nil {
		return err
	}
	o.Status = string(StatusCancelled)
	return nil
}

// PendingWithdrawal devolve a retirada ainda não efetivada, se houver.
func PendingWithdrawal(o *models.ServiceOrder) *models.StockWithdrawal {
	if o.Withdrawal == nil || WithdrawalStatus(o.Withdrawal.Status) != WithdrawalPending {
		return nil
	}
	return o.Withdrawal
}
