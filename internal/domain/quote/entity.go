package quote

import (
	"time"

	"github.com/mandacaru/erp-api/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func Approve(q *models.Quote, now time.Time, userID uint) error {
	if err := CanApprove(Status(q.Status)); err != nil {
		return err
	}

	q.Status = string(StatusApproved)
	q.ApprovedAt = &now
	if userID != 0 {
		q.ApprovedBy = &userID
	}
	return nil
}

func Reject(q *models.Quote) error {
	if err := CanReject(Status(q.Status)); err != nil {
		return err
	}
	q.Status = string(StatusRejected)
	return nil
}

func Cancel(q *models.Quote) error {
	if err := CanCancel(Status(q.Status)); err != nil {
		return err
	}
	q.Status = string(StatusCancelled)
	return nil
}

// ApplyTotals grava no orçamento os valores calculados e os subtotais das linhas.
func ApplyTotals(q *models.Quote, t Totals) {
	for i := range q.Items {
		q.Items[i].Subtotal = t.Subtotals[i]
	}
	q.DistanciaKm = t.DistanciaKm
	q.ValorKm = t.ValorKm
	q.CustoDeslocamento = t.CustoDeslocamento
	q.ValorItens = t.ValorItens
	q.ValorTotal = t.ValorTotal
}

func Lines(items []models.QuoteItem) []Line {
	out := make([]Line, len(items))
	for i, it := range items {
		out[i] = Line{Quantidade: it.Quantidade, PrecoUnitario: it.PrecoUnitario}
	}
	return out
}
