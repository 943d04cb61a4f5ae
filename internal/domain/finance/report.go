package finance

import (
	"time"

	"github.com/mandacaru/erp-api/internal/domain/money"
	"github.com/mandacaru/erp-api/internal/models"
)

type Summary struct {
	TotalPagar    float64 `json:"total_pagar"`
	TotalReceber  float64 `json:"total_receber"`
	TotalPago     float64 `json:"total_pago"`
	TotalPendente float64 `json:"total_pendente"`
	TotalVencido  float64 `json:"total_vencido"`
	Saldo         float64 `json:"saldo"`
	Quantidade    int     `json:"quantidade"`
}

// Bucket é o agregado de contas de um tipo e status, no formato do
// GROUP BY do relatório.
type Bucket struct {
	Tipo         string
	Status       string
	Quantidade   int64
	Total        float64
	TotalVencido float64
}

// Summarize soma as contas do relatório. Contas canceladas entram na
// contagem mas não nos totais.
func Summarize(accounts []models.FinancialAccount, today time.Time) Summary {
	index := map[[2]string]int{}
	var buckets []Bucket

	for _, a := range accounts {
		key := [2]string{a.Tipo, a.Status}
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Tipo: a.Tipo, Status: a.Status})
		}
		buckets[i].Quantidade++
		buckets[i].Total += a.Valor
		if IsOverdue(a, today) {
			buckets[i].TotalVencido += a.Valor
		}
	}
	return FromBuckets(buckets)
}

// FromBuckets monta o resumo a partir dos agregados.
func FromBuckets(buckets []Bucket) Summary {
	var s Summary

	for _, b := range buckets {
		s.Quantidade += int(b.Quantidade)
		if Status(b.Status) == StatusCancelled {
			continue
		}

		switch Kind(b.Tipo) {
		case KindPayable:
			s.TotalPagar += b.Total
		case KindReceivable:
			s.TotalReceber += b.Total
		}

		if Status(b.Status) == StatusPaid {
			s.TotalPago += b.Total
		} else {
			s.TotalPendente += b.Total
			s.TotalVencido += b.TotalVencido
		}
	}

	s.TotalPagar = money.Round2(s.TotalPagar)
	s.TotalReceber = money.Round2(s.TotalReceber)
	s.TotalPago = money.Round2(s.TotalPago)
	s.TotalPendente = money.Round2(s.TotalPendente)
	s.TotalVencido = money.Round2(s.TotalVencido)
	s.Saldo = money.Round2(s.TotalReceber - s.TotalPagar)
	return s
}

// MonthRange devolve [início, fim) do mês no fuso informado.
func MonthRange(year, month int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}
