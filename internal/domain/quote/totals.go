package quote

import (
	"github.com/mandacaru/erp-api/internal/domain/money"
	"github.com/mandacaru/erp-api/internal/httperr"
)

type Line struct {
	Quantidade    float64
	PrecoUnitario float64
}

type Totals struct {
	Subtotals         []float64
	ValorItens        float64
	DistanciaKm       float64
	ValorKm           float64
	CustoDeslocamento float64
	ValorTotal        float64
}

// ComputeTotals: total = Σ(quantidade × preço unitário) + distância × valor do km.
// Cada subtotal é arredondado antes da soma, como aparece no orçamento impresso.
func ComputeTotals(lines []Line, distanciaKm, valorKm float64) (Totals, error) {
	if distanciaKm < 0 {
		return Totals{}, httperr.ErrBusiness("invalid_distance")
	}
	if valorKm < 0 {
		return Totals{}, httperr.ErrBusiness("invalid_km_rate")
	}

	t := Totals{
		Subtotals:   make([]float64, len(lines)),
		DistanciaKm: distanciaKm,
		ValorKm:     valorKm,
	}

	for i, l := range lines {
		if l.Quantidade <= 0 {
			return Totals{}, httperr.ErrBusiness("invalid_item_quantity")
		}
		if l.PrecoUnitario < 0 {
			return Totals{}, httperr.ErrBusiness("invalid_item_price")
		}
		t.Subtotals[i] = money.Round2(l.Quantidade * l.PrecoUnitario)
		t.ValorItens += t.Subtotals[i]
	}

	t.ValorItens = money.Round2(t.ValorItens)
	t.CustoDeslocamento = money.Round2(distanciaKm * valorKm)
	t.ValorTotal = money.Round2(t.ValorItens + t.CustoDeslocamento)
	return t, nil
}
