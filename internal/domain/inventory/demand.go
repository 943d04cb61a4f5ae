package inventory

import (
	"sort"

	"github.com/mandacaru/erp-api/internal/domain/money"
	"github.com/mandacaru/erp-api/internal/models"
)

// Demand soma quantidades por produto; um orçamento pode repetir o produto
// em mais de uma linha.
type Demand map[uint]float64

func (d Demand) Add(productID uint, qty float64) {
	d[productID] = money.Round3(d[productID] + qty)
}

// ProductIDs em ordem crescente: as travas são sempre tomadas na mesma ordem.
func (d Demand) ProductIDs() []uint {
	ids := make([]uint, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func FromQuoteItems(items []models.QuoteItem) Demand {
	d := Demand{}
	for _, it := range items {
		d.Add(it.ProductID, it.Quantidade)
	}
	return d
}

func FromWithdrawalItems(items []models.StockWithdrawalItem) Demand {
	d := Demand{}
	for _, it := range items {
		d.Add(it.ProductID, it.Quantidade)
	}
	return d
}

// WithdrawalItems converte a demanda nas linhas da retirada.
func (d Demand) WithdrawalItems() []models.StockWithdrawalItem {
	out := make([]models.StockWithdrawalItem, 0, len(d))
	for _, id := range d.ProductIDs() {
		out = append(out, models.StockWithdrawalItem{
			ProductID:  id,
			Quantidade: d[id],
		})
	}
	return out
}
