package inventory

import (
	"github.com/mandacaru/erp-api/internal/domain/money"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/models"
)

// ===============================
// Movement types
// ===============================

type MovementType string

const (
	MovementIn      MovementType = "ENTRADA"
	MovementOut     MovementType = "SAIDA"
	MovementAdjust  MovementType = "AJUSTE"
	MovementReserve MovementType = "RESERVA"
	MovementRelease MovementType = "LIBERACAO"
)

// Manuais são os tipos aceitos em POST /movimentacoes/.
// RESERVA e LIBERACAO só nascem do fluxo orçamento → OS.
func IsManual(t MovementType) bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjust:
		return true
	}
	return false
}

// ===============================
// Domain Actions
// ===============================

// Apply aplica uma movimentação manual ao produto.
// AJUSTE define o saldo físico absoluto; os demais são deltas positivos.
func Apply(p *models.Product, t MovementType, qty float64) error {
	qty = money.Round3(qty)

	switch t {
	case MovementIn:
		if qty <= 0 {
			return httperr.ErrBusiness("invalid_quantity")
		}
		p.EstoqueAtual = money.Round3(p.EstoqueAtual + qty)

	case MovementOut:
		if qty <= 0 {
			return httperr.ErrBusiness("invalid_quantity")
		}
		if money.Round3(p.Disponivel()) < qty {
			return httperr.ErrBusiness("insufficient_stock")
		}
		p.EstoqueAtual = money.Round3(p.EstoqueAtual - qty)

	case MovementAdjust:
		if qty < 0 {
			return httperr.ErrBusiness("invalid_quantity")
		}
		if qty < p.EstoqueReservado {
			return httperr.ErrBusiness("adjust_below_reserved")
		}
		p.EstoqueAtual = qty

	default:
		return httperr.ErrBusiness("invalid_movement_type")
	}

	return nil
}

// Reserve separa qty do disponível para uma OS.
func Reserve(p *models.Product, qty float64) error {
	qty = money.Round3(qty)
	if qty <= 0 {
		return httperr.ErrBusiness("invalid_quantity")
	}
	if money.Round3(p.Disponivel()) < qty {
		return httperr.ErrBusiness("insufficient_stock")
	}
	p.EstoqueReservado = money.Round3(p.EstoqueReservado + qty)
	return nil
}

// Release devolve ao disponível uma reserva que não será consumida.
func Release(p *models.Product, qty float64) {
	p.EstoqueReservado = money.Round3(p.EstoqueReservado - qty)
	if p.EstoqueReservado < 0 {
		p.EstoqueReservado = 0
	}
}

// Consume baixa fisicamente o que estava reservado.
func Consume(p *models.Product, qty float64) error {
	qty = money.Round3(qty)
	if p.EstoqueAtual < qty {
		return httperr.ErrBusiness("insufficient_stock")
	}
	p.EstoqueAtual = money.Round3(p.EstoqueAtual - qty)
	Release(p, qty)
	return nil
}

// IsLow: disponível abaixo do mínimo do produto ou do limite global.
func IsLow(p models.Product, threshold float64) bool {
	limit := p.EstoqueMinimo
	if threshold > limit {
		limit = threshold
	}
	return p.Disponivel() < limit
}
