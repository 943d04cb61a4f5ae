package inventory

import (
	"context"
	"strings"

	"github.com/mandacaru/erp-api/internal/audit"
	domain "github.com/mandacaru/erp-api/internal/domain/inventory"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/models"
)

type MovementInput struct {
	UserID     uint
	ProductID  uint
	Tipo       string
	Quantidade float64
	Origem     string
}

type MovementOutput struct {
	Movement *models.StockMovement `json:"movimentacao"`
	Product  *models.Product       `json:"produto"`
}

// RegisterMovement grava entrada, saída ou ajuste manual com o produto travado.
type RegisterMovement struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewRegisterMovement(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *RegisterMovement {
	return &RegisterMovement{
		repo:  repo,
		audit: audit,
	}
}

func (uc *RegisterMovement) Execute(
	ctx context.Context,
	in MovementInput,
) (*MovementOutput, error) {

	tipo := domain.MovementType(strings.ToUpper(strings.TrimSpace(in.Tipo)))
	if !domain.IsManual(tipo) {
		return nil, httperr.ErrBusiness("invalid_movement_type")
	}

	var out MovementOutput

	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		products, err := tx.LockProducts(ctx, []uint{in.ProductID})
		if err != nil {
			return err
		}
		p, ok := products[in.ProductID]
		if !ok {
			return httperr.ErrBusiness("product_not_found")
		}

		if err := domain.Apply(p, tipo, in.Quantidade); err != nil {
			return err
		}
		if err := tx.SaveProduct(ctx, p); err != nil {
			return err
		}

		origem := strings.TrimSpace(in.Origem)
		if origem == "" {
			origem = "Manual"
		}

		m := &models.StockMovement{
			ProductID:  p.ID,
			Tipo:       string(tipo),
			Quantidade: in.Quantidade,
			Origem:     origem,
		}
		if in.UserID != 0 {
			uid := in.UserID
			m.UserID = &uid
		}
		if err := tx.CreateMovement(ctx, m); err != nil {
			return err
		}

		out = MovementOutput{Movement: m, Product: p}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   out.Movement.UserID,
		Action:   "stock_movement",
		Entity:   "product",
		EntityID: &out.Product.ID,
		Metadata: map[string]any{
			"tipo":       out.Movement.Tipo,
			"quantidade": out.Movement.Quantidade,
		},
	})

	return &out, nil
}
