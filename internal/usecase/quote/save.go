package quote

import (
	"context"
	"strings"
	"time"

	"github.com/mandacaru/erp-api/internal/audit"
	domain "github.com/mandacaru/erp-api/internal/domain/quote"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/models"
)

// ======================================================
// INPUT
// ======================================================

type ItemInput struct {
	ProductID     uint
	Descricao     string
	Quantidade    float64
	PrecoUnitario *float64
}

type QuoteInput struct {
	UserID uint

	ClientID       uint
	BusinessSiteID uint
	EquipmentID    *uint

	Descricao      string
	DataVencimento time.Time

	Items []ItemInput
}

// ======================================================
// USE CASE
// ======================================================

// SaveQuote cria, atualiza e simula orçamentos. Os totais são sempre
// recalculados aqui; valores enviados pelo cliente são ignorados.
type SaveQuote struct {
	repo   domain.Repository
	audit  *audit.Dispatcher
	kmRate float64
}

func NewSaveQuote(
	repo domain.Repository,
	audit *audit.Dispatcher,
	kmRate float64,
) *SaveQuote {
	return &SaveQuote{
		repo:   repo,
		audit:  audit,
		kmRate: kmRate,
	}
}

// Calculate monta o orçamento sem gravar.
func (uc *SaveQuote) Calculate(ctx context.Context, in QuoteInput) (*models.Quote, error) {
	return uc.build(ctx, in)
}

func (uc *SaveQuote) Create(ctx context.Context, in QuoteInput) (*models.Quote, error) {
	q, err := uc.build(ctx, in)
	if err != nil {
		return nil, err
	}
	q.Status = string(domain.InitialStatus())

	if err := uc.repo.CreateQuote(ctx, q); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   userPtr(in.UserID),
		Action:   "quote_created",
		Entity:   "quote",
		EntityID: &q.ID,
		Metadata: map[string]any{"valor_total": q.ValorTotal},
	})

	return q, nil
}

func (uc *SaveQuote) Update(ctx context.Context, id uint, in QuoteInput) (*models.Quote, error) {
	q, err := uc.build(ctx, in)
	if err != nil {
		return nil, err
	}

	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		current, err := tx.GetQuoteForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := domain.CanEdit(domain.Status(current.Status)); err != nil {
			return err
		}

		q.ID = current.ID
		q.Status = current.Status
		q.CreatedAt = current.CreatedAt
		return tx.ReplaceQuote(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   userPtr(in.UserID),
		Action:   "quote_updated",
		Entity:   "quote",
		EntityID: &q.ID,
		Metadata: map[string]any{"valor_total": q.ValorTotal},
	})

	return q, nil
}

// ======================================================
// BUILD
// ======================================================

func (uc *SaveQuote) build(ctx context.Context, in QuoteInput) (*models.Quote, error) {

	// --------------------------------------------------
	// Cascata cliente → empreendimento → equipamento
	// --------------------------------------------------
	if _, err := uc.repo.GetClient(ctx, in.ClientID); err != nil {
		return nil, err
	}

	site, err := uc.repo.GetSite(ctx, in.BusinessSiteID)
	if err != nil {
		return nil, err
	}
	if site.ClientID != in.ClientID {
		return nil, httperr.ErrBusiness("site_client_mismatch")
	}

	if in.EquipmentID != nil {
		eq, err := uc.repo.GetEquipment(ctx, *in.EquipmentID)
		if err != nil {
			return nil, err
		}
		if eq.BusinessSiteID != site.ID {
			return nil, httperr.ErrBusiness("equipment_site_mismatch")
		}
	}

	// --------------------------------------------------
	// Itens
	// --------------------------------------------------
	if len(in.Items) == 0 {
		return nil, httperr.ErrBusiness("missing_items")
	}

	ids := make([]uint, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := uc.repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.QuoteItem, 0, len(in.Items))
	for _, it := range in.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, httperr.ErrBusiness("product_not_found")
		}

		desc := strings.TrimSpace(it.Descricao)
		if desc == "" {
			desc = p.Descricao
		}

		// sem preço informado, orça pelo custo cadastrado
		price := p.PrecoCusto
		if it.PrecoUnitario != nil {
			price = *it.PrecoUnitario
		}

		items = append(items, models.QuoteItem{
			ProductID:     p.ID,
			Descricao:     desc,
			Quantidade:    it.Quantidade,
			PrecoUnitario: price,
		})
	}

	// --------------------------------------------------
	// Totais
	// --------------------------------------------------
	totals, err := domain.ComputeTotals(domain.Lines(items), site.DistanciaKm, uc.kmRate)
	if err != nil {
		return nil, err
	}

	q := &models.Quote{
		ClientID:       in.ClientID,
		BusinessSiteID: site.ID,
		EquipmentID:    in.EquipmentID,
		Descricao:      strings.TrimSpace(in.Descricao),
		DataVencimento: in.DataVencimento,
		Items:          items,
	}
	domain.ApplyTotals(q, totals)

	return q, nil
}

func userPtr(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
