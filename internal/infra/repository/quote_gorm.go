package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/mandacaru/erp-api/internal/domain/quote"
	"github.com/mandacaru/erp-api/internal/models"
)

type QuoteGormRepository struct {
	stockStore
}

var _ domain.Repository = (*QuoteGormRepository)(nil)

func NewQuoteGormRepository(db *gorm.DB) *QuoteGormRepository {
	return &QuoteGormRepository{stockStore{db: db}}
}

func (r *QuoteGormRepository) Transaction(
	ctx context.Context,
	fn func(tx domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewQuoteGormRepository(tx))
	})
}

// --------------------------------------------------
// Cascade
// --------------------------------------------------

func (r *QuoteGormRepository) GetClient(ctx context.Context, id uint) (*models.Client, error) {
	var c models.Client
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "client_not_found")
	}
	return &c, nil
}

func (r *QuoteGormRepository) GetSite(ctx context.Context, id uint) (*models.BusinessSite, error) {
	var s models.BusinessSite
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, notFound(err, "site_not_found")
	}
	return &s, nil
}

func (r *QuoteGormRepository) GetEquipment(ctx context.Context, id uint) (*models.Equipment, error) {
	var e models.Equipment
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, notFound(err, "equipment_not_found")
	}
	return &e, nil
}

func (r *QuoteGormRepository) GetProducts(
	ctx context.Context,
	ids []uint,
) (map[uint]models.Product, error) {

	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// --------------------------------------------------
// Quote
// --------------------------------------------------

func (r *QuoteGormRepository) GetQuote(ctx context.Context, id uint) (*models.Quote, error) {
	var q models.Quote
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&q, id).Error; err != nil {
		return nil, notFound(err, "quote_not_found")
	}
	return &q, nil
}

func (r *QuoteGormRepository) GetQuoteForUpdate(ctx context.Context, id uint) (*models.Quote, error) {
	var q models.Quote
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&q, id).Error; err != nil {
		return nil, notFound(err, "quote_not_found")
	}

	if err := r.db.WithContext(ctx).
		Where("quote_id = ?", q.ID).
		Order("id").
		Find(&q.Items).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuoteGormRepository) CreateQuote(ctx context.Context, q *models.Quote) error {
	return r.db.WithContext(ctx).Create(q).Error
}

// ReplaceQuote regrava cabeçalho e itens do orçamento.
func (r *QuoteGormRepository) ReplaceQuote(ctx context.Context, q *models.Quote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", q.ID).Delete(&models.QuoteItem{}).Error; err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Save(q).Error; err != nil {
			return err
		}

		for i := range q.Items {
			q.Items[i].ID = 0
			q.Items[i].QuoteID = q.ID
		}
		if len(q.Items) == 0 {
			return nil
		}
		return tx.Create(&q.Items).Error
	})
}

func (r *QuoteGormRepository) UpdateQuoteStatus(ctx context.Context, q *models.Quote) error {
	return r.db.WithContext(ctx).
		Model(q).
		Select("status", "approved_at", "approved_by").
		Updates(q).Error
}

// --------------------------------------------------
// Approval
// --------------------------------------------------

func (r *QuoteGormRepository) CreateServiceOrder(ctx context.Context, o *models.ServiceOrder) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *QuoteGormRepository) CreateWithdrawal(ctx context.Context, w *models.StockWithdrawal) error {
	return r.db.WithContext(ctx).Create(w).Error
}
