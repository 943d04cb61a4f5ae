package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mandacaru/erp-api/internal/domain/inventory"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/models"
)

// stockStore é embutido pelos repositórios que mexem em saldo de produto.
type stockStore struct {
	db *gorm.DB
}

var _ inventory.Store = stockStore{}

func (s stockStore) LockProducts(
	ctx context.Context,
	ids []uint,
) (map[uint]*models.Product, error) {

	if len(ids) == 0 {
		return map[uint]*models.Product{}, nil
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&products).Error; err != nil {
		return nil, err
	}

	out := make(map[uint]*models.Product, len(products))
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (s stockStore) SaveProduct(ctx context.Context, p *models.Product) error {
	return s.db.WithContext(ctx).
		Model(p).
		Select("estoque_atual", "estoque_reservado").
		Updates(p).Error
}

func (s stockStore) CreateMovement(ctx context.Context, m *models.StockMovement) error {
	return s.db.WithContext(ctx).Create(m).Error
}

// ===============================
// Inventory repository
// ===============================

type InventoryGormRepository struct {
	stockStore
}

var _ inventory.Repository = (*InventoryGormRepository)(nil)

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{stockStore{db: db}}
}

func (r *InventoryGormRepository) Transaction(
	ctx context.Context,
	fn func(tx inventory.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewInventoryGormRepository(tx))
	})
}

// notFound traduz ErrRecordNotFound no código de negócio do recurso.
func notFound(err error, code string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrBusiness(code)
	}
	return err
}
