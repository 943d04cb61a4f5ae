package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/mandacaru/erp-api/internal/domain/serviceorder"
	"github.com/mandacaru/erp-api/internal/models"
)

type ServiceOrderGormRepository struct {
	stockStore
}

var _ domain.Repository = (*ServiceOrderGormRepository)(nil)

func NewServiceOrderGormRepository(db *gorm.DB) *ServiceOrderGormRepository {
	return &ServiceOrderGormRepository{stockStore{db: db}}
}

func (r *ServiceOrderGormRepository) Transaction(
	ctx context.Context,
	fn func(tx domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewServiceOrderGormRepository(tx))
	})
}

func (r *ServiceOrderGormRepository) GetOrderForUpdate(
	ctx context.Context,
	id uint,
) (*models.ServiceOrder, error) {

	var o models.ServiceOrder
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, id).Error; err != nil {
		return nil, notFound(err, "service_order_not_found")
	}

	var w models.StockWithdrawal
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("service_order_id = ?", o.ID).
		First(&w).Error
	switch {
	case err == nil:
		o.Withdrawal = &w
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	return &o, nil
}

func (r *ServiceOrderGormRepository) SaveOrder(ctx context.Context, o *models.ServiceOrder) error {
	return r.db.WithContext(ctx).
		Model(o).
		Select("status", "data_finalizacao").
		Updates(o).Error
}

func (r *ServiceOrderGormRepository) SaveWithdrawal(ctx context.Context, w *models.StockWithdrawal) error {
	return r.db.WithContext(ctx).
		Model(w).
		Select("status").
		Updates(w).Error
}

func (r *ServiceOrderGormRepository) SetQuoteStatus(ctx context.Context, quoteID uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("id = ?", quoteID).
		Update("status", status).Error
}

func (r *ServiceOrderGormRepository) HasReceivableForOrder(ctx context.Context, orderID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FinancialAccount{}).
		Where("service_order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ServiceOrderGormRepository) CreateAccount(ctx context.Context, a *models.FinancialAccount) error {
	return r.db.WithContext(ctx).Create(a).Error
}
