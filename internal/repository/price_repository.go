package repository

import (
	"context"

	"github.com/lshigami/Materia/internal/model"
	"gorm.io/gorm"
)

type PriceRepository interface {
	Create(ctx context.Context, price *model.Price) error
	FindByIDs(ctx context.Context, ids []uint) ([]model.Price, error)
	FindAll(ctx context.Context) ([]model.Price, error)
	Delete(ctx context.Context, id uint) error
}

type priceRepository struct {
	db *gorm.DB
}

func NewPriceRepository(db *gorm.DB) PriceRepository {
	return &priceRepository{db: db}
}

func (r *priceRepository) Create(ctx context.Context, price *model.Price) error {
	return r.db.WithContext(ctx).Create(price).Error
}

func (r *priceRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Price, error) {
	var prices []model.Price
	if len(ids) == 0 {
		return prices, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&prices).Error
	return prices, err
}

func (r *priceRepository) FindAll(ctx context.Context) ([]model.Price, error) {
	var prices []model.Price
	err := r.db.WithContext(ctx).Order("amount ASC, id ASC").Find(&prices).Error
	return prices, err
}

func (r *priceRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM material_prices WHERE price_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Price{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
