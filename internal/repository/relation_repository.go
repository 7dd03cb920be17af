package repository

import (
	"context"

	"github.com/lshigami/Materia/internal/model"
	"gorm.io/gorm"
)

// MaterialRelationRepository stores a (user, material) membership with a
// unique index on the pair.
type MaterialRelationRepository interface {
	Add(ctx context.Context, userID, materialID uint) error
	// Remove reports whether a row was deleted.
	Remove(ctx context.Context, userID, materialID uint) (bool, error)
	Exists(ctx context.Context, userID, materialID uint) (bool, error)
	// MaterialIDsAmong returns the subset of materialIDs related to userID.
	MaterialIDsAmong(ctx context.Context, userID uint, materialIDs []uint) (map[uint]bool, error)
	ListMaterials(ctx context.Context, userID uint) ([]model.Material, error)
}

type FavoriteRepository interface {
	MaterialRelationRepository
}

type ShoppingListRepository interface {
	MaterialRelationRepository
}

type materialRelationRepository struct {
	db     *gorm.DB
	table  string
	newRow func(userID, materialID uint) any
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &materialRelationRepository{
		db:    db,
		table: "favorites",
		newRow: func(userID, materialID uint) any {
			return &model.Favorite{UserID: userID, MaterialID: materialID}
		},
	}
}

func NewShoppingListRepository(db *gorm.DB) ShoppingListRepository {
	return &materialRelationRepository{
		db:    db,
		table: "shopping_list_entries",
		newRow: func(userID, materialID uint) any {
			return &model.ShoppingListEntry{UserID: userID, MaterialID: materialID}
		},
	}
}

func (r *materialRelationRepository) Add(ctx context.Context, userID, materialID uint) error {
	return r.db.WithContext(ctx).Create(r.newRow(userID, materialID)).Error
}

func (r *materialRelationRepository) Remove(ctx context.Context, userID, materialID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND material_id = ?", userID, materialID).
		Delete(r.newRow(0, 0))
	return res.RowsAffected > 0, res.Error
}

func (r *materialRelationRepository) Exists(ctx context.Context, userID, materialID uint) (bool, error) {
	return exists(r.db.WithContext(ctx).Table(r.table).Where("user_id = ? AND material_id = ?", userID, materialID))
}

func (r *materialRelationRepository) MaterialIDsAmong(ctx context.Context, userID uint, materialIDs []uint) (map[uint]bool, error) {
	found := make(map[uint]bool, len(materialIDs))
	if len(materialIDs) == 0 {
		return found, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Table(r.table).
		Where("user_id = ? AND material_id IN ?", userID, materialIDs).
		Pluck("material_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		found[id] = true
	}
	return found, nil
}

func (r *materialRelationRepository) ListMaterials(ctx context.Context, userID uint) ([]model.Material, error) {
	related := r.db.Table(r.table).Select("material_id").Where("user_id = ?", userID)
	var materials []model.Material
	err := r.db.WithContext(ctx).
		Preload("Prices", func(db *gorm.DB) *gorm.DB { return db.Order("prices.id ASC") }).
		Where("materials.id IN (?)", related).
		Order(materialOrder).
		Find(&materials).Error
	return materials, err
}
