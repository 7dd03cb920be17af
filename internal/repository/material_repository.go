package repository

import (
	"context"

	"github.com/lshigami/Materia/internal/model"
	"gorm.io/gorm"
)

// MaterialFilter narrows a material listing. Nil fields are not applied and
// the applied ones compose with AND. The favorite and shopping cart flags are
// evaluated against ViewerID; with no viewer, true matches nothing and false
// matches everything.
type MaterialFilter struct {
	TagSlugs         []string
	AuthorID         *uint
	IsFavorited      *bool
	IsInShoppingCart *bool
	ViewerID         *uint
}

// MaterialChanges carries a partial update. Tags and Prices replace the
// current links when non-nil.
type MaterialChanges struct {
	Fields map[string]any
	Tags   *[]model.Tag
	Prices *[]model.Price
}

type MaterialRepository interface {
	Create(ctx context.Context, material *model.Material) error
	FindByID(ctx context.Context, id uint) (*model.Material, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, filter MaterialFilter, page Page) ([]model.Material, int64, error)
	// ListByAuthor returns the author's materials newest first; limit < 0
	// means no limit.
	ListByAuthor(ctx context.Context, authorID uint, limit int) ([]model.Material, error)
	CountByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error)
	Update(ctx context.Context, id uint, changes MaterialChanges) error
	// Delete removes the material with its favorites, shopping list entries
	// and tag/price links. Tag and Price rows are kept.
	Delete(ctx context.Context, id uint) error
}

type materialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &materialRepository{db: db}
}

const materialOrder = "materials.pub_date DESC, materials.id DESC"

func withMaterialDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id ASC") }).
		Preload("Prices", func(db *gorm.DB) *gorm.DB { return db.Order("prices.id ASC") })
}

func (r *materialRepository) Create(ctx context.Context, material *model.Material) error {
	// Tags and prices already exist; only the link rows are written.
	return r.db.WithContext(ctx).Omit("Author", "Tags.*", "Prices.*").Create(material).Error
}

func (r *materialRepository) FindByID(ctx context.Context, id uint) (*model.Material, error) {
	var material model.Material
	if err := withMaterialDetails(r.db.WithContext(ctx)).First(&material, id).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *materialRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return exists(r.db.WithContext(ctx).Model(&model.Material{}).Where("id = ?", id))
}

func (r *materialRepository) List(ctx context.Context, filter MaterialFilter, page Page) ([]model.Material, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&model.Material{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var materials []model.Material
	err := withMaterialDetails(r.applyFilter(r.db.WithContext(ctx), filter)).
		Order(materialOrder).
		Offset(page.Offset()).Limit(page.Limit()).
		Find(&materials).Error
	return materials, total, err
}

func (r *materialRepository) applyFilter(query *gorm.DB, filter MaterialFilter) *gorm.DB {
	if len(filter.TagSlugs) > 0 {
		tagged := r.db.Table("material_tags").
			Select("material_tags.material_id").
			Joins("JOIN tags ON tags.id = material_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("materials.id IN (?)", tagged)
	}
	if filter.AuthorID != nil {
		query = query.Where("materials.author_id = ?", *filter.AuthorID)
	}
	query = r.applyRelationFlag(query, "favorites", filter.IsFavorited, filter.ViewerID)
	query = r.applyRelationFlag(query, "shopping_list_entries", filter.IsInShoppingCart, filter.ViewerID)
	return query
}

func (r *materialRepository) applyRelationFlag(query *gorm.DB, table string, flag *bool, viewerID *uint) *gorm.DB {
	if flag == nil {
		return query
	}
	if viewerID == nil {
		if *flag {
			return query.Where("1 = 0")
		}
		return query
	}
	related := r.db.Table(table).Select("material_id").Where("user_id = ?", *viewerID)
	if *flag {
		return query.Where("materials.id IN (?)", related)
	}
	return query.Where("materials.id NOT IN (?)", related)
}

func (r *materialRepository) ListByAuthor(ctx context.Context, authorID uint, limit int) ([]model.Material, error) {
	var materials []model.Material
	query := r.db.WithContext(ctx).
		Preload("Prices", func(db *gorm.DB) *gorm.DB { return db.Order("prices.id ASC") }).
		Where("author_id = ?", authorID).
		Order(materialOrder)
	if limit >= 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&materials).Error
	return materials, err
}

func (r *materialRepository) CountByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		AuthorID uint
		Total    int64
	}
	err := r.db.WithContext(ctx).Model(&model.Material{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}

func (r *materialRepository) Update(ctx context.Context, id uint, changes MaterialChanges) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		material := model.Material{ID: id}
		if len(changes.Fields) > 0 {
			res := tx.Model(&material).Updates(changes.Fields)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		if changes.Tags != nil {
			if err := tx.Model(&material).Association("Tags").Replace(*changes.Tags); err != nil {
				return err
			}
		}
		if changes.Prices != nil {
			if err := tx.Model(&material).Association("Prices").Replace(*changes.Prices); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *materialRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteMaterialDependents(tx, []uint{id}); err != nil {
			return err
		}
		res := tx.Delete(&model.Material{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// deleteMaterialDependents removes every row that points at the given materials.
func deleteMaterialDependents(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("material_id IN (?)", ids).Delete(&model.Favorite{}).Error; err != nil {
		return err
	}
	if err := tx.Where("material_id IN (?)", ids).Delete(&model.ShoppingListEntry{}).Error; err != nil {
		return err
	}
	if err := tx.Exec("DELETE FROM material_tags WHERE material_id IN (?)", ids).Error; err != nil {
		return err
	}
	return tx.Exec("DELETE FROM material_prices WHERE material_id IN (?)", ids).Error
}
