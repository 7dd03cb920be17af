package repository

import (
	"context"

	"github.com/lshigami/Materia/internal/model"
	"gorm.io/gorm"
)

type FollowRepository interface {
	Create(ctx context.Context, userID, authorID uint) error
	// Delete reports whether a follow row was removed.
	Delete(ctx context.Context, userID, authorID uint) (bool, error)
	Exists(ctx context.Context, userID, authorID uint) (bool, error)
	// AuthorIDsAmong returns the subset of authorIDs that userID follows.
	AuthorIDsAmong(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error)
	// ListAuthors pages through the users followed by userID, ordered by id.
	ListAuthors(ctx context.Context, userID uint, page Page) ([]model.User, int64, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, userID, authorID uint) error {
	return r.db.WithContext(ctx).Create(&model.Follow{UserID: userID, AuthorID: authorID}).Error
}

func (r *followRepository) Delete(ctx context.Context, userID, authorID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&model.Follow{})
	return res.RowsAffected > 0, res.Error
}

func (r *followRepository) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	return exists(r.db.WithContext(ctx).Model(&model.Follow{}).Where("user_id = ? AND author_id = ?", userID, authorID))
}

func (r *followRepository) AuthorIDsAmong(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error) {
	found := make(map[uint]bool, len(authorIDs))
	if len(authorIDs) == 0 {
		return found, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		found[id] = true
	}
	return found, nil
}

func (r *followRepository) ListAuthors(ctx context.Context, userID uint, page Page) ([]model.User, int64, error) {
	followed := func() *gorm.DB {
		return r.db.Model(&model.Follow{}).Select("author_id").Where("user_id = ?", userID)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id IN (?)", followed()).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var authors []model.User
	err := r.db.WithContext(ctx).
		Where("id IN (?)", followed()).
		Order("id ASC").
		Offset(page.Offset()).Limit(page.Limit()).
		Find(&authors).Error
	return authors, total, err
}
