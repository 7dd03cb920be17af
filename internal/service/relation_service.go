package service

import (
	"context"
	"fmt"

	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/auth"
	"github.com/lshigami/Materia/internal/model"
	"github.com/lshigami/Materia/internal/repository"
)

// MaterialAnnotations holds the viewer-relative flags of a batch of materials.
type MaterialAnnotations struct {
	Favorited map[uint]bool
	InCart    map[uint]bool
}

// RelationService derives viewer-relative predicates and author listings.
// Anonymous viewers get false for every predicate without touching storage.
type RelationService interface {
	IsFavorited(ctx context.Context, viewer *auth.Viewer, materialID uint) (bool, error)
	IsInShoppingCart(ctx context.Context, viewer *auth.Viewer, materialID uint) (bool, error)
	IsSubscribed(ctx context.Context, viewer *auth.Viewer, authorID uint) (bool, error)
	AnnotateMaterials(ctx context.Context, viewer *auth.Viewer, materialIDs []uint) (MaterialAnnotations, error)
	SubscribedAuthors(ctx context.Context, viewer *auth.Viewer, authorIDs []uint) (map[uint]bool, error)
	// MaterialsOf lists an author's materials newest first; a nil limit
	// returns all of them and a negative one is rejected.
	MaterialsOf(ctx context.Context, authorID uint, limit *int) ([]model.Material, error)
	SubscriptionsOf(ctx context.Context, userID uint, page repository.Page) ([]model.User, int64, error)
	MaterialsCount(ctx context.Context, authorIDs []uint) (map[uint]int64, error)
}

type relationService struct {
	materialRepo repository.MaterialRepository
	favoriteRepo repository.FavoriteRepository
	cartRepo     repository.ShoppingListRepository
	followRepo   repository.FollowRepository
}

func NewRelationService(
	materialRepo repository.MaterialRepository,
	favoriteRepo repository.FavoriteRepository,
	cartRepo repository.ShoppingListRepository,
	followRepo repository.FollowRepository,
) RelationService {
	return &relationService{
		materialRepo: materialRepo,
		favoriteRepo: favoriteRepo,
		cartRepo:     cartRepo,
		followRepo:   followRepo,
	}
}

func (s *relationService) IsFavorited(ctx context.Context, viewer *auth.Viewer, materialID uint) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	return s.favoriteRepo.Exists(ctx, viewer.ID, materialID)
}

func (s *relationService) IsInShoppingCart(ctx context.Context, viewer *auth.Viewer, materialID uint) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	return s.cartRepo.Exists(ctx, viewer.ID, materialID)
}

func (s *relationService) IsSubscribed(ctx context.Context, viewer *auth.Viewer, authorID uint) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	return s.followRepo.Exists(ctx, viewer.ID, authorID)
}

func (s *relationService) AnnotateMaterials(ctx context.Context, viewer *auth.Viewer, materialIDs []uint) (MaterialAnnotations, error) {
	out := MaterialAnnotations{Favorited: map[uint]bool{}, InCart: map[uint]bool{}}
	if viewer == nil || len(materialIDs) == 0 {
		return out, nil
	}
	var err error
	if out.Favorited, err = s.favoriteRepo.MaterialIDsAmong(ctx, viewer.ID, materialIDs); err != nil {
		return out, fmt.Errorf("load favorites: %w", err)
	}
	if out.InCart, err = s.cartRepo.MaterialIDsAmong(ctx, viewer.ID, materialIDs); err != nil {
		return out, fmt.Errorf("load shopping cart: %w", err)
	}
	return out, nil
}

func (s *relationService) SubscribedAuthors(ctx context.Context, viewer *auth.Viewer, authorIDs []uint) (map[uint]bool, error) {
	if viewer == nil || len(authorIDs) == 0 {
		return map[uint]bool{}, nil
	}
	return s.followRepo.AuthorIDsAmong(ctx, viewer.ID, authorIDs)
}

func (s *relationService) MaterialsOf(ctx context.Context, authorID uint, limit *int) ([]model.Material, error) {
	n := -1
	if limit != nil {
		if *limit < 0 {
			return nil, apperr.Validation("materials_limit", "must be a non-negative integer")
		}
		n = *limit
	}
	return s.materialRepo.ListByAuthor(ctx, authorID, n)
}

func (s *relationService) SubscriptionsOf(ctx context.Context, userID uint, page repository.Page) ([]model.User, int64, error) {
	return s.followRepo.ListAuthors(ctx, userID, page)
}

func (s *relationService) MaterialsCount(ctx context.Context, authorIDs []uint) (map[uint]int64, error) {
	return s.materialRepo.CountByAuthors(ctx, authorIDs)
}
