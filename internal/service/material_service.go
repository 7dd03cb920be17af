package service

import (
	"context"
	"fmt"

	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/auth"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/model"
	"github.com/lshigami/Materia/internal/repository"
	"github.com/rs/zerolog/log"
)

type MaterialService interface {
	Create(ctx context.Context, viewer *auth.Viewer, req dto.CreateMaterialRequest) (*dto.MaterialView, error)
	Get(ctx context.Context, viewer *auth.Viewer, id uint) (*dto.MaterialView, error)
	List(ctx context.Context, viewer *auth.Viewer, filter repository.MaterialFilter, page repository.Page) ([]dto.MaterialView, int64, error)
	Update(ctx context.Context, viewer *auth.Viewer, id uint, req dto.UpdateMaterialRequest) (*dto.MaterialView, error)
	Delete(ctx context.Context, viewer *auth.Viewer, id uint) error

	Favorite(ctx context.Context, viewer *auth.Viewer, id uint) (*dto.MaterialSummary, error)
	Unfavorite(ctx context.Context, viewer *auth.Viewer, id uint) error
	AddToCart(ctx context.Context, viewer *auth.Viewer, id uint) (*dto.MaterialSummary, error)
	RemoveFromCart(ctx context.Context, viewer *auth.Viewer, id uint) error
	Cart(ctx context.Context, viewer *auth.Viewer) ([]dto.MaterialSummary, error)
}

type materialService struct {
	materialRepo repository.MaterialRepository
	tagRepo      repository.TagRepository
	priceRepo    repository.PriceRepository
	favoriteRepo repository.FavoriteRepository
	cartRepo     repository.ShoppingListRepository
	relations    RelationService
}

func NewMaterialService(
	materialRepo repository.MaterialRepository,
	tagRepo repository.TagRepository,
	priceRepo repository.PriceRepository,
	favoriteRepo repository.FavoriteRepository,
	cartRepo repository.ShoppingListRepository,
	relations RelationService,
) MaterialService {
	return &materialService{
		materialRepo: materialRepo,
		tagRepo:      tagRepo,
		priceRepo:    priceRepo,
		favoriteRepo: favoriteRepo,
		cartRepo:     cartRepo,
		relations:    relations,
	}
}

// CanModifyMaterial grants writes to the author and to admins.
func CanModifyMaterial(viewer *auth.Viewer, material *model.Material) error {
	if err := requireViewer(viewer); err != nil {
		return err
	}
	if viewer.IsAdmin || viewer.ID == material.AuthorID {
		return nil
	}
	return apperr.Forbidden("only the author or an admin can change this material")
}

func (s *materialService) Create(ctx context.Context, viewer *auth.Viewer, req dto.CreateMaterialRequest) (*dto.MaterialView, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	tags, err := s.resolveTags(ctx, req.Tags)
	if err != nil {
		return nil, err
	}
	prices, err := s.resolvePrices(ctx, req.Prices)
	if err != nil {
		return nil, err
	}

	material := model.Material{
		Title:       req.Title,
		Description: req.Description,
		AuthorID:    viewer.ID,
		Preview:     req.Preview,
		File:        req.File,
		Tags:        tags,
		Prices:      prices,
	}
	if err := s.materialRepo.Create(ctx, &material); err != nil {
		log.Error().Err(err).Uint("authorID", viewer.ID).Msg("Create: failed to insert material")
		return nil, fmt.Errorf("create material: %w", err)
	}
	log.Info().Uint("materialID", material.ID).Uint("authorID", viewer.ID).Msg("material created")
	return s.Get(ctx, viewer, material.ID)
}

func (s *materialService) Get(ctx context.Context, viewer *auth.Viewer, id uint) (*dto.MaterialView, error) {
	material, err := s.materialRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "material", id)
	}
	views, err := s.views(ctx, viewer, []model.Material{*material})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *materialService) List(ctx context.Context, viewer *auth.Viewer, filter repository.MaterialFilter, page repository.Page) ([]dto.MaterialView, int64, error) {
	filter.ViewerID = viewer.IDPtr()
	materials, total, err := s.materialRepo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list materials: %w", err)
	}
	views, err := s.views(ctx, viewer, materials)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// views annotates materials with one query per flag.
func (s *materialService) views(ctx context.Context, viewer *auth.Viewer, materials []model.Material) ([]dto.MaterialView, error) {
	materialIDs := make([]uint, 0, len(materials))
	authorIDs := make([]uint, 0, len(materials))
	for _, m := range materials {
		materialIDs = append(materialIDs, m.ID)
		authorIDs = append(authorIDs, m.AuthorID)
	}
	annotations, err := s.relations.AnnotateMaterials(ctx, viewer, materialIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.relations.SubscribedAuthors(ctx, viewer, uniqueIDs(authorIDs))
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	views := make([]dto.MaterialView, 0, len(materials))
	for i := range materials {
		m := &materials[i]
		views = append(views, dto.NewMaterialView(m, dto.MaterialFlags{
			IsFavorited:      annotations.Favorited[m.ID],
			IsInShoppingCart: annotations.InCart[m.ID],
			AuthorSubscribed: subscribed[m.AuthorID],
		}))
	}
	return views, nil
}

func (s *materialService) Update(ctx context.Context, viewer *auth.Viewer, id uint, req dto.UpdateMaterialRequest) (*dto.MaterialView, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	material, err := s.materialRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "material", id)
	}
	if err := CanModifyMaterial(viewer, material); err != nil {
		log.Warn().Uint("materialID", id).Uint("viewerID", viewer.ID).Msg("Update: forbidden")
		return nil, err
	}

	changes := repository.MaterialChanges{Fields: map[string]any{}}
	if req.Title != nil {
		changes.Fields["title"] = *req.Title
	}
	if req.Description != nil {
		changes.Fields["description"] = *req.Description
	}
	if req.Preview != nil {
		changes.Fields["preview"] = *req.Preview
	}
	if req.File != nil {
		changes.Fields["file"] = *req.File
	}
	if req.Tags != nil {
		tags, err := s.resolveTags(ctx, *req.Tags)
		if err != nil {
			return nil, err
		}
		changes.Tags = &tags
	}
	if req.Prices != nil {
		prices, err := s.resolvePrices(ctx, *req.Prices)
		if err != nil {
			return nil, err
		}
		changes.Prices = &prices
	}

	if err := s.materialRepo.Update(ctx, id, changes); err != nil {
		return nil, apperr.NotFoundOr(err, "material", id)
	}
	log.Info().Uint("materialID", id).Uint("viewerID", viewer.ID).Msg("material updated")
	return s.Get(ctx, viewer, id)
}

func (s *materialService) Delete(ctx context.Context, viewer *auth.Viewer, id uint) error {
	if err := requireViewer(viewer); err != nil {
		return err
	}
	material, err := s.materialRepo.FindByID(ctx, id)
	if err != nil {
		return apperr.NotFoundOr(err, "material", id)
	}
	if err := CanModifyMaterial(viewer, material); err != nil {
		log.Warn().Uint("materialID", id).Uint("viewerID", viewer.ID).Msg("Delete: forbidden")
		return err
	}
	if err := s.materialRepo.Delete(ctx, id); err != nil {
		return apperr.NotFoundOr(err, "material", id)
	}
	log.Info().Uint("materialID", id).Uint("viewerID", viewer.ID).Msg("material deleted")
	return nil
}

func (s *materialService) Favorite(ctx context.Context, viewer *auth.Viewer, id uint) (*dto.MaterialSummary, error) {
	return s.addRelation(ctx, viewer, id, s.favoriteRepo, apperr.AlreadyFavorited)
}

func (s *materialService) Unfavorite(ctx context.Context, viewer *auth.Viewer, id uint) error {
	return s.removeRelation(ctx, viewer, id, s.favoriteRepo)
}

func (s *materialService) AddToCart(ctx context.Context, viewer *auth.Viewer, id uint) (*dto.MaterialSummary, error) {
	return s.addRelation(ctx, viewer, id, s.cartRepo, apperr.AlreadyInShoppingCart)
}

func (s *materialService) RemoveFromCart(ctx context.Context, viewer *auth.Viewer, id uint) error {
	return s.removeRelation(ctx, viewer, id, s.cartRepo)
}

func (s *materialService) Cart(ctx context.Context, viewer *auth.Viewer) ([]dto.MaterialSummary, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	materials, err := s.cartRepo.ListMaterials(ctx, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("list shopping cart: %w", err)
	}
	return dto.NewMaterialSummaries(materials), nil
}

func (s *materialService) addRelation(
	ctx context.Context,
	viewer *auth.Viewer,
	id uint,
	repo repository.MaterialRelationRepository,
	already func(uint) *apperr.Error,
) (*dto.MaterialSummary, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	material, err := s.materialRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "material", id)
	}
	exists, err := repo.Exists(ctx, viewer.ID, id)
	if err != nil {
		return nil, fmt.Errorf("check relation: %w", err)
	}
	if exists {
		return nil, already(id)
	}
	if err := repo.Add(ctx, viewer.ID, id); err != nil {
		if apperr.IsDuplicate(err) {
			return nil, already(id)
		}
		return nil, fmt.Errorf("add relation: %w", err)
	}
	summary := dto.NewMaterialSummary(material)
	return &summary, nil
}

func (s *materialService) removeRelation(ctx context.Context, viewer *auth.Viewer, id uint, repo repository.MaterialRelationRepository) error {
	if err := requireViewer(viewer); err != nil {
		return err
	}
	exists, err := s.materialRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check material: %w", err)
	}
	if !exists {
		return apperr.NotFound("material", id)
	}
	if _, err := repo.Remove(ctx, viewer.ID, id); err != nil {
		return fmt.Errorf("remove relation: %w", err)
	}
	return nil
}

func (s *materialService) resolveTags(ctx context.Context, ids []uint) ([]model.Tag, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []model.Tag{}, nil
	}
	tags, err := s.tagRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	if missing := firstMissing(ids, tags, func(t model.Tag) uint { return t.ID }); missing != 0 {
		return nil, apperr.Validation("tags", "tag %d does not exist", missing)
	}
	return tags, nil
}

func (s *materialService) resolvePrices(ctx context.Context, ids []uint) ([]model.Price, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []model.Price{}, nil
	}
	prices, err := s.priceRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}
	if missing := firstMissing(ids, prices, func(p model.Price) uint { return p.ID }); missing != 0 {
		return nil, apperr.Validation("prices", "price %d does not exist", missing)
	}
	return prices, nil
}

func firstMissing[T any](want []uint, got []T, id func(T) uint) uint {
	found := make(map[uint]bool, len(got))
	for _, item := range got {
		found[id(item)] = true
	}
	for _, w := range want {
		if !found[w] {
			return w
		}
	}
	return 0
}
