package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/cache"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/model"
	"github.com/lshigami/Materia/internal/repository"
	"github.com/rs/zerolog/log"
)

type TagService interface {
	List(ctx context.Context) ([]dto.TagView, error)
	Get(ctx context.Context, id uint) (*dto.TagView, error)
	Create(ctx context.Context, req dto.CreateTagRequest) (*dto.TagView, error)
	Delete(ctx context.Context, id uint) error
}

type tagService struct {
	tagRepo repository.TagRepository
	cache   cache.TagCache
	// generation counts invalidations; a List that overlapped one must not
	// repopulate the cache with what it read.
	generation atomic.Uint64
}

func NewTagService(tagRepo repository.TagRepository, tagCache cache.TagCache) TagService {
	return &tagService{tagRepo: tagRepo, cache: tagCache}
}

// List serves from the cache when possible; cache failures fall through to
// the database.
func (s *tagService) List(ctx context.Context) ([]dto.TagView, error) {
	tags, ok, err := s.cache.Get(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("tag cache read failed")
	}
	if !ok {
		gen := s.generation.Load()
		tags, err = s.tagRepo.FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		if s.generation.Load() == gen {
			if err := s.cache.Set(ctx, tags); err != nil {
				log.Warn().Err(err).Msg("tag cache write failed")
			}
			if s.generation.Load() != gen {
				s.dropCache(ctx)
			}
		}
	}
	return dto.NewTagViews(tags), nil
}

func (s *tagService) Get(ctx context.Context, id uint) (*dto.TagView, error) {
	tag, err := s.tagRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "tag", id)
	}
	view := dto.NewTagView(tag)
	return &view, nil
}

func (s *tagService) Create(ctx context.Context, req dto.CreateTagRequest) (*dto.TagView, error) {
	tag := model.Tag{Title: strings.TrimSpace(req.Title), Slug: strings.TrimSpace(req.Slug)}
	if err := s.checkUnique(ctx, tag); err != nil {
		return nil, err
	}
	if err := s.tagRepo.Create(ctx, &tag); err != nil {
		if apperr.IsDuplicate(err) {
			if uniqErr := s.checkUnique(ctx, tag); uniqErr != nil {
				return nil, uniqErr
			}
			return nil, apperr.Validation("title", "tag already exists")
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}
	s.invalidate(ctx)
	log.Info().Uint("tagID", tag.ID).Str("slug", tag.Slug).Msg("tag created")
	view := dto.NewTagView(&tag)
	return &view, nil
}

func (s *tagService) checkUnique(ctx context.Context, tag model.Tag) error {
	taken, err := s.tagRepo.TitleExists(ctx, tag.Title)
	if err != nil {
		return fmt.Errorf("check tag title: %w", err)
	}
	if taken {
		return apperr.Validation("title", "tag with title %q already exists", tag.Title)
	}
	taken, err = s.tagRepo.SlugExists(ctx, tag.Slug)
	if err != nil {
		return fmt.Errorf("check tag slug: %w", err)
	}
	if taken {
		return apperr.Validation("slug", "tag with slug %q already exists", tag.Slug)
	}
	return nil
}

func (s *tagService) Delete(ctx context.Context, id uint) error {
	if err := s.tagRepo.Delete(ctx, id); err != nil {
		return apperr.NotFoundOr(err, "tag", id)
	}
	s.invalidate(ctx)
	log.Info().Uint("tagID", id).Msg("tag deleted")
	return nil
}

func (s *tagService) invalidate(ctx context.Context) {
	s.generation.Add(1)
	s.dropCache(ctx)
}

func (s *tagService) dropCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("tag cache invalidation failed")
	}
}
