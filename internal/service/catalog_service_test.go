package service

import (
	"context"
	"testing"

	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/model"
	"github.com/lshigami/Materia/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagUniqueness(t *testing.T) {
	f := newFixture(t)
	f.tag(t, "go")

	_, err := f.tags.Create(ctx, dto.CreateTagRequest{Title: "go", Slug: "golang"})
	appErr, ok := apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, "title", appErr.Field)

	_, err = f.tags.Create(ctx, dto.CreateTagRequest{Title: "Golang", Slug: "go"})
	appErr, ok = apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, "slug", appErr.Field)
}

func TestTagListUsesCache(t *testing.T) {
	f := newFixture(t)
	f.tag(t, "b")
	f.tag(t, "a")

	first, err := f.tags.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Zero(t, f.tagCache.hits)

	second, err := f.tags.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.tagCache.hits)

	invalidations := f.tagCache.invalidated
	require.NoError(t, f.tags.Delete(ctx, first[0].ID))
	assert.Equal(t, invalidations+1, f.tagCache.invalidated)

	third, err := f.tags.List(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 1)

	assert.True(t, apperr.Is(f.tags.Delete(ctx, 404), apperr.KindNotFound))
	_, err = f.tags.Get(ctx, 404)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

// racingTagRepo runs onFindAll after reading, as if a write landed while
// the list was in flight.
type racingTagRepo struct {
	repository.TagRepository
	onFindAll func()
}

func (r *racingTagRepo) FindAll(ctx context.Context) ([]model.Tag, error) {
	tags, err := r.TagRepository.FindAll(ctx)
	if r.onFindAll != nil {
		hook := r.onFindAll
		r.onFindAll = nil
		hook()
	}
	return tags, err
}

func TestTagListDoesNotCacheAcrossConcurrentWrite(t *testing.T) {
	f := newFixture(t)
	f.tag(t, "go")

	repo := &racingTagRepo{TagRepository: repository.NewTagRepository(f.db)}
	tagCache := &memoryTagCache{}
	svc := NewTagService(repo, tagCache)
	repo.onFindAll = func() {
		_, err := svc.Create(ctx, dto.CreateTagRequest{Title: "rust", Slug: "rust"})
		require.NoError(t, err)
	}

	stale, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, stale, 1)
	assert.False(t, tagCache.filled)

	fresh, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
	assert.True(t, tagCache.filled)
}

func TestParsePriceAmount(t *testing.T) {
	valid := map[string]string{
		"0":           "0",
		"12.5":        "12.5",
		" 3.99 ":      "3.99",
		"99999999.99": "99999999.99",
	}
	for raw, want := range valid {
		got, err := ParsePriceAmount(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got.String(), raw)
	}

	for _, raw := range []string{"", "abc", "-1", "1.234", "100000000"} {
		_, err := ParsePriceAmount(raw)
		assert.True(t, apperr.Is(err, apperr.KindValidation), raw)
	}
}

func TestPriceLifecycle(t *testing.T) {
	f := newFixture(t)
	p := f.price(t, "7")
	assert.Equal(t, "7.00", p.Amount)

	prices, err := f.prices.List(ctx)
	require.NoError(t, err)
	require.Len(t, prices, 1)

	require.NoError(t, f.prices.Delete(ctx, p.ID))
	assert.True(t, apperr.Is(f.prices.Delete(ctx, p.ID), apperr.KindNotFound))
}
