package service

import (
	"testing"
	"time"

	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/auth"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/model"
	"github.com/lshigami/Materia/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanModifyMaterial(t *testing.T) {
	m := &model.Material{AuthorID: 7}
	cases := []struct {
		name   string
		viewer *auth.Viewer
		want   apperr.Kind
	}{
		{"anonymous", nil, apperr.KindUnauthorized},
		{"stranger", &auth.Viewer{ID: 8}, apperr.KindForbidden},
		{"author", &auth.Viewer{ID: 7}, ""},
		{"admin", &auth.Viewer{ID: 9, IsAdmin: true}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanModifyMaterial(tc.viewer, m)
			if tc.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestCreateMaterial(t *testing.T) {
	f := newFixture(t)
	author := f.register(t, "author")
	goTag := f.tag(t, "go")
	price := f.price(t, "12.5")

	view, err := f.materials.Create(ctx, author, dto.CreateMaterialRequest{
		Title:       "Gophers",
		Description: "all about gophers",
		Preview:     ptr("gopher.png"),
		Tags:        []uint{goTag.ID, goTag.ID},
		Prices:      []uint{price.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, author.ID, view.Author.ID)
	assert.False(t, view.Author.IsSubscribed)
	require.Len(t, view.Tags, 1)
	assert.Equal(t, "go", view.Tags[0].Slug)
	require.Len(t, view.Price, 1)
	assert.Equal(t, "12.50", view.Price[0].Amount)
	assert.WithinDuration(t, time.Now(), view.PubDate, time.Minute)
	assert.Nil(t, view.File)

	_, err = f.materials.Create(ctx, author, dto.CreateMaterialRequest{Title: "x", Description: "y", Tags: []uint{404}})
	appErr, ok := apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, "tags", appErr.Field)

	_, err = f.materials.Create(ctx, author, dto.CreateMaterialRequest{Title: "x", Description: "y", Prices: []uint{404}})
	appErr, ok = apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, "prices", appErr.Field)

	_, err = f.materials.Create(ctx, nil, dto.CreateMaterialRequest{Title: "x", Description: "y"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestUpdateMaterialAuthorization(t *testing.T) {
	f := newFixture(t)
	author := f.register(t, "author")
	stranger := f.register(t, "stranger")
	root := f.admin(t, "root")
	m := f.material(t, author, "draft")

	_, err := f.materials.Update(ctx, nil, m.ID, dto.UpdateMaterialRequest{Title: ptr("x")})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = f.materials.Update(ctx, stranger, m.ID, dto.UpdateMaterialRequest{Title: ptr("x")})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	updated, err := f.materials.Update(ctx, author, m.ID, dto.UpdateMaterialRequest{Title: ptr("final")})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, "draft description", updated.Description)
	assert.True(t, m.PubDate.Equal(updated.PubDate), "pub_date must not change")

	_, err = f.materials.Update(ctx, author, 9999, dto.UpdateMaterialRequest{Title: ptr("x")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	assert.True(t, apperr.Is(f.materials.Delete(ctx, stranger, m.ID), apperr.KindForbidden))
	require.NoError(t, f.materials.Delete(ctx, root, m.ID))
	_, err = f.materials.Get(ctx, nil, m.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateMaterialReplacesTags(t *testing.T) {
	f := newFixture(t)
	author := f.register(t, "author")
	a := f.tag(t, "a")
	b := f.tag(t, "b")
	m := f.material(t, author, "m", a.ID)

	updated, err := f.materials.Update(ctx, author, m.ID, dto.UpdateMaterialRequest{Tags: &[]uint{b.ID}})
	require.NoError(t, err)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, b.ID, updated.Tags[0].ID)

	updated, err = f.materials.Update(ctx, author, m.ID, dto.UpdateMaterialRequest{Tags: &[]uint{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)
}

func TestFavoriteAndCartTransitions(t *testing.T) {
	f := newFixture(t)
	author := f.register(t, "author")
	reader := f.register(t, "reader")
	m := f.material(t, author, "m")

	summary, err := f.materials.Favorite(ctx, reader, m.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, summary.Author)
	_, err = f.materials.Favorite(ctx, reader, m.ID)
	assert.True(t, apperr.Is(err, apperr.KindAlreadyFavorited))

	_, err = f.materials.AddToCart(ctx, reader, m.ID)
	require.NoError(t, err)
	_, err = f.materials.AddToCart(ctx, reader, m.ID)
	assert.True(t, apperr.Is(err, apperr.KindAlreadyInShoppingCart))

	got, err := f.materials.Get(ctx, reader, m.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFavorited)
	assert.True(t, got.IsInShoppingCart)

	got, err = f.materials.Get(ctx, author, m.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFavorited)

	cart, err := f.materials.Cart(ctx, reader)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, m.ID, cart[0].ID)

	require.NoError(t, f.materials.Unfavorite(ctx, reader, m.ID))
	require.NoError(t, f.materials.Unfavorite(ctx, reader, m.ID))
	require.NoError(t, f.materials.RemoveFromCart(ctx, reader, m.ID))
	require.NoError(t, f.materials.RemoveFromCart(ctx, reader, m.ID))

	_, err = f.materials.Favorite(ctx, reader, 9999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(f.materials.RemoveFromCart(ctx, reader, 9999), apperr.KindNotFound))
	_, err = f.materials.AddToCart(ctx, nil, m.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestListMaterialsFlags(t *testing.T) {
	f := newFixture(t)
	author := f.register(t, "author")
	reader := f.register(t, "reader")
	liked := f.material(t, author, "liked")
	f.material(t, author, "plain")
	_, err := f.materials.Favorite(ctx, reader, liked.ID)
	require.NoError(t, err)
	_, err = f.users.Subscribe(ctx, reader, author.ID, nil)
	require.NoError(t, err)

	page := repository.Page{Number: 1, Size: 10}
	views, total, err := f.materials.List(ctx, reader, repository.MaterialFilter{IsFavorited: ptr(true)}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, views, 1)
	assert.Equal(t, liked.ID, views[0].ID)
	assert.True(t, views[0].IsFavorited)
	assert.True(t, views[0].Author.IsSubscribed)

	views, total, err = f.materials.List(ctx, nil, repository.MaterialFilter{IsFavorited: ptr(true)}, page)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, views)

	views, total, err = f.materials.List(ctx, nil, repository.MaterialFilter{IsFavorited: ptr(false)}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, v := range views {
		assert.False(t, v.IsFavorited)
		assert.False(t, v.Author.IsSubscribed)
	}
}
