package repository_test

import (
	"testing"

	"github.com/lshigami/Materia/internal/model"
	"github.com/lshigami/Materia/internal/repository"
	"github.com/lshigami/Materia/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func ptr[T any](v T) *T { return &v }

func TestMaterialCreateLinksExistingTagsAndPrices(t *testing.T) {
	db := testdb.New(t)
	repo := repository.NewMaterialRepository(db)
	author := seedUser(t, db, "author")
	tag := seedTag(t, db, "Go", "go")
	price := seedPrice(t, db, "9.99")

	m := &model.Material{
		Title: "Concurrency", Description: "notes", AuthorID: author.ID,
		Tags: []model.Tag{tag}, Prices: []model.Price{price},
	}
	require.NoError(t, repo.Create(ctx, m))

	got, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Author)
	assert.Equal(t, "author", got.Author.Username)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "go", got.Tags[0].Slug)
	require.Len(t, got.Prices, 1)
	assert.True(t, got.Prices[0].Amount.Equal(price.Amount))
	assert.False(t, got.PubDate.IsZero())
	assert.EqualValues(t, 1, count(t, db, "tags"))
}

func TestMaterialListFilters(t *testing.T) {
	db := testdb.New(t)
	repo := repository.NewMaterialRepository(db)
	favs := repository.NewFavoriteRepository(db)
	cart := repository.NewShoppingListRepository(db)

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	goTag := seedTag(t, db, "Go", "go")
	sqlTag := seedTag(t, db, "SQL", "sql")

	m1 := seedMaterial(t, db, alice, "one", []model.Tag{goTag}, nil)
	m2 := seedMaterial(t, db, alice, "two", []model.Tag{goTag, sqlTag}, nil)
	m3 := seedMaterial(t, db, bob, "three", []model.Tag{sqlTag}, nil)
	m4 := seedMaterial(t, db, bob, "four", nil, nil)

	require.NoError(t, favs.Add(ctx, bob.ID, m1.ID))
	require.NoError(t, favs.Add(ctx, bob.ID, m3.ID))
	require.NoError(t, cart.Add(ctx, bob.ID, m2.ID))

	all := repository.Page{Number: 1, Size: 50}
	cases := []struct {
		name   string
		filter repository.MaterialFilter
		want   []uint
	}{
		{"no filter newest first", repository.MaterialFilter{}, []uint{m4.ID, m3.ID, m2.ID, m1.ID}},
		{"any of tags", repository.MaterialFilter{TagSlugs: []string{"go", "sql"}}, []uint{m3.ID, m2.ID, m1.ID}},
		{"single tag", repository.MaterialFilter{TagSlugs: []string{"sql"}}, []uint{m3.ID, m2.ID}},
		{"unknown tag", repository.MaterialFilter{TagSlugs: []string{"rust"}}, []uint{}},
		{"author", repository.MaterialFilter{AuthorID: &bob.ID}, []uint{m4.ID, m3.ID}},
		{"favorited", repository.MaterialFilter{IsFavorited: ptr(true), ViewerID: &bob.ID}, []uint{m3.ID, m1.ID}},
		{"not favorited", repository.MaterialFilter{IsFavorited: ptr(false), ViewerID: &bob.ID}, []uint{m4.ID, m2.ID}},
		{"in cart", repository.MaterialFilter{IsInShoppingCart: ptr(true), ViewerID: &bob.ID}, []uint{m2.ID}},
		{"anonymous favorited", repository.MaterialFilter{IsFavorited: ptr(true)}, []uint{}},
		{"anonymous not favorited", repository.MaterialFilter{IsFavorited: ptr(false)}, []uint{m4.ID, m3.ID, m2.ID, m1.ID}},
		{"combined", repository.MaterialFilter{TagSlugs: []string{"go"}, IsFavorited: ptr(true), ViewerID: &bob.ID}, []uint{m1.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, total, err := repo.List(ctx, tc.filter, all)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got))
			assert.EqualValues(t, len(tc.want), total)
		})
	}
}

func TestMaterialListPaginates(t *testing.T) {
	db := testdb.New(t)
	repo := repository.NewMaterialRepository(db)
	author := seedUser(t, db, "author")
	for i := 0; i < 5; i++ {
		seedMaterial(t, db, author, "m", nil, nil)
	}

	page, total, err := repo.List(ctx, repository.MaterialFilter{}, repository.Page{Number: 3, Size: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 1)
}

func TestMaterialListByAuthorLimit(t *testing.T) {
	db := testdb.New(t)
	repo := repository.NewMaterialRepository(db)
	author := seedUser(t, db, "author")
	other := seedUser(t, db, "other")
	a := seedMaterial(t, db, author, "a", nil, nil)
	b := seedMaterial(t, db, author, "b", nil, nil)
	seedMaterial(t, db, other, "c", nil, nil)

	got, err := repo.ListByAuthor(ctx, author.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID, a.ID}, ids(got))

	got, err = repo.ListByAuthor(ctx, author.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, ids(got))

	got, err = repo.ListByAuthor(ctx, author.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	counts, err := repo.CountByAuthors(ctx, []uint{author.ID, other.ID, 999})
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[author.ID])
	assert.EqualValues(t, 1, counts[other.ID])
	assert.Zero(t, counts[999])
}

func TestMaterialUpdateKeepsPubDateAndReplacesTags(t *testing.T) {
	db := testdb.New(t)
	repo := repository.NewMaterialRepository(db)
	author := seedUser(t, db, "author")
	goTag := seedTag(t, db, "Go", "go")
	sqlTag := seedTag(t, db, "SQL", "sql")
	m := seedMaterial(t, db, author, "before", []model.Tag{goTag}, nil)
	before, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)

	err = repo.Update(ctx, m.ID, repository.MaterialChanges{
		Fields: map[string]any{"title": "after", "pub_date": before.PubDate.AddDate(-1, 0, 0)},
		Tags:   &[]model.Tag{sqlTag},
	})
	require.NoError(t, err)

	after, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", after.Title)
	assert.True(t, before.PubDate.Equal(after.PubDate))
	require.Len(t, after.Tags, 1)
	assert.Equal(t, "sql", after.Tags[0].Slug)

	err = repo.Update(ctx, 999, repository.MaterialChanges{Fields: map[string]any{"title": "x"}})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMaterialDeleteCascadesRelations(t *testing.T) {
	db := testdb.New(t)
	repo := repository.NewMaterialRepository(db)
	author := seedUser(t, db, "author")
	reader := seedUser(t, db, "reader")
	tag := seedTag(t, db, "Go", "go")
	price := seedPrice(t, db, "1.00")
	m := seedMaterial(t, db, author, "m", []model.Tag{tag}, []model.Price{price})
	require.NoError(t, repository.NewFavoriteRepository(db).Add(ctx, reader.ID, m.ID))
	require.NoError(t, repository.NewShoppingListRepository(db).Add(ctx, reader.ID, m.ID))

	require.NoError(t, repo.Delete(ctx, m.ID))

	assert.Zero(t, count(t, db, "materials"))
	assert.Zero(t, count(t, db, "favorites"))
	assert.Zero(t, count(t, db, "shopping_list_entries"))
	assert.Zero(t, count(t, db, "material_tags"))
	assert.Zero(t, count(t, db, "material_prices"))
	assert.EqualValues(t, 1, count(t, db, "tags"))
	assert.EqualValues(t, 1, count(t, db, "prices"))

	assert.ErrorIs(t, repo.Delete(ctx, m.ID), gorm.ErrRecordNotFound)
}
