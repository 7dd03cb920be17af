package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lshigami/Materia/config"
	"github.com/lshigami/Materia/internal/auth"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/model"
	"github.com/lshigami/Materia/internal/repository"
	"github.com/lshigami/Materia/internal/testdb"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ctx = context.Background()

type fixture struct {
	db          *gorm.DB
	cfg         *config.Config
	tagCache    *memoryTagCache
	grader      *fakeGrader
	users       UserService
	tags        TagService
	prices      PriceService
	materials   MaterialService
	assessments AssessmentService
	submissions SubmissionService
}

func newFixture(t *testing.T, opts ...func(*config.Config)) *fixture {
	t.Helper()
	db := testdb.New(t)
	cfg := &config.Config{}
	cfg.API.PageSize = 6
	cfg.API.MaxPageSize = 100
	for _, opt := range opts {
		opt(cfg)
	}

	userRepo := repository.NewUserRepository(db)
	tagRepo := repository.NewTagRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	cartRepo := repository.NewShoppingListRepository(db)
	followRepo := repository.NewFollowRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)

	relations := NewRelationService(materialRepo, favoriteRepo, cartRepo, followRepo)
	f := &fixture{
		db:       db,
		cfg:      cfg,
		tagCache: &memoryTagCache{},
		grader:   &fakeGrader{},
	}
	f.users = NewUserService(userRepo, followRepo, relations, db, cfg)
	f.tags = NewTagService(tagRepo, f.tagCache)
	f.prices = NewPriceService(priceRepo)
	f.materials = NewMaterialService(materialRepo, tagRepo, priceRepo, favoriteRepo, cartRepo, relations)
	f.assessments = NewAssessmentService(assessmentRepo, repository.NewQuestionRepository(db))
	f.submissions = NewSubmissionService(
		assessmentRepo,
		repository.NewSubmissionRepository(db),
		repository.NewAnswerRepository(db),
		f.grader,
		NewScoreConverterService(),
		db,
	)
	return f
}

func (f *fixture) register(t *testing.T, username string) *auth.Viewer {
	t.Helper()
	u, err := f.users.Register(ctx, dto.RegisterUserRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: username,
		LastName:  "Tester",
		Password:  "correct-horse",
	})
	require.NoError(t, err)
	return &auth.Viewer{ID: u.ID}
}

func (f *fixture) admin(t *testing.T, username string) *auth.Viewer {
	t.Helper()
	v := f.register(t, username)
	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", v.ID).Update("is_admin", true).Error)
	v.IsAdmin = true
	return v
}

func (f *fixture) tag(t *testing.T, slug string) dto.TagView {
	t.Helper()
	tag, err := f.tags.Create(ctx, dto.CreateTagRequest{Title: slug, Slug: slug})
	require.NoError(t, err)
	return *tag
}

func (f *fixture) price(t *testing.T, amount string) dto.PriceView {
	t.Helper()
	p, err := f.prices.Create(ctx, dto.CreatePriceRequest{Amount: amount, MeasurementUnit: "pcs"})
	require.NoError(t, err)
	return *p
}

func (f *fixture) material(t *testing.T, author *auth.Viewer, title string, tagIDs ...uint) dto.MaterialView {
	t.Helper()
	m, err := f.materials.Create(ctx, author, dto.CreateMaterialRequest{
		Title:       title,
		Description: title + " description",
		Tags:        tagIDs,
	})
	require.NoError(t, err)
	return *m
}

// memoryTagCache records cache traffic for assertions.
type memoryTagCache struct {
	mu          sync.Mutex
	tags        []model.Tag
	filled      bool
	hits        int
	invalidated int
}

func (c *memoryTagCache) Get(context.Context) ([]model.Tag, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.filled {
		return nil, false, nil
	}
	c.hits++
	return append([]model.Tag(nil), c.tags...), true, nil
}

func (c *memoryTagCache) Set(_ context.Context, tags []model.Tag) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags = append([]model.Tag(nil), tags...)
	c.filled = true
	return nil
}

func (c *memoryTagCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags, c.filled = nil, false
	c.invalidated++
	return nil
}

// fakeGrader scores every answer with grade, defaulting to full marks.
type fakeGrader struct {
	grade func(q *model.Question, answer string) (string, float64, error)
	calls atomic.Int32
}

func (g *fakeGrader) Grade(_ context.Context, q *model.Question, answer string) (string, float64, error) {
	g.calls.Add(1)
	if g.grade != nil {
		return g.grade(q, answer)
	}
	return fmt.Sprintf("good answer to %q", q.Text), q.MaxPoint, nil
}

func ptr[T any](v T) *T { return &v }
