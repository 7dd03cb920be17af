package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lshigami/Materia/config"
	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/auth"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/model"
	"github.com/lshigami/Materia/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type UserService interface {
	Register(ctx context.Context, req dto.RegisterUserRequest) (*dto.RegisteredUser, error)
	Get(ctx context.Context, viewer *auth.Viewer, id uint) (*dto.UserView, error)
	List(ctx context.Context, viewer *auth.Viewer, page repository.Page) ([]dto.UserView, int64, error)
	Me(ctx context.Context, viewer *auth.Viewer) (*dto.UserView, error)
	// Delete is allowed to the user themself and to admins.
	Delete(ctx context.Context, viewer *auth.Viewer, id uint) error
	Subscribe(ctx context.Context, viewer *auth.Viewer, authorID uint, materialsLimit *int) (*dto.SubscriptionView, error)
	Unsubscribe(ctx context.Context, viewer *auth.Viewer, authorID uint) error
	Subscriptions(ctx context.Context, viewer *auth.Viewer, userID uint, page repository.Page, materialsLimit *int) ([]dto.SubscriptionView, int64, error)
	// Authenticate resolves a token subject into a viewer.
	Authenticate(ctx context.Context, userID uint) (*auth.Viewer, error)
}

type userService struct {
	userRepo     repository.UserRepository
	followRepo   repository.FollowRepository
	relations    RelationService
	db           *gorm.DB
	emptyAsError bool
}

func NewUserService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	relations RelationService,
	db *gorm.DB,
	cfg *config.Config,
) UserService {
	return &userService{
		userRepo:     userRepo,
		followRepo:   followRepo,
		relations:    relations,
		db:           db,
		emptyAsError: cfg.API.SubscriptionsEmptyAsError,
	}
}

func (s *userService) Register(ctx context.Context, req dto.RegisterUserRequest) (*dto.RegisteredUser, error) {
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)

	if err := s.checkIdentityFree(ctx, email, username); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := model.User{
		Email:     email,
		Username:  username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  hash,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.userRepo.WithTx(tx).Create(ctx, &user)
	})
	if apperr.IsDuplicate(err) {
		// Lost a race with a concurrent registration; name the field.
		if identityErr := s.checkIdentityFree(ctx, email, username); identityErr != nil {
			return nil, identityErr
		}
		return nil, apperr.Validation("email", "a user with this email or username already exists")
	}
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("Register: failed to create user")
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Info().Uint("userID", user.ID).Str("username", user.Username).Msg("user registered")
	resp := dto.NewRegisteredUser(&user)
	return &resp, nil
}

func (s *userService) checkIdentityFree(ctx context.Context, email, username string) error {
	taken, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return apperr.Validation("email", "a user with this email already exists")
	}
	taken, err = s.userRepo.UsernameExists(ctx, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return apperr.Validation("username", "a user with this username already exists")
	}
	return nil
}

func (s *userService) Get(ctx context.Context, viewer *auth.Viewer, id uint) (*dto.UserView, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "user", id)
	}
	subscribed, err := s.relations.IsSubscribed(ctx, viewer, user.ID)
	if err != nil {
		return nil, fmt.Errorf("check subscription: %w", err)
	}
	view := dto.NewUserView(user, subscribed)
	return &view, nil
}

func (s *userService) List(ctx context.Context, viewer *auth.Viewer, page repository.Page) ([]dto.UserView, int64, error) {
	users, total, err := s.userRepo.FindAll(ctx, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	subscribed, err := s.relations.SubscribedAuthors(ctx, viewer, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load subscriptions: %w", err)
	}
	views := make([]dto.UserView, 0, len(users))
	for i := range users {
		views = append(views, dto.NewUserView(&users[i], subscribed[users[i].ID]))
	}
	return views, total, nil
}

func (s *userService) Me(ctx context.Context, viewer *auth.Viewer) (*dto.UserView, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	return s.Get(ctx, viewer, viewer.ID)
}

func (s *userService) Delete(ctx context.Context, viewer *auth.Viewer, id uint) error {
	if err := requireViewer(viewer); err != nil {
		return err
	}
	if viewer.ID != id && !viewer.IsAdmin {
		return apperr.Forbidden("you can only delete your own account")
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return apperr.NotFoundOr(err, "user", id)
	}
	log.Info().Uint("userID", id).Uint("deletedBy", viewer.ID).Msg("user deleted")
	return nil
}

func (s *userService) Subscribe(ctx context.Context, viewer *auth.Viewer, authorID uint, materialsLimit *int) (*dto.SubscriptionView, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	author, err := s.userRepo.FindByID(ctx, authorID)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "user", authorID)
	}
	if author.ID == viewer.ID {
		return nil, apperr.SelfSubscription()
	}
	following, err := s.followRepo.Exists(ctx, viewer.ID, author.ID)
	if err != nil {
		return nil, fmt.Errorf("check follow: %w", err)
	}
	if following {
		return nil, apperr.AlreadySubscribed(author.Username)
	}
	if err := s.followRepo.Create(ctx, viewer.ID, author.ID); err != nil {
		if apperr.IsDuplicate(err) {
			return nil, apperr.AlreadySubscribed(author.Username)
		}
		return nil, fmt.Errorf("create follow: %w", err)
	}
	log.Info().Uint("userID", viewer.ID).Uint("authorID", author.ID).Msg("subscribed")

	views, err := s.subscriptionViews(ctx, []model.User{*author}, map[uint]bool{author.ID: true}, materialsLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *userService) Unsubscribe(ctx context.Context, viewer *auth.Viewer, authorID uint) error {
	if err := requireViewer(viewer); err != nil {
		return err
	}
	if _, err := s.userRepo.FindByID(ctx, authorID); err != nil {
		return apperr.NotFoundOr(err, "user", authorID)
	}
	removed, err := s.followRepo.Delete(ctx, viewer.ID, authorID)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	if removed {
		log.Info().Uint("userID", viewer.ID).Uint("authorID", authorID).Msg("unsubscribed")
	}
	return nil
}

func (s *userService) Subscriptions(ctx context.Context, viewer *auth.Viewer, userID uint, page repository.Page, materialsLimit *int) ([]dto.SubscriptionView, int64, error) {
	if materialsLimit != nil && *materialsLimit < 0 {
		return nil, 0, apperr.Validation("materials_limit", "must be a non-negative integer")
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, 0, apperr.NotFoundOr(err, "user", userID)
	}
	authors, total, err := s.relations.SubscriptionsOf(ctx, userID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}
	if total == 0 && s.emptyAsError {
		return nil, 0, apperr.EmptyResult("you have no subscriptions")
	}

	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	subscribed, err := s.relations.SubscribedAuthors(ctx, viewer, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load subscriptions: %w", err)
	}
	views, err := s.subscriptionViews(ctx, authors, subscribed, materialsLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *userService) subscriptionViews(ctx context.Context, authors []model.User, subscribed map[uint]bool, materialsLimit *int) ([]dto.SubscriptionView, error) {
	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := s.relations.MaterialsCount(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count materials: %w", err)
	}
	views := make([]dto.SubscriptionView, 0, len(authors))
	for i := range authors {
		materials, err := s.relations.MaterialsOf(ctx, authors[i].ID, materialsLimit)
		if err != nil {
			return nil, err
		}
		views = append(views, dto.NewSubscriptionView(&authors[i], subscribed[authors[i].ID], materials, counts[authors[i].ID]))
	}
	return views, nil
}

func (s *userService) Authenticate(ctx context.Context, userID uint) (*auth.Viewer, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("user not found for token")
		}
		return nil, fmt.Errorf("load token user: %w", err)
	}
	return &auth.Viewer{ID: user.ID, IsAdmin: user.IsAdmin}, nil
}
