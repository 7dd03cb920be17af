package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lshigami/Materia/config"
	"github.com/lshigami/Materia/database"
	_ "github.com/lshigami/Materia/docs" // Swagger docs
	"github.com/lshigami/Materia/internal/auth"
	"github.com/lshigami/Materia/internal/cache"
	"github.com/lshigami/Materia/internal/controller"
	adminctrl "github.com/lshigami/Materia/internal/controller/admin"
	userctrl "github.com/lshigami/Materia/internal/controller/user"
	"github.com/lshigami/Materia/internal/logger"
	"github.com/lshigami/Materia/internal/middleware"
	"github.com/lshigami/Materia/internal/repository"
	"github.com/lshigami/Materia/internal/server"
	"github.com/lshigami/Materia/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Materia API
// @version 1.0
// @description Materials marketplace: catalog, favorites, shopping cart, author subscriptions and graded assessments.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "materia",
		Short:         "Materials marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Migrate the schema and start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate()
		},
	})
	cmd.AddCommand(tokenCmd())
	return cmd
}

// tokenCmd signs a bearer token for local testing against a running API.
func tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Sign a bearer token for a user id with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || userID == 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tokens, err := newTokenManager(cfg)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(uint(userID), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}

func migrate() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := database.NewDatabase(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	return database.AutoMigrate(db)
}

func serve() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),

		// Core
		fx.Provide(
			database.NewDatabase,
			newTagCache,
			newGrader,
			newTokenManager,
			server.NewGinEngine,
		),

		// Repositories
		fx.Provide(
			repository.NewUserRepository,
			repository.NewFollowRepository,
			repository.NewTagRepository,
			repository.NewPriceRepository,
			repository.NewMaterialRepository,
			repository.NewFavoriteRepository,
			repository.NewShoppingListRepository,
			repository.NewAssessmentRepository,
			repository.NewQuestionRepository,
			repository.NewSubmissionRepository,
			repository.NewAnswerRepository,
		),

		// Services
		fx.Provide(
			service.NewRelationService,
			service.NewUserService,
			service.NewTagService,
			service.NewPriceService,
			service.NewMaterialService,
			service.NewAssessmentService,
			service.NewScoreConverterService,
			service.NewSubmissionService,
		),

		// HTTP
		fx.Provide(
			func(users service.UserService) middleware.ViewerResolver { return users },
			middleware.NewAuthMiddleware,
			controller.NewPaginator,
			adminctrl.NewAdminCatalogController,
			adminctrl.NewAdminAssessmentController,
			userctrl.NewUserController,
			userctrl.NewCatalogController,
			userctrl.NewMaterialController,
			userctrl.NewAssessmentController,
		),

		fx.Invoke(autoMigrate),
		fx.Invoke(server.RegisterRoutes, server.StartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to start application")
		return err
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
	return app.Stop(context.Background())
}

func autoMigrate(db *gorm.DB) error {
	return database.AutoMigrate(db)
}

func newTokenManager(cfg *config.Config) (*auth.TokenManager, error) {
	return auth.NewTokenManager(cfg.Auth.JWTSecret)
}

func newTagCache(lc fx.Lifecycle, cfg *config.Config) (cache.TagCache, error) {
	tagCache, closeFn, err := cache.NewTagCacheFromConfig(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return closeFn() },
	})
	return tagCache, nil
}

func newGrader(lc fx.Lifecycle, cfg *config.Config) (service.Grader, error) {
	grader, closeFn, err := service.NewGeminiGrader(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return closeFn() },
	})
	return grader, nil
}
