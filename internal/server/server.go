// Package server assembles the gin engine, the route table and the HTTP
// server lifecycle.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/Materia/config"
	"github.com/lshigami/Materia/database"
	"github.com/lshigami/Materia/internal/controller"
	adminctrl "github.com/lshigami/Materia/internal/controller/admin"
	userctrl "github.com/lshigami/Materia/internal/controller/user"
	"github.com/lshigami/Materia/internal/middleware"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Controllers groups every HTTP controller for route registration.
type Controllers struct {
	fx.In

	AdminCatalog    *adminctrl.AdminCatalogController
	AdminAssessment *adminctrl.AdminAssessmentController
	User            *userctrl.UserController
	Catalog         *userctrl.CatalogController
	Material        *userctrl.MaterialController
	Assessment      *userctrl.AssessmentController
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.GinMode)
	controller.RegisterValidators()

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		requestID, _ := param.Keys[middleware.RequestIDKey].(string)
		log.Info().
			Str("request_id", requestID).
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.Server.CORSAllowedOrigins)))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

// RegisterRoutes mounts the API under /api/v1 plus the health probe.
func RegisterRoutes(router *gin.Engine, db *gorm.DB, am *middleware.AuthMiddleware, ctrls Controllers) {
	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, db); err != nil {
			log.Error().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	optional := api.Group("", am.OptionalAuth())
	required := api.Group("", am.RequireAuth())

	// Users & subscriptions
	api.POST("/users", ctrls.User.Register)
	optional.GET("/users", ctrls.User.ListUsers)
	required.GET("/users/me", ctrls.User.Me)
	required.GET("/users/me/subscriptions", ctrls.User.MySubscriptions)
	optional.GET("/users/:id", ctrls.User.GetUser)
	required.DELETE("/users/:id", ctrls.User.DeleteUser)
	optional.GET("/users/:id/subscriptions", ctrls.User.Subscriptions)
	required.POST("/users/:id/subscribe", ctrls.User.Subscribe)
	required.DELETE("/users/:id/subscribe", ctrls.User.Unsubscribe)

	// Catalog
	api.GET("/tags", ctrls.Catalog.ListTags)
	api.GET("/tags/:id", ctrls.Catalog.GetTag)
	api.GET("/prices", ctrls.Catalog.ListPrices)

	// Materials
	optional.GET("/materials", ctrls.Material.ListMaterials)
	required.POST("/materials", ctrls.Material.CreateMaterial)
	required.GET("/materials/shopping_cart", ctrls.Material.Cart)
	optional.GET("/materials/:id", ctrls.Material.GetMaterial)
	required.PATCH("/materials/:id", ctrls.Material.UpdateMaterial)
	required.DELETE("/materials/:id", ctrls.Material.DeleteMaterial)
	required.POST("/materials/:id/favorite", ctrls.Material.Favorite)
	required.DELETE("/materials/:id/favorite", ctrls.Material.Unfavorite)
	required.POST("/materials/:id/shopping_cart", ctrls.Material.AddToCart)
	required.DELETE("/materials/:id/shopping_cart", ctrls.Material.RemoveFromCart)

	// Assessments
	api.GET("/assessments", ctrls.Assessment.ListAssessments)
	api.GET("/assessments/:id", ctrls.Assessment.GetAssessment)
	required.POST("/assessments/:id/submissions", ctrls.Assessment.Submit)
	required.GET("/assessments/:id/my-submissions", ctrls.Assessment.MySubmissions)
	required.GET("/submissions/:id", ctrls.Assessment.GetSubmission)

	admin := api.Group("/admin", am.RequireAuth(), am.RequireAdmin())
	{
		admin.POST("/tags", ctrls.AdminCatalog.CreateTag)
		admin.DELETE("/tags/:id", ctrls.AdminCatalog.DeleteTag)
		admin.POST("/prices", ctrls.AdminCatalog.CreatePrice)
		admin.DELETE("/prices/:id", ctrls.AdminCatalog.DeletePrice)
		admin.POST("/assessments", ctrls.AdminAssessment.CreateAssessment)
		admin.DELETE("/assessments/:id", ctrls.AdminAssessment.DeleteAssessment)
		admin.DELETE("/questions/:id", ctrls.AdminAssessment.DeleteQuestion)
	}
}

// StartServer runs the HTTP server for the lifetime of the fx app.
func StartServer(lc fx.Lifecycle, router *gin.Engine, cfg *config.Config) {
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Materia API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}
