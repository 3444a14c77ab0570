package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nxtech/credits_ledger_app/cmd/docs"
	portssvc "github.com/nxtech/credits_ledger_app/internal/core/ports/services"
	"github.com/nxtech/credits_ledger_app/internal/middleware"
	"github.com/nxtech/credits_ledger_app/pkg/config"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"
)

// RegisterRoutes sets up all application routes, injecting dependencies
// through the service interfaces.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) error {
	// Health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	if err := setupAPIV1Routes(r, cfg, services); err != nil {
		return err
	}

	setupSwaggerRoutes(r, cfg)
	return nil
}

// setupAPIV1Routes configures the /api/v1 group and the credits routes.
func setupAPIV1Routes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) error {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		return err
	}
	rateLimiter := limiter.New(limitermem.NewStore(), rate)

	v1 := r.Group("/api/v1",
		cors.Default(),
		middleware.RateLimit(rateLimiter),
	)

	registerCreditsRoutes(v1, services.Ledger)
	return nil
}

func registerCreditsRoutes(v1 *gin.RouterGroup, ledgerSvc portssvc.LedgerSvcFacade) {
	creditsHandler := NewCreditsHandler(ledgerSvc)

	credits := v1.Group("/accounts/:kind/:id/credits")
	{
		credits.POST("", creditsHandler.AddCredits)
		credits.POST("/deduct", creditsHandler.DeductCredits)
		credits.POST("/transfer", creditsHandler.TransferCredits)
		credits.GET("/balance", creditsHandler.GetBalance)
		credits.GET("/history", creditsHandler.GetHistory)
	}
}

// setupSwaggerRoutes configures the swagger documentation routes.
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		// no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
