package restapi

import (
	"storage_dapp/internal/infrastructure/configloader"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// SetupRouter builds the gin engine: the /api/v1 routes, the ABI file, metrics and optionally swagger.
func SetupRouter(h *DappHandler, cfg *configloader.Config, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))
	router.Use(ZapLoggerMiddleware(logger))
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/state", h.GetStateHandler)
		v1.POST("/connect", h.ConnectHandler)
		v1.POST("/set", h.SetValueHandler)
		v1.POST("/get", h.GetValueHandler)
		v1.GET("/tx/:hash", h.GetTxHandler)
		v1.GET("/notices", h.GetNoticesHandler)
		v1.GET("/networks", h.GetNetworksHandler)
		v1.GET("/networks/:name", h.GetNetworkHandler)
		v1.GET("/health", h.HealthHandler)
	}

	// Same-origin ABI, read by the ABI loader on every connect.
	router.GET("/abi.json", func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.File(cfg.Server.ABIFile)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.Swagger.Enabled {
		router.StaticFile("/docs/swagger.yaml", cfg.Swagger.SpecFile)
		swaggerURL := ginSwagger.URL("/docs/swagger.yaml")
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, swaggerURL))
	}

	return router
}
