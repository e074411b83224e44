package server

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Depado/ginprom"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/wagateway/app/api/routes"
	"github.com/wagateway/pkg/config"
	"github.com/wagateway/pkg/database"
	"github.com/wagateway/pkg/domains/gateway"
	"github.com/wagateway/pkg/domains/tenant"
	"github.com/wagateway/pkg/middleware"
	"github.com/wagateway/pkg/push"
	"github.com/wagateway/pkg/utils"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func LaunchHttpServer(cfg *config.Config, manager *gateway.Manager, sender *gateway.Sender, hub *push.Hub) {
	zap.S().Info("Starting HTTP Server...")
	gin.SetMode(gin.DebugMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		utils.NewCustomValidator().RegisterOn(v)
	}

	app := gin.New()
	app.Use(gin.LoggerWithFormatter(func(log gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] - %s \"%s %s %s %d %s\"\n",
			log.TimeStamp.Format("2006-01-02 15:04:05"),
			log.ClientIP,
			log.Method,
			log.Path,
			log.Request.Proto,
			log.StatusCode,
			log.Latency,
		)
	}))
	app.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	app.Use(gin.Recovery())
	app.Use(otelgin.Middleware(cfg.App.Name))
	app.Use(middleware.ClaimIp())
	app.Use(cors.New(cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With", "Origin", "Accept", "admin_key", "secret_key"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	p := ginprom.New(
		ginprom.Engine(app),
		ginprom.Subsystem("gin"),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/swagger/*any"),
	)
	app.Use(p.Instrument())

	db := database.DBClient()
	api := app.Group("/api/v1")

	// Tenant Routes
	tenant_repo := tenant.NewRepo(db)
	tenant_service := tenant.NewService(tenant_repo, manager, cfg.Gateway)
	routes.TenantRoutes(api.Group("/tenants"), tenant_service)
	routes.WebhookRoutes(api.Group("/tenants"), tenant_service)

	// Messaging Routes
	routes.MessageRoutes(api.Group("/messaging"), sender, tenant_service)

	// Push channel for qr/status events
	app.GET("/ws", hub.Handle)

	zap.S().Infof("Server is running on port %s", cfg.App.Port)
	if err := app.Run(net.JoinHostPort(cfg.App.Host, cfg.App.Port)); err != nil {
		zap.S().Fatalf("Server failed: %v", err)
	}
}
