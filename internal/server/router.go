package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ailum-crm/ailum/internal/api/handler"
	"github.com/ailum-crm/ailum/internal/api/middleware"
)

type Options struct {
	Env             string
	AuthSecret      string
	HealthHandler   *handler.HealthHandler
	AuthHandler     *handler.AuthHandler
	WebhookHandler  *handler.WebhookHandler
	WhatsAppHandler *handler.WhatsAppHandler
	FunnelHandler   *handler.FunnelHandler
	TemplateHandler *handler.TemplateHandler
	RateLimit       middleware.RateLimitOption
	PublicRateLimit middleware.IPRateLimitOption
}

func NewRouter(opts Options) *gin.Engine {
	if opts.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		MaxAge:       12 * time.Hour,
	}))

	api := router.Group("/api")

	opts.HealthHandler.Register(api)

	// Registro, login e o receptor de webhook ficam fora do grupo com JWT:
	// o gateway autentica pelo token de webhook, não por bearer. O rate
	// limit por IP protege essas rotas abertas.
	public := api.Group("")
	if opts.PublicRateLimit.Enabled {
		public.Use(middleware.IPRateLimit(opts.PublicRateLimit))
	}
	opts.AuthHandler.Register(public)
	opts.WebhookHandler.Register(public)

	protected := api.Group("")
	if opts.RateLimit.Enabled {
		protected.Use(middleware.RateLimit(opts.RateLimit))
	}
	protected.Use(middleware.Auth(opts.AuthSecret))

	opts.WhatsAppHandler.Register(protected)
	opts.FunnelHandler.Register(protected)
	opts.TemplateHandler.Register(protected)

	return router
}
