package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ailum-crm/ailum/internal/api/handler"
	"github.com/ailum-crm/ailum/internal/api/middleware"
	"github.com/ailum-crm/ailum/internal/app"
	"github.com/ailum-crm/ailum/internal/config"
	"github.com/ailum-crm/ailum/internal/funnel"
	"github.com/ailum-crm/ailum/internal/gateway"
	"github.com/ailum-crm/ailum/internal/inbox"
	"github.com/ailum-crm/ailum/internal/logger"
	"github.com/ailum-crm/ailum/internal/server"
	"github.com/ailum-crm/ailum/internal/service/auth"
	"github.com/ailum-crm/ailum/internal/service/template"
	"github.com/ailum-crm/ailum/internal/storage"
	storage_redis "github.com/ailum-crm/ailum/internal/storage/redis"
)

func main() {
	cfg := config.Load()

	logr, err := logger.New(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logr.Sync()

	logr.Info("iniciando aplicação",
		zap.String("env", cfg.App.Env),
		zap.String("log_level", cfg.Log.Level),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Storage.Driver),
		zap.String("data_dir", cfg.Storage.DataDir),
	)

	repos, err := storage.NewRepositories(cfg, logr)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	gatewayClient := gateway.NewClient(cfg.Evolution, logr)
	if !gatewayClient.Configured() {
		logr.Warn("EVOLUTION_API_URL/EVOLUTION_API_KEY ausentes; endpoints do gateway responderão 500")
	}

	// Com Redis habilitado, as escritas do quadro de funis também são
	// serializadas entre réplicas.
	var lockerFactory funnel.LockerFactory
	if repos.RedisClient != nil {
		redisClient := repos.RedisClient
		lockerFactory = func(key string) funnel.Locker {
			return storage_redis.NewLock(redisClient, key, 10*time.Second)
		}
	}

	logr.Debug("inicializando serviços")
	authService := auth.NewService(cfg.JWT.Secret, cfg.JWT.ExpHours, repos.User)
	funnelService := funnel.NewService(repos.Board, lockerFactory, logr)
	templateService := template.NewService(repos.Template)
	hub := inbox.NewHub()
	logr.Debug("serviços inicializados")

	healthHandler := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(authService)
	webhookHandler := handler.NewWebhookHandler(repos.Inbox, hub, funnelService, repos.User, logr)
	whatsAppHandler := handler.NewWhatsAppHandler(gatewayClient, repos.Inbox, funnelService, cfg.App.BaseURL, logr)
	funnelHandler := handler.NewFunnelHandler(funnelService, logr)
	templateHandler := handler.NewTemplateHandler(templateService, logr)

	rateLimitOpts := middleware.RateLimitOption{
		Enabled:  cfg.RateLimit.Enabled,
		Requests: cfg.RateLimit.Requests,
		Window:   time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		Prefix:   cfg.RateLimit.Prefix,
		Logger:   logr,
		Limiter:  repos.RateLimiter,
	}
	publicRateLimitOpts := middleware.IPRateLimitOption{
		Enabled:       cfg.RateLimit.Enabled,
		Requests:      cfg.RateLimit.Requests,
		WindowSeconds: cfg.RateLimit.WindowSeconds,
		Logger:        logr,
		Limiter:       repos.RateLimiter,
	}

	router := server.NewRouter(server.Options{
		Env:             cfg.App.Env,
		AuthSecret:      cfg.JWT.Secret,
		HealthHandler:   healthHandler,
		AuthHandler:     authHandler,
		WebhookHandler:  webhookHandler,
		WhatsAppHandler: whatsAppHandler,
		FunnelHandler:   funnelHandler,
		TemplateHandler: templateHandler,
		RateLimit:       rateLimitOpts,
		PublicRateLimit: publicRateLimitOpts,
	})

	logr.Debug("criando aplicação")
	application := app.New(cfg, logr, router)
	logr.Info("aplicação criada, iniciando servidor")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := application.Run(context.Background()); err != nil {
			logr.Error("servidor finalizado com erro", zap.Error(err))
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logr.Info("sinal de encerramento recebido",
			zap.String("signal", "SIGINT/SIGTERM"),
		)
	case err := <-errCh:
		if err != nil {
			logr.Error("servidor finalizado com erro", zap.Error(err))
		}
	}

	logr.Info("iniciando shutdown graceful")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if repos.RedisClient != nil {
		if err := repos.RedisClient.Close(); err != nil {
			logr.Warn("erro ao fechar conexão Redis", zap.Error(err))
		} else {
			logr.Info("conexão Redis fechada")
		}
	}

	if err := application.Shutdown(shutdownCtx); err != nil {
		logr.Error("erro ao encerrar servidor", zap.Error(err))
	} else {
		logr.Info("servidor encerrado com sucesso")
	}
}
