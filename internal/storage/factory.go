package storage

import (
	"time"

	"go.uber.org/zap"

	"github.com/ailum-crm/ailum/internal/config"
	"github.com/ailum-crm/ailum/internal/inbox"
	inbox_memory "github.com/ailum-crm/ailum/internal/inbox/memory"
	inbox_redis "github.com/ailum-crm/ailum/internal/inbox/redis"
	"github.com/ailum-crm/ailum/internal/pkg/ratelimiter"
	limiter_memory "github.com/ailum-crm/ailum/internal/pkg/ratelimiter/memory"
	limiter_redis "github.com/ailum-crm/ailum/internal/pkg/ratelimiter/redis"
	"github.com/ailum-crm/ailum/internal/storage/postgres"
	storage_redis "github.com/ailum-crm/ailum/internal/storage/redis"
	"github.com/ailum-crm/ailum/internal/storage/sqlite"
)

type Repositories struct {
	User        UserRepository
	Board       BoardRepository
	Template    TemplateRepository
	Inbox       inbox.Store
	RedisClient *storage_redis.Client // Pode ser nil se Redis estiver desabilitado
	RateLimiter ratelimiter.Limiter
}

func NewRepositories(cfg config.Config, log *zap.Logger) (*Repositories, error) {
	log.Info("inicializando repositórios",
		zap.String("driver", cfg.Storage.Driver),
	)

	var (
		inboxStore  inbox.Store
		rateLimiter ratelimiter.Limiter
		storeRedis  *storage_redis.Client
		err         error
	)

	// Inicializa Redis apenas se explicitamente habilitado
	if cfg.Redis.Enabled {
		log.Info("inicializando Redis...")
		storeRedis, err = storage_redis.New(cfg.Redis, log)
		if err != nil {
			log.Error("erro ao conectar com Redis", zap.Error(err))
			return nil, err
		}

		redisClient := storeRedis.RDB()
		inboxStore = inbox_redis.NewStore(redisClient, cfg.Inbox.Cap, time.Duration(cfg.Inbox.TTLSeconds)*time.Second)
		rateLimiter = limiter_redis.NewLimiter(redisClient)
		log.Info("Redis conectado, buffer de eventos e limiter compartilhados")
	} else {
		log.Info("usando implementações em memória (Redis desabilitado)")
		inboxStore = inbox_memory.NewStore(cfg.Inbox.Cap)
		rateLimiter = limiter_memory.NewLimiter()
		storeRedis = nil
	}

	switch cfg.Storage.Driver {
	case "sqlite", "":
		log.Debug("criando conexão com SQLite")
		db, err := sqlite.New(cfg.Storage.DataDir, log)
		if err != nil {
			log.Error("erro ao conectar com SQLite", zap.Error(err))
			return nil, err
		}

		log.Info("repositórios SQLite criados com sucesso", zap.String("data_dir", cfg.Storage.DataDir))
		return &Repositories{
			User:        sqlite.NewUserRepository(db),
			Board:       sqlite.NewBoardRepository(db),
			Template:    sqlite.NewTemplateRepository(db),
			Inbox:       inboxStore,
			RedisClient: storeRedis,
			RateLimiter: rateLimiter,
		}, nil

	case "postgres":
		log.Debug("criando conexão com PostgreSQL")
		db, err := postgres.New(cfg.DB, log)
		if err != nil {
			log.Error("erro ao conectar com PostgreSQL", zap.Error(err))
			return nil, err
		}

		log.Info("repositórios PostgreSQL criados com sucesso")
		return &Repositories{
			User:        postgres.NewUserRepository(db),
			Board:       postgres.NewBoardRepository(db),
			Template:    postgres.NewTemplateRepository(db),
			Inbox:       inboxStore,
			RedisClient: storeRedis,
			RateLimiter: rateLimiter,
		}, nil

	default:
		log.Error("driver de storage desconhecido",
			zap.String("driver", cfg.Storage.Driver),
		)
		return nil, &ErrUnknownDriver{Driver: cfg.Storage.Driver}
	}
}

type ErrUnknownDriver struct {
	Driver string
}

func (e *ErrUnknownDriver) Error() string {
	return "storage: driver desconhecido: " + e.Driver
}
