package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"chat-sentiment/backend/ai"
	"chat-sentiment/backend/conversation/repository"
	convservice "chat-sentiment/backend/conversation/service"
	"chat-sentiment/backend/pkg/cache"
	"chat-sentiment/backend/pkg/config"
	"chat-sentiment/backend/pkg/health"
	"chat-sentiment/backend/pkg/logger"
	"chat-sentiment/backend/pkg/secrets"
	"chat-sentiment/backend/sentiment"
	"chat-sentiment/backend/shared/redis"
	userrepo "chat-sentiment/backend/user/repository"
	userservice "chat-sentiment/backend/user/service"

	"github.com/dgraph-io/badger/v4"
	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	DB      *gorm.DB
	KV      *badger.DB
	Redis   *redis.RedisClient
	Secrets *secrets.VaultManager

	Messages      repository.MessageRepository
	Users         userrepo.UserRepository
	snapshotCache *cache.Cache

	Rules      *sentiment.Rules
	Remote     *ai.SentimentClient
	Classifier *sentiment.Pipeline

	MessageService *convservice.MessageService
	UserService    *userservice.UserService
	Health         *health.Checker
}

// New wires the application from configuration. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.GetGlobal()
	}
	c := &Container{Config: cfg, Logger: log}

	secretManager, err := secrets.NewVaultManager(cfg.Secrets, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets: %w", err)
	}
	c.Secrets = secretManager
	if cfg.Database.Password == "" {
		cfg.Database.Password = secretManager.GetSecretWithDefault(ctx, secrets.KeyDatabasePassword, "")
	}

	if err := c.openStore(cfg); err != nil {
		_ = c.Close()
		return nil, err
	}

	if err := c.wrapCache(ctx, cfg); err != nil {
		_ = c.Close()
		return nil, err
	}

	if err := c.buildClassifier(ctx, cfg); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.MessageService = convservice.NewMessageService(c.Messages, c.Classifier, log)
	c.UserService = userservice.NewUserService(c.Users, log)

	c.Health = health.NewChecker(log, cfg.Observability.HealthInterval, cfg.Server.Version)
	c.Health.RegisterDatabaseCheck(c.Messages.Ping)
	c.Health.RegisterProcessCheck(90)
	if c.Remote != nil {
		c.Health.RegisterAPICheck("sentiment", c.Remote.Endpoint(), &http.Client{Timeout: cfg.Services.SentimentTimeout})
	}
	if c.Redis != nil {
		c.Health.RegisterCheck("redis", false, func(ctx context.Context) (health.Status, string, error) {
			if err := c.Redis.Ping(ctx); err != nil {
				return health.StatusDegraded, "Snapshot cache unreachable", err
			}
			return health.StatusUp, "Snapshot cache reachable", nil
		})
	}

	return c, nil
}

func (c *Container) openStore(cfg *config.Config) error {
	switch cfg.Database.Driver {
	case config.DriverBadger:
		kv, err := config.NewBadger(cfg)
		if err != nil {
			return err
		}
		c.KV = kv
		c.Messages = repository.NewBadgerMessageRepository(kv)
		c.Users = userrepo.NewBadgerUserRepository(kv)
	default:
		db, err := config.NewDB(cfg)
		if err != nil {
			return err
		}
		c.DB = db

		messages := repository.NewGormMessageRepository(db)
		if err := messages.Migrate(); err != nil {
			return fmt.Errorf("failed to migrate messages: %w", err)
		}
		users := userrepo.NewGormUserRepository(db)
		if err := users.Migrate(); err != nil {
			return fmt.Errorf("failed to migrate users: %w", err)
		}
		c.Messages = messages
		c.Users = users
	}

	c.Logger.Info("Message store opened", "driver", cfg.Database.Driver)
	return nil
}

func (c *Container) wrapCache(ctx context.Context, cfg *config.Config) error {
	if !cfg.Cache.Enabled {
		return nil
	}

	if cfg.Cache.RedisURL != "" {
		client, err := redis.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.Redis = client
		c.Messages = repository.NewCachedMessageRepository(c.Messages,
			repository.NewRedisSnapshotCache(client, cfg.Database.Namespace(), cfg.Cache.TTL, c.Logger), c.Logger)
		c.Logger.Info("Snapshot cache enabled", "backend", "redis")
		return nil
	}

	c.snapshotCache = cache.NewCache(cache.Options{
		TTL:             cfg.Cache.TTL,
		CleanupInterval: cfg.Cache.PurgeWindow,
		MaxItems:        cfg.Cache.MaxSize,
	})
	c.Messages = repository.NewCachedMessageRepository(c.Messages,
		repository.NewMemorySnapshotCache(c.snapshotCache), c.Logger)
	c.Logger.Info("Snapshot cache enabled", "backend", "memory", "max_items", cfg.Cache.MaxSize)
	return nil
}

func (c *Container) buildClassifier(ctx context.Context, cfg *config.Config) error {
	keywords := sentiment.DefaultKeywords()
	if cfg.Classifier.KeywordsPath != "" {
		loaded, err := sentiment.LoadKeywords(cfg.Classifier.KeywordsPath)
		if err != nil {
			return fmt.Errorf("failed to load keywords: %w", err)
		}
		keywords = loaded
	}

	rules, err := sentiment.NewRules(keywords)
	if err != nil {
		return fmt.Errorf("failed to build keyword rules: %w", err)
	}
	c.Rules = rules

	var remote sentiment.RemoteClassifier
	if cfg.Services.SentimentURL != "" {
		client, err := ai.NewSentimentClient(ai.SentimentClientConfig{
			BaseURL: cfg.Services.SentimentURL,
			Timeout: cfg.Services.SentimentTimeout,
			APIKey:  c.Secrets.GetSecretWithDefault(ctx, secrets.KeySentimentToken, ""),
		}, c.Logger)
		if err != nil {
			return err
		}
		c.Remote = client
		remote = client
		c.Logger.Info("Remote classifier enabled", "endpoint", client.Endpoint())
	} else {
		c.Logger.Info("Remote classifier disabled, using keyword rules only")
	}

	c.Classifier = sentiment.NewPipeline(rules, remote, c.Logger)
	return nil
}

// Close releases every store and client the container opened.
func (c *Container) Close() error {
	var errs []error

	if c.snapshotCache != nil {
		c.snapshotCache.Close()
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if c.KV != nil {
		errs = append(errs, c.KV.Close())
	}

	return errors.Join(errs...)
}
