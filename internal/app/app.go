// Package app wires the storefront services from configuration. Both the
// daemon and the shopctl tool start from Open.
package app

import (
	"context"
	"errors"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/cart"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/checkout"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/cms"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/coins"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/config"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/events"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/fallback"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/grpc"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/metrics"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/repo"
	"go.uber.org/zap"
)

// App holds the connected dependencies and the services built on them.
// DB, Redis, Publisher and Wallet are nil when not configured.
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	DB        *db.DB
	Redis     *fallback.RedisDocuments
	Docs      fallback.Documents
	Publisher *events.Publisher
	Metrics   *metrics.Metrics

	Content  *repo.Content
	Carts    *cart.Store
	Checkout *checkout.Service
	Wallet   *coins.Wallet
	Roles    *repo.RoleRepository
}

// Open connects to every configured dependency. A database or broker that
// cannot be reached is logged and left out; content is then served from the
// local documents.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, Metrics: metrics.New()}

	if cfg.Database.Disabled {
		log.Warn("Database disabled, serving content from local documents")
	} else {
		log.Info("Connecting to database...", zap.String("driver", cfg.Database.Driver))
		database, err := db.Connect(cfg.Database)
		if err == nil {
			err = database.Ping()
		}
		if err != nil {
			log.Warn("Database unavailable, serving content from local documents", zap.Error(err))
		} else {
			log.Info("Running database migrations...")
			if err := db.RunMigrations(database); err != nil {
				database.Close()
				return nil, err
			}
			a.DB = database
		}
	}

	a.Docs = fallback.NewMemoryDocuments()
	if cfg.Redis.Addr != "" {
		docs, err := fallback.NewRedisDocuments(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = docs
		a.Docs = docs
	} else {
		log.Warn("REDIS_ADDR not set; local documents live in memory")
	}

	var notifier cms.Notifier = cms.NoopNotifier{}
	if cfg.RabbitMQ.URL != "" {
		publisher, err := events.NewPublisher(cfg.RabbitMQ.URL, log)
		if err != nil {
			log.Warn("RabbitMQ unavailable, content events disabled", zap.Error(err))
		} else {
			a.Publisher = publisher
			notifier = publisher
		}
	}

	a.Content = repo.NewContent(repo.Options{
		DB:       a.DB,
		Docs:     a.Docs,
		Notifier: notifier,
		Recorder: a.Metrics,
		Logger:   log,
	})
	a.Carts = cart.NewStore(a.Docs)
	a.Checkout = checkout.NewService(a.Content.Products, a.Content.Orders, a.Carts, nil, log)
	a.Roles = repo.NewRoleRepository(a.DB, log)
	if a.DB != nil {
		a.Wallet = coins.NewWallet(a.DB, a.Content.CoinPackages, log)
	}
	return a, nil
}

// Consumer subscribes to content events so this instance's mirror follows
// writes made elsewhere. It returns nil without a broker or database.
func (a *App) Consumer() (*events.Consumer, error) {
	if a.Config.RabbitMQ.URL == "" || a.DB == nil {
		return nil, nil
	}
	return events.NewConsumer(a.Config.RabbitMQ.URL, a.Config.ServiceName, a.Content, func(err error) bool {
		return errors.Is(err, repo.ErrUnknownCollection)
	}, a.Log)
}

// HealthChecks lists the probes for the health server. The database is
// optional because content falls back to local documents without it.
func (a *App) HealthChecks() []grpc.Check {
	checks := []grpc.Check{{
		Name: "documents",
		Probe: func(ctx context.Context) error {
			_, _, err := a.Docs.Get(ctx, "healthcheck")
			return err
		},
	}}
	if a.DB != nil {
		checks = append(checks, grpc.Check{
			Name:     "database",
			Optional: true,
			Probe:    func(context.Context) error { return a.DB.Ping() },
		})
	}
	if a.Publisher != nil {
		checks = append(checks, grpc.Check{
			Name:     "rabbitmq",
			Optional: true,
			Probe: func(context.Context) error {
				if !a.Publisher.IsHealthy() {
					return errors.New("connection closed")
				}
				return nil
			},
		})
	}
	return checks
}

// Close releases every connection Open made.
func (a *App) Close() {
	if a.Publisher != nil {
		a.Publisher.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
