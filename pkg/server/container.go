package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"pos-engine/internal/adapters/storage"
	"pos-engine/internal/config"
	"pos-engine/internal/database"
	"pos-engine/internal/events"
	"pos-engine/internal/handlers"
	"pos-engine/internal/logging"
	"pos-engine/internal/middleware"
	"pos-engine/internal/repositories/sqlite"
	"pos-engine/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logrus.Logger
	Services    *services.ServiceContainer
	AuthService *middleware.AuthService
	Hub         *events.Hub

	// Internal dependencies
	db        *sql.DB
	repos     *sqlite.SQLiteRepositoryManager
	logCloser io.Closer
	scheduler *cron.Cron
	cancel    context.CancelFunc
	router    *gin.Engine
}

// NewContainer creates a new dependency injection container. It opens the
// database, seeds the shop and admin account on first start and starts the
// event hub and backup schedule.
func NewContainer(cfg *config.Config) (*Container, error) {
	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c := &Container{
		Config:    cfg,
		Logger:    logger,
		logCloser: logCloser,
	}

	if err := c.init(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) init() error {
	cfg := c.Config
	logger := c.Logger

	connCfg := cfg.Database.ToConnectionConfig(logger)
	var err error
	if cfg.Database.AutoMigrate {
		c.db, err = database.InitializeDatabase(connCfg)
	} else {
		c.db, err = database.Open(connCfg)
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	c.repos = sqlite.NewSQLiteRepositoryManager(c.db, logger)

	var retry *storage.RetryConfig
	if cfg.Storage.Retry {
		retry = storage.DefaultRetryConfig()
	}
	store, err := storage.NewFactory(retry, logger).Create(cfg.Storage.ToStorageConfig())
	if err != nil {
		return fmt.Errorf("failed to create backup store: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.Hub = events.NewHub(logger, cfg.CORS.AllowedOrigins)
	go c.Hub.Run(ctx)

	c.Services, err = services.NewServiceContainer(c.repos, store, c.Hub, &services.ServiceConfig{
		BackupRetention: cfg.Backup.Retention,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create service container: %w", err)
	}
	if err := c.Services.Validate(); err != nil {
		return fmt.Errorf("invalid service container: %w", err)
	}

	if err := c.Services.Shop.EnsureDefaults(ctx, cfg.Shop.ToShopInfo()); err != nil {
		return fmt.Errorf("failed to seed shop info: %w", err)
	}
	if _, err := c.Services.User.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.PIN); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	c.AuthService = middleware.NewAuthService(&middleware.AuthConfig{
		JWTSecret:     cfg.JWT.Secret,
		TokenDuration: cfg.TokenDuration(),
		Issuer:        cfg.JWT.Issuer,
	})

	if cfg.Backup.Schedule != "" {
		if err := c.scheduleBackups(ctx, cfg.Backup.Schedule); err != nil {
			return err
		}
	}

	logger.WithFields(logrus.Fields{
		"database": cfg.Database.Path,
		"storage":  cfg.Storage.Type,
		"mode":     config.GetDeploymentMode(),
	}).Info("Container initialized")

	return nil
}

// scheduleBackups registers a cron job exporting a snapshot on spec
func (c *Container) scheduleBackups(ctx context.Context, spec string) error {
	c.scheduler = cron.New()
	_, err := c.scheduler.AddFunc(spec, func() {
		result, err := c.Services.Backup.Export(ctx)
		if err != nil {
			c.Logger.WithError(err).Error("Scheduled backup failed")
			return
		}
		c.Logger.WithFields(logrus.Fields{
			"key":  result.Key,
			"size": result.Size,
		}).Info("Scheduled backup written")
	})
	if err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	c.scheduler.Start()
	return nil
}

// Router returns the HTTP handler, building it on first use
func (c *Container) Router() *gin.Engine {
	if c.router == nil {
		if c.Config.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}
		c.router = handlers.NewRouter(&handlers.RouterConfig{
			Services:          c.Services,
			AuthService:       c.AuthService,
			Hub:               c.Hub,
			Logger:            c.Logger,
			HealthCheck:       c.repos.Health,
			AllowedOrigins:    c.Config.CORS.AllowedOrigins,
			RequestsPerSecond: c.Config.RateLimit.RequestsPerSecond,
			Burst:             c.Config.RateLimit.Burst,
		})
	}
	return c.router
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.scheduler != nil {
		<-c.scheduler.Stop().Done()
	}
	if c.cancel != nil {
		c.cancel()
		if c.Hub != nil {
			<-c.Hub.Done()
		}
	}

	var firstErr error
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close database: %w", err)
		}
	}
	if c.logCloser != nil {
		if err := c.logCloser.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close log file: %w", err)
		}
	}
	return firstErr
}
