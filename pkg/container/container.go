package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/config"
	infraCache "product-importer-backend/internal/infrastructure/cache"
	"product-importer-backend/internal/infrastructure/database"
	"product-importer-backend/internal/infrastructure/storage"
	"product-importer-backend/pkg/cache"

	importerHandler "product-importer-backend/internal/domains/importer/handler"
	importerRepo "product-importer-backend/internal/domains/importer/repository"
	importerService "product-importer-backend/internal/domains/importer/service"
	productHandler "product-importer-backend/internal/domains/product/handler"
	productRepo "product-importer-backend/internal/domains/product/repository"
	productService "product-importer-backend/internal/domains/product/service"
	webhookHandler "product-importer-backend/internal/domains/webhook/handler"
	webhookRepo "product-importer-backend/internal/domains/webhook/repository"
	webhookService "product-importer-backend/internal/domains/webhook/service"
)

// Container is the root of the dependency graph, shared by the API and the
// worker binaries. Initialization order: config → infrastructure →
// repositories → services → handlers.
type Container struct {
	Config *config.Config

	// Infrastructure
	DB          *database.PostgresDB
	Cache       cache.Cache
	Redis       *infraCache.RedisCache
	AsynqClient *asynq.Client
	FileSource  storage.FileSource

	// Repositories
	ProductRepo productRepo.Repository
	JobRepo     importerRepo.Repository
	WebhookRepo webhookRepo.Repository

	// Services
	Dispatcher      *webhookService.Dispatcher
	ProductService  productService.ProductService
	WebhookService  webhookService.WebhookService
	DeliveryService *webhookService.DeliveryService
	ImportService   *importerService.ImportService

	// HTTP handlers
	ProductHandler *productHandler.ProductHandler
	WebhookHandler *webhookHandler.WebhookHandler
	JobHandler     *importerHandler.JobHandler
	UploadHandler  *importerHandler.UploadHandler
}

// NewContainer builds the full dependency graph.
func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Info().Str("environment", cfg.App.Environment).Msg("Config loaded")

	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Info().Msg("Container initialized")
	return c, nil
}

func (c *Container) initInfrastructure() error {
	// PostgreSQL
	db := database.NewPostgresDB(c.Config.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db

	// Redis: cache, progress pub/sub and the asynq broker all share it.
	redisCache := infraCache.NewRedisCache(
		c.Config.Redis.Host,
		c.Config.Redis.Password,
		c.Config.Redis.DB,
	)
	if err := redisCache.Connect(context.Background()); err != nil {
		// Degraded but usable for reads; asynq will surface its own errors.
		log.Warn().Err(err).Msg("Redis connection failed")
	}
	c.Redis = redisCache
	c.Cache = redisCache

	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})

	// Upload storage
	switch c.Config.Upload.Backend {
	case "minio":
		fs, err := storage.NewMinIOFileSource(c.Config.MinIO)
		if err != nil {
			return fmt.Errorf("failed to init minio storage: %w", err)
		}
		c.FileSource = fs
	default:
		fs, err := storage.NewLocalFileSource(c.Config.Upload.Dir)
		if err != nil {
			return fmt.Errorf("failed to init local storage: %w", err)
		}
		c.FileSource = fs
	}

	return nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.ProductRepo = productRepo.NewPostgresRepository(pool)
	c.JobRepo = importerRepo.NewPostgresRepository(pool)
	c.WebhookRepo = webhookRepo.NewPostgresRepository(pool)
}

func (c *Container) initServices() {
	c.Dispatcher = webhookService.NewDispatcher(
		c.WebhookRepo,
		c.Cache,
		c.AsynqClient,
		c.Config.Webhook.MaxAttempts,
	)

	c.ProductService = productService.NewProductService(c.ProductRepo, c.Dispatcher)
	c.WebhookService = webhookService.NewWebhookService(c.WebhookRepo, c.Cache)
	c.DeliveryService = webhookService.NewDeliveryService(c.WebhookRepo, c.Config.Webhook.Timeout)

	c.ImportService = importerService.NewImportService(
		c.JobRepo,
		importerService.NewResolver(c.ProductRepo),
		c.DB.Pool,
		c.FileSource,
		importerService.NewRedisProgressPublisher(c.Redis.Client),
		c.Dispatcher,
		c.AsynqClient,
		c.Config.Import.BatchSize,
	)
}

func (c *Container) initHandlers() {
	c.ProductHandler = productHandler.NewProductHandler(c.ProductService)
	c.WebhookHandler = webhookHandler.NewWebhookHandler(c.WebhookService)
	c.JobHandler = importerHandler.NewJobHandler(c.ImportService)
	c.UploadHandler = importerHandler.NewUploadHandler(
		c.ImportService,
		c.FileSource,
		c.Config.Upload.MaxSizeBytes,
	)
}

// Cleanup releases shared resources during graceful shutdown.
func (c *Container) Cleanup() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close asynq client")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	log.Info().Msg("Container resources released")
}
