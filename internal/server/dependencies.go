package server

import (
	"context"
	"fmt"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/config"
	"github.com/sngm3741/delicious/api/internal/infrastructure/amqp"
	"github.com/sngm3741/delicious/api/internal/infrastructure/blob/local"
	"github.com/sngm3741/delicious/api/internal/infrastructure/blob/s3"
	"github.com/sngm3741/delicious/api/internal/infrastructure/memory"
	mongodoc "github.com/sngm3741/delicious/api/internal/infrastructure/mongo"
	"github.com/sngm3741/delicious/api/internal/infrastructure/resize"
	"github.com/sngm3741/delicious/api/internal/interfaces/http/public"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// blobStore is written by photo ingestion and read back by the /uploads route.
type blobStore interface {
	application.BlobStore
	public.PhotoReader
}

type dependencies struct {
	stores     application.StoreRepository
	aggregates application.StoreAggregates
	users      application.UserRepository
	pinger     Pinger
	blobs      blobStore
	resizer    application.ImageResizer
	events     application.EventPublisher
}

func (s *Server) buildDependencies(ctx context.Context, cfg config.Config) (*dependencies, error) {
	deps := &dependencies{resizer: resize.NewResizer()}

	if err := s.buildStorage(ctx, cfg, deps); err != nil {
		return nil, err
	}
	if err := s.buildBlobs(ctx, cfg, deps); err != nil {
		return nil, err
	}
	if err := s.buildEvents(cfg, deps); err != nil {
		return nil, err
	}
	return deps, nil
}

func (s *Server) buildStorage(ctx context.Context, cfg config.Config, deps *dependencies) error {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		catalog := memory.NewCatalog()
		deps.stores = catalog
		deps.aggregates = catalog
		deps.users = catalog.Users()
		deps.pinger = catalog
		s.logger.Warn("using in-memory storage; data is lost on restart")
		return nil
	case config.BackendMongo:
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	client, err := mongodoc.Connect(connectCtx, cfg.MongoURI)
	if err != nil {
		return err
	}
	s.onShutdown(func(ctx context.Context) {
		if err := client.Disconnect(ctx); err != nil {
			s.logger.Error("mongo disconnect failed", "error", err)
		}
	})
	s.logger.Info("mongo connected", "database", cfg.MongoDatabase)

	if cfg.AutoMigrate {
		if err := mongodoc.Migrate(client, cfg.MongoDatabase, s.logger); err != nil {
			return err
		}
	}

	db := client.Database(cfg.MongoDatabase)
	repo := mongodoc.NewStoreRepository(db)
	deps.stores = repo
	deps.aggregates = repo
	deps.users = mongodoc.NewUserRepository(db)
	deps.pinger = mongodoc.NewPinger(client)
	return nil
}

func (s *Server) buildBlobs(ctx context.Context, cfg config.Config, deps *dependencies) error {
	switch cfg.BlobBackend {
	case config.BlobS3:
		store, err := s3.NewPhotoStore(ctx, s3.Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UseSSL:          cfg.S3.UseSSL,
		}, s.logger)
		if err != nil {
			return err
		}
		deps.blobs = store
	case config.BlobLocal:
		store, err := local.NewPhotoStore(cfg.UploadsDir, s.logger)
		if err != nil {
			return err
		}
		deps.blobs = store
	default:
		return fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
	return nil
}

func (s *Server) buildEvents(cfg config.Config, deps *dependencies) error {
	if cfg.RabbitMQ.URL == "" {
		deps.events = amqp.LogPublisher{Logger: s.logger}
		return nil
	}
	publisher, err := amqp.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName, s.logger)
	if err != nil {
		return err
	}
	s.onShutdown(func(context.Context) { publisher.Close() })
	deps.events = publisher
	return nil
}
