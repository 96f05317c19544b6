package main

import (
	"context"

	"go.uber.org/zap"

	"gitlab.com/crmbridge/contacts-sync/internal/config"
	"gitlab.com/crmbridge/contacts-sync/internal/dispatch"
	"gitlab.com/crmbridge/contacts-sync/internal/integration"
	"gitlab.com/crmbridge/contacts-sync/internal/logger"
	"gitlab.com/crmbridge/contacts-sync/internal/repository"
	"gitlab.com/crmbridge/contacts-sync/internal/service"
	"gitlab.com/crmbridge/contacts-sync/pkg/dummyjson"
)

// Usage example on the command line:
// > SYNC_STORE_BACKEND=memory SYNC_APP_PORT=8080 GIN_MODE=release go run main.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	store, err := createStore(cfg)
	if err != nil {
		log.Fatal("could not initialize contact store",
			zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}

	directory := dummyjson.NewClient(cfg.Directory.BaseURL, cfg.Directory.Timeout)
	syncer := integration.New(store, directory, log, nil)

	dispatcher := dispatch.New(dispatch.Config{
		Workers:    cfg.Dispatch.Workers,
		QueueSize:  cfg.Dispatch.QueueSize,
		JobTimeout: cfg.Dispatch.JobTimeout,
	}, log)
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	server := service.NewServer(syncer, store, dispatcher, log)
	router := server.SetupHttpRouter()
	log.Info("contacts-sync listening",
		zap.String("port", cfg.App.Port),
		zap.String("directory", cfg.Directory.BaseURL),
		zap.String("store", cfg.Store.Backend))
	if err := router.Run(":" + cfg.App.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func createStore(cfg *config.Config) (integration.ContactStore, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return repository.NewMemoryStore(), nil
	case config.BackendPostgres:
		return repository.NewPostgresStore(cfg.Store.PostgresDSN)
	default:
		sqlDB, err := repository.CreateDatabase()
		if err != nil {
			return nil, err
		}
		return repository.NewMySQLStore(sqlDB)
	}
}
