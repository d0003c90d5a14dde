package main

import (
	"context"
	"fmt"
	"time"

	"github.com/PabloGalante/trackmate-insights/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/trackmate-insights/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/trackmate-insights/internal/adapters/storage/memory"
	mongostore "github.com/PabloGalante/trackmate-insights/internal/adapters/storage/mongo"
	"github.com/PabloGalante/trackmate-insights/internal/config"
	"github.com/PabloGalante/trackmate-insights/internal/domain"
	"github.com/PabloGalante/trackmate-insights/internal/observability"
)

// buildStore opens the configured record store. The returned func releases it.
func buildStore(ctx context.Context, cfg *config.Config) (domain.RecordStore, func(), error) {
	log := observability.Logger()

	switch cfg.Storage.Backend {
	case "firestore":
		log.Infow("using Firestore storage", "project", cfg.Storage.GCPProjectID)
		fs, err := firestorestore.NewStore(ctx, cfg.Storage.GCPProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing Firestore store: %w", err)
		}
		return fs, func() { _ = fs.Close() }, nil

	case "mongo":
		log.Infow("using MongoDB storage", "database", cfg.Storage.MongoDatabase)
		ms, err := mongostore.NewStore(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing Mongo store: %w", err)
		}
		return ms, func() { _ = ms.Close(context.Background()) }, nil

	default:
		store := memstore.NewStore()
		if cfg.Storage.SeedScenario != "" {
			if err := memstore.Seed(store, cfg.Storage.SeedScenario, time.Now()); err != nil {
				return nil, nil, err
			}
			log.Infow("using in-memory storage with demo data",
				"scenario", cfg.Storage.SeedScenario,
				"user_id", memstore.DemoUserID,
			)
		} else {
			log.Infow("using in-memory storage")
		}
		return store, func() {}, nil
	}
}

// buildGateway selects the advice backend.
func buildGateway(ctx context.Context, cfg *config.Config) (domain.AdviceGateway, error) {
	policy := llm.RetryPolicy{
		MaxRetries:     cfg.Advice.MaxRetries,
		InitialBackoff: cfg.Advice.InitialBackoff,
		AttemptTimeout: cfg.Advice.RequestTimeout,
	}
	log := observability.Logger()

	switch cfg.Advice.Backend {
	case "rest":
		log.Infow("using REST advice backend", "model", cfg.Advice.Model)
		gw, err := llm.NewRESTGateway(ctx, llm.RESTConfig{
			BaseURL: cfg.Advice.BaseURL,
			Model:   cfg.Advice.Model,
			APIKey:  cfg.Advice.APIKey,
			Policy:  policy,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing REST gateway: %w", err)
		}
		return gw, nil

	case "vertex":
		log.Infow("using Vertex advice backend",
			"project", cfg.Advice.GCPProjectID,
			"location", cfg.Advice.GCPLocation,
			"model", cfg.Advice.Model,
		)
		gw, err := llm.NewVertexGateway(ctx, cfg.Advice.GCPProjectID, cfg.Advice.GCPLocation, cfg.Advice.Model, policy)
		if err != nil {
			return nil, fmt.Errorf("initializing Vertex gateway: %w", err)
		}
		return gw, nil

	default:
		log.Infow("using mock advice backend")
		return llm.NewMockGateway(), nil
	}
}
