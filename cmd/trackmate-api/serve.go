package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	httpadapter "github.com/PabloGalante/trackmate-insights/internal/adapters/http"
	memstore "github.com/PabloGalante/trackmate-insights/internal/adapters/storage/memory"
	"github.com/PabloGalante/trackmate-insights/internal/app/personalization"
	"github.com/PabloGalante/trackmate-insights/internal/app/recommendation"
	"github.com/PabloGalante/trackmate-insights/internal/app/stats"
	"github.com/PabloGalante/trackmate-insights/internal/config"
	"github.com/PabloGalante/trackmate-insights/internal/observability"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := observability.Logger()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	gateway, err := buildGateway(ctx, cfg)
	if err != nil {
		return err
	}

	statsSvc := stats.NewService(store, store, loc)
	builder := personalization.NewBuilder(store)
	recSvc := recommendation.NewService(builder, gateway, memstore.NewRecommendationCache(), cfg.Advice.WindowHours)

	if cfg.Mode == config.ModeGCP {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := httpadapter.NewServer(statsSvc, recSvc, httpadapter.Options{
		JWTSecret: cfg.Auth.JWTSecret,
		Cooldown:  cfg.Advice.Cooldown,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("Track_Mate insights API listening",
			"port", cfg.Port,
			"mode", cfg.Mode,
			"storage", cfg.Storage.Backend,
			"advice", cfg.Advice.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
