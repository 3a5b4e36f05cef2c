package command

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"friendspark/api"
	"friendspark/cache"
	"friendspark/config"
	"friendspark/database"
	"friendspark/discovery"
	"friendspark/log"
	"friendspark/proximity"
)

func newServeCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	checks := make(map[string]api.HealthCheck)

	var store discovery.Store
	switch cfg.DB.Driver {
	case config.DriverMemory:
		store = database.NewMemoryStore()
	default:
		db, err := database.Open(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		store = database.NewEventStore(db)
		checks["postgres"] = pinger(db)
	}

	opts := []discovery.Option{
		discovery.WithSearchPrecision(cfg.Geo.SearchPrecision),
		discovery.WithLimit(cfg.Geo.Limit),
	}
	switch cfg.Geo.Index {
	case config.IndexRedis:
		rdb, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, discovery.WithIndex(cache.NewCellIndex(rdb, cfg.Geo.IndexedPrecision)))
		checks["redis"] = redisPinger(rdb)
	case config.IndexMemory:
		opts = append(opts, discovery.WithIndex(proximity.NewIndex()))
	}

	svc, err := discovery.New(store, opts...)
	if err != nil {
		return err
	}
	if _, err := svc.Reindex(ctx); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.RegisterRoutes(api.NewHandler(svc, checks), cfg.Server.AllowedOrigins, os.Stdout),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "server started",
			slog.String("addr", cfg.Server.Addr),
			slog.String("store", cfg.DB.Driver),
			slog.String("index", cfg.Geo.Index),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func pinger(db *sql.DB) api.HealthCheck {
	return db.PingContext
}

func redisPinger(rdb *redis.Client) api.HealthCheck {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
