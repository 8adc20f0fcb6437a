package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v4/stdlib"

	"github.com/manzanit0/placefinder/cmd/web/api"
	"github.com/manzanit0/placefinder/cmd/web/history"
	"github.com/manzanit0/placefinder/pkg/env"
	"github.com/manzanit0/placefinder/pkg/geocode"
	"github.com/manzanit0/placefinder/pkg/logger"
	"github.com/manzanit0/placefinder/pkg/middleware"
	"github.com/manzanit0/placefinder/pkg/places"
	"github.com/manzanit0/placefinder/pkg/search"
	"github.com/manzanit0/placefinder/pkg/session"
	"github.com/manzanit0/placefinder/pkg/whttp"
)

const ServiceName = "web"

func main() {
	cfg, err := env.Load()
	if err != nil {
		panic(err)
	}

	logger.InitGlobalSlog(ServiceName, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server shutdown abruptly", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("server exited")
}

func run(ctx context.Context, cfg *env.Config) error {
	opts := []search.Option{search.WithThrottle(cfg.ThrottleInterval)}

	var hist api.History
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open db connection: %w", err)
		}

		defer func() {
			err = db.Close()
			if err != nil {
				slog.Error("close db connection", "error", err.Error())
			}
		}()

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}

		slog.Info("connected to the database successfully")

		repo := history.NewPgRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}

		hist = repo
		opts = append(opts, search.WithRecorder(repo))
	}

	if cfg.ReverseGeocode {
		opts = append(opts, search.WithAnnotator(geocode.NewOpenstreetmapClient()))
	}

	if cfg.GoogleMapsAPIKey == "" {
		slog.Info("no GOOGLE_MAPS_API_KEY provisioned, users will be asked for their own key")
	}

	placesClient := places.NewGoogleMapsClient(whttp.NewLoggingClient())
	orchestrator := search.NewOrchestrator(placesClient, placesClient, opts...)
	sessions := session.NewStore(cfg.GoogleMapsAPIKey)
	go sessions.Janitor(ctx, time.Minute, cfg.SessionTTL)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := newRouter(api.NewController(orchestrator, hist), sessions, cfg.Debug)

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: r}

	errs := make(chan error, 1)
	go func() {
		slog.Info(fmt.Sprintf("serving HTTP on :%s", cfg.Port))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}

		close(errs)
	}()

	// Listen for OS interrupt or a server failure.
	select {
	case <-ctx.Done():
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

// newRouter mounts the UI and the API behind the session middleware. Health
// checks don't get a session.
func newRouter(ctrl *api.Controller, sessions *session.Store, debug bool) *gin.Engine {
	r := gin.New()
	r.Use(middleware.TraceID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger(debug))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	ctrl.Register(r.Group("/", middleware.Session(sessions)))

	return r
}
