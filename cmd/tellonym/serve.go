package main

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-tellonym/internal/config"
	"github.com/tbourn/go-tellonym/internal/discord"
	"github.com/tbourn/go-tellonym/internal/domain"
	httpapi "github.com/tbourn/go-tellonym/internal/http"
	"github.com/tbourn/go-tellonym/internal/http/handlers"
	"github.com/tbourn/go-tellonym/internal/interaction"
	"github.com/tbourn/go-tellonym/internal/observability"
	"github.com/tbourn/go-tellonym/internal/ratelimit"
	"github.com/tbourn/go-tellonym/internal/render"
	"github.com/tbourn/go-tellonym/internal/repo"
	"github.com/tbourn/go-tellonym/internal/services"
	"github.com/tbourn/go-tellonym/internal/state"
	"github.com/tbourn/go-tellonym/internal/workflow"
)

// serve wires every component and blocks until SIGINT/SIGTERM or a fatal
// server error. In-flight follow-ups are drained before returning.
func serve(parent context.Context, cfg config.Config, log zerolog.Logger) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	pub, err := cfg.PublicKeyBytes()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version, cfg.DeploymentID)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	defaults := domain.DefaultSettings(cfg.DeploymentID)
	defaults.RateLimit = cfg.DefaultRateLimit
	defaults.RateWindowMinutes = cfg.DefaultRateWindowMinutes
	store := repo.NewConfigStore(db, cfg.DeploymentID, defaults)

	states := state.NewStore(state.SystemClock{}, cfg.StateTTL)
	sweeper := state.NewSweeper(states, cfg.SweepInterval, log)

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("load card assets: %w", err)
	}
	dc, err := discord.New(cfg.Discord.Token, log)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}

	engine := &workflow.Engine{
		Config:    store,
		Limiter:   ratelimit.New(store, nil),
		Store:     states,
		Renderer:  renderer,
		Resolver:  dc,
		Publisher: dc,
		Log:       log.With().Str("component", "workflow").Logger(),
	}
	admin := &services.AdminService{Store: store}
	router := &interaction.Router{
		Engine: engine,
		Admin:  admin,
		Log:    log.With().Str("component", "router").Logger(),
	}
	webhook := handlers.NewInteractions(router, dc, log)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, cfg, httpapi.Deps{
		Interactions: webhook,
		Admin:        admin,
		PublicKey:    ed25519.PublicKey(pub),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sweeper.Run(gctx) })
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("version", version).Str("deployment", cfg.DeploymentID).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		if werr := webhook.Wait(sctx); werr != nil {
			log.Warn().Err(werr).Msg("follow-ups still running at shutdown")
		}
		return err
	})
	return g.Wait()
}
