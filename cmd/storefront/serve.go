package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"storefront-service/handlers"
	"storefront-service/internal/auth"
	"storefront-service/internal/catalog"
	"storefront-service/internal/consul"
	"storefront-service/internal/contact"
	"storefront-service/internal/orders"
	"storefront-service/pkg/logkey"
	"storefront-service/pkg/obs"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			slog.Error("failed to shut down tracer", slog.String(logkey.ERROR, err.Error()))
		}
	}()

	db, store, err := openLedger(ctx, cfg.MigrateOnBoot)
	if err != nil {
		return err
	}
	defer db.Close()

	sc, err := newStripeClient()
	if err != nil {
		return err
	}

	var events orders.EventPublisher
	k, err := newPublisher(ctx)
	if err != nil {
		return err
	}
	if k != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := k.Flush(ctx); err != nil {
				slog.Warn("kafka flush incomplete", slog.String(logkey.ERROR, err.Error()))
			}
			k.Close()
		}()
		events = k
	}

	catalogSvc, err := catalog.NewService(store, sc)
	if err != nil {
		return err
	}
	orderSvc, err := orders.NewService(catalogSvc, sc, store, events)
	if err != nil {
		return err
	}
	contactSvc, err := contact.NewService(store, events)
	if err != nil {
		return err
	}

	var keys *auth.Keys
	if cfg.JWTSecret != "" {
		if keys, err = auth.NewKeys(cfg.JWTSecret); err != nil {
			return err
		}
	} else {
		slog.Warn("JWT_SECRET not set, admin routes disabled")
	}
	if !sc.HasWebhookSecret() {
		slog.Warn("STRIPE_WEBHOOK_SECRET not set, webhook route disabled")
	}

	setGinMode(cfg.GinMode)
	h, err := handlers.NewHandler(catalogSvc, orderSvc, contactSvc, sc)
	if err != nil {
		return err
	}
	engine, err := handlers.API(h, keys)
	if err != nil {
		return err
	}

	api := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	if cfg.ConsulAddr != "" {
		deregister := registerWithConsul()
		defer deregister()
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("main: API listening", slog.String("Addr", api.Addr))
		serverErrors <- api.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("main: start shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			_ = api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		slog.Info("main: shutdown complete")
		return nil
	}
}

// registerWithConsul is best effort; the service runs without discovery.
func registerWithConsul() func() {
	client, err := consul.NewClient(cfg.ConsulAddr)
	if err != nil {
		slog.Warn("consul unavailable", slog.String(logkey.ERROR, err.Error()))
		return func() {}
	}
	id, err := consul.RegisterService(client, cfg.ServiceName, cfg.ServiceHost, cfg.HTTPAddr)
	if err != nil {
		slog.Warn("consul registration failed", slog.String(logkey.ERROR, err.Error()))
		return func() {}
	}
	slog.Info("registered with consul", slog.String("ServiceID", id))
	return func() {
		if err := consul.DeregisterService(client, id); err != nil {
			slog.Warn("consul deregistration failed", slog.String(logkey.ERROR, err.Error()))
		}
	}
}

func setGinMode(mode string) {
	switch mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(mode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
