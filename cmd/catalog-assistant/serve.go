package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"catalog-assistant/internal/common/camunda"
	"catalog-assistant/internal/common/config"
	"catalog-assistant/internal/common/logger"
	"catalog-assistant/internal/server"
	productquery "catalog-assistant/internal/workers/conversation/product-query"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API and, when enabled, the workflow job worker",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zapLog.Info("Starting catalog assistant...", zap.String("version", cfg.App.Version))

	a, err := newApp(ctx, cfg, zapLog)
	if err != nil {
		return err
	}
	defer a.Close()

	// --- Workflow job worker ---
	if cfg.Camunda.Enabled {
		zc, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
		})
		if err != nil {
			return err
		}
		defer zc.Close()
		a.checks["zeebe"] = zc.HealthCheck

		handler := productquery.NewHandler(
			&productquery.Config{Timeout: config.GetDuration(cfg.Camunda.Timeout)},
			a.service,
			&productQueryLoggerAdapter{log},
		)
		w := camunda.NewWorker(zc.GetClient(), productquery.TaskType, cfg.Camunda.MaxJobsActive,
			config.GetDuration(cfg.Camunda.Timeout), handler, zapLog)
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			w.Stop(stopCtx)
		}()
	}

	// --- Chat API ---
	srv := server.New(a.service, server.Options{
		RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
		Checks:         a.checks,
	}, logger.ForComponent(log, "http"))

	if err := srv.ListenAndServe(ctx, cfg.Server.Address); err != nil {
		return fmt.Errorf("http server failed: %w", err)
	}
	zapLog.Info("Catalog assistant stopped gracefully")
	return nil
}

// productQueryLoggerAdapter narrows logger.Logger to the worker's own interface.
type productQueryLoggerAdapter struct {
	logger.Logger
}

func (a *productQueryLoggerAdapter) With(fields map[string]interface{}) productquery.Logger {
	return &productQueryLoggerAdapter{a.Logger.With(fields)}
}
