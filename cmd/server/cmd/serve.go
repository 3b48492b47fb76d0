package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/alimgiray/formpilot/internal/handlers"
	"github.com/alimgiray/formpilot/internal/workers"
	"github.com/alimgiray/formpilot/pkg/database"
	"github.com/alimgiray/formpilot/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and email rule workers",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "HTTP port (overrides PORT)")
	serveCmd.Flags().Int("workers", -1, "email rule workers (overrides EMAIL_RULE_WORKERS)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetString("port")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Worker.EmailRuleWorkers, _ = cmd.Flags().GetInt("workers")
	}

	gin.SetMode(cfg.Server.Mode)

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	workerManager := workers.NewWorkerManager(a.jobService, a.jobService, a.pipeline, cfg.Worker)
	if err := workerManager.StartAll(); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	defer workerManager.StopAll()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.SetupRouter(a.handlers, cfg),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
