package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coolshop/kbbridge/pkg/db"
	"github.com/coolshop/kbbridge/pkg/kbapi"
	"github.com/coolshop/kbbridge/pkg/kbapi/config"
	"github.com/coolshop/kbbridge/pkg/kbapi/routes"
	"github.com/coolshop/kbbridge/pkg/kbapi/services"
	"github.com/coolshop/kbbridge/pkg/kblog"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Serve the OAuth and uninstall endpoints",
	Long: `Loads configuration from the environment (and .env in development),
opens and migrates the installation database, then serves the Ada install
flow until interrupted.`,
	Run: run,
}

var shutdownTimeout time.Duration

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "Time allowed for in-flight requests on shutdown")
}

func run(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg, err := config.ValidateEnv()
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	cfg.Print(log.Printf)
	logger := kblog.FromLevel(cfg.LogLevel)

	database, err := db.New(ctx, cfg.DBConfig())
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	defer database.Close()

	// An in-memory database starts empty on every boot.
	if err := db.Migrate(ctx, database, logger); err != nil {
		logger.Fatalf("failed to migrate database: %v", err)
	}

	kvStore, err := services.NewKV(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to initialize replay ledger: %v", err)
	}
	defer kvStore.Close()

	catalog, err := services.NewCatalog(cfg)
	if err != nil {
		logger.Fatalf("failed to initialize article catalog: %v", err)
	}

	svcs, err := services.NewServices(cfg, database, kvStore, catalog, logger)
	if err != nil {
		logger.Fatalf("failed to initialize services: %v", err)
	}

	api := kbapi.NewApi()
	routes.RegisterAPI(api.Api, svcs)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	publicURL := cfg.BaseURL
	if publicURL == "" {
		publicURL = "http://localhost" + addr
	}

	log.Printf("🚀 Bridge starting on %s\n", addr)
	log.Printf("📚 OpenAPI docs: %s/docs\n", publicURL)
	log.Printf("📄 OpenAPI spec: %s/openapi.json\n", publicURL)
	log.Printf("🔐 Ada endpoints:\n")
	log.Printf("   - Authorize: %s/oauth/authorize", publicURL)
	log.Printf("   - Complete:  %s/oauth/complete", publicURL)
	log.Printf("   - Uninstall: %s/uninstall", publicURL)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}
