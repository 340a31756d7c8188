package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/azure"
	"github.com/vcscsvcscs/healthmate/internal/backend"
	"github.com/vcscsvcscs/healthmate/internal/config"
	"github.com/vcscsvcscs/healthmate/internal/handler"
	"github.com/vcscsvcscs/healthmate/internal/middleware"
	"github.com/vcscsvcscs/healthmate/internal/pdf"
	"github.com/vcscsvcscs/healthmate/internal/repository"
	"github.com/vcscsvcscs/healthmate/internal/security"
	"github.com/vcscsvcscs/healthmate/internal/service"
	"github.com/vcscsvcscs/healthmate/pkg/api"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

var (
	logger *zap.Logger
	cfg    *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "healthmate",
		Short:         "HealthMate personal health tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger, err = newLogger(cfg)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HealthMate API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL state table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Storage.Driver != config.StoragePostgres {
				return fmt.Errorf("migrate requires the %s storage driver, got %q", config.StoragePostgres, cfg.Storage.Driver)
			}

			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, cfg.Storage.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			if err := repository.NewPostgresKV(pool, logger).Migrate(ctx); err != nil {
				return err
			}
			logger.Info("Migration completed")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe the HealthMate backend once",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := backend.NewClient(cfg.Backend.URL, cfg.Backend.AuthPrefix, cfg.Backend.HealthTimeout, logger)
			report := service.NewStatusService(client, logger).Check(cmd.Context())

			fmt.Fprintf(cmd.OutOrStdout(), "backend %s: %s\n", cfg.Backend.URL, report.Status)
			if report.Status != model.BackendOK {
				fmt.Fprintln(cmd.OutOrStdout(), report.Banner)
				return fmt.Errorf("backend is %s", report.Status)
			}
			return nil
		},
	}
}

// newLogger builds the zap logger from the logging section
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Server.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	}

	if cfg.Logging.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		zapCfg.Level = level
	}
	if cfg.Logging.Format != "" {
		zapCfg.Encoding = cfg.Logging.Format
	}

	return zapCfg.Build()
}

// openKV opens the configured state backend. The returned close function is never nil.
func openKV(ctx context.Context) (repository.KV, func(), error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("Successfully connected to database")

		kv := repository.NewPostgresKV(pool, logger)
		if err := kv.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return kv, pool.Close, nil

	case config.StorageBlob:
		blobClient, err := azure.NewBlobStorageClient(
			cfg.Storage.Blob.AccountName,
			cfg.Storage.Blob.AccountKey,
			cfg.Storage.Blob.Container,
			logger,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Azure Blob Storage client: %w", err)
		}
		return repository.NewBlobKV(blobClient, logger), func() {}, nil

	default:
		logger.Warn("Using in-memory storage; state will not survive a restart")
		return repository.NewMemoryKV(), func() {}, nil
	}
}

// newChatProvider selects where chat replies come from
func newChatProvider(client *backend.Client) (service.ChatProvider, error) {
	if cfg.Chat.Provider != config.ChatProviderOpenAI {
		return service.NewBackendChatProvider(client), nil
	}

	openAIClient, err := azure.NewOpenAIClient(
		cfg.Chat.OpenAI.Endpoint,
		cfg.Chat.OpenAI.APIKey,
		cfg.Chat.OpenAI.Deployment,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Azure OpenAI client: %w", err)
	}
	return service.NewOpenAIChatProvider(openAIClient), nil
}

func runServer(ctx context.Context) error {
	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("chat_provider", cfg.Chat.Provider),
	)

	kv, closeKV, err := openKV(ctx)
	if err != nil {
		return err
	}
	defer closeKV()
	store := repository.NewStore(kv, logger)

	var cipher service.TokenCipher
	if cfg.Security.SessionKey != "" {
		key, err := cfg.SessionKeyBytes()
		if err != nil {
			return err
		}
		enc, err := security.NewEncryptor(key)
		if err != nil {
			return fmt.Errorf("failed to initialize session encryption: %w", err)
		}
		cipher = enc
	} else {
		logger.Warn("No session key configured; access tokens are stored unencrypted")
	}

	// Initialize the backend client and services
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.AuthPrefix, cfg.Backend.HealthTimeout, logger)

	sessions := service.NewSessionManager(ctx, client, store, cipher, logger)
	client.SetTokenSource(sessions)

	metrics := service.NewMetricStore(ctx, store, logger)
	metrics.OnAchievement(func(e service.AchievementEvent) {
		logger.Info("Target reached",
			zap.String("metric", e.MetricName),
			zap.Float64("value", e.Value),
			zap.Float64("target", e.Target),
		)
	})

	engine := service.NewMedicationEngine(ctx, client, store, logger)
	engine.SetSessionInvalidator(sessions)
	engine.OnCourseCompleted(func(e service.CourseCompletedEvent) {
		logger.Info("Medication course completed",
			zap.String("medication_id", e.MedicationID),
			zap.String("name", e.Name),
		)
	})

	provider, err := newChatProvider(client)
	if err != nil {
		return err
	}

	checker := service.NewSymptomChecker(client, metrics, sessions, logger)
	chat := service.NewChatService(provider, sessions, logger)
	prefs := service.NewPreferenceService(ctx, store, logger)
	status := service.NewStatusService(client, logger)
	sessions.OnChange(service.SessionSync(engine, chat, logger))

	if sessions.Valid(time.Now()) {
		if err := engine.Refresh(ctx); err != nil {
			logger.Warn("Initial medication load failed", zap.Error(err))
		}
	}
	go status.Check(context.WithoutCancel(ctx))

	scheduler := service.NewDailyResetScheduler(metrics, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	apiHandler := &handler.APIHandler{
		HealthHandler:     handler.NewHealthHandler(status, logger),
		AuthHandler:       handler.NewAuthHandler(sessions, logger),
		MetricsHandler:    handler.NewMetricsHandler(metrics, logger),
		MedicationHandler: handler.NewMedicationHandler(engine, logger),
		SymptomHandler:    handler.NewSymptomHandler(checker, logger),
		ChatHandler:       handler.NewChatHandler(chat, logger),
		PreferenceHandler: handler.NewPreferenceHandler(prefs, logger),
		ReportHandler:     handler.NewReportHandler(metrics, engine, sessions, pdf.NewPDFGenerator(logger), logger),
	}

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Recovery must be first
	r.Use(middleware.RecoveryMiddleware(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLoggingMiddleware(logger))
	r.Use(middleware.ErrorLoggingMiddleware(logger))

	api.RegisterHandlersWithOptions(r, apiHandler, api.Options{
		Authenticated: middleware.RequireSession(sessions, logger),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
	return nil
}
