package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/talentdesk/backoffice/internal"
	"github.com/talentdesk/backoffice/internal/asset"
	"github.com/talentdesk/backoffice/internal/auth"
	"github.com/talentdesk/backoffice/internal/blob"
	"github.com/talentdesk/backoffice/internal/cache"
	"github.com/talentdesk/backoffice/internal/department"
	"github.com/talentdesk/backoffice/internal/employee"
	"github.com/talentdesk/backoffice/internal/indexer"
	"github.com/talentdesk/backoffice/internal/project"
	"github.com/talentdesk/backoffice/internal/registration"
	"github.com/talentdesk/backoffice/internal/store"
	"github.com/talentdesk/backoffice/internal/submission"
	"github.com/talentdesk/backoffice/internal/transport/rest"
	"github.com/talentdesk/backoffice/pkg/logger"
)

const (
	defaultPageSize    = 10
	defaultSearchLimit = 10
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	Gateway  store.Gateway
	Durable  *cache.Durable
	Router   *chi.Mux
	Handlers rest.Handlers
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.Gateway, deps.Durable, deps.Handlers, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.Durable.Close(); err != nil {
			slog.Error("Cache database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.L()

	gateway := store.NewRESTGateway(store.Config{
		BaseURL:        config.Store.BaseURL,
		AuthToken:      config.Store.AuthToken,
		RequestTimeout: config.Store.RequestTimeout,
	}, log)

	durable, err := cache.OpenDurable(config.CacheDB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	session := cache.NewSession()

	blobs, err := initBlobStore(config.Blob, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.JWTAccessSecret,
		config.Security.JWTRefreshSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)

	authService := auth.NewService(gateway, tokenGen, config.Security.BCryptCost, log)
	employeeService := employee.NewService(gateway, durable, session, authService, employee.Config{
		PageSize:      defaultPageSize,
		SearchLimit:   defaultSearchLimit,
		IndexFreshFor: config.CacheDB.EmployeeIndexFreshFor,
	}, log)
	departmentService := department.NewService(gateway, durable, employeeService, log)
	assetService := asset.NewService(gateway, durable, log)
	projectService := project.NewService(gateway, session, blobs, log)
	submissionService := submission.NewService(gateway, log)
	registrationService := registration.NewService(gateway, session, registration.Config{
		PageSize: defaultPageSize,
	}, log)
	indexerService := indexer.NewService(gateway, log)

	handlers := rest.Handlers{
		Auth:         auth.NewHandler(authService),
		Employee:     employee.NewHandler(employeeService),
		Department:   department.NewHandler(departmentService),
		Asset:        asset.NewHandler(assetService),
		Project:      project.NewHandler(projectService),
		Submission:   submission.NewHandler(submissionService),
		Registration: registration.NewHandler(registrationService, indexerService),
	}

	return &Dependencies{
		Config:   config,
		Gateway:  gateway,
		Durable:  durable,
		Router:   chi.NewRouter(),
		Handlers: handlers,
		Logger:   log,
	}, nil
}

// initBlobStore picks S3 when a bucket is configured; without one uploads land
// in process memory, which only makes sense for local development.
func initBlobStore(cfg internal.BlobConfig, log *slog.Logger) (blob.Store, error) {
	if cfg.Bucket == "" {
		log.Warn("no blob bucket configured, using in-memory blob store")
		return blob.NewMemoryStore(), nil
	}

	return blob.NewS3(context.Background(), blob.Config{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		PublicBaseURL:   cfg.PublicBaseURL,
	})
}
