package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mailfleet/mailfleet/config"
	"github.com/Mailfleet/mailfleet/internal/database"
	"github.com/Mailfleet/mailfleet/internal/domain"
	httpHandler "github.com/Mailfleet/mailfleet/internal/http"
	"github.com/Mailfleet/mailfleet/internal/repository"
	"github.com/Mailfleet/mailfleet/internal/service"
	"github.com/Mailfleet/mailfleet/internal/service/engine"
	"github.com/Mailfleet/mailfleet/internal/service/queue"
	"github.com/Mailfleet/mailfleet/pkg/clock"
	"github.com/Mailfleet/mailfleet/pkg/logger"
	"github.com/Mailfleet/mailfleet/pkg/mailer"
	"github.com/Mailfleet/mailfleet/pkg/ratelimiter"
	"github.com/Mailfleet/mailfleet/pkg/tracing"

	"contrib.go.opencensus.io/integrations/ocsql"
)

// AppInterface defines the interface for the App
type AppInterface interface {
	Initialize() error
	Start() error
	Shutdown(ctx context.Context) error

	// Getters for app components accessed in tests
	GetConfig() *config.Config
	GetLogger() logger.Logger
	GetMux() *http.ServeMux
	GetDB() *sql.DB
	GetMailer() mailer.Mailer

	// Repository getters for testing
	GetDomainRepository() domain.DomainRepository
	GetPoolRepository() domain.PoolRepository
	GetPlacementTestRepository() domain.PlacementTestRepository
	GetNotificationRepository() domain.NotificationRepository
	GetJobLogRepository() domain.JobLogRepository
	GetSettingRepository() domain.SettingRepository

	// Server status methods
	IsServerCreated() bool
	WaitForServerStart(ctx context.Context) bool

	// Methods for initialization steps
	InitTracing() error
	InitDB() error
	InitMailer() error
	InitRepositories() error
	InitServices() error
	InitQueue() error
	InitScheduler() error
	InitHandlers() error

	// Graceful shutdown methods
	SetShutdownTimeout(timeout time.Duration)
	GetActiveRequestCount() int64
	GetShutdownContext() context.Context
}

// App encapsulates the engine's dependencies and lifecycle.
type App struct {
	config   *config.Config
	logger   logger.Logger
	db       *sql.DB
	mailer   mailer.Mailer
	clock    clock.Clock
	eventBus domain.EventBus

	// Resolved provider endpoints and keys. Starts from config and is
	// completed from the encrypted settings store during InitServices.
	providers config.ProvidersConfig

	// Repositories
	settingRepo      domain.SettingRepository
	domainRepo       domain.DomainRepository
	poolRepo         domain.PoolRepository
	testRepo         domain.PlacementTestRepository
	notificationRepo domain.NotificationRepository
	jobLogRepo       domain.JobLogRepository

	// Services
	notificationService *service.NotificationService
	poolService         *service.PoolService
	placementClient     *service.PlacementClient
	campaignClient      *service.CampaignClient
	rateLimiter         *ratelimiter.RateLimiter
	engine              *engine.Engine
	jobQueue            *queue.JobQueue
	scheduler           *service.Scheduler

	// HTTP
	mux    *http.ServeMux
	server *http.Server

	// Server synchronization
	serverMu      sync.RWMutex
	serverStarted chan struct{}

	// Graceful shutdown management
	shutdownCtx     context.Context
	shutdownCancel  context.CancelFunc
	activeRequests  int64
	requestWg       sync.WaitGroup
	shutdownTimeout time.Duration
}

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithMockDB configures the app to use a mock database
func WithMockDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithMockMailer configures the app to use a mock mailer
func WithMockMailer(m mailer.Mailer) AppOption {
	return func(a *App) {
		a.mailer = m
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithClock sets a custom clock, used by tests to control time
func WithClock(clk clock.Clock) AppOption {
	return func(a *App) {
		a.clock = clk
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) AppInterface {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	app := &App{
		config:          cfg,
		logger:          logger.NewLoggerWithLevel(cfg.LogLevel),
		clock:           clock.New(),
		providers:       cfg.Providers,
		mux:             http.NewServeMux(),
		serverStarted:   make(chan struct{}),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
		shutdownTimeout: 60 * time.Second,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// InitTracing initializes OpenCensus tracing
func (a *App) InitTracing() error {
	tracingConfig := &a.config.Tracing

	if err := tracing.InitTracing(tracingConfig); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if tracingConfig.Enabled {
		a.logger.WithField("metrics_exporter", tracingConfig.MetricsExporter).
			WithField("sampling_rate", tracingConfig.SamplingProbability).
			Info("Tracing initialized successfully")
	}

	return nil
}

// InitDB initializes the database connection
func (a *App) InitDB() error {
	if a.db != nil {
		// Injected by WithMockDB; schema handling is on the caller
		return nil
	}

	a.logger.WithField("host", a.config.Database.Host).
		WithField("port", a.config.Database.Port).
		WithField("dbname", a.config.Database.DBName).
		WithField("sslmode", a.config.Database.SSLMode).
		Info("Connecting to database")

	if err := database.EnsureSystemDatabaseExists(database.GetPostgresDSN(&a.config.Database), a.config.Database.DBName); err != nil {
		return fmt.Errorf("failed to ensure system database exists: %w", err)
	}

	// If tracing is enabled, wrap the postgres driver
	driverName := "postgres"
	if a.config.Tracing.Enabled {
		var err error
		driverName, err = ocsql.Register(driverName, ocsql.WithAllTraceOptions())
		if err != nil {
			return fmt.Errorf("failed to register opencensus sql driver: %w", err)
		}
		a.logger.Info("Database driver wrapped with OpenCensus tracing")
	}

	db, err := sql.Open(driverName, database.GetSystemDSN(&a.config.Database))
	if err != nil {
		return fmt.Errorf("failed to connect to system database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping system database: %w", err)
	}

	if err := database.InitializeDatabase(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	maxOpen, maxIdle, maxLifetime := database.GetConnectionPoolSettings()
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	a.db = db
	return nil
}

// InitMailer initializes the alert mailer
func (a *App) InitMailer() error {
	// Skip if mailer already set (e.g., by mock)
	if a.mailer != nil {
		return nil
	}

	if a.config.IsDevelopment() {
		a.mailer = mailer.NewConsoleMailer()
		a.logger.Info("Using console mailer for development")
	} else {
		a.mailer = mailer.NewSMTPMailer(&mailer.Config{
			SMTPHost:     a.config.SMTP.Host,
			SMTPPort:     a.config.SMTP.Port,
			SMTPUsername: a.config.SMTP.Username,
			SMTPPassword: a.config.SMTP.Password,
			FromEmail:    a.config.SMTP.FromEmail,
			FromName:     a.config.SMTP.FromName,
		})
		a.logger.Info("Using SMTP mailer for production")
	}

	return nil
}

// InitRepositories initializes all repositories
func (a *App) InitRepositories() error {
	if a.db == nil {
		return fmt.Errorf("database must be initialized before repositories")
	}

	a.settingRepo = repository.NewSQLSettingRepository(a.db)
	a.domainRepo = repository.NewDomainRepository(a.db)
	a.poolRepo = repository.NewPoolRepository(a.db)
	a.testRepo = repository.NewPlacementTestRepository(a.db)
	a.notificationRepo = repository.NewNotificationRepository(a.db)
	a.jobLogRepo = repository.NewJobLogRepository(a.db)

	return nil
}

// loadProviderCredentials completes the provider configuration from the
// encrypted settings store. Values set through the environment win.
func (a *App) loadProviderCredentials(ctx context.Context) error {
	if a.providers.PlacementAPIKey != "" && a.providers.CampaignAPIKey != "" && a.providers.WebhookSecret != "" {
		return nil
	}

	setting, err := a.settingRepo.Get(ctx, domain.SettingKeyProviderCredentials)
	if err != nil {
		if domain.KindOf(err) == domain.ErrKindNotFound {
			a.logger.Info("No stored provider credentials; using environment configuration")
			return nil
		}
		return fmt.Errorf("failed to load provider credentials: %w", err)
	}

	var creds domain.ProviderCredentials
	if err := json.Unmarshal([]byte(setting.Value), &creds); err != nil {
		return fmt.Errorf("failed to parse provider credentials: %w", err)
	}
	if err := creds.DecryptKeys(a.config.Security.SecretKey); err != nil {
		return fmt.Errorf("failed to decrypt provider credentials: %w", err)
	}

	if a.providers.PlacementAPIURL == "" {
		a.providers.PlacementAPIURL = creds.PlacementAPIURL
	}
	if a.providers.PlacementAPIKey == "" {
		a.providers.PlacementAPIKey = creds.PlacementAPIKey
	}
	if a.providers.CampaignAPIURL == "" {
		a.providers.CampaignAPIURL = creds.CampaignAPIURL
	}
	if a.providers.CampaignAPIKey == "" {
		a.providers.CampaignAPIKey = creds.CampaignAPIKey
	}
	if a.providers.WebhookSecret == "" {
		a.providers.WebhookSecret = creds.WebhookSecret
	}

	a.logger.Info("Provider credentials loaded from settings store")
	return nil
}

// InitServices initializes the event bus, provider clients and the
// domain services
func (a *App) InitServices() error {
	ctx := context.Background()
	automation := a.config.Automation

	a.eventBus = domain.NewInMemoryEventBus(a.logger)

	if err := a.loadProviderCredentials(ctx); err != nil {
		return err
	}

	a.placementClient = service.NewPlacementClient(a.providers.PlacementAPIURL, a.providers.PlacementAPIKey, a.logger)
	a.campaignClient = service.NewCampaignClient(a.providers.CampaignAPIURL, a.providers.CampaignAPIKey, a.logger)

	a.rateLimiter = ratelimiter.New(ratelimiter.Config{
		PerDomainLimit: automation.RatePerDomain,
		GlobalLimit:    automation.RateGlobal,
		Window:         automation.RateWindow,
	}, a.clock)

	a.notificationService = service.NewNotificationService(
		a.notificationRepo,
		a.mailer,
		a.config.AlertEmail,
		a.clock,
		a.logger,
		automation.HealthCritical,
		automation.HealthWarning,
	)
	a.notificationService.RegisterWithEventBus(a.eventBus)

	a.poolService = service.NewPoolService(
		a.domainRepo,
		a.poolRepo,
		a.campaignClient,
		a.eventBus,
		a.rateLimiter,
		a.clock,
		a.logger,
		automation.HealthWarning,
	)

	if err := a.poolService.InitializePools(ctx); err != nil {
		return fmt.Errorf("failed to initialize pools: %w", err)
	}

	return nil
}

// InitQueue initializes the job queue and the automation engine with
// its handlers
func (a *App) InitQueue() error {
	automation := a.config.Automation

	queueCfg := queue.DefaultConfig()
	if automation.MaxRetries > 0 {
		queueCfg.MaxRetries = automation.MaxRetries
	}
	if automation.RetryDelayHealth > 0 {
		queueCfg.RetryDelays[domain.JobTypeHealth] = automation.RetryDelayHealth
	}
	if automation.RetryDelayTest > 0 {
		queueCfg.RetryDelays[domain.JobTypeTest] = automation.RetryDelayTest
	}
	if automation.RetryDelayWarmup > 0 {
		queueCfg.RetryDelays[domain.JobTypeWarmup] = automation.RetryDelayWarmup
	}
	if automation.RetryDelayRotation > 0 {
		queueCfg.RetryDelays[domain.JobTypeRotation] = automation.RetryDelayRotation
	}

	a.jobQueue = queue.NewJobQueue(queueCfg, a.clock, a.logger, a.jobLogRepo, a.notificationService, nil)

	engineCfg := engine.DefaultConfig()
	if automation.PoolHealthCritical > 0 {
		engineCfg.PoolCriticalAverage = automation.PoolHealthCritical
	}

	a.engine = engine.New(
		engineCfg,
		a.domainRepo,
		a.poolRepo,
		a.testRepo,
		a.placementClient,
		a.campaignClient,
		a.poolService,
		a.notificationService,
		a.eventBus,
		a.jobQueue,
		a.rateLimiter,
		a.clock,
		a.logger,
	)
	a.engine.RegisterHandlers(a.jobQueue)

	return nil
}

// InitScheduler initializes the cron sweeps
func (a *App) InitScheduler() error {
	a.scheduler = service.NewScheduler(
		service.DefaultSchedulerConfig(),
		a.domainRepo,
		a.poolRepo,
		a.engine,
		a.jobQueue,
		a.jobLogRepo,
		a.notificationService,
		a.clock,
		a.logger,
	)
	return nil
}

// InitHandlers initializes the HTTP handlers
func (a *App) InitHandlers() error {
	webhookHandler := httpHandler.NewWebhookHandler(a.testRepo, a.jobQueue, a.providers.WebhookSecret, a.logger)
	webhookHandler.RegisterRoutes(a.mux)

	statusHandler := httpHandler.NewStatusHandler(a.config.Version, a.jobQueue, a.scheduler, a.domainRepo, a.poolService, a.logger)
	statusHandler.RegisterRoutes(a.mux)

	return nil
}

// Initialize sets up all components of the application
func (a *App) Initialize() error {
	a.logger.WithField("version", a.config.Version).Info("Starting Mailfleet engine")

	if err := a.InitTracing(); err != nil {
		return err
	}
	if err := a.InitDB(); err != nil {
		return err
	}
	if err := a.InitMailer(); err != nil {
		return err
	}
	if err := a.InitRepositories(); err != nil {
		return err
	}
	if err := a.InitServices(); err != nil {
		return err
	}
	if err := a.InitQueue(); err != nil {
		return err
	}
	if err := a.InitScheduler(); err != nil {
		return err
	}
	if err := a.InitHandlers(); err != nil {
		return err
	}

	a.logger.Info("Application successfully initialized")
	return nil
}

// Start launches the queue workers, the sweep scheduler and the HTTP
// server. Blocks until the server stops.
func (a *App) Start() error {
	a.jobQueue.Start(a.shutdownCtx)
	a.scheduler.Start(a.shutdownCtx)

	var handler http.Handler = a.mux
	handler = a.gracefulShutdownMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.logger.WithField("address", addr).Info("Server starting")

	a.serverMu.Lock()
	if a.serverStarted != nil {
		close(a.serverStarted)
	}
	a.serverStarted = make(chan struct{})
	a.server = &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	serverStarted := a.serverStarted
	a.serverMu.Unlock()

	close(serverStarted)

	if a.config.Server.SSL.Enabled {
		a.logger.WithField("cert_file", a.config.Server.SSL.CertFile).Info("SSL enabled")
		return a.server.ListenAndServeTLS(a.config.Server.SSL.CertFile, a.config.Server.SSL.KeyFile)
	}
	return a.server.ListenAndServe()
}

// Shutdown gracefully shuts down the engine: stop scheduling new work,
// drain running jobs, stop the HTTP server, then release resources.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Starting graceful shutdown...")

	// Signal shutdown to all components
	a.shutdownCancel()

	shutdownTimeout := a.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < shutdownTimeout {
			shutdownTimeout = remaining - time.Second
			if shutdownTimeout < 0 {
				shutdownTimeout = 0
			}
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.jobQueue != nil {
		a.logger.Info("Draining job queues")
		a.jobQueue.Stop(shutdownCtx)
	}

	var shutdownErr error

	a.serverMu.RLock()
	server := a.server
	a.serverMu.RUnlock()

	if server != nil {
		activeCount := a.getActiveRequestCount()
		a.logger.WithField("active_requests", activeCount).Info("Shutting down HTTP server")

		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.WithField("error", err.Error()).Error("HTTP server shutdown failed")
			shutdownErr = err
		}

		// Give in-flight requests a moment to unwind
		requestsDone := make(chan struct{})
		go func() {
			a.requestWg.Wait()
			close(requestsDone)
		}()
		select {
		case <-requestsDone:
		case <-shutdownCtx.Done():
			a.logger.WithField("active_requests", a.getActiveRequestCount()).
				Warn("Shutdown timeout reached, forcing shutdown")
		}
	}

	if err := a.cleanupResources(); err != nil {
		if shutdownErr == nil {
			shutdownErr = err
		}
	}

	if shutdownErr != nil {
		a.logger.WithField("error", shutdownErr.Error()).Error("Graceful shutdown completed with errors")
	} else {
		a.logger.Info("Graceful shutdown completed successfully")
	}

	return shutdownErr
}

// cleanupResources handles cleanup of database and other resources
func (a *App) cleanupResources() error {
	if a.db != nil {
		if a.config.Tracing.Enabled {
			stopStats := ocsql.RecordStats(a.db, 5*time.Second)
			stopStats()
		}

		a.logger.Info("Closing database connection")
		if err := a.db.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error closing database connection")
			return err
		}
	}
	return nil
}

// IsServerCreated safely checks if the server has been created
func (a *App) IsServerCreated() bool {
	a.serverMu.RLock()
	defer a.serverMu.RUnlock()
	return a.server != nil
}

// WaitForServerStart waits for the server to be created and initialized.
// Returns true if the server started successfully, false if context expired.
func (a *App) WaitForServerStart(ctx context.Context) bool {
	a.serverMu.RLock()
	started := a.serverStarted
	a.serverMu.RUnlock()

	if started == nil {
		a.logger.Error("serverStarted channel is nil - server initialization error")
		<-ctx.Done()
		return false
	}

	select {
	case <-started:
		return a.IsServerCreated()
	case <-ctx.Done():
		return false
	}
}

// GetConfig returns the app's configuration
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetLogger returns the app's logger
func (a *App) GetLogger() logger.Logger {
	return a.logger
}

// GetMux returns the app's HTTP multiplexer
func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

// GetDB returns the app's database connection
func (a *App) GetDB() *sql.DB {
	return a.db
}

// GetMailer returns the app's mailer
func (a *App) GetMailer() mailer.Mailer {
	return a.mailer
}

// Repository getters for testing
func (a *App) GetDomainRepository() domain.DomainRepository {
	return a.domainRepo
}

func (a *App) GetPoolRepository() domain.PoolRepository {
	return a.poolRepo
}

func (a *App) GetPlacementTestRepository() domain.PlacementTestRepository {
	return a.testRepo
}

func (a *App) GetNotificationRepository() domain.NotificationRepository {
	return a.notificationRepo
}

func (a *App) GetJobLogRepository() domain.JobLogRepository {
	return a.jobLogRepo
}

func (a *App) GetSettingRepository() domain.SettingRepository {
	return a.settingRepo
}

// incrementActiveRequests atomically increments the active request counter
func (a *App) incrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, 1)
	a.requestWg.Add(1)
}

// decrementActiveRequests atomically decrements the active request counter
func (a *App) decrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, -1)
	a.requestWg.Done()
}

func (a *App) getActiveRequestCount() int64 {
	return atomic.LoadInt64(&a.activeRequests)
}

// GetActiveRequestCount returns the current number of active requests
func (a *App) GetActiveRequestCount() int64 {
	return a.getActiveRequestCount()
}

// SetShutdownTimeout sets the timeout for graceful shutdown
func (a *App) SetShutdownTimeout(timeout time.Duration) {
	a.shutdownTimeout = timeout
}

// GetShutdownContext returns the shutdown context for components that
// need to watch for shutdown
func (a *App) GetShutdownContext() context.Context {
	return a.shutdownCtx
}

// isShuttingDown returns true if the application is in shutdown mode
func (a *App) isShuttingDown() bool {
	select {
	case <-a.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// gracefulShutdownMiddleware wraps HTTP handlers to track active requests
func (a *App) gracefulShutdownMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isShuttingDown() {
			http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}

		a.incrementActiveRequests()
		defer a.decrementActiveRequests()

		next.ServeHTTP(w, r)
	})
}

// Ensure App implements AppInterface
var _ AppInterface = (*App)(nil)
