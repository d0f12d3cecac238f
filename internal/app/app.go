package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/handlers"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/services/cache"
	"github.com/ternarybob/venari/internal/services/classifier"
	"github.com/ternarybob/venari/internal/services/dedup"
	"github.com/ternarybob/venari/internal/services/events"
	"github.com/ternarybob/venari/internal/services/pipeline"
	"github.com/ternarybob/venari/internal/services/scheduler"
	"github.com/ternarybob/venari/internal/services/scraper"
	badgerstorage "github.com/ternarybob/venari/internal/storage/badger"
)

// App is the dependency injection container wiring storage, services
// and handlers together
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	StorageManager interfaces.StorageManager

	// Services
	EventService   interfaces.EventService
	Notifier       *events.Notifier
	DedupEngine    *dedup.Engine
	CacheService   *cache.Service
	Classifier     interfaces.Classifier
	ClassifierPool *classifier.Pool
	Processor      *pipeline.Processor
	ScraperClient  *scraper.Client
	ScraperService *scraper.Service
	Scheduler      interfaces.SchedulerService

	// Handlers
	TaskHandler      *handlers.TaskHandler
	WebhookHandler   *handlers.WebhookHandler
	SchedulerHandler *handlers.SchedulerHandler
	HealthHandler    *handlers.HealthHandler
}

// New creates the application container. Construction order follows
// the dependency chain: storage, events, dedup/cache/classifier,
// pipeline, orchestrator, scheduler, handlers.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: config,
		Logger: logger,
	}

	storageManager, err := badgerstorage.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	app.EventService = events.NewService(logger)

	notifier, err := events.NewNotifier(app.EventService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notifier: %w", err)
	}
	app.Notifier = notifier

	synonyms, err := dedup.LoadSynonymTable(config.Dedup.SynonymsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load synonym groups: %w", err)
	}
	markets, err := dedup.LoadMarketTable(config.Dedup.MarketsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load market aliases: %w", err)
	}
	app.DedupEngine = dedup.NewEngine(synonyms, markets, logger)

	app.CacheService = cache.NewService(storageManager.ClassificationStorage(), config.Cache.TTL, logger)

	aiClassifier, err := classifier.NewClassifier(&config.Classifier, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize classifier: %w", err)
	}
	app.Classifier = aiClassifier

	app.ClassifierPool = classifier.NewPool(aiClassifier, retryPolicyFromConfig(&config.Queue), config.Queue.Concurrency, logger)

	app.Processor = pipeline.NewProcessor(app.DedupEngine, app.CacheService, app.ClassifierPool, logger)

	app.ScraperClient = scraper.NewClient(&config.Scraper, logger)
	app.ScraperService = scraper.NewService(
		app.ScraperClient,
		storageManager.TaskStorage(),
		app.EventService,
		app.Processor,
		&config.Scraper,
		logger,
	)

	app.Scheduler = scheduler.NewService(logger)
	if err := app.registerScheduledJobs(); err != nil {
		return nil, fmt.Errorf("failed to register scheduled jobs: %w", err)
	}
	restoreJobStates(context.Background(), app.Scheduler, storageManager.KVStorage(), logger)

	app.TaskHandler = handlers.NewTaskHandler(app.ScraperService, storageManager.TaskStorage(), logger)
	app.WebhookHandler = handlers.NewWebhookHandler(app.ScraperService, &config.Scraper, logger)
	app.SchedulerHandler = handlers.NewSchedulerHandler(app.Scheduler, storageManager.KVStorage(), logger)
	app.HealthHandler = handlers.NewHealthHandler(storageManager, logger)

	logger.Info().Msg("Application container initialized")

	return app, nil
}

// registerScheduledJobs wires the background sweeps into the scheduler
func (a *App) registerScheduledJobs() error {
	ctx := context.Background()

	// Auto-start so tasks submitted before a restart are polled
	// immediately instead of waiting for the first scheduled sweep
	if err := a.Scheduler.RegisterJob(
		"task-poll-sweep",
		a.Config.Scheduler.PollSchedule,
		"Polls the provider for submitted scrape tasks",
		true,
		func() error { return a.ScraperService.PollPending(ctx) },
	); err != nil {
		return err
	}

	if err := a.Scheduler.RegisterJob(
		"task-timeout-sweep",
		a.Config.Scheduler.TimeoutSchedule,
		"Fails tasks stuck at the provider past the timeout",
		false,
		func() error { return a.ScraperService.SweepTimeouts(ctx) },
	); err != nil {
		return err
	}

	if err := a.Scheduler.RegisterJob(
		"cache-cleanup",
		a.Config.Scheduler.CleanupSchedule,
		"Removes classification cache entries past retention",
		false,
		func() error {
			_, err := a.CacheService.Cleanup(ctx, a.Config.Cache.Retention)
			return err
		},
	); err != nil {
		return err
	}

	return nil
}

// restoreJobStates reapplies persisted enable/disable choices so a job
// disabled through the API stays disabled across restarts
func restoreJobStates(ctx context.Context, sched interfaces.SchedulerService, kv interfaces.KVStorage, logger arbor.ILogger) {
	for name := range sched.GetAllJobStatuses() {
		value, err := kv.Get(ctx, handlers.SchedulerJobDisabledKey(name))
		if err != nil {
			continue
		}
		if value != "true" {
			continue
		}
		if err := sched.DisableJob(name); err != nil {
			logger.Warn().Err(err).Str("job_name", name).Msg("Failed to restore disabled job state")
			continue
		}
		logger.Info().Str("job_name", name).Msg("Job disabled from stored state")
	}
}

// Start launches background services
func (a *App) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

// Close shuts down the application, releasing resources in reverse
// construction order
func (a *App) Close() error {
	if a.Scheduler != nil && a.Scheduler.IsRunning() {
		if err := a.Scheduler.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduler stop failed")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Event service close failed")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}

// retryPolicyFromConfig builds the classifier retry policy from the
// queue configuration, falling back to defaults on bad values
func retryPolicyFromConfig(config *common.QueueConfig) *classifier.RetryPolicy {
	policy := classifier.NewDefaultRetryPolicy()

	if config.MaxRetries > 0 {
		policy.MaxRetries = config.MaxRetries
	}
	if backoff, err := time.ParseDuration(config.Backoff); err == nil && backoff > 0 {
		policy.InitialBackoff = backoff
	}
	if maxBackoff, err := time.ParseDuration(config.MaxBackoff); err == nil && maxBackoff > 0 {
		policy.MaxBackoff = maxBackoff
	}

	return policy
}
