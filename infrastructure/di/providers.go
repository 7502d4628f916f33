package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bettersaved/application/commands/bus"
	commandhandlers "bettersaved/application/commands/handlers"
	"bettersaved/application/ports"
	"bettersaved/application/queries"
	querybus "bettersaved/application/queries/bus"
	"bettersaved/application/services"
	domainconfig "bettersaved/domain/config"
	"bettersaved/infrastructure/config"
	"bettersaved/infrastructure/google"
	"bettersaved/infrastructure/messaging/eventbridge"
	"bettersaved/infrastructure/persistence/cache"
	"bettersaved/infrastructure/persistence/dynamodb"
	"bettersaved/infrastructure/persistence/memory"
	"bettersaved/infrastructure/persistence/sqlite"
	"bettersaved/infrastructure/scheduling"
	tgtransport "bettersaved/infrastructure/telegram"
	"bettersaved/interfaces/http/rest"
	"bettersaved/interfaces/http/rest/handlers"
	tginterface "bettersaved/interfaces/telegram"
	"bettersaved/pkg/auth"
	pkgerrors "bettersaved/pkg/errors"
	"bettersaved/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	serviceName      = "bettersaved"
	cacheMaxEntries  = 10000
	cacheSweepPeriod = time.Minute
	operatorTokenTTL = 12 * time.Hour
)

// ProvideLogger creates a new logger instance at the configured level
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	var zcfg zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build(zap.Fields(zap.String("service", serviceName)))
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideDomainConfig derives the pipeline configuration
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.DomainConfig()
}

// ProvideAWSConfig creates AWS configuration. AWS clients are traced when tracing is on.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, err
	}
	if cfg.EnableTracing {
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideCache creates the process-local TTL cache
func ProvideCache() (ports.Cache, func()) {
	c := cache.NewMemoryCache(cacheMaxEntries, cacheSweepPeriod)
	return c, c.Stop
}

// ProvideProfileRepository opens the configured store and puts the read cache in front of it
func ProvideProfileRepository(
	cfg *config.Config,
	client *awsdynamodb.Client,
	c ports.Cache,
	logger *zap.Logger,
) (ports.ProfileRepository, func(), error) {
	var (
		store   ports.ProfileRepository
		cleanup = func() {}
	)

	switch cfg.ProfileStore {
	case config.StoreDynamoDB:
		store = dynamodb.NewProfileRepository(client, cfg.DynamoDBTable, logger)
	case config.StoreMemory:
		store = memory.NewProfileRepository()
	default:
		repo, err := sqlite.NewProfileRepository(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		store = repo
		cleanup = func() {
			if err := repo.Close(); err != nil {
				logger.Warn("Failed to close profile store", zap.Error(err))
			}
		}
	}

	if cfg.ProfileCacheTTL <= 0 {
		return store, cleanup, nil
	}
	cachingCfg := cache.DefaultCachingConfig()
	cachingCfg.TTL = cfg.ProfileCacheTTL
	return cache.NewCachingProfileRepository(store, c, cachingCfg), cleanup, nil
}

// ProvideRateLimiter limits ingestion per chat user. With DynamoDB the limit also
// holds across processes.
func ProvideRateLimiter(cfg *config.Config, client *awsdynamodb.Client) ports.RateLimiter {
	if cfg.ProviderRateLimit <= 0 {
		return nil
	}
	local := auth.NewUserRateLimiter(cfg.ProviderRateLimit)
	if cfg.ProfileStore != config.StoreDynamoDB {
		return local
	}
	return auth.NewCompositeRateLimiter(
		local,
		auth.NewDistributedUserRateLimiter(client, cfg.DynamoDBTable, cfg.ProviderRateLimit),
	)
}

// ProvideEventPublisher publishes to EventBridge, or to the log when no bus is configured
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return eventbridge.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector(serviceName)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideMetrics fans ingestion metrics out to Prometheus and, on Lambda, CloudWatch
func ProvideMetrics(
	cfg *config.Config,
	collector *observability.Collector,
	client *awscloudwatch.Client,
	logger *zap.Logger,
) ports.Metrics {
	if !cfg.EnableMetrics {
		return ports.NoopMetrics{}
	}
	if !cfg.IsLambda {
		return collector
	}
	namespace := fmt.Sprintf("BetterSaved/%s", cfg.Environment)
	return observability.MultiMetrics{collector, observability.NewMetrics(namespace, client, logger)}
}

// ProvideGuard creates the provider circuit breaker
func ProvideGuard(tracer *observability.Tracer, collector *observability.Collector, logger *zap.Logger) *google.Guard {
	return google.NewGuard(google.DefaultBreakerConfig(), tracer, collector, logger)
}

// ProvideWorkspaceFactory opens Drive and Sheets clients per stored credential
func ProvideWorkspaceFactory(
	cfg *config.Config,
	guard *google.Guard,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *google.WorkspaceFactory {
	return google.NewWorkspaceFactory(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, guard, tracer, logger)
}

// ProvideBot connects to the Bot API
func ProvideBot(cfg *config.Config, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	return tgtransport.NewBot(cfg.TelegramBotToken, cfg.TelegramAPIEndpoint, logger)
}

// ProvideMessenger creates the outbound chat messenger
func ProvideMessenger(bot *tgbotapi.BotAPI, logger *zap.Logger) *tgtransport.Messenger {
	return tgtransport.NewMessenger(bot, logger)
}

// ProvideFetcher downloads attachments from the Bot API
func ProvideFetcher(bot *tgbotapi.BotAPI) *tgtransport.Fetcher {
	return tgtransport.NewFetcher(bot, &http.Client{Timeout: 2 * time.Minute})
}

// ProvideScheduler runs deferred tasks on a context that outlives single requests
func ProvideScheduler(ctx context.Context, logger *zap.Logger) *scheduling.TimerScheduler {
	return scheduling.NewTimerScheduler(context.WithoutCancel(ctx), scheduling.DefaultTaskTimeout, logger)
}

// ProvideResourceResolver creates the folder and ledger resolver
func ProvideResourceResolver(
	profiles ports.ProfileRepository,
	workspaces *google.WorkspaceFactory,
	publisher ports.EventPublisher,
	domain *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.ResourceResolver {
	return services.NewResourceResolver(profiles, workspaces, publisher, ports.SystemClock{}, domain, logger)
}

// ProvideIngestionService assembles the ingestion pipeline
func ProvideIngestionService(
	resolver *services.ResourceResolver,
	profiles ports.ProfileRepository,
	messenger *tgtransport.Messenger,
	fetcher *tgtransport.Fetcher,
	scheduler *scheduling.TimerScheduler,
	c ports.Cache,
	publisher ports.EventPublisher,
	limiter ports.RateLimiter,
	metrics ports.Metrics,
	domain *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.IngestionService {
	clock := ports.SystemClock{}
	reporter := services.NewStatusReporter(messenger, scheduler, domain, logger)
	pipeline := services.NewUploadPipeline(fetcher, c, clock, domain, logger)
	ledger := services.NewLedgerWriter(clock, domain, logger)
	saver := services.NewItemSaver(pipeline, ledger, publisher, metrics, clock, logger)
	aggregator := services.NewMediaGroupAggregator(saver, reporter, scheduler, publisher, metrics, clock, domain, logger)

	return services.NewIngestionService(
		services.NewClassifier(),
		resolver,
		saver,
		aggregator,
		reporter,
		profiles,
		limiter,
		metrics,
		clock,
		logger,
	)
}

// ProvideCommandBus creates a command bus with the profile handlers registered
func ProvideCommandBus(
	profiles ports.ProfileRepository,
	resolver *services.ResourceResolver,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	profileHandlers := commandhandlers.NewProfileHandlers(profiles, resolver, ports.SystemClock{}, logger)
	if err := profileHandlers.RegisterAll(commandBus); err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with the profile query registered
func ProvideQueryBus(profiles ports.ProfileRepository, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(logger)
	if err := queryBus.Register(queries.GetProfileQuery{}, queries.NewGetProfileHandler(profiles)); err != nil {
		return nil, fmt.Errorf("failed to register query handlers: %w", err)
	}
	return queryBus, nil
}

// ProvideDispatcher routes chat updates to commands or ingestion
func ProvideDispatcher(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	messenger *tgtransport.Messenger,
	workspaces *google.WorkspaceFactory,
	ingestion *services.IngestionService,
	collector *observability.Collector,
	logger *zap.Logger,
) *tginterface.Dispatcher {
	router := tginterface.NewCommandRouter(commandBus, queryBus, messenger, workspaces, logger)
	return tginterface.NewDispatcher(router, ingestion, collector, logger)
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideTokenManager enables the operator API when a JWT secret is configured
func ProvideTokenManager(cfg *config.Config) (*auth.TokenManager, error) {
	if cfg.JWTSecret == "" {
		return nil, nil
	}
	return auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, operatorTokenTTL)
}

// ProvideHTTPHandler builds the webhook, metrics and operator routes
func ProvideHTTPHandler(
	cfg *config.Config,
	dispatcher *tginterface.Dispatcher,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	tokens *auth.TokenManager,
	collector *observability.Collector,
	tracer *observability.Tracer,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) http.Handler {
	opts := rest.RouterOptions{
		Limiter: auth.NewIPRateLimiter(cfg.AdminRateLimit),
		Tracer:  tracer,
		CORS:    cfg.EnableCORS,
	}
	if tokens != nil {
		opts.Tokens = tokens
	}
	if cfg.EnableMetrics {
		opts.Collector = collector
	}

	router := rest.NewRouter(
		handlers.NewWebhookHandler(dispatcher, cfg.TelegramWebhookSecret, errs, logger),
		handlers.NewProfileHandler(commandBus, queryBus, errs, logger),
		errs,
		opts,
		logger,
	)
	return router.Setup()
}
