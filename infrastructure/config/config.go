package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	domainconfig "bettersaved/domain/config"
	"bettersaved/pkg/utils"

	"gopkg.in/yaml.v3"
)

// Telegram delivery modes
const (
	ModeWebhook = "webhook"
	ModePolling = "polling"
)

// Profile store backends
const (
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"
	StoreMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address" validate:"required"`
	Environment   string `yaml:"environment" validate:"oneof=development staging production test"`

	// Telegram
	TelegramBotToken      string `yaml:"telegram_bot_token" validate:"required"`
	TelegramWebhookSecret string `yaml:"telegram_webhook_secret"`
	TelegramMode          string `yaml:"telegram_mode" validate:"oneof=webhook polling"`
	TelegramAPIEndpoint   string `yaml:"telegram_api_endpoint"`
	PollWorkers           int    `yaml:"poll_workers" validate:"min=1"`

	// Google OAuth client used to refresh stored credentials
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	GoogleRedirectURL  string `yaml:"google_redirect_url" validate:"omitempty,url"`

	// Profile store
	ProfileStore string `yaml:"profile_store" validate:"oneof=sqlite dynamodb memory"`
	SQLitePath   string `yaml:"sqlite_path" validate:"required_if=ProfileStore sqlite"`

	// AWS configuration
	AWSRegion     string `yaml:"aws_region"`
	DynamoDBTable string `yaml:"table_name" validate:"required_if=ProfileStore dynamodb"`
	EventBusName  string `yaml:"event_bus_name"`

	// Lambda configuration
	IsLambda           bool   `yaml:"is_lambda"`
	LambdaFunctionName string `yaml:"-"`

	// Pipeline timing and limits
	GroupFinalizeDelay time.Duration `yaml:"group_finalize_delay" validate:"min=0"`
	MessageDeleteDelay time.Duration `yaml:"message_delete_delay" validate:"min=0"`
	ProviderRateLimit  int           `yaml:"provider_rate_limit" validate:"min=0"`
	ProfileCacheTTL    time.Duration `yaml:"profile_cache_ttl" validate:"min=0"`
	AdminRateLimit     int           `yaml:"admin_rate_limit" validate:"min=1"`

	// Logging
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Authentication for the admin API
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`

	// Feature flags
	EnableMetrics bool `yaml:"enable_metrics"`
	EnableTracing bool `yaml:"enable_tracing"`
	EnableCORS    bool `yaml:"enable_cors"`
}

func defaults() *Config {
	domain := domainconfig.DefaultDomainConfig()
	return &Config{
		ServerAddress:      ":8080",
		Environment:        "development",
		TelegramMode:       ModeWebhook,
		PollWorkers:        4,
		ProfileStore:       StoreSQLite,
		SQLitePath:         "bettersaved.db",
		AWSRegion:          "us-west-2",
		DynamoDBTable:      "bettersaved",
		EventBusName:       "",
		GroupFinalizeDelay: domain.GroupFinalizeDelay,
		MessageDeleteDelay: domain.MessageDeleteDelay,
		ProviderRateLimit:  30,
		ProfileCacheTTL:    5 * time.Minute,
		AdminRateLimit:     100,
		LogLevel:           "info",
		JWTIssuer:          "bettersaved",
		EnableCORS:         true,
	}
}

// LoadConfig loads configuration. Defaults come first, then the optional YAML file
// named by CONFIG_FILE, then environment variables.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.TelegramWebhookSecret = getEnv("TELEGRAM_WEBHOOK_SECRET", c.TelegramWebhookSecret)
	c.TelegramMode = strings.ToLower(getEnv("TELEGRAM_MODE", c.TelegramMode))
	c.PollWorkers = getEnvInt("POLL_WORKERS", c.PollWorkers)
	c.TelegramAPIEndpoint = getEnv("TELEGRAM_API_ENDPOINT", c.TelegramAPIEndpoint)

	c.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", c.GoogleClientID)
	c.GoogleClientSecret = getEnv("GOOGLE_CLIENT_SECRET", c.GoogleClientSecret)
	c.GoogleRedirectURL = getEnv("GOOGLE_REDIRECT_URL", c.GoogleRedirectURL)

	c.ProfileStore = strings.ToLower(getEnv("PROFILE_STORE", c.ProfileStore))
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", "")
	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda || c.LambdaFunctionName != "")

	c.GroupFinalizeDelay = getEnvDuration("GROUP_FINALIZE_DELAY", c.GroupFinalizeDelay)
	c.MessageDeleteDelay = getEnvDuration("MESSAGE_DELETE_DELAY", c.MessageDeleteDelay)
	c.ProviderRateLimit = getEnvInt("PROVIDER_RATE_LIMIT", c.ProviderRateLimit)
	c.ProfileCacheTTL = getEnvDuration("PROFILE_CACHE_TTL", c.ProfileCacheTTL)
	c.AdminRateLimit = getEnvInt("ADMIN_RATE_LIMIT", c.AdminRateLimit)

	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
}

// Validate checks struct rules, then the rules that only apply in production
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.IsProduction() {
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required in production")
		}
		if c.TelegramMode == ModeWebhook && c.TelegramWebhookSecret == "" {
			return errors.New("TELEGRAM_WEBHOOK_SECRET is required for webhook mode in production")
		}
		if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
			return errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required in production")
		}
		if c.ProfileStore == StoreMemory {
			return errors.New("the memory profile store cannot be used in production")
		}
	}
	if c.IsLambda && c.TelegramMode == ModePolling {
		return errors.New("polling mode is not available on Lambda")
	}
	return nil
}

// DomainConfig returns the pipeline configuration with the configured timers applied
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	return domainconfig.DefaultDomainConfig().WithDelays(c.GroupFinalizeDelay, c.MessageDeleteDelay)
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("5s") or plain seconds ("5")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
