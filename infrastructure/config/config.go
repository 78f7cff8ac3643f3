package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	StoreDriverDynamoDB = "dynamodb"
	StoreDriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// AWS configuration
	AWSRegion        string `yaml:"aws_region"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint"`
	AWSMaxAttempts   int    `yaml:"aws_max_attempts"`
	LocalAccessKeyID string `yaml:"local_access_key_id"`
	LocalSecretKey   string `yaml:"local_secret_access_key"`
	EventBusName     string `yaml:"event_bus_name"`

	// Table configuration
	TableName        string        `yaml:"table_name"`
	IndexName        string        `yaml:"interaction_index_name"`
	ReadCapacity     int64         `yaml:"read_capacity"`
	WriteCapacity    int64         `yaml:"write_capacity"`
	TableWaitTimeout time.Duration `yaml:"table_wait_timeout"`
	StoreDriver      string        `yaml:"store_driver"`

	// Lambda configuration
	IsLambda           bool   `yaml:"is_lambda"`
	LambdaFunctionName string `yaml:"-"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Feature flags
	EnableMetrics bool `yaml:"enable_metrics"`
	EnableTracing bool `yaml:"enable_tracing"`
	EnableCORS    bool `yaml:"enable_cors"`
}

// Defaults returns the configuration used when nothing is overridden
func Defaults() *Config {
	return &Config{
		ServerAddress:    ":8080",
		Environment:      "development",
		AWSRegion:        "eu-west-1",
		AWSMaxAttempts:   1,
		LocalAccessKeyID: "local",
		LocalSecretKey:   "local",
		TableName:        "article_interactions",
		IndexName:        "interactionCountIndex",
		ReadCapacity:     5,
		WriteCapacity:    5,
		TableWaitTimeout: 2 * time.Minute,
		StoreDriver:      StoreDriverDynamoDB,
		LogLevel:         "info",
		EnableMetrics:    true,
		EnableTracing:    false,
		EnableCORS:       true,
	}
}

// LoadConfig loads configuration from defaults, the optional YAML file named
// by CONFIG_FILE, then environment variables, each layer overriding the last
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ServerAddress = getEnv("SERVER_ADDRESS", cfg.ServerAddress)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)

	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", cfg.DynamoDBEndpoint)
	cfg.AWSMaxAttempts = getEnvInt("AWS_MAX_ATTEMPTS", cfg.AWSMaxAttempts)
	cfg.LocalAccessKeyID = getEnv("LOCAL_ACCESS_KEY_ID", cfg.LocalAccessKeyID)
	cfg.LocalSecretKey = getEnv("LOCAL_SECRET_ACCESS_KEY", cfg.LocalSecretKey)
	cfg.EventBusName = getEnv("EVENT_BUS_NAME", cfg.EventBusName)

	cfg.TableName = getEnv("TABLE_NAME", cfg.TableName)
	cfg.IndexName = getEnv("INTERACTION_INDEX_NAME", cfg.IndexName)
	cfg.ReadCapacity = int64(getEnvInt("READ_CAPACITY", int(cfg.ReadCapacity)))
	cfg.WriteCapacity = int64(getEnvInt("WRITE_CAPACITY", int(cfg.WriteCapacity)))
	cfg.TableWaitTimeout = getEnvDuration("TABLE_WAIT_TIMEOUT", cfg.TableWaitTimeout)
	cfg.StoreDriver = getEnv("STORE_DRIVER", cfg.StoreDriver)

	cfg.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", "")
	cfg.IsLambda = getEnvBool("IS_LAMBDA", cfg.IsLambda || cfg.LambdaFunctionName != "")

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.EnableMetrics = getEnvBool("ENABLE_METRICS", cfg.EnableMetrics)
	cfg.EnableTracing = getEnvBool("ENABLE_TRACING", cfg.EnableTracing)
	cfg.EnableCORS = getEnvBool("ENABLE_CORS", cfg.EnableCORS)

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.TableName == "" {
		return fmt.Errorf("TABLE_NAME is required")
	}
	if c.IndexName == "" {
		return fmt.Errorf("INTERACTION_INDEX_NAME is required")
	}
	if c.ReadCapacity < 0 || c.WriteCapacity < 0 {
		return fmt.Errorf("READ_CAPACITY and WRITE_CAPACITY must not be negative")
	}
	if (c.ReadCapacity == 0) != (c.WriteCapacity == 0) {
		return fmt.Errorf("READ_CAPACITY and WRITE_CAPACITY must both be zero (on-demand) or both be set")
	}
	if c.TableWaitTimeout < 0 {
		return fmt.Errorf("TABLE_WAIT_TIMEOUT must not be negative")
	}
	if c.AWSMaxAttempts < 1 {
		return fmt.Errorf("AWS_MAX_ATTEMPTS must be at least 1")
	}
	switch c.StoreDriver {
	case StoreDriverDynamoDB, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesLocalEndpoint reports whether DynamoDB calls go to an overridden endpoint
func (c *Config) UsesLocalEndpoint() bool {
	return c.DynamoDBEndpoint != ""
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

// getEnvDuration gets a duration environment variable (e.g. "90s") with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
