package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Cache    CacheConfig
	Triggers TriggerConfig
	Kafka    KafkaConfig
	Logging  LoggingConfig
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CacheConfig holds the symbol cache configuration
type CacheConfig struct {
	SymbolTTL time.Duration
}

// TriggerConfig holds trigger engine and storage configuration
type TriggerConfig struct {
	PollInterval time.Duration
	Cooldown     time.Duration
	Tolerance    float64
	StorePath    string
}

// KafkaConfig holds the optional trigger-alert publication settings; an empty
// broker list disables Kafka entirely
type KafkaConfig struct {
	Brokers  string
	Topic    string
	ClientID string
}

// BrokerList splits the comma-separated broker string
func (c KafkaConfig) BrokerList() []string {
	if strings.TrimSpace(c.Brokers) == "" {
		return nil
	}
	parts := strings.Split(c.Brokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variables override
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8084")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "10s")
	v.SetDefault("server.idleTimeout", "120s")

	// Cache defaults
	v.SetDefault("cache.symbolTTL", "1h")

	// Trigger defaults
	v.SetDefault("triggers.pollInterval", "1s")
	v.SetDefault("triggers.cooldown", "30s")
	v.SetDefault("triggers.tolerance", 0.001)
	v.SetDefault("triggers.storePath", "data/triggers.json")

	// Kafka defaults (disabled unless brokers are configured)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "trigger-alerts")
	v.SetDefault("kafka.clientID", "market-data-service")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
