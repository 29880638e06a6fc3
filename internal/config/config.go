// Package config loads PowerPulse settings.
//
// Precedence, low to high: built-in defaults, an optional YAML file named by
// POWERPULSE_CONFIG, then POWERPULSE_* environment variables. A .env file in
// the working directory is read into the environment first.
package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"powerpulse/internal/log"
	"powerpulse/internal/notify"
	"powerpulse/internal/storage"
)

const (
	envPrefix  = "POWERPULSE_"
	envConfig  = envPrefix + "CONFIG"
	dotEnvFile = ".env"
)

type Config struct {
	// HTTP Server
	Port     string `koanf:"port"`
	LogLevel string `koanf:"log_level"`

	// Energy store
	DBDriver   string `koanf:"db_driver"`
	DBPath     string `koanf:"db_path"`
	DBHost     string `koanf:"db_host"`
	DBPort     int    `koanf:"db_port"`
	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBName     string `koanf:"db_name"`
	DBSSLMode  string `koanf:"db_sslmode"`

	// Prediction
	ModelPath string `koanf:"model_path"`

	// Report cache
	ReportCacheSize int           `koanf:"report_cache_size"`
	ReportCacheTTL  time.Duration `koanf:"report_cache_ttl"`

	// Event notification
	NotifyBackend  string `koanf:"notify_backend"`
	AMQPURL        string `koanf:"amqp_url"`
	AMQPExchange   string `koanf:"amqp_exchange"`
	AMQPRoutingKey string `koanf:"amqp_routing_key"`
	AMQPQueue      string `koanf:"amqp_queue"`
	MQTTBroker     string `koanf:"mqtt_broker"`
	MQTTTopic      string `koanf:"mqtt_topic"`
	MQTTClientID   string `koanf:"mqtt_client_id"`
	MQTTUsername   string `koanf:"mqtt_username"`
	MQTTPassword   string `koanf:"mqtt_password"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Port:     "8080",
		LogLevel: "info",

		DBDriver:  storage.DriverSQLite,
		DBPath:    "./data/powerpulse.db",
		DBHost:    "localhost",
		DBSSLMode: "disable",
		DBName:    "powerpulse",

		ModelPath: "./models/energy_model.json",

		ReportCacheSize: 12,

		NotifyBackend:  notify.BackendNone,
		AMQPExchange:   "powerpulse",
		AMQPRoutingKey: "prediction.completed",
		MQTTTopic:      "powerpulse/predictions",
		MQTTClientID:   "powerpulse",
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
func Load() (*Config, error) {
	if err := godotenv.Load(dotEnvFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", dotEnvFile, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// POWERPULSE_DB_DRIVER -> db_driver
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := *Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DBPort == 0 {
		cfg.DBPort = defaultDBPort(cfg.DBDriver)
	}
	return &cfg, nil
}

func defaultDBPort(driver string) int {
	switch driver {
	case storage.DriverPostgres:
		return 5432
	case storage.DriverMySQL:
		return 3306
	}
	return 0
}

// Storage returns the energy store settings.
func (c *Config) Storage() storage.Config {
	return storage.Config{
		Driver:   c.DBDriver,
		Path:     c.DBPath,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
		SSLMode:  c.DBSSLMode,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	validDrivers := []string{storage.DriverSQLite, storage.DriverPostgres, storage.DriverMySQL}
	switch {
	case !slices.Contains(validDrivers, c.DBDriver):
		errors = append(errors, fmt.Sprintf("invalid db driver '%s': must be one of %v", c.DBDriver, validDrivers))
	case c.DBDriver == storage.DriverSQLite:
		if c.DBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite driver")
		}
	default:
		if c.DBHost == "" {
			errors = append(errors, fmt.Sprintf("database host is required for %s", c.DBDriver))
		}
		if c.DBName == "" {
			errors = append(errors, fmt.Sprintf("database name is required for %s", c.DBDriver))
		}
		if c.DBPort < 1 || c.DBPort > 65535 {
			errors = append(errors, fmt.Sprintf("invalid database port %d", c.DBPort))
		}
	}

	if c.ModelPath == "" {
		errors = append(errors, "model path is required")
	}

	if c.ReportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.ReportCacheSize))
	}
	if c.ReportCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache ttl %v: must not be negative", c.ReportCacheTTL))
	}

	switch c.NotifyBackend {
	case notify.BackendNone:
	case notify.BackendAMQP:
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil || c.AMQPURL == "" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s'", c.AMQPURL))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when notifying over AMQP")
		}
	case notify.BackendMQTT:
		if c.MQTTBroker == "" {
			errors = append(errors, "MQTT broker is required when notifying over MQTT")
		}
		if c.MQTTTopic == "" {
			errors = append(errors, "MQTT topic is required when notifying over MQTT")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid notify backend '%s': must be one of %v",
			c.NotifyBackend, []string{notify.BackendNone, notify.BackendAMQP, notify.BackendMQTT}))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
