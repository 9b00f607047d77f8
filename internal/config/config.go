package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultArcGISURL is the Water.ie water advisory FeatureServer query endpoint.
const DefaultArcGISURL = "https://services2.arcgis.com/OqejhVam51LdtxGa/arcgis/rest/services/" +
	"WaterAdvisoryCR021_DeptView/FeatureServer/0/query"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// ArcGIS upstream configuration.
	ArcGISURL       string
	ArcGISTimeout   time.Duration
	ArcGISCacheTTL  time.Duration
	ArcGISCacheSize int

	SMTP SMTPConfig

	// Kafka outage event publishing; disabled when no brokers are set.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// SMTPConfig holds outbound mail settings. Email is disabled when Host is empty.
type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	SubjectPrefix string
	// Timeout bounds one delivery attempt.
	Timeout time.Duration
}

// Enabled reports whether enough settings are present to send mail.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	arcgisTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("ARCGIS_TIMEOUT", "15s"))
	if err != nil || arcgisTimeout <= 0 {
		return nil, errors.New("invalid ARCGIS_TIMEOUT")
	}

	cacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("ARCGIS_CACHE_TTL", "0s"))
	if err != nil || cacheTTL < 0 {
		return nil, errors.New("invalid ARCGIS_CACHE_TTL")
	}

	smtpPort, err := strconv.Atoi(sharedcfg.EnvOrDefault("SMTP_PORT", "587"))
	if err != nil || smtpPort <= 0 || smtpPort > 65535 {
		return nil, errors.New("invalid SMTP_PORT")
	}

	smtpTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("SMTP_TIMEOUT", "30s"))
	if err != nil || smtpTimeout <= 0 {
		return nil, errors.New("invalid SMTP_TIMEOUT")
	}

	brokers := os.Getenv("KAFKA_BROKERS")

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ArcGISURL:       sharedcfg.EnvOrDefault("ARCGIS_URL", DefaultArcGISURL),
		ArcGISTimeout:   arcgisTimeout,
		ArcGISCacheTTL:  cacheTTL,
		ArcGISCacheSize: parseCacheSize(),

		SMTP: SMTPConfig{
			Host:          os.Getenv("SMTP_HOST"),
			Port:          smtpPort,
			Username:      os.Getenv("SMTP_USER"),
			Password:      os.Getenv("SMTP_PASSWORD"),
			From:          os.Getenv("SMTP_FROM"),
			SubjectPrefix: sharedcfg.EnvOrDefault("MAIL_SUBJECT_PREFIX", "[Water.ie]"),
			Timeout:       smtpTimeout,
		},

		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "water-outages"),
		KafkaEnabled: brokers != "",
	}
	if cfg.KafkaEnabled {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.ArcGISURL == "" {
		return nil, errors.New("ARCGIS_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is set but lists no brokers")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseCacheSize() int {
	if s := os.Getenv("ARCGIS_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 64
}
