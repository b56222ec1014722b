package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Sentry      SentryConfig    `mapstructure:"sentry"`
	Predictor   PredictorConfig `mapstructure:"predictor"`
	Telegram    TelegramConfig  `mapstructure:"telegram"`
	Engine      EngineConfig    `mapstructure:"engine"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	DatabaseURL string `mapstructure:"database_url"`
	MaxConns    int    `mapstructure:"max_conns"`
}

// DSN returns the connection string, preferring an explicit database_url.
func (d DatabaseConfig) DSN() string {
	if d.DatabaseURL != "" {
		return d.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type SentryConfig struct {
	DSN              string  `mapstructure:"dsn"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate"`
}

type PredictorConfig struct {
	ServiceURL string        `mapstructure:"service_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// ThresholdConfig is a per-volatility-level acceptance floor.
type ThresholdConfig struct {
	MinScore      float64 `mapstructure:"min_score"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

type EngineConfig struct {
	PrimaryTimeframe           string                     `mapstructure:"primary_timeframe"`
	MinQualityScore            float64                    `mapstructure:"min_quality_score"`
	MultiTimeframeWeight       float64                    `mapstructure:"multi_timeframe_weight"`
	VolumeConfirmationRequired bool                       `mapstructure:"volume_confirmation_required"`
	TrendAlignmentRequired     bool                       `mapstructure:"trend_alignment_required"`
	EvaluationTimeout          time.Duration              `mapstructure:"evaluation_timeout"`
	Thresholds                 map[string]ThresholdConfig `mapstructure:"thresholds"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind TELEGRAM_BOT_TOKEN: %w", err)
	}
	if err := viper.BindEnv("sentry.dsn", "SENTRY_DSN"); err != nil {
		return nil, fmt.Errorf("failed to bind SENTRY_DSN: %w", err)
	}
	if err := viper.BindEnv("database.database_url", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_URL: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; defaults plus environment cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "signal_engine")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_conns", 10)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl", "30s")

	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.traces_sample_rate", 0.1)

	viper.SetDefault("predictor.service_url", "http://localhost:9001")
	viper.SetDefault("predictor.timeout", "5s")

	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", "")

	viper.SetDefault("engine.primary_timeframe", "1h")
	viper.SetDefault("engine.min_quality_score", 0.70)
	viper.SetDefault("engine.multi_timeframe_weight", 0.20)
	viper.SetDefault("engine.volume_confirmation_required", true)
	viper.SetDefault("engine.trend_alignment_required", true)
	viper.SetDefault("engine.evaluation_timeout", "10s")

	viper.SetDefault("engine.thresholds.low.min_score", 0.65)
	viper.SetDefault("engine.thresholds.low.min_confidence", 0.60)
	viper.SetDefault("engine.thresholds.medium.min_score", 0.75)
	viper.SetDefault("engine.thresholds.medium.min_confidence", 0.70)
	viper.SetDefault("engine.thresholds.high.min_score", 0.85)
	viper.SetDefault("engine.thresholds.high.min_confidence", 0.80)
	viper.SetDefault("engine.thresholds.extreme.min_score", 0.95)
	viper.SetDefault("engine.thresholds.extreme.min_confidence", 0.90)
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	switch config.Engine.PrimaryTimeframe {
	case "1m", "5m", "15m", "1h", "4h":
	default:
		return fmt.Errorf("invalid primary timeframe: %q", config.Engine.PrimaryTimeframe)
	}
	if config.Engine.MinQualityScore < 0 || config.Engine.MinQualityScore > 1 {
		return fmt.Errorf("min_quality_score must be in [0,1], got %f", config.Engine.MinQualityScore)
	}
	if config.Engine.EvaluationTimeout <= 0 {
		return fmt.Errorf("evaluation_timeout must be positive, got %s", config.Engine.EvaluationTimeout)
	}
	for level, th := range config.Engine.Thresholds {
		if th.MinScore < 0 || th.MinScore > 1 || th.MinConfidence < 0 || th.MinConfidence > 1 {
			return fmt.Errorf("threshold for %q out of range", level)
		}
	}
	return nil
}
