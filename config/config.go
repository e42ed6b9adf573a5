package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	CORSAllowOrigins  string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	// TrustedProxies is a comma-separated list of proxy IPs or CIDRs whose
	// X-Forwarded-For and X-Real-IP headers are believed. Empty trusts none.
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`

	// MongoDB configuration.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB     int           `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB     int           `mapstructure:"REDIS_QUEUE_DB"`
	ScheduleCacheTTL time.Duration `mapstructure:"SCHEDULE_CACHE_TTL"`

	// Occurrence worker configuration.
	OccurrenceScanCron  string        `mapstructure:"OCCURRENCE_SCAN_CRON"`
	OccurrenceLookahead time.Duration `mapstructure:"OCCURRENCE_LOOKAHEAD"`
	WorkerConcurrency   int           `mapstructure:"WORKER_CONCURRENCY"`

	// DefaultTimezone applies to providers and rules that do not set one.
	DefaultTimezone string `mapstructure:"DEFAULT_TIMEZONE"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("TRUSTED_PROXIES", "")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "bloomify")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 3)
	viper.SetDefault("SCHEDULE_CACHE_TTL", "10m")
	viper.SetDefault("OCCURRENCE_SCAN_CRON", "@every 1m")
	viper.SetDefault("OCCURRENCE_LOOKAHEAD", "15m")
	viper.SetDefault("WORKER_CONCURRENCY", 10)
	viper.SetDefault("DEFAULT_TIMEZONE", "UTC")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// TrustedProxyList splits TrustedProxies into the form gin's SetTrustedProxies takes.
func TrustedProxyList() []string {
	var out []string
	for _, p := range strings.Split(AppConfig.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
