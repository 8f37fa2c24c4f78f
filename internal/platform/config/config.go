package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// Ledger API
	LedgerAPIURL       string
	LedgerAppURL       string
	LedgerAPIKey       string
	LedgerClientID     string
	LedgerClientSecret string
	LedgerTokenURL     string

	// Exchange rates
	RatesAPIURL   string
	RateCachePath string

	// Webhook intake
	WebhookToken string
	RateLimit    string

	// Audit event publishing
	KafkaBrokers []string
	KafkaTopic   string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("LEDGER_API_URL", "")
	viper.SetDefault("LEDGER_APP_URL", "")
	viper.SetDefault("LEDGER_API_KEY", "")
	viper.SetDefault("LEDGER_CLIENT_ID", "")
	viper.SetDefault("LEDGER_CLIENT_SECRET", "")
	viper.SetDefault("LEDGER_TOKEN_URL", "")
	viper.SetDefault("RATES_API_URL", "")
	viper.SetDefault("RATE_CACHE_PATH", "")
	viper.SetDefault("WEBHOOK_TOKEN", "")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TOPIC", "exchange-bot-sync")

	// Environment variables override defaults and .env file values.
	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL not set. Sync activity log will be disabled.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.LedgerAPIURL = viper.GetString("LEDGER_API_URL")
	if cfg.LedgerAPIURL == "" {
		log.Println("Warning: LEDGER_API_URL not set. Ledger API calls will fail.")
	}
	cfg.LedgerAppURL = viper.GetString("LEDGER_APP_URL")
	cfg.LedgerAPIKey = viper.GetString("LEDGER_API_KEY")
	cfg.LedgerClientID = viper.GetString("LEDGER_CLIENT_ID")
	cfg.LedgerClientSecret = viper.GetString("LEDGER_CLIENT_SECRET")
	cfg.LedgerTokenURL = viper.GetString("LEDGER_TOKEN_URL")
	if cfg.LedgerAPIKey == "" && cfg.LedgerClientID == "" {
		log.Println("Warning: neither LEDGER_API_KEY nor LEDGER_CLIENT_ID set. Ledger API requests will be unauthenticated.")
	}

	cfg.RatesAPIURL = viper.GetString("RATES_API_URL")
	cfg.RateCachePath = viper.GetString("RATE_CACHE_PATH")

	cfg.WebhookToken = viper.GetString("WEBHOOK_TOKEN")
	if cfg.WebhookToken == "" {
		log.Println("Warning: WEBHOOK_TOKEN not set. Webhook endpoints will accept unauthenticated requests.")
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	if brokers := viper.GetString("KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}
	cfg.KafkaTopic = viper.GetString("KAFKA_TOPIC")

	return cfg, nil
}
