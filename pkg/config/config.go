package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Ledger policy
	AllowNegativeBalance bool
	DecimalPrecision     int32

	// Event sink; empty means events are discarded
	KafkaBrokers []string

	// Rate limit in limiter format, e.g. "100-M"
	RateLimit string
}

// LoadConfig loads configuration from environment variables and a .env file
// if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("ALLOW_NEGATIVE_BALANCE", false)
	viper.SetDefault("DECIMAL_PRECISION", 2)
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.AllowNegativeBalance = viper.GetBool("ALLOW_NEGATIVE_BALANCE")

	cfg.DecimalPrecision = viper.GetInt32("DECIMAL_PRECISION")
	if cfg.DecimalPrecision < 0 {
		log.Printf("Warning: Invalid DECIMAL_PRECISION (%d). Defaulting to 2.\n", cfg.DecimalPrecision)
		cfg.DecimalPrecision = 2
	}

	if brokers := viper.GetString("KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}
