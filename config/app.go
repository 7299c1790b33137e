package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// AppConfig carries the ambient settings the settlement services depend on.
// It is loaded once in main() and handed to each service at construction;
// business logic never reads the environment directly.
type AppConfig struct {
	// LocalId identifies this retail location in responses and published events.
	LocalId string
	Port    string

	// CashDifferenceLimit is the canonical threshold for the
	// excessive-cash-differences closure check. The per-day
	// max_allowed_difference column is kept as data but not consulted;
	// a single configured limit keeps the check battery and the close
	// path's re-check consistent with each other.
	CashDifferenceLimit decimal.Decimal

	// DayCloseTopic is the Pub/Sub topic the outbox dispatcher publishes
	// committed day-close events to. Empty disables dispatching.
	DayCloseTopic string
}

const defaultPort = "8080"

func LoadAppConfig() *AppConfig {
	godotenv.Load()

	cfg := &AppConfig{
		LocalId:             strings.TrimSpace(os.Getenv("LOCAL_ID")),
		Port:                strings.TrimSpace(os.Getenv("PORT")),
		CashDifferenceLimit: decimal.NewFromInt(25),
		DayCloseTopic:       strings.TrimSpace(os.Getenv("PUBSUB_TOPIC")),
	}
	if cfg.LocalId == "" {
		cfg.LocalId = "RESTO_001"
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if v := strings.TrimSpace(os.Getenv("CASH_DIFFERENCE_LIMIT")); v != "" {
		limit, err := decimal.NewFromString(v)
		if err != nil || limit.IsNegative() {
			log.Printf("invalid CASH_DIFFERENCE_LIMIT %q; keeping default %s", v, cfg.CashDifferenceLimit)
		} else {
			cfg.CashDifferenceLimit = limit
		}
	}
	return cfg
}
