package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AlgodURL      string `env:"ALGOD_URL" envDefault:"https://testnet-api.algonode.cloud"`
	AlgodToken    string `env:"ALGOD_TOKEN"`
	EscrowAddress string `env:"ESCROW_ADDRESS,required,notEmpty"`

	// Wager band accepted by find-match, in microAlgos. The band is an
	// operator choice, not part of the game contract.
	WagerMinMicroalgos int64 `env:"WAGER_MIN_MICROALGOS" envDefault:"1000"`
	WagerMaxMicroalgos int64 `env:"WAGER_MAX_MICROALGOS" envDefault:"100000"`

	PayoutFeeMicroalgos int64 `env:"PAYOUT_FEE_MICROALGOS" envDefault:"1000"`

	MatchRatingWindow int `env:"MATCH_RATING_WINDOW" envDefault:"200"`

	ReminderAfter time.Duration `env:"REMINDER_AFTER" envDefault:"30m"`
	AbandonAfter  time.Duration `env:"ABANDON_AFTER" envDefault:"72h"`
	QueueTTL      time.Duration `env:"QUEUE_TTL" envDefault:"1h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
