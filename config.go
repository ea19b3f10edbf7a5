package petchain

import (
	"time"

	jlconfig "github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
)

// Config is loaded from the environment. Struct fields in PascalCase match
// env variables in SNAKE_CASE, so RedisAddress is set by REDIS_ADDRESS.
type Config struct {
	// Namespace isolates signed transactions to this deployment; envelopes
	// signed for another namespace are rejected.
	Namespace string

	// RedisAddress selects the Redis backend. When empty, state is kept in
	// process memory and lost on restart.
	RedisAddress  string `config:"REDIS_ADDRESS"`
	RedisPassword string `config:"REDIS_PASSWORD"`

	Port string

	// TickIntervalMillis is the block production period.
	TickIntervalMillis int `config:"TICK_INTERVAL_MILLIS"`

	// MaxPetNameLength bounds the name accepted by a mint.
	MaxPetNameLength int `config:"MAX_PET_NAME_LENGTH"`

	// EventHistorySize is how many finalized heights of events and receipts
	// stay queryable.
	EventHistorySize int `config:"EVENT_HISTORY_SIZE"`
}

func defaultConfig() Config {
	return Config{
		Namespace:          "petchain",
		Port:               "4040",
		TickIntervalMillis: 1000,
		MaxPetNameLength:   32,
		EventHistorySize:   64,
	}
}

// LoadConfig reads the environment over the defaults.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if err := jlconfig.FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to load config from env")
	}
	if cfg.TickIntervalMillis <= 0 {
		return cfg, eris.New("TICK_INTERVAL_MILLIS must be positive")
	}
	if cfg.MaxPetNameLength <= 0 {
		return cfg, eris.New("MAX_PET_NAME_LENGTH must be positive")
	}
	if cfg.EventHistorySize <= 0 {
		return cfg, eris.New("EVENT_HISTORY_SIZE must be positive")
	}
	return cfg, nil
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMillis) * time.Millisecond
}
