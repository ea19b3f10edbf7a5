// Package petchain wires storage, the sequencer, the event hub, and the
// HTTP server into one runnable application.
package petchain

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/superpet-labs/petchain/chain"
	"github.com/superpet-labs/petchain/events"
	"github.com/superpet-labs/petchain/ledger/store"
	"github.com/superpet-labs/petchain/server"
	"github.com/superpet-labs/petchain/storage"
)

type App struct {
	cfg    Config
	primdb storage.PrimitiveStorage
	store  *store.Store
	seq    *chain.Sequencer
	hub    *events.Hub
	srv    *server.Server
	logger zerolog.Logger
}

// NewApp builds the application from cfg. State lands in Redis when
// RedisAddress is set, otherwise in process memory.
func NewApp(ctx context.Context, cfg Config, logger zerolog.Logger) (*App, error) {
	var primdb storage.PrimitiveStorage
	if cfg.RedisAddress != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
		})
		primdb = storage.NewRedisStorage(client)
		logger.Info().Str("address", cfg.RedisAddress).Msg("using redis storage")
	} else {
		primdb = storage.NewMapStorage()
		logger.Warn().Msg("no REDIS_ADDRESS set, state will not survive a restart")
	}

	st := store.New(primdb)
	hub := events.NewHub()

	seq, err := chain.New(ctx, cfg.Namespace, st,
		chain.WithHub(hub),
		chain.WithLogger(logger),
		chain.WithMaxNameLength(cfg.MaxPetNameLength),
		chain.WithHistorySize(cfg.EventHistorySize),
	)
	if err != nil {
		return nil, err
	}

	srv := server.New(seq, st,
		server.WithPort(cfg.Port),
		server.WithHub(hub),
		server.WithLogger(logger),
	)

	return &App{
		cfg:    cfg,
		primdb: primdb,
		store:  st,
		seq:    seq,
		hub:    hub,
		srv:    srv,
		logger: logger,
	}, nil
}

func (a *App) Sequencer() *chain.Sequencer {
	return a.seq
}

// Run serves HTTP and produces blocks on the configured interval until ctx
// is canceled, then shuts everything down in order: no new submissions,
// pending commands dropped, listener closed, storage closed.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.srv.Serve()
	}()

	ticker := time.NewTicker(a.cfg.TickInterval())
	defer ticker.Stop()

	a.logger.Info().
		Str("namespace", a.cfg.Namespace).
		Uint64("height", uint64(a.seq.Height())).
		Dur("tick_interval", a.cfg.TickInterval()).
		Msg("petchain started")

	for {
		select {
		case <-ctx.Done():
			return a.shutdown()
		case err := <-serveErr:
			a.seq.Shutdown()
			return err
		case <-ticker.C:
			if err := a.seq.Tick(ctx); err != nil {
				a.logger.Error().Err(err).Msg("tick failed")
				return a.shutdown()
			}
		}
	}
}

func (a *App) shutdown() error {
	a.logger.Info().Msg("shutting down")
	a.seq.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("server shutdown failed")
	}
	return a.primdb.Close(shutdownCtx)
}
