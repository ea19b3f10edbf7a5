// Package server exposes the sequencer over HTTP: transaction submission,
// ledger queries, receipt queries, and a websocket event stream.
package server

import (
	"context"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/superpet-labs/petchain/chain"
	"github.com/superpet-labs/petchain/events"
	"github.com/superpet-labs/petchain/ledger/store"
)

const defaultPort = "4040"

type Server struct {
	seq   *chain.Sequencer
	store *store.Store
	hub   *events.Hub
	app   *fiber.App

	port    string
	running atomic.Bool
	logger  zerolog.Logger
}

type Option func(*Server)

func WithPort(port string) Option {
	return func(s *Server) { s.port = port }
}

func WithHub(hub *events.Hub) Option {
	return func(s *Server) { s.hub = hub }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

func New(seq *chain.Sequencer, st *store.Store, opts ...Option) *Server {
	s := &Server{
		seq:   seq,
		store: st,
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		port:   defaultPort,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerHandlers()
	return s
}

func (s *Server) registerHandlers() {
	s.app.Post("/tx/pet/:name", s.handlePostTransaction())
	s.app.Get("/query/pet/:account", s.handleQueryPet())
	s.app.Get("/query/activity/:id", s.handleQueryActivity())
	s.app.Get("/query/receipts/:height", s.handleQueryReceipts())
	s.registerHealthHandler()
	if s.hub != nil {
		s.registerEventHandler()
	}
}

// Serve blocks until the listener stops. Run it on its own goroutine and
// stop it with Shutdown.
func (s *Server) Serve() error {
	s.running.Store(true)
	defer s.running.Store(false)
	s.logger.Info().Str("port", s.port).Msg("serving HTTP")
	if err := s.app.Listen(":" + s.port); err != nil {
		return eris.Wrap(err, "server stopped")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Shutdown()
	}
	return eris.Wrap(s.app.ShutdownWithContext(ctx), "")
}

// App exposes the fiber app, mainly for in-process request tests.
func (s *Server) App() *fiber.App {
	return s.app
}
