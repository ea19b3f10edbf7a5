package server

import "github.com/gofiber/fiber/v2"

type GetHealthResponse struct {
	IsServerRunning bool   `json:"isServerRunning"`
	CurrentHeight   uint64 `json:"currentHeight"`
	PendingTxs      int    `json:"pendingTxs"`
}

func (s *Server) registerHealthHandler() {
	s.app.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(GetHealthResponse{
			IsServerRunning: s.running.Load(),
			CurrentHeight:   uint64(s.seq.Height()),
			PendingTxs:      s.seq.PendingTxs(),
		})
	})
}
