package server

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rotisserie/eris"
)

func (s *Server) registerEventHandler() {
	s.app.Use("/events", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return eris.Wrap(c.Next(), "")
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/events", websocket.New(s.hub.NewWebSocketEventHandler()))
}
