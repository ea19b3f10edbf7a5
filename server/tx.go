package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/superpet-labs/petchain/client"
	"github.com/superpet-labs/petchain/sign"
	"github.com/superpet-labs/petchain/types"
)

// PostTransactionResponse is returned for an accepted submission. Height is
// the open height the command will be included at or after.
type PostTransactionResponse struct {
	TxHash string       `json:"txHash"`
	Height types.Height `json:"height"`
}

func (s *Server) handlePostTransaction() func(*fiber.Ctx) error {
	return func(ctx *fiber.Ctx) error {
		body := ctx.Body()
		if len(body) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "request body was empty")
		}
		tx, err := sign.UnmarshalTransaction(body)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unparseable transaction body")
		}

		statuses, err := s.seq.Submit(ctx.UserContext(), ctx.Params("name"), tx)
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		// The first status is buffered before Submit returns: Ready on
		// acceptance, or a terminal rejection.
		first := <-statuses
		switch first.Kind {
		case client.StatusInvalid:
			return fiber.NewError(fiber.StatusBadRequest, first.Reason)
		case client.StatusError:
			return fiber.NewError(fiber.StatusInternalServerError, first.Reason)
		}
		return ctx.JSON(&PostTransactionResponse{
			TxHash: tx.HashHex(),
			Height: s.seq.Height(),
		})
	}
}
