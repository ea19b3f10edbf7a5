package server

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/superpet-labs/petchain/events"
	"github.com/superpet-labs/petchain/types"
)

// GetPetResponse reports whether the account holds a pet and, if so, which.
type GetPetResponse struct {
	Account types.Account    `json:"account"`
	HasPet  bool             `json:"hasPet"`
	Pet     *types.PetRecord `json:"pet,omitempty"`
}

func (s *Server) handleQueryPet() func(*fiber.Ctx) error {
	return func(ctx *fiber.Ctx) error {
		account := types.Account(ctx.Params("account"))
		rec, ok, err := s.store.Pet(ctx.UserContext(), account)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		resp := GetPetResponse{Account: account, HasPet: ok}
		if ok {
			resp.Pet = &rec
		}
		return ctx.JSON(&resp)
	}
}

// GetActivityResponse carries the recorded activity heights for one pet.
// LastFeedTime is 0 until the first feed. LastSleepTime is absent until the
// first sleep; a recorded height of 0 and "never slept" are distinct states.
type GetActivityResponse struct {
	PetID         types.PetID   `json:"petId"`
	LastFeedTime  types.Height  `json:"lastFeedTime"`
	LastSleepTime *types.Height `json:"lastSleepTime,omitempty"`
}

func (s *Server) handleQueryActivity() func(*fiber.Ctx) error {
	return func(ctx *fiber.Ctx) error {
		raw, err := strconv.ParseUint(ctx.Params("id"), 10, 32)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "pet id must be a uint32")
		}
		id := types.PetID(raw)

		feed, err := s.store.LastFeedTime(ctx.UserContext(), id)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		resp := GetActivityResponse{PetID: id, LastFeedTime: feed}

		sleep, ok, err := s.store.LastSleepTime(ctx.UserContext(), id)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if ok {
			resp.LastSleepTime = &sleep
		}
		return ctx.JSON(&resp)
	}
}

// GetReceiptsResponse lists the receipts finalized at one height.
type GetReceiptsResponse struct {
	Height   types.Height     `json:"height"`
	Receipts []events.Receipt `json:"receipts"`
}

func (s *Server) handleQueryReceipts() func(*fiber.Ctx) error {
	return func(ctx *fiber.Ctx) error {
		raw, err := strconv.ParseUint(ctx.Params("height"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "height must be a uint64")
		}
		h := types.Height(raw)
		receipts, err := s.seq.History().ReceiptsForHeight(h)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return ctx.JSON(&GetReceiptsResponse{Height: h, Receipts: receipts})
	}
}
