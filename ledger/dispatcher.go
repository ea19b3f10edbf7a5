// Package ledger implements the single-owner pet state machine: the command
// and event unions and the dispatcher that applies one command at a time
// against the store.
package ledger

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/superpet-labs/petchain/ledger/store"
	"github.com/superpet-labs/petchain/types"
)

// Dispatcher validates and applies commands. It assumes commands arrive one
// at a time; the sequencer serializes them by construction. Dispatch is
// atomic per command: either every store mutation lands and exactly one
// event is returned, or the store is untouched and a typed error is
// returned.
type Dispatcher struct {
	store  *store.Store
	logger zerolog.Logger
}

func NewDispatcher(s *store.Store, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{store: s, logger: logger}
}

// Dispatch applies cmd on behalf of signer at height h.
//
// The name length bound is not enforced here; it belongs to the transport
// boundary. Pet id uniqueness across accounts is deliberately not checked
// either: the minting account owns its id namespace, and two accounts may
// mint the same id.
func (d *Dispatcher) Dispatch(
	ctx context.Context, signer types.Account, cmd Command, h types.Height,
) (Event, error) {
	switch c := cmd.(type) {
	case Mint:
		return d.mint(ctx, signer, c)
	case Transfer:
		return d.transfer(ctx, signer, c)
	case Feed:
		return d.feed(ctx, signer, h)
	case Sleep:
		return d.sleep(ctx, signer, h)
	}
	return nil, eris.Wrapf(ErrUnknownCommand, "%T", cmd)
}

func (d *Dispatcher) mint(ctx context.Context, signer types.Account, c Mint) (Event, error) {
	_, owns, err := d.store.Pet(ctx, signer)
	if err != nil {
		return nil, err
	}
	if owns {
		return nil, eris.Wrap(ErrAccountAlreadyHasPet, string(signer))
	}

	rec := types.PetRecord{ID: c.ID, Name: c.Name, Species: c.Species}
	if err := d.store.SetPet(ctx, signer, rec); err != nil {
		return nil, err
	}

	d.logger.Debug().
		Str("signer", string(signer)).
		Uint32("pet_id", uint32(c.ID)).
		Str("species", c.Species.String()).
		Msg("pet minted")
	return PetMinted{Owner: signer, PetID: c.ID}, nil
}

func (d *Dispatcher) transfer(ctx context.Context, signer types.Account, c Transfer) (Event, error) {
	rec, owns, err := d.store.Pet(ctx, signer)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, eris.Wrap(ErrAccountHasNoPet, string(signer))
	}
	_, receiverOwns, err := d.store.Pet(ctx, c.Receiver)
	if err != nil {
		return nil, err
	}
	if receiverOwns {
		return nil, eris.Wrap(ErrAccountAlreadyHasPet, string(c.Receiver))
	}

	// The record moves between owners in one transaction so no reader can
	// observe a duplicated or missing pet. Activity timestamps are keyed by
	// pet id and are untouched by the move.
	tx, err := d.store.Atomic(ctx)
	if err != nil {
		return nil, err
	}
	if err := tx.SetPet(ctx, c.Receiver, rec); err != nil {
		return nil, err
	}
	if err := tx.RemovePet(ctx, signer); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	d.logger.Debug().
		Str("from", string(signer)).
		Str("to", string(c.Receiver)).
		Uint32("pet_id", uint32(rec.ID)).
		Msg("pet transferred")
	return PetTransferred{From: signer, To: c.Receiver, PetID: rec.ID}, nil
}

func (d *Dispatcher) feed(ctx context.Context, signer types.Account, h types.Height) (Event, error) {
	rec, owns, err := d.store.Pet(ctx, signer)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, eris.Wrap(ErrAccountHasNoPet, string(signer))
	}
	if err := d.store.SetLastFeedTime(ctx, rec.ID, h); err != nil {
		return nil, err
	}

	d.logger.Debug().
		Str("signer", string(signer)).
		Uint32("pet_id", uint32(rec.ID)).
		Uint64("height", uint64(h)).
		Msg("pet fed")
	return PetFed{Owner: signer, PetID: rec.ID}, nil
}

func (d *Dispatcher) sleep(ctx context.Context, signer types.Account, h types.Height) (Event, error) {
	rec, owns, err := d.store.Pet(ctx, signer)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, eris.Wrap(ErrAccountHasNoPet, string(signer))
	}
	if err := d.store.SetLastSleepTime(ctx, rec.ID, h); err != nil {
		return nil, err
	}

	d.logger.Debug().
		Str("signer", string(signer)).
		Uint32("pet_id", uint32(rec.ID)).
		Uint64("height", uint64(h)).
		Msg("pet slept")
	return PetSlept{Owner: signer, PetID: rec.ID}, nil
}
