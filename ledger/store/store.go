// Package store is the authoritative mapping from account to pet record and
// from pet id to activity timestamps. It is pure data access; validation
// belongs to the dispatcher.
package store

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/superpet-labs/petchain/storage"
	"github.com/superpet-labs/petchain/types"
)

type Store struct {
	storage storage.PrimitiveStorage
}

func New(primitive storage.PrimitiveStorage) *Store {
	return &Store{storage: primitive}
}

// Atomic returns a store whose writes are buffered until Commit. The
// dispatcher uses it so a command's mutations land all at once or not at
// all.
func (s *Store) Atomic(ctx context.Context) (*Store, error) {
	tx, err := s.storage.StartTransaction(ctx)
	if err != nil {
		return nil, err
	}
	return &Store{storage: tx}, nil
}

func (s *Store) Commit(ctx context.Context) error {
	return s.storage.EndTransaction(ctx)
}

// Pet returns the record owned by the given account. The second return is
// false when the account owns no pet.
func (s *Store) Pet(ctx context.Context, account types.Account) (types.PetRecord, bool, error) {
	bz, err := s.storage.GetBytes(ctx, petKey(account))
	if eris.Is(eris.Cause(err), eris.Cause(storage.ErrNotFound)) {
		return types.PetRecord{}, false, nil
	}
	if err != nil {
		return types.PetRecord{}, false, err
	}
	var rec types.PetRecord
	if err := json.Unmarshal(bz, &rec); err != nil {
		return types.PetRecord{}, false, eris.Wrap(err, "failed to decode pet record")
	}
	return rec, true, nil
}

func (s *Store) SetPet(ctx context.Context, account types.Account, rec types.PetRecord) error {
	bz, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "failed to encode pet record")
	}
	return s.storage.Set(ctx, petKey(account), bz)
}

func (s *Store) RemovePet(ctx context.Context, account types.Account) error {
	return s.storage.Delete(ctx, petKey(account))
}

// LastFeedTime returns the height of the pet's last feeding. A pet that has
// never been fed reads as height 0.
func (s *Store) LastFeedTime(ctx context.Context, id types.PetID) (types.Height, error) {
	h, err := s.storage.GetUInt64(ctx, lastFeedKey(id))
	if eris.Is(eris.Cause(err), eris.Cause(storage.ErrNotFound)) {
		return 0, nil
	}
	return types.Height(h), err
}

func (s *Store) SetLastFeedTime(ctx context.Context, id types.PetID, h types.Height) error {
	return s.storage.Set(ctx, lastFeedKey(id), uint64(h))
}

// LastSleepTime returns the height of the pet's last sleep. The second
// return is false when the pet has never slept; absence is meaningful and
// distinct from sleeping at height 0.
func (s *Store) LastSleepTime(ctx context.Context, id types.PetID) (types.Height, bool, error) {
	h, err := s.storage.GetUInt64(ctx, lastSleepKey(id))
	if eris.Is(eris.Cause(err), eris.Cause(storage.ErrNotFound)) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return types.Height(h), true, nil
}

func (s *Store) SetLastSleepTime(ctx context.Context, id types.PetID, h types.Height) error {
	return s.storage.Set(ctx, lastSleepKey(id), uint64(h))
}

// Height returns the persisted logical clock. A fresh store reads as 0.
func (s *Store) Height(ctx context.Context) (types.Height, error) {
	h, err := s.storage.GetUInt64(ctx, heightKey)
	if eris.Is(eris.Cause(err), eris.Cause(storage.ErrNotFound)) {
		return 0, nil
	}
	return types.Height(h), err
}

func (s *Store) SetHeight(ctx context.Context, h types.Height) error {
	return s.storage.Set(ctx, heightKey, uint64(h))
}

// LastNonce returns the highest nonce accepted from the given signer, or 0
// if none has been.
func (s *Store) LastNonce(ctx context.Context, account types.Account) (uint64, error) {
	n, err := s.storage.GetUInt64(ctx, nonceKey(account))
	if eris.Is(eris.Cause(err), eris.Cause(storage.ErrNotFound)) {
		return 0, nil
	}
	return n, err
}

func (s *Store) SetLastNonce(ctx context.Context, account types.Account, nonce uint64) error {
	return s.storage.Set(ctx, nonceKey(account), nonce)
}
