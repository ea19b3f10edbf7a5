package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/superpet-labs/petchain/assert"
	"github.com/superpet-labs/petchain/ledger/store"
	"github.com/superpet-labs/petchain/storage"
	"github.com/superpet-labs/petchain/types"
)

func newRedisStore(t *testing.T) *store.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return store.New(storage.NewRedisStorage(client))
}

func TestPetRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newRedisStore(t)
	owner := types.Account("0xabc")

	_, ok, err := st.Pet(ctx, owner)
	assert.NilError(t, err)
	assert.False(t, ok)

	want := types.PetRecord{ID: 42, Name: "sheldon", Species: types.SpeciesTurtle}
	assert.NilError(t, st.SetPet(ctx, owner, want))

	got, ok, err := st.Pet(ctx, owner)
	assert.NilError(t, err)
	assert.True(t, ok)
	assert.Equal(t, got, want)

	assert.NilError(t, st.RemovePet(ctx, owner))
	_, ok, err = st.Pet(ctx, owner)
	assert.NilError(t, err)
	assert.False(t, ok)
}

func TestHeightStartsAtZeroAndPersists(t *testing.T) {
	ctx := context.Background()
	st := newRedisStore(t)

	h, err := st.Height(ctx)
	assert.NilError(t, err)
	assert.Equal(t, h, types.Height(0))

	assert.NilError(t, st.SetHeight(ctx, 17))
	h, err = st.Height(ctx)
	assert.NilError(t, err)
	assert.Equal(t, h, types.Height(17))
}

func TestNonceStartsAtZero(t *testing.T) {
	ctx := context.Background()
	st := newRedisStore(t)
	account := types.Account("0xdef")

	n, err := st.LastNonce(ctx, account)
	assert.NilError(t, err)
	assert.Equal(t, n, uint64(0))

	assert.NilError(t, st.SetLastNonce(ctx, account, 3))
	n, err = st.LastNonce(ctx, account)
	assert.NilError(t, err)
	assert.Equal(t, n, uint64(3))
}

func TestAtomicWritesLandTogether(t *testing.T) {
	ctx := context.Background()
	st := newRedisStore(t)
	alice, bob := types.Account("0xa"), types.Account("0xb")
	rec := types.PetRecord{ID: 1, Name: "thumper", Species: types.SpeciesRabbit}
	assert.NilError(t, st.SetPet(ctx, alice, rec))

	tx, err := st.Atomic(ctx)
	assert.NilError(t, err)
	assert.NilError(t, tx.SetPet(ctx, bob, rec))
	assert.NilError(t, tx.RemovePet(ctx, alice))

	// Nothing is visible until commit.
	_, ok, err := st.Pet(ctx, bob)
	assert.NilError(t, err)
	assert.False(t, ok)

	assert.NilError(t, tx.Commit(ctx))

	_, ok, err = st.Pet(ctx, alice)
	assert.NilError(t, err)
	assert.False(t, ok)
	got, ok, err := st.Pet(ctx, bob)
	assert.NilError(t, err)
	assert.True(t, ok)
	assert.Equal(t, got, rec)
}

func TestActivityDefaults(t *testing.T) {
	ctx := context.Background()
	st := store.New(storage.NewMapStorage())

	feed, err := st.LastFeedTime(ctx, 99)
	assert.NilError(t, err)
	assert.Equal(t, feed, types.Height(0))

	_, ok, err := st.LastSleepTime(ctx, 99)
	assert.NilError(t, err)
	assert.False(t, ok)

	assert.NilError(t, st.SetLastFeedTime(ctx, 99, 7))
	assert.NilError(t, st.SetLastSleepTime(ctx, 99, 0))

	feed, err = st.LastFeedTime(ctx, 99)
	assert.NilError(t, err)
	assert.Equal(t, feed, types.Height(7))

	slept, ok, err := st.LastSleepTime(ctx, 99)
	assert.NilError(t, err)
	assert.True(t, ok)
	assert.Equal(t, slept, types.Height(0))
}
