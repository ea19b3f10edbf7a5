package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rotisserie/eris"

	"github.com/superpet-labs/petchain/assert"
	"github.com/superpet-labs/petchain/client"
	"github.com/superpet-labs/petchain/ledger"
	"github.com/superpet-labs/petchain/sign"
	"github.com/superpet-labs/petchain/types"
)

// scriptedTransport replays a fixed status sequence for every submission.
type scriptedTransport struct {
	statuses []client.Status
	closeCh  bool
}

func (s *scriptedTransport) Submit(
	_ context.Context, _ string, _ *sign.Transaction,
) (<-chan client.Status, error) {
	ch := make(chan client.Status, len(s.statuses)+1)
	for _, status := range s.statuses {
		ch <- status
	}
	if s.closeCh {
		close(ch)
	}
	return ch, nil
}

type staticEventSource struct {
	events map[types.Height][]ledger.Event
}

func (s *staticEventSource) ForHeight(h types.Height) ([]ledger.Event, error) {
	evs, ok := s.events[h]
	if !ok {
		return nil, eris.New("height not found")
	}
	return evs, nil
}

func newTestClient(t *testing.T, transport client.Transport) *client.Client {
	t.Helper()
	key, err := crypto.GenerateKey()
	assert.NilError(t, err)
	return client.New(key, "test", transport)
}

func submitMint(t *testing.T, c *client.Client) *client.Submission {
	t.Helper()
	sub, err := c.Submit(context.Background(), ledger.Mint{
		Name: "sheldon", Species: types.SpeciesTurtle, ID: 1,
	})
	assert.NilError(t, err)
	return sub
}

func TestWatchResolvesFinalizedWithMatchingEvent(t *testing.T) {
	ref := client.BlockRef{Height: 4}
	transport := &scriptedTransport{
		statuses: []client.Status{client.Ready(), client.InBlock(ref), client.Finalized(ref)},
		closeCh:  true,
	}
	c := newTestClient(t, transport)
	sub := submitMint(t, c)

	source := &staticEventSource{events: map[types.Height][]ledger.Event{
		4: {
			ledger.PetFed{Owner: "0xother", PetID: 9},
			ledger.PetMinted{Owner: c.Signer(), PetID: 1},
		},
	}}

	outcome := client.Watch(context.Background(), sub, source)
	assert.Equal(t, outcome.Kind, client.OutcomeFinalized)
	assert.Equal(t, outcome.Event, ledger.Event(ledger.PetMinted{Owner: c.Signer(), PetID: 1}))
	assert.Equal(t, outcome.Block.Height, types.Height(4))
}

func TestWatchReportsAnomalyWhenEventMissing(t *testing.T) {
	ref := client.BlockRef{Height: 4}
	transport := &scriptedTransport{
		statuses: []client.Status{client.Ready(), client.Finalized(ref)},
		closeCh:  true,
	}
	c := newTestClient(t, transport)
	sub := submitMint(t, c)

	// The block finalized but holds someone else's event only.
	source := &staticEventSource{events: map[types.Height][]ledger.Event{
		4: {ledger.PetMinted{Owner: "0xother", PetID: 1}},
	}}

	outcome := client.Watch(context.Background(), sub, source)
	assert.Equal(t, outcome.Kind, client.OutcomeNoMatchingEvent)
}

func TestWatchReportsAnomalyWhenHeightUnreadable(t *testing.T) {
	ref := client.BlockRef{Height: 4}
	transport := &scriptedTransport{
		statuses: []client.Status{client.Finalized(ref)},
		closeCh:  true,
	}
	c := newTestClient(t, transport)
	sub := submitMint(t, c)

	source := &staticEventSource{events: map[types.Height][]ledger.Event{}}
	outcome := client.Watch(context.Background(), sub, source)
	assert.Equal(t, outcome.Kind, client.OutcomeNoMatchingEvent)
}

func TestWatchResolvesInvalidToRejected(t *testing.T) {
	transport := &scriptedTransport{
		statuses: []client.Status{client.Invalid("nonce 1 already used")},
		closeCh:  true,
	}
	c := newTestClient(t, transport)
	sub := submitMint(t, c)

	outcome := client.Watch(context.Background(), sub, &staticEventSource{})
	assert.Equal(t, outcome.Kind, client.OutcomeRejected)
	assert.Equal(t, outcome.Reason, "nonce 1 already used")
}

func TestWatchResolvesDroppedToRejected(t *testing.T) {
	transport := &scriptedTransport{
		statuses: []client.Status{client.Ready(), client.Dropped("shutdown")},
		closeCh:  true,
	}
	c := newTestClient(t, transport)
	sub := submitMint(t, c)

	outcome := client.Watch(context.Background(), sub, &staticEventSource{})
	assert.Equal(t, outcome.Kind, client.OutcomeRejected)
}

func TestWatchResolvesClosedStreamToIndeterminate(t *testing.T) {
	transport := &scriptedTransport{
		statuses: []client.Status{client.Ready()},
		closeCh:  true,
	}
	c := newTestClient(t, transport)
	sub := submitMint(t, c)

	outcome := client.Watch(context.Background(), sub, &staticEventSource{})
	assert.Equal(t, outcome.Kind, client.OutcomeIndeterminate)
}

func TestWatchResolvesContextCancelToIndeterminate(t *testing.T) {
	// A stream that never terminates.
	transport := &scriptedTransport{statuses: []client.Status{client.Ready()}}
	c := newTestClient(t, transport)
	sub := submitMint(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	outcome := client.Watch(ctx, sub, &staticEventSource{})
	assert.Equal(t, outcome.Kind, client.OutcomeIndeterminate)
}

func TestClientNonceIncreasesPerSubmission(t *testing.T) {
	transport := &scriptedTransport{closeCh: true}
	key, err := crypto.GenerateKey()
	assert.NilError(t, err)
	c := client.New(key, "test", transport)

	sub1 := submitMint(t, c)
	sub2 := submitMint(t, c)
	assert.Assert(t, sub1.TxHash != sub2.TxHash)
}
