package events_test

import (
	"sync"
	"testing"

	"github.com/superpet-labs/petchain/assert"
	"github.com/superpet-labs/petchain/events"
	"github.com/superpet-labs/petchain/ledger"
	"github.com/superpet-labs/petchain/types"
)

func TestOpenHeightIsNotReadable(t *testing.T) {
	h := events.NewHistory(0, 4)
	h.AddEvent(ledger.PetMinted{Owner: "0xa", PetID: 1})

	_, err := h.ForHeight(0)
	assert.ErrorIs(t, err, events.ErrHeightInProgress)

	h.NextHeight()
	evs, err := h.ForHeight(0)
	assert.NilError(t, err)
	assert.Len(t, evs, 1)
}

func TestEventsKeepDispatchOrder(t *testing.T) {
	h := events.NewHistory(0, 4)
	h.AddEvent(ledger.PetMinted{Owner: "0xa", PetID: 1})
	h.AddEvent(ledger.PetTransferred{From: "0xa", To: "0xb", PetID: 1})
	h.AddEvent(ledger.PetFed{Owner: "0xb", PetID: 1})
	h.NextHeight()

	evs, err := h.ForHeight(0)
	assert.NilError(t, err)
	assert.Len(t, evs, 3)
	assert.Equal(t, evs[0].Kind(), ledger.EventPetMinted)
	assert.Equal(t, evs[1].Kind(), ledger.EventPetTransferred)
	assert.Equal(t, evs[2].Kind(), ledger.EventPetFed)
}

func TestOldHeightsAreDiscarded(t *testing.T) {
	h := events.NewHistory(0, 2)
	h.AddEvent(ledger.PetMinted{Owner: "0xa", PetID: 1})
	for i := 0; i < 3; i++ {
		h.NextHeight()
	}

	_, err := h.ForHeight(0)
	assert.ErrorIs(t, err, events.ErrHeightDiscarded)

	// The most recent finalized heights stay readable.
	evs, err := h.ForHeight(2)
	assert.NilError(t, err)
	assert.Len(t, evs, 0)
}

func TestReceiptsRecordSuccessAndFailure(t *testing.T) {
	h := events.NewHistory(0, 4)
	h.AddReceipt("0xhash1", ledger.PetMinted{Owner: "0xa", PetID: 1}, nil)
	h.AddReceipt("0xhash2", nil, ledger.ErrAccountAlreadyHasPet)
	h.NextHeight()

	recs, err := h.ReceiptsForHeight(0)
	assert.NilError(t, err)
	assert.Len(t, recs, 2)
	for _, rec := range recs {
		switch rec.TxHash {
		case "0xhash1":
			assert.Equal(t, rec.Event.Kind(), ledger.EventPetMinted)
			assert.Equal(t, rec.Error, "")
		case "0xhash2":
			assert.Nil(t, rec.Event)
			assert.Equal(t, rec.Error, ledger.ErrAccountAlreadyHasPet.Error())
		default:
			t.Fatalf("unexpected receipt %q", rec.TxHash)
		}
	}
}

func TestConcurrentReadsDuringTicks(t *testing.T) {
	h := events.NewHistory(0, 4)

	// Readers race the tick loop's writes and slot resets; the race detector
	// flags unguarded slot access here.
	var wg sync.WaitGroup
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				curr := h.CurrentHeight()
				if curr == 0 {
					continue
				}
				_, _ = h.ForHeight(curr - 1)
				_, _ = h.ReceiptsForHeight(curr - 1)
			}
		}()
	}

	for i := 0; i < 64; i++ {
		h.AddEvent(ledger.PetFed{Owner: "0xa", PetID: 1})
		h.AddReceipt("0xhash", ledger.PetFed{Owner: "0xa", PetID: 1}, nil)
		h.NextHeight()
	}
	close(done)
	wg.Wait()

	evs, err := h.ForHeight(h.CurrentHeight() - 1)
	assert.NilError(t, err)
	assert.Len(t, evs, 1)
}

func TestHistoryResumesFromHeight(t *testing.T) {
	h := events.NewHistory(types.Height(10), 4)
	assert.Equal(t, h.CurrentHeight(), types.Height(10))
	h.AddEvent(ledger.PetSlept{Owner: "0xa", PetID: 2})
	h.NextHeight()

	evs, err := h.ForHeight(10)
	assert.NilError(t, err)
	assert.Len(t, evs, 1)
}
