// Package events keeps the append-only record of domain events produced by
// dispatch, grouped by the height they were finalized in, for a bounded
// number of recent heights. The confirmation watcher reads a finalized
// height's events from here to locate the one matching its command.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"

	"github.com/superpet-labs/petchain/ledger"
	"github.com/superpet-labs/petchain/types"
)

var (
	ErrHeightInProgress = eris.New("height is still in progress")
	ErrHeightDiscarded  = eris.New("the requested height has been discarded due to age")
)

// Receipt records the outcome of a single transaction: the event it emitted
// on success, or the dispatch error on failure.
type Receipt struct {
	TxHash string       `json:"txHash"`
	Event  ledger.Event `json:"event,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// History stores events and receipts for the current (open) height and a
// window of finalized heights behind it. Indexes into the slices act as a
// ring buffer over heights. Writes come from the tick loop only; reads may
// come from any goroutine, so slot access is guarded by mu.
type History struct {
	currHeight     *atomic.Uint64
	heightsToStore uint64

	mu       sync.RWMutex
	events   [][]ledger.Event
	receipts []map[string]Receipt
}

// NewHistory tracks events over the given number of finalized heights, plus
// the open one.
func NewHistory(currentHeight types.Height, heightsToStore int) *History {
	heightsToStore++
	h := &History{
		currHeight:     &atomic.Uint64{},
		heightsToStore: uint64(heightsToStore),
	}
	h.events = make([][]ledger.Event, heightsToStore)
	h.receipts = make([]map[string]Receipt, 0, heightsToStore)
	for i := 0; i < heightsToStore; i++ {
		h.receipts = append(h.receipts, map[string]Receipt{})
	}
	h.currHeight.Store(uint64(currentHeight))
	return h
}

func (h *History) CurrentHeight() types.Height {
	return types.Height(h.currHeight.Load())
}

func (h *History) SetHeight(height types.Height) {
	h.currHeight.Store(uint64(height))
}

// NextHeight finalizes the current height and opens the next one. Events
// can only be added to the open height; finalized heights are read only.
func (h *History) NextHeight() {
	h.mu.Lock()
	defer h.mu.Unlock()
	newCurr := h.currHeight.Add(1)
	mod := newCurr % h.heightsToStore
	h.events[mod] = nil
	h.receipts[mod] = map[string]Receipt{}
}

// AddEvent appends an event to the open height, preserving dispatch order.
func (h *History) AddEvent(ev ledger.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	mod := h.currHeight.Load() % h.heightsToStore
	h.events[mod] = append(h.events[mod], ev)
}

// AddReceipt records the per-transaction outcome for the open height.
func (h *History) AddReceipt(txHash string, ev ledger.Event, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	mod := h.currHeight.Load() % h.heightsToStore
	rec := Receipt{TxHash: txHash, Event: ev}
	if err != nil {
		rec.Error = err.Error()
	}
	h.receipts[mod][txHash] = rec
}

// ForHeight returns the events finalized at the given height in dispatch
// order. The open height and heights older than the window error out.
func (h *History) ForHeight(height types.Height) ([]ledger.Event, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if err := h.checkWindow(height); err != nil {
		return nil, err
	}
	mod := uint64(height) % h.heightsToStore
	return h.events[mod], nil
}

// ReceiptsForHeight returns every transaction receipt recorded at the given
// height.
func (h *History) ReceiptsForHeight(height types.Height) ([]Receipt, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if err := h.checkWindow(height); err != nil {
		return nil, err
	}
	mod := uint64(height) % h.heightsToStore
	recs := make([]Receipt, 0, len(h.receipts[mod]))
	for _, rec := range h.receipts[mod] {
		recs = append(recs, rec)
	}
	return recs, nil
}

func (h *History) checkWindow(height types.Height) error {
	curr := h.currHeight.Load()
	if curr <= uint64(height) {
		return eris.Wrap(ErrHeightInProgress, "")
	}
	if curr-uint64(height) >= h.heightsToStore {
		return eris.Wrap(ErrHeightDiscarded, "")
	}
	return nil
}
