// Package chain hosts the sequencer: the single authoritative state
// machine that turns submitted commands into blocks. One tick produces one
// block at one height; commands are serialized by construction, which is
// what keeps the one-pet-per-account invariant simple.
package chain

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/superpet-labs/petchain/client"
	"github.com/superpet-labs/petchain/events"
	"github.com/superpet-labs/petchain/ledger"
	"github.com/superpet-labs/petchain/ledger/store"
	"github.com/superpet-labs/petchain/sign"
	"github.com/superpet-labs/petchain/txpool"
	"github.com/superpet-labs/petchain/types"
)

const (
	// DefaultMaxNameLength is the pet name bound N when none is configured.
	DefaultMaxNameLength = 32
	// DefaultHistorySize is how many finalized heights of events are kept.
	DefaultHistorySize = 64

	// statusBuffer must cover the longest possible stream
	// (Ready, InBlock, Finalized) so the sequencer never blocks on a
	// consumer.
	statusBuffer = 8
)

var ErrShutDown = eris.New("sequencer is shut down")

type Sequencer struct {
	namespace  string
	maxNameLen int

	store      *store.Store
	dispatcher *ledger.Dispatcher
	history    *events.History
	hub        *events.Hub
	queue      *txpool.TxQueue

	height atomic.Uint64
	closed atomic.Bool

	// submitMu serializes submission-side validation so nonce checks do not
	// race each other.
	submitMu sync.Mutex

	statusMu sync.Mutex
	statuses map[string]chan client.Status

	logger zerolog.Logger
}

type Option func(*Sequencer)

// WithHub attaches a websocket hub; finalized events are broadcast to it.
func WithHub(hub *events.Hub) Option {
	return func(s *Sequencer) { s.hub = hub }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Sequencer) { s.logger = logger }
}

// WithMaxNameLength sets the pet name bound N. The bound is enforced at
// submission, not in the dispatcher.
func WithMaxNameLength(n int) Option {
	return func(s *Sequencer) { s.maxNameLen = n }
}

func WithHistorySize(n int) Option {
	return func(s *Sequencer) { s.history = events.NewHistory(0, n) }
}

// New creates a sequencer over the given store. The logical clock resumes
// from the store's persisted height, so a restarted instance never rewinds.
func New(ctx context.Context, namespace string, st *store.Store, opts ...Option) (*Sequencer, error) {
	s := &Sequencer{
		namespace:  namespace,
		maxNameLen: DefaultMaxNameLength,
		store:      st,
		queue:      txpool.NewTxQueue(),
		statuses:   map[string]chan client.Status{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	h, err := st.Height(ctx)
	if err != nil {
		return nil, err
	}
	s.height.Store(uint64(h))
	if s.history == nil {
		s.history = events.NewHistory(h, DefaultHistorySize)
	} else {
		s.history.SetHeight(h)
	}
	s.dispatcher = ledger.NewDispatcher(st, s.logger)
	return s, nil
}

// Height returns the current (open) height.
func (s *Sequencer) Height() types.Height {
	return types.Height(s.height.Load())
}

// History exposes the finalized event record; it satisfies
// client.EventSource.
func (s *Sequencer) History() *events.History {
	return s.history
}

func (s *Sequencer) PendingTxs() int {
	return s.queue.GetAmountOfTxs()
}

// Submit validates the envelope and, if it passes, adds the command to the
// pending pool. The returned stream carries Ready immediately on success,
// or a terminal Invalid when validation fails; the command is then never
// enqueued. Submit implements client.Transport.
func (s *Sequencer) Submit(
	ctx context.Context, name string, tx *sign.Transaction,
) (<-chan client.Status, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	// Checked under submitMu: Shutdown drains the queue while holding the
	// same lock, so a submission either lands before the drain and receives
	// Dropped, or observes the closed flag here.
	if s.closed.Load() {
		return nil, eris.Wrap(ErrShutDown, "")
	}
	ch := make(chan client.Status, statusBuffer)

	if tx.Namespace != s.namespace {
		return s.rejectInvalid(ch, tx, fmt.Sprintf("wrong namespace %q", tx.Namespace)), nil
	}
	if err := tx.Verify(); err != nil {
		return s.rejectInvalid(ch, tx, "invalid signature"), nil
	}
	signer := types.Account(tx.Signer)

	lastNonce, err := s.store.LastNonce(ctx, signer)
	if err != nil {
		ch <- client.TransportError(err.Error())
		close(ch)
		return ch, nil
	}
	if tx.Nonce <= lastNonce {
		return s.rejectInvalid(ch, tx, fmt.Sprintf("nonce %d already used", tx.Nonce)), nil
	}

	cmd, err := ledger.DecodeCommand(name, tx.Body)
	if err != nil {
		return s.rejectInvalid(ch, tx, err.Error()), nil
	}
	// The name bound belongs to the encoding boundary, which is here, not
	// in the dispatcher.
	if mint, ok := cmd.(ledger.Mint); ok && len(mint.Name) > s.maxNameLen {
		return s.rejectInvalid(ch, tx,
			fmt.Sprintf("pet name exceeds %d bytes", s.maxNameLen)), nil
	}

	if err := s.store.SetLastNonce(ctx, signer, tx.Nonce); err != nil {
		ch <- client.TransportError(err.Error())
		close(ch)
		return ch, nil
	}

	hash := s.queue.AddTransaction(signer, cmd, tx)
	s.statusMu.Lock()
	s.statuses[hash] = ch
	s.statusMu.Unlock()

	ch <- client.Ready()
	s.logger.Debug().
		Str("tx_hash", hash).
		Str("signer", tx.Signer).
		Str("command", name).
		Msg("transaction accepted into pending pool")
	return ch, nil
}

// Tick produces one block: every pending command is dispatched at the
// current height, events and receipts are recorded under that height, the
// height is finalized and persisted, and every included stream receives
// InBlock then Finalized before closing.
func (s *Sequencer) Tick(ctx context.Context) error {
	if s.closed.Load() {
		return eris.Wrap(ErrShutDown, "")
	}

	txs := s.queue.CopyTransactions()
	h := types.Height(s.height.Load())
	ref := client.BlockRef{Height: h, Hash: s.blockHash(h, txs)}

	s.logger.Info().Uint64("height", uint64(h)).Int("txs", len(txs)).Msg("tick started")

	for _, td := range txs {
		s.sendStatus(td.TxHash, client.InBlock(ref))
		ev, err := s.dispatcher.Dispatch(ctx, td.Signer, td.Cmd, h)
		if err != nil {
			s.logger.Info().
				Str("tx_hash", td.TxHash).
				Str("signer", string(td.Signer)).
				Err(err).
				Msg("command rejected by dispatcher")
			s.history.AddReceipt(td.TxHash, nil, err)
			continue
		}
		s.history.AddEvent(ev)
		s.history.AddReceipt(td.TxHash, ev, nil)
		if s.hub != nil {
			if err := s.hub.EmitEvent(h, ev); err != nil {
				s.logger.Warn().Err(err).Msg("failed to emit event to hub")
			}
		}
	}

	// Finalize: the height becomes readable in the history before any
	// Finalized status goes out, so a watcher can always fetch its events.
	s.history.NextHeight()
	next := h + 1
	s.height.Store(uint64(next))
	if err := s.store.SetHeight(ctx, next); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.FlushEvents()
	}

	for _, td := range txs {
		s.sendStatus(td.TxHash, client.Finalized(ref))
		s.closeStatus(td.TxHash)
	}

	s.logger.Info().Uint64("height", uint64(h)).Msg("tick finalized")
	return nil
}

// Shutdown stops accepting submissions and drains the pending pool with
// Dropped statuses. Already-finalized state is untouched.
func (s *Sequencer) Shutdown() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	// Wait out any in-flight Submit before draining, so no stream is left
	// open without a terminal status.
	s.submitMu.Lock()
	defer s.submitMu.Unlock()
	for _, td := range s.queue.CopyTransactions() {
		s.sendStatus(td.TxHash, client.Dropped("sequencer shut down before inclusion"))
		s.closeStatus(td.TxHash)
	}
}

func (s *Sequencer) rejectInvalid(
	ch chan client.Status, tx *sign.Transaction, reason string,
) <-chan client.Status {
	s.logger.Info().
		Str("tx_hash", tx.HashHex()).
		Str("reason", reason).
		Msg("transaction rejected at submission")
	ch <- client.Invalid(reason)
	close(ch)
	return ch
}

// sendStatus never blocks; a consumer that stopped reading forfeits
// further updates.
func (s *Sequencer) sendStatus(txHash string, status client.Status) {
	s.statusMu.Lock()
	ch, ok := s.statuses[txHash]
	s.statusMu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- status:
	default:
	}
}

func (s *Sequencer) closeStatus(txHash string) {
	s.statusMu.Lock()
	ch, ok := s.statuses[txHash]
	if ok {
		delete(s.statuses, txHash)
	}
	s.statusMu.Unlock()
	if ok {
		close(ch)
	}
}

func (s *Sequencer) blockHash(h types.Height, txs []txpool.TxData) common.Hash {
	hasher := crypto.NewKeccakState()
	hasher.Write([]byte(s.namespace))
	hasher.Write([]byte(fmt.Sprintf("%d", h)))
	for _, td := range txs {
		hasher.Write([]byte(td.TxHash))
	}
	var out common.Hash
	hasher.Read(out[:])
	return out
}
