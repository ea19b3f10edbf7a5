// Package txpool holds validated commands awaiting inclusion in the next
// block.
package txpool

import (
	"sync"

	"github.com/superpet-labs/petchain/ledger"
	"github.com/superpet-labs/petchain/sign"
	"github.com/superpet-labs/petchain/types"
)

// TxData is one pending command with its envelope. Signer is the account
// recovered at submission time.
type TxData struct {
	TxHash string
	Signer types.Account
	Cmd    ledger.Command
	Tx     *sign.Transaction
}

// TxQueue is the pending pool. Submission order is preserved; the
// sequencer dispatches in that order.
type TxQueue struct {
	txs []TxData
	mux *sync.Mutex
}

func NewTxQueue() *TxQueue {
	return &TxQueue{mux: &sync.Mutex{}}
}

func (t *TxQueue) GetAmountOfTxs() int {
	t.mux.Lock()
	defer t.mux.Unlock()
	return len(t.txs)
}

// AddTransaction appends the command to the pool and returns its tx hash.
func (t *TxQueue) AddTransaction(signer types.Account, cmd ledger.Command, tx *sign.Transaction) string {
	t.mux.Lock()
	defer t.mux.Unlock()
	txHash := tx.HashHex()
	t.txs = append(t.txs, TxData{
		TxHash: txHash,
		Signer: signer,
		Cmd:    cmd,
		Tx:     tx,
	})
	return txHash
}

// CopyTransactions returns the pending commands in submission order and
// resets the pool, so new submissions land in the next block.
func (t *TxQueue) CopyTransactions() []TxData {
	t.mux.Lock()
	defer t.mux.Unlock()
	cpy := t.txs
	t.txs = nil
	return cpy
}
