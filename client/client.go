// Package client submits signed commands to a transport and watches their
// progress through the confirmation pipeline. A submission yields a lazy,
// single-pass stream of status updates; the watcher folds that stream into
// one of four terminal outcomes.
package client

import (
	"context"
	"crypto/ecdsa"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rotisserie/eris"

	"github.com/superpet-labs/petchain/ledger"
	"github.com/superpet-labs/petchain/sign"
	"github.com/superpet-labs/petchain/types"
)

// Transport accepts a signed command envelope and produces its status
// stream. The stream is single use: it is closed after a terminal status,
// or earlier if the transport gives up. Resubmission requires a new call.
type Transport interface {
	Submit(ctx context.Context, name string, tx *sign.Transaction) (<-chan Status, error)
}

// Client signs commands for one keypair and submits them. The nonce
// increases monotonically per client instance.
type Client struct {
	key       *ecdsa.PrivateKey
	signer    types.Account
	namespace string
	nonce     atomic.Uint64
	transport Transport
}

func New(key *ecdsa.PrivateKey, namespace string, transport Transport) *Client {
	return &Client{
		key:       key,
		signer:    types.Account(crypto.PubkeyToAddress(key.PublicKey).Hex()),
		namespace: namespace,
		transport: transport,
	}
}

func (c *Client) Signer() types.Account {
	return c.signer
}

// Submission is one submitted command and its status stream. The stream is
// not restartable; abandoning it stops observation only, never the
// command's effect on the ledger.
type Submission struct {
	TxHash   string
	Command  ledger.Command
	Signer   types.Account
	statuses <-chan Status
}

// Statuses returns the single-pass status stream for this submission.
func (s *Submission) Statuses() <-chan Status {
	return s.statuses
}

// Submit signs cmd and hands it to the transport.
func (c *Client) Submit(ctx context.Context, cmd ledger.Command) (*Submission, error) {
	nonce := c.nonce.Add(1)
	tx, err := sign.NewTransaction(c.key, c.namespace, nonce, cmd)
	if err != nil {
		return nil, err
	}
	statuses, err := c.transport.Submit(ctx, cmd.Kind().String(), tx)
	if err != nil {
		return nil, eris.Wrap(err, "transport rejected submission")
	}
	return &Submission{
		TxHash:   tx.HashHex(),
		Command:  cmd,
		Signer:   c.signer,
		statuses: statuses,
	}, nil
}
