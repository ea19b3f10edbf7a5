package client

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/superpet-labs/petchain/types"
)

// StatusKind enumerates the states a submitted command moves through.
// Non-terminal states may repeat or be skipped; a terminal state ends the
// stream.
type StatusKind uint8

const (
	// StatusReady means the command was accepted into the pending pool.
	StatusReady StatusKind = iota
	// StatusInBlock means the command was included at a height. Inclusion
	// is not finality.
	StatusInBlock
	// StatusFinalized means the including block is irreversible.
	StatusFinalized
	// StatusDropped means the command left the pool without being included.
	StatusDropped
	// StatusInvalid means the command failed submission-side validation.
	StatusInvalid
	// StatusError means the transport failed; the command's fate is
	// whatever the ledger says, not what the stream says.
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusReady:
		return "ready"
	case StatusInBlock:
		return "in_block"
	case StatusFinalized:
		return "finalized"
	case StatusDropped:
		return "dropped"
	case StatusInvalid:
		return "invalid"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Terminal reports whether no further statuses will follow this one.
func (k StatusKind) Terminal() bool {
	switch k {
	case StatusFinalized, StatusDropped, StatusInvalid, StatusError:
		return true
	}
	return false
}

// BlockRef identifies the block a command was included or finalized in.
type BlockRef struct {
	Height types.Height `json:"height"`
	Hash   common.Hash  `json:"hash"`
}

// Status is one update on a submission's progress.
type Status struct {
	Kind   StatusKind `json:"kind"`
	Block  BlockRef   `json:"block,omitempty"`
	Reason string     `json:"reason,omitempty"`
}

func Ready() Status                       { return Status{Kind: StatusReady} }
func InBlock(ref BlockRef) Status         { return Status{Kind: StatusInBlock, Block: ref} }
func Finalized(ref BlockRef) Status       { return Status{Kind: StatusFinalized, Block: ref} }
func Dropped(reason string) Status        { return Status{Kind: StatusDropped, Reason: reason} }
func Invalid(reason string) Status        { return Status{Kind: StatusInvalid, Reason: reason} }
func TransportError(detail string) Status { return Status{Kind: StatusError, Reason: detail} }
