package client

import (
	"context"

	"github.com/superpet-labs/petchain/ledger"
	"github.com/superpet-labs/petchain/types"
)

// OutcomeKind classifies how a watched submission resolved.
type OutcomeKind uint8

const (
	// OutcomeFinalized: the command finalized and its event was found.
	OutcomeFinalized OutcomeKind = iota
	// OutcomeNoMatchingEvent: the command finalized but no matching event
	// was found in the block. The state mutation may still have occurred;
	// the caller must re-query the ledger before acting.
	OutcomeNoMatchingEvent
	// OutcomeRejected: the transport reported the command was not applied.
	OutcomeRejected
	// OutcomeIndeterminate: the stream ended with no terminal status. The
	// command's effect is unknown and must never be assumed either way.
	OutcomeIndeterminate
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFinalized:
		return "finalized"
	case OutcomeNoMatchingEvent:
		return "no_matching_event"
	case OutcomeRejected:
		return "rejected"
	case OutcomeIndeterminate:
		return "indeterminate"
	}
	return "unknown"
}

// Outcome is the terminal result of watching a submission. Event is set
// only for OutcomeFinalized.
type Outcome struct {
	Kind   OutcomeKind
	Event  ledger.Event
	Block  BlockRef
	Reason string
}

// EventSource reads the events finalized at a height. The sequencer's
// event history satisfies it.
type EventSource interface {
	ForHeight(height types.Height) ([]ledger.Event, error)
}

// Watch consumes the submission's status stream and resolves it to a
// terminal outcome. Ready is ignored; InBlock is not terminal because the
// including block may still be reorganized. On Finalized, the block's
// events are searched for the variant the submitted command should have
// produced, initiated by the submission's signer.
//
// Watch never retries. Whether resubmission after an indeterminate outcome
// is safe depends on the command: feed and sleep only overwrite a
// timestamp, so double-application is harmless; mint and transfer are not
// idempotent and the caller must re-check ownership first.
func Watch(ctx context.Context, sub *Submission, source EventSource) Outcome {
	for {
		select {
		case <-ctx.Done():
			return Outcome{Kind: OutcomeIndeterminate, Reason: ctx.Err().Error()}
		case status, ok := <-sub.Statuses():
			if !ok {
				return Outcome{
					Kind:   OutcomeIndeterminate,
					Reason: "status stream closed before a terminal status",
				}
			}
			switch status.Kind {
			case StatusReady, StatusInBlock:
				continue
			case StatusFinalized:
				return resolveFinalized(sub, status.Block, source)
			case StatusDropped:
				return Outcome{Kind: OutcomeRejected, Reason: "dropped from the pending pool"}
			case StatusInvalid, StatusError:
				return Outcome{Kind: OutcomeRejected, Reason: status.Reason}
			}
		}
	}
}

func resolveFinalized(sub *Submission, ref BlockRef, source EventSource) Outcome {
	evs, err := source.ForHeight(ref.Height)
	if err != nil {
		return Outcome{Kind: OutcomeNoMatchingEvent, Block: ref, Reason: err.Error()}
	}
	want := sub.Command.Kind().EventKind()
	for _, ev := range evs {
		if ev.Kind() == want && ledger.Initiator(ev) == sub.Signer {
			return Outcome{Kind: OutcomeFinalized, Event: ev, Block: ref}
		}
	}
	return Outcome{
		Kind:   OutcomeNoMatchingEvent,
		Block:  ref,
		Reason: "finalized without a matching event",
	}
}
