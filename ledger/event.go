package ledger

import (
	"github.com/superpet-labs/petchain/types"
)

// EventKind enumerates the closed set of domain events.
type EventKind uint8

const (
	EventPetMinted EventKind = iota
	EventPetTransferred
	EventPetFed
	EventPetSlept
)

func (k EventKind) String() string {
	switch k {
	case EventPetMinted:
		return "pet_minted"
	case EventPetTransferred:
		return "pet_transferred"
	case EventPetFed:
		return "pet_fed"
	case EventPetSlept:
		return "pet_slept"
	}
	return "unknown"
}

// Event is the closed union of domain events. Exactly one event is emitted
// per successfully dispatched command.
type Event interface {
	Kind() EventKind
	isEvent()
}

type PetMinted struct {
	Owner types.Account `json:"owner"`
	PetID types.PetID   `json:"petId"`
}

type PetTransferred struct {
	From  types.Account `json:"from"`
	To    types.Account `json:"to"`
	PetID types.PetID   `json:"petId"`
}

type PetFed struct {
	Owner types.Account `json:"owner"`
	PetID types.PetID   `json:"petId"`
}

type PetSlept struct {
	Owner types.Account `json:"owner"`
	PetID types.PetID   `json:"petId"`
}

func (PetMinted) Kind() EventKind      { return EventPetMinted }
func (PetTransferred) Kind() EventKind { return EventPetTransferred }
func (PetFed) Kind() EventKind         { return EventPetFed }
func (PetSlept) Kind() EventKind       { return EventPetSlept }

func (PetMinted) isEvent()      {}
func (PetTransferred) isEvent() {}
func (PetFed) isEvent()         {}
func (PetSlept) isEvent()       {}

// Initiator returns the account whose command produced the event.
func Initiator(e Event) types.Account {
	switch ev := e.(type) {
	case PetMinted:
		return ev.Owner
	case PetTransferred:
		return ev.From
	case PetFed:
		return ev.Owner
	case PetSlept:
		return ev.Owner
	}
	return ""
}
