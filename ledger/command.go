package ledger

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/superpet-labs/petchain/types"
)

// ErrUnknownCommand is returned when a submitted command name does not map
// to a registered command kind.
var ErrUnknownCommand = eris.New("unknown command")

// CommandKind enumerates the closed set of state-change commands.
type CommandKind uint8

const (
	CommandMint CommandKind = iota
	CommandTransfer
	CommandFeed
	CommandSleep
)

func (k CommandKind) String() string {
	switch k {
	case CommandMint:
		return "mint"
	case CommandTransfer:
		return "transfer"
	case CommandFeed:
		return "feed"
	case CommandSleep:
		return "sleep"
	}
	return "unknown"
}

// EventKind returns the event a successful dispatch of this command emits.
func (k CommandKind) EventKind() EventKind {
	switch k {
	case CommandMint:
		return EventPetMinted
	case CommandTransfer:
		return EventPetTransferred
	case CommandFeed:
		return EventPetFed
	case CommandSleep:
		return EventPetSlept
	}
	return EventKind(0xff)
}

// Command is the closed union of ledger commands. The signer account is not
// part of the command; the transport attaches it from the envelope
// signature.
type Command interface {
	Kind() CommandKind
	isCommand()
}

// Mint creates a pet for the signer. The id is chosen by the signer and is
// not required to be unique across accounts.
type Mint struct {
	Name    string        `json:"name"`
	Species types.Species `json:"species"`
	ID      types.PetID   `json:"id"`
}

// Transfer moves the signer's pet to the receiver.
type Transfer struct {
	Receiver types.Account `json:"receiver"`
}

// Feed stamps the signer's pet with the current height as its last feed
// time.
type Feed struct{}

// Sleep stamps the signer's pet with the current height as its last sleep
// time.
type Sleep struct{}

func (Mint) Kind() CommandKind     { return CommandMint }
func (Transfer) Kind() CommandKind { return CommandTransfer }
func (Feed) Kind() CommandKind     { return CommandFeed }
func (Sleep) Kind() CommandKind    { return CommandSleep }

func (Mint) isCommand()     {}
func (Transfer) isCommand() {}
func (Feed) isCommand()     {}
func (Sleep) isCommand()    {}

// DecodeCommand turns a command name and a JSON body into a Command.
func DecodeCommand(name string, body []byte) (Command, error) {
	switch name {
	case CommandMint.String():
		var c Mint
		if err := json.Unmarshal(body, &c); err != nil {
			return nil, eris.Wrap(err, "failed to decode mint command")
		}
		return c, nil
	case CommandTransfer.String():
		var c Transfer
		if err := json.Unmarshal(body, &c); err != nil {
			return nil, eris.Wrap(err, "failed to decode transfer command")
		}
		return c, nil
	case CommandFeed.String():
		return Feed{}, nil
	case CommandSleep.String():
		return Sleep{}, nil
	}
	return nil, eris.Wrapf(ErrUnknownCommand, "%q", name)
}
