// Package types holds the identifiers shared by every layer of the pet
// ledger. They live here, away from the ledger logic, so that storage and
// protocol packages can reference them without import cycles.
package types

import (
	"strconv"

	"github.com/rotisserie/eris"
)

// Account identifies a signer. It is an opaque comparable key; in practice
// it is the hex address recovered from a transaction signature.
type Account string

// PetID identifies a pet. IDs are chosen by the minting account and are not
// unique across accounts.
type PetID uint32

// Height is the logical clock. One height is assigned per produced block,
// and activity timestamps are expressed in it.
type Height uint64

// Species is the closed set of pet species. Turtle is the zero value.
type Species uint8

const (
	SpeciesTurtle Species = iota
	SpeciesSnake
	SpeciesRabbit
)

var ErrUnknownSpecies = eris.New("unknown species")

func (s Species) String() string {
	switch s {
	case SpeciesTurtle:
		return "turtle"
	case SpeciesSnake:
		return "snake"
	case SpeciesRabbit:
		return "rabbit"
	}
	return "unknown"
}

// SpeciesFromString parses the wire form of a species tag.
func SpeciesFromString(str string) (Species, error) {
	switch str {
	case "turtle":
		return SpeciesTurtle, nil
	case "snake":
		return SpeciesSnake, nil
	case "rabbit":
		return SpeciesRabbit, nil
	}
	return 0, eris.Wrapf(ErrUnknownSpecies, "%q", str)
}

// Species travels as its string tag on the wire.
func (s Species) MarshalJSON() ([]byte, error) {
	if s > SpeciesRabbit {
		return nil, eris.Wrapf(ErrUnknownSpecies, "%d", s)
	}
	return []byte(strconv.Quote(s.String())), nil
}

func (s *Species) UnmarshalJSON(b []byte) error {
	str, err := strconv.Unquote(string(b))
	if err != nil {
		return eris.Wrap(err, "species must be a JSON string")
	}
	parsed, err := SpeciesFromString(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// PetRecord is the minted pet. The record never changes after minting; a
// transfer only moves it to a different owning account.
type PetRecord struct {
	ID      PetID   `json:"id"`
	Name    string  `json:"name"`
	Species Species `json:"species"`
}
