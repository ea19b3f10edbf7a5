package ledger

import "github.com/rotisserie/eris"

// Validation errors raised by the dispatcher before any mutation. They are
// deterministic and scoped to a single command; the store stays usable
// after any of them.
var (
	ErrAccountAlreadyHasPet = eris.New("account already has a pet")
	ErrAccountHasNoPet      = eris.New("account has no pet")
)
