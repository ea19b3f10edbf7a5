// Package storage defines the primitive key-value surface the ledger store
// is built on. Two implementations are provided: a Redis-backed one for
// real deployments and an in-memory map for tests and ephemeral instances.
package storage

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when a key has no value. Callers that care about
// presence semantics (e.g. "never slept") must check for it with errors.Is.
var ErrNotFound = eris.New("key not found")

// PrimitiveStorage is a string-keyed store with pipeline-style transactions.
// Writes issued through a storage returned by StartTransaction become
// visible only once EndTransaction is called on it.
type PrimitiveStorage interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	GetUInt64(ctx context.Context, key string) (uint64, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
	Close(ctx context.Context) error

	StartTransaction(ctx context.Context) (PrimitiveStorage, error)
	EndTransaction(ctx context.Context) error
}
