package storage

import (
	"context"

	"github.com/rotisserie/eris"
)

var _ PrimitiveStorage = &MapStorage{}

// MapStorage is an in-memory PrimitiveStorage. It is not safe for
// concurrent use; the sequencer serializes all access by construction.
type MapStorage struct {
	internalMap map[string]any
}

func NewMapStorage() *MapStorage {
	return &MapStorage{internalMap: map[string]any{}}
}

func (m *MapStorage) GetBytes(_ context.Context, key string) ([]byte, error) {
	v, ok := m.internalMap[key]
	if !ok {
		return nil, eris.Wrap(ErrNotFound, key)
	}
	bz, ok := v.([]byte)
	if !ok {
		return nil, eris.Errorf("value at %q is not bytes", key)
	}
	return bz, nil
}

func (m *MapStorage) GetUInt64(_ context.Context, key string) (uint64, error) {
	v, ok := m.internalMap[key]
	if !ok {
		return 0, eris.Wrap(ErrNotFound, key)
	}
	n, ok := v.(uint64)
	if !ok {
		return 0, eris.Errorf("value at %q is not a uint64", key)
	}
	return n, nil
}

func (m *MapStorage) Set(_ context.Context, key string, value any) error {
	m.internalMap[key] = value
	return nil
}

func (m *MapStorage) Delete(_ context.Context, key string) error {
	delete(m.internalMap, key)
	return nil
}

func (m *MapStorage) Keys(_ context.Context) ([]string, error) {
	acc := make([]string, 0, len(m.internalMap))
	for k := range m.internalMap {
		acc = append(acc, k)
	}
	return acc, nil
}

func (m *MapStorage) Clear(_ context.Context) error {
	m.internalMap = map[string]any{}
	return nil
}

func (m *MapStorage) Close(_ context.Context) error {
	return m.Clear(context.Background())
}

// StartTransaction returns a storage that buffers writes until
// EndTransaction, mirroring the visibility semantics of a Redis pipeline.
func (m *MapStorage) StartTransaction(_ context.Context) (PrimitiveStorage, error) {
	return &mapTransaction{parent: m}, nil
}

func (m *MapStorage) EndTransaction(_ context.Context) error {
	return eris.New("current map storage is not a transaction")
}

type mapOp struct {
	key    string
	value  any
	delete bool
}

type mapTransaction struct {
	parent *MapStorage
	ops    []mapOp
}

func (t *mapTransaction) GetBytes(ctx context.Context, key string) ([]byte, error) {
	return t.parent.GetBytes(ctx, key)
}

func (t *mapTransaction) GetUInt64(ctx context.Context, key string) (uint64, error) {
	return t.parent.GetUInt64(ctx, key)
}

func (t *mapTransaction) Set(_ context.Context, key string, value any) error {
	t.ops = append(t.ops, mapOp{key: key, value: value})
	return nil
}

func (t *mapTransaction) Delete(_ context.Context, key string) error {
	t.ops = append(t.ops, mapOp{key: key, delete: true})
	return nil
}

func (t *mapTransaction) Keys(ctx context.Context) ([]string, error) {
	return t.parent.Keys(ctx)
}

func (t *mapTransaction) Clear(_ context.Context) error {
	return eris.New("cannot clear inside a transaction")
}

func (t *mapTransaction) Close(_ context.Context) error {
	t.ops = nil
	return nil
}

func (t *mapTransaction) StartTransaction(_ context.Context) (PrimitiveStorage, error) {
	return nil, eris.New("transaction already in progress")
}

func (t *mapTransaction) EndTransaction(ctx context.Context) error {
	for _, op := range t.ops {
		if op.delete {
			if err := t.parent.Delete(ctx, op.key); err != nil {
				return err
			}
			continue
		}
		if err := t.parent.Set(ctx, op.key, op.value); err != nil {
			return err
		}
	}
	t.ops = nil
	return nil
}
