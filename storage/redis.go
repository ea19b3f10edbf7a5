package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

var _ PrimitiveStorage = &RedisStorage{}

type RedisStorage struct {
	currentClient redis.Cmdable
}

func NewRedisStorage(client redis.Cmdable) PrimitiveStorage {
	return &RedisStorage{currentClient: client}
}

func (r *RedisStorage) GetBytes(ctx context.Context, key string) ([]byte, error) {
	bz, err := r.currentClient.Get(ctx, key).Bytes()
	if err != nil {
		return nil, wrapRedisErr(err, key)
	}
	return bz, nil
}

func (r *RedisStorage) GetUInt64(ctx context.Context, key string) (uint64, error) {
	res, err := r.currentClient.Get(ctx, key).Uint64()
	if err != nil {
		return 0, wrapRedisErr(err, key)
	}
	return res, nil
}

func (r *RedisStorage) Set(ctx context.Context, key string, value any) error {
	return eris.Wrap(r.currentClient.Set(ctx, key, value, 0).Err(), "")
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	return eris.Wrap(r.currentClient.Del(ctx, key).Err(), "")
}

func (r *RedisStorage) Keys(ctx context.Context) ([]string, error) {
	return r.currentClient.Keys(ctx, "*").Result()
}

func (r *RedisStorage) Clear(ctx context.Context) error {
	return eris.Wrap(r.currentClient.FlushAll(ctx).Err(), "")
}

func (r *RedisStorage) Close(_ context.Context) error {
	closer, ok := r.currentClient.(interface{ Close() error })
	if !ok {
		return eris.New("current redis storage is not closeable")
	}
	return eris.Wrap(closer.Close(), "")
}

func (r *RedisStorage) StartTransaction(_ context.Context) (PrimitiveStorage, error) {
	return NewRedisStorage(r.currentClient.TxPipeline()), nil
}

func (r *RedisStorage) EndTransaction(ctx context.Context) error {
	pipeline, ok := r.currentClient.(redis.Pipeliner)
	if !ok {
		return eris.New("current redis storage is not a pipeline/transaction")
	}
	_, err := pipeline.Exec(ctx)
	return eris.Wrap(err, "")
}

func wrapRedisErr(err error, key string) error {
	if eris.Is(err, redis.Nil) {
		return eris.Wrap(ErrNotFound, key)
	}
	return eris.Wrap(err, key)
}
