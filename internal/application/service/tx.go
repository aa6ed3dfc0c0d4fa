package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	dErrors "memberpanel/pkg/domain-errors"
)

// numTxShards spreads lock keys over independent mutexes so unrelated members do not
// contend.
const numTxShards = 128

// defaultTxTimeout bounds a unit of work when the caller set no deadline.
const defaultTxTimeout = 5 * time.Second

// ShardedTx is the in-memory StoreTx. It serializes units of work per lock key; there
// is no rollback, so callers order writes so that a failure leaves nothing half done.
type ShardedTx struct {
	shards  [numTxShards]sync.Mutex
	timeout time.Duration
}

func NewShardedTx(timeout time.Duration) *ShardedTx {
	return &ShardedTx{timeout: timeout}
}

func (t *ShardedTx) RunInTx(ctx context.Context, lockKey string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := &t.shards[shardFor(lockKey)]
	shard.Lock()
	defer shard.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % numTxShards
}
