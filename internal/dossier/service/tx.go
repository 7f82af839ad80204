package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	id "dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
)

const (
	numShards        = 64
	defaultTxTimeout = 5 * time.Second
)

// ShardedTx serializes in-memory work per applicant. The in-memory stores
// have no rollback, so every operation validates before its first write.
type ShardedTx struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

func NewShardedTx() *ShardedTx {
	return &ShardedTx{timeout: defaultTxTimeout}
}

func (t *ShardedTx) RunInTx(ctx context.Context, owner id.ApplicantID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	shard := &t.shards[shardFor(owner)]
	shard.Lock()
	defer shard.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

func shardFor(owner id.ApplicantID) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(owner.String()))
	return h.Sum32() % numShards
}
