package lockout

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dossier/internal/audit"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/requestcontext"
)

func requestAt(now time.Time, ip string) context.Context {
	ctx := requestcontext.WithTime(context.Background(), now)
	return requestcontext.WithClientMetadata(ctx, ip, "ua", "")
}

func TestLocksAfterAttemptsAndExpires(t *testing.T) {
	var logs bytes.Buffer
	auditor := audit.NewPublisher(slog.New(slog.NewJSONHandler(&logs, nil)))
	svc := New(NewInMemory(), Config{Attempts: 3, Window: time.Minute, LockDuration: 10 * time.Minute}, WithAuditor(auditor))
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestAt(start, "10.0.0.1")

	for range 2 {
		require.NoError(t, svc.RecordFailure(ctx, "ana@example.com"))
		require.NoError(t, svc.Check(ctx, "ana@example.com"))
	}
	require.NoError(t, svc.RecordFailure(ctx, "ANA@example.com "))

	err := svc.Check(ctx, "ana@example.com")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRateLimited))
	assert.Contains(t, err.Error(), "600 seconds")
	assert.Contains(t, logs.String(), `"action":"login_locked"`)

	assert.NoError(t, svc.Check(requestAt(start, "10.0.0.2"), "ana@example.com"), "other client IPs are unaffected")
	assert.NoError(t, svc.Check(ctx, "rui@example.com"))

	assert.NoError(t, svc.Check(requestAt(start.Add(10*time.Minute), "10.0.0.1"), "ana@example.com"))
}

func TestFailuresOutsideWindowDoNotCount(t *testing.T) {
	svc := New(NewInMemory(), Config{Attempts: 2, Window: time.Minute, LockDuration: time.Minute})
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, svc.RecordFailure(requestAt(start, "ip"), "a@example.com"))
	later := requestAt(start.Add(2*time.Minute), "ip")
	require.NoError(t, svc.RecordFailure(later, "a@example.com"))
	assert.NoError(t, svc.Check(later, "a@example.com"))
}

func TestClearResetsFailures(t *testing.T) {
	svc := New(NewInMemory(), Config{Attempts: 2, Window: time.Minute, LockDuration: time.Minute})
	ctx := requestAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), "ip")

	require.NoError(t, svc.RecordFailure(ctx, "a@example.com"))
	require.NoError(t, svc.Clear(ctx, "a@example.com"))
	require.NoError(t, svc.RecordFailure(ctx, "a@example.com"))
	assert.NoError(t, svc.Check(ctx, "a@example.com"))
}

func TestNewAppliesDefaults(t *testing.T) {
	svc := New(NewInMemory(), Config{})
	assert.Equal(t, DefaultConfig(), svc.cfg)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedis(client)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		count, err := store.RecordFailure(ctx, "k", now, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}
	count, err := store.RecordFailure(ctx, "k", now.Add(2*time.Minute), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "old failures slide out of the window")

	until := now.Add(5 * time.Minute)
	require.NoError(t, store.Lock(ctx, "k", now, until))
	assert.False(t, mr.Exists(failuresKeyPrefix+"k"))
	assert.Equal(t, 5*time.Minute, mr.TTL(lockKeyPrefix+"k"))

	got, locked, err := store.LockedUntil(ctx, "k", now)
	require.NoError(t, err)
	assert.True(t, locked)
	assert.True(t, got.Equal(until))

	_, locked, err = store.LockedUntil(ctx, "k", until)
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, store.Clear(ctx, "k"))
	assert.False(t, mr.Exists(lockKeyPrefix+"k"))
}

func TestRedisStoreSurfacesErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := New(NewRedis(client), DefaultConfig())

	mr.SetError("LOADING")
	err := svc.Check(context.Background(), "a@example.com")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
