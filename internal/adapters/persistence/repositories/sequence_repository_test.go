package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRedis keeps integer keys in a map. Unimplemented commands panic through the nil Cmdable.
type stubRedis struct {
	redis.Cmdable
	values  map[string]int64
	incrErr error
}

func newStubRedis() *stubRedis {
	return &stubRedis{values: make(map[string]int64)}
}

func (r *stubRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, k := range keys {
		if _, ok := r.values[k]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (r *stubRedis) SetNX(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if _, ok := r.values[key]; ok {
		cmd.SetVal(false)
		return cmd
	}
	r.values[key] = value.(int64)
	cmd.SetVal(true)
	return cmd
}

func (r *stubRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if r.incrErr != nil {
		cmd.SetErr(r.incrErr)
		return cmd
	}
	r.values[key]++
	cmd.SetVal(r.values[key])
	return cmd
}

func TestRedisClaimSequencer_CountsPerYear(t *testing.T) {
	client := newStubRedis()
	seq := NewRedisClaimSequencer(client, nil)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		next, err := seq.Next(ctx, 2026)
		require.NoError(t, err)
		assert.Equal(t, want, next)
	}
	next, err := seq.Next(ctx, 2027)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)

	assert.Equal(t, int64(3), client.values["claims:seq:2026"])
	assert.Equal(t, int64(1), client.values["claims:seq:2027"])
}

func TestRedisClaimSequencer_SeedsMissingKeyFromFloor(t *testing.T) {
	client := newStubRedis()
	calls := 0
	floor := func(_ context.Context, year int) (int64, error) {
		calls++
		assert.Equal(t, 2026, year)
		return 41, nil
	}
	seq := NewRedisClaimSequencer(client, floor)
	ctx := context.Background()

	next, err := seq.Next(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(42), next)

	next, err = seq.Next(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(43), next)
	assert.Equal(t, 1, calls, "floor is read only while the key is missing")
}

func TestRedisClaimSequencer_LiveCounterIsNotLowered(t *testing.T) {
	client := newStubRedis()
	client.values["claims:seq:2026"] = 100
	seq := NewRedisClaimSequencer(client, func(context.Context, int) (int64, error) { return 5, nil })

	next, err := seq.Next(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(101), next)
}

func TestRedisClaimSequencer_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("floor failure", func(t *testing.T) {
		seq := NewRedisClaimSequencer(newStubRedis(), func(context.Context, int) (int64, error) {
			return 0, errors.New("db down")
		})
		_, err := seq.Next(ctx, 2026)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "seed claim sequence for 2026")
		assert.Contains(t, err.Error(), "db down")
	})

	t.Run("incr failure", func(t *testing.T) {
		client := newStubRedis()
		client.incrErr = errors.New("connection reset")
		seq := NewRedisClaimSequencer(client, nil)

		_, err := seq.Next(ctx, 2026)
		require.Error(t, err)
		assert.ErrorIs(t, err, client.incrErr)
		assert.Contains(t, err.Error(), "allocate claim sequence for 2026")
	})
}
