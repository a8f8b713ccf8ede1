package config

import (
	"context"
	"testing"
	"time"

	"assurance-claims/internal/adapters/persistence/memory"
	"assurance-claims/internal/adapters/persistence/repositories"
	"assurance-claims/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeder_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPolicyStore()
	seeder := NewSeeder(store)
	seeder.now = func() time.Time { return time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC) }

	require.NoError(t, seeder.Run(ctx))
	require.NoError(t, seeder.Run(ctx))

	all, total, err := store.List(ctx, repositories.PolicyFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	active := 0
	for _, p := range all {
		if p.Status == domain.PolicyActive {
			active++
		}
	}
	assert.Equal(t, 2, active)

	expiring, err := store.ListExpiring(ctx, seeder.now(), seeder.now().AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "POL-DEMO-EXPIRING", expiring[0].PolicyNumber)
}
