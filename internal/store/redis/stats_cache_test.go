package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/auditor/internal/analytics"
	"github.com/gosuda/auditor/internal/domain"
	redisstore "github.com/gosuda/auditor/internal/store/redis"
)

func TestStatsCache_RoundTrip(t *testing.T) {
	t.Parallel()

	ps, mr := setupPubSub(t)
	cache := redisstore.NewStatsCache(ps.Client(), time.Minute)
	ctx := context.Background()
	sessionID := uuid.New()

	got, err := cache.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, got, "miss before first write")

	fine := decimal.RequireFromString("50000.25")
	stats := analytics.ComputeStats([]*domain.ComplianceGap{{
		RiskLevel:           domain.RiskLevelCritical,
		BusinessImpact:      domain.BusinessImpactHigh,
		Status:              domain.GapStatusIdentified,
		PotentialFineAmount: &fine,
	}})
	require.NoError(t, cache.Set(ctx, sessionID, stats))

	got, err = cache.Get(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.TotalGaps)
	assert.Equal(t, 1, got.ByRiskLevel[domain.RiskLevelCritical])
	assert.Equal(t, 0, got.ByRiskLevel[domain.RiskLevelLow])
	assert.True(t, fine.Equal(got.TotalPotentialFines))

	assert.Equal(t, time.Minute, mr.TTL("stats:session:"+sessionID.String()))
}

func TestStatsCache_Expiry(t *testing.T) {
	t.Parallel()

	ps, mr := setupPubSub(t)
	cache := redisstore.NewStatsCache(ps.Client(), 30*time.Second)
	ctx := context.Background()
	sessionID := uuid.New()

	require.NoError(t, cache.Set(ctx, sessionID, analytics.ComputeStats(nil)))
	mr.FastForward(31 * time.Second)

	got, err := cache.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStatsCache_Invalidate(t *testing.T) {
	t.Parallel()

	ps, _ := setupPubSub(t)
	cache := redisstore.NewStatsCache(ps.Client(), time.Minute)
	ctx := context.Background()
	sessionID := uuid.New()

	require.NoError(t, cache.Set(ctx, sessionID, analytics.ComputeStats(nil)))
	require.NoError(t, cache.Invalidate(ctx, sessionID))
	require.NoError(t, cache.Invalidate(ctx, sessionID), "invalidating a missing key is fine")

	got, err := cache.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStatsCache_CorruptEntryIsMiss(t *testing.T) {
	t.Parallel()

	ps, mr := setupPubSub(t)
	cache := redisstore.NewStatsCache(ps.Client(), time.Minute)
	sessionID := uuid.New()

	require.NoError(t, mr.Set("stats:session:"+sessionID.String(), "{not json"))

	got, err := cache.Get(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("stats:session:"+sessionID.String()))
}
