package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lp-gap-lab/internal/domain"
	"lp-gap-lab/internal/storage"
	"lp-gap-lab/internal/storage/postgres"
)

func reportRow(token string, network domain.Network, status domain.Status) *domain.ReportRow {
	return &domain.ReportRow{
		Token:           token,
		Network:         network,
		PoolDisplayName: "BIO/" + token,
		Status:          status,
		FDVUSD:          10_000_000,
		TargetValueUSD:  100_000,
		HeldValueUSD:    40_000,
		GapUSD:          60_000,
		PositionCount:   1,
		LastObservedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestReportStore_GetCurrentBeforeFirstPublish(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewReportStore(pool)
	_, err := store.GetCurrent(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReportStore_PublishCycleReplacesAtomically(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewReportStore(pool)
	ctx := context.Background()
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	first := []*domain.ReportRow{
		reportRow("VITA", domain.NetworkEthereum, domain.StatusUnderLiquified),
		reportRow("QUEST", domain.NetworkSolana, domain.StatusToDeploy),
	}
	require.NoError(t, store.PublishCycle(ctx, first, t0))

	current, err := store.GetCurrent(ctx)
	require.NoError(t, err)
	require.Len(t, current, 2)
	assert.Equal(t, "QUEST", current[0].Token, "ordered by (token, network)")
	assert.Equal(t, "VITA", current[1].Token)

	// Next cycle fully replaces the previous report, including rows whose
	// key no longer appears.
	second := []*domain.ReportRow{
		reportRow("VITA", domain.NetworkEthereum, domain.StatusOptimal),
	}
	require.NoError(t, store.PublishCycle(ctx, second, t0.Add(time.Hour)))

	current, err = store.GetCurrent(ctx)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, "VITA", current[0].Token)
	assert.Equal(t, domain.StatusOptimal, current[0].Status)
}

func TestReportStore_PublishEmptyCycleIsNotNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewReportStore(pool)
	ctx := context.Background()

	require.NoError(t, store.PublishCycle(ctx, nil, time.Now().UTC()))

	current, err := store.GetCurrent(ctx)
	require.NoError(t, err, "an empty published report is still a report")
	assert.Empty(t, current)
}

func TestReportStore_InvalidRowRejectsWholeCycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewReportStore(pool)
	ctx := context.Background()
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.PublishCycle(ctx, []*domain.ReportRow{
		reportRow("VITA", domain.NetworkEthereum, domain.StatusOptimal),
	}, t0))

	bad := []*domain.ReportRow{
		reportRow("QUEST", domain.NetworkSolana, domain.StatusToDeploy),
		{Token: "", Network: domain.NetworkSolana},
	}
	err := store.PublishCycle(ctx, bad, t0.Add(time.Hour))
	require.ErrorIs(t, err, storage.ErrInvalidInput)

	current, err := store.GetCurrent(ctx)
	require.NoError(t, err)
	require.Len(t, current, 1, "failed publish must leave the previous report intact")
	assert.Equal(t, "VITA", current[0].Token)
}
