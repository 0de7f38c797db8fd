package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidRHerbert/webex-mcp/internal/db"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return New(database)
}

func TestIncrementAndQuery(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Increment(ctx, "api", MetricConfigGenerated))
	require.NoError(t, s.Increment(ctx, "api", MetricConfigGenerated))

	metrics, err := s.Query(ctx, "")
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.EqualValues(t, 2, metrics[0].MetricValue)
	assert.Equal(t, MetricConfigGenerated, metrics[0].MetricName)
	assert.Equal(t, "api", metrics[0].Surface)
}

func TestIncrementBy(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.IncrementBy(ctx, "cli", MetricChatFailed, 3)
	s.IncrementBy(ctx, "cli", MetricChatFailed, 4)

	metrics, err := s.Query(ctx, "")
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.EqualValues(t, 7, metrics[0].MetricValue)
}

func TestHourlyBuckets(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.now = func() time.Time { return time.Date(2026, 2, 16, 9, 30, 0, 0, time.UTC) }
	s.Increment(ctx, "api", MetricConfigGenerated)
	s.now = func() time.Time { return time.Date(2026, 2, 16, 10, 5, 0, 0, time.UTC) }
	s.Increment(ctx, "api", MetricConfigGenerated)
	s.now = func() time.Time { return time.Date(2026, 2, 17, 10, 5, 0, 0, time.UTC) }
	s.Increment(ctx, "api", MetricConfigGenerated)

	all, err := s.Query(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	day, err := s.Query(ctx, "2026-02-16")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "2026-02-16T10", day[0].Period)

	summary, err := s.Summarize(ctx, "2026-02-16")
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.EqualValues(t, 2, summary[0].Metrics[MetricConfigGenerated])
}

func TestSummarizeGroupsBySurface(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.Increment(ctx, "api", MetricConfigGenerated)
	s.Increment(ctx, "api", MetricChatProxied)
	s.Increment(ctx, "cli", MetricConfigInstalled)

	summary, err := s.Summarize(ctx, "")
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "api", summary[0].Surface)
	assert.Equal(t, map[string]int64{MetricChatProxied: 1, MetricConfigGenerated: 1}, summary[0].Metrics)
	assert.Equal(t, "cli", summary[1].Surface)
}

func TestSummarizeEmpty(t *testing.T) {
	summary, err := testStore(t).Summarize(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, summary)
	assert.Empty(t, summary)
}
