package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMetrics struct {
	byUser map[string][]core.MetricRecord
	fail   map[string]bool
	from   time.Time
}

func (f *fakeMetrics) GetMetrics(ctx context.Context, userID string, from, to time.Time) ([]core.MetricRecord, error) {
	if f.fail[userID] {
		return nil, errors.New("read failed")
	}
	f.from = from
	return f.byUser[userID], nil
}

type fakeUsers struct {
	users []core.UserProfile
}

func (f *fakeUsers) ListUsers(ctx context.Context) ([]core.UserProfile, error) {
	return f.users, nil
}

type fakeStore struct {
	saved   map[string][]core.Insight
	expired int64
	now     time.Time
}

func (f *fakeStore) SaveInsights(ctx context.Context, userID string, insights []core.Insight) error {
	if f.saved == nil {
		f.saved = map[string][]core.Insight{}
	}
	f.saved[userID] = insights
	return nil
}

func (f *fakeStore) DeleteExpiredInsights(ctx context.Context, now time.Time) (int64, error) {
	f.now = now
	return f.expired, nil
}

func TestGenerator_RunOnce(t *testing.T) {
	metrics := &fakeMetrics{
		byUser: map[string][]core.MetricRecord{
			"u1": daily(core.MetricSleepHours, repeat(6, 14)...),
		},
		fail: map[string]bool{"broken": true},
	}
	users := &fakeUsers{users: []core.UserProfile{{ID: "u1"}, {ID: "broken"}, {ID: "quiet"}}}
	store := &fakeStore{expired: 4}

	g := NewGenerator(metrics, users, store).WithClock(func() time.Time { return testNow })

	stats, err := g.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user broken")

	assert.Equal(t, BatchStats{Users: 2, Insights: 2, Expired: 4, Errors: 1}, stats)
	assert.Equal(t, testNow, store.now)
	assert.Equal(t, testNow.AddDate(0, 0, -30), metrics.from)

	saved := store.saved["u1"]
	require.Len(t, saved, 2)
	for _, in := range saved {
		assert.NotEqual(t, uuid.Nil, in.ID)
		assert.Equal(t, testNow, in.GeneratedAt)
		assert.Equal(t, testNow.Add(7*24*time.Hour), in.ExpiresAt)
	}

	quiet, ok := store.saved["quiet"]
	assert.True(t, ok)
	assert.Empty(t, quiet)
}

func TestGenerator_StartShutdown(t *testing.T) {
	g := NewGenerator(&fakeMetrics{}, &fakeUsers{}, &fakeStore{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("generator did not stop")
	}
	require.NoError(t, g.Shutdown(context.Background()))
}

func TestGenerator_InvalidSchedule(t *testing.T) {
	g := NewGenerator(&fakeMetrics{}, &fakeUsers{}, &fakeStore{})
	g.Schedule = "every now and then"

	err := g.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid insights schedule")
}
