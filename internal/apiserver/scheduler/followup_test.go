package scheduler

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plotdesk/plotdesk/internal/apiserver/database"
	"github.com/plotdesk/plotdesk/internal/common/config"
	"github.com/plotdesk/plotdesk/internal/realtime"
)

type countingPublisher struct {
	count atomic.Int64
}

func (p *countingPublisher) Publish(realtime.Topic, realtime.Payload) {
	p.count.Add(1)
}

func newSweepStore(t *testing.T) database.Store {
	t.Helper()
	store, err := database.NewStore(&config.DatabaseConfig{
		Type:   "sqlite",
		DBName: filepath.Join(t.TempDir(), "sweep_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSweep_PublishesWhenFollowUpsOverdue(t *testing.T) {
	store := newSweepStore(t)
	overdue := time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.CreateLead(t.Context(), &database.Lead{
		Name: "Overdue", Phone: "9", Status: database.LeadStatusNew, FollowUpDate: &overdue,
	}))

	pub := &countingPublisher{}
	s := NewFollowUpScheduler(zap.NewNop(), store, pub, 10*time.Millisecond)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return pub.count.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSweep_QuietWhenNothingOverdue(t *testing.T) {
	store := newSweepStore(t)
	future := time.Now().Add(48 * time.Hour)
	require.NoError(t, store.CreateLead(t.Context(), &database.Lead{
		Name: "Scheduled", Phone: "9", Status: database.LeadStatusNew, FollowUpDate: &future,
	}))
	booked := time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.CreateLead(t.Context(), &database.Lead{
		Name: "Closed", Phone: "9", Status: database.LeadStatusBooked, FollowUpDate: &booked,
	}))

	pub := &countingPublisher{}
	s := NewFollowUpScheduler(zap.NewNop(), store, pub, 10*time.Millisecond)
	require.NoError(t, s.Start())

	time.Sleep(100 * time.Millisecond)
	s.Stop()
	assert.Zero(t, pub.count.Load())
}

func TestScheduler_StartTwiceFails(t *testing.T) {
	store := newSweepStore(t)
	s := NewFollowUpScheduler(zap.NewNop(), store, &countingPublisher{}, time.Hour)
	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Error(t, s.Start())
}
