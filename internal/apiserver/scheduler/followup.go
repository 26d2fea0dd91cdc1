// Package scheduler runs the periodic follow-up sweep: it scans for leads
// whose follow-up date has passed and nudges connected dashboards with a
// metrics envelope so reminder panes refresh without user action.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/plotdesk/plotdesk/internal/apiserver/database"
	"github.com/plotdesk/plotdesk/internal/realtime"
)

// Publisher is the slice of the gateway the sweep needs.
type Publisher interface {
	Publish(topic realtime.Topic, data realtime.Payload)
}

// FollowUpScheduler periodically checks for overdue follow-ups.
type FollowUpScheduler struct {
	logger   *zap.Logger
	store    database.Store
	gateway  Publisher
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	runningMutex sync.Mutex
	running      bool
}

// NewFollowUpScheduler creates the sweep. A non-positive interval defaults
// to 15 minutes.
func NewFollowUpScheduler(logger *zap.Logger, store database.Store, gateway Publisher, interval time.Duration) *FollowUpScheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &FollowUpScheduler{
		logger:   logger.Named("scheduler.followup"),
		store:    store,
		gateway:  gateway,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the sweep loop.
func (s *FollowUpScheduler) Start() error {
	s.runningMutex.Lock()
	defer s.runningMutex.Unlock()
	if s.running {
		return fmt.Errorf("follow-up scheduler is already running")
	}
	s.running = true
	s.logger.Info("starting follow-up scheduler", zap.Duration("interval", s.interval))
	go s.loop()
	return nil
}

// Stop terminates the sweep loop.
func (s *FollowUpScheduler) Stop() {
	s.runningMutex.Lock()
	defer s.runningMutex.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.cancel()
	s.logger.Info("follow-up scheduler stopped")
}

func (s *FollowUpScheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep publishes a metrics envelope when any lead's follow-up is overdue.
// The payload stays empty: receivers refetch their dashboards, they never
// trust pushed state.
func (s *FollowUpScheduler) sweep() {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	leads, err := s.store.ListLeadsWithFollowUpBetween(ctx, time.Time{}, time.Now(), "")
	if err != nil {
		s.logger.Error("follow-up sweep failed", zap.Error(err))
		return
	}

	overdue := 0
	for _, lead := range leads {
		if lead.Status != database.LeadStatusBooked && lead.Status != database.LeadStatusLost {
			overdue++
		}
	}
	if overdue == 0 {
		return
	}

	s.logger.Debug("follow-up sweep found overdue leads", zap.Int("count", overdue))
	s.gateway.Publish(realtime.TopicMetricsUpdated, realtime.Payload{})
}
