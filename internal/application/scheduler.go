package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/OliveiraNt/infralens/internal/utils"
	"golang.org/x/sync/singleflight"
)

const (
	refreshKey           = "refresh"
	defaultCycleDeadline = time.Minute
)

// RefreshObserver is notified about every refresh outcome and every
// published view.
type RefreshObserver interface {
	ObserveRefresh(outcome domain.RefreshOutcome)
	ObserveView(view domain.View)
}

// Scheduler drives refresh cycles. It owns the connection lifecycle and the
// broker client, allows a single cycle in flight and publishes results into
// the cache.
type Scheduler struct {
	collector *Collector
	cache     *SnapshotCache
	policy    RetryPolicy
	deadline  time.Duration
	interval  time.Duration
	observer  RefreshObserver
	now       func() time.Time

	sf         singleflight.Group
	refreshing atomic.Bool

	mu         sync.RWMutex
	client     domain.BrokerClient
	generation uint64
	state      domain.LifecycleState
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	Policy   RetryPolicy
	Deadline time.Duration
	Interval time.Duration
	Observer RefreshObserver
	Now      func() time.Time
}

// NewScheduler creates a disconnected Scheduler.
func NewScheduler(client domain.BrokerClient, collector *Collector, cache *SnapshotCache, cfg SchedulerConfig) *Scheduler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	deadline := cfg.Deadline
	if deadline <= 0 {
		deadline = defaultCycleDeadline
	}
	return &Scheduler{
		collector: collector,
		cache:     cache,
		policy:    cfg.Policy,
		deadline:  deadline,
		interval:  cfg.Interval,
		observer:  cfg.Observer,
		now:       now,
		client:    client,
		state:     domain.StateDisconnected,
	}
}

// State returns the connection lifecycle state.
func (s *Scheduler) State() domain.LifecycleState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Refreshing reports whether a cycle is in flight.
func (s *Scheduler) Refreshing() bool {
	return s.refreshing.Load()
}

func (s *Scheduler) current() (domain.BrokerClient, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client, s.generation
}

func (s *Scheduler) setState(state domain.LifecycleState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Connect probes the cluster and moves the lifecycle to Connected on success.
func (s *Scheduler) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state == domain.StateConnected {
		s.mu.Unlock()
		return nil
	}
	s.state = domain.StateConnecting
	client := s.client
	s.mu.Unlock()

	_, err := withRetry(ctx, s.policy, "connect", func(ctx context.Context) error {
		_, err := client.DescribeCluster(ctx)
		return err
	})
	if err != nil {
		s.setState(domain.StateDisconnected)
		utils.Logger.Error("connect failed", "err", err)
		return err
	}

	s.setState(domain.StateConnected)
	utils.Logger.Info("connected to cluster")
	return nil
}

// Disconnect stops refreshes. The cached view is kept.
func (s *Scheduler) Disconnect() {
	s.setState(domain.StateDisconnected)
	utils.Logger.Info("disconnected from cluster")
}

// Rebind replaces the broker client and returns the previous one. A cycle
// running against the old client is discarded when it completes.
func (s *Scheduler) Rebind(client domain.BrokerClient) domain.BrokerClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.client
	s.client = client
	s.generation++
	return old
}

// Refresh runs a cycle, or joins the one in flight, and waits for it. ctx only
// bounds the wait; the cycle itself is bounded by the scheduler deadline.
func (s *Scheduler) Refresh(ctx context.Context) error {
	if s.State() != domain.StateConnected {
		return domain.ErrDisconnected
	}
	ch := s.sf.DoChan(refreshKey, func() (any, error) {
		for {
			err := s.runCycle()
			// a rebind during the cycle leaves the new client unrefreshed
			if !errors.Is(err, errClientReplaced) || s.State() != domain.StateConnected {
				return nil, err
			}
		}
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TriggerRefresh starts a refresh in the background, coalescing with the
// one in flight.
func (s *Scheduler) TriggerRefresh() {
	if s.State() != domain.StateConnected {
		utils.Logger.Debug("refresh skipped", "state", s.State())
		return
	}
	go func() {
		if err := s.Refresh(context.Background()); err != nil {
			utils.Logger.Debug("triggered refresh failed", "err", err)
		}
	}()
}

// Run refreshes on every interval tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.State() != domain.StateConnected {
				continue
			}
			if err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				utils.Logger.Warn("periodic refresh failed", "err", err)
			}
		}
	}
}

// errClientReplaced is returned by a cycle whose client was rebound while it ran.
var errClientReplaced = errors.New("broker client replaced during refresh")

type cycleResult struct {
	view     domain.View
	attempts int
	err      error
}

func (s *Scheduler) runCycle() error {
	s.refreshing.Store(true)
	defer s.refreshing.Store(false)

	client, gen := s.current()
	prev := s.cache.previous()
	start := s.now()

	ctx, cancel := context.WithTimeout(context.Background(), s.deadline)
	defer cancel()

	// Buffered so an abandoned cycle can deliver its late result and exit.
	done := make(chan cycleResult, 1)
	go func() {
		var r cycleResult
		r.attempts, r.err = withRetry(ctx, s.policy, "refresh", func(ctx context.Context) error {
			view, err := s.collector.Collect(ctx, client, prev)
			if err != nil {
				return err
			}
			r.view = view
			return nil
		})
		done <- r
	}()

	timer := time.NewTimer(s.deadline)
	defer timer.Stop()

	var r cycleResult
	select {
	case r = <-done:
	case <-timer.C:
		err := fmt.Errorf("cycle exceeded its %s deadline", s.deadline)
		r = cycleResult{
			attempts: s.policy.attempts(),
			err:      domain.NewAdapterError("refresh", domain.ErrTimeout, err),
		}
	}

	outcome := domain.RefreshOutcome{
		At:       s.now(),
		Attempts: r.attempts,
		Duration: s.now().Sub(start),
	}

	if _, current := s.current(); current != gen {
		utils.Logger.Info("discarding refresh result for a replaced client")
		return errClientReplaced
	}

	if r.err != nil {
		outcome.Kind = domain.OutcomeFailure
		outcome.Err = r.err
		s.cache.RecordFailure(outcome)
		s.observeRefresh(outcome)
		utils.Logger.Error("refresh failed", "attempts", r.attempts, "kind", domain.KindOf(r.err), "err", r.err)
		return r.err
	}

	outcome.Kind = domain.OutcomeSuccess
	if len(r.view.Failures) > 0 {
		outcome.Kind = domain.OutcomePartial
		outcome.Failures = r.view.Failures
	}
	s.cache.Install(r.view, outcome)
	s.observeRefresh(outcome)
	if s.observer != nil {
		s.observer.ObserveView(r.view)
	}
	utils.Logger.Debug("refresh completed",
		"outcome", outcome.Kind,
		"attempts", r.attempts,
		"duration", outcome.Duration,
		"topics", r.view.Cluster.TopicCount,
		"groups", r.view.Cluster.ConsumerGroupCount,
	)
	return nil
}

func (s *Scheduler) observeRefresh(outcome domain.RefreshOutcome) {
	if s.observer != nil {
		s.observer.ObserveRefresh(outcome)
	}
}
