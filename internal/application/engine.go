package application

import (
	"context"
	"errors"
	"time"

	"github.com/OliveiraNt/infralens/internal/config"
	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/OliveiraNt/infralens/internal/utils"
)

// Engine is the read and control surface of the observability engine. Reads
// are served from the snapshot cache and never touch the cluster.
type Engine struct {
	scheduler  *Scheduler
	cache      *SnapshotCache
	aggregator *Aggregator
}

// Option customizes an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	observer RefreshObserver
	now      func() time.Time
}

// WithObserver registers an observer notified after every refresh.
func WithObserver(o RefreshObserver) Option {
	return func(opts *engineOptions) { opts.observer = o }
}

// WithClock overrides the clock used for capture times.
func WithClock(now func() time.Time) Option {
	return func(opts *engineOptions) { opts.now = now }
}

// NewEngine wires the aggregator, cache and scheduler around client.
func NewEngine(client domain.BrokerClient, cfg config.EngineConfig, opts ...Option) *Engine {
	o := engineOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	aggregator := NewAggregator(cfg.InternalPrefix)
	cache := NewSnapshotCache()
	collector := NewCollector(aggregator, cfg.GroupConcurrency, o.now)
	scheduler := NewScheduler(client, collector, cache, SchedulerConfig{
		Policy: RetryPolicy{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: cfg.InitialBackoff,
			MaxBackoff:     cfg.MaxBackoff,
		},
		Deadline: cfg.CycleDeadline(),
		Interval: cfg.RefreshInterval,
		Observer: o.observer,
		Now:      o.now,
	})

	return &Engine{scheduler: scheduler, cache: cache, aggregator: aggregator}
}

// GetClusterSnapshot returns the cluster summary of the last successful refresh.
func (e *Engine) GetClusterSnapshot() (domain.ClusterSnapshot, error) {
	v, ok := e.cache.View()
	if !ok {
		return domain.ClusterSnapshot{}, domain.ErrNoSnapshot
	}
	return v.Cluster, nil
}

// ListTopics returns the non-internal topics sorted by name.
func (e *Engine) ListTopics() ([]domain.TopicDescriptor, error) {
	v, err := e.UserView()
	if err != nil {
		return nil, err
	}
	return v.Topics, nil
}

// GetTopic returns one non-internal topic.
func (e *Engine) GetTopic(name string) (domain.TopicDescriptor, error) {
	topics, err := e.ListTopics()
	if err != nil {
		return domain.TopicDescriptor{}, err
	}
	for _, t := range topics {
		if t.Name == name {
			return t, nil
		}
	}
	return domain.TopicDescriptor{}, ErrTopicNotFound
}

// ListConsumerGroups returns the non-internal consumer groups sorted by id.
func (e *Engine) ListConsumerGroups() ([]domain.ConsumerGroupDescriptor, error) {
	v, err := e.UserView()
	if err != nil {
		return nil, err
	}
	return v.Groups, nil
}

// GetConsumerGroup returns one non-internal consumer group.
func (e *Engine) GetConsumerGroup(id string) (domain.ConsumerGroupDescriptor, error) {
	groups, err := e.ListConsumerGroups()
	if err != nil {
		return domain.ConsumerGroupDescriptor{}, err
	}
	for _, g := range groups {
		if g.GroupID == id {
			return g, nil
		}
	}
	return domain.ConsumerGroupDescriptor{}, ErrGroupNotFound
}

// UserView returns one published view with internal topics and groups left
// out. Everything in it comes from the same refresh.
func (e *Engine) UserView() (domain.View, error) {
	v, ok := e.cache.View()
	if !ok {
		return domain.View{}, domain.ErrNoSnapshot
	}
	topics := make([]domain.TopicDescriptor, 0, len(v.Topics))
	for _, t := range v.Topics {
		if t.Internal || e.aggregator.IsInternal(t.Name) {
			continue
		}
		topics = append(topics, t)
	}
	groups := make([]domain.ConsumerGroupDescriptor, 0, len(v.Groups))
	for _, g := range v.Groups {
		if e.aggregator.IsInternal(g.GroupID) {
			continue
		}
		groups = append(groups, g)
	}
	v.Topics, v.Groups = topics, groups
	return v, nil
}

// View returns a copy of the full published view, internal entities included.
func (e *Engine) View() (domain.View, bool) {
	return e.cache.View()
}

// GetHealth reports the engine health derived from the lifecycle state and the
// last refresh outcome.
func (e *Engine) GetHealth() domain.Health {
	_, hasSnapshot := e.cache.View()
	outcome, lastSuccess, hasOutcome := e.cache.Outcome()

	h := domain.Health{
		State:       e.scheduler.State(),
		Refreshing:  e.scheduler.Refreshing(),
		HasSnapshot: hasSnapshot,
	}
	if !lastSuccess.IsZero() {
		t := lastSuccess
		h.LastSuccessAt = &t
	}
	if hasOutcome {
		at := outcome.At
		h.LastRefreshAt = &at
		h.LastOutcome = outcome.Kind
		h.PartialFailures = outcome.Failures
		if outcome.Err != nil {
			h.LastError = outcome.Err.Error()
		}
	}

	switch {
	case h.State != domain.StateConnected:
		h.Status = domain.StatusDisconnected
	case hasOutcome && outcome.Kind == domain.OutcomeFailure && errors.Is(outcome.Err, domain.ErrConnection):
		h.Status = domain.StatusDisconnected
	case hasSnapshot && hasOutcome && outcome.Kind == domain.OutcomeSuccess:
		h.Status = domain.StatusHealthy
	default:
		h.Status = domain.StatusDegraded
	}
	return h
}

// TriggerRefresh requests a refresh without waiting for it.
func (e *Engine) TriggerRefresh() {
	e.scheduler.TriggerRefresh()
}

// Refresh runs a refresh, or joins the one in flight, and waits for it.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.scheduler.Refresh(ctx)
}

// Connect probes the cluster and triggers the first refresh.
func (e *Engine) Connect(ctx context.Context) error {
	if err := e.scheduler.Connect(ctx); err != nil {
		return err
	}
	e.scheduler.TriggerRefresh()
	return nil
}

// Disconnect stops refreshes. Readers keep seeing the last view.
func (e *Engine) Disconnect() {
	e.scheduler.Disconnect()
}

// Run refreshes periodically until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	e.scheduler.Run(ctx)
}

// Subscribe returns a channel signalled after every published view.
func (e *Engine) Subscribe() (<-chan struct{}, func()) {
	return e.cache.Subscribe()
}

// Rebind swaps the broker client, typically after a configuration change.
// The old client is closed and the cached view dropped since it may describe
// another cluster.
func (e *Engine) Rebind(client domain.BrokerClient) {
	old := e.scheduler.Rebind(client)
	e.cache.Reset()
	if old != nil && old != client {
		old.Close()
	}
	utils.Logger.Info("broker client rebound")
	e.scheduler.TriggerRefresh()
}

// Close disconnects the engine and closes its client.
func (e *Engine) Close() {
	e.scheduler.Disconnect()
	client, _ := e.scheduler.current()
	if client != nil {
		client.Close()
	}
}
