package application

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OliveiraNt/infralens/internal/domain"
)

// cacheState is swapped as a whole so readers never see a view paired with
// the outcome of a different refresh.
type cacheState struct {
	view        *domain.View
	outcome     *domain.RefreshOutcome
	lastSuccess time.Time
}

// SnapshotCache holds the last published view and the outcome of the most
// recent refresh. Reads are lock-free; writers are serialized.
type SnapshotCache struct {
	state atomic.Pointer[cacheState]
	wmu   sync.Mutex

	smu    sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

// NewSnapshotCache creates an empty cache.
func NewSnapshotCache() *SnapshotCache {
	c := &SnapshotCache{subs: make(map[int]chan struct{})}
	c.state.Store(&cacheState{})
	return c
}

// Install publishes view together with the outcome of the refresh that built it.
func (c *SnapshotCache) Install(view domain.View, outcome domain.RefreshOutcome) {
	c.wmu.Lock()
	c.state.Store(&cacheState{view: &view, outcome: &outcome, lastSuccess: outcome.At})
	c.wmu.Unlock()
	c.notify()
}

// RecordFailure stores a failed outcome and keeps the current view.
func (c *SnapshotCache) RecordFailure(outcome domain.RefreshOutcome) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	cur := c.state.Load()
	c.state.Store(&cacheState{view: cur.view, outcome: &outcome, lastSuccess: cur.lastSuccess})
}

// Reset drops the view and the outcome.
func (c *SnapshotCache) Reset() {
	c.wmu.Lock()
	c.state.Store(&cacheState{})
	c.wmu.Unlock()
}

// View returns a copy of the published view.
func (c *SnapshotCache) View() (domain.View, bool) {
	st := c.state.Load()
	if st.view == nil {
		return domain.View{}, false
	}
	return cloneView(*st.view), true
}

// Outcome returns the last refresh outcome and the time of the last success.
func (c *SnapshotCache) Outcome() (domain.RefreshOutcome, time.Time, bool) {
	st := c.state.Load()
	if st.outcome == nil {
		return domain.RefreshOutcome{}, st.lastSuccess, false
	}
	out := *st.outcome
	out.Failures = slices.Clone(out.Failures)
	return out, st.lastSuccess, true
}

// previous returns the published view without copying it. Callers must not
// modify it.
func (c *SnapshotCache) previous() *domain.View {
	return c.state.Load().view
}

// Subscribe registers for install notifications. Notifications are dropped
// when the subscriber has not consumed the previous one. The returned func
// unsubscribes.
func (c *SnapshotCache) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	c.smu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.smu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.smu.Lock()
			delete(c.subs, id)
			c.smu.Unlock()
		})
	}
}

func (c *SnapshotCache) notify() {
	c.smu.Lock()
	defer c.smu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func cloneView(v domain.View) domain.View {
	out := domain.View{
		Cluster:  v.Cluster,
		Topics:   make([]domain.TopicDescriptor, len(v.Topics)),
		Groups:   make([]domain.ConsumerGroupDescriptor, len(v.Groups)),
		Failures: slices.Clone(v.Failures),
	}
	out.Cluster.Brokers = slices.Clone(v.Cluster.Brokers)
	for i, t := range v.Topics {
		out.Topics[i] = cloneTopic(t)
	}
	for i, g := range v.Groups {
		out.Groups[i] = cloneGroup(g)
	}
	return out
}

func cloneTopic(t domain.TopicDescriptor) domain.TopicDescriptor {
	t.Configs = maps.Clone(t.Configs)
	details := make([]domain.PartitionDescriptor, len(t.PartitionDetails))
	for i, p := range t.PartitionDetails {
		p.Replicas = slices.Clone(p.Replicas)
		p.ISR = slices.Clone(p.ISR)
		details[i] = p
	}
	t.PartitionDetails = details
	if t.EndOffsetSum != nil {
		v := *t.EndOffsetSum
		t.EndOffsetSum = &v
	}
	if t.MessagesPerSecond != nil {
		v := *t.MessagesPerSecond
		t.MessagesPerSecond = &v
	}
	return t
}

func cloneGroup(g domain.ConsumerGroupDescriptor) domain.ConsumerGroupDescriptor {
	g.Topics = slices.Clone(g.Topics)
	offsets := make([]domain.OffsetPoint, len(g.Offsets))
	for i, o := range g.Offsets {
		if o.Committed != nil {
			v := *o.Committed
			o.Committed = &v
		}
		if o.HighWater != nil {
			v := *o.HighWater
			o.HighWater = &v
		}
		offsets[i] = o
	}
	g.Offsets = offsets
	return g
}
