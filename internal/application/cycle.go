package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/OliveiraNt/infralens/internal/utils"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	componentTopicConfig   = "topic-config"
	componentHighWaterMark = "high-water-marks"
	componentGroups        = "consumer-groups"
	componentGroup         = "consumer-group"
)

// Collector runs one refresh cycle against a broker client and assembles the
// resulting view.
type Collector struct {
	aggregator  *Aggregator
	concurrency int
	now         func() time.Time
}

// NewCollector creates a Collector. concurrency bounds the per-topic and
// per-group calls in flight.
func NewCollector(aggregator *Aggregator, concurrency int, now func() time.Time) *Collector {
	if concurrency < 1 {
		concurrency = 1
	}
	if now == nil {
		now = time.Now
	}
	return &Collector{aggregator: aggregator, concurrency: concurrency, now: now}
}

// notes accumulates partial failures from concurrent branches.
type notes struct {
	mu   sync.Mutex
	list []domain.PartialFailure
}

func (n *notes) add(component, subject string, err error) {
	utils.Logger.Warn("partial refresh failure", "component", component, "subject", subject, "err", err)
	n.mu.Lock()
	n.list = append(n.list, domain.NewPartialFailure(component, subject, err))
	n.mu.Unlock()
}

func (n *notes) sorted() []domain.PartialFailure {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.PartialFailure, len(n.list))
	copy(out, n.list)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Component != out[j].Component {
			return out[i].Component < out[j].Component
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

// watermarks memoizes the high-water marks of each topic for one cycle.
// Concurrent lookups of the same topic share a single adapter call.
type watermarks struct {
	client domain.BrokerClient
	topics map[string]domain.RawTopic
	notes  *notes
	sf     singleflight.Group

	mu    sync.Mutex
	marks map[string]map[int32]int64
	errs  map[string]error
}

func newWatermarks(client domain.BrokerClient, topics map[string]domain.RawTopic, n *notes) *watermarks {
	return &watermarks{
		client: client,
		topics: topics,
		notes:  n,
		marks:  make(map[string]map[int32]int64),
		errs:   make(map[string]error),
	}
}

func (w *watermarks) get(ctx context.Context, topic string) (map[int32]int64, error) {
	if m, ok, err := w.lookup(topic); ok {
		return m, err
	}
	v, err, _ := w.sf.Do(topic, func() (any, error) {
		if m, ok, err := w.lookup(topic); ok {
			return m, err
		}
		m, err := w.fetch(ctx, topic)
		w.mu.Lock()
		if err != nil {
			w.errs[topic] = err
		} else {
			w.marks[topic] = m
		}
		w.mu.Unlock()
		if err != nil {
			w.notes.add(componentHighWaterMark, topic, err)
		}
		return m, err
	})
	if err != nil {
		return nil, err
	}
	return v.(map[int32]int64), nil
}

func (w *watermarks) lookup(topic string) (map[int32]int64, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if m, ok := w.marks[topic]; ok {
		return m, true, nil
	}
	if err, ok := w.errs[topic]; ok {
		return nil, true, err
	}
	return nil, false, nil
}

func (w *watermarks) fetch(ctx context.Context, topic string) (map[int32]int64, error) {
	t, ok := w.topics[topic]
	if !ok {
		return nil, domain.NewAdapterError("list end offsets "+topic, domain.ErrConsistencyDrift,
			fmt.Errorf("topic %q is not in the current metadata", topic))
	}
	ids := make([]int32, len(t.Partitions))
	for i, p := range t.Partitions {
		ids[i] = p.Partition
	}
	return w.client.FetchHighWaterMarks(ctx, topic, ids)
}

func (w *watermarks) snapshot() map[string]map[int32]int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]map[int32]int64, len(w.marks))
	for k, v := range w.marks {
		out[k] = v
	}
	return out
}

// Collect fetches cluster, topic and group data in parallel and builds a view.
// It fails only when the cluster cannot be described or listed at all; any
// narrower failure is recorded on the view and the cycle continues.
func (c *Collector) Collect(ctx context.Context, client domain.BrokerClient, prev *domain.View) (domain.View, error) {
	n := &notes{}

	var (
		cluster   domain.ClusterDescriptor
		rawTopics []domain.RawTopic
		groupIDs  []string

		clusterErr, topicsErr, groupsErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		cluster, clusterErr = client.DescribeCluster(ctx)
		return nil
	})
	g.Go(func() error {
		rawTopics, topicsErr = client.FetchTopicMetadata(ctx)
		return nil
	})
	g.Go(func() error {
		groupIDs, groupsErr = client.ListGroups(ctx)
		return nil
	})
	_ = g.Wait()

	switch {
	case clusterErr != nil:
		return domain.View{}, clusterErr
	case topicsErr != nil:
		return domain.View{}, topicsErr
	case groupsErr != nil && domain.IsTransient(groupsErr):
		return domain.View{}, groupsErr
	case groupsErr != nil:
		n.add(componentGroups, "", groupsErr)
		groupIDs = nil
	}

	index := make(map[string]domain.RawTopic, len(rawTopics))
	for _, t := range rawTopics {
		index[t.Name] = t
	}
	marks := newWatermarks(client, index, n)

	var (
		cmu     sync.Mutex
		configs = make(map[string]map[string]string)
	)

	var work errgroup.Group
	work.SetLimit(c.concurrency)

	for _, t := range rawTopics {
		if t.Internal || c.aggregator.IsInternal(t.Name) {
			continue
		}
		name := t.Name
		work.Go(func() error {
			cfg, err := client.DescribeTopicConfig(ctx, name)
			if err != nil {
				n.add(componentTopicConfig, name, err)
				return nil
			}
			cmu.Lock()
			configs[name] = cfg
			cmu.Unlock()
			return nil
		})
		work.Go(func() error {
			_, _ = marks.get(ctx, name)
			return nil
		})
	}

	ids := c.filterGroups(groupIDs)
	groups := make([]domain.ConsumerGroupDescriptor, len(ids))
	for i, id := range ids {
		work.Go(func() error {
			groups[i] = c.collectGroup(ctx, client, id, marks, n)
			return nil
		})
	}
	_ = work.Wait()

	snap, topics := c.aggregator.Aggregate(AggregateInput{
		Cluster:  cluster,
		Topics:   rawTopics,
		Configs:  configs,
		Marks:    marks.snapshot(),
		Previous: prev,
		Now:      c.now(),
	})

	snap.ConsumerGroupCount = len(groups)
	for _, gd := range groups {
		snap.TotalLag += gd.Lag
	}

	return domain.View{
		Cluster:  snap,
		Topics:   topics,
		Groups:   groups,
		Failures: n.sorted(),
	}, nil
}

func (c *Collector) filterGroups(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || c.aggregator.IsInternal(id) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (c *Collector) collectGroup(ctx context.Context, client domain.BrokerClient, id string, marks *watermarks, n *notes) domain.ConsumerGroupDescriptor {
	descs, err := client.DescribeGroups(ctx, []string{id})
	if err != nil {
		n.add(componentGroup, id, err)
		return unknownGroup(id)
	}
	var desc *domain.GroupDescription
	for i := range descs {
		if descs[i].GroupID == id {
			desc = &descs[i]
			break
		}
	}
	if desc == nil {
		n.add(componentGroup, id, domain.NewAdapterError("describe groups", domain.ErrConsistencyDrift,
			fmt.Errorf("group %q disappeared after listing", id)))
		return unknownGroup(id)
	}

	offsets, err := client.FetchCommittedOffsets(ctx, id)
	if err != nil {
		n.add(componentGroup, id, err)
		gd := unknownGroup(id)
		gd.Members = desc.Members
		if desc.ProtocolType != "" {
			gd.ProtocolType = desc.ProtocolType
		}
		return gd
	}

	byTopic := make(map[string]map[int32]int64)
	for _, o := range offsets {
		if _, ok := byTopic[o.Topic]; ok {
			continue
		}
		m, err := marks.get(ctx, o.Topic)
		if err != nil {
			m = nil
		}
		byTopic[o.Topic] = m
	}

	return ComputeGroupLag(*desc, offsets, byTopic)
}
