package testutil

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OliveiraNt/infralens/internal/config"
	"github.com/OliveiraNt/infralens/internal/domain"
)

// FakeBrokerClient is a concurrency-safe test double implementing
// domain.BrokerClient with configurable responses and call counters.
type FakeBrokerClient struct {
	mu sync.Mutex

	Cluster domain.ClusterDescriptor
	Topics  []domain.RawTopic
	Groups  []string
	// Descriptions is keyed by group id.
	Descriptions map[string]domain.GroupDescription
	// Offsets is keyed by group id.
	Offsets map[string][]domain.OffsetPoint
	// Marks is keyed by topic then partition.
	Marks map[string]map[int32]int64
	// Configs is keyed by topic.
	Configs map[string]map[string]string

	ClusterErr  error
	TopicsErr   error
	GroupsErr   error
	DescribeErr map[string]error
	OffsetsErr  map[string]error
	MarksErr    map[string]error
	ConfigErr   map[string]error

	// BeforeCluster runs at the start of every DescribeCluster call, with the
	// 1-based call number. A non-nil error is returned to the caller.
	BeforeCluster func(ctx context.Context, call int) error

	clusterCalls  atomic.Int64
	topicCalls    atomic.Int64
	groupCalls    atomic.Int64
	describeCalls atomic.Int64
	offsetCalls   atomic.Int64
	markCalls     atomic.Int64
	configCalls   atomic.Int64
	closed        atomic.Bool
}

// NewFakeBrokerClient returns an empty FakeBrokerClient.
func NewFakeBrokerClient() *FakeBrokerClient {
	return &FakeBrokerClient{
		Descriptions: map[string]domain.GroupDescription{},
		Offsets:      map[string][]domain.OffsetPoint{},
		Marks:        map[string]map[int32]int64{},
		Configs:      map[string]map[string]string{},
		DescribeErr:  map[string]error{},
		OffsetsErr:   map[string]error{},
		MarksErr:     map[string]error{},
		ConfigErr:    map[string]error{},
	}
}

// Update runs fn with the fake locked, for changing responses while the
// fake is in use.
func (f *FakeBrokerClient) Update(fn func(f *FakeBrokerClient)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *FakeBrokerClient) DescribeCluster(ctx context.Context) (domain.ClusterDescriptor, error) {
	call := int(f.clusterCalls.Add(1))
	f.mu.Lock()
	hook := f.BeforeCluster
	f.mu.Unlock()
	if hook != nil {
		if err := hook(ctx, call); err != nil {
			return domain.ClusterDescriptor{}, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ClusterErr != nil {
		return domain.ClusterDescriptor{}, f.ClusterErr
	}
	c := f.Cluster
	c.Brokers = slices.Clone(f.Cluster.Brokers)
	return c, nil
}

func (f *FakeBrokerClient) FetchTopicMetadata(_ context.Context) ([]domain.RawTopic, error) {
	f.topicCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TopicsErr != nil {
		return nil, f.TopicsErr
	}
	return slices.Clone(f.Topics), nil
}

func (f *FakeBrokerClient) ListGroups(_ context.Context) ([]string, error) {
	f.groupCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GroupsErr != nil {
		return nil, f.GroupsErr
	}
	return slices.Clone(f.Groups), nil
}

func (f *FakeBrokerClient) DescribeGroups(_ context.Context, ids []string) ([]domain.GroupDescription, error) {
	f.describeCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.GroupDescription
	for _, id := range ids {
		if err := f.DescribeErr[id]; err != nil {
			return nil, err
		}
		if d, ok := f.Descriptions[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *FakeBrokerClient) FetchCommittedOffsets(_ context.Context, groupID string) ([]domain.OffsetPoint, error) {
	f.offsetCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.OffsetsErr[groupID]; err != nil {
		return nil, err
	}
	return slices.Clone(f.Offsets[groupID]), nil
}

func (f *FakeBrokerClient) FetchHighWaterMarks(_ context.Context, topic string, partitions []int32) (map[int32]int64, error) {
	f.markCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.MarksErr[topic]; err != nil {
		return nil, err
	}
	out := make(map[int32]int64)
	for _, p := range partitions {
		if hw, ok := f.Marks[topic][p]; ok {
			out[p] = hw
		}
	}
	return out, nil
}

func (f *FakeBrokerClient) DescribeTopicConfig(_ context.Context, topic string) (map[string]string, error) {
	f.configCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ConfigErr[topic]; err != nil {
		return nil, err
	}
	return maps.Clone(f.Configs[topic]), nil
}

func (f *FakeBrokerClient) Close() { f.closed.Store(true) }

// Closed reports whether Close was called.
func (f *FakeBrokerClient) Closed() bool { return f.closed.Load() }

// ClusterCalls returns the number of DescribeCluster calls.
func (f *FakeBrokerClient) ClusterCalls() int { return int(f.clusterCalls.Load()) }

// TopicCalls returns the number of FetchTopicMetadata calls.
func (f *FakeBrokerClient) TopicCalls() int { return int(f.topicCalls.Load()) }

// MarkCalls returns the number of FetchHighWaterMarks calls.
func (f *FakeBrokerClient) MarkCalls() int { return int(f.markCalls.Load()) }

// TotalCalls returns the number of adapter calls of any kind.
func (f *FakeBrokerClient) TotalCalls() int {
	return int(f.clusterCalls.Load() + f.topicCalls.Load() + f.groupCalls.Load() +
		f.describeCalls.Load() + f.offsetCalls.Load() + f.markCalls.Load() + f.configCalls.Load())
}

// FakeClientFactory hands out a preset client, or fails with Err.
type FakeClientFactory struct {
	mu      sync.Mutex
	Client  domain.BrokerClient
	Err     error
	Configs []config.ClusterConfig
}

func (f *FakeClientFactory) CreateClient(cfg config.ClusterConfig, _ time.Duration) (domain.BrokerClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Configs = append(f.Configs, cfg)
	return f.Client, f.Err
}
