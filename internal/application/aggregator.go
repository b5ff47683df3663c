package application

import (
	"sort"
	"strings"
	"time"

	"github.com/OliveiraNt/infralens/internal/domain"
)

// Aggregator turns raw topic metadata into per-topic descriptors and the
// cluster-wide counters of a snapshot.
type Aggregator struct {
	internalPrefix string
}

// NewAggregator creates an Aggregator treating topics named with prefix as internal.
func NewAggregator(internalPrefix string) *Aggregator {
	return &Aggregator{internalPrefix: internalPrefix}
}

// IsInternal reports whether a topic or group name is reserved by the cluster.
func (a *Aggregator) IsInternal(name string) bool {
	return a.internalPrefix != "" && strings.HasPrefix(name, a.internalPrefix)
}

// AggregateInput carries everything one aggregation needs.
type AggregateInput struct {
	Cluster domain.ClusterDescriptor
	Topics  []domain.RawTopic
	// Configs holds the per-topic configuration. A missing entry yields an
	// empty config.
	Configs map[string]map[string]string
	// Marks holds the high-water marks per topic. A missing entry or a
	// missing partition leaves EndOffsetSum unset.
	Marks map[string]map[int32]int64
	// Previous is the last published view, used for throughput.
	Previous *domain.View
	Now      time.Time
}

// Aggregate builds the topic descriptors and the cluster snapshot. Group
// counters are left for the caller. Internal topics appear in the returned
// descriptors but are excluded from every count.
func (a *Aggregator) Aggregate(in AggregateInput) (domain.ClusterSnapshot, []domain.TopicDescriptor) {
	leaders := make(map[int32]int)
	topics := make([]domain.TopicDescriptor, 0, len(in.Topics))

	snap := domain.ClusterSnapshot{
		ClusterID:    in.Cluster.ClusterID,
		ControllerID: in.Cluster.ControllerID,
		CapturedAt:   in.Now,
	}

	for _, raw := range in.Topics {
		internal := raw.Internal || a.IsInternal(raw.Name)
		td := a.describeTopic(raw, internal, in)
		topics = append(topics, td)
		if internal {
			continue
		}

		snap.TopicCount++
		snap.TotalPartitions += td.Partitions
		snap.UnderReplicatedPartitions += td.UnderReplicated
		for _, p := range td.PartitionDetails {
			if p.Offline {
				snap.OfflinePartitions++
				continue
			}
			leaders[p.Leader]++
		}
	}

	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })

	snap.Brokers = make([]domain.BrokerDetail, len(in.Cluster.Brokers))
	for i, b := range in.Cluster.Brokers {
		b.LeaderPartitions = leaders[b.ID]
		snap.Brokers[i] = b
	}
	sort.Slice(snap.Brokers, func(i, j int) bool { return snap.Brokers[i].ID < snap.Brokers[j].ID })
	snap.BrokerCount = len(snap.Brokers)

	return snap, topics
}

func (a *Aggregator) describeTopic(raw domain.RawTopic, internal bool, in AggregateInput) domain.TopicDescriptor {
	partitions := make([]domain.RawPartition, len(raw.Partitions))
	copy(partitions, raw.Partitions)
	sort.Slice(partitions, func(i, j int) bool { return partitions[i].Partition < partitions[j].Partition })

	td := domain.TopicDescriptor{
		Name:              raw.Name,
		Partitions:        len(partitions),
		ReplicationFactor: replicationFactor(partitions),
		Configs:           copyConfig(in.Configs[raw.Name]),
		Internal:          internal,
		PartitionDetails:  make([]domain.PartitionDescriptor, 0, len(partitions)),
	}

	for _, p := range partitions {
		pd := domain.PartitionDescriptor{
			Partition:       p.Partition,
			Leader:          p.Leader,
			Replicas:        append([]int32(nil), p.Replicas...),
			ISR:             append([]int32(nil), p.ISR...),
			UnderReplicated: domain.IsUnderReplicated(p.Replicas, p.ISR),
			Offline:         p.Leader < 0,
		}
		if pd.UnderReplicated {
			td.UnderReplicated++
		}
		td.PartitionDetails = append(td.PartitionDetails, pd)
	}

	td.EndOffsetSum = endOffsetSum(partitions, in.Marks[raw.Name])
	td.MessagesPerSecond = throughput(td.Name, td.EndOffsetSum, in.Previous, in.Now)
	return td
}

// replicationFactor is the replica count of partition 0, or of the lowest
// partition when 0 is absent. A topic without partitions reports 1.
func replicationFactor(sorted []domain.RawPartition) int {
	if len(sorted) == 0 {
		return 1
	}
	for _, p := range sorted {
		if p.Partition == 0 {
			return max(len(p.Replicas), 1)
		}
	}
	return max(len(sorted[0].Replicas), 1)
}

func copyConfig(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func endOffsetSum(partitions []domain.RawPartition, marks map[int32]int64) *int64 {
	if marks == nil {
		return nil
	}
	var sum int64
	for _, p := range partitions {
		hw, ok := marks[p.Partition]
		if !ok || hw < 0 {
			return nil
		}
		sum += hw
	}
	return &sum
}

func throughput(topic string, current *int64, prev *domain.View, now time.Time) *float64 {
	if current == nil || prev == nil {
		return nil
	}
	elapsed := now.Sub(prev.Cluster.CapturedAt).Seconds()
	if elapsed <= 0 {
		return nil
	}
	for _, t := range prev.Topics {
		if t.Name != topic {
			continue
		}
		if t.EndOffsetSum == nil || *current < *t.EndOffsetSum {
			return nil
		}
		rate := float64(*current-*t.EndOffsetSum) / elapsed
		return &rate
	}
	return nil
}
