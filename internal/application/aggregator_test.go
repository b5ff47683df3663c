package application

import (
	"testing"
	"time"

	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/stretchr/testify/require"
)

func inSyncTopic(name string, partitions int, replicas ...int32) domain.RawTopic {
	t := domain.RawTopic{Name: name}
	for i := range partitions {
		leader := replicas[i%len(replicas)]
		t.Partitions = append(t.Partitions, domain.RawPartition{
			Partition: int32(i),
			Leader:    leader,
			Replicas:  replicas,
			ISR:       replicas,
		})
	}
	return t
}

func TestAggregator_Scenario(t *testing.T) {
	t.Parallel()
	a := NewAggregator("__")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	offsets := inSyncTopic("__consumer_offsets", 3, 1)
	offsets.Internal = true

	snap, topics := a.Aggregate(AggregateInput{
		Cluster: domain.ClusterDescriptor{
			ClusterID:    "c1",
			ControllerID: 1,
			Brokers:      []domain.BrokerDetail{{ID: 1, Host: "b1", Port: 9092, IsController: true}},
		},
		Topics: []domain.RawTopic{
			inSyncTopic("user-events", 6, 1),
			inSyncTopic("order-updates", 4, 1),
			offsets,
		},
		Now: now,
	})

	require.Equal(t, "c1", snap.ClusterID)
	require.Equal(t, 2, snap.TopicCount)
	require.Equal(t, 10, snap.TotalPartitions)
	require.Equal(t, 0, snap.UnderReplicatedPartitions)
	require.Equal(t, 0, snap.OfflinePartitions)
	require.Equal(t, 1, snap.BrokerCount)
	require.Equal(t, 10, snap.Brokers[0].LeaderPartitions)
	require.Equal(t, now, snap.CapturedAt)

	require.Len(t, topics, 3)
	require.Equal(t, "__consumer_offsets", topics[0].Name)
	require.True(t, topics[0].Internal)
	require.Equal(t, "order-updates", topics[1].Name)
	require.Equal(t, 4, topics[1].Partitions)
	require.Equal(t, 1, topics[1].ReplicationFactor)
	require.NotNil(t, topics[1].Configs)
	require.Nil(t, topics[1].EndOffsetSum)
	require.Nil(t, topics[1].MessagesPerSecond)
}

func TestAggregator_PrefixMarksInternal(t *testing.T) {
	t.Parallel()
	a := NewAggregator("__")
	require.True(t, a.IsInternal("__transaction_state"))
	require.False(t, a.IsInternal("orders"))
	require.False(t, NewAggregator("").IsInternal("__x"))

	snap, topics := a.Aggregate(AggregateInput{Topics: []domain.RawTopic{inSyncTopic("__schemas", 2, 1)}})
	require.Equal(t, 0, snap.TopicCount)
	require.True(t, topics[0].Internal)
}

func TestAggregator_UnderReplicatedAndOffline(t *testing.T) {
	t.Parallel()
	a := NewAggregator("__")
	topic := domain.RawTopic{
		Name: "payments",
		Partitions: []domain.RawPartition{
			{Partition: 0, Leader: 1, Replicas: []int32{1, 2, 3}, ISR: []int32{1, 2, 3}},
			{Partition: 1, Leader: 2, Replicas: []int32{2, 3, 1}, ISR: []int32{2}},
			{Partition: 2, Leader: -1, Replicas: []int32{3, 1, 2}, ISR: []int32{}},
		},
	}

	snap, topics := a.Aggregate(AggregateInput{
		Cluster: domain.ClusterDescriptor{Brokers: []domain.BrokerDetail{{ID: 2}, {ID: 1}, {ID: 3}}},
		Topics:  []domain.RawTopic{topic},
	})

	require.Equal(t, 2, snap.UnderReplicatedPartitions)
	require.Equal(t, 1, snap.OfflinePartitions)
	require.Equal(t, 2, topics[0].UnderReplicated)
	require.Equal(t, 3, topics[0].ReplicationFactor)

	for _, p := range topics[0].PartitionDetails {
		require.Equal(t, len(p.Replicas) > len(p.ISR), p.UnderReplicated)
	}
	require.True(t, topics[0].PartitionDetails[2].Offline)

	require.Equal(t, []int32{1, 2, 3}, []int32{snap.Brokers[0].ID, snap.Brokers[1].ID, snap.Brokers[2].ID})
	require.Equal(t, 1, snap.Brokers[0].LeaderPartitions)
	require.Equal(t, 1, snap.Brokers[1].LeaderPartitions)
	require.Equal(t, 0, snap.Brokers[2].LeaderPartitions)
}

func TestReplicationFactor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		partitions []domain.RawPartition
		want       int
	}{
		{name: "no partitions", want: 1},
		{
			name: "partition zero",
			partitions: []domain.RawPartition{
				{Partition: 0, Replicas: []int32{1, 2}},
				{Partition: 1, Replicas: []int32{1, 2, 3}},
			},
			want: 2,
		},
		{
			name: "lowest partition when zero is missing",
			partitions: []domain.RawPartition{
				{Partition: 3, Replicas: []int32{1, 2, 3}},
				{Partition: 5, Replicas: []int32{1}},
			},
			want: 3,
		},
		{
			name:       "empty replica set",
			partitions: []domain.RawPartition{{Partition: 0}},
			want:       1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, replicationFactor(tt.partitions))
		})
	}
}

func TestAggregator_ConfigsAreCopied(t *testing.T) {
	t.Parallel()
	a := NewAggregator("__")
	cfg := map[string]string{"retention.ms": "1000"}
	_, topics := a.Aggregate(AggregateInput{
		Topics:  []domain.RawTopic{inSyncTopic("orders", 1, 1)},
		Configs: map[string]map[string]string{"orders": cfg},
	})
	cfg["retention.ms"] = "2"
	require.Equal(t, "1000", topics[0].Configs["retention.ms"])
}

func TestAggregator_Throughput(t *testing.T) {
	t.Parallel()
	a := NewAggregator("__")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	topic := inSyncTopic("orders", 2, 1)

	first, topics := a.Aggregate(AggregateInput{
		Topics: []domain.RawTopic{topic},
		Marks:  map[string]map[int32]int64{"orders": {0: 100, 1: 50}},
		Now:    t0,
	})
	require.NotNil(t, topics[0].EndOffsetSum)
	require.Equal(t, int64(150), *topics[0].EndOffsetSum)
	require.Nil(t, topics[0].MessagesPerSecond)

	prev := &domain.View{Cluster: first, Topics: topics}
	_, topics = a.Aggregate(AggregateInput{
		Topics:   []domain.RawTopic{topic},
		Marks:    map[string]map[int32]int64{"orders": {0: 200, 1: 150}},
		Previous: prev,
		Now:      t0.Add(10 * time.Second),
	})
	require.NotNil(t, topics[0].MessagesPerSecond)
	require.InDelta(t, 20.0, *topics[0].MessagesPerSecond, 0.001)

	// a recreated topic has a smaller sum than before
	_, topics = a.Aggregate(AggregateInput{
		Topics:   []domain.RawTopic{topic},
		Marks:    map[string]map[int32]int64{"orders": {0: 1, 1: 1}},
		Previous: prev,
		Now:      t0.Add(10 * time.Second),
	})
	require.Nil(t, topics[0].MessagesPerSecond)

	// a missing partition mark leaves the sum unset
	_, topics = a.Aggregate(AggregateInput{
		Topics: []domain.RawTopic{topic},
		Marks:  map[string]map[int32]int64{"orders": {0: 1}},
		Now:    t0,
	})
	require.Nil(t, topics[0].EndOffsetSum)
}
