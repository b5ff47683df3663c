package application

import (
	"testing"
	"time"

	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/stretchr/testify/require"
)

func sampleView(id string) domain.View {
	return domain.View{
		Cluster: domain.ClusterSnapshot{ClusterID: id, Brokers: []domain.BrokerDetail{{ID: 1}}},
		Topics: []domain.TopicDescriptor{{
			Name:             "orders",
			Configs:          map[string]string{"cleanup.policy": "delete"},
			PartitionDetails: []domain.PartitionDescriptor{{Partition: 0, Replicas: []int32{1}, ISR: []int32{1}}},
		}},
		Groups: []domain.ConsumerGroupDescriptor{{GroupID: "g1", Topics: []string{"orders"}}},
	}
}

func TestSnapshotCache_Empty(t *testing.T) {
	t.Parallel()
	c := NewSnapshotCache()
	_, ok := c.View()
	require.False(t, ok)
	_, _, ok = c.Outcome()
	require.False(t, ok)
}

func TestSnapshotCache_ReadersGetCopies(t *testing.T) {
	t.Parallel()
	c := NewSnapshotCache()
	c.Install(sampleView("c1"), domain.RefreshOutcome{Kind: domain.OutcomeSuccess, At: time.Now()})

	v, ok := c.View()
	require.True(t, ok)
	v.Topics[0].Configs["cleanup.policy"] = "compact"
	v.Topics[0].PartitionDetails[0].ISR[0] = 9
	v.Groups[0].Topics[0] = "changed"
	v.Cluster.Brokers[0].ID = 9

	again, _ := c.View()
	require.Equal(t, "delete", again.Topics[0].Configs["cleanup.policy"])
	require.Equal(t, int32(1), again.Topics[0].PartitionDetails[0].ISR[0])
	require.Equal(t, "orders", again.Groups[0].Topics[0])
	require.Equal(t, int32(1), again.Cluster.Brokers[0].ID)
}

func TestSnapshotCache_FailureKeepsView(t *testing.T) {
	t.Parallel()
	c := NewSnapshotCache()
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c.Install(sampleView("c1"), domain.RefreshOutcome{Kind: domain.OutcomeSuccess, At: at})

	c.RecordFailure(domain.RefreshOutcome{Kind: domain.OutcomeFailure, At: at.Add(time.Minute), Err: domain.ErrTimeout})

	v, ok := c.View()
	require.True(t, ok)
	require.Equal(t, "c1", v.Cluster.ClusterID)

	outcome, lastSuccess, ok := c.Outcome()
	require.True(t, ok)
	require.Equal(t, domain.OutcomeFailure, outcome.Kind)
	require.ErrorIs(t, outcome.Err, domain.ErrTimeout)
	require.Equal(t, at, lastSuccess)
}

func TestSnapshotCache_Reset(t *testing.T) {
	t.Parallel()
	c := NewSnapshotCache()
	c.Install(sampleView("c1"), domain.RefreshOutcome{Kind: domain.OutcomeSuccess, At: time.Now()})
	c.Reset()
	_, ok := c.View()
	require.False(t, ok)
	require.Nil(t, c.previous())
}

func TestSnapshotCache_Subscribe(t *testing.T) {
	t.Parallel()
	c := NewSnapshotCache()
	ch, cancel := c.Subscribe()

	c.Install(sampleView("c1"), domain.RefreshOutcome{Kind: domain.OutcomeSuccess})
	// a second install before the first is consumed must not block
	c.Install(sampleView("c2"), domain.RefreshOutcome{Kind: domain.OutcomeSuccess})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a notification")
	}

	cancel()
	cancel()
	c.Install(sampleView("c3"), domain.RefreshOutcome{Kind: domain.OutcomeSuccess})
	select {
	case <-ch:
		t.Fatal("unexpected notification after unsubscribe")
	default:
	}
}
