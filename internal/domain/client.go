package domain

import (
	"context"
	"time"

	"github.com/OliveiraNt/infralens/internal/config"
)

// BrokerClient is the capability interface the engine uses to talk to a
// cluster. Implementations must be safe for concurrent use; no consistency is
// promised across calls.
type BrokerClient interface {
	FetchTopicMetadata(ctx context.Context) ([]RawTopic, error)
	DescribeCluster(ctx context.Context) (ClusterDescriptor, error)
	ListGroups(ctx context.Context) ([]string, error)
	DescribeGroups(ctx context.Context, groupIDs []string) ([]GroupDescription, error)
	// FetchCommittedOffsets returns the group's committed positions; HighWater
	// is always nil in the result.
	FetchCommittedOffsets(ctx context.Context, groupID string) ([]OffsetPoint, error)
	FetchHighWaterMarks(ctx context.Context, topic string, partitions []int32) (map[int32]int64, error)
	DescribeTopicConfig(ctx context.Context, topic string) (map[string]string, error)
	Close()
}

// ClientFactory creates broker clients from configuration.
type ClientFactory interface {
	CreateClient(cfg config.ClusterConfig, requestTimeout time.Duration) (BrokerClient, error)
}
