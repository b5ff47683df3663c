package kafka

import (
	"context"
	"sort"
	"time"

	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/twmb/franz-go/pkg/kadm"
)

// adminAPI is the subset of *kadm.Client the adapter relies on.
type adminAPI interface {
	BrokerMetadata(ctx context.Context) (kadm.Metadata, error)
	ListTopicsWithInternal(ctx context.Context, topics ...string) (kadm.TopicDetails, error)
	ListGroups(ctx context.Context, filterStates ...string) (kadm.ListedGroups, error)
	DescribeGroups(ctx context.Context, groups ...string) (kadm.DescribedGroups, error)
	FetchOffsets(ctx context.Context, group string) (kadm.OffsetResponses, error)
	ListEndOffsets(ctx context.Context, topics ...string) (kadm.ListedOffsets, error)
	DescribeTopicConfigs(ctx context.Context, topics ...string) (kadm.ResourceConfigs, error)
}

// Admin runs admin requests with a per-call deadline and converts the kadm
// responses into domain shapes.
type Admin struct {
	client  adminAPI
	timeout time.Duration
}

// NewAdmin creates a new Admin
func NewAdmin(client adminAPI, timeout time.Duration) *Admin {
	return &Admin{client: client, timeout: timeout}
}

func (a *Admin) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// FetchTopicMetadata lists every topic, internal ones included.
func (a *Admin) FetchTopicMetadata(ctx context.Context) ([]domain.RawTopic, error) {
	const op = "fetch topic metadata"
	cctx, cancel := a.withTimeout(ctx)
	defer cancel()

	topics, err := a.client.ListTopicsWithInternal(cctx)
	if err != nil {
		return nil, classify(op, err)
	}
	out, err := decodeTopics(topics)
	if err != nil {
		return nil, domain.NewAdapterError(op, domain.ErrDecode, err)
	}
	return out, nil
}

// DescribeCluster returns the cluster id, controller and brokers.
func (a *Admin) DescribeCluster(ctx context.Context) (domain.ClusterDescriptor, error) {
	const op = "describe cluster"
	cctx, cancel := a.withTimeout(ctx)
	defer cancel()

	meta, err := a.client.BrokerMetadata(cctx)
	if err != nil {
		return domain.ClusterDescriptor{}, classify(op, err)
	}
	desc, err := decodeCluster(meta)
	if err != nil {
		return domain.ClusterDescriptor{}, domain.NewAdapterError(op, domain.ErrDecode, err)
	}
	return desc, nil
}

// ListGroups returns the ids of every group known to the cluster.
func (a *Admin) ListGroups(ctx context.Context) ([]string, error) {
	const op = "list groups"
	cctx, cancel := a.withTimeout(ctx)
	defer cancel()

	groups, err := a.client.ListGroups(cctx)
	if err != nil {
		return nil, classify(op, err)
	}
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// DescribeGroups describes the given groups. Groups that could not be
// described are left out of the result and reported through the error.
func (a *Admin) DescribeGroups(ctx context.Context, groupIDs []string) ([]domain.GroupDescription, error) {
	const op = "describe groups"
	cctx, cancel := a.withTimeout(ctx)
	defer cancel()

	described, err := a.client.DescribeGroups(cctx, groupIDs...)
	if err != nil {
		return nil, classify(op, err)
	}
	return decodeGroups(op, described, groupIDs)
}

// FetchCommittedOffsets returns the committed offsets of a group.
func (a *Admin) FetchCommittedOffsets(ctx context.Context, groupID string) ([]domain.OffsetPoint, error) {
	op := "fetch offsets " + groupID
	cctx, cancel := a.withTimeout(ctx)
	defer cancel()

	resp, err := a.client.FetchOffsets(cctx, groupID)
	if err != nil {
		return nil, classify(op, err)
	}
	return decodeOffsets(resp), nil
}

// FetchHighWaterMarks returns the end offsets of the requested partitions of
// topic; nil partitions means all of them. Partitions whose end offset could
// not be listed are absent from the result.
func (a *Admin) FetchHighWaterMarks(ctx context.Context, topic string, partitions []int32) (map[int32]int64, error) {
	op := "list end offsets " + topic
	cctx, cancel := a.withTimeout(ctx)
	defer cancel()

	listed, err := a.client.ListEndOffsets(cctx, topic)
	if err != nil {
		return nil, classify(op, err)
	}
	return decodeHighWaterMarks(op, listed, topic, partitions)
}

// DescribeTopicConfig returns the non-sensitive configuration of a topic.
func (a *Admin) DescribeTopicConfig(ctx context.Context, topic string) (map[string]string, error) {
	op := "describe config " + topic
	cctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res, err := a.client.DescribeTopicConfigs(cctx, topic)
	if err != nil {
		return nil, classify(op, err)
	}
	return decodeConfigs(op, res, topic)
}
