package kafka

import (
	"context"
	"os"
	"testing"

	"github.com/OliveiraNt/infralens/internal/utils"
	"github.com/twmb/franz-go/pkg/kadm"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	_ = utils.SetLogLevel("error")
	os.Exit(m.Run())
}

// fakeAdmin is an in-memory adminAPI returning canned kadm responses.
type fakeAdmin struct {
	metadata  kadm.Metadata
	topics    kadm.TopicDetails
	groups    kadm.ListedGroups
	described kadm.DescribedGroups
	offsets   map[string]kadm.OffsetResponses
	ends      kadm.ListedOffsets
	configs   kadm.ResourceConfigs
	err       error

	lastDeadline bool
}

func (f *fakeAdmin) observe(ctx context.Context) {
	_, f.lastDeadline = ctx.Deadline()
}

func (f *fakeAdmin) BrokerMetadata(ctx context.Context) (kadm.Metadata, error) {
	f.observe(ctx)
	return f.metadata, f.err
}

func (f *fakeAdmin) ListTopicsWithInternal(ctx context.Context, _ ...string) (kadm.TopicDetails, error) {
	f.observe(ctx)
	return f.topics, f.err
}

func (f *fakeAdmin) ListGroups(ctx context.Context, _ ...string) (kadm.ListedGroups, error) {
	f.observe(ctx)
	return f.groups, f.err
}

func (f *fakeAdmin) DescribeGroups(ctx context.Context, _ ...string) (kadm.DescribedGroups, error) {
	f.observe(ctx)
	return f.described, f.err
}

func (f *fakeAdmin) FetchOffsets(ctx context.Context, group string) (kadm.OffsetResponses, error) {
	f.observe(ctx)
	return f.offsets[group], f.err
}

func (f *fakeAdmin) ListEndOffsets(ctx context.Context, _ ...string) (kadm.ListedOffsets, error) {
	f.observe(ctx)
	return f.ends, f.err
}

func (f *fakeAdmin) DescribeTopicConfigs(ctx context.Context, _ ...string) (kadm.ResourceConfigs, error) {
	f.observe(ctx)
	return f.configs, f.err
}
