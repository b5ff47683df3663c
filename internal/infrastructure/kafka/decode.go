package kafka

import (
	"errors"
	"fmt"
	"sort"

	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/OliveiraNt/infralens/internal/utils"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
)

// decodeTopics converts kadm topic details into raw topics sorted by name.
// Topics carrying a broker error are skipped; structurally invalid entries fail
// the whole decode.
func decodeTopics(details kadm.TopicDetails) ([]domain.RawTopic, error) {
	out := make([]domain.RawTopic, 0, len(details))
	for name, td := range details {
		if name == "" {
			return nil, errors.New("topic with empty name")
		}
		if td.Topic != "" && td.Topic != name {
			return nil, fmt.Errorf("topic key %q does not match topic %q", name, td.Topic)
		}
		if td.Err != nil {
			utils.Logger.Debug("skipping topic with error", "topic", name, "err", td.Err)
			continue
		}

		partitions := make([]domain.RawPartition, 0, len(td.Partitions))
		for id, pd := range td.Partitions {
			if id < 0 || pd.Partition != id {
				return nil, fmt.Errorf("topic %q: invalid partition entry %d/%d", name, id, pd.Partition)
			}
			partitions = append(partitions, domain.RawPartition{
				Partition: pd.Partition,
				Leader:    pd.Leader,
				Replicas:  append([]int32(nil), pd.Replicas...),
				ISR:       append([]int32(nil), pd.ISR...),
			})
		}
		sort.Slice(partitions, func(i, j int) bool { return partitions[i].Partition < partitions[j].Partition })

		out = append(out, domain.RawTopic{
			Name:       name,
			Internal:   td.IsInternal,
			Partitions: partitions,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// decodeCluster converts broker metadata into a cluster descriptor.
func decodeCluster(meta kadm.Metadata) (domain.ClusterDescriptor, error) {
	brokers := make([]domain.BrokerDetail, 0, len(meta.Brokers))
	seen := make(map[int32]struct{}, len(meta.Brokers))
	for _, b := range meta.Brokers {
		if b.NodeID < 0 {
			return domain.ClusterDescriptor{}, fmt.Errorf("broker with invalid node id %d", b.NodeID)
		}
		if _, dup := seen[b.NodeID]; dup {
			return domain.ClusterDescriptor{}, fmt.Errorf("duplicate broker %d", b.NodeID)
		}
		seen[b.NodeID] = struct{}{}

		rack := ""
		if b.Rack != nil {
			rack = *b.Rack
		}
		brokers = append(brokers, domain.BrokerDetail{
			ID:           b.NodeID,
			Host:         b.Host,
			Port:         b.Port,
			Rack:         rack,
			IsController: b.NodeID == meta.Controller,
		})
	}
	sort.Slice(brokers, func(i, j int) bool { return brokers[i].ID < brokers[j].ID })

	return domain.ClusterDescriptor{
		ClusterID:    meta.Cluster,
		ControllerID: meta.Controller,
		Brokers:      brokers,
	}, nil
}

// decodeGroups returns descriptions for the requested groups in request order.
// Groups missing from the response or carrying an error are reported in the
// returned error.
func decodeGroups(op string, described kadm.DescribedGroups, requested []string) ([]domain.GroupDescription, error) {
	out := make([]domain.GroupDescription, 0, len(requested))
	var errs []error
	for _, id := range requested {
		g, ok := described[id]
		if !ok {
			errs = append(errs, domain.NewAdapterError(op, domain.ErrConsistencyDrift, fmt.Errorf("group %q missing from response", id)))
			continue
		}
		if g.Err != nil {
			errs = append(errs, classify(op+" "+id, g.Err))
			continue
		}
		out = append(out, domain.GroupDescription{
			GroupID:      id,
			State:        g.State,
			Members:      len(g.Members),
			ProtocolType: g.ProtocolType,
		})
	}
	return out, errors.Join(errs...)
}

// decodeOffsets converts committed offsets into points sorted by topic and
// partition. Partitions with an error or no commit have a nil Committed.
func decodeOffsets(resp kadm.OffsetResponses) []domain.OffsetPoint {
	var out []domain.OffsetPoint
	for topic, partitions := range resp {
		for partition, r := range partitions {
			p := domain.OffsetPoint{Topic: topic, Partition: partition}
			if r.Err == nil && r.At >= 0 {
				at := r.At
				p.Committed = &at
			}
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Topic != out[j].Topic {
			return out[i].Topic < out[j].Topic
		}
		return out[i].Partition < out[j].Partition
	})
	return out
}

// decodeHighWaterMarks extracts the end offsets of topic. A topic absent from
// the response, or whose partitions all report it unknown, is consistency drift.
func decodeHighWaterMarks(op string, listed kadm.ListedOffsets, topic string, partitions []int32) (map[int32]int64, error) {
	byPartition, ok := listed[topic]
	if !ok {
		return nil, domain.NewAdapterError(op, domain.ErrConsistencyDrift, fmt.Errorf("topic %q missing from response", topic))
	}

	want := make(map[int32]struct{}, len(partitions))
	for _, p := range partitions {
		want[p] = struct{}{}
	}

	out := make(map[int32]int64, len(byPartition))
	unknown := 0
	for partition, lo := range byPartition {
		if len(want) > 0 {
			if _, ok := want[partition]; !ok {
				continue
			}
		}
		if lo.Err != nil {
			if errors.Is(lo.Err, kerr.UnknownTopicOrPartition) {
				unknown++
			}
			continue
		}
		out[partition] = lo.Offset
	}
	if len(out) == 0 && unknown > 0 {
		return nil, domain.NewAdapterError(op, domain.ErrConsistencyDrift, kerr.UnknownTopicOrPartition)
	}
	return out, nil
}

// decodeConfigs extracts the non-sensitive config values of topic.
func decodeConfigs(op string, res kadm.ResourceConfigs, topic string) (map[string]string, error) {
	for _, rc := range res {
		if rc.Name != topic {
			continue
		}
		if rc.Err != nil {
			return nil, classify(op, rc.Err)
		}
		configs := make(map[string]string, len(rc.Configs))
		for _, c := range rc.Configs {
			if c.Value != nil && !c.Sensitive {
				configs[c.Key] = *c.Value
			}
		}
		return configs, nil
	}
	return nil, domain.NewAdapterError(op, domain.ErrConsistencyDrift, fmt.Errorf("topic %q missing from response", topic))
}
