package application

import (
	"sort"

	"github.com/OliveiraNt/infralens/internal/domain"
)

const defaultProtocolType = "consumer"

// PointLag returns the lag of one committed position and whether it could be
// computed. A point without a committed offset or a readable high-water mark
// contributes nothing.
func PointLag(committed, highWater *int64) (int64, bool) {
	if committed == nil || highWater == nil {
		return 0, false
	}
	if *committed < 0 || *highWater == domain.UnavailableOffset {
		return 0, false
	}
	return max(*highWater-*committed, 0), true
}

// ComputeGroupLag builds the descriptor of a group from its description, its
// committed offsets and the high-water marks of the topics it consumes.
func ComputeGroupLag(desc domain.GroupDescription, offsets []domain.OffsetPoint, marks map[string]map[int32]int64) domain.ConsumerGroupDescriptor {
	out := domain.ConsumerGroupDescriptor{
		GroupID:      desc.GroupID,
		Members:      desc.Members,
		State:        domain.ParseGroupState(desc.State),
		ProtocolType: desc.ProtocolType,
		Topics:       []string{},
		Offsets:      make([]domain.OffsetPoint, 0, len(offsets)),
	}
	if out.ProtocolType == "" {
		out.ProtocolType = defaultProtocolType
	}

	topics := make(map[string]struct{})
	for _, o := range offsets {
		topics[o.Topic] = struct{}{}

		p := domain.OffsetPoint{Topic: o.Topic, Partition: o.Partition}
		if o.Committed != nil && *o.Committed >= 0 {
			c := *o.Committed
			p.Committed = &c
		}
		if hw, ok := marks[o.Topic][o.Partition]; ok {
			p.HighWater = &hw
		}

		lag, ok := PointLag(p.Committed, p.HighWater)
		p.Lag = lag
		p.Incomplete = !ok
		if p.Incomplete {
			out.Incomplete = true
		}
		out.Lag += lag
		out.Offsets = append(out.Offsets, p)
	}

	for t := range topics {
		out.Topics = append(out.Topics, t)
	}
	sort.Strings(out.Topics)
	sort.Slice(out.Offsets, func(i, j int) bool {
		if out.Offsets[i].Topic != out.Offsets[j].Topic {
			return out.Offsets[i].Topic < out.Offsets[j].Topic
		}
		return out.Offsets[i].Partition < out.Offsets[j].Partition
	})
	return out
}

// unknownGroup is the descriptor recorded for a group whose computation failed.
func unknownGroup(id string) domain.ConsumerGroupDescriptor {
	return domain.ConsumerGroupDescriptor{
		GroupID:      id,
		State:        domain.GroupUnknown,
		ProtocolType: defaultProtocolType,
		Topics:       []string{},
		Incomplete:   true,
	}
}
