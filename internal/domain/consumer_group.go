package domain

// GroupState is the normalized state of a consumer group.
type GroupState string

const (
	GroupStable      GroupState = "Stable"
	GroupRebalancing GroupState = "Rebalancing"
	GroupEmpty       GroupState = "Empty"
	GroupDead        GroupState = "Dead"
	GroupUnknown     GroupState = "Unknown"
)

// ParseGroupState maps a broker-reported state onto a GroupState.
func ParseGroupState(s string) GroupState {
	switch s {
	case "Stable":
		return GroupStable
	case "PreparingRebalance", "CompletingRebalance", "Rebalancing":
		return GroupRebalancing
	case "Empty":
		return GroupEmpty
	case "Dead":
		return GroupDead
	default:
		return GroupUnknown
	}
}

// UnavailableOffset is the sentinel used by brokers for an unknown offset.
const UnavailableOffset int64 = -1

// GroupDescription is the raw group description returned by the adapter.
type GroupDescription struct {
	GroupID      string
	State        string
	Members      int
	ProtocolType string
}

// OffsetPoint is one (topic, partition) position of a consumer group.
type OffsetPoint struct {
	Topic      string `json:"topic"`
	Partition  int32  `json:"partition"`
	Committed  *int64 `json:"committed"`
	HighWater  *int64 `json:"high_water"`
	Lag        int64  `json:"lag"`
	Incomplete bool   `json:"incomplete,omitempty"`
}

// ConsumerGroupDescriptor is the aggregated view of a consumer group.
type ConsumerGroupDescriptor struct {
	GroupID      string        `json:"group_id"`
	Members      int           `json:"members"`
	State        GroupState    `json:"status"`
	ProtocolType string        `json:"protocol_type"`
	Lag          int64         `json:"lag"`
	Topics       []string      `json:"topics"`
	Offsets      []OffsetPoint `json:"offsets,omitempty"`
	Incomplete   bool          `json:"incomplete,omitempty"`
}
