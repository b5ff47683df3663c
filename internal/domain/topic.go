package domain

// RawPartition is a partition as reported by the adapter, before aggregation.
type RawPartition struct {
	Partition int32
	Leader    int32
	Replicas  []int32
	ISR       []int32
}

// RawTopic is a topic as reported by the adapter, before aggregation.
type RawTopic struct {
	Name       string
	Internal   bool
	Partitions []RawPartition
}

// PartitionDescriptor describes one partition of a topic.
type PartitionDescriptor struct {
	Partition       int32   `json:"partition"`
	Leader          int32   `json:"leader"`
	Replicas        []int32 `json:"replicas"`
	ISR             []int32 `json:"isr"`
	UnderReplicated bool    `json:"under_replicated"`
	Offline         bool    `json:"offline"`
}

// IsUnderReplicated reports whether the in-sync set is smaller than the replica set.
func IsUnderReplicated(replicas, isr []int32) bool {
	return len(replicas) > len(isr)
}

// TopicDescriptor is the aggregated view of a topic.
type TopicDescriptor struct {
	Name              string                `json:"name"`
	Partitions        int                   `json:"partitions"`
	ReplicationFactor int                   `json:"replication_factor"`
	Configs           map[string]string     `json:"configs"`
	Internal          bool                  `json:"internal"`
	UnderReplicated   int                   `json:"under_replicated_partitions"`
	PartitionDetails  []PartitionDescriptor `json:"partition_details"`

	// EndOffsetSum is the sum of the partitions' high-water marks, nil when
	// any mark could not be read.
	EndOffsetSum *int64 `json:"end_offset_sum,omitempty"`
	// MessagesPerSecond is derived from EndOffsetSum deltas between two
	// consecutive snapshots.
	MessagesPerSecond *float64 `json:"messages_per_second,omitempty"`
}
