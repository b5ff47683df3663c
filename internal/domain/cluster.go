// Package domain defines the core entities of the InfraLens observability engine.
// It includes the snapshot values published to readers, the raw shapes returned by
// the broker client adapter, the health model and the error taxonomy shared by
// every layer.
package domain

import "time"

// ClusterDescriptor is the raw cluster description returned by the adapter.
type ClusterDescriptor struct {
	ClusterID    string
	ControllerID int32
	Brokers      []BrokerDetail
}

// BrokerDetail holds detailed information about a broker
type BrokerDetail struct {
	ID               int32  `json:"id"`
	Host             string `json:"host"`
	Port             int32  `json:"port"`
	Rack             string `json:"rack,omitempty"`
	IsController     bool   `json:"is_controller"`
	LeaderPartitions int    `json:"leader_partitions"`
}

// ClusterSnapshot is the aggregated cluster view captured by one refresh.
// It is never mutated after publication.
type ClusterSnapshot struct {
	ClusterID                 string         `json:"cluster_id"`
	ControllerID              int32          `json:"controller_id"`
	BrokerCount               int            `json:"brokers"`
	Brokers                   []BrokerDetail `json:"broker_details"`
	TopicCount                int            `json:"topics"`
	TotalPartitions           int            `json:"total_partitions"`
	UnderReplicatedPartitions int            `json:"under_replicated_partitions"`
	OfflinePartitions         int            `json:"offline_partitions"`
	ConsumerGroupCount        int            `json:"consumer_groups"`
	TotalLag                  int64          `json:"total_lag"`
	CapturedAt                time.Time      `json:"captured_at"`
}
