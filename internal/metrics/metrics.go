// Package metrics exports engine snapshots and refresh outcomes as Prometheus
// metrics.
package metrics

import (
	"net/http"

	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "infralens"

// Recorder holds the engine metrics. It implements the engine's refresh
// observer.
type Recorder struct {
	registry *prometheus.Registry

	brokers                   prometheus.Gauge
	topics                    prometheus.Gauge
	partitions                prometheus.Gauge
	underReplicatedPartitions prometheus.Gauge
	offlinePartitions         prometheus.Gauge
	consumerGroups            prometheus.Gauge
	totalLag                  prometheus.Gauge
	lastSuccess               prometheus.Gauge
	partialFailures           prometheus.Gauge

	topicPartitions      *prometheus.GaugeVec
	topicUnderReplicated *prometheus.GaugeVec
	topicEndOffsets      *prometheus.GaugeVec
	topicThroughput      *prometheus.GaugeVec
	groupLag             *prometheus.GaugeVec
	groupMembers         *prometheus.GaugeVec

	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	refreshAttempts prometheus.Gauge
}

// NewRecorder registers the engine metrics on a new registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,

		brokers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cluster_brokers",
			Help: "Number of brokers in the cluster",
		}),
		topics: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cluster_topics",
			Help: "Number of non-internal topics",
		}),
		partitions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cluster_partitions",
			Help: "Number of partitions of non-internal topics",
		}),
		underReplicatedPartitions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cluster_under_replicated_partitions",
			Help: "Partitions whose in-sync replica set is smaller than the replica set",
		}),
		offlinePartitions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cluster_offline_partitions",
			Help: "Partitions without a leader",
		}),
		consumerGroups: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cluster_consumer_groups",
			Help: "Number of non-internal consumer groups",
		}),
		totalLag: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cluster_consumer_lag",
			Help: "Sum of the lag of every consumer group",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_snapshot_timestamp_seconds",
			Help: "Capture time of the last published snapshot",
		}),
		partialFailures: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "snapshot_partial_failures",
			Help: "Partial failures recorded by the last published snapshot",
		}),

		topicPartitions: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "topic_partitions",
			Help: "Number of partitions of a topic",
		}, []string{"topic"}),
		topicUnderReplicated: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "topic_under_replicated_partitions",
			Help: "Under-replicated partitions of a topic",
		}, []string{"topic"}),
		topicEndOffsets: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "topic_end_offset_sum",
			Help: "Sum of the high-water marks of a topic",
		}, []string{"topic"}),
		topicThroughput: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "topic_messages_per_second",
			Help: "Messages per second appended to a topic between the last two snapshots",
		}, []string{"topic"}),
		groupLag: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "consumergroup_lag",
			Help: "Lag of a consumer group",
		}, []string{"group", "state"}),
		groupMembers: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "consumergroup_members",
			Help: "Members of a consumer group",
		}, []string{"group"}),

		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "refresh_total",
			Help: "Refresh cycles by outcome",
		}, []string{"outcome"}),
		refreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "refresh_duration_seconds",
			Help:    "Duration of refresh cycles including retries",
			Buckets: prometheus.DefBuckets,
		}),
		refreshAttempts: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "refresh_attempts",
			Help: "Attempts used by the last refresh cycle",
		}),
	}
}

// Registry returns the registry holding the engine metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveRefresh records the outcome of a refresh cycle.
func (r *Recorder) ObserveRefresh(outcome domain.RefreshOutcome) {
	r.refreshes.WithLabelValues(string(outcome.Kind)).Inc()
	r.refreshDuration.Observe(outcome.Duration.Seconds())
	r.refreshAttempts.Set(float64(outcome.Attempts))
}

// ObserveView replaces every snapshot gauge with the values of view. Series of
// topics and groups that vanished are dropped.
func (r *Recorder) ObserveView(view domain.View) {
	c := view.Cluster
	r.brokers.Set(float64(c.BrokerCount))
	r.topics.Set(float64(c.TopicCount))
	r.partitions.Set(float64(c.TotalPartitions))
	r.underReplicatedPartitions.Set(float64(c.UnderReplicatedPartitions))
	r.offlinePartitions.Set(float64(c.OfflinePartitions))
	r.consumerGroups.Set(float64(c.ConsumerGroupCount))
	r.totalLag.Set(float64(c.TotalLag))
	r.lastSuccess.Set(float64(c.CapturedAt.Unix()))
	r.partialFailures.Set(float64(len(view.Failures)))

	r.topicPartitions.Reset()
	r.topicUnderReplicated.Reset()
	r.topicEndOffsets.Reset()
	r.topicThroughput.Reset()
	for _, t := range view.Topics {
		if t.Internal {
			continue
		}
		r.topicPartitions.WithLabelValues(t.Name).Set(float64(t.Partitions))
		r.topicUnderReplicated.WithLabelValues(t.Name).Set(float64(t.UnderReplicated))
		if t.EndOffsetSum != nil {
			r.topicEndOffsets.WithLabelValues(t.Name).Set(float64(*t.EndOffsetSum))
		}
		if t.MessagesPerSecond != nil {
			r.topicThroughput.WithLabelValues(t.Name).Set(*t.MessagesPerSecond)
		}
	}

	r.groupLag.Reset()
	r.groupMembers.Reset()
	for _, g := range view.Groups {
		r.groupLag.WithLabelValues(g.GroupID, string(g.State)).Set(float64(g.Lag))
		r.groupMembers.WithLabelValues(g.GroupID).Set(float64(g.Members))
	}
}
