package domain

import "time"

// HealthStatus is the externally reported engine health.
type HealthStatus string

const (
	StatusHealthy      HealthStatus = "healthy"
	StatusDegraded     HealthStatus = "degraded"
	StatusDisconnected HealthStatus = "disconnected"
)

// LifecycleState is the connection lifecycle of the engine.
type LifecycleState string

const (
	StateDisconnected LifecycleState = "disconnected"
	StateConnecting   LifecycleState = "connecting"
	StateConnected    LifecycleState = "connected"
)

// OutcomeKind classifies the result of a refresh attempt.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomePartial OutcomeKind = "partial"
	OutcomeFailure OutcomeKind = "failure"
)

// PartialFailure records one sub-component of a refresh that failed without
// failing the whole snapshot.
type PartialFailure struct {
	Component string `json:"component"`
	Subject   string `json:"subject"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

// NewPartialFailure builds a PartialFailure from an error, classifying it.
func NewPartialFailure(component, subject string, err error) PartialFailure {
	kind := KindOf(err)
	if kind == "error" || kind == "timeout" || kind == "connection" {
		kind = KindOf(ErrPartialData)
	}
	return PartialFailure{
		Component: component,
		Subject:   subject,
		Kind:      kind,
		Message:   err.Error(),
	}
}

// RefreshOutcome is the result of the most recent refresh attempt.
type RefreshOutcome struct {
	Kind     OutcomeKind      `json:"kind"`
	At       time.Time        `json:"at"`
	Attempts int              `json:"attempts"`
	Duration time.Duration    `json:"duration"`
	Err      error            `json:"-"`
	Failures []PartialFailure `json:"partial_failures,omitempty"`
}

// View is the complete aggregate published by one successful refresh.
type View struct {
	Cluster  ClusterSnapshot
	Topics   []TopicDescriptor
	Groups   []ConsumerGroupDescriptor
	Failures []PartialFailure
}

// Health is the engine health reported to readers.
type Health struct {
	Status          HealthStatus     `json:"status"`
	State           LifecycleState   `json:"state"`
	Refreshing      bool             `json:"refreshing"`
	HasSnapshot     bool             `json:"has_snapshot"`
	LastRefreshAt   *time.Time       `json:"last_refresh_at,omitempty"`
	LastSuccessAt   *time.Time       `json:"last_success_at,omitempty"`
	LastOutcome     OutcomeKind      `json:"last_outcome,omitempty"`
	LastError       string           `json:"last_error,omitempty"`
	PartialFailures []PartialFailure `json:"partial_failures,omitempty"`
}
