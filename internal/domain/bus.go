package domain

import (
	"context"
)

// EventBus defines the interface for event-driven communication.
// Supports Go channels (standalone) or NATS (distributed).
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, topic string, handler MessageHandler) (Subscription, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message represents an event message.
type Message struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel" or "nats"
	Type string `json:"type"`

	// Channel settings
	ChannelBufferSize int `json:"channelBufferSize"`

	// NATS settings
	NATSUrl           string `json:"natsUrl"`
	NATSToken         string `json:"natsToken"`
	NATSMaxReconnects int    `json:"natsMaxReconnects"`
	NATSReconnectWait int    `json:"natsReconnectWait"` // seconds
}

// Topic names for the async analysis pipeline.
const (
	TopicAnalysisRequested = "getaround.analysis.requested"
	TopicAnalysisCompleted = "getaround.analysis.completed"
	TopicAnalysisFailed    = "getaround.analysis.failed"
)

// AnalysisJob is the payload published on TopicAnalysisRequested.
type AnalysisJob struct {
	ID         string    `json:"id"`
	TraceID    string    `json:"traceId,omitempty"`
	Checkin    string    `json:"checkin"`
	Threshold  float64   `json:"threshold"`
	Thresholds []float64 `json:"thresholds,omitempty"`
	Segment    string    `json:"segment,omitempty"`
}

// Job status values.
const (
	JobPending   = "pending"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// JobResult is what GET /analysis/jobs/{id} returns.
type JobResult struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Report *Report `json:"report,omitempty"`
	Error  string  `json:"error,omitempty"`
}
