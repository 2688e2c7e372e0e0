package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// MetadataTraceID carries the publisher's trace ID so the consumer can link its logs.
const MetadataTraceID = "trace_id"

// New creates a new event bus based on configuration.
// "channel" keeps jobs in process; "nats" lets separate worker processes pick them up.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSBus(cfg)

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}

// newMessage builds the envelope shared by both implementations.
func newMessage(ctx context.Context, topic string, payload []byte) *domain.Message {
	msg := &domain.Message{
		ID:        uuid.New().String(),
		Topic:     topic,
		Payload:   payload,
		Metadata:  make(map[string]string),
		Timestamp: time.Now().UnixNano(),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		msg.Metadata[MetadataTraceID] = sc.TraceID().String()
	}
	return msg
}
