package telemetry

import (
	"context"
	"fmt"

	"github.com/BaSui01/shiritori/agent/protocol/a2a"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MessageCounterName is the OTel instrument counting A2A mailbox traffic.
const MessageCounterName = "shiritori.a2a.messages"

// MessageObserver counts messages passing through one agent's mailbox.
// It implements a2a.Observer.
type MessageObserver struct {
	counter metric.Int64Counter
	agent   attribute.KeyValue
}

var _ a2a.Observer = (*MessageObserver)(nil)

func newMessageCounter(meter metric.Meter) (metric.Int64Counter, error) {
	counter, err := meter.Int64Counter(MessageCounterName,
		metric.WithDescription("A2A messages sent or received by an agent"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create message counter: %w", err)
	}
	return counter, nil
}

func newObserver(counter metric.Int64Counter, agentName string) *MessageObserver {
	return &MessageObserver{
		counter: counter,
		agent:   attribute.String("agent", agentName),
	}
}

// NewMessageObserver creates an observer for agentName on meter.
func NewMessageObserver(meter metric.Meter, agentName string) (*MessageObserver, error) {
	counter, err := newMessageCounter(meter)
	if err != nil {
		return nil, err
	}
	return newObserver(counter, agentName), nil
}

// ObserveMessage implements a2a.Observer.
func (o *MessageObserver) ObserveMessage(direction string, msgType a2a.MessageType) {
	o.counter.Add(context.Background(), 1, metric.WithAttributes(
		o.agent,
		attribute.String("direction", direction),
		attribute.String("type", string(msgType)),
	))
}
