package kafkax

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Header names carried on every domain event message.
const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
)

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// NewWriter returns a writer that routes each message to the topic set on
// the message itself, keyed by aggregate so per-appointment order holds.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}
