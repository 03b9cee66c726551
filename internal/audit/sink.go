package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/grocerly/go-checkout/internal/kafka"
)

// Sink is fire-and-forget: implementations must never fail the caller. A
// lost audit event is logged, not propagated.
type Sink interface {
	Log(ev Event)
}

const Topic = "audit.events"

// KafkaSink publishes events through the async producer. The partition key
// groups events of one entity so they stay ordered.
type KafkaSink struct {
	Producer *kafkax.Producer
	Service  string
}

func (s *KafkaSink) Log(ev Event) {
	ev.EventID = uuid.NewString()
	ev.OccurredAt = time.Now().UTC()
	ev.Producer = s.Service

	key := fmt.Sprintf("%s:%d", ev.EntityType, ev.EntityID)
	s.Producer.Publish([]byte(key), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(ev.Action)},
	)
}

type NopSink struct{}

func (NopSink) Log(Event) {}
