package events

import (
	"encoding/json"
	"sync"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
)

type recorder struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (r *recorder) Publish(key, value []byte, headers ...kafkago.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, kafkago.Message{Key: key, Value: value, Headers: headers})
}

func TestEmitWrapsEnvelope(t *testing.T) {
	rec := &recorder{}
	e := &Emitter{Pub: rec, Producer: "rental-api"}

	err := e.Emit(EventBookingCreated, "b1", BookingCreatedPayload{BookingID: "b1", TotalCents: 15000, Nights: 3})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(rec.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(rec.msgs))
	}
	m := rec.msgs[0]
	if string(m.Key) != "b1" {
		t.Errorf("key = %s", m.Key)
	}
	if len(m.Headers) != 2 || string(m.Headers[0].Value) != EventBookingCreated {
		t.Errorf("headers = %+v", m.Headers)
	}

	var env Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.EventType != EventBookingCreated || env.Producer != "rental-api" || env.EventID == "" {
		t.Errorf("envelope = %+v", env)
	}
	p, err := Decode[BookingCreatedPayload](env.Payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.TotalCents != 15000 || p.Nights != 3 {
		t.Errorf("payload = %+v", p)
	}
}

func TestNilEmitterDrops(t *testing.T) {
	var e *Emitter
	if err := e.Emit(EventBookingCancelled, "b1", nil); err != nil {
		t.Fatalf("nil emitter: %v", err)
	}
	if err := (&Emitter{}).Emit(EventBookingCancelled, "b1", nil); err != nil {
		t.Fatalf("emitter without publisher: %v", err)
	}
}
