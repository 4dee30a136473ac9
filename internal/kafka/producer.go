package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/ariefcatur/go-rental-ledger/internal/logger"
	"github.com/segmentio/kafka-go"
)

// Producer buffers messages in an inbox drained by one goroutine, so request
// handlers never block on the broker.
type Producer struct {
	w         *kafka.Writer
	log       *logger.Logger
	inbox     chan kafka.Message
	closeCh   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, topic string, buf int, log *logger.Logger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
		log:     log,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		defer func() { _ = p.w.Close() }()
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				return
			}
			p.write(m)
		default:
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil && p.log != nil {
		p.log.Error("kafka publish failed", "topic", p.w.Topic, "key", string(m.Key), "error", err)
	}
}

// Publish enqueues a message. After Close it logs and drops the message.
func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		if p.log != nil {
			p.log.Warn("kafka producer closed, dropping message", "topic", p.w.Topic, "key", string(key))
		}
		return
	}
	select {
	case p.inbox <- kafka.Message{Key: key, Value: value, Time: time.Now(), Headers: headers}:
	case <-p.closeCh:
		if p.log != nil {
			p.log.Warn("kafka writer stopped, dropping message", "topic", p.w.Topic, "key", string(key))
		}
	}
}

// Close stops intake; the goroutine flushes what is queued and exits.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

// WaitClosed blocks until the writer is closed.
func (p *Producer) WaitClosed() { <-p.closeCh }
