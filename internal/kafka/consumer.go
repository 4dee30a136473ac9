package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/ariefcatur/go-rental-ledger/internal/logger"
	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message was processed and its offset may
// be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       reader
	workers int
	log     *logger.Logger

	// retry backoff for a failing message, doubled per attempt up to maxBackoff
	backoff    time.Duration
	maxBackoff time.Duration
}

func NewConsumer(brokers []string, group, topic string, workers int, log *logger.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, workers, log)
}

func newConsumer(r reader, workers int, log *logger.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, log: log, backoff: 200 * time.Millisecond, maxBackoff: 10 * time.Second}
}

// Start fetches messages until ctx is cancelled. Each partition is owned by
// one worker, which retries a failing message in place and only then moves
// on, so a commit never skips an unprocessed offset.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	queues := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan kafka.Message, 256)
		wg.Add(1)
		go func(id int, jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				if !c.process(ctx, id, h, m) {
					return
				}
				if err := c.r.CommitMessages(ctx, m); err != nil {
					c.log.Warn("commit failed", "worker", id, "partition", m.Partition, "offset", m.Offset, "error", err)
				}
			}
		}(i, queues[i])
	}
	defer wg.Wait()
	defer func() {
		for _, q := range queues {
			close(q)
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case queues[m.Partition%c.workers] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

// process runs h until it succeeds. It reports false when ctx ended first.
func (c *Consumer) process(ctx context.Context, id int, h Handler, m kafka.Message) bool {
	wait := c.backoff
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			return true
		}
		c.log.Error("handler failed", "worker", id, "topic", m.Topic, "partition", m.Partition,
			"offset", m.Offset, "attempt", attempt, "error", err)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
		if wait *= 2; wait > c.maxBackoff {
			wait = c.maxBackoff
		}
	}
}
