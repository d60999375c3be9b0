package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/clinicops/clinic-portal/libs/db"
	"github.com/clinicops/clinic-portal/libs/kafkax"
	otelx "github.com/clinicops/clinic-portal/libs/otel"
	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Publisher struct {
	db        db.TxBeginner
	repo      *Repository
	writer    MessageWriter
	logger    *slog.Logger
	pollEvery time.Duration
	batchSize int
}

type PublisherConfig struct {
	PollEvery time.Duration
	BatchSize int
}

func NewPublisher(conn db.TxBeginner, repo *Repository, writer MessageWriter, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		db:        conn,
		repo:      repo,
		writer:    writer,
		logger:    logger,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	if p.writer == nil {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.PublishBatch(ctx); err != nil {
				p.logger.Error("outbox publish failed", "err", err)
			}
		}
	}
}

// PublishBatch sends one batch of pending events and marks them published.
// It returns the number of events sent.
func (p *Publisher) PublishBatch(ctx context.Context) (int, error) {
	var sent int
	err := db.WithTx(ctx, p.db, func(tx pgx.Tx) error {
		records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		msgs := make([]kafka.Message, 0, len(records))
		ids := make([]int64, 0, len(records))
		for _, r := range records {
			msgCtx := otelx.TraceContext{Traceparent: r.Traceparent, Tracestate: r.Tracestate}.Attach(ctx)
			msg := kafka.Message{
				Topic: r.EventType,
				Key:   []byte(r.AggregateID),
				Value: r.Payload,
				Headers: []kafka.Header{
					{Key: kafkax.HeaderEventID, Value: []byte(r.EventID)},
					{Key: kafkax.HeaderEventType, Value: []byte(r.EventType)},
				},
			}
			msg.Headers = kafkax.InjectTraceHeaders(msgCtx, msg.Headers)
			msgs = append(msgs, msg)
			ids = append(ids, r.ID)
		}
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			return err
		}
		if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
			return err
		}
		sent = len(msgs)
		return nil
	})
	return sent, err
}
