package consumer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	ImportTopic   = "order-import"
	ImportGroupID = "web-order-service"

	readRetryDelay = time.Second
)

type Ingester interface {
	BulkIngest(ctx context.Context, r io.Reader) ([]*domain.Order, error)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// ImportConsumer feeds every message of the import topic to BulkIngest. A
// message that fails to ingest is logged and skipped.
type ImportConsumer struct {
	ingester Ingester
	reader   messageReader
	logger   *slog.Logger
}

func NewImportConsumer(ingester Ingester, logger *slog.Logger, brokers ...string) *ImportConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    ImportTopic,
		GroupID:  ImportGroupID,
		MaxBytes: 10e6, // 10MB
	})
	return &ImportConsumer{ingester: ingester, reader: reader, logger: logger}
}

func (c *ImportConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *ImportConsumer) Close() error {
	return c.reader.Close()
}

func (c *ImportConsumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		c.logger.ErrorContext(ctx, "read import message failed", slog.Any("error", err))
		select {
		case <-time.After(readRetryDelay):
		case <-ctx.Done():
		}
		return
	}

	log := c.logger.With(
		slog.Int("partition", m.Partition),
		slog.Int64("offset", m.Offset))

	orders, err := c.ingester.BulkIngest(ctx, bytes.NewReader(m.Value))
	if err != nil {
		log.ErrorContext(ctx, "import message rejected", slog.Any("error", err))
		return
	}
	log.InfoContext(ctx, "import message ingested", slog.Int("orders", len(orders)))
}
