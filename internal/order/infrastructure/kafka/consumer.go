package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Storefront-Order-Service/internal/order/application"
	"github.com/dmehra2102/Storefront-Order-Service/internal/order/domain"
	"github.com/dmehra2102/Storefront-Order-Service/pkg/idempotency"
	"github.com/dmehra2102/Storefront-Order-Service/pkg/tracing"
)

// SettlementConsumer applies out-of-band settlement results to orders.
// Settlement happens elsewhere entirely; this only transitions payment
// status based on what the settlement channel reports.
type SettlementConsumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	svc    *application.Service
	idem   *idempotency.Store
	tracer trace.Tracer
}

func NewSettlementConsumer(log *slog.Logger, brokers []string, topic, group string, svc *application.Service, idem *idempotency.Store) *SettlementConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &SettlementConsumer{
		log:    log,
		reader: r,
		svc:    svc,
		idem:   idem,
		tracer: otel.Tracer("settlement-consumer"),
	}
}

func (c *SettlementConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate message skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "ConsumePaymentSettled")

		err = c.handle(msgCtx, msg.Value)
		span.End()
		if err != nil {
			// Transient failure: unmark the message and leave it
			// uncommitted so the group redelivers it.
			if ferr := c.idem.Forget(ctx, key); ferr != nil {
				c.log.Error("idempotency unmark failed", "key", key, "err", ferr)
			}
			continue
		}

		_ = c.reader.CommitMessages(ctx, msg)
	}
}

// handle applies one settlement. Malformed or lifecycle-rejected messages
// are logged and dropped; only infrastructure failures return an error,
// which signals the caller to retry the message.
func (c *SettlementConsumer) handle(ctx context.Context, value []byte) error {
	var event domain.PaymentSettled
	if err := json.Unmarshal(value, &event); err != nil {
		c.log.Error("unmarshal settlement event failed", "err", err)
		return nil
	}

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		c.log.Error("settlement event has invalid order id", "order_id", event.OrderID)
		return nil
	}
	status, ok := domain.ToPaymentStatus(event.Status)
	if !ok {
		c.log.Error("settlement event has unknown status", "order_id", event.OrderID, "status", event.Status)
		return nil
	}

	var reason *string
	if event.Reason != "" {
		reason = &event.Reason
	}

	if _, err := c.svc.UpdatePaymentStatus(ctx, orderID, status, reason); err != nil {
		if errors.Is(err, application.ErrOrderNotFound) || errors.Is(err, application.ErrIllegalTransition) {
			c.log.Error("settlement dropped", "order_id", event.OrderID, "status", event.Status, "err", err)
			return nil
		}
		c.log.Error("payment status update failed, will retry", "order_id", event.OrderID, "status", event.Status, "err", err)
		return err
	}
	c.log.Info("payment status applied", "order_id", event.OrderID, "status", event.Status)
	return nil
}
