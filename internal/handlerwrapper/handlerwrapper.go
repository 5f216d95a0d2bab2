// Package handlerwrapper adapts typed event handlers to watermill.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/dingleup/internal/eventbus"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Result is an outgoing event produced by a handler.
type Result struct {
	Topic   string
	Payload any
}

type ctxKey string

// CtxKeyTopic holds the topic the current message arrived on.
const CtxKeyTopic ctxKey = "topic"

// WrapTyped decodes the message payload into T, runs handler inside a span
// and publishes the returned results with the inbound correlation id.
// Payloads that fail to decode are logged and acknowledged.
func WrapTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	publisher message.Publisher,
	metrics observability.OperationMetrics,
	handler func(context.Context, *T) ([]Result, error),
) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := msg.Context()
		correlationID := attr.CorrelationIDFromMetadata(msg.Metadata)
		if correlationID != "" {
			ctx = attr.WithCorrelationID(ctx, correlationID)
		}
		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("message.uuid", msg.UUID),
			attribute.String("correlation_id", correlationID),
		))
		defer span.End()

		if metrics != nil {
			metrics.RecordOperationAttempt(ctx, handlerName, "handler")
			start := time.Now()
			defer func() {
				metrics.RecordOperationDuration(ctx, handlerName, "handler", time.Since(start))
			}()
		}

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Failed to unmarshal payload",
				attr.ExtractCorrelationID(ctx),
				attr.String("handler", handlerName),
				attr.String("message_id", msg.UUID),
				attr.Error(err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "unmarshal failed")
			if metrics != nil {
				metrics.RecordOperationFailure(ctx, handlerName, "handler")
			}
			return nil
		}

		results, err := handler(ctx, payload)
		if err != nil {
			logger.ErrorContext(ctx, "Handler failed",
				attr.ExtractCorrelationID(ctx),
				attr.String("handler", handlerName),
				attr.Error(err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if metrics != nil {
				metrics.RecordOperationFailure(ctx, handlerName, "handler")
			}
			return fmt.Errorf("%s: %w", handlerName, err)
		}

		for _, result := range results {
			if err := eventbus.PublishJSON(ctx, publisher, result.Topic, result.Payload); err != nil {
				span.RecordError(err)
				if metrics != nil {
					metrics.RecordOperationFailure(ctx, handlerName, "handler")
				}
				return err
			}
		}

		if metrics != nil {
			metrics.RecordOperationSuccess(ctx, handlerName, "handler")
		}
		return nil
	}
}
