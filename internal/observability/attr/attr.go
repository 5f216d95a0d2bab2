// Package attr provides slog attribute helpers with consistent key names.
package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
)

type ctxKey string

const correlationIDKey ctxKey = "correlation_id"

// WithCorrelationID stores a correlation id on the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID returns the correlation id carried by ctx, if any.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ExtractCorrelationID returns the correlation id of ctx as a log attribute.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	return slog.String("correlation_id", CorrelationID(ctx))
}

// CorrelationIDFromMetadata reads the watermill correlation id header.
func CorrelationIDFromMetadata(metadata map[string]string) string {
	return metadata[middleware.CorrelationIDMetadataKey]
}

func String(key, value string) slog.Attr             { return slog.String(key, value) }
func Int(key string, value int) slog.Attr            { return slog.Int(key, value) }
func Int64(key string, value int64) slog.Attr        { return slog.Int64(key, value) }
func Bool(key string, value bool) slog.Attr          { return slog.Bool(key, value) }
func Any(key string, value any) slog.Attr            { return slog.Any(key, value) }
func Time(key string, value time.Time) slog.Attr     { return slog.Time(key, value) }
func Duration(key string, d time.Duration) slog.Attr { return slog.Duration(key, d) }

// UserUUID formats a user id attribute.
func UserUUID(value uuid.UUID) slog.Attr {
	return slog.String("user_uuid", value.String())
}

// Error formats an error attribute; nil errors produce an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
