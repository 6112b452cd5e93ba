// Package framework wraps function entry points with per-invocation
// logging, an execution ID and error capture.
package framework

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/google/uuid"

	"github.com/pedalhub/automator/pkg/bootstrap"
	"github.com/pedalhub/automator/pkg/infrastructure/sentry"
	"github.com/pedalhub/automator/pkg/types"
)

// FrameworkContext contains dependencies injected by the framework.
type FrameworkContext struct {
	Service     *bootstrap.Service
	Logger      *slog.Logger
	ExecutionID string
}

// HandlerFunc is the signature for a cloud function handler.
type HandlerFunc func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error)

// WrapCloudEvent wraps a handler with invocation logging and Sentry
// capture for handler errors.
func WrapCloudEvent(serviceName string, svc *bootstrap.Service, handler HandlerFunc) func(context.Context, event.Event) error {
	return func(ctx context.Context, e event.Event) error {
		execID := uuid.NewString()
		logger := bootstrap.NewLogger(serviceName, svc.Config).With("execution_id", execID)
		if userID := extractUserID(e); userID != "" {
			logger = logger.With("user_id", userID)
		}

		logger.Info("Function started", "event_type", e.Type())
		started := time.Now()

		fwCtx := &FrameworkContext{
			Service:     svc,
			Logger:      logger,
			ExecutionID: execID,
		}

		outputs, err := handler(ctx, e, fwCtx)
		if err != nil {
			logger.Error("Function failed", "error", err, "duration_ms", time.Since(started).Milliseconds())
			sentry.CaptureException(err, map[string]string{"service": serviceName, "execution_id": execID}, logger)
			sentry.Flush(2 * time.Second)
			return err
		}

		logger.Info("Function completed successfully", "duration_ms", time.Since(started).Milliseconds(), "outputs", outputs)
		return nil
	}
}

// extractUserID pulls a user ID out of a Pub/Sub-style event payload when
// one is present, so every log line of the invocation carries it.
func extractUserID(e event.Event) string {
	var msg types.PubSubMessage
	if err := e.DataAs(&msg); err != nil {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Message.Data, &payload); err != nil {
		return ""
	}
	if uid, ok := payload["user_id"].(string); ok {
		return uid
	}
	if uid, ok := payload["userId"].(string); ok {
		return uid
	}
	return ""
}
