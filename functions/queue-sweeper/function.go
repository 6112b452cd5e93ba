package queuesweeper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/pedalhub/automator/pkg/bootstrap"
	"github.com/pedalhub/automator/pkg/framework"
	"github.com/pedalhub/automator/pkg/processor"
	"github.com/pedalhub/automator/pkg/types"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.CloudEvent("SweepQueue", SweepQueue)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		baseSvc, err := bootstrap.NewService(ctx)
		if err != nil {
			slog.Error("Failed to initialize service", "error", err)
			svcErr = err
			return
		}
		svc = baseSvc
	})
	return svc, svcErr
}

// SweepQueue is the entry point. It runs one pass over queued activities,
// triggered by Cloud Scheduler via Pub/Sub.
func SweepQueue(ctx context.Context, e event.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}
	return framework.WrapCloudEvent("queue-sweeper", svc, sweepHandler())(ctx, e)
}

// sweepHandler contains the business logic
func sweepHandler() framework.HandlerFunc {
	return func(ctx context.Context, e event.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
		batchSize := fwCtx.Service.Config.QueueBatchSize

		// Scheduler messages are usually empty; an explicit SweepRequest
		// may override the batch size for a manual run.
		var msg types.PubSubMessage
		if err := e.DataAs(&msg); err == nil && len(msg.Message.Data) > 0 {
			var req types.SweepRequest
			if err := json.Unmarshal(msg.Message.Data, &req); err != nil {
				return nil, fmt.Errorf("json unmarshal: %v", err)
			}
			if req.BatchSize > 0 {
				batchSize = req.BatchSize
			}
		}

		proc := processor.New(fwCtx.Service.DB, fwCtx.Service.Source, fwCtx.Service.Weather, fwCtx.Service.Pub, fwCtx.Service.Config, fwCtx.Logger)

		result, err := proc.ProcessQueuedActivities(ctx, batchSize)
		if err != nil {
			return nil, fmt.Errorf("queue sweep: %w", err)
		}

		fwCtx.Logger.Info("Sweep finished",
			"selected", result.Selected,
			"processed", result.Processed,
			"retried", result.Retried,
			"dropped", result.Dropped)
		return result, nil
	}
}
