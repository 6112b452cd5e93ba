package framework

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/pedalhub/automator/pkg/bootstrap"
	"github.com/pedalhub/automator/pkg/types"
)

func pubsubEvent(t *testing.T, payload interface{}) event.Event {
	t.Helper()

	var psMsg types.PubSubMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		psMsg.Message.Data = data
	}

	e := event.New()
	e.SetID("evt-1")
	e.SetType("google.cloud.pubsub.topic.v1.messagePublished")
	e.SetSource("//pubsub")
	e.SetData(event.ApplicationJSON, psMsg)
	return e
}

func TestWrapCloudEvent(t *testing.T) {
	svc := &bootstrap.Service{
		Config: &bootstrap.Config{ProjectID: "test-project"},
	}

	handler := func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error) {
		if fwCtx.Service != svc {
			t.Error("Service not injected correctly")
		}
		if fwCtx.ExecutionID == "" {
			t.Error("ExecutionID not generated")
		}
		if fwCtx.Logger == nil {
			t.Error("Logger not injected")
		}
		return "ok", nil
	}

	wrapped := WrapCloudEvent("test-service", svc, handler)
	e := pubsubEvent(t, map[string]string{"user_id": "user1"})

	if err := wrapped(context.Background(), e); err != nil {
		t.Fatalf("Wrapped handler failed: %v", err)
	}
}

func TestWrapCloudEventPropagatesError(t *testing.T) {
	svc := &bootstrap.Service{
		Config: &bootstrap.Config{ProjectID: "test-project"},
	}
	wantErr := errors.New("handler exploded")

	handler := func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error) {
		return nil, wantErr
	}

	wrapped := WrapCloudEvent("test-service", svc, handler)
	err := wrapped(context.Background(), pubsubEvent(t, nil))
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected handler error to propagate, got %v", err)
	}
}

func TestExtractUserID(t *testing.T) {
	tests := []struct {
		name    string
		payload interface{}
		want    string
	}{
		{"snake_case key", map[string]string{"user_id": "user1"}, "user1"},
		{"camelCase key", map[string]string{"userId": "user2"}, "user2"},
		{"no user key", map[string]string{"other": "x"}, ""},
		{"empty payload", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractUserID(pubsubEvent(t, tt.payload))
			if got != tt.want {
				t.Errorf("extractUserID = %q, want %q", got, tt.want)
			}
		})
	}
}
