// Package mocks provides function-field test doubles for the shared
// collaborator interfaces.
package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"

	shared "github.com/pedalhub/automator/pkg"
	"github.com/pedalhub/automator/pkg/types"
)

// --- Mock Database ---

type MockDatabase struct {
	GetUserFunc                     func(ctx context.Context, id string) (*types.User, error)
	GetUserByAthleteIDFunc          func(ctx context.Context, athleteID int64) (*types.User, error)
	UpdateUserFunc                  func(ctx context.Context, id string, data map[string]interface{}) error
	IncrementRecipeTriggerCountFunc func(ctx context.Context, userID, recipeID string) error
	IncrementUserActivityCountFunc  func(ctx context.Context, userID string) error
	GetProcessedActivityFunc        func(ctx context.Context, activityID string) (*types.ProcessedActivity, error)
	SetProcessedActivityFunc        func(ctx context.Context, record *types.ProcessedActivity) error
	MergeProcessedActivityFunc      func(ctx context.Context, activityID string, data map[string]interface{}) error
	SearchProcessedActivitiesFunc   func(ctx context.Context, q shared.ReceiptQuery) ([]*types.ProcessedActivity, error)
	DeleteProcessedActivityFunc     func(ctx context.Context, activityID string) error
	DeleteProcessedActivitiesFunc   func(ctx context.Context, f shared.ReceiptFilter) (int, error)
}

func (m *MockDatabase) GetUser(ctx context.Context, id string) (*types.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, fmt.Errorf("user not found")
}

func (m *MockDatabase) GetUserByAthleteID(ctx context.Context, athleteID int64) (*types.User, error) {
	if m.GetUserByAthleteIDFunc != nil {
		return m.GetUserByAthleteIDFunc(ctx, athleteID)
	}
	return nil, fmt.Errorf("user not found")
}

func (m *MockDatabase) UpdateUser(ctx context.Context, id string, data map[string]interface{}) error {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, id, data)
	}
	return nil
}

func (m *MockDatabase) IncrementRecipeTriggerCount(ctx context.Context, userID, recipeID string) error {
	if m.IncrementRecipeTriggerCountFunc != nil {
		return m.IncrementRecipeTriggerCountFunc(ctx, userID, recipeID)
	}
	return nil
}

func (m *MockDatabase) IncrementUserActivityCount(ctx context.Context, userID string) error {
	if m.IncrementUserActivityCountFunc != nil {
		return m.IncrementUserActivityCountFunc(ctx, userID)
	}
	return nil
}

func (m *MockDatabase) GetProcessedActivity(ctx context.Context, activityID string) (*types.ProcessedActivity, error) {
	if m.GetProcessedActivityFunc != nil {
		return m.GetProcessedActivityFunc(ctx, activityID)
	}
	return nil, nil
}

func (m *MockDatabase) SetProcessedActivity(ctx context.Context, record *types.ProcessedActivity) error {
	if m.SetProcessedActivityFunc != nil {
		return m.SetProcessedActivityFunc(ctx, record)
	}
	return nil
}

func (m *MockDatabase) MergeProcessedActivity(ctx context.Context, activityID string, data map[string]interface{}) error {
	if m.MergeProcessedActivityFunc != nil {
		return m.MergeProcessedActivityFunc(ctx, activityID, data)
	}
	return nil
}

func (m *MockDatabase) SearchProcessedActivities(ctx context.Context, q shared.ReceiptQuery) ([]*types.ProcessedActivity, error) {
	if m.SearchProcessedActivitiesFunc != nil {
		return m.SearchProcessedActivitiesFunc(ctx, q)
	}
	return nil, nil
}

func (m *MockDatabase) DeleteProcessedActivity(ctx context.Context, activityID string) error {
	if m.DeleteProcessedActivityFunc != nil {
		return m.DeleteProcessedActivityFunc(ctx, activityID)
	}
	return nil
}

func (m *MockDatabase) DeleteProcessedActivities(ctx context.Context, f shared.ReceiptFilter) (int, error) {
	if m.DeleteProcessedActivitiesFunc != nil {
		return m.DeleteProcessedActivitiesFunc(ctx, f)
	}
	return 0, nil
}

// --- Mock Activity Source ---

type MockActivitySource struct {
	GetActivityFunc    func(ctx context.Context, user *types.User, activityID int64) (*types.Activity, error)
	UpdateActivityFunc func(ctx context.Context, user *types.User, activity *types.Activity) error
	ListActivitiesFunc func(ctx context.Context, user *types.User, from, to time.Time) ([]*types.Activity, error)
}

func (m *MockActivitySource) GetActivity(ctx context.Context, user *types.User, activityID int64) (*types.Activity, error) {
	if m.GetActivityFunc != nil {
		return m.GetActivityFunc(ctx, user, activityID)
	}
	return nil, shared.ErrActivityNotFound
}

func (m *MockActivitySource) UpdateActivity(ctx context.Context, user *types.User, activity *types.Activity) error {
	if m.UpdateActivityFunc != nil {
		return m.UpdateActivityFunc(ctx, user, activity)
	}
	return nil
}

func (m *MockActivitySource) ListActivities(ctx context.Context, user *types.User, from, to time.Time) ([]*types.Activity, error) {
	if m.ListActivitiesFunc != nil {
		return m.ListActivitiesFunc(ctx, user, from, to)
	}
	return nil, nil
}

// --- Mock Weather ---

type MockWeather struct {
	ActivityWeatherFunc func(ctx context.Context, activity *types.Activity) (map[string]string, error)
}

func (m *MockWeather) ActivityWeather(ctx context.Context, activity *types.Activity) (map[string]string, error) {
	if m.ActivityWeatherFunc != nil {
		return m.ActivityWeatherFunc(ctx, activity)
	}
	return map[string]string{"summary": "Clear", "temperature": "18.0°C"}, nil
}

// --- Mock Publisher ---

type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "msg-id", nil
}
