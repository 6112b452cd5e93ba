package shared

import (
	"context"
	"errors"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/pedalhub/automator/pkg/types"
)

// ErrActivityNotFound is returned by an ActivitySource when the activity
// no longer exists upstream. The pipeline treats it as a terminal no-op.
var ErrActivityNotFound = errors.New("activity not found")

// --- Persistence Interfaces ---

// ReceiptQuery selects queued documents. Finished receipts carry no
// DateQueued, so a QueuedBefore filter naturally excludes them.
type ReceiptQuery struct {
	QueuedBefore time.Time
	Batch        bool // select batch-flagged entries regardless of age
	Limit        int
}

// ReceiptFilter scopes a bulk receipt deletion. At least one of the
// fields must be set.
type ReceiptFilter struct {
	UserID          string
	ProcessedBefore time.Time
}

type Database interface {
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetUserByAthleteID(ctx context.Context, athleteID int64) (*types.User, error)
	UpdateUser(ctx context.Context, id string, data map[string]interface{}) error
	IncrementRecipeTriggerCount(ctx context.Context, userID, recipeID string) error
	IncrementUserActivityCount(ctx context.Context, userID string) error

	// Processed activities double as queue entries; see types.ProcessedActivity.
	// GetProcessedActivity returns (nil, nil) when no document exists.
	GetProcessedActivity(ctx context.Context, activityID string) (*types.ProcessedActivity, error)
	SetProcessedActivity(ctx context.Context, record *types.ProcessedActivity) error
	MergeProcessedActivity(ctx context.Context, activityID string, data map[string]interface{}) error
	SearchProcessedActivities(ctx context.Context, q ReceiptQuery) ([]*types.ProcessedActivity, error)
	DeleteProcessedActivity(ctx context.Context, activityID string) error
	DeleteProcessedActivities(ctx context.Context, f ReceiptFilter) (int, error)
}

// --- Activity source (Strava) ---

type ActivitySource interface {
	GetActivity(ctx context.Context, user *types.User, activityID int64) (*types.Activity, error)
	UpdateActivity(ctx context.Context, user *types.User, activity *types.Activity) error
	ListActivities(ctx context.Context, user *types.User, from, to time.Time) ([]*types.Activity, error)
}

// --- Weather ---

// WeatherService resolves conditions at the activity's start location and
// time into the flat field set consumed by ${weather.*} templates.
type WeatherService interface {
	ActivityWeather(ctx context.Context, activity *types.Activity) (map[string]string, error)
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}
