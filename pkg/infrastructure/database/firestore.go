// Package database adapts the typed Firestore storage client to the
// shared.Database interface consumed by the engine and pipeline.
package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/pedalhub/automator/pkg"
	storage "github.com/pedalhub/automator/pkg/storage/firestore"
	"github.com/pedalhub/automator/pkg/types"
)

// FirestoreAdapter provides database operations using Firestore.
// It wraps our typed storage client.
type FirestoreAdapter struct {
	storage *storage.Client
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{
		storage: storage.NewClient(client),
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (a *FirestoreAdapter) GetUser(ctx context.Context, id string) (*types.User, error) {
	return a.storage.Users().Doc(id).Get(ctx)
}

func (a *FirestoreAdapter) GetUserByAthleteID(ctx context.Context, athleteID int64) (*types.User, error) {
	users, _, err := a.storage.Users().Query().
		Where("strava.athlete_id", "==", athleteID).
		Limit(1).
		GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("no user linked to athlete %d", athleteID)
	}
	return users[0], nil
}

func (a *FirestoreAdapter) UpdateUser(ctx context.Context, id string, data map[string]interface{}) error {
	return a.storage.Users().Doc(id).Update(ctx, data)
}

// IncrementRecipeTriggerCount bumps the persisted counter atomically so
// concurrent workers never lose an increment.
func (a *FirestoreAdapter) IncrementRecipeTriggerCount(ctx context.Context, userID, recipeID string) error {
	return a.storage.Users().Doc(userID).Update(ctx, map[string]interface{}{
		"recipes": map[string]interface{}{
			recipeID: map[string]interface{}{
				"trigger_count": firestore.Increment(1),
			},
		},
	})
}

func (a *FirestoreAdapter) IncrementUserActivityCount(ctx context.Context, userID string) error {
	return a.storage.Users().Doc(userID).Update(ctx, map[string]interface{}{
		"activity_count": firestore.Increment(1),
	})
}

// GetProcessedActivity returns (nil, nil) when no document exists, which
// the queue relies on for its idempotency check.
func (a *FirestoreAdapter) GetProcessedActivity(ctx context.Context, activityID string) (*types.ProcessedActivity, error) {
	rec, err := a.storage.ProcessedActivities().Doc(activityID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// SetProcessedActivity overwrites the document wholesale. Writing a
// finished receipt this way is what strips the queue-control fields.
func (a *FirestoreAdapter) SetProcessedActivity(ctx context.Context, record *types.ProcessedActivity) error {
	return a.storage.ProcessedActivities().Doc(record.ID).Replace(ctx, record)
}

func (a *FirestoreAdapter) MergeProcessedActivity(ctx context.Context, activityID string, data map[string]interface{}) error {
	return a.storage.ProcessedActivities().Doc(activityID).Update(ctx, data)
}

// SearchProcessedActivities selects queued entries. Receipts carry no
// date_queued field, so the QueuedBefore filter excludes them server-side.
func (a *FirestoreAdapter) SearchProcessedActivities(ctx context.Context, q shared.ReceiptQuery) ([]*types.ProcessedActivity, error) {
	query := a.storage.ProcessedActivities().Query()
	if q.Batch {
		query = query.Where("batch", "==", true)
	} else {
		query = query.
			Where("date_queued", "<=", q.QueuedBefore).
			OrderBy("date_queued", firestore.Asc)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	records, _, err := query.GetAll(ctx)
	return records, err
}

func (a *FirestoreAdapter) DeleteProcessedActivity(ctx context.Context, activityID string) error {
	return a.storage.ProcessedActivities().Doc(activityID).Delete(ctx)
}

// DeleteProcessedActivities bulk-deletes receipts by user and/or age.
// At least one filter must be supplied.
func (a *FirestoreAdapter) DeleteProcessedActivities(ctx context.Context, f shared.ReceiptFilter) (int, error) {
	if f.UserID == "" && f.ProcessedBefore.IsZero() {
		return 0, fmt.Errorf("receipt deletion requires a user or an age filter")
	}

	query := a.storage.ProcessedActivities().Query()
	if f.UserID != "" {
		query = query.Where("user_id", "==", f.UserID)
	}
	if !f.ProcessedBefore.IsZero() {
		query = query.Where("date_processed", "<", f.ProcessedBefore)
	}
	return query.DeleteAll(ctx)
}
