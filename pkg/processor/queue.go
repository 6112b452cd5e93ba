package processor

import (
	"context"
	"strconv"
	"time"

	shared "github.com/pedalhub/automator/pkg"
	"github.com/pedalhub/automator/pkg/infrastructure/sentry"
	"github.com/pedalhub/automator/pkg/types"
)

// The queue gives at-least-once delivery, not exactly-once: the claim
// phase (processing=true) is a best-effort boolean, and two sweeps racing
// between read and claim can both process an entry. Recipe actions are
// idempotent enough that a duplicate run re-applies the same mutations.

// QueueActivity upserts a queue entry keyed by activity ID. Re-queueing
// an already queued activity preserves the original dateQueued
// (first-queued-wins) and is a warning, not an error. Suspended users are
// never queued.
func (p *Processor) QueueActivity(ctx context.Context, user *types.User, activityID int64, batch bool, procErr string) error {
	if user.Suspended {
		p.logger.Info("User suspended, not queueing activity", "user_id", user.ID, "activity_id", activityID)
		return nil
	}

	id := strconv.FormatInt(activityID, 10)
	existing, err := p.db.GetProcessedActivity(ctx, id)
	if err != nil {
		return err
	}

	if existing != nil && existing.Queued() {
		p.logger.Warn("Activity already queued", "user_id", user.ID, "activity_id", activityID, "date_queued", existing.DateQueued)
		updates := map[string]interface{}{}
		if procErr != "" {
			updates["queue_error"] = procErr
		}
		if batch && !existing.Batch {
			updates["batch"] = true
		}
		if len(updates) == 0 {
			return nil
		}
		return p.db.MergeProcessedActivity(ctx, id, updates)
	}

	entry := &types.ProcessedActivity{
		ID:         id,
		UserID:     user.ID,
		DateQueued: time.Now(),
		Batch:      batch,
		QueueError: procErr,
	}
	p.logger.Info("Queued activity", "user_id", user.ID, "activity_id", activityID, "batch", batch)
	return p.db.SetProcessedActivity(ctx, entry)
}

// GetQueuedActivities returns up to limit entries queued at or before the
// cutoff, oldest first. When the realtime lane is empty it falls back to
// batch-flagged entries regardless of age so backfills always progress.
func (p *Processor) GetQueuedActivities(ctx context.Context, before time.Time, limit int) ([]*types.ProcessedActivity, error) {
	entries, err := p.db.SearchProcessedActivities(ctx, shared.ReceiptQuery{
		QueuedBefore: before,
		Limit:        limit,
	})
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return entries, nil
	}

	return p.db.SearchProcessedActivities(ctx, shared.ReceiptQuery{
		Batch: true,
		Limit: limit,
	})
}

// SweepResult summarises one ProcessQueuedActivities run.
type SweepResult struct {
	Selected  int
	Processed int
	Retried   int
	Dropped   int
}

// DeleteQueuedActivity removes a queue entry that produced no receipt.
func (p *Processor) DeleteQueuedActivity(ctx context.Context, activityID string) error {
	return p.db.DeleteProcessedActivity(ctx, activityID)
}

// ProcessQueuedActivities is the scheduled sweep. It selects a candidate
// batch (honouring the grace delay for fresh realtime entries), claims
// each entry, processes it, and resolves the entry: delete on success,
// bounded retry on failure, terminal drop once the retry limit is hit.
// One entry's failure never aborts the rest of the batch.
func (p *Processor) ProcessQueuedActivities(ctx context.Context, batchSize int) (*SweepResult, error) {
	if batchSize <= 0 {
		batchSize = p.cfg.QueueBatchSize
	}

	cutoff := time.Now().Add(-p.cfg.QueueDelay)
	entries, err := p.GetQueuedActivities(ctx, cutoff, batchSize)
	if err != nil {
		return nil, err
	}

	// Entries already claimed by another worker are skipped, unless the
	// claim looks stuck (older than half the max age), in which case the
	// worker likely died and we reclaim.
	staleBefore := time.Now().Add(-p.cfg.QueueMaxAge / 2)
	claimed := make([]*types.ProcessedActivity, 0, len(entries))
	for _, e := range entries {
		if e.Processing && e.DateQueued.After(staleBefore) {
			continue
		}
		if err := p.db.MergeProcessedActivity(ctx, e.ID, map[string]interface{}{"processing": true}); err != nil {
			p.logger.Warn("Failed to claim queue entry", "activity_id", e.ID, "error", err)
			continue
		}
		claimed = append(claimed, e)
	}

	result := &SweepResult{Selected: len(claimed)}
	if len(claimed) == 0 {
		return result, nil
	}
	p.logger.Info("Queue sweep starting", "selected", len(claimed), "batch_size", batchSize)

	// One sweep often carries many activities for the same user; cache
	// user lookups for its duration.
	users := map[string]*types.User{}

	for _, entry := range claimed {
		if err := p.processQueuedEntry(ctx, entry, users); err != nil {
			p.resolveFailedEntry(ctx, entry, err, result)
			continue
		}
		result.Processed++
	}

	p.logger.Info("Queue sweep finished",
		"selected", result.Selected,
		"processed", result.Processed,
		"retried", result.Retried,
		"dropped", result.Dropped,
	)
	return result, nil
}

func (p *Processor) processQueuedEntry(ctx context.Context, entry *types.ProcessedActivity, users map[string]*types.User) error {
	user, ok := users[entry.UserID]
	if !ok {
		var err error
		user, err = p.db.GetUser(ctx, entry.UserID)
		if err != nil {
			return err
		}
		users[entry.UserID] = user
	}

	activityID, err := strconv.ParseInt(entry.ID, 10, 64)
	if err != nil {
		return err
	}

	receipt, err := p.ProcessActivity(ctx, user, activityID, ProcessOptions{FromQueue: true, Batch: entry.Batch})
	if err != nil {
		return err
	}

	// A nil receipt means handled-without-record (no matches, suspended,
	// deleted upstream); the queue entry is done either way. When a
	// receipt was written it has already replaced the queue document.
	if receipt == nil {
		return p.DeleteQueuedActivity(ctx, entry.ID)
	}
	return nil
}

func (p *Processor) resolveFailedEntry(ctx context.Context, entry *types.ProcessedActivity, procErr error, result *SweepResult) {
	// Batch entries are retried indefinitely; a backfill should survive
	// provider outages rather than silently losing activities.
	if !entry.Batch && entry.RetryCount >= p.cfg.QueueRetryLimit {
		p.logger.Warn("Queue entry exhausted retries, dropping",
			"activity_id", entry.ID,
			"user_id", entry.UserID,
			"retry_count", entry.RetryCount,
			"error", procErr,
		)
		sentry.CaptureException(procErr, map[string]string{"activity_id": entry.ID, "user_id": entry.UserID}, p.logger)
		if err := p.DeleteQueuedActivity(ctx, entry.ID); err != nil {
			p.logger.Error("Failed to drop exhausted queue entry", "activity_id", entry.ID, "error", err)
		}
		result.Dropped++
		return
	}

	if err := p.db.MergeProcessedActivity(ctx, entry.ID, map[string]interface{}{
		"retry_count": entry.RetryCount + 1,
		"processing":  false,
		"queue_error": procErr.Error(),
	}); err != nil {
		p.logger.Error("Failed to record queue retry", "activity_id", entry.ID, "error", err)
		return
	}
	p.logger.Info("Queue entry scheduled for retry", "activity_id", entry.ID, "retry_count", entry.RetryCount+1, "error", procErr)
	result.Retried++
}
