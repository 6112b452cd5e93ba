// Package processor runs completed activities through the recipe engine
// and persists the outcome. Entry points feed it from the realtime
// webhook and from batch backfills via the durable queue in queue.go.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	shared "github.com/pedalhub/automator/pkg"
	"github.com/pedalhub/automator/pkg/bootstrap"
	"github.com/pedalhub/automator/pkg/domain/tier"
	infrapubsub "github.com/pedalhub/automator/pkg/infrastructure/pubsub"
	"github.com/pedalhub/automator/pkg/recipes"
	"github.com/pedalhub/automator/pkg/types"
)

// Processor drives the activity processing pipeline:
// Queued -> Processing -> {Processed | Failed-Retryable | Failed-Terminal}.
type Processor struct {
	db     shared.Database
	source shared.ActivitySource
	engine *recipes.Engine
	pub    shared.Publisher
	cfg    *bootstrap.Config
	logger *slog.Logger
}

func New(db shared.Database, source shared.ActivitySource, weather shared.WeatherService, pub shared.Publisher, cfg *bootstrap.Config, logger *slog.Logger) *Processor {
	return &Processor{
		db:     db,
		source: source,
		engine: recipes.NewEngine(db, weather, pub, logger),
		pub:    pub,
		cfg:    cfg,
		logger: logger.With("component", "processor"),
	}
}

// ProcessOptions distinguish how the activity reached the pipeline.
type ProcessOptions struct {
	// FromQueue suppresses re-queueing on fetch failure; the sweep owns
	// the retry bookkeeping for queued entries.
	FromQueue bool
	Batch     bool
}

// ProcessActivity fetches the activity's full detail, evaluates every
// recipe in priority order and persists the receipt. A nil receipt with a
// nil error means the activity was handled without anything to record:
// suspended user, no recipes, activity deleted upstream, or no matches.
func (p *Processor) ProcessActivity(ctx context.Context, user *types.User, activityID int64, opts ProcessOptions) (*types.ProcessedActivity, error) {
	logger := p.logger.With("user_id", user.ID, "activity_id", activityID)

	if user.Suspended {
		logger.Info("User suspended, skipping activity")
		return nil, nil
	}
	if !user.HasRecipes() {
		logger.Debug("User has no recipes, skipping activity")
		return nil, nil
	}

	act, err := p.source.GetActivity(ctx, user, activityID)
	if errors.Is(err, shared.ErrActivityNotFound) {
		logger.Info("Activity no longer exists upstream, skipping")
		return nil, nil
	}
	if err != nil {
		if !opts.FromQueue {
			if qErr := p.QueueActivity(ctx, user, activityID, opts.Batch, err.Error()); qErr != nil {
				logger.Error("Failed to queue activity after fetch error", "error", qErr)
			}
		}
		return nil, fmt.Errorf("fetch activity %d: %w", activityID, err)
	}

	sorted := recipes.Sort(user.Recipes)
	if limit := tier.RecipeLimit(user); len(sorted) > limit {
		logger.Info("Recipe count over tier limit, evaluating first recipes only", "limit", limit, "total", len(sorted))
		sorted = sorted[:limit]
	}

	var matched []string
	for _, r := range sorted {
		ok, err := p.engine.Evaluate(ctx, user, r.ID, act)
		if err != nil {
			// Only reachable if the recipe map mutates underneath us.
			logger.Warn("Recipe evaluation error", "recipe_id", r.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		matched = append(matched, r.ID)
		if r.KillSwitch {
			logger.Info("Kill switch recipe matched, stopping evaluation", "recipe_id", r.ID)
			break
		}
	}

	if len(matched) == 0 {
		logger.Info("No recipes matched activity")
		return nil, nil
	}

	var writeErr string
	if user.WritesSuspended {
		logger.Info("User writes suspended, skipping provider write-back", "fields", act.UpdatedFields)
	} else if err := p.source.UpdateActivity(ctx, user, act); err != nil {
		// Captured on the receipt rather than retried; re-running the
		// whole pipeline for a failed write would re-apply mutations.
		logger.Error("Activity write-back failed", "error", err)
		writeErr = err.Error()
	}

	if err := p.db.IncrementUserActivityCount(ctx, user.ID); err != nil {
		logger.Warn("Failed to increment user activity count", "error", err)
	}

	p.maybeTriggerFtpRecalc(ctx, user, act, logger)

	return p.saveProcessedActivity(ctx, user, act, matched, writeErr)
}

// saveProcessedActivity stores the receipt keyed by activity ID. Matched
// recipe summaries are frozen at match time so history survives recipe
// edits. Privacy mode strips descriptive fields but keeps the recipe and
// field-update data.
func (p *Processor) saveProcessedActivity(ctx context.Context, user *types.User, act *types.Activity, matched []string, writeErr string) (*types.ProcessedActivity, error) {
	rec := &types.ProcessedActivity{
		ID:            strconv.FormatInt(act.ID, 10),
		UserID:        user.ID,
		DateProcessed: time.Now(),
		Recipes:       make(map[string]*types.RecipeSummary, len(matched)),
		UpdatedFields: make(map[string]string, len(act.UpdatedFields)),
		Error:         writeErr,
	}

	if !user.Preferences.PrivacyMode {
		rec.Name = act.Name
		rec.Type = act.Type
		rec.DateStart = act.DateStart
	}

	for _, id := range matched {
		r := user.Recipes[id]
		rec.Recipes[id] = &types.RecipeSummary{
			Title:   r.Title,
			Summary: recipes.Summary(r),
		}
	}
	for _, field := range act.UpdatedFields {
		rec.UpdatedFields[field] = fieldDisplayValue(act, field)
	}

	if err := p.db.SetProcessedActivity(ctx, rec); err != nil {
		return nil, fmt.Errorf("save receipt for activity %d: %w", act.ID, err)
	}
	return rec, nil
}

func fieldDisplayValue(act *types.Activity, field string) string {
	switch field {
	case "name":
		return act.Name
	case "description":
		return act.Description
	case "privateNote":
		return act.PrivateNote
	case "mapStyle":
		return act.MapStyle
	case "commute":
		return strconv.FormatBool(act.Commute)
	case "trainer":
		return strconv.FormatBool(act.Trainer)
	case "hideHome":
		return strconv.FormatBool(act.HideHome)
	case "gear":
		if act.Gear != nil {
			return act.Gear.Name
		}
	}
	return ""
}

// maybeTriggerFtpRecalc fires an async FTP recalculation when a pro user
// with auto-FTP rode over their current threshold recently. Failures are
// logged only; the pipeline result does not depend on it.
func (p *Processor) maybeTriggerFtpRecalc(ctx context.Context, user *types.User, act *types.Activity, logger *slog.Logger) {
	if !tier.CanAutoFtp(user) || !user.Preferences.FtpAutoUpdate {
		return
	}
	if user.Ftp <= 0 || act.WattsWeighted <= float64(user.Ftp) {
		return
	}
	if time.Since(act.DateStart) > shared.AutoFtpRecentWindow {
		return
	}

	ev, err := infrapubsub.NewCloudEvent("processor", "automator.ftp.recalc", types.FtpRecalcEvent{
		UserID:     user.ID,
		ActivityID: act.ID,
		Watts:      int(act.WattsWeighted),
	})
	if err != nil {
		logger.Warn("Failed to build FTP recalc event", "error", err)
		return
	}
	if _, err := p.pub.PublishCloudEvent(ctx, shared.TopicFtpRecalc, ev); err != nil {
		logger.Warn("Failed to publish FTP recalc event", "error", err)
		return
	}
	logger.Info("Triggered FTP recalculation", "watts", act.WattsWeighted, "current_ftp", user.Ftp)
}

// BackfillFilters are the client-side filters applied to a backfill scan
// before activities are enqueued.
type BackfillFilters struct {
	ExcludePrivate  bool
	ExcludeCommutes bool
	ExcludeRaces    bool
	SportTypes      []string // empty means all
}

func (f BackfillFilters) keep(act *types.Activity) bool {
	if f.ExcludePrivate && act.Private {
		return false
	}
	if f.ExcludeCommutes && act.Commute {
		return false
	}
	if f.ExcludeRaces && act.Race {
		return false
	}
	if len(f.SportTypes) > 0 {
		for _, t := range f.SportTypes {
			if t == act.Type {
				return true
			}
		}
		return false
	}
	return true
}

// Backfill scans the user's activities in the date range and enqueues
// every one passing the filters as a batch entry. Returns the number
// enqueued.
func (p *Processor) Backfill(ctx context.Context, user *types.User, from, to time.Time, filters BackfillFilters) (int, error) {
	activities, err := p.source.ListActivities(ctx, user, from, to)
	if err != nil {
		return 0, fmt.Errorf("backfill scan for user %s: %w", user.ID, err)
	}

	queued := 0
	for _, act := range activities {
		if !filters.keep(act) {
			continue
		}
		if err := p.QueueActivity(ctx, user, act.ID, true, ""); err != nil {
			p.logger.Warn("Failed to queue backfill activity", "user_id", user.ID, "activity_id", act.ID, "error", err)
			continue
		}
		queued++
	}

	p.logger.Info("Backfill enqueued", "user_id", user.ID, "scanned", len(activities), "queued", queued, "from", from, "to", to)
	return queued, nil
}

// DeleteReceipts bulk-deletes processing receipts by user and/or age.
func (p *Processor) DeleteReceipts(ctx context.Context, f shared.ReceiptFilter) (int, error) {
	count, err := p.db.DeleteProcessedActivities(ctx, f)
	if err != nil {
		return count, err
	}
	p.logger.Info("Deleted processing receipts", "count", count, "user_id", f.UserID)
	return count, nil
}
