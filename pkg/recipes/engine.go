package recipes

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	shared "github.com/pedalhub/automator/pkg"
	"github.com/pedalhub/automator/pkg/domain/activity"
	infrapubsub "github.com/pedalhub/automator/pkg/infrastructure/pubsub"
	"github.com/pedalhub/automator/pkg/templates"
	"github.com/pedalhub/automator/pkg/types"
)

// Engine evaluates recipes against activities and applies the actions of
// matching ones. Dependencies are injected; the engine holds no global
// state.
type Engine struct {
	db      shared.Database
	weather shared.WeatherService
	pub     shared.Publisher
	logger  *slog.Logger
}

func NewEngine(db shared.Database, weather shared.WeatherService, pub shared.Publisher, logger *slog.Logger) *Engine {
	return &Engine{
		db:      db,
		weather: weather,
		pub:     pub,
		logger:  logger.With("component", "recipes"),
	}
}

// Evaluate runs one recipe against one activity. Conditions evaluate in
// list order with short-circuit on the first false or erroring condition;
// a condition error fails closed (logged, treated as non-match, not
// propagated). Only when every condition passes do the actions run, after
// which the recipe's trigger counter is incremented.
//
// The only error returned is a missing recipe ID.
func (e *Engine) Evaluate(ctx context.Context, user *types.User, recipeID string, act *types.Activity) (bool, error) {
	recipe, ok := user.Recipes[recipeID]
	if !ok {
		return false, fmt.Errorf("recipe %s not found for user %s", recipeID, user.ID)
	}

	// An empty conditions list matches every activity. Deliberate: users
	// build catch-all recipes this way.
	for _, c := range recipe.Conditions {
		matched, err := CheckCondition(act, c)
		if err != nil {
			e.logger.Error("Condition evaluation failed",
				"user_id", user.ID,
				"recipe_id", recipeID,
				"property", c.Property,
				"operator", c.Operator,
				"error", err,
			)
			return false, nil
		}
		if !matched {
			return false, nil
		}
	}

	for _, a := range recipe.Actions {
		e.processAction(ctx, user, act, a)
	}

	if err := e.SetTriggerCount(ctx, user, recipeID); err != nil {
		e.logger.Warn("Failed to increment trigger count", "user_id", user.ID, "recipe_id", recipeID, "error", err)
	}

	e.logger.Info("Recipe matched", "user_id", user.ID, "recipe_id", recipeID, "activity_id", act.ID)
	return true, nil
}

// processAction mutates the in-memory activity. Action failures are
// reported and skipped, never fatal.
func (e *Engine) processAction(ctx context.Context, user *types.User, act *types.Activity, action types.RecipeAction) {
	switch action.Type {
	case types.ActionCommute:
		act.SetCommute(true)
		return
	case types.ActionTrainer:
		act.SetTrainer(true)
		return
	case types.ActionHideHome:
		act.SetHideHome(true)
		return
	case types.ActionGear:
		gear := user.Gear(action.Value)
		if gear == nil {
			e.reportInvalidAction(user, action, fmt.Sprintf("gear %q not found among user's bikes or shoes", action.Value))
			return
		}
		act.SetGear(gear)
		return
	}

	value := e.renderValue(ctx, act, action.Value)

	switch action.Type {
	case types.ActionName:
		act.SetName(value)
	case types.ActionPrependName:
		act.SetName(joinWords(value, act.Name))
	case types.ActionAppendName:
		act.SetName(joinWords(act.Name, value))
	case types.ActionDescription:
		act.SetDescription(value)
	case types.ActionPrependDescription:
		act.SetDescription(joinWords(value, act.Description))
	case types.ActionAppendDescription:
		act.SetDescription(joinWords(act.Description, value))
	case types.ActionPrivateNote:
		act.SetPrivateNote(value)
	case types.ActionMapStyle:
		act.SetMapStyle(value)
	case types.ActionWebhook:
		e.dispatchWebhook(ctx, user, act, value)
	default:
		e.reportInvalidAction(user, action, fmt.Sprintf("unknown action type %q", action.Type))
	}
}

// renderValue performs the two-pass template substitution: activity
// fields first, then the weather namespace only if a ${weather.*} tag
// survived the first pass. A weather lookup failure leaves the tags
// unresolved rather than aborting the action.
func (e *Engine) renderValue(ctx context.Context, act *types.Activity, template string) string {
	value := templates.ReplaceTags(template, activity.Fields(act), "")

	if templates.HasTag(value, "weather") {
		weather, err := e.weather.ActivityWeather(ctx, act)
		if err != nil {
			e.logger.Warn("Weather lookup failed, leaving weather tags unresolved", "activity_id", act.ID, "error", err)
			return value
		}
		value = templates.ReplaceTags(value, weather, "weather")
	}
	return value
}

// joinWords concatenates with a single space, skipping the separator when
// either side is empty so prepend/append onto an empty field stays clean.
func joinWords(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " " + b
}

func (e *Engine) dispatchWebhook(ctx context.Context, user *types.User, act *types.Activity, url string) {
	ev, err := infrapubsub.NewCloudEvent("recipes-engine", "automator.recipe.webhook", types.WebhookActionEvent{
		UserID:     user.ID,
		ActivityID: act.ID,
		URL:        url,
	})
	if err != nil {
		e.logger.Warn("Failed to build webhook event", "user_id", user.ID, "error", err)
		return
	}
	if _, err := e.pub.PublishCloudEvent(ctx, shared.TopicWebhookAction, ev); err != nil {
		e.logger.Warn("Failed to publish webhook event", "user_id", user.ID, "url", url, "error", err)
	}
}

// SetTriggerCount atomically increments the persisted match counter for a
// recipe. The in-memory copy is bumped as well so summaries built later
// in the same run see the new value.
func (e *Engine) SetTriggerCount(ctx context.Context, user *types.User, recipeID string) error {
	if err := e.db.IncrementRecipeTriggerCount(ctx, user.ID, recipeID); err != nil {
		return err
	}
	if r, ok := user.Recipes[recipeID]; ok {
		r.TriggerCount++
	}
	return nil
}

// reportInvalidAction logs a diagnostic for an action that could not be
// applied. Never fails.
func (e *Engine) reportInvalidAction(user *types.User, action types.RecipeAction, message string) {
	e.logger.Warn("Invalid recipe action",
		"user_id", user.ID,
		"action_type", action.Type,
		"action_value", action.Value,
		"reason", message,
	)
}

// Summary renders a flat human-readable description of a recipe's
// conditions and actions in list order. Receipts freeze this string at
// match time so later recipe edits don't rewrite history.
func Summary(r *types.Recipe) string {
	parts := make([]string, 0, len(r.Conditions)+len(r.Actions))

	for _, c := range r.Conditions {
		value := c.Value
		if c.FriendlyValue != "" {
			value = c.FriendlyValue
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", c.Property, c.Operator, value))
	}
	for _, a := range r.Actions {
		value := a.Value
		if a.FriendlyValue != "" {
			value = a.FriendlyValue
		}
		if value == "" {
			parts = append(parts, a.Type)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", a.Type, value))
	}
	return strings.Join(parts, ", ")
}

// Sort returns the user's recipes in evaluation priority order:
// default-for recipes first, then explicit 1-based order (0 is the
// unordered sentinel and sorts last), then title as the tiebreak.
func Sort(recipes map[string]*types.Recipe) []*types.Recipe {
	out := make([]*types.Recipe, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.DefaultFor != "") != (b.DefaultFor != "") {
			return a.DefaultFor != ""
		}
		ao, bo := a.Order, b.Order
		if ao == 0 {
			ao = int(^uint(0) >> 1)
		}
		if bo == 0 {
			bo = int(^uint(0) >> 1)
		}
		if ao != bo {
			return ao < bo
		}
		return a.Title < b.Title
	})
	return out
}
