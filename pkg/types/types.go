// Package types defines the domain records shared across the automator:
// users, recipes, activities and the processed-activity documents that
// double as queue entries before processing completes.
package types

import (
	"time"
)

// --- Recipes ---

// Recipe is a user-owned automation rule. All conditions must pass for the
// actions to run. Recipes are addressed by (userID, recipeID); IDs are
// assigned at creation and never reused.
type Recipe struct {
	ID         string
	Title      string
	Conditions []RecipeCondition
	Actions    []RecipeAction
	// Order is the 1-based evaluation priority; 0 means unordered, which
	// sorts after every explicitly ordered recipe.
	Order        int
	DefaultFor   string // sport type this recipe auto-applies to, "" if none
	KillSwitch   bool
	TriggerCount int64
}

// RecipeCondition is one predicate over one activity property. Value is
// carried as a string and parsed according to the property's registered
// type at evaluation time.
type RecipeCondition struct {
	Property      string
	Operator      string
	Value         string
	FriendlyValue string
}

// Condition operators.
const (
	OperatorEqual    = "="
	OperatorNotEqual = "!="
	OperatorLike     = "like"
	OperatorLess     = "<"
	OperatorGreater  = ">"
)

// RecipeAction is one mutation applied to an activity when a recipe
// matches.
type RecipeAction struct {
	Type          string
	Value         string
	FriendlyValue string
}

// Recipe action types.
const (
	ActionCommute            = "commute"
	ActionTrainer            = "trainer"
	ActionGear               = "gear"
	ActionName               = "name"
	ActionPrependName        = "prependName"
	ActionAppendName         = "appendName"
	ActionDescription        = "description"
	ActionPrependDescription = "prependDescription"
	ActionAppendDescription  = "appendDescription"
	ActionPrivateNote        = "privateNote"
	ActionMapStyle           = "mapStyle"
	ActionHideHome           = "hideHome"
	ActionWebhook            = "webhook"
)

// ActionTypes is the legal action-type set, mapped to whether the action
// requires a value. Boolean-toggle actions carry no payload.
var ActionTypes = map[string]bool{
	ActionCommute:            false,
	ActionTrainer:            false,
	ActionHideHome:           false,
	ActionGear:               true,
	ActionName:               true,
	ActionPrependName:        true,
	ActionAppendName:         true,
	ActionDescription:        true,
	ActionPrependDescription: true,
	ActionAppendDescription:  true,
	ActionPrivateNote:        true,
	ActionMapStyle:           true,
	ActionWebhook:            true,
}

// --- Users ---

// UserPreferences are the subset of user settings the pipeline consults.
type UserPreferences struct {
	PrivacyMode   bool // strip descriptive fields from persisted receipts
	FtpAutoUpdate bool
}

// StravaIntegration holds the user's tokens for the activity source.
type StravaIntegration struct {
	Enabled      bool
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// GearItem is a bike or pair of shoes registered on the source platform.
type GearItem struct {
	ID      string
	Name    string
	Primary bool
}

// User tiers.
const (
	TierFree = "free"
	TierPro  = "pro"
)

// User is the owning record for recipes and gear. Suspended users are
// never queued or processed; WritesSuspended users are processed but the
// provider write-back is skipped.
type User struct {
	ID              string
	DisplayName     string
	Tier            string
	Suspended       bool
	WritesSuspended bool
	Ftp             int
	ActivityCount   int64
	Preferences     UserPreferences
	Recipes         map[string]*Recipe
	Bikes           []GearItem
	Shoes           []GearItem
	Strava          *StravaIntegration
	CreatedAt       time.Time
}

// Gear looks up a gear item by ID, bikes first then shoes.
func (u *User) Gear(id string) *GearItem {
	for i := range u.Bikes {
		if u.Bikes[i].ID == id {
			return &u.Bikes[i]
		}
	}
	for i := range u.Shoes {
		if u.Shoes[i].ID == id {
			return &u.Shoes[i]
		}
	}
	return nil
}

// HasRecipes reports whether the user has at least one recipe defined.
func (u *User) HasRecipes() bool {
	return len(u.Recipes) > 0
}

// --- Activities ---

// Activity is the flattened record of a completed activity fetched from
// the source platform. Actions mutate it in memory; UpdatedFields tracks
// which fields changed so the write-back can send only those.
type Activity struct {
	ID            int64
	Type          string // sport type, e.g. "Ride", "Run"
	Name          string
	Description   string
	PrivateNote   string
	Commute       bool
	Trainer       bool
	Race          bool
	Private       bool
	HideHome      bool
	MapStyle      string
	DateStart     time.Time
	DateEnd       time.Time
	UtcOffset     int // seconds east of UTC at the start location
	MovingTime    int64
	ElapsedTime   int64
	LocationStart []float64 // [lat, long], empty if no GPS
	LocationEnd   []float64
	Polyline      string
	Distance      float64 // km
	ElevationGain float64
	SpeedAvg      float64
	SpeedMax      float64
	WattsAvg      float64
	WattsMax      float64
	WattsWeighted float64
	HrAvg         float64
	HrMax         float64
	CadenceAvg    float64
	Calories      float64
	Device        string
	Gear          *GearItem

	UpdatedFields []string
}

// markUpdated records a field mutation exactly once.
func (a *Activity) markUpdated(field string) {
	for _, f := range a.UpdatedFields {
		if f == field {
			return
		}
	}
	a.UpdatedFields = append(a.UpdatedFields, field)
}

func (a *Activity) SetName(v string) {
	a.Name = v
	a.markUpdated("name")
}

func (a *Activity) SetDescription(v string) {
	a.Description = v
	a.markUpdated("description")
}

func (a *Activity) SetPrivateNote(v string) {
	a.PrivateNote = v
	a.markUpdated("privateNote")
}

func (a *Activity) SetCommute(v bool) {
	a.Commute = v
	a.markUpdated("commute")
}

func (a *Activity) SetTrainer(v bool) {
	a.Trainer = v
	a.markUpdated("trainer")
}

func (a *Activity) SetHideHome(v bool) {
	a.HideHome = v
	a.markUpdated("hideHome")
}

func (a *Activity) SetMapStyle(v string) {
	a.MapStyle = v
	a.markUpdated("mapStyle")
}

func (a *Activity) SetGear(g *GearItem) {
	a.Gear = g
	a.markUpdated("gear")
}

// LocalStart is the activity start time shifted to the recorded UTC
// offset, which is what time-of-day conditions compare against.
func (a *Activity) LocalStart() time.Time {
	return a.DateStart.Add(time.Duration(a.UtcOffset) * time.Second)
}

// LocalEnd is the activity end time shifted to the recorded UTC offset.
func (a *Activity) LocalEnd() time.Time {
	return a.DateEnd.Add(time.Duration(a.UtcOffset) * time.Second)
}

// --- Processed activities / queue entries ---

// RecipeSummary is the frozen snapshot of a matched recipe stored on a
// receipt. Later recipe edits must not rewrite processing history, so the
// rendered summary is captured at match time.
type RecipeSummary struct {
	Title   string
	Summary string
}

// ProcessedActivity is both the queue entry and the processing receipt,
// keyed by activity ID. Before processing it carries only the queue shape
// (UserID, DateQueued plus the transient control fields); after processing
// it is overwritten with the full receipt and the control fields are gone.
type ProcessedActivity struct {
	ID     string
	UserID string

	// Queue control fields, absent on finished receipts.
	DateQueued time.Time
	Processing bool
	RetryCount int
	Batch      bool

	// Receipt fields.
	DateProcessed time.Time
	Name          string
	Type          string
	DateStart     time.Time
	Recipes       map[string]*RecipeSummary
	UpdatedFields map[string]string
	Error         string
	QueueError    string
}

// Queued reports whether the document is still awaiting processing.
func (p *ProcessedActivity) Queued() bool {
	return !p.DateQueued.IsZero() && p.DateProcessed.IsZero()
}
