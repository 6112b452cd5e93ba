package activitywebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pedalhub/automator/pkg/bootstrap"
	"github.com/pedalhub/automator/pkg/domain/tier"
	"github.com/pedalhub/automator/pkg/loopprevention"
	"github.com/pedalhub/automator/pkg/processor"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.HTTP("ActivityWebhook", handler().ServeHTTP)
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

// webhookPush is the Strava push notification body.
type webhookPush struct {
	ObjectType string `json:"object_type"`
	ObjectID   int64  `json:"object_id"`
	AspectType string `json:"aspect_type"`
	OwnerID    int64  `json:"owner_id"`
}

// backfillRequest asks for a range of past activities to be queued.
type backfillRequest struct {
	UserID string    `json:"user_id"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`

	ExcludePrivate  bool     `json:"exclude_private,omitempty"`
	ExcludeCommutes bool     `json:"exclude_commutes,omitempty"`
	ExcludeRaces    bool     `json:"exclude_races,omitempty"`
	SportTypes      []string `json:"sport_types,omitempty"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Queued  int    `json:"queued,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// handler builds the router. Split out so tests can mount it directly.
func handler() chi.Router {
	r := chi.NewRouter()
	r.Get("/webhook", verifySubscription)
	r.Post("/webhook", receivePush)
	r.Post("/backfill", startBackfill)
	return r
}

// verifySubscription answers Strava's subscription validation challenge.
func verifySubscription(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" || token != os.Getenv("STRAVA_WEBHOOK_VERIFY_TOKEN") {
		writeJSON(w, http.StatusForbidden, apiResponse{Success: false, Error: "Verification failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"hub.challenge": challenge})
}

// receivePush queues the referenced activity for processing. Strava expects
// a 200 within two seconds, so the actual work happens on the sweep.
func receivePush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.Default().With("request_id", uuid.NewString())

	svc, err := initService(ctx)
	if err != nil {
		logger.Error("Service init failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Error: "Internal server error"})
		return
	}

	var push webhookPush
	if err := json.NewDecoder(r.Body).Decode(&push); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "Invalid request body"})
		return
	}

	// Only activity creates and updates are actionable. Everything else
	// (athlete deauth, deletes) is acknowledged and ignored.
	if push.ObjectType != "activity" || (push.AspectType != "create" && push.AspectType != "update") {
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Ignored"})
		return
	}

	logger = logger.With("activity_id", push.ObjectID, "athlete_id", push.OwnerID)

	user, err := svc.DB.GetUserByAthleteID(ctx, push.OwnerID)
	if err != nil {
		// Unknown athlete is not an error worth retrying on Strava's side.
		logger.Warn("No user for athlete", "error", err)
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "No matching user"})
		return
	}

	// Our own write-backs fire an update push for the activity we just
	// processed; queueing those again would loop forever.
	if push.AspectType == "update" {
		receipt, err := svc.DB.GetProcessedActivity(ctx, strconv.FormatInt(push.ObjectID, 10))
		if err != nil {
			logger.Warn("Failed to check for write-back echo", "error", err)
		} else if loopprevention.IsBounceback(receipt, time.Now(), loopprevention.EchoWindow) {
			logger.Info("Ignoring echo of own write-back")
			writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Ignored write-back echo"})
			return
		}
	}

	proc := newProcessor(svc, logger)
	if err := proc.QueueActivity(ctx, user, push.ObjectID, false, ""); err != nil {
		logger.Error("Failed to queue activity", "error", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Error: "Failed to queue activity"})
		return
	}

	logger.Info("Activity queued", "user_id", user.ID, "aspect", push.AspectType)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Queued"})
}

// startBackfill queues a range of the user's past activities as batch entries.
func startBackfill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.Default().With("request_id", uuid.NewString())

	svc, err := initService(ctx)
	if err != nil {
		logger.Error("Service init failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Error: "Internal server error"})
		return
	}

	var req backfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "Invalid request body"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "user_id is required"})
		return
	}
	if req.From.IsZero() || req.To.IsZero() || !req.To.After(req.From) {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "from and to must describe a valid range"})
		return
	}

	user, err := svc.DB.GetUser(ctx, req.UserID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, apiResponse{Success: false, Error: "User not found"})
		return
	}
	if !tier.CanBatch(user) {
		writeJSON(w, http.StatusForbidden, apiResponse{Success: false, Error: "Backfill requires a pro subscription"})
		return
	}

	filters := processor.BackfillFilters{
		ExcludePrivate:  req.ExcludePrivate,
		ExcludeCommutes: req.ExcludeCommutes,
		ExcludeRaces:    req.ExcludeRaces,
		SportTypes:      req.SportTypes,
	}

	proc := newProcessor(svc, logger.With("user_id", user.ID))
	queued, err := proc.Backfill(ctx, user, req.From, req.To, filters)
	if err != nil {
		logger.Error("Backfill failed", "error", err, "user_id", user.ID)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Error: fmt.Sprintf("Backfill failed: %v", err)})
		return
	}

	logger.Info("Backfill queued", "user_id", user.ID, "queued", queued)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Backfill queued", Queued: queued})
}

func newProcessor(svc *bootstrap.Service, logger *slog.Logger) *processor.Processor {
	return processor.New(svc.DB, svc.Source, svc.Weather, svc.Pub, svc.Config, logger)
}
