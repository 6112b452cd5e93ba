// Package strava implements the activity source against the Strava v3
// API: activity detail fetch, metadata write-back and the range listing
// used by batch backfills.
package strava

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	shared "github.com/pedalhub/automator/pkg"
	httputil "github.com/pedalhub/automator/pkg/infrastructure/http"
	"github.com/pedalhub/automator/pkg/infrastructure/oauth"
	"github.com/pedalhub/automator/pkg/types"
)

const baseURL = "https://www.strava.com/api/v3"

// Client is an API client for Strava. HTTP clients are built per user so
// each request authenticates with that user's tokens.
type Client struct {
	db shared.Database

	// newHTTPClient can be swapped in tests.
	newHTTPClient func(ctx context.Context, user *types.User) (*http.Client, error)
}

func NewClient(db shared.Database) *Client {
	c := &Client{db: db}
	c.newHTTPClient = func(ctx context.Context, user *types.User) (*http.Client, error) {
		return oauth.NewStravaClient(ctx, db, user)
	}
	return c
}

// detailedActivity mirrors the subset of Strava's DetailedActivity shape
// the pipeline consumes.
type detailedActivity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	PrivateNote        string    `json:"private_note"`
	SportType          string    `json:"sport_type"`
	Commute            bool      `json:"commute"`
	Trainer            bool      `json:"trainer"`
	Private            bool      `json:"private"`
	WorkoutType        int       `json:"workout_type"`
	StartDate          time.Time `json:"start_date"`
	UtcOffset          float64   `json:"utc_offset"`
	MovingTime         int64     `json:"moving_time"`
	ElapsedTime        int64     `json:"elapsed_time"`
	StartLatLng        []float64 `json:"start_latlng"`
	EndLatLng          []float64 `json:"end_latlng"`
	Distance           float64   `json:"distance"` // meters
	TotalElevationGain float64   `json:"total_elevation_gain"`
	AverageSpeed       float64   `json:"average_speed"` // m/s
	MaxSpeed           float64   `json:"max_speed"`
	AverageWatts       float64   `json:"average_watts"`
	MaxWatts           float64   `json:"max_watts"`
	WeightedWatts      float64   `json:"weighted_average_watts"`
	AverageHeartrate   float64   `json:"average_heartrate"`
	MaxHeartrate       float64   `json:"max_heartrate"`
	AverageCadence     float64   `json:"average_cadence"`
	Calories           float64   `json:"calories"`
	DeviceName         string    `json:"device_name"`
	GearID             string    `json:"gear_id"`
	Map                struct {
		SummaryPolyline string `json:"summary_polyline"`
	} `json:"map"`
}

// Strava workout_type values marking races.
const (
	workoutTypeRunRace  = 1
	workoutTypeRideRace = 11
)

func toActivity(d *detailedActivity, user *types.User) *types.Activity {
	a := &types.Activity{
		ID:            d.ID,
		Type:          d.SportType,
		Name:          d.Name,
		Description:   d.Description,
		PrivateNote:   d.PrivateNote,
		Commute:       d.Commute,
		Trainer:       d.Trainer,
		Private:       d.Private,
		Race:          d.WorkoutType == workoutTypeRunRace || d.WorkoutType == workoutTypeRideRace,
		DateStart:     d.StartDate,
		DateEnd:       d.StartDate.Add(time.Duration(d.ElapsedTime) * time.Second),
		UtcOffset:     int(d.UtcOffset),
		MovingTime:    d.MovingTime,
		ElapsedTime:   d.ElapsedTime,
		LocationStart: d.StartLatLng,
		LocationEnd:   d.EndLatLng,
		Polyline:      d.Map.SummaryPolyline,
		Distance:      d.Distance / 1000,
		ElevationGain: d.TotalElevationGain,
		SpeedAvg:      d.AverageSpeed * 3.6,
		SpeedMax:      d.MaxSpeed * 3.6,
		WattsAvg:      d.AverageWatts,
		WattsMax:      d.MaxWatts,
		WattsWeighted: d.WeightedWatts,
		HrAvg:         d.AverageHeartrate,
		HrMax:         d.MaxHeartrate,
		CadenceAvg:    d.AverageCadence,
		Calories:      d.Calories,
		Device:        d.DeviceName,
	}
	if d.GearID != "" && user != nil {
		a.Gear = user.Gear(d.GearID)
	}
	return a
}

// GetActivity fetches the full activity detail. A 404 upstream maps to
// shared.ErrActivityNotFound.
func (c *Client) GetActivity(ctx context.Context, user *types.User, activityID int64) (*types.Activity, error) {
	httpClient, err := c.newHTTPClient(ctx, user)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/activities/%d", baseURL, activityID), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("strava get activity %d: %w", activityID, err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		if httputil.IsStatus(err, http.StatusNotFound) {
			return nil, shared.ErrActivityNotFound
		}
		return nil, fmt.Errorf("strava get activity %d: %w", activityID, err)
	}

	var detail detailedActivity
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, fmt.Errorf("decode activity %d: %w", activityID, err)
	}
	return toActivity(&detail, user), nil
}

// UpdateActivity writes the activity's updated fields back to Strava.
// Only fields listed in UpdatedFields are sent.
func (c *Client) UpdateActivity(ctx context.Context, user *types.User, activity *types.Activity) error {
	if len(activity.UpdatedFields) == 0 {
		return nil
	}

	payload := map[string]interface{}{}
	for _, field := range activity.UpdatedFields {
		switch field {
		case "name":
			payload["name"] = activity.Name
		case "description":
			payload["description"] = activity.Description
		case "privateNote":
			payload["private_note"] = activity.PrivateNote
		case "commute":
			payload["commute"] = activity.Commute
		case "trainer":
			payload["trainer"] = activity.Trainer
		case "hideHome":
			payload["hide_from_home"] = activity.HideHome
		case "gear":
			if activity.Gear != nil {
				payload["gear_id"] = activity.Gear.ID
			}
		}
		// mapStyle is platform-side display state with no API field; it
		// rides along on the receipt only.
	}
	if len(payload) == 0 {
		return nil
	}

	httpClient, err := c.newHTTPClient(ctx, user)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, fmt.Sprintf("%s/activities/%d", baseURL, activity.ID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("strava update activity %d: %w", activity.ID, err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return fmt.Errorf("strava update activity %d: %w", activity.ID, err)
	}
	return nil
}

// ListActivities pages through the athlete's activities within the date
// range. Summaries are enough for backfill filtering; the pipeline
// re-fetches full detail per activity when processing.
func (c *Client) ListActivities(ctx context.Context, user *types.User, from, to time.Time) ([]*types.Activity, error) {
	httpClient, err := c.newHTTPClient(ctx, user)
	if err != nil {
		return nil, err
	}

	const perPage = 100
	var out []*types.Activity

	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("after", fmt.Sprintf("%d", from.Unix()))
		q.Set("before", fmt.Sprintf("%d", to.Unix()))
		q.Set("per_page", fmt.Sprintf("%d", perPage))
		q.Set("page", fmt.Sprintf("%d", page))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/athlete/activities?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("strava list activities: %w", err)
		}
		if err := httputil.ParseErrorResponse(resp); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("strava list activities: %w", err)
		}

		var details []detailedActivity
		err = json.NewDecoder(resp.Body).Decode(&details)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode activity list: %w", err)
		}

		for i := range details {
			out = append(out, toActivity(&details[i], user))
		}
		if len(details) < perPage {
			break
		}
	}
	return out, nil
}
