package strava

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	shared "github.com/pedalhub/automator/pkg"
	"github.com/pedalhub/automator/pkg/types"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testClient(rt roundTripFunc) *Client {
	c := NewClient(nil)
	c.newHTTPClient = func(ctx context.Context, user *types.User) (*http.Client, error) {
		return &http.Client{Transport: rt}, nil
	}
	return c
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func timeFrom(t *testing.T, date string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}
	return parsed
}

func stravaUser() *types.User {
	return &types.User{
		ID:    "user1",
		Bikes: []types.GearItem{{ID: "b404", Name: "Gravel Bike"}},
	}
}

const detailBody = `{
	"id": 123,
	"name": "Lunch Ride",
	"sport_type": "Ride",
	"workout_type": 11,
	"start_date": "2024-06-03T11:30:00Z",
	"utc_offset": 3600,
	"moving_time": 3600,
	"elapsed_time": 3900,
	"start_latlng": [51.509, -0.118],
	"end_latlng": [51.51, -0.12],
	"distance": 30500.0,
	"average_speed": 8.47,
	"gear_id": "b404",
	"device_name": "Wahoo ELEMNT",
	"map": {"summary_polyline": "abc"}
}`

func TestGetActivity(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodGet || req.URL.Path != "/api/v3/activities/123" {
			t.Errorf("Unexpected request: %s %s", req.Method, req.URL.Path)
		}
		return jsonResponse(200, detailBody), nil
	})

	act, err := c.GetActivity(context.Background(), stravaUser(), 123)
	if err != nil {
		t.Fatalf("GetActivity failed: %v", err)
	}

	if act.ID != 123 || act.Name != "Lunch Ride" || act.Type != "Ride" {
		t.Errorf("Unexpected activity: %+v", act)
	}
	// Meters to kilometers, m/s to km/h.
	if act.Distance != 30.5 {
		t.Errorf("Expected 30.5km, got %v", act.Distance)
	}
	if act.SpeedAvg < 30.4 || act.SpeedAvg > 30.6 {
		t.Errorf("Expected ~30.5km/h, got %v", act.SpeedAvg)
	}
	// workout_type 11 is a ride race.
	if !act.Race {
		t.Error("Expected race flag for workout_type 11")
	}
	if act.UtcOffset != 3600 {
		t.Errorf("Expected UTC offset 3600, got %d", act.UtcOffset)
	}
	if act.Gear == nil || act.Gear.Name != "Gravel Bike" {
		t.Errorf("Expected gear resolved from user, got %+v", act.Gear)
	}
	if act.DateEnd.Sub(act.DateStart).Seconds() != 3900 {
		t.Errorf("Expected dateEnd = start + elapsed, got %v", act.DateEnd)
	}
}

func TestGetActivityNotFound(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(404, `{"message":"Record Not Found"}`), nil
	})

	_, err := c.GetActivity(context.Background(), stravaUser(), 999)
	if !errors.Is(err, shared.ErrActivityNotFound) {
		t.Fatalf("Expected ErrActivityNotFound, got %v", err)
	}
}

func TestGetActivityServerError(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(500, `{"message":"oops"}`), nil
	})

	_, err := c.GetActivity(context.Background(), stravaUser(), 123)
	if err == nil || errors.Is(err, shared.ErrActivityNotFound) {
		t.Fatalf("Expected generic upstream error, got %v", err)
	}
	if !strings.Contains(err.Error(), "oops") {
		t.Errorf("Expected upstream body in error, got %v", err)
	}
}

func TestUpdateActivitySendsOnlyUpdatedFields(t *testing.T) {
	var payload map[string]interface{}
	c := testClient(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPut || req.URL.Path != "/api/v3/activities/123" {
			t.Errorf("Unexpected request: %s %s", req.Method, req.URL.Path)
		}
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("Bad payload: %v", err)
		}
		return jsonResponse(200, `{}`), nil
	})

	act := &types.Activity{ID: 123, Description: "untouched"}
	act.SetName("Commute")
	act.SetCommute(true)

	if err := c.UpdateActivity(context.Background(), stravaUser(), act); err != nil {
		t.Fatalf("UpdateActivity failed: %v", err)
	}

	if payload["name"] != "Commute" {
		t.Errorf("Expected name in payload, got %v", payload)
	}
	if payload["commute"] != true {
		t.Errorf("Expected commute in payload, got %v", payload)
	}
	if _, ok := payload["description"]; ok {
		t.Error("Unchanged fields must not be sent")
	}
}

func TestUpdateActivityNoChanges(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		t.Error("No request expected without updated fields")
		return nil, errors.New("unexpected")
	})

	act := &types.Activity{ID: 123, Name: "Morning Ride"}
	if err := c.UpdateActivity(context.Background(), stravaUser(), act); err != nil {
		t.Fatalf("UpdateActivity failed: %v", err)
	}
}

// mapStyle has no Strava API field; an update touching only it is a no-op
// against the API.
func TestUpdateActivityMapStyleOnly(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		t.Error("No request expected for mapStyle-only updates")
		return nil, errors.New("unexpected")
	})

	act := &types.Activity{ID: 123}
	act.SetMapStyle("satellite")

	if err := c.UpdateActivity(context.Background(), stravaUser(), act); err != nil {
		t.Fatalf("UpdateActivity failed: %v", err)
	}
}

func TestListActivitiesPaging(t *testing.T) {
	pages := 0
	c := testClient(func(req *http.Request) (*http.Response, error) {
		pages++
		if req.URL.Path != "/api/v3/athlete/activities" {
			t.Errorf("Unexpected path: %s", req.URL.Path)
		}
		page := req.URL.Query().Get("page")

		// First page full, second page short.
		var items []string
		count := 100
		if page == "2" {
			count = 2
		}
		for i := 0; i < count; i++ {
			items = append(items, `{"id": `+page+`00`+`, "sport_type": "Ride"}`)
		}
		return jsonResponse(200, "["+strings.Join(items, ",")+"]"), nil
	})

	acts, err := c.ListActivities(context.Background(), stravaUser(), timeFrom(t, "2024-01-01"), timeFrom(t, "2024-02-01"))
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if pages != 2 {
		t.Errorf("Expected 2 pages, got %d", pages)
	}
	if len(acts) != 102 {
		t.Errorf("Expected 102 activities, got %d", len(acts))
	}
}

func TestListActivitiesUpstreamError(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(429, `{"message":"Rate Limit Exceeded"}`), nil
	})

	_, err := c.ListActivities(context.Background(), stravaUser(), timeFrom(t, "2024-01-01"), timeFrom(t, "2024-02-01"))
	if err == nil || !strings.Contains(err.Error(), "Rate Limit") {
		t.Fatalf("Expected rate limit error, got %v", err)
	}
}
