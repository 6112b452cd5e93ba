package weather

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/pedalhub/automator/pkg/types"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func archiveBody(t *testing.T) string {
	t.Helper()

	// 24 hourly slots, distinct values at hour 7.
	var resp archiveResponse
	for h := 0; h < 24; h++ {
		resp.Hourly.Time = append(resp.Hourly.Time, time.Date(2024, 6, 3, h, 0, 0, 0, time.UTC).Format("2006-01-02T15:04"))
		resp.Hourly.Temperature = append(resp.Hourly.Temperature, 10)
		resp.Hourly.Humidity = append(resp.Hourly.Humidity, 60)
		resp.Hourly.Precipitation = append(resp.Hourly.Precipitation, 0)
		resp.Hourly.WeatherCode = append(resp.Hourly.WeatherCode, 0)
		resp.Hourly.WindSpeed = append(resp.Hourly.WindSpeed, 10)
		resp.Hourly.WindDirection = append(resp.Hourly.WindDirection, 0)
	}
	resp.Hourly.Temperature[7] = 18.4
	resp.Hourly.Humidity[7] = 72
	resp.Hourly.Precipitation[7] = 1.2
	resp.Hourly.WeatherCode[7] = 61 // rain
	resp.Hourly.WindSpeed[7] = 22
	resp.Hourly.WindDirection[7] = 270 // west

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal archive body: %v", err)
	}
	return string(body)
}

func TestActivityWeather(t *testing.T) {
	var gotURL string
	body := archiveBody(t)
	c := &Client{httpClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return &http.Response{
			StatusCode: 200,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	})}}

	act := &types.Activity{
		ID:            100,
		DateStart:     time.Date(2024, 6, 3, 7, 45, 0, 0, time.UTC),
		LocationStart: []float64{51.509, -0.118},
	}

	fields, err := c.ActivityWeather(context.Background(), act)
	if err != nil {
		t.Fatalf("ActivityWeather failed: %v", err)
	}

	if !strings.Contains(gotURL, "latitude=51.509000") || !strings.Contains(gotURL, "longitude=-0.118000") {
		t.Errorf("Expected start coordinates in request, got %s", gotURL)
	}
	if !strings.Contains(gotURL, "start_date=2024-06-03") {
		t.Errorf("Expected activity date in request, got %s", gotURL)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"summary", "Rain"},
		{"temperature", "18.4°C"},
		{"humidity", "72%"},
		{"precipitation", "1.2mm"},
		{"windSpeed", "22km/h"},
		{"windDirection", "W"},
	}
	for _, tt := range tests {
		if got := fields[tt.key]; got != tt.want {
			t.Errorf("fields[%q] = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestActivityWeatherNoGPS(t *testing.T) {
	c := NewClient()
	act := &types.Activity{ID: 100, DateStart: time.Now()}

	if _, err := c.ActivityWeather(context.Background(), act); err == nil {
		t.Fatal("Expected error for activity without GPS data")
	}
}

// A full time array with truncated value arrays must surface as an error,
// not an index panic: a sweep processes many activities and one bad
// upstream payload must not take the batch down.
func TestActivityWeatherTruncatedArrays(t *testing.T) {
	var resp archiveResponse
	for h := 0; h < 24; h++ {
		resp.Hourly.Time = append(resp.Hourly.Time, time.Date(2024, 6, 3, h, 0, 0, 0, time.UTC).Format("2006-01-02T15:04"))
	}
	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal archive body: %v", err)
	}

	c := &Client{httpClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: 200,
			Body:       io.NopCloser(strings.NewReader(string(body))),
		}, nil
	})}}

	act := &types.Activity{
		ID:            100,
		DateStart:     time.Date(2024, 6, 3, 7, 45, 0, 0, time.UTC),
		LocationStart: []float64{51.509, -0.118},
	}

	if _, err := c.ActivityWeather(context.Background(), act); err == nil {
		t.Fatal("Expected error for truncated hourly arrays")
	}
}

func TestActivityWeatherUpstreamError(t *testing.T) {
	c := &Client{httpClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: 500,
			Body:       io.NopCloser(strings.NewReader(`{"reason":"out of cheese"}`)),
		}, nil
	})}}

	act := &types.Activity{
		ID:            100,
		DateStart:     time.Now(),
		LocationStart: []float64{51.509, -0.118},
	}

	_, err := c.ActivityWeather(context.Background(), act)
	if err == nil || !strings.Contains(err.Error(), "out of cheese") {
		t.Fatalf("Expected upstream error with body, got %v", err)
	}
}

func TestDescribeWeatherCode(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "Clear"},
		{2, "Partly cloudy"},
		{45, "Fog"},
		{51, "Drizzle"},
		{61, "Rain"},
	}
	for _, tt := range tests {
		if got := describeWeatherCode(tt.code); got != tt.want {
			t.Errorf("describeWeatherCode(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestCompassDirection(t *testing.T) {
	tests := []struct {
		degrees float64
		want    string
	}{
		{0, "N"},
		{90, "E"},
		{180, "S"},
		{270, "W"},
		{359, "N"},
	}
	for _, tt := range tests {
		if got := compassDirection(tt.degrees); got != tt.want {
			t.Errorf("compassDirection(%v) = %q, want %q", tt.degrees, got, tt.want)
		}
	}
}
