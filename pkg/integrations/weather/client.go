// Package weather resolves conditions at an activity's start location
// and hour via the Open-Meteo archive API. The result is the flat string
// map consumed by ${weather.*} template tags.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	httputil "github.com/pedalhub/automator/pkg/infrastructure/http"
	"github.com/pedalhub/automator/pkg/types"
)

const archiveURL = "https://archive-api.open-meteo.com/v1/archive"

type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type archiveResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature   []float64 `json:"temperature_2m"`
		Humidity      []float64 `json:"relativehumidity_2m"`
		Precipitation []float64 `json:"precipitation"`
		WeatherCode   []int     `json:"weathercode"`
		WindSpeed     []float64 `json:"windspeed_10m"`
		WindDirection []float64 `json:"winddirection_10m"`
	} `json:"hourly"`
}

// ActivityWeather returns conditions for the activity's start hour.
// Activities without GPS data cannot be located and produce an error.
func (c *Client) ActivityWeather(ctx context.Context, activity *types.Activity) (map[string]string, error) {
	if len(activity.LocationStart) < 2 {
		return nil, fmt.Errorf("activity %d has no GPS data", activity.ID)
	}
	lat, long := activity.LocationStart[0], activity.LocationStart[1]
	dateStr := activity.DateStart.UTC().Format("2006-01-02")

	url := fmt.Sprintf(
		"%s?latitude=%.6f&longitude=%.6f&start_date=%s&end_date=%s&hourly=temperature_2m,relativehumidity_2m,precipitation,weathercode,windspeed_10m,winddirection_10m",
		archiveURL, lat, long, dateStr, dateStr,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open-meteo request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return nil, fmt.Errorf("open-meteo: %w", err)
	}

	var data archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode open-meteo response: %w", err)
	}

	// Summary and temperature are required; a time array longer than the
	// value arrays would otherwise index past them.
	hour := activity.DateStart.UTC().Hour()
	if hour >= len(data.Hourly.Time) || hour >= len(data.Hourly.WeatherCode) || hour >= len(data.Hourly.Temperature) {
		return nil, fmt.Errorf("open-meteo returned no data for hour %d", hour)
	}

	fields := map[string]string{
		"summary":     describeWeatherCode(data.Hourly.WeatherCode[hour]),
		"temperature": fmt.Sprintf("%.1f°C", data.Hourly.Temperature[hour]),
	}
	if hour < len(data.Hourly.Humidity) {
		fields["humidity"] = fmt.Sprintf("%.0f%%", data.Hourly.Humidity[hour])
	}
	if hour < len(data.Hourly.Precipitation) {
		fields["precipitation"] = fmt.Sprintf("%.1fmm", data.Hourly.Precipitation[hour])
	}
	if hour < len(data.Hourly.WindSpeed) {
		fields["windSpeed"] = fmt.Sprintf("%.0fkm/h", data.Hourly.WindSpeed[hour])
	}
	if hour < len(data.Hourly.WindDirection) {
		fields["windDirection"] = compassDirection(data.Hourly.WindDirection[hour])
	}
	return fields, nil
}

// describeWeatherCode maps WMO weather codes to short summaries.
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code <= 3:
		return "Partly cloudy"
	case code <= 48:
		return "Fog"
	case code <= 57:
		return "Drizzle"
	case code <= 67:
		return "Rain"
	case code <= 77:
		return "Snow"
	case code <= 82:
		return "Rain showers"
	case code <= 86:
		return "Snow showers"
	default:
		return "Thunderstorm"
	}
}

func compassDirection(degrees float64) string {
	directions := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	idx := int((degrees+22.5)/45) % len(directions)
	return directions[idx]
}
