package recipes

import (
	"testing"
	"time"

	"github.com/pedalhub/automator/pkg/types"
)

func rideActivity() *types.Activity {
	return &types.Activity{
		ID:            100,
		Type:          "Ride",
		Name:          "Morning Ride",
		Distance:      25.4,
		ElevationGain: 420,
		SpeedAvg:      28.1,
		MovingTime:    3600,
		DateStart:     time.Date(2024, 6, 3, 7, 45, 0, 0, time.UTC), // Monday
		DateEnd:       time.Date(2024, 6, 3, 8, 45, 0, 0, time.UTC),
		LocationStart: []float64{51.5090, -0.1180},
		LocationEnd:   []float64{51.5095, -0.1190},
		Commute:       true,
		Gear:          &types.GearItem{ID: "b1", Name: "Commuter"},
	}
}

func cond(property, operator, value string) types.RecipeCondition {
	return types.RecipeCondition{Property: property, Operator: operator, Value: value}
}

func TestCheckConditionText(t *testing.T) {
	act := rideActivity()

	tests := []struct {
		name string
		c    types.RecipeCondition
		want bool
	}{
		{"exact match case-insensitive", cond("name", "=", "morning ride"), true},
		{"exact mismatch", cond("name", "=", "Evening Ride"), false},
		{"like substring case-insensitive", cond("name", "like", "morning"), true},
		{"like no substring", cond("name", "like", "evening"), false},
		{"not equal", cond("sportType", "!=", "Run"), true},
		{"not equal same", cond("sportType", "!=", "ride"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckCondition(act, tt.c)
			if err != nil {
				t.Fatalf("CheckCondition error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckCondition(%+v) = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}

func TestCheckConditionNumber(t *testing.T) {
	act := rideActivity()

	tests := []struct {
		name string
		c    types.RecipeCondition
		want bool
	}{
		{"greater true", cond("distance", ">", "10"), true},
		{"greater false", cond("distance", ">", "100"), false},
		{"less true", cond("elevationGain", "<", "500"), true},
		{"equal exact", cond("movingTime", "=", "3600"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckCondition(act, tt.c)
			if err != nil {
				t.Fatalf("CheckCondition error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckCondition(%+v) = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}

func TestCheckConditionTime(t *testing.T) {
	// Start 07:45, no UTC offset.
	act := rideActivity()

	tests := []struct {
		name string
		c    types.RecipeCondition
		want bool
	}{
		{"like within tolerance", cond("dateStart", "like", "7:55"), true},
		{"like outside tolerance", cond("dateStart", "like", "9:00"), false},
		{"before noon", cond("dateStart", "<", "12:00"), true},
		{"after six", cond("dateStart", ">", "06:00"), true},
		{"equal near", cond("dateStart", "=", "07:46"), true},
		{"equal far", cond("dateStart", "=", "07:50"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckCondition(act, tt.c)
			if err != nil {
				t.Fatalf("CheckCondition error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckCondition(%+v) = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}

func TestCheckConditionLocation(t *testing.T) {
	act := rideActivity() // start 51.5090, -0.1180

	tests := []struct {
		name string
		c    types.RecipeCondition
		want bool
	}{
		{"exact at point", cond("locationStart", "=", "51.5090, -0.1180"), true},
		{"exact just inside box", cond("locationStart", "=", "51.5092, -0.1182"), true},
		{"exact outside box", cond("locationStart", "=", "51.5150, -0.1180"), false},
		{"like wider box", cond("locationStart", "like", "51.5120, -0.1200"), true},
		{"like outside wider box", cond("locationStart", "like", "51.6000, -0.1180"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckCondition(act, tt.c)
			if err != nil {
				t.Fatalf("CheckCondition error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckCondition(%+v) = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}

// A longitude far outside the box must fail even when the latitude
// matches exactly. Each axis compares against its own coordinate.
func TestCheckConditionLocationLongitudeAxis(t *testing.T) {
	act := rideActivity()

	matched, err := CheckCondition(act, cond("locationStart", "=", "51.5090, -0.2500"))
	if err != nil {
		t.Fatalf("CheckCondition error: %v", err)
	}
	if matched {
		t.Error("Expected mismatch when only latitude is inside the box")
	}

	matched, err = CheckCondition(act, cond("locationStart", "=", "51.4000, -0.1180"))
	if err != nil {
		t.Fatalf("CheckCondition error: %v", err)
	}
	if matched {
		t.Error("Expected mismatch when only longitude is inside the box")
	}
}

func TestCheckConditionLocationNoGPS(t *testing.T) {
	act := rideActivity()
	act.LocationStart = nil

	matched, err := CheckCondition(act, cond("locationStart", "=", "51.5090, -0.1180"))
	if err != nil {
		t.Fatalf("Expected clean non-match without GPS, got error: %v", err)
	}
	if matched {
		t.Error("Expected non-match without GPS data")
	}
}

func TestCheckConditionBoolean(t *testing.T) {
	act := rideActivity()

	if matched, err := CheckCondition(act, cond("commute", "=", "true")); err != nil || !matched {
		t.Errorf("commute = true should match: %v, %v", matched, err)
	}
	if matched, err := CheckCondition(act, cond("trainer", "=", "true")); err != nil || matched {
		t.Errorf("trainer = true should not match: %v, %v", matched, err)
	}
	if matched, err := CheckCondition(act, cond("commute", "=", "false")); err != nil || matched {
		t.Errorf("commute = false should not match: %v, %v", matched, err)
	}

	if _, err := CheckCondition(act, cond("commute", "=", "yes please")); err == nil {
		t.Error("Expected error for unparsable boolean value")
	}
}

func TestCheckConditionWeekday(t *testing.T) {
	act := rideActivity() // Monday

	if matched, err := CheckCondition(act, cond("weekday", "=", "Monday")); err != nil || !matched {
		t.Errorf("weekday = Monday should match: %v, %v", matched, err)
	}
	if matched, err := CheckCondition(act, cond("weekday", "!=", "Sunday")); err != nil || !matched {
		t.Errorf("weekday != Sunday should match: %v, %v", matched, err)
	}
}

func TestCheckConditionIllegalOperator(t *testing.T) {
	act := rideActivity()

	tests := []struct {
		name string
		c    types.RecipeCondition
	}{
		{"like on boolean", cond("commute", "like", "true")},
		{"greater on text", cond("name", ">", "abc")},
		{"not equal on number", cond("distance", "!=", "10")},
		{"greater on location", cond("locationStart", ">", "51,0")},
		{"unknown property", cond("heartRateZone", "=", "3")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CheckCondition(act, tt.c); err == nil {
				t.Errorf("Expected error for %+v", tt.c)
			}
		})
	}
}

func TestCheckConditionBadValues(t *testing.T) {
	act := rideActivity()

	tests := []struct {
		name string
		c    types.RecipeCondition
	}{
		{"non-numeric number value", cond("distance", ">", "far")},
		{"malformed location", cond("locationStart", "=", "51.5")},
		{"non-numeric latitude", cond("locationStart", "=", "north, -0.1")},
		{"unparsable time", cond("dateStart", ">", "noonish")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CheckCondition(act, tt.c); err == nil {
				t.Errorf("Expected error for %+v", tt.c)
			}
		})
	}
}
