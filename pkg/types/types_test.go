package types

import (
	"testing"
	"time"
)

func TestActivitySettersTrackUpdatedFields(t *testing.T) {
	a := &Activity{Name: "Morning Ride"}

	a.SetName("Commute")
	a.SetCommute(true)
	a.SetGear(&GearItem{ID: "b1", Name: "Commuter"})

	want := []string{"name", "commute", "gear"}
	if len(a.UpdatedFields) != len(want) {
		t.Fatalf("UpdatedFields = %v, want %v", a.UpdatedFields, want)
	}
	for i := range want {
		if a.UpdatedFields[i] != want[i] {
			t.Errorf("UpdatedFields[%d] = %q, want %q", i, a.UpdatedFields[i], want[i])
		}
	}
}

// Setting the same field twice records it once; the write-back payload
// carries each field at most once.
func TestActivitySetterDeduplication(t *testing.T) {
	a := &Activity{}
	a.SetName("First")
	a.SetName("Second")

	if len(a.UpdatedFields) != 1 {
		t.Fatalf("Expected 1 tracked field, got %v", a.UpdatedFields)
	}
	if a.Name != "Second" {
		t.Errorf("Expected last write to win, got %q", a.Name)
	}
}

func TestActivityLocalTimes(t *testing.T) {
	a := &Activity{
		DateStart: time.Date(2024, 6, 3, 22, 30, 0, 0, time.UTC),
		DateEnd:   time.Date(2024, 6, 3, 23, 30, 0, 0, time.UTC),
		UtcOffset: -7 * 3600, // US Pacific in summer
	}

	start := a.LocalStart()
	if start.Hour() != 15 || start.Minute() != 30 {
		t.Errorf("LocalStart = %s, want 15:30", start.Format("15:04"))
	}
	if !a.LocalEnd().After(start) {
		t.Error("Expected LocalEnd after LocalStart")
	}
}

func TestProcessedActivityQueued(t *testing.T) {
	tests := []struct {
		name string
		p    ProcessedActivity
		want bool
	}{
		{"fresh entry", ProcessedActivity{DateQueued: time.Now()}, true},
		{"finished receipt", ProcessedActivity{DateProcessed: time.Now()}, false},
		{"queued then processed", ProcessedActivity{DateQueued: time.Now(), DateProcessed: time.Now()}, false},
		{"empty document", ProcessedActivity{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Queued(); got != tt.want {
				t.Errorf("Queued() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserGearLookup(t *testing.T) {
	u := &User{
		Bikes: []GearItem{{ID: "b1", Name: "Road Bike"}},
		Shoes: []GearItem{{ID: "s1", Name: "Trail Shoes"}},
	}

	if g := u.Gear("b1"); g == nil || g.Name != "Road Bike" {
		t.Errorf("Gear(b1) = %+v", g)
	}
	if g := u.Gear("s1"); g == nil || g.Name != "Trail Shoes" {
		t.Errorf("Gear(s1) = %+v", g)
	}
	if g := u.Gear("missing"); g != nil {
		t.Errorf("Gear(missing) = %+v, want nil", g)
	}
}

func TestUserHasRecipes(t *testing.T) {
	u := &User{}
	if u.HasRecipes() {
		t.Error("Expected false with no recipes")
	}
	u.Recipes = map[string]*Recipe{"r1": {ID: "r1"}}
	if !u.HasRecipes() {
		t.Error("Expected true with a recipe")
	}
}
