// Package activity provides typed access to the flattened activity field
// set: template values for ${field} substitution and typed accessors the
// condition evaluator dispatches through.
package activity

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pedalhub/automator/pkg/types"
)

// Fields flattens an activity into the string map consumed by template
// substitution. Formatting matches what users see on the platform:
// distances with one decimal, durations as h:mm.
func Fields(a *types.Activity) map[string]string {
	m := map[string]string{
		"id":            strconv.FormatInt(a.ID, 10),
		"name":          a.Name,
		"description":   a.Description,
		"sportType":     a.Type,
		"device":        a.Device,
		"distance":      strconv.FormatFloat(a.Distance, 'f', 1, 64),
		"elevationGain": strconv.FormatFloat(a.ElevationGain, 'f', 0, 64),
		"speedAvg":      strconv.FormatFloat(a.SpeedAvg, 'f', 1, 64),
		"speedMax":      strconv.FormatFloat(a.SpeedMax, 'f', 1, 64),
		"wattsAvg":      strconv.FormatFloat(a.WattsAvg, 'f', 0, 64),
		"wattsMax":      strconv.FormatFloat(a.WattsMax, 'f', 0, 64),
		"wattsWeighted": strconv.FormatFloat(a.WattsWeighted, 'f', 0, 64),
		"hrAvg":         strconv.FormatFloat(a.HrAvg, 'f', 0, 64),
		"hrMax":         strconv.FormatFloat(a.HrMax, 'f', 0, 64),
		"cadenceAvg":    strconv.FormatFloat(a.CadenceAvg, 'f', 0, 64),
		"calories":      strconv.FormatFloat(a.Calories, 'f', 0, 64),
		"movingTime":    formatDuration(a.MovingTime),
		"elapsedTime":   formatDuration(a.ElapsedTime),
		"weekday":       a.LocalStart().Weekday().String(),
		"dateStart":     a.LocalStart().Format("2006-01-02 15:04"),
		"timeStart":     a.LocalStart().Format("15:04"),
	}
	if a.Gear != nil {
		m["gear"] = a.Gear.Name
	}
	return m
}

func formatDuration(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%d:%02d", h, m)
}

// Number returns the numeric value of a property, false if the property
// is not numeric or not present on this activity.
func Number(a *types.Activity, property string) (float64, bool) {
	switch property {
	case "distance":
		return a.Distance, true
	case "elevationGain":
		return a.ElevationGain, true
	case "speedAvg":
		return a.SpeedAvg, true
	case "speedMax":
		return a.SpeedMax, true
	case "wattsAvg":
		return a.WattsAvg, true
	case "wattsMax":
		return a.WattsMax, true
	case "wattsWeighted":
		return a.WattsWeighted, true
	case "hrAvg":
		return a.HrAvg, true
	case "hrMax":
		return a.HrMax, true
	case "cadenceAvg":
		return a.CadenceAvg, true
	case "calories":
		return a.Calories, true
	case "movingTime":
		return float64(a.MovingTime), true
	case "elapsedTime":
		return float64(a.ElapsedTime), true
	}
	return 0, false
}

// Text returns the textual value of a property, false if unknown.
func Text(a *types.Activity, property string) (string, bool) {
	switch property {
	case "name":
		return a.Name, true
	case "description":
		return a.Description, true
	case "sportType":
		return a.Type, true
	case "device":
		return a.Device, true
	case "weekday":
		return a.LocalStart().Weekday().String(), true
	case "gear":
		if a.Gear == nil {
			return "", true
		}
		return a.Gear.Name, true
	}
	return "", false
}

// Timestamp returns the time value of a property in the activity's local
// offset, false if unknown.
func Timestamp(a *types.Activity, property string) (time.Time, bool) {
	switch property {
	case "dateStart":
		return a.LocalStart(), true
	case "dateEnd":
		return a.LocalEnd(), true
	}
	return time.Time{}, false
}

// Location returns the [lat, long] pair of a property. The second return
// is false when the property is unknown or the activity has no GPS data.
func Location(a *types.Activity, property string) ([]float64, bool) {
	var loc []float64
	switch property {
	case "locationStart":
		loc = a.LocationStart
	case "locationEnd":
		loc = a.LocationEnd
	default:
		return nil, false
	}
	if len(loc) < 2 {
		return nil, false
	}
	return loc, true
}

// Flag returns the boolean value of a property, false if unknown.
func Flag(a *types.Activity, property string) (bool, bool) {
	switch property {
	case "commute":
		return a.Commute, true
	case "trainer":
		return a.Trainer, true
	case "race":
		return a.Race, true
	case "private":
		return a.Private, true
	}
	return false, false
}
