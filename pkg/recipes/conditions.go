package recipes

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pedalhub/automator/pkg/domain/activity"
	"github.com/pedalhub/automator/pkg/types"
)

// Bounding-box half-widths in degrees for location conditions. Roughly
// 40m for exact matches and 500m for "like" matches at the equator.
const (
	locationRadiusExact = 0.00037
	locationRadiusLike  = 0.00458
)

// checkTimeLike / checkTimeEqual tolerances on the Hmm-encoded clock
// value (e.g. 1430 for 14:30).
const (
	timeToleranceLike  = 20
	timeToleranceEqual = 1
)

// CheckCondition tests one condition against one activity. A false result
// means the condition evaluated cleanly and did not match; an error means
// the condition could not be evaluated (illegal operator, missing field)
// and the caller must fail closed.
func CheckCondition(act *types.Activity, c types.RecipeCondition) (bool, error) {
	prop, err := LookupProperty(c.Property)
	if err != nil {
		return false, err
	}
	if !prop.Allows(c.Operator) {
		return false, fmt.Errorf("operator %q not supported for %s property %q", c.Operator, prop.Type, c.Property)
	}

	switch prop.Type {
	case TypeLocation:
		return checkLocation(act, c)
	case TypeTime:
		return checkTimestamp(act, c)
	case TypeNumber:
		return checkNumber(act, c)
	case TypeBoolean:
		return checkBoolean(act, c)
	case TypeDay, TypeText:
		return checkText(act, c)
	}
	return false, fmt.Errorf("no evaluator for property type %s", prop.Type)
}

// checkLocation compares the activity's coordinate pair against a
// bounding box centered on the condition's "lat,long" value. Latitude and
// longitude each compare against their own coordinate element.
func checkLocation(act *types.Activity, c types.RecipeCondition) (bool, error) {
	loc, ok := activity.Location(act, c.Property)
	if !ok {
		return false, nil // no GPS data is a clean non-match
	}

	parts := strings.Split(c.Value, ",")
	if len(parts) != 2 {
		return false, fmt.Errorf("location condition value %q is not lat,long", c.Value)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return false, fmt.Errorf("location condition latitude: %w", err)
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return false, fmt.Errorf("location condition longitude: %w", err)
	}

	var radius float64
	switch c.Operator {
	case types.OperatorEqual:
		radius = locationRadiusExact
	case types.OperatorLike:
		radius = locationRadiusLike
	default:
		return false, fmt.Errorf("operator %q not supported for location conditions", c.Operator)
	}

	return math.Abs(loc[0]-lat) <= radius && math.Abs(loc[1]-long) <= radius, nil
}

// checkTimestamp compares clock times encoded as Hmm integers, so 14:30
// becomes 1430. The "like" tolerance of 20 units spans roughly 20
// minutes either side (modulo the hour boundary quirk of the encoding).
func checkTimestamp(act *types.Activity, c types.RecipeCondition) (bool, error) {
	ts, ok := activity.Timestamp(act, c.Property)
	if !ok {
		return false, fmt.Errorf("activity has no timestamp property %q", c.Property)
	}
	target, err := strconv.Atoi(strings.ReplaceAll(c.Value, ":", ""))
	if err != nil {
		return false, fmt.Errorf("time condition value %q: %w", c.Value, err)
	}

	current := ts.Hour()*100 + ts.Minute()
	switch c.Operator {
	case types.OperatorGreater:
		return current > target, nil
	case types.OperatorLess:
		return current < target, nil
	case types.OperatorLike:
		return abs(current-target) <= timeToleranceLike, nil
	case types.OperatorEqual:
		return abs(current-target) <= timeToleranceEqual, nil
	}
	return false, fmt.Errorf("operator %q not supported for time conditions", c.Operator)
}

func checkNumber(act *types.Activity, c types.RecipeCondition) (bool, error) {
	value, ok := activity.Number(act, c.Property)
	if !ok {
		return false, fmt.Errorf("activity has no numeric property %q", c.Property)
	}
	target, err := strconv.ParseFloat(c.Value, 64)
	if err != nil {
		return false, fmt.Errorf("number condition value %q: %w", c.Value, err)
	}

	switch c.Operator {
	case types.OperatorEqual:
		return value == target, nil
	case types.OperatorGreater:
		return value > target, nil
	case types.OperatorLess:
		return value < target, nil
	}
	return false, fmt.Errorf("operator %q not supported for number conditions", c.Operator)
}

func checkBoolean(act *types.Activity, c types.RecipeCondition) (bool, error) {
	value, ok := activity.Flag(act, c.Property)
	if !ok {
		return false, fmt.Errorf("activity has no boolean property %q", c.Property)
	}
	target, err := strconv.ParseBool(c.Value)
	if err != nil {
		return false, fmt.Errorf("boolean condition value %q: %w", c.Value, err)
	}
	return value == target, nil
}

// checkText is case-insensitive: "=" is an exact match, "like" substring
// containment, "!=" the negated exact match.
func checkText(act *types.Activity, c types.RecipeCondition) (bool, error) {
	value, ok := activity.Text(act, c.Property)
	if !ok {
		return false, fmt.Errorf("activity has no text property %q", c.Property)
	}

	switch c.Operator {
	case types.OperatorEqual:
		return strings.EqualFold(value, c.Value), nil
	case types.OperatorNotEqual:
		return !strings.EqualFold(value, c.Value), nil
	case types.OperatorLike:
		return strings.Contains(strings.ToLower(value), strings.ToLower(c.Value)), nil
	}
	return false, fmt.Errorf("operator %q not supported for text conditions", c.Operator)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
