// Package recipes implements the recipe data model: condition evaluation,
// structural validation and the engine that applies matching recipes'
// actions to an activity.
package recipes

import (
	"fmt"

	"github.com/pedalhub/automator/pkg/types"
)

// ValueType tags how a property's values compare.
type ValueType int

const (
	TypeText ValueType = iota
	TypeNumber
	TypeTime
	TypeLocation
	TypeBoolean
	TypeDay
)

func (t ValueType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeNumber:
		return "number"
	case TypeTime:
		return "time"
	case TypeLocation:
		return "location"
	case TypeBoolean:
		return "boolean"
	case TypeDay:
		return "day"
	}
	return "unknown"
}

// Property describes one entry in the condition property registry: its
// value type and the operators legal for it. Evaluation dispatches on
// Type; the validator rejects operators outside Operators.
type Property struct {
	Type      ValueType
	Operators []string
}

func (p Property) Allows(operator string) bool {
	for _, op := range p.Operators {
		if op == operator {
			return true
		}
	}
	return false
}

var (
	textOperators     = []string{types.OperatorEqual, types.OperatorNotEqual, types.OperatorLike}
	numberOperators   = []string{types.OperatorEqual, types.OperatorLess, types.OperatorGreater}
	timeOperators     = []string{types.OperatorEqual, types.OperatorLike, types.OperatorLess, types.OperatorGreater}
	locationOperators = []string{types.OperatorEqual, types.OperatorLike}
	booleanOperators  = []string{types.OperatorEqual}
	dayOperators      = []string{types.OperatorEqual, types.OperatorNotEqual}
)

// Properties is the registry of condition-addressable activity fields.
var Properties = map[string]Property{
	"name":        {Type: TypeText, Operators: textOperators},
	"description": {Type: TypeText, Operators: textOperators},
	"sportType":   {Type: TypeText, Operators: textOperators},
	"device":      {Type: TypeText, Operators: textOperators},
	"gear":        {Type: TypeText, Operators: textOperators},

	"distance":      {Type: TypeNumber, Operators: numberOperators},
	"elevationGain": {Type: TypeNumber, Operators: numberOperators},
	"speedAvg":      {Type: TypeNumber, Operators: numberOperators},
	"speedMax":      {Type: TypeNumber, Operators: numberOperators},
	"wattsAvg":      {Type: TypeNumber, Operators: numberOperators},
	"wattsMax":      {Type: TypeNumber, Operators: numberOperators},
	"wattsWeighted": {Type: TypeNumber, Operators: numberOperators},
	"hrAvg":         {Type: TypeNumber, Operators: numberOperators},
	"hrMax":         {Type: TypeNumber, Operators: numberOperators},
	"cadenceAvg":    {Type: TypeNumber, Operators: numberOperators},
	"calories":      {Type: TypeNumber, Operators: numberOperators},
	"movingTime":    {Type: TypeNumber, Operators: numberOperators},
	"elapsedTime":   {Type: TypeNumber, Operators: numberOperators},

	"dateStart": {Type: TypeTime, Operators: timeOperators},
	"dateEnd":   {Type: TypeTime, Operators: timeOperators},

	"locationStart": {Type: TypeLocation, Operators: locationOperators},
	"locationEnd":   {Type: TypeLocation, Operators: locationOperators},

	"commute": {Type: TypeBoolean, Operators: booleanOperators},
	"trainer": {Type: TypeBoolean, Operators: booleanOperators},
	"race":    {Type: TypeBoolean, Operators: booleanOperators},
	"private": {Type: TypeBoolean, Operators: booleanOperators},

	"weekday": {Type: TypeDay, Operators: dayOperators},
}

// LookupProperty resolves a condition property against the registry.
func LookupProperty(name string) (Property, error) {
	p, ok := Properties[name]
	if !ok {
		return Property{}, fmt.Errorf("unknown condition property %q", name)
	}
	return p, nil
}
