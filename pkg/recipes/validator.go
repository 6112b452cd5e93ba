package recipes

import (
	"fmt"

	"github.com/pedalhub/automator/pkg/types"
)

// Validation limits for user-supplied recipe fields.
const (
	MaxTitleLength = 100
	MaxValueLength = 255
)

// ValidationError identifies the offending field so the API layer can
// surface a specific message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("recipe validation failed on %s: %s", e.Field, e.Message)
}

// Validate enforces the structural rules for a recipe before persistence.
// Validation is all-or-nothing: the first violation aborts.
//
// An empty conditions list is accepted even though such a recipe matches
// every activity. Users rely on it for catch-all recipes, so it stays.
func Validate(r *types.Recipe) error {
	if r == nil {
		return &ValidationError{Field: "recipe", Message: "missing recipe"}
	}
	if r.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if len(r.Title) > MaxTitleLength {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("title exceeds %d characters", MaxTitleLength)}
	}
	// Order is 1-based; 0 is the unordered sentinel.
	if r.Order < 0 {
		return &ValidationError{Field: "order", Message: "order must be zero or positive"}
	}
	if r.Conditions == nil {
		return &ValidationError{Field: "conditions", Message: "conditions list is required"}
	}
	if r.Actions == nil {
		return &ValidationError{Field: "actions", Message: "actions list is required"}
	}

	for i, c := range r.Conditions {
		if err := validateCondition(i, c); err != nil {
			return err
		}
	}
	for i, a := range r.Actions {
		if err := validateAction(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateCondition(i int, c types.RecipeCondition) error {
	field := fmt.Sprintf("conditions[%d]", i)

	if c.Property == "" {
		return &ValidationError{Field: field + ".property", Message: "property is required"}
	}
	prop, err := LookupProperty(c.Property)
	if err != nil {
		return &ValidationError{Field: field + ".property", Message: err.Error()}
	}
	if c.Operator == "" {
		return &ValidationError{Field: field + ".operator", Message: "operator is required"}
	}
	if !prop.Allows(c.Operator) {
		return &ValidationError{
			Field:   field + ".operator",
			Message: fmt.Sprintf("operator %q not allowed for %s property %q", c.Operator, prop.Type, c.Property),
		}
	}
	if c.Value == "" {
		return &ValidationError{Field: field + ".value", Message: "value is required"}
	}
	if len(c.Value) > MaxValueLength {
		return &ValidationError{Field: field + ".value", Message: fmt.Sprintf("value exceeds %d characters", MaxValueLength)}
	}
	if len(c.FriendlyValue) > MaxValueLength {
		return &ValidationError{Field: field + ".friendlyValue", Message: fmt.Sprintf("friendlyValue exceeds %d characters", MaxValueLength)}
	}
	return nil
}

func validateAction(i int, a types.RecipeAction) error {
	field := fmt.Sprintf("actions[%d]", i)

	requiresValue, known := types.ActionTypes[a.Type]
	if !known {
		return &ValidationError{Field: field + ".type", Message: fmt.Sprintf("unknown action type %q", a.Type)}
	}
	if requiresValue && a.Value == "" {
		return &ValidationError{Field: field + ".value", Message: fmt.Sprintf("value is required for %s actions", a.Type)}
	}
	if len(a.Value) > MaxValueLength {
		return &ValidationError{Field: field + ".value", Message: fmt.Sprintf("value exceeds %d characters", MaxValueLength)}
	}
	if len(a.FriendlyValue) > MaxValueLength {
		return &ValidationError{Field: field + ".friendlyValue", Message: fmt.Sprintf("friendlyValue exceeds %d characters", MaxValueLength)}
	}
	return nil
}
