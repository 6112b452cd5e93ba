// recipe-lint validates a recipe JSON document and prints the summary
// line a receipt would freeze for it. Handy for checking a recipe before
// pasting it into the console.
//
// Usage:
//
//	recipe-lint recipe.json
//	cat recipe.json | recipe-lint -
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pedalhub/automator/pkg/recipes"
	"github.com/pedalhub/automator/pkg/types"
)

// recipeDoc matches the console's export shape.
type recipeDoc struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Order      int    `json:"order,omitempty"`
	DefaultFor string `json:"defaultFor,omitempty"`
	KillSwitch bool   `json:"killSwitch,omitempty"`
	Conditions []struct {
		Property      string `json:"property"`
		Operator      string `json:"operator"`
		Value         string `json:"value"`
		FriendlyValue string `json:"friendlyValue,omitempty"`
	} `json:"conditions"`
	Actions []struct {
		Type          string `json:"type"`
		Value         string `json:"value,omitempty"`
		FriendlyValue string `json:"friendlyValue,omitempty"`
	} `json:"actions"`
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: recipe-lint <recipe.json | ->")
		os.Exit(2)
	}

	var data []byte
	var err error
	if os.Args[1] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(os.Args[1])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "read: %v\n", err)
		os.Exit(1)
	}

	var doc recipeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "parse: %v\n", err)
		os.Exit(1)
	}

	r := &types.Recipe{
		ID:         doc.ID,
		Title:      doc.Title,
		Order:      doc.Order,
		DefaultFor: doc.DefaultFor,
		KillSwitch: doc.KillSwitch,
		Conditions: make([]types.RecipeCondition, 0, len(doc.Conditions)),
		Actions:    make([]types.RecipeAction, 0, len(doc.Actions)),
	}
	for _, c := range doc.Conditions {
		r.Conditions = append(r.Conditions, types.RecipeCondition{
			Property:      c.Property,
			Operator:      c.Operator,
			Value:         c.Value,
			FriendlyValue: c.FriendlyValue,
		})
	}
	for _, a := range doc.Actions {
		r.Actions = append(r.Actions, types.RecipeAction{
			Type:          a.Type,
			Value:         a.Value,
			FriendlyValue: a.FriendlyValue,
		})
	}

	if err := recipes.Validate(r); err != nil {
		fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("ok: %s\n", doc.Title)
	fmt.Printf("summary: %s\n", recipes.Summary(r))
}
