// Package chef turns the current fridge contents into recipe suggestions
// using a language model. Backends are pluggable; each one sends the shared
// prompt and parses the strict-JSON reply.
package chef

import (
	"context"
	"fmt"
	"strings"
)

// Suggester generates recipes from a prompt built by BuildPrompt.
type Suggester interface {
	Suggest(ctx context.Context, prompt string) (*Result, error)
}

// Result carries the parsed recipes plus the raw model output for debugging.
type Result struct {
	Recipes     []Recipe
	RawResponse string
}

type Recipe struct {
	Title                 string   `json:"title"`
	CaloriesPer100g       int      `json:"calories_per_100g"`
	IngredientsFromFridge []string `json:"ingredients_from_fridge"`
	IngredientsToBuy      []string `json:"ingredients_to_buy"`
	Steps                 []string `json:"steps"`
}

// PantryItem is the model-facing view of one lot.
type PantryItem struct {
	Name      string
	Amount    float64
	Unit      string
	Brand     string
	ExpiresOn string // YYYY-MM-DD, "" when none
}

func (p PantryItem) describe() string {
	s := fmt.Sprintf("%.1f %s %s", p.Amount, p.Unit, p.Name)
	if p.Brand != "" {
		s += fmt.Sprintf(" (%s)", p.Brand)
	}
	if p.ExpiresOn != "" {
		s += " expires " + p.ExpiresOn
	}
	return s
}

// RecipeCount decides how many recipes to ask for given the number of
// distinct lots. Fewer than two lots is not enough to cook from.
func RecipeCount(lotCount int) int {
	switch {
	case lotCount < 2:
		return 0
	case lotCount <= 3:
		return 2
	case lotCount >= 9:
		return 8
	default:
		return lotCount - 1
	}
}

// BuildPrompt renders the shared instruction prompt. extra carries optional
// free-text requirements from the user.
func BuildPrompt(items []PantryItem, recipeCount int, extra string) string {
	names := make([]string, 0, len(items))
	descriptions := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
		descriptions = append(descriptions, "- "+it.describe())
	}

	var b strings.Builder
	b.WriteString("You are an experienced home cook and dietitian.\n")
	b.WriteString("Generate sensible home recipes from the user's fridge contents.\n\n")
	b.WriteString("FRIDGE CONTENTS (only these may be main ingredients):\n")
	b.WriteString(strings.Join(names, "; "))
	b.WriteString("\n\nDetails:\n")
	b.WriteString(strings.Join(descriptions, "\n"))
	b.WriteString("\n\nRules:\n")
	b.WriteString("- No absurd combinations; every recipe must be a normal dish (breakfast, dinner, snack or dessert).\n")
	b.WriteString("- Assume the user always has salt, pepper, sugar, oil, water and basic spices.\n")
	b.WriteString("- At most 2 ingredients to buy per recipe.\n")
	b.WriteString("- Each recipe uses 1-3 fridge items as main ingredients and has at least 4 concrete steps with rough timings.\n")
	b.WriteString("- Give a realistic calories_per_100g (80-500).\n")
	if extra = strings.TrimSpace(extra); extra != "" {
		b.WriteString("\nADDITIONAL USER REQUIREMENTS:\n")
		b.WriteString(extra)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, `
Respond with VALID JSON ONLY, no markdown, no commentary:

{
  "recipes": [
    {
      "title": "Dish name",
      "calories_per_100g": 250,
      "ingredients_from_fridge": ["..."],
      "ingredients_to_buy": ["..."],
      "steps": ["Step 1: ...", "Step 2: ...", "Step 3: ...", "Step 4: ..."]
    }
  ]
}

Return exactly %d recipes in the "recipes" array.`, recipeCount)

	return b.String()
}
