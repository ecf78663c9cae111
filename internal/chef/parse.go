package chef

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseResponse decodes the model's JSON reply. Models occasionally wrap the
// JSON in prose or markdown fences despite the prompt, so on a decode failure
// the outermost brace pair is retried before giving up.
func ParseResponse(raw string) ([]Recipe, error) {
	var payload struct {
		Recipes []Recipe `json:"recipes"`
	}

	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		extracted, ok := extractJSON(raw)
		if !ok {
			return nil, fmt.Errorf("no JSON object in model response: %w", err)
		}
		if err := json.Unmarshal([]byte(extracted), &payload); err != nil {
			return nil, fmt.Errorf("failed to decode model response: %w", err)
		}
	}

	recipes := payload.Recipes[:0]
	for _, r := range payload.Recipes {
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

func extractJSON(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
