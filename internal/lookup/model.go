package lookup

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RecipeDetail is the ingredient list of one recipe, in the order the API returned it.
type RecipeDetail struct {
	RecipeID    string   `json:"recipe_id"`
	Ingredients []string `json:"ingredients"`
}

// Outcome carries the result of an asynchronous lookup. Exactly one field is set.
type Outcome struct {
	Detail *RecipeDetail
	Err    error
}

// Wire shapes. Pointers distinguish a missing field from an empty one.
type searchResponse struct {
	Recipes *[]searchCandidate `json:"recipes"`
}

// Only the first candidate is consulted, so its id is decoded lazily.
type searchCandidate struct {
	RecipeID json.RawMessage `json:"recipe_id"`
}

type detailResponse struct {
	Recipe *struct {
		Ingredients *[]string `json:"ingredients"`
	} `json:"recipe"`
}

var errMissing = fmt.Errorf("field is missing")

// recipeIDString accepts string and numeric identifiers. Numbers keep their
// JSON text, so 42 and "42" yield the same id.
func recipeIDString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errMissing
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		if s == "" {
			return "", fmt.Errorf("recipe_id is empty")
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("recipe_id must be a string or number, got %s", raw)
	}
	return n.String(), nil
}
