package types

import (
	"encoding/json"
	"fmt"
)

// LabelOption is one row of a UI label table.
type LabelOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// decodeEnum decodes a JSON string and rejects values outside the closed set.
func decodeEnum(data []byte, kind string, valid func(string) bool) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("%s: %w", kind, err)
	}
	if !valid(s) {
		return "", fmt.Errorf("unknown %s %q", kind, s)
	}
	return s, nil
}
