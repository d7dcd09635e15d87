package model

import (
	_ "embed"
	"encoding/json"
)

//go:embed texts/en.json
var rawTexts []byte

// DefaultTexts parses the embedded message catalogue.
func DefaultTexts() (map[string]string, error) {
	texts := make(map[string]string)
	if err := json.Unmarshal(rawTexts, &texts); err != nil {
		return nil, err
	}
	return texts, nil
}
