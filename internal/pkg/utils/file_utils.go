package utils

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReadJSONArray reads a file and returns its bytes only if they hold a JSON array.
func ReadJSONArray(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if err := ValidateJSONArray(data); err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return data, nil
}

// ValidateJSONArray checks that data is a JSON array of objects.
func ValidateJSONArray(data []byte) error {
	if json.Get(data).ValueType() != jsoniter.ArrayValue {
		return fmt.Errorf("payload is not a JSON array")
	}
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to decode JSON array: %w", err)
	}
	return nil
}
