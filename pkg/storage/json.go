package storage

import (
	"encoding/json"
	"fmt"
)

// PutJSON stores the JSON encoding of v under key
func PutJSON(b Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return b.Put(key, data)
}

// GetJSON decodes the value under key into v. It reports false when the key
// does not exist.
func GetJSON(b Bucket, key []byte, v any) (bool, error) {
	data := b.Get(key)
	if data == nil {
		return false, nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode JSON: %w", err)
	}

	return true, nil
}

// DecodeJSON unmarshals a raw value, e.g. one visited by ForEach
func DecodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}

	return nil
}
