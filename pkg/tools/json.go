package tools

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// unmarshalJSON unmarshals data into v. On a syntax error it repairs the
// JSON with jsonrepair and tries again.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

// ParseArgs decodes a JSON object of call arguments, repairing malformed
// input where possible. An empty string is an empty object.
func ParseArgs(s string) (map[string]any, error) {
	if s == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := unmarshalJSON([]byte(s), &args); err != nil {
		return nil, fmt.Errorf("tools: parse arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
