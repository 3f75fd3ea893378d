package render

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// toGeneric converts typed data into the map/slice values gojq accepts.
func toGeneric(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// runQuery evaluates a jq expression against data and encodes every result.
func runQuery(enc *json.Encoder, query string, data interface{}) error {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return fmt.Errorf("invalid --query: %w", err)
	}

	code, err := gojq.Compile(parsed)
	if err != nil {
		return fmt.Errorf("invalid --query: %w", err)
	}

	generic, err := toGeneric(data)
	if err != nil {
		return err
	}

	iter := code.Run(generic)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("query error: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}
