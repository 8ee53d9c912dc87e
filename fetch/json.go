package fetch

import (
	"bytes"
	"encoding/json"
	"errors"
)

// parseJSON decodes text into the generic any shape (map[string]any,
// []any, string, float64, bool, nil) the way encoding/json's default
// unmarshal target does, rejecting any trailing garbage after the
// single JSON value JSON() expects.
func parseJSON(text string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	var extra any
	if err := dec.Decode(&extra); err == nil {
		return nil, errors.New("unexpected trailing data after JSON value")
	}
	return v, nil
}
