package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"dataexplorer/internal/valuekind"
)

// orderedTopLevelKeys walks a single JSON object's tokens (stdlib
// encoding/json, not ojg: ojg's map-based decode loses Go map iteration
// order, but §4.3 requires columns to be declared in the object's own key
// order, e.g. {"u":"al","n":1} declares ["u","n"], not the alphabetical
// ["n","u"] a plain map traversal would produce) to recover the key order,
// excluding object-valued keys per the NDJSON/JSON-array declaration rule.
func orderedTopLevelKeys(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("not a JSON object")
	}

	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("malformed object key")
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := valTok.(json.Delim); ok {
			if d == '{' {
				if err := skipJSONValue(dec, '{', '}'); err != nil {
					return nil, err
				}
				continue // object-valued: excluded from declared columns
			}
			if d == '[' {
				if err := skipJSONValue(dec, '[', ']'); err != nil {
					return nil, err
				}
				keys = append(keys, key)
				continue
			}
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// skipJSONValue consumes tokens until the matching close delimiter,
// tracking nesting depth.
func skipJSONValue(dec *json.Decoder, open, close json.Delim) error {
	depth := 1
	for depth > 0 {
		t, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := t.(json.Delim); ok {
			switch d {
			case open:
				depth++
			case close:
				depth--
			}
		}
	}
	return nil
}

// stringifyJSONValue renders a decoded JSON value the way a searchable
// projection needs: primitives as text, arrays as their JSON serialization.
func stringifyJSONValue(v interface{}) string {
	return valuekind.FromAny(v).String()
}
