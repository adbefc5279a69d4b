// Package valuekind implements the tagged value variant used to represent a
// decoded record field without widening the type set to every JSON/CSV
// primitive. It replaces the dynamic typing the teacher's [][]string rows
// get away with in a CSV-only world: our records also carry JSON and vCard
// fields, which need null/bool/number distinguished from plain strings.
package valuekind

import "encoding/json"

// Kind identifies the variant stored in a Value.
type Kind int

const (
	Null Kind = iota
	Str
	Int
	Float
	Bool
	JSON // non-primitive (array/object) value, carried pre-serialized
)

// Value is a single decoded record field.
type Value struct {
	Kind Kind
	S    string
	I    int64
	F    float64
	B    bool
}

func FromString(s string) Value { return Value{Kind: Str, S: s} }
func FromInt(i int64) Value     { return Value{Kind: Int, I: i} }
func FromFloat(f float64) Value { return Value{Kind: Float, F: f} }
func FromBool(b bool) Value     { return Value{Kind: Bool, B: b} }
func FromNull() Value           { return Value{Kind: Null} }

// FromJSONSerialized wraps an already-serialized JSON fragment (used for
// array-valued fields, per §4.3's NDJSON/JSON-array rule of "stringifying
// arrays via JSON serialization").
func FromJSONSerialized(s string) Value { return Value{Kind: JSON, S: s} }

// FromAny converts a decoded JSON value (as produced by encoding/json or
// ojg/oj) into a Value, serializing non-primitive values to their JSON text.
func FromAny(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return FromNull()
	case string:
		return FromString(t)
	case bool:
		return FromBool(t)
	case float64:
		return FromFloat(t)
	case int:
		return FromInt(int64(t))
	case int64:
		return FromInt(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return FromString("")
		}
		return FromJSONSerialized(string(b))
	}
}

// String renders the value the way a projected searchable column or a
// get_record response would want to see it: primitives as their natural
// text form, JSON fragments verbatim, null as an empty string.
func (v Value) String() string {
	switch v.Kind {
	case Null:
		return ""
	case Str:
		return v.S
	case Int:
		return jsonNumber(v.I)
	case Float:
		return jsonFloat(v.F)
	case Bool:
		if v.B {
			return "true"
		}
		return "false"
	case JSON:
		return v.S
	default:
		return ""
	}
}

// Any returns the value as a plain Go interface{}, suitable for
// encoding/json marshaling of a get_record response.
func (v Value) Any() interface{} {
	switch v.Kind {
	case Null:
		return nil
	case Str:
		return v.S
	case Int:
		return v.I
	case Float:
		return v.F
	case Bool:
		return v.B
	case JSON:
		var out interface{}
		if err := json.Unmarshal([]byte(v.S), &out); err != nil {
			return v.S
		}
		return out
	default:
		return nil
	}
}

func jsonNumber(i int64) string {
	b, _ := json.Marshal(i)
	return string(b)
}

func jsonFloat(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
