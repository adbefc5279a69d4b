package valuekind

import "testing"

func TestFromAnyPrimitives(t *testing.T) {
	if v := FromAny(nil); v.Kind != Null {
		t.Fatalf("nil -> %v, want Null", v.Kind)
	}
	if v := FromAny("hello"); v.Kind != Str || v.String() != "hello" {
		t.Fatalf("string -> %v %q", v.Kind, v.String())
	}
	if v := FromAny(true); v.Kind != Bool || v.String() != "true" {
		t.Fatalf("bool -> %v %q", v.Kind, v.String())
	}
	if v := FromAny(float64(3)); v.Kind != Float || v.String() != "3" {
		t.Fatalf("float64(3) -> %v %q, want Float \"3\"", v.Kind, v.String())
	}
}

func TestFromAnySerializesArraysAndObjects(t *testing.T) {
	v := FromAny([]interface{}{"a", float64(1)})
	if v.Kind != JSON {
		t.Fatalf("array -> %v, want JSON", v.Kind)
	}
	if v.String() != `["a",1]` {
		t.Fatalf("array serialization = %q", v.String())
	}
}

func TestAnyRoundTripsJSONFragment(t *testing.T) {
	v := FromJSONSerialized(`{"x":1}`)
	out, ok := v.Any().(map[string]interface{})
	if !ok {
		t.Fatalf("Any() = %#v, want map", v.Any())
	}
	if out["x"] != float64(1) {
		t.Fatalf("x = %v, want 1", out["x"])
	}
}
