package payload

import (
	"encoding/json"
	"testing"
)

func decodeAny(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return v
}

func TestExtractListShapePriority(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"result", `{"result": [{"a":1},{"a":2}]}`, 2},
		{"data.items", `{"data": {"items": [{"a":1}]}}`, 1},
		{"bare items", `{"items": [{"a":1},{"a":2}]}`, 2},
		{"data", `{"data": [{"a":1},{"a":2},{"a":3}]}`, 3},
		{"bare array", `[{"a":1}]`, 1},
	}
	for _, c := range cases {
		got := ExtractList(decodeAny(t, c.raw), "test")
		if len(got) != c.want {
			t.Errorf("%s: extracted %d items, want %d", c.name, len(got), c.want)
		}
	}
}

func TestExtractListResultWinsOverData(t *testing.T) {
	raw := `{"result": [{"a":1}], "data": [{"a":1},{"a":2}]}`
	got := ExtractList(decodeAny(t, raw), "test")
	if len(got) != 1 {
		t.Fatalf("result should take priority over data, got %d items", len(got))
	}
}

func TestExtractListNoMatch(t *testing.T) {
	if got := ExtractList(decodeAny(t, `{"foo": "bar"}`), "test"); got != nil {
		t.Errorf("expected nil for unknown shape, got %v", got)
	}
	if got := ExtractList(decodeAny(t, `"just a string"`), "test"); got != nil {
		t.Errorf("expected nil for scalar, got %v", got)
	}
}

func TestExtractObjectArrayElementZero(t *testing.T) {
	obj := ExtractObject(decodeAny(t, `[{"name":"first"},{"name":"second"}]`), "test")
	if obj == nil {
		t.Fatal("expected object from array")
	}
	if s := obj.String("name"); s == nil || *s != "first" {
		t.Errorf("expected first element, got %v", s)
	}
}

func TestExtractObjectNested(t *testing.T) {
	obj := ExtractObject(decodeAny(t, `{"data": {"name": "x"}}`), "test")
	if obj == nil || obj.String("name") == nil {
		t.Fatal("expected nested data object")
	}
	bare := ExtractObject(decodeAny(t, `{"name": "y"}`), "test")
	if bare == nil || *bare.String("name") != "y" {
		t.Fatal("expected bare object passthrough")
	}
}

func TestObjectFloatCoercion(t *testing.T) {
	obj := Decode([]byte(`{
		"num": 1.5,
		"str": "2,500.25",
		"pct": "12.3%",
		"empty": "",
		"bad": "abc",
		"null": null
	}`))
	if f := obj.Float("num"); f == nil || *f != 1.5 {
		t.Errorf("num = %v", f)
	}
	if f := obj.Float("str"); f == nil || *f != 2500.25 {
		t.Errorf("str = %v", f)
	}
	if f := obj.Float("pct"); f == nil || *f != 12.3 {
		t.Errorf("pct = %v", f)
	}
	for _, key := range []string{"empty", "bad", "null", "missing"} {
		if f := obj.Float(key); f != nil {
			t.Errorf("%s should be nil, got %v", key, *f)
		}
	}
}

func TestObjectStringRendersNumbers(t *testing.T) {
	obj := Decode([]byte(`{"supply": 1000000, "name": "tok", "empty": ""}`))
	if s := obj.String("supply"); s == nil || *s != "1000000" {
		t.Errorf("supply = %v", s)
	}
	if s := obj.String("name"); s == nil || *s != "tok" {
		t.Errorf("name = %v", s)
	}
	if s := obj.String("empty"); s != nil {
		t.Errorf("empty string should be nil, got %q", *s)
	}
}

func TestObjectNilReceiver(t *testing.T) {
	var obj Object
	if obj.Float("x") != nil || obj.String("x") != nil || obj.Object("x") != nil {
		t.Error("nil object accessors should return nil")
	}
}
