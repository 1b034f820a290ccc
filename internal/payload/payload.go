// Package payload provides defensive accessors for loosely typed provider
// responses. Providers nest the interesting list or object under different
// keys depending on endpoint and API revision, so extraction walks a fixed
// priority order of known shapes and reports which one matched.
package payload

import (
	"encoding/json"
	"strconv"
	"strings"

	"tokenlens/logger"
)

var log = logger.GetLogger()

// Object is a decoded JSON object with nil-tolerant typed accessors.
type Object map[string]interface{}

// Decode parses raw JSON into an Object. Non-object payloads return nil.
func Decode(raw []byte) Object {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	if m, ok := v.(map[string]interface{}); ok {
		return Object(m)
	}
	return nil
}

func (o Object) Get(key string) (interface{}, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o[key]
	return v, ok
}

// Float returns the value as a float64, coercing numeric strings. Provider
// payloads switch between numbers and strings across revisions.
func (o Object) Float(key string) *float64 {
	v, ok := o.Get(key)
	if !ok || v == nil {
		return nil
	}
	return coerceFloat(v)
}

// CoerceFloat applies the same coercion rules as Object.Float to a raw
// decoded value.
func CoerceFloat(v interface{}) *float64 {
	return coerceFloat(v)
}

func coerceFloat(v interface{}) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return &f
		}
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		s = strings.TrimSuffix(s, "%")
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	}
	return nil
}

// Int returns the value as an int64, coercing floats and numeric strings.
func (o Object) Int(key string) *int64 {
	f := o.Float(key)
	if f == nil {
		return nil
	}
	i := int64(*f)
	return &i
}

// String returns the value as a string. Numbers are rendered compactly so a
// supply reported as a number still round-trips.
func (o Object) String(key string) *string {
	v, ok := o.Get(key)
	if !ok || v == nil {
		return nil
	}
	switch s := v.(type) {
	case string:
		if s == "" {
			return nil
		}
		return &s
	case float64:
		str := strconv.FormatFloat(s, 'f', -1, 64)
		return &str
	case json.Number:
		str := s.String()
		return &str
	}
	return nil
}

func (o Object) Bool(key string) *bool {
	v, ok := o.Get(key)
	if !ok || v == nil {
		return nil
	}
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}

// Object returns a nested object, or nil when the key is absent or holds a
// different shape.
func (o Object) Object(key string) Object {
	v, ok := o.Get(key)
	if !ok {
		return nil
	}
	if m, ok := v.(map[string]interface{}); ok {
		return Object(m)
	}
	return nil
}

// Strings returns the value as a string slice, skipping non-string items.
func (o Object) Strings(key string) []string {
	v, ok := o.Get(key)
	if !ok {
		return nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// listExtractor probes one known location for the payload list.
type listExtractor struct {
	name string
	fn   func(interface{}) ([]interface{}, bool)
}

// listExtractors is the fixed priority order for locating a list inside a
// provider response: result, data.items, items, data, then a bare array.
// The bare items shape appears once the transport layer has already
// stripped a success envelope.
var listExtractors = []listExtractor{
	{"result", func(v interface{}) ([]interface{}, bool) { return nestedList(v, "result") }},
	{"data.items", func(v interface{}) ([]interface{}, bool) {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, false
		}
		return nestedList(m["data"], "items")
	}},
	{"items", func(v interface{}) ([]interface{}, bool) { return nestedList(v, "items") }},
	{"data", func(v interface{}) ([]interface{}, bool) { return nestedList(v, "data") }},
	{"array", func(v interface{}) ([]interface{}, bool) {
		items, ok := v.([]interface{})
		return items, ok
	}},
}

func nestedList(v interface{}, key string) ([]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	items, ok := m[key].([]interface{})
	return items, ok
}

// ExtractList locates the payload list inside a decoded response, trying
// each known shape in priority order. The first match wins and is logged;
// no match returns nil.
func ExtractList(v interface{}, component string) []Object {
	for _, ex := range listExtractors {
		items, ok := ex.fn(v)
		if !ok {
			continue
		}
		log.WithComponent(component).WithFields(logger.Fields{
			"shape": ex.name,
			"count": len(items),
		}).Debug("payload list extracted")
		return toObjects(items)
	}
	log.WithComponent(component).Warn("no known payload list shape matched")
	return nil
}

// ExtractObject locates the payload object inside a decoded response. An
// array response yields its first element, matching providers that wrap a
// single object in a list.
func ExtractObject(v interface{}, component string) Object {
	probes := []struct {
		name string
		fn   func(interface{}) (Object, bool)
	}{
		{"data", func(v interface{}) (Object, bool) { return nestedObject(v, "data") }},
		{"result", func(v interface{}) (Object, bool) { return nestedObject(v, "result") }},
		{"array[0]", func(v interface{}) (Object, bool) {
			items, ok := v.([]interface{})
			if !ok || len(items) == 0 {
				return nil, false
			}
			m, ok := items[0].(map[string]interface{})
			return Object(m), ok
		}},
		{"object", func(v interface{}) (Object, bool) {
			m, ok := v.(map[string]interface{})
			return Object(m), ok
		}},
	}
	for _, p := range probes {
		if obj, ok := p.fn(v); ok {
			log.WithComponent(component).WithFields(logger.Fields{"shape": p.name}).Debug("payload object extracted")
			return obj
		}
	}
	log.WithComponent(component).Warn("no known payload object shape matched")
	return nil
}

func nestedObject(v interface{}, key string) (Object, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	inner, ok := m[key].(map[string]interface{})
	return Object(inner), ok
}

func toObjects(items []interface{}) []Object {
	out := make([]Object, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, Object(m))
		}
	}
	return out
}
