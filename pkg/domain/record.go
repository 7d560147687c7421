package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is a transient copy of one CMS record.
type Record struct {
	ID     string
	Fields map[string]any
}

// RecordFromMap builds a Record from a decoded GraphQL object.
// Numeric and string ids are both accepted.
func RecordFromMap(m map[string]any) Record {
	r := Record{Fields: make(map[string]any, len(m))}
	for k, v := range m {
		if k == "id" {
			r.ID = scalarString(v)
			continue
		}
		r.Fields[k] = v
	}
	return r
}

// String renders a field for display and form prefill.
// Nested objects render as their id.
func (r Record) String(name string) string {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return ""
	}
	if obj, ok := v.(map[string]any); ok {
		return scalarString(obj["id"])
	}
	return scalarString(v)
}

// Label returns the first non-empty column value, falling back to the id.
func (r Record) Label(k Kind) string {
	for _, c := range k.Columns {
		if s := r.String(c); s != "" {
			return s
		}
	}
	return r.ID
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprint(x)
	}
}
