package entity

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Record is one decoded upstream JSON object. The platform API is not
// consistent about field names across endpoints, so records stay untyped and
// are read through the accessors below.
type Record map[string]any

// String returns the value at key stringified, or "" when absent or not a scalar.
func (r Record) String(key string) string {
	return Stringify(r[key])
}

// Text returns a string field verbatim (no trimming, no number formatting).
func (r Record) Text(key string) string {
	s, _ := r[key].(string)
	return s
}

func (r Record) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case float64:
		return v != 0
	}
	return false
}

func (r Record) Int(key string) (int, bool) {
	switch v := r[key].(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), true
		}
		if f, err := v.Float64(); err == nil {
			return int(f), true
		}
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case json.Number:
		f, _ := v.Float64()
		return f
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	}
	return 0
}

// Object returns the nested object at key, or nil.
func (r Record) Object(key string) Record {
	return asRecord(r[key])
}

// Time parses the value at key; see ParseTime.
func (r Record) Time(key string) (time.Time, bool) {
	return ParseTime(r[key])
}

// Stringify renders an identifier-like value as a string. JSON numbers never use
// exponent notation; nested objects resolve to their own id; whitespace-only
// strings, booleans and nil are empty.
func Stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		s := t.String()
		if strings.ContainsAny(s, ".eE") {
			if f, err := t.Float64(); err == nil {
				return strconv.FormatFloat(f, 'f', -1, 64)
			}
		}
		return s
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case map[string]any:
		return NormalizeID(Record(t), "")
	case Record:
		return NormalizeID(t, "")
	}
	return ""
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps, date-only strings and epoch
// milliseconds (the form a JavaScript Date serializes to when stored raw).
// Timestamps without a zone are read as UTC.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
	case json.Number:
		if ms, err := t.Int64(); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		if ms, err := t.Float64(); err == nil {
			return time.UnixMilli(int64(ms)).UTC(), true
		}
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true
	case time.Time:
		return t, !t.IsZero()
	}
	return time.Time{}, false
}

func asRecord(v any) Record {
	switch t := v.(type) {
	case map[string]any:
		return Record(t)
	case Record:
		return t
	}
	return nil
}

// DisplayName picks the human-readable name of a person, group or course record.
func DisplayName(r Record) string {
	for _, key := range []string{"full_name", "fullName", "name", "title"} {
		if v := strings.TrimSpace(r.Text(key)); v != "" {
			return v
		}
	}
	first := strings.TrimSpace(r.Text("first_name") + r.Text("firstName"))
	last := strings.TrimSpace(r.Text("last_name") + r.Text("lastName"))
	return strings.TrimSpace(first + " " + last)
}
