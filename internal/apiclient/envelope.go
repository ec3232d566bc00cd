package apiclient

import (
	"bytes"
	"encoding/json"

	"eduadmin/internal/entity"
)

// UnwrapList extracts a collection from a response that may be a bare array,
// {"data": [...]} or {"<key>": [...]} for any of keys. Anything else, including
// an empty body, is an empty collection. Non-object elements are dropped.
func UnwrapList(raw json.RawMessage, keys ...string) []entity.Record {
	out := []entity.Record{}
	if len(raw) == 0 {
		return out
	}
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return out
	}
	list, ok := v.([]interface{})
	if !ok {
		obj, isObj := v.(map[string]interface{})
		if !isObj {
			return out
		}
		for _, key := range append([]string{"data"}, keys...) {
			if l, found := obj[key].([]interface{}); found {
				list = l
				break
			}
		}
	}
	for _, item := range list {
		if rec, isObj := item.(map[string]interface{}); isObj {
			out = append(out, entity.Record(rec))
		}
	}
	return out
}

// UnwrapObject extracts a single object from a response that may wrap it in
// {"data": {...}} or {"<key>": {...}}. Missing or non-object payloads yield nil.
func UnwrapObject(raw json.RawMessage, keys ...string) entity.Record {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil
	}
	for _, key := range append([]string{"data"}, keys...) {
		if inner, ok := obj[key].(map[string]interface{}); ok {
			return entity.Record(inner)
		}
	}
	return entity.Record(obj)
}
