package store

import (
	"fmt"
	"time"

	"github.com/roach88/treemig/internal/ir"
)

const timeLayout = time.RFC3339Nano

// marshalDetails converts error details to canonical JSON TEXT.
func marshalDetails(details map[string]string) (string, error) {
	obj := make(ir.IRObject, len(details))
	for k, v := range details {
		obj[k] = ir.IRString(v)
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal details: %w", err)
	}
	return string(data), nil
}

// unmarshalDetails parses details TEXT. Returns nil for an empty object.
func unmarshalDetails(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}

	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal details: %w", err)
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("unmarshal details: expected object, got %T", v)
	}

	details := make(map[string]string, len(obj))
	for k, v := range obj {
		s, ok := v.(ir.IRString)
		if !ok {
			return nil, fmt.Errorf("unmarshal details: %q is %T, expected string", k, v)
		}
		details[k] = string(s)
	}
	return details, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// nullString maps "" to SQL NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
