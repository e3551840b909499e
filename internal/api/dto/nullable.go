package dto

import (
	"encoding/json"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Nullable tracks whether a JSON field was present, so an explicit null can
// clear a value while an absent field leaves it alone.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON records presence and decodes non-null values.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// ParseDate parses an optional yyyy-mm-dd string. Blank means no date.
func ParseDate(v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	parsed, err := time.Parse(DateLayout, *v)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// FormatDate renders an optional date.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
