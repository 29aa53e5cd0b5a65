package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FieldChange records a single before/after pair on a history entry.
type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// FieldChangeList stores the ordered change set of a history entry as JSON.
type FieldChangeList []FieldChange

func (l *FieldChangeList) Scan(src any) error {
	if src == nil {
		*l = FieldChangeList{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return l.parseFromBytes([]byte(v))
	case []byte:
		return l.parseFromBytes(v)
	default:
		return fmt.Errorf("FieldChangeList: unsupported Scan type %T", src)
	}
}

func (l FieldChangeList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal([]FieldChange(l))
	if err != nil {
		return nil, fmt.Errorf("FieldChangeList: marshal: %w", err)
	}
	return string(encoded), nil
}

func (l *FieldChangeList) parseFromBytes(raw []byte) error {
	if len(raw) == 0 {
		*l = FieldChangeList{}
		return nil
	}
	var out []FieldChange
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("FieldChangeList: parse %q: %w", string(raw), err)
	}
	*l = FieldChangeList(out)
	return nil
}
