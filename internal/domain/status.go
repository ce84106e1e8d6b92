package domain

import (
	"database/sql/driver"
	"encoding"
	"encoding/json"
	"fmt"
)

// Status is the coarse learning status of an item.
type Status int

// Possible status values.
const (
	StatusNew Status = iota + 1
	StatusLearning
	StatusMastered
)

var (
	statusNames  = [...]string{StatusNew: "new", StatusLearning: "learning", StatusMastered: "mastered"}
	statusByName = map[string]Status{
		"new":      StatusNew,
		"learning": StatusLearning,
		"mastered": StatusMastered,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Status(0)
	_ json.Marshaler           = Status(0)
	_ json.Unmarshaler         = (*Status)(nil)
	_ encoding.TextMarshaler   = Status(0)
	_ encoding.TextUnmarshaler = (*Status)(nil)
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s >= StatusNew && s <= StatusMastered
}

// String returns the lowercase status name. Invalid values render as "Status(n)".
func (s Status) String() string {
	if s.Valid() {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus converts a status name into a Status.
func ParseStatus(name string) (Status, error) {
	s, ok := statusByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, name)
	}
	return s, nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	return s.UnmarshalText([]byte(name))
}

// Value implements driver.Valuer, storing the status by name.
func (s Status) Value() (driver.Value, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
}

// Scan implements sql.Scanner for status names stored as text.
func (s *Status) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: cannot scan %T into Status", ErrInvalidStatus, src)
	}
}
