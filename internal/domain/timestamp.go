package domain

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is either Unset (the event never happened) or At a point in time.
// The zero value is Unset.
type Timestamp struct {
	at  time.Time
	set bool
}

var (
	_ sql.Scanner      = (*Timestamp)(nil)
	_ driver.Valuer    = Timestamp{}
	_ json.Marshaler   = Timestamp{}
	_ json.Unmarshaler = (*Timestamp)(nil)
)

// Unset returns a Timestamp that records that the event never happened.
func Unset() Timestamp {
	return Timestamp{}
}

// At returns a Timestamp set to t, normalized to UTC.
func At(t time.Time) Timestamp {
	return Timestamp{at: t.UTC(), set: true}
}

// IsSet reports whether the timestamp holds a time.
func (ts Timestamp) IsSet() bool {
	return ts.set
}

// Time returns the held time and whether it is set.
func (ts Timestamp) Time() (time.Time, bool) {
	return ts.at, ts.set
}

// Before reports whether ts is set and strictly before t.
func (ts Timestamp) Before(t time.Time) bool {
	return ts.set && ts.at.Before(t)
}

// Equal reports whether both timestamps are unset or hold the same instant.
func (ts Timestamp) Equal(other Timestamp) bool {
	if ts.set != other.set {
		return false
	}
	return !ts.set || ts.at.Equal(other.at)
}

// String renders the timestamp as RFC3339 or "unset".
func (ts Timestamp) String() string {
	if !ts.set {
		return "unset"
	}
	return ts.at.Format(time.RFC3339)
}

// Value implements driver.Valuer. Unset maps to NULL.
func (ts Timestamp) Value() (driver.Value, error) {
	if !ts.set {
		return nil, nil
	}
	return ts.at, nil
}

// Scan implements sql.Scanner. It accepts NULL, time.Time and unix
// milliseconds stored as integers.
func (ts *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts = Unset()
	case time.Time:
		*ts = At(v)
	case int64:
		*ts = At(time.UnixMilli(v))
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
	return nil
}

// MarshalJSON renders Unset as null.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.set {
		return []byte("null"), nil
	}
	return json.Marshal(ts.at)
}

// UnmarshalJSON accepts null or an RFC3339 time.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ts = Unset()
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	*ts = At(t)
	return nil
}
