package snapshot

import "time"

// Policy decides how long a snapshot stays restorable. The zero value keeps
// snapshots until the end of the UTC calendar day they were taken on.
type Policy struct {
	// TTL is a fixed recovery window. Zero selects end-of-day expiry.
	TTL time.Duration
	// Location defines calendar days for end-of-day expiry. Nil means UTC.
	Location *time.Location
}

// EndOfDay keeps snapshots until local midnight in loc.
func EndOfDay(loc *time.Location) Policy {
	return Policy{Location: loc}
}

// FixedTTL keeps snapshots for ttl after capture.
func FixedTTL(ttl time.Duration) Policy {
	return Policy{TTL: ttl}
}

// NewPolicy maps the configured TTL to a policy: zero means end of day.
func NewPolicy(ttl time.Duration, loc *time.Location) Policy {
	if ttl > 0 {
		return FixedTTL(ttl)
	}
	return EndOfDay(loc)
}

// ExpiresAt returns the first instant at which a snapshot taken at takenAt
// is no longer restorable.
func (p Policy) ExpiresAt(takenAt time.Time) time.Time {
	if p.TTL > 0 {
		return takenAt.Add(p.TTL)
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	local := takenAt.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// Expired reports whether a snapshot taken at takenAt is past its window at now.
func (p Policy) Expired(takenAt, now time.Time) bool {
	return !now.Before(p.ExpiresAt(takenAt))
}
