// Package market knows when the exchange is trading.
package market

import (
	"log/slog"
	"time"
)

// Calendar describes a single exchange session. Open and Close are offsets
// from local midnight; the session is [Open, Close). Holidays are not modelled.
type Calendar struct {
	Location *time.Location
	Open     time.Duration
	Close    time.Duration
}

// NewYorkCalendar returns the NYSE/Nasdaq regular session, 09:30 to 16:00
// America/New_York.
func NewYorkCalendar() Calendar {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		slog.Warn("tzdata unavailable, using fixed UTC-5", "error", err)
		loc = time.FixedZone("EST", -5*60*60)
	}
	return Calendar{
		Location: loc,
		Open:     9*time.Hour + 30*time.Minute,
		Close:    16 * time.Hour,
	}
}

// IsOpen reports whether now falls inside a weekday session.
func (c Calendar) IsOpen(now time.Time) bool {
	local := now.In(c.Location)

	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}

	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.Location)
	open := midnight.Add(c.Open)
	end := midnight.Add(c.Close)

	return !local.Before(open) && local.Before(end)
}
