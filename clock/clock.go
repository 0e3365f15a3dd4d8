// Package clock renders the current date and time for arbitrary IANA
// timezones. Everything is computed locally from the system tz database;
// no network calls.
package clock

import (
	"fmt"
	"time"
)

// Resolve picks the effective timezone through the override chain:
// explicit argument, then user valve, then default valve. An unknown
// identifier fails at LoadLocation.
func Resolve(explicit, userTZ, defaultTZ string) (*time.Location, error) {
	name := explicit
	if name == "" {
		name = userTZ
	}
	if name == "" {
		name = defaultTZ
	}
	if name == "" {
		name = "UTC"
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// CurrentDate renders "Today's date is Monday, January 02, 2006 (MST)".
func CurrentDate(now time.Time, loc *time.Location) string {
	t := now.In(loc)
	return fmt.Sprintf("Today's date is %s (%s)",
		t.Format("Monday, January 02, 2006"), t.Format("MST"))
}

// CurrentTime renders "Current Time: 15:04:05 MST (UTC-05:00)".
func CurrentTime(now time.Time, loc *time.Location) string {
	t := now.In(loc)
	return fmt.Sprintf("Current Time: %s %s (UTC%s)",
		t.Format("15:04:05"), t.Format("MST"), t.Format("-07:00"))
}

// CurrentDateTime renders the combined form
// "Monday, January 02, 2006 at 15:04:05 MST (UTC-05:00)".
func CurrentDateTime(now time.Time, loc *time.Location) string {
	t := now.In(loc)
	return fmt.Sprintf("%s %s (UTC%s)",
		t.Format("Monday, January 02, 2006 at 15:04:05"), t.Format("MST"), t.Format("-07:00"))
}
