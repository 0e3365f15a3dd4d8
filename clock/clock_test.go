package clock

import (
	"strings"
	"testing"
	"time"
)

// fixed reference instant: 2024-03-15 18:30:45 UTC.
var reference = time.Date(2024, 3, 15, 18, 30, 45, 0, time.UTC)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q) error = %v", name, err)
	}
	return loc
}

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name      string
		explicit  string
		userTZ    string
		defaultTZ string
		want      string
	}{
		{
			name:      "explicit wins over user and default",
			explicit:  "Asia/Tokyo",
			userTZ:    "Europe/London",
			defaultTZ: "America/New_York",
			want:      "Asia/Tokyo",
		},
		{
			name:      "user wins over default",
			explicit:  "",
			userTZ:    "Europe/London",
			defaultTZ: "America/New_York",
			want:      "Europe/London",
		},
		{
			name:      "default when nothing else set",
			explicit:  "",
			userTZ:    "",
			defaultTZ: "America/New_York",
			want:      "America/New_York",
		},
		{
			name:      "UTC as last resort",
			explicit:  "",
			userTZ:    "",
			defaultTZ: "",
			want:      "UTC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := Resolve(tt.explicit, tt.userTZ, tt.defaultTZ)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if loc.String() != tt.want {
				t.Errorf("Resolve() = %q, want %q", loc.String(), tt.want)
			}
		})
	}
}

func TestResolveInvalidTimezone(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
	}{
		{"made up zone", "Mars/Olympus_Mons"},
		{"typo", "America/NewYork"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.explicit, "", "UTC")
			if err == nil {
				t.Fatal("Resolve() with invalid timezone should fail")
			}
			if !strings.Contains(err.Error(), "invalid timezone") {
				t.Errorf("error = %q, want 'invalid timezone' prefix", err.Error())
			}
		})
	}
}

func TestCurrentDate(t *testing.T) {
	got := CurrentDate(reference, time.UTC)
	want := "Today's date is Friday, March 15, 2024 (UTC)"
	if got != want {
		t.Errorf("CurrentDate() = %q, want %q", got, want)
	}
}

func TestCurrentTime(t *testing.T) {
	tests := []struct {
		name string
		zone string
		want string
	}{
		{
			name: "UTC",
			zone: "UTC",
			want: "Current Time: 18:30:45 UTC (UTC+00:00)",
		},
		{
			name: "eastern daylight time",
			zone: "America/New_York",
			want: "Current Time: 14:30:45 EDT (UTC-04:00)",
		},
		{
			name: "tokyo",
			zone: "Asia/Tokyo",
			want: "Current Time: 03:30:45 JST (UTC+09:00)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CurrentTime(reference, mustLocation(t, tt.zone))
			if got != tt.want {
				t.Errorf("CurrentTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCurrentDateTime(t *testing.T) {
	got := CurrentDateTime(reference, mustLocation(t, "America/New_York"))
	want := "Friday, March 15, 2024 at 14:30:45 EDT (UTC-04:00)"
	if got != want {
		t.Errorf("CurrentDateTime() = %q, want %q", got, want)
	}
}

func TestDatePastMidnightBoundary(t *testing.T) {
	// 18:30 UTC on the 15th is already the 16th in Tokyo.
	got := CurrentDate(reference, mustLocation(t, "Asia/Tokyo"))
	if !strings.Contains(got, "Saturday, March 16, 2024") {
		t.Errorf("CurrentDate() in Tokyo = %q, want the 16th", got)
	}
}
