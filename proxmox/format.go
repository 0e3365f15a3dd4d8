package proxmox

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// GiB converts bytes to gibibytes rounded to two decimals.
func GiB(bytes float64) float64 {
	return round2(bytes / (1 << 30))
}

// MiB converts bytes to mebibytes rounded to two decimals.
func MiB(bytes float64) float64 {
	return round2(bytes / (1 << 20))
}

// Percent computes used/total as a percentage with one decimal. A zero
// total yields 0 rather than NaN, so freshly provisioned or stopped
// resources read as unused instead of poisoning the whole row.
func Percent(used, total float64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(used/total*1000) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Uptime renders seconds as "Xd Yh Zm", omitting zero-valued larger
// units: a zero unit is never printed while a nonzero smaller one
// follows ("1d 5m", not "1d 0h 5m"). Minutes always print, so zero
// seconds renders as "0m".
func Uptime(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}

	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%dm", minutes))

	return strings.Join(parts, " ")
}

// EpochTime renders a unix timestamp as "Jan 02 15:04" in local time.
// Zero stays empty so unstarted tasks don't show the epoch.
func EpochTime(epoch int64) string {
	if epoch == 0 {
		return ""
	}
	return time.Unix(epoch, 0).Format("Jan 02 15:04")
}
