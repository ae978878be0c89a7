package analytics

import (
	"fmt"
	"strings"
)

// FormatDuration переводит секунды в вид "1d 2h 3m".
// Нулевые дни и часы опускаются, минуты выводятся всегда.
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "N/A"
	}

	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	fmt.Fprintf(&b, "%dm", minutes)

	return b.String()
}
