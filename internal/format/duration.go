// Package format renders wall-clock quantities for progress reports.
package format

import "fmt"

// Duration renders a second count as a human-readable string. The grammar
// is deliberately uneven (it matches the reference tables used by long-lived
// runs): long durations collapse to days, mid-range durations keep an hour
// or minute remainder, and "1 hour N minutes" stays plural even for N=1.
func Duration(secs uint64) string {
	mins := secs / 60
	hours := mins / 60
	mins = mins % 60
	days := hours / 24

	switch {
	case days > 15:
		// round to nearest day
		return fmt.Sprintf("%d days", (hours/12+1)/2)
	case days >= 2:
		switch hours % 24 {
		case 0:
			return fmt.Sprintf("%d days", days)
		case 1:
			return fmt.Sprintf("%d days 1 hour", days)
		default:
			return fmt.Sprintf("%d days %d hours", days, hours%24)
		}
	case hours > 19:
		return fmt.Sprintf("%d hours", hours)
	case hours == 0 && mins == 0:
		return fmt.Sprintf("%d seconds", secs)
	case hours == 0 && mins == 1 && secs == 61:
		return fmt.Sprintf("1 minute %d second", secs%60)
	case hours == 0 && mins == 1:
		return fmt.Sprintf("1 minute %d seconds", secs%60)
	case hours == 0:
		return fmt.Sprintf("%d minutes", mins)
	case hours == 1 && mins == 0:
		return "1 hour"
	case hours == 1:
		return fmt.Sprintf("1 hour %d minutes", mins)
	case mins == 0:
		return fmt.Sprintf("%d hours", hours)
	case mins == 1:
		return fmt.Sprintf("%d hours 1 minute", hours)
	default:
		return fmt.Sprintf("%d hours %d minutes", hours, mins)
	}
}
