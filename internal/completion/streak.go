package completion

import "time"

// NextStreak applies the streak rule for a practice event on today:
// practicing again the same day keeps the streak, practicing exactly one
// calendar day after the last practice extends it, and any longer gap (or
// no prior practice) starts over at 1. Calendar days are compared in the
// dates' own locations.
func NextStreak(current int, lastPractice *time.Time, today time.Time) int {
	if lastPractice == nil {
		return 1
	}

	last := truncateToDay(*lastPractice)
	now := truncateToDay(today)

	switch daysBetween(last, now) {
	case 0:
		if current < 1 {
			return 1
		}
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}

// LongestStreak is the running maximum of observed streaks.
func LongestStreak(longest, current int) int {
	if current > longest {
		return current
	}
	return longest
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
