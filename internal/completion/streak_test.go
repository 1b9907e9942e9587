package completion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 14, 30, 0, 0, time.UTC)
}

func TestNextStreakFirstPractice(t *testing.T) {
	got := NextStreak(0, nil, day(2026, 3, 10))
	assert.Equal(t, 1, got)
}

func TestNextStreakSameDayUnchanged(t *testing.T) {
	last := day(2026, 3, 10)
	got := NextStreak(4, &last, day(2026, 3, 10))
	assert.Equal(t, 4, got)
}

func TestNextStreakSameDayWithZeroCurrent(t *testing.T) {
	// A same-day event never leaves the streak at zero.
	last := day(2026, 3, 10)
	got := NextStreak(0, &last, day(2026, 3, 10))
	assert.Equal(t, 1, got)
}

func TestNextStreakConsecutiveDayIncrements(t *testing.T) {
	last := day(2026, 3, 10)
	got := NextStreak(4, &last, day(2026, 3, 11))
	assert.Equal(t, 5, got)
}

func TestNextStreakGapResets(t *testing.T) {
	last := day(2026, 3, 10)
	got := NextStreak(9, &last, day(2026, 3, 13))
	assert.Equal(t, 1, got)
}

func TestNextStreakComparesCalendarDaysNotHours(t *testing.T) {
	// 23:00 yesterday to 01:00 today is two hours but one calendar day.
	last := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC)
	got := NextStreak(2, &last, now)
	assert.Equal(t, 3, got)
}

func TestLongestStreakRunningMax(t *testing.T) {
	assert.Equal(t, 7, LongestStreak(7, 3))
	assert.Equal(t, 8, LongestStreak(7, 8))
	assert.Equal(t, 1, LongestStreak(0, 1))
}
