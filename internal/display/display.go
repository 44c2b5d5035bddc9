// Package display formats values for the rendered views.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UrgentBelow is the remaining time under which the countdown is flagged.
const UrgentBelow = 120 * time.Second

// Money renders an amount in dollars with exactly two decimals: "$25.00".
func Money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// Countdown renders whole seconds as M:SS. Negative input renders 0:00.
func Countdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Urgent reports whether the remaining time should be highlighted.
func Urgent(seconds int) bool {
	return time.Duration(seconds)*time.Second < UrgentBelow
}

// SeatLabel joins row and number: "A" + 7 = "A7".
func SeatLabel(row string, number int) string {
	return fmt.Sprintf("%s%d", strings.ToUpper(row), number)
}

// layouts accepted from the backend, most specific first.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses a backend timestamp in any of the accepted layouts.
func ParseTime(s string) (time.Time, bool) {
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateTime renders "Mon, Jan 2 2006 3:04 PM" or the input unchanged when it
// cannot be parsed.
func DateTime(s string, loc *time.Location) string {
	t, ok := ParseTime(s)
	if !ok {
		return s
	}
	return t.In(loc).Format("Mon, Jan 2 2006 3:04 PM")
}

// Clock renders the time of day: "7:30 PM".
func Clock(s string, loc *time.Location) string {
	t, ok := ParseTime(s)
	if !ok {
		return s
	}
	return t.In(loc).Format("3:04 PM")
}

// DayLabel names the calendar day of s relative to now: "Today", "Tomorrow"
// or "Mon, Jan 2".
func DayLabel(s string, now time.Time, loc *time.Location) string {
	t, ok := ParseTime(s)
	if !ok {
		return s
	}
	t, now = t.In(loc), now.In(loc)
	day := func(x time.Time) time.Time { return time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, loc) }
	switch day(t).Sub(day(now)) {
	case 0:
		return "Today"
	case 24 * time.Hour:
		return "Tomorrow"
	}
	return t.Format("Mon, Jan 2")
}

// DateKey returns the YYYY-MM-DD of s in loc, used to group showtimes by day.
func DateKey(s string, loc *time.Location) string {
	t, ok := ParseTime(s)
	if !ok {
		return s
	}
	return t.In(loc).Format("2006-01-02")
}

// Duration renders minutes as "2h 46m".
func Duration(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
