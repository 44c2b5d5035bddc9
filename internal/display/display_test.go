package display

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "$25.00", Money(decimal.NewFromInt(25)))
	assert.Equal(t, "$10.50", Money(decimal.RequireFromString("10.5")))
	assert.Equal(t, "$0.00", Money(decimal.Zero))
	assert.Equal(t, "-$3.10", Money(decimal.RequireFromString("-3.1")))
}

func TestCountdown(t *testing.T) {
	cases := map[int]string{125: "2:05", 59: "0:59", 600: "10:00", 0: "0:00", -4: "0:00"}
	for in, want := range cases {
		assert.Equal(t, want, Countdown(in), "seconds=%d", in)
	}
}

func TestUrgent(t *testing.T) {
	assert.False(t, Urgent(120))
	assert.True(t, Urgent(119))
	assert.True(t, Urgent(0))
}

func TestDayLabel(t *testing.T) {
	now := time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, "Today", DayLabel("2025-03-01T23:30:00Z", now, time.UTC))
	assert.Equal(t, "Tomorrow", DayLabel("2025-03-02 10:00:00", now, time.UTC))
	assert.Equal(t, "Tue, Mar 4", DayLabel("2025-03-04", now, time.UTC))
	assert.Equal(t, "soon", DayLabel("soon", now, time.UTC))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "A7", SeatLabel("a", 7))
	assert.Equal(t, "2h 46m", Duration(166))
	assert.Equal(t, "45m", Duration(45))
	assert.Equal(t, "2h", Duration(120))
	assert.Equal(t, "7:30 PM", Clock("2025-03-01T19:30:00.000000Z", time.UTC))
	assert.Equal(t, "2025-03-01", DateKey("2025-03-01T19:30:00Z", time.UTC))
}
