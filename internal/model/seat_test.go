package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatDecodesBothShapes(t *testing.T) {
	var seats []Seat
	body := `[
		{"id":1,"row":"A","number":3,"type":"vip","is_booked":true},
		{"id":2,"seat_row":"B","seat_number":7,"seat_type":"premium"},
		{"id":3,"row":"C","number":1}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &seats))

	assert.Equal(t, Seat{ID: 1, Row: "A", Number: 3, Type: SeatVIP, IsBooked: true}, seats[0])
	assert.Equal(t, Seat{ID: 2, Row: "B", Number: 7, Type: SeatPremium}, seats[1])
	assert.Equal(t, SeatStandard, seats[2].Type)
}

func TestShowtimeSummary(t *testing.T) {
	st := Showtime{
		StartTime:  "2025-03-01T19:30:00Z",
		Movie:      &Movie{Title: "Dune", DurationMinutes: 166, Type: "IMAX"},
		Auditorium: &Auditorium{Name: "Hall 1", Cinema: &Cinema{Name: "Legend"}},
	}
	sum := st.Summary()
	assert.Equal(t, "Dune", sum.MovieTitle)
	assert.Equal(t, "IMAX", sum.Format)
	assert.Equal(t, "Hall 1", sum.AuditoriumName)
	assert.Equal(t, "Legend", sum.CinemaName)
	assert.Equal(t, 166, sum.Duration)
}
