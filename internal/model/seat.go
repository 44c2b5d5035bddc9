package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// SeatType drives the per-seat upcharge.
type SeatType string

const (
	SeatStandard SeatType = "standard"
	SeatVIP      SeatType = "vip"
	SeatPremium  SeatType = "premium"
)

// Seat is the canonical seat shape used everywhere in the client:
// {id, row, number, type, is_booked}. Backend payloads that use
// seat_row/seat_number are folded into it on decode.
type Seat struct {
	ID       uint64   `json:"id"`
	Row      string   `json:"row"`
	Number   int      `json:"number"`
	Type     SeatType `json:"type"`
	IsBooked bool     `json:"is_booked"`
}

// UnmarshalJSON accepts both the canonical and the seat_row/seat_number shape.
func (s *Seat) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID         uint64          `json:"id"`
		Row        string          `json:"row"`
		Number     json.RawMessage `json:"number"`
		SeatRow    string          `json:"seat_row"`
		SeatNumber json.RawMessage `json:"seat_number"`
		Type       SeatType        `json:"type"`
		SeatType   SeatType        `json:"seat_type"`
		IsBooked   bool            `json:"is_booked"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = Seat{ID: raw.ID, Row: raw.Row, Type: raw.Type, IsBooked: raw.IsBooked}
	if s.Row == "" {
		s.Row = raw.SeatRow
	}
	num := raw.Number
	if len(num) == 0 || string(num) == "null" {
		num = raw.SeatNumber
	}
	s.setNumber(num)
	if s.Type == "" {
		s.Type = raw.SeatType
	}
	if s.Type == "" {
		s.Type = SeatStandard
	}
	return nil
}

// setNumber accepts 7, "7" and a combined label such as "A7".
func (s *Seat) setNumber(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	if n, err := strconv.Atoi(string(raw)); err == nil {
		s.Number = n
		return
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return
	}
	if n, err := strconv.Atoi(str); err == nil {
		s.Number = n
		return
	}
	i := strings.IndexFunc(str, func(r rune) bool { return r >= '0' && r <= '9' })
	if i <= 0 {
		return
	}
	if n, err := strconv.Atoi(str[i:]); err == nil {
		s.Number = n
		if s.Row == "" {
			s.Row = str[:i]
		}
	}
}
