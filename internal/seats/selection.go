// Package seats implements seat selection for one showtime: toggling seats,
// the per-booking limit, pricing and the hand-off to checkout.
package seats

import (
	"errors"
	"slices"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-web/internal/display"
	"github.com/iliyamo/cinema-web/internal/model"
)

// MaxSeats is the most seats one booking may hold.
const MaxSeats = 10

var (
	ErrSeatBooked     = errors.New("seats: seat already booked")
	ErrUnknownSeat    = errors.New("seats: seat not in showtime")
	ErrSelectionLimit = errors.New("seats: selection limit reached")
	ErrEmptySelection = errors.New("seats: empty selection")
)

// Message returns the text shown to the customer for a selection error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrSelectionLimit):
		return "Maximum 10 seats per booking"
	case errors.Is(err, ErrEmptySelection):
		return "Please select at least one seat"
	case errors.Is(err, ErrSeatBooked):
		return "This seat is already booked"
	case errors.Is(err, ErrUnknownSeat):
		return "Seat not found"
	}
	return "Something went wrong. Please try again."
}

// upcharges are added to the showtime base price per seat type.
var upcharges = map[model.SeatType]decimal.Decimal{
	model.SeatStandard: decimal.Zero,
	model.SeatVIP:      decimal.NewFromInt(5),
	model.SeatPremium:  decimal.NewFromInt(3),
}

// Upcharge returns the surcharge of a seat type; unknown types cost nothing
// extra.
func Upcharge(t model.SeatType) decimal.Decimal {
	if d, ok := upcharges[t]; ok {
		return d
	}
	return decimal.Zero
}

// Selection is the set of seats picked for one showtime, in pick order.
type Selection struct {
	showtime *model.Showtime
	byID     map[uint64]model.Seat
	picked   []uint64
}

func NewSelection(st *model.Showtime) *Selection {
	byID := make(map[uint64]model.Seat, len(st.Seats))
	for _, s := range st.Seats {
		byID[s.ID] = s
	}
	return &Selection{showtime: st, byID: byID}
}

// Restore re-applies previously picked ids, skipping seats that are unknown
// or booked since.
func (s *Selection) Restore(ids []uint64) {
	s.picked = s.picked[:0]
	for _, id := range ids {
		seat, ok := s.byID[id]
		if !ok || seat.IsBooked || slices.Contains(s.picked, id) || len(s.picked) == MaxSeats {
			continue
		}
		s.picked = append(s.picked, id)
	}
}

// Toggle selects or deselects a seat and reports whether it is now selected.
// Booked seats are never selectable and an eleventh seat is rejected with
// ErrSelectionLimit; the selection is unchanged on error.
func (s *Selection) Toggle(id uint64) (bool, error) {
	seat, ok := s.byID[id]
	if !ok {
		return false, ErrUnknownSeat
	}
	if seat.IsBooked {
		return false, ErrSeatBooked
	}
	if i := slices.Index(s.picked, id); i >= 0 {
		s.picked = slices.Delete(s.picked, i, i+1)
		return false, nil
	}
	if len(s.picked) >= MaxSeats {
		return false, ErrSelectionLimit
	}
	s.picked = append(s.picked, id)
	return true, nil
}

// IDs returns the selected seat ids in pick order.
func (s *Selection) IDs() []uint64 { return slices.Clone(s.picked) }

// Seats returns the selected seats in pick order.
func (s *Selection) Seats() []model.Seat {
	out := make([]model.Seat, 0, len(s.picked))
	for _, id := range s.picked {
		out = append(out, s.byID[id])
	}
	return out
}

// Price is the base price of the showtime plus the seat type upcharge.
func (s *Selection) Price(seat model.Seat) decimal.Decimal {
	return s.showtime.Price.Add(Upcharge(seat.Type))
}

// Total sums the price of every selected seat.
func (s *Selection) Total() decimal.Decimal {
	total := decimal.Zero
	for _, seat := range s.Seats() {
		total = total.Add(s.Price(seat))
	}
	return total
}

// Confirm builds the pending booking handed to checkout.
func (s *Selection) Confirm() (model.PendingBooking, error) {
	if len(s.picked) == 0 {
		return model.PendingBooking{}, ErrEmptySelection
	}
	labels := make([]string, 0, len(s.picked))
	for _, seat := range s.Seats() {
		labels = append(labels, display.SeatLabel(seat.Row, seat.Number))
	}
	return model.PendingBooking{
		ShowtimeID: s.showtime.ID,
		SeatIDs:    s.IDs(),
		Seats:      labels,
		TotalPrice: s.Total(),
		Showtime:   s.showtime.Summary(),
	}, nil
}

// SeatView is one cell of the rendered seat map.
type SeatView struct {
	model.Seat
	Label      string          `json:"label"`
	Price      decimal.Decimal `json:"price"`
	Selected   bool            `json:"selected"`
	Selectable bool            `json:"selectable"`
}

// Row groups the seats of one row, ordered by number.
type Row struct {
	Label string     `json:"label"`
	Seats []SeatView `json:"seats"`
}

// Rows lays the seat map out by row. Rows sort A..Z, AA..; seats by number.
func (s *Selection) Rows() []Row {
	byRow := map[string][]SeatView{}
	for _, seat := range s.showtime.Seats {
		selected := slices.Contains(s.picked, seat.ID)
		byRow[seat.Row] = append(byRow[seat.Row], SeatView{
			Seat:       seat,
			Label:      display.SeatLabel(seat.Row, seat.Number),
			Price:      s.Price(seat),
			Selected:   selected,
			Selectable: !seat.IsBooked && (selected || len(s.picked) < MaxSeats),
		})
	}
	labels := make([]string, 0, len(byRow))
	for label := range byRow {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if len(labels[i]) != len(labels[j]) {
			return len(labels[i]) < len(labels[j])
		}
		return labels[i] < labels[j]
	})

	rows := make([]Row, 0, len(labels))
	for _, label := range labels {
		views := byRow[label]
		sort.Slice(views, func(i, j int) bool { return views[i].Number < views[j].Number })
		rows = append(rows, Row{Label: label, Seats: views})
	}
	return rows
}
