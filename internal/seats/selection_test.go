package seats

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-web/internal/display"
	"github.com/iliyamo/cinema-web/internal/model"
	"github.com/iliyamo/cinema-web/internal/storage"
)

func showtime(n int) *model.Showtime {
	st := &model.Showtime{
		ID:    3,
		Price: decimal.NewFromInt(10),
		Movie: &model.Movie{Title: "Dune"},
	}
	types := []model.SeatType{model.SeatStandard, model.SeatVIP, model.SeatPremium}
	for i := 0; i < n; i++ {
		st.Seats = append(st.Seats, model.Seat{
			ID:     uint64(i + 1),
			Row:    string(rune('A' + i/10)),
			Number: i%10 + 1,
			Type:   types[i%3],
		})
	}
	return st
}

func TestTotalStandardPlusVIP(t *testing.T) {
	st := showtime(2)
	sel := NewSelection(st)
	for _, id := range []uint64{1, 2} {
		on, err := sel.Toggle(id)
		require.NoError(t, err)
		assert.True(t, on)
	}
	assert.Equal(t, "$25.00", display.Money(sel.Total()))
}

func TestTotalIsSumOfContributions(t *testing.T) {
	st := showtime(12)
	sel := NewSelection(st)
	want := decimal.Zero
	for i := 1; i <= MaxSeats; i++ {
		_, err := sel.Toggle(uint64(i))
		require.NoError(t, err)
		seat := st.Seats[i-1]
		want = want.Add(st.Price).Add(Upcharge(seat.Type))
		assert.True(t, sel.Total().Equal(want), "after %d seats", i)
	}
}

func TestEleventhSeatRejected(t *testing.T) {
	sel := NewSelection(showtime(12))
	for i := 1; i <= MaxSeats; i++ {
		_, err := sel.Toggle(uint64(i))
		require.NoError(t, err)
	}
	before := sel.Total()

	on, err := sel.Toggle(11)
	assert.ErrorIs(t, err, ErrSelectionLimit)
	assert.False(t, on)
	assert.Len(t, sel.IDs(), MaxSeats)
	assert.True(t, sel.Total().Equal(before))
	assert.Equal(t, "Maximum 10 seats per booking", Message(err))

	// Deselecting frees a slot.
	on, err = sel.Toggle(1)
	require.NoError(t, err)
	assert.False(t, on)
	on, err = sel.Toggle(11)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestBookedSeatNeverSelectable(t *testing.T) {
	st := showtime(3)
	st.Seats[1].IsBooked = true
	sel := NewSelection(st)

	_, err := sel.Toggle(2)
	assert.ErrorIs(t, err, ErrSeatBooked)
	assert.Empty(t, sel.IDs())

	_, err = sel.Toggle(99)
	assert.ErrorIs(t, err, ErrUnknownSeat)

	sel.Restore([]uint64{2, 3, 3, 99})
	assert.Equal(t, []uint64{3}, sel.IDs())

	for _, row := range sel.Rows() {
		for _, v := range row.Seats {
			if v.ID == 2 {
				assert.False(t, v.Selectable)
			}
		}
	}
}

func TestConfirm(t *testing.T) {
	sel := NewSelection(showtime(3))
	_, err := sel.Confirm()
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Equal(t, "Please select at least one seat", Message(err))

	_, _ = sel.Toggle(3)
	_, _ = sel.Toggle(1)
	pb, err := sel.Confirm()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), pb.ShowtimeID)
	assert.Equal(t, []uint64{3, 1}, pb.SeatIDs)
	assert.Equal(t, []string{"A3", "A1"}, pb.Seats)
	assert.Equal(t, "23", pb.TotalPrice.String())
	assert.Equal(t, "Dune", pb.Showtime.MovieTitle)
}

func TestRowsSorted(t *testing.T) {
	st := &model.Showtime{Price: decimal.NewFromInt(8), Seats: []model.Seat{
		{ID: 1, Row: "B", Number: 2},
		{ID: 2, Row: "AA", Number: 1},
		{ID: 3, Row: "A", Number: 10},
		{ID: 4, Row: "A", Number: 2},
		{ID: 5, Row: "B", Number: 1},
	}}
	rows := NewSelection(st).Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "A", rows[0].Label)
	assert.Equal(t, "B", rows[1].Label)
	assert.Equal(t, "AA", rows[2].Label)
	assert.Equal(t, 2, rows[0].Seats[0].Number)
	assert.Equal(t, 10, rows[0].Seats[1].Number)
	assert.Equal(t, "A10", rows[0].Seats[1].Label)
}

func TestPicksStore(t *testing.T) {
	p := Picks{Store: storage.NewMemoryStore(0)}
	ctx := context.Background()

	ids, err := p.Load(ctx, "s", 3)
	require.NoError(t, err)
	assert.Nil(t, ids)

	require.NoError(t, p.Save(ctx, "s", 3, []uint64{4, 5}))
	ids, err = p.Load(ctx, "s", 3)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 5}, ids)

	require.NoError(t, p.Forget(ctx, "s", 3))
	ids, _ = p.Load(ctx, "s", 3)
	assert.Nil(t, ids)
}
