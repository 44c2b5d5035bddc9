package seats

import (
	"context"
	"errors"
	"strconv"

	"github.com/iliyamo/cinema-web/internal/storage"
)

// Picks remembers the seats picked per showtime in session-scoped storage so
// the selection survives between requests.
type Picks struct {
	Store storage.Store
}

func picksKey(showtimeID uint64) string {
	return "seatSelection:" + strconv.FormatUint(showtimeID, 10)
}

// Load returns the remembered ids; none remembered is not an error.
func (p Picks) Load(ctx context.Context, sid string, showtimeID uint64) ([]uint64, error) {
	var ids []uint64
	err := storage.GetJSON(ctx, p.Store, sid, picksKey(showtimeID), &ids)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrCorrupt) {
		return nil, nil
	}
	return ids, err
}

func (p Picks) Save(ctx context.Context, sid string, showtimeID uint64, ids []uint64) error {
	return storage.SetJSON(ctx, p.Store, sid, picksKey(showtimeID), ids)
}

func (p Picks) Forget(ctx context.Context, sid string, showtimeID uint64) error {
	_, err := p.Store.Delete(ctx, sid, picksKey(showtimeID))
	return err
}
