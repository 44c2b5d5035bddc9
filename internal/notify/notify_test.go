package notify

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/storage"
)

func TestOutboxDeliversOnce(t *testing.T) {
	o := NewOutbox(storage.NewMemoryStore(0), zap.NewNop())
	ctx := context.Background()

	o.For("a").Notify(Notice{Level: Warning, Message: "Maximum 10 seats per booking"})
	require.NoError(t, o.Push(ctx, "a", Notice{Level: Error, Message: "second"}))
	require.NoError(t, o.Push(ctx, "b", Notice{Level: Info, Message: "other session"}))

	got, err := o.Drain(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Maximum 10 seats per booking", got[0].Message)
	assert.Equal(t, Error, got[1].Level)

	got, err = o.Drain(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOutboxIsBounded(t *testing.T) {
	o := NewOutbox(storage.NewMemoryStore(0), zap.NewNop())
	ctx := context.Background()
	for i := 0; i < maxQueued+5; i++ {
		require.NoError(t, o.Push(ctx, "a", Notice{Level: Info, Message: fmt.Sprint(i)}))
	}
	got, err := o.Drain(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, maxQueued)
	assert.Equal(t, "5", got[0].Message)
}

func TestParseDecision(t *testing.T) {
	assert.Equal(t, Confirmed, ParseDecision("true"))
	assert.Equal(t, Confirmed, ParseDecision(" Yes "))
	assert.Equal(t, Declined, ParseDecision("no"))
	assert.Equal(t, Undecided, ParseDecision(""))
}
