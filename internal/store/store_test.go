package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMarkProcessed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	processed, err := s.IsProcessed(ctx, "5551234567")
	require.NoError(t, err)
	assert.False(t, processed)

	at := time.Date(2025, 7, 13, 10, 30, 0, 0, time.UTC)
	order := ProcessedOrder{
		OrderID:     "5551234567",
		OrderName:   "#1001",
		ProcessedAt: at,
		Customer: CustomerRecord{
			Name:       "Lucía Pérez",
			Email:      "friend@example.com",
			GiftEmail:  "friend@example.com",
			IsGift:     true,
			BirthDate:  "13/07/2019",
			BirthTime:  "08:45",
			BirthPlace: "Sevilla",
			ZodiacSign: "CÁNCER",
		},
	}
	require.NoError(t, s.MarkProcessed(ctx, order))

	processed, err = s.IsProcessed(ctx, "5551234567")
	require.NoError(t, err)
	assert.True(t, processed)

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, order, list[0])
}

func TestMarkProcessed_FirstRecordWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.MarkProcessed(ctx, ProcessedOrder{OrderID: "1", Customer: CustomerRecord{Name: "first"}}))
	err := s.MarkProcessed(ctx, ProcessedOrder{OrderID: "1", Customer: CustomerRecord{Name: "second"}})
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first", list[0].Customer.Name)
}

func TestMarkProcessed_EmptyID(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.MarkProcessed(context.Background(), ProcessedOrder{}))
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.MarkProcessed(ctx, ProcessedOrder{
			OrderID:     id,
			ProcessedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	list, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].OrderID)
	assert.Equal(t, "b", list[1].OrderID)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	s, err := Open(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, s.MarkProcessed(ctx, ProcessedOrder{OrderID: "42"}))
	require.NoError(t, s.Close())

	// migrations are idempotent and data survives
	s, err = Open(ctx, path, nil)
	require.NoError(t, err)
	defer s.Close()

	processed, err := s.IsProcessed(ctx, "42")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.MarkProcessed(context.Background(), ProcessedOrder{OrderID: "m"}))
	processed, err := s.IsProcessed(context.Background(), "m")
	require.NoError(t, err)
	assert.True(t, processed)
}
