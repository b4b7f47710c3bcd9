package game

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"partyrooms/internal/domain"
)

var t0 = time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)

func seededRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

// seatTable создает комнату с n занятыми местами, userID = index+1
func seatTable(variant domain.Variant, n int, chips int64) *Table {
	tbl := NewTable(domain.Room{
		ID:         "room-1",
		Code:       "ABCDE",
		Name:       "test",
		HostID:     1,
		Variant:    variant,
		MaxPlayers: 10,
		Status:     domain.StatusWaiting,
		CreatedAt:  t0,
		SmallBlind: 5,
		BuyIn:      chips,
	})
	for i := 0; i < n; i++ {
		tbl.AddSeat(&domain.Seat{
			Index:   i,
			UserID:  int64(i + 1),
			Name:    fmt.Sprintf("p%d", i),
			IsReady: true,
			Active:  true,
			Chips:   chips,
		})
	}
	return tbl
}

func ptr(i int) *int { return &i }

// mustClone - снимок для сравнения состояния до и после отказа
func mustClone(t *testing.T, tbl *Table) *Table {
	t.Helper()
	c, err := tbl.Clone()
	require.NoError(t, err)
	return c
}

func requireUnchanged(t *testing.T, before, tbl *Table) {
	t.Helper()
	if diff := cmp.Diff(before, mustClone(t, tbl)); diff != "" {
		t.Fatalf("состояние изменилось после отказа (-до +после):\n%s", diff)
	}
}
