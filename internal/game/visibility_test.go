package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyrooms/internal/domain"
)

func TestPartition_MafiaRolesAndChannels(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleMafia, domain.RoleDoctor, domain.RoleDetective,
		domain.RoleCivilian, domain.RoleCivilian, domain.RoleCivilian)
	tbl.Post(t0, tbl.Seat(0), domain.ChannelMafia, "take 4")

	mafiaView := Partition(tbl, eng, 1, t0)
	townView := Partition(tbl, eng, 5, t0)

	assert.Equal(t, domain.RoleMafia, mafiaView.Me.Role)
	for _, s := range mafiaView.Seats {
		if s.Index != 0 {
			assert.Empty(t, s.Role, "чужая роль видна на месте %d", s.Index)
		}
	}
	assert.Equal(t, domain.RoleCivilian, townView.Me.Role)
	assert.Equal(t, domain.ChannelMafia, mafiaView.Me.ChatChannel)
	assert.Empty(t, townView.Me.ChatChannel)

	hasMafiaMsg := func(s *Snapshot) bool {
		for _, m := range s.Messages {
			if m.Channel == domain.ChannelMafia {
				return true
			}
		}
		return false
	}
	assert.True(t, hasMafiaMsg(mafiaView))
	assert.False(t, hasMafiaMsg(townView))

	// после конца игры роли открыты всем, а канал мафии по-прежнему закрыт
	for _, seat := range []int{0, 1} {
		eng.Leave(tbl, seat, t0.Add(time.Second))
	}
	require.Equal(t, domain.StatusFinished, tbl.Room.Status)
	townView = Partition(tbl, eng, 5, t0.Add(2*time.Second))
	for _, s := range townView.Seats {
		assert.NotEmpty(t, s.Role)
	}
	assert.False(t, hasMafiaMsg(townView))
	assert.Equal(t, domain.WinnerTown, townView.State.Winner)
}

func TestPartition_MafiaPendingActionAndNotices(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleCivilian, domain.RoleDoctor, domain.RoleDetective,
		domain.RoleCivilian, domain.RoleCivilian)
	act(t, eng, tbl, 3, domain.ActionCheck, 0, t0.Add(time.Second))

	view := Partition(tbl, eng, 4, t0.Add(time.Second))
	require.NotNil(t, view.Me.Pending)
	assert.Equal(t, domain.ActionCheck, view.Me.Pending.Kind)
	assert.Equal(t, []domain.ActionKind{domain.ActionCheck}, view.Me.Allowed)
	assert.Equal(t, tbl.PhaseToken(), view.Me.PhaseToken)

	eng.Advance(tbl, tbl.State.Deadline)
	view = Partition(tbl, eng, 4, tbl.State.Deadline)
	require.Len(t, view.Me.Notices, 1)
	assert.True(t, view.Me.Notices[0].Mafia)
	assert.Nil(t, view.Me.Pending)

	other := Partition(tbl, eng, 2, tbl.State.Deadline)
	assert.Empty(t, other.Me.Notices)
}

func TestPartition_NightTallyHiddenFromTown(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleMafia, domain.RoleDoctor, domain.RoleDetective,
		domain.RoleCivilian, domain.RoleCivilian, domain.RoleCivilian)

	night := func(at time.Time, victim int) {
		act(t, eng, tbl, 0, domain.ActionKill, victim, at)
		act(t, eng, tbl, 1, domain.ActionKill, victim, at)
		act(t, eng, tbl, 2, domain.ActionHeal, 6, at)

		// мирный и зритель не могут посчитать ночные роли по счетчикам
		for _, userID := range []int64{7, 999} {
			view := Partition(tbl, eng, userID, at)
			require.NotNil(t, view.Tally)
			assert.Zero(t, view.Tally.Eligible, "user %d", userID)
			assert.Zero(t, view.Tally.Acted, "user %d", userID)
			assert.Nil(t, view.Tally.Votes, "user %d", userID)
		}

		mafia := Partition(tbl, eng, 1, at)
		assert.Equal(t, 2, mafia.Tally.Eligible)
		assert.Equal(t, 2, mafia.Tally.Acted)
		assert.Equal(t, map[int]int{victim: 2}, mafia.Tally.Votes)
	}

	night(t0.Add(time.Second), 4)
	dayStart := tbl.State.Deadline
	eng.Advance(tbl, dayStart)
	require.Equal(t, domain.PhaseDay, tbl.State.Phase)

	// днем счетчики открыты всем
	day := Partition(tbl, eng, 7, dayStart.Add(time.Second))
	assert.Equal(t, 6, day.Tally.Eligible)

	nightStart := tbl.State.Deadline
	eng.Advance(tbl, nightStart)
	require.Equal(t, domain.PhaseNight, tbl.State.Phase)
	night(nightStart.Add(time.Second), 5)
}

func TestPartition_PokerHoleCards(t *testing.T) {
	tbl, eng := newPokerGame(t, 100, 100, 100)

	view := Partition(tbl, eng, 1, t0)
	for _, s := range view.Seats {
		require.Len(t, s.HoleCards, 2)
		if s.Index == 0 {
			assert.Equal(t, tbl.Seat(0).HoleCards, s.HoleCards)
			continue
		}
		assert.Equal(t, []domain.Card{domain.HiddenCard, domain.HiddenCard}, s.HoleCards)
	}
	assert.Equal(t, tbl.Seat(0).HoleCards, view.Me.HoleCards)

	// сбросивший не вскрывается на шоудауне
	bet(t, eng, tbl, 0, domain.ActionFold, 0)
	bet(t, eng, tbl, 1, domain.ActionCall, 0)
	for tbl.State.Phase.Betting() {
		bet(t, eng, tbl, tbl.State.TurnSeat, domain.ActionPass, 0)
	}
	require.Equal(t, domain.PhaseShowdown, tbl.State.Phase)

	view = Partition(tbl, eng, 1, t0.Add(time.Minute))
	for _, s := range view.Seats {
		if s.Index == 0 {
			continue
		}
		assert.Equal(t, tbl.Seat(s.Index).HoleCards, s.HoleCards, "место %d вскрыто", s.Index)
	}
	folded := Partition(tbl, eng, 2, t0.Add(time.Minute))
	assert.Equal(t, []domain.Card{domain.HiddenCard, domain.HiddenCard}, folded.Seats[0].HoleCards)
}

func TestPartition_Spectator(t *testing.T) {
	tbl, eng := newPokerGame(t, 100, 100)

	view := Partition(tbl, eng, 999, t0)
	assert.Nil(t, view.Me)
	for _, s := range view.Seats {
		assert.Equal(t, []domain.Card{domain.HiddenCard, domain.HiddenCard}, s.HoleCards)
	}
	assert.Equal(t, t0, view.ServerTime)
}
