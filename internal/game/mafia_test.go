package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyrooms/internal/domain"
)

// newMafiaGame стартует игру и раздает роли в заданном порядке
func newMafiaGame(t *testing.T, roles ...domain.Role) (*Table, *Mafia) {
	t.Helper()
	eng := NewMafia(DefaultMafiaConfig(), seededRand())
	tbl := seatTable(domain.VariantMafia, len(roles), 0)
	require.NoError(t, eng.Start(tbl, t0))
	for i, r := range roles {
		tbl.Seats[i].Role = r
	}
	return tbl, eng
}

func act(t *testing.T, eng Engine, tbl *Table, seat int, kind domain.ActionKind, target int, at time.Time) *Tally {
	t.Helper()
	tally, err := eng.Submit(tbl, seat, domain.ActionInput{Kind: kind, Target: ptr(target)}, at)
	require.NoError(t, err)
	return tally
}

func TestMafiaOutcome(t *testing.T) {
	tests := []struct {
		name          string
		mafia, others int
		winner        domain.Winner
		over          bool
	}{
		{"no mafia", 0, 3, domain.WinnerTown, true},
		{"mafia equal", 2, 2, domain.WinnerMafia, true},
		{"mafia more", 2, 1, domain.WinnerMafia, true},
		{"mafia minority", 1, 3, "", false},
		{"one on two", 1, 2, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, over := MafiaOutcome(tt.mafia, tt.others)
			assert.Equal(t, tt.winner, winner)
			assert.Equal(t, tt.over, over)
		})
	}
}

func TestRoleTable(t *testing.T) {
	require.NoError(t, DefaultRoleTable().Validate(MafiaMinPlayers, MafiaMaxPlayers))

	bad := DefaultRoleTable()
	bad[6] = RoleCounts{Mafia: 3, Doctor: 1}
	assert.Error(t, bad.Validate(MafiaMinPlayers, MafiaMaxPlayers))

	roles, err := DefaultRoleTable().Deal(7, seededRand())
	require.NoError(t, err)
	counts := map[domain.Role]int{}
	for _, r := range roles {
		counts[r]++
	}
	assert.Equal(t, 2, counts[domain.RoleMafia])
	assert.Equal(t, 1, counts[domain.RoleDoctor])
	assert.Equal(t, 1, counts[domain.RoleDetective])
	assert.Equal(t, 3, counts[domain.RoleCivilian])
}

func TestMafiaStart(t *testing.T) {
	eng := NewMafia(DefaultMafiaConfig(), seededRand())
	tbl := seatTable(domain.VariantMafia, 6, 0)
	require.NoError(t, eng.Start(tbl, t0))

	assert.Equal(t, domain.StatusPlaying, tbl.Room.Status)
	assert.Equal(t, domain.PhaseNight, tbl.State.Phase)
	assert.Equal(t, 0, tbl.State.DayNumber)
	assert.Equal(t, t0.Add(DefaultMafiaConfig().Night), tbl.State.Deadline)
	mafia := 0
	for _, s := range tbl.Seats {
		assert.True(t, s.IsAlive)
		assert.NotEqual(t, domain.RoleNone, s.Role)
		if s.Role.IsMafia() {
			mafia++
		}
	}
	assert.Equal(t, 1, mafia)
}

func TestMafiaScenario_HealSavesThenDayVote(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleCivilian, domain.RoleDoctor, domain.RoleCivilian, domain.RoleCivilian)

	// ночь 1: мафия целится в 3, доктор лечит 3
	act(t, eng, tbl, 0, domain.ActionKill, 3, t0.Add(time.Second))
	act(t, eng, tbl, 2, domain.ActionHeal, 3, t0.Add(2*time.Second))

	require.True(t, eng.Advance(tbl, tbl.State.Deadline))
	assert.Equal(t, domain.PhaseDay, tbl.State.Phase)
	assert.Equal(t, 1, tbl.State.DayNumber)
	for _, s := range tbl.Seats {
		assert.True(t, s.IsAlive, "seat %d", s.Index)
	}

	// день 1: трое голосуют против невиновного 1
	dayStart := tbl.State.Deadline.Add(-DefaultMafiaConfig().Day)
	act(t, eng, tbl, 2, domain.ActionVote, 1, dayStart.Add(time.Second))
	act(t, eng, tbl, 3, domain.ActionVote, 1, dayStart.Add(time.Second))
	act(t, eng, tbl, 4, domain.ActionVote, 1, dayStart.Add(time.Second))
	act(t, eng, tbl, 0, domain.ActionVote, 2, dayStart.Add(time.Second))

	require.True(t, eng.Advance(tbl, tbl.State.Deadline))
	assert.False(t, tbl.Seat(1).IsAlive)
	assert.Equal(t, domain.StatusPlaying, tbl.Room.Status)
	assert.Equal(t, domain.PhaseNight, tbl.State.Phase)
	assert.Equal(t, 1, tbl.State.DayNumber)
}

func TestMafiaSubmit_RejectionKeepsState(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleCivilian, domain.RoleDoctor, domain.RoleCivilian, domain.RoleCivilian)
	tbl.Seat(4).IsAlive = false
	before := mustClone(t, tbl)

	tests := []struct {
		name string
		seat int
		in   domain.ActionInput
		kind domain.ErrorKind
	}{
		{"civilian at night", 1, domain.ActionInput{Kind: domain.ActionKill, Target: ptr(3)}, domain.KindStateConflict},
		{"dead seat", 4, domain.ActionInput{Kind: domain.ActionVote, Target: ptr(3)}, domain.KindStateConflict},
		{"wrong kind", 0, domain.ActionInput{Kind: domain.ActionVote, Target: ptr(3)}, domain.KindStateConflict},
		{"stale token", 0, domain.ActionInput{PhaseToken: "999", Kind: domain.ActionKill, Target: ptr(3)}, domain.KindStateConflict},
		{"self target", 2, domain.ActionInput{Kind: domain.ActionHeal, Target: ptr(2)}, domain.KindValidation},
		{"dead target", 0, domain.ActionInput{Kind: domain.ActionKill, Target: ptr(4)}, domain.KindValidation},
		{"no target", 0, domain.ActionInput{Kind: domain.ActionKill}, domain.KindValidation},
		{"unknown seat", 7, domain.ActionInput{Kind: domain.ActionKill, Target: ptr(3)}, domain.KindAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Submit(tbl, tt.seat, tt.in, t0.Add(time.Second))
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))
			requireUnchanged(t, before, tbl)
		})
	}
}

func TestMafiaSubmit_MafiaCannotKillMafia(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleMafia, domain.RoleDoctor, domain.RoleDetective,
		domain.RoleCivilian, domain.RoleCivilian, domain.RoleCivilian)

	_, err := eng.Submit(tbl, 0, domain.ActionInput{Kind: domain.ActionKill, Target: ptr(1)}, t0)
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)
}

func TestMafiaSubmit_ResubmissionReplaces(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleCivilian, domain.RoleDoctor, domain.RoleCivilian, domain.RoleCivilian)

	act(t, eng, tbl, 0, domain.ActionKill, 3, t0.Add(time.Second))
	tally := act(t, eng, tbl, 0, domain.ActionKill, 4, t0.Add(2*time.Second))
	require.NotNil(t, tally.Mine)
	assert.Equal(t, 4, *tally.Mine.Target)
	assert.Equal(t, map[int]int{4: 1}, tally.Votes)

	eng.Advance(tbl, tbl.State.Deadline)
	assert.True(t, tbl.Seat(3).IsAlive)
	assert.False(t, tbl.Seat(4).IsAlive)
}

func TestMafiaNight_TieGoesToMostRecentVote(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleMafia, domain.RoleDoctor, domain.RoleDetective,
		domain.RoleCivilian, domain.RoleCivilian, domain.RoleCivilian)

	act(t, eng, tbl, 1, domain.ActionKill, 5, t0.Add(time.Second))
	act(t, eng, tbl, 0, domain.ActionKill, 4, t0.Add(3*time.Second))

	eng.Advance(tbl, tbl.State.Deadline)
	assert.False(t, tbl.Seat(4).IsAlive)
	assert.True(t, tbl.Seat(5).IsAlive)
}

func TestMafiaDay_TieEliminatesNobody(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleCivilian, domain.RoleDoctor, domain.RoleCivilian, domain.RoleCivilian)
	eng.Advance(tbl, tbl.State.Deadline)
	require.Equal(t, domain.PhaseDay, tbl.State.Phase)

	now := tbl.State.Deadline.Add(-time.Minute)
	act(t, eng, tbl, 1, domain.ActionVote, 0, now)
	act(t, eng, tbl, 2, domain.ActionVote, 0, now)
	act(t, eng, tbl, 0, domain.ActionVote, 3, now)
	act(t, eng, tbl, 4, domain.ActionVote, 3, now)

	eng.Advance(tbl, tbl.State.Deadline)
	for _, s := range tbl.Seats {
		assert.True(t, s.IsAlive, "seat %d", s.Index)
	}
	assert.Equal(t, domain.PhaseNight, tbl.State.Phase)
}

func TestMafiaDay_TownWinsAndWinnerIsFixed(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleCivilian, domain.RoleDoctor, domain.RoleCivilian, domain.RoleCivilian)
	eng.Advance(tbl, tbl.State.Deadline)

	now := tbl.State.Deadline.Add(-time.Minute)
	for _, seat := range []int{1, 2, 3} {
		act(t, eng, tbl, seat, domain.ActionVote, 0, now)
	}
	eng.Advance(tbl, tbl.State.Deadline)

	require.Equal(t, domain.StatusFinished, tbl.Room.Status)
	assert.Equal(t, domain.PhaseFinished, tbl.State.Phase)
	assert.Equal(t, domain.WinnerTown, tbl.State.Winner)
	require.NotNil(t, tbl.Room.FinishedAt)

	// после конца ничего не двигается
	assert.False(t, eng.Advance(tbl, now.Add(time.Hour)))
	_, err := eng.Submit(tbl, 1, domain.ActionInput{Kind: domain.ActionVote, Target: ptr(2)}, now)
	assert.ErrorIs(t, err, domain.ErrWrongPhase)
}

func TestMafiaNight_MafiaReachesParity(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleCivilian, domain.RoleDoctor, domain.RoleCivilian)

	act(t, eng, tbl, 0, domain.ActionKill, 1, t0.Add(time.Second))
	eng.Advance(tbl, tbl.State.Deadline)
	require.Equal(t, domain.PhaseDay, tbl.State.Phase)

	now := tbl.State.Deadline.Add(-time.Minute)
	act(t, eng, tbl, 0, domain.ActionVote, 2, now)
	act(t, eng, tbl, 3, domain.ActionVote, 2, now)
	eng.Advance(tbl, tbl.State.Deadline)

	assert.Equal(t, domain.StatusFinished, tbl.Room.Status)
	assert.Equal(t, domain.WinnerMafia, tbl.State.Winner)
}

func TestMafiaDetectiveGetsPrivateNotice(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleCivilian, domain.RoleDoctor, domain.RoleDetective,
		domain.RoleCivilian, domain.RoleCivilian)

	act(t, eng, tbl, 3, domain.ActionCheck, 0, t0.Add(time.Second))
	eng.Advance(tbl, tbl.State.Deadline)

	require.Len(t, tbl.Notices[3], 1)
	assert.True(t, tbl.Notices[3][0].Mafia)
	assert.Equal(t, 0, tbl.Notices[3][0].Target)
	assert.Empty(t, tbl.Notices[1])

	// на следующем переходе результат исчезает
	eng.Advance(tbl, tbl.State.Deadline)
	assert.Empty(t, tbl.Notices[3])
}

func TestMafiaSettleShortensDeadline(t *testing.T) {
	cfg := DefaultMafiaConfig()
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleCivilian, domain.RoleDoctor, domain.RoleCivilian, domain.RoleCivilian)

	act(t, eng, tbl, 0, domain.ActionKill, 1, t0.Add(time.Second))
	assert.Equal(t, t0.Add(cfg.Night), tbl.State.Deadline)

	at := t0.Add(10 * time.Second)
	act(t, eng, tbl, 2, domain.ActionHeal, 3, at)
	assert.Equal(t, at.Add(cfg.Settle), tbl.State.Deadline)

	assert.False(t, eng.Advance(tbl, at.Add(cfg.Settle-time.Millisecond)))
	assert.True(t, eng.Advance(tbl, at.Add(cfg.Settle)))
	assert.False(t, tbl.Seat(1).IsAlive)
}

func TestMafiaAdvance_ExpiredNightWithoutActions(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleCivilian, domain.RoleDoctor, domain.RoleCivilian, domain.RoleCivilian)

	assert.False(t, eng.Advance(tbl, t0.Add(time.Second)))
	assert.Equal(t, domain.PhaseNight, tbl.State.Phase)

	assert.True(t, eng.Advance(tbl, tbl.State.Deadline))
	assert.Equal(t, domain.PhaseDay, tbl.State.Phase)
	for _, s := range tbl.Seats {
		assert.True(t, s.IsAlive)
	}
}

func TestMafiaLeave_LastMafiaLeavingEndsGame(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleCivilian, domain.RoleDoctor, domain.RoleCivilian, domain.RoleCivilian)

	assert.Zero(t, eng.Leave(tbl, 0, t0.Add(time.Second)))
	seat := tbl.Seat(0)
	require.NotNil(t, seat, "место не освобождается во время игры")
	assert.False(t, seat.Active)
	assert.False(t, seat.IsAlive)
	assert.Equal(t, domain.StatusFinished, tbl.Room.Status)
	assert.Equal(t, domain.WinnerTown, tbl.State.Winner)
}

func TestMafiaChatChannel(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleCivilian, domain.RoleDoctor, domain.RoleCivilian, domain.RoleCivilian)

	ch, err := eng.ChatChannel(tbl, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelMafia, ch)

	_, err = eng.ChatChannel(tbl, 1)
	assert.ErrorIs(t, err, domain.ErrChatNotAllowed)

	eng.Advance(tbl, tbl.State.Deadline)
	ch, err = eng.ChatChannel(tbl, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelPublic, ch)

	tbl.Seat(1).IsAlive = false
	_, err = eng.ChatChannel(tbl, 1)
	assert.ErrorIs(t, err, domain.ErrChatNotAllowed)
}

func TestMafiaTally_NightVotesOnlyForMafia(t *testing.T) {
	tbl, eng := newMafiaGame(t,
		domain.RoleMafia, domain.RoleCivilian, domain.RoleDoctor, domain.RoleCivilian, domain.RoleCivilian)
	act(t, eng, tbl, 0, domain.ActionKill, 3, t0.Add(time.Second))

	mafia := eng.Tally(tbl, 0)
	assert.Equal(t, map[int]int{3: 1}, mafia.Votes)
	// доктор в счетчиках мафии не виден
	assert.Equal(t, 1, mafia.Acted)
	assert.Equal(t, 1, mafia.Eligible)

	civ := eng.Tally(tbl, 1)
	assert.Nil(t, civ.Votes)
	assert.Zero(t, civ.Acted)
	assert.Zero(t, civ.Eligible)

	// доктор видит свой ход, но не чужие
	act(t, eng, tbl, 2, domain.ActionHeal, 1, t0.Add(2*time.Second))
	doc := eng.Tally(tbl, 2)
	require.NotNil(t, doc.Mine)
	assert.Zero(t, doc.Acted)
	assert.Zero(t, doc.Eligible)
}
