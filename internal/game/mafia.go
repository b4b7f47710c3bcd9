package game

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"partyrooms/internal/domain"
)

const (
	MafiaMinPlayers = 4
	MafiaMaxPlayers = 10
)

type MafiaConfig struct {
	Night time.Duration
	Day   time.Duration
	// после того как все сходили, дедлайн подтягивается до now+Settle
	Settle time.Duration
	Roles  RoleTable
}

func DefaultMafiaConfig() MafiaConfig {
	return MafiaConfig{
		Night:  60 * time.Second,
		Day:    120 * time.Second,
		Settle: 5 * time.Second,
		Roles:  DefaultRoleTable(),
	}
}

// Mafia - ночь/день с тайными ролями
type Mafia struct {
	cfg MafiaConfig
	rng *rand.Rand
}

func NewMafia(cfg MafiaConfig, rng *rand.Rand) *Mafia {
	if cfg.Roles == nil {
		cfg.Roles = DefaultRoleTable()
	}
	return &Mafia{cfg: cfg, rng: rng}
}

func (m *Mafia) Variant() domain.Variant { return domain.VariantMafia }

func (m *Mafia) SeatRange() (int, int) { return MafiaMinPlayers, MafiaMaxPlayers }

// MafiaOutcome - правило конца игры: мафии нет или мафии не меньше остальных
func MafiaOutcome(mafiaAlive, othersAlive int) (domain.Winner, bool) {
	if mafiaAlive == 0 {
		return domain.WinnerTown, true
	}
	if mafiaAlive >= othersAlive {
		return domain.WinnerMafia, true
	}
	return "", false
}

func (m *Mafia) Start(t *Table, now time.Time) error {
	roles, err := m.cfg.Roles.Deal(len(t.Seats), m.rng)
	if err != nil {
		return err
	}
	mafia := 0
	for i, s := range t.Seats {
		s.Role = roles[i]
		s.IsAlive = true
		s.Active = true
		if s.Role.IsMafia() {
			mafia++
		}
	}
	t.State = &domain.GameState{TurnSeat: -1, DealerSeat: -1}
	t.Room.Status = domain.StatusPlaying
	t.System(now, fmt.Sprintf("Game started: %d players, %d mafia among them", len(t.Seats), mafia))
	m.enterNight(t, now)
	return nil
}

func (m *Mafia) enterNight(t *Table, now time.Time) {
	st := t.enterPhase(domain.PhaseNight, now.Add(m.cfg.Night))
	t.System(now, fmt.Sprintf("Night %d falls. The town sleeps", st.DayNumber+1))
}

func (m *Mafia) enterDay(t *Table, now time.Time) {
	st := t.enterPhase(domain.PhaseDay, now.Add(m.cfg.Day))
	st.DayNumber++
	t.System(now, fmt.Sprintf("Day %d. Discuss and vote", st.DayNumber))
}

// actionOf - что место может сделать в текущей фазе
func (m *Mafia) actionOf(t *Table, s *domain.Seat) (domain.ActionKind, bool) {
	if s == nil || !s.Active || !s.IsAlive || t.Room.Status != domain.StatusPlaying || t.State == nil {
		return "", false
	}
	return s.Role.ActionFor(t.State.Phase)
}

func (m *Mafia) Submit(t *Table, seat int, in domain.ActionInput, now time.Time) (*Tally, error) {
	if t.Room.Status != domain.StatusPlaying {
		return nil, domain.ErrWrongPhase
	}
	if err := t.checkToken(in.PhaseToken); err != nil {
		return nil, err
	}
	s := t.Seat(seat)
	if s == nil {
		return nil, domain.ErrNotSeated
	}
	kind, ok := m.actionOf(t, s)
	if !ok {
		return nil, domain.ErrNotYourTurn
	}
	if in.Kind != kind {
		return nil, domain.ErrWrongPhase
	}
	if in.Target == nil {
		return nil, domain.ErrInvalidTarget
	}
	target := t.Seat(*in.Target)
	if target == nil || !target.Active || !target.IsAlive || target.Index == s.Index {
		return nil, domain.ErrInvalidTarget
	}
	if kind == domain.ActionKill && target.Role.IsMafia() {
		return nil, domain.ErrInvalidTarget
	}

	idx := target.Index
	t.Actions[s.Index] = domain.Action{
		Seat:    s.Index,
		Phase:   t.State.Phase,
		PhaseID: t.State.PhaseID,
		Kind:    kind,
		Target:  &idx,
		At:      now,
	}
	m.settle(t, now)
	return m.Tally(t, s.Index), nil
}

// settle: если все, кто может действовать, сходили, фаза закроется через Settle
func (m *Mafia) settle(t *Table, now time.Time) {
	if t.Room.Status != domain.StatusPlaying {
		return
	}
	acted, eligible := m.counts(t, "")
	if eligible == 0 || acted < eligible {
		return
	}
	if soon := now.Add(m.cfg.Settle); soon.Before(t.State.Deadline) {
		t.State.Deadline = soon
	}
}

// counts считает сходивших среди тех, кто может действовать. Пустой kind - все действия
func (m *Mafia) counts(t *Table, only domain.ActionKind) (acted, eligible int) {
	for _, s := range t.Seats {
		kind, ok := m.actionOf(t, s)
		if !ok || (only != "" && kind != only) {
			continue
		}
		eligible++
		if _, ok := t.Actions[s.Index]; ok {
			acted++
		}
	}
	return acted, eligible
}

func (m *Mafia) Advance(t *Table, now time.Time) bool {
	changed := false
	for i := 0; i < maxCatchUp; i++ {
		if t.Room.Status != domain.StatusPlaying || t.State == nil || now.Before(t.State.Deadline) {
			break
		}
		switch t.State.Phase {
		case domain.PhaseNight:
			m.resolveNight(t, now)
		case domain.PhaseDay:
			m.resolveDay(t, now)
		default:
			return changed
		}
		changed = true
	}
	return changed
}

// validActions - действия живых активных мест нужного типа
func (m *Mafia) validActions(t *Table, kind domain.ActionKind) []domain.Action {
	var out []domain.Action
	for _, a := range t.Actions {
		s := t.Seat(a.Seat)
		if a.Kind != kind || s == nil || !s.Active {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seat < out[j].Seat })
	return out
}

// nightVictim - большинство голосов мафии; при равенстве побеждает
// цель последнего по времени голоса
func (m *Mafia) nightVictim(t *Table) int {
	counts := make(map[int]int)
	latest := make(map[int]time.Time)
	for _, a := range m.validActions(t, domain.ActionKill) {
		if s := t.Seat(a.Seat); !s.IsAlive {
			continue
		}
		counts[*a.Target]++
		if a.At.After(latest[*a.Target]) {
			latest[*a.Target] = a.At
		}
	}
	victim, best := -1, 0
	for target, n := range counts {
		switch {
		case n > best:
			victim, best = target, n
		case n == best && latest[target].After(latest[victim]):
			victim = target
		case n == best && latest[target].Equal(latest[victim]) && target < victim:
			victim = target
		}
	}
	return victim
}

func (m *Mafia) resolveNight(t *Table, now time.Time) {
	t.clearNotices()
	victim := m.nightVictim(t)

	healed := -1
	for _, a := range m.validActions(t, domain.ActionHeal) {
		healed = *a.Target
	}
	for _, a := range m.validActions(t, domain.ActionCheck) {
		target := t.Seat(*a.Target)
		if target == nil {
			continue
		}
		verdict := "is not mafia"
		if target.Role.IsMafia() {
			verdict = "is mafia"
		}
		t.Notices[a.Seat] = append(t.Notices[a.Seat], Notice{
			Kind:   string(domain.ActionCheck),
			Target: target.Index,
			Mafia:  target.Role.IsMafia(),
			Text:   fmt.Sprintf("%s %s", target.Name, verdict),
		})
	}

	switch {
	case victim >= 0 && victim != healed:
		m.eliminate(t, now, victim, "was killed during the night")
	case victim >= 0:
		t.System(now, "The doctor saved someone tonight. Nobody died")
	default:
		t.System(now, "The night passed quietly")
	}
	if m.checkOutcome(t, now) {
		return
	}
	m.enterDay(t, now)
}

func (m *Mafia) resolveDay(t *Table, now time.Time) {
	t.clearNotices()
	counts := make(map[int]int)
	for _, a := range m.validActions(t, domain.ActionVote) {
		if s := t.Seat(a.Seat); !s.IsAlive {
			continue
		}
		counts[*a.Target]++
	}
	victim, best, tie := -1, 0, false
	for target, n := range counts {
		switch {
		case n > best:
			victim, best, tie = target, n, false
		case n == best:
			tie = true
		}
	}
	if victim >= 0 && !tie {
		m.eliminate(t, now, victim, "was voted out by the town")
	} else {
		t.System(now, "The town could not agree. Nobody was eliminated")
	}
	if m.checkOutcome(t, now) {
		return
	}
	m.enterNight(t, now)
}

func (m *Mafia) eliminate(t *Table, now time.Time, index int, reason string) {
	s := t.Seat(index)
	if s == nil || !s.IsAlive {
		return
	}
	s.IsAlive = false
	t.System(now, fmt.Sprintf("%s %s", s.Name, reason))
}

// checkOutcome завершает игру, если сработало терминальное правило
func (m *Mafia) checkOutcome(t *Table, now time.Time) bool {
	mafia, others := 0, 0
	for _, s := range t.Seats {
		if !s.Active || !s.IsAlive {
			continue
		}
		if s.Role.IsMafia() {
			mafia++
		} else {
			others++
		}
	}
	winner, over := MafiaOutcome(mafia, others)
	if !over {
		return false
	}
	t.finish(now, winner, nil, "")
	if winner == domain.WinnerTown {
		t.System(now, "All mafia are gone. The town wins")
	} else {
		t.System(now, "The mafia took over the town. Mafia wins")
	}
	return true
}

func (m *Mafia) Leave(t *Table, seat int, now time.Time) int64 {
	s := t.Seat(seat)
	if s == nil || !s.Active {
		return 0
	}
	s.Active = false
	delete(t.Actions, seat)
	if s.IsAlive {
		s.IsAlive = false
		t.System(now, fmt.Sprintf("%s left the game", s.Name))
	}
	if !m.checkOutcome(t, now) {
		m.settle(t, now)
	}
	return 0
}

func (m *Mafia) ChatChannel(t *Table, seat int) (domain.Channel, error) {
	s := t.Seat(seat)
	if s == nil {
		return "", domain.ErrNotSeated
	}
	switch t.Room.Status {
	case domain.StatusWaiting:
		return domain.ChannelPublic, nil
	case domain.StatusFinished:
		return "", domain.ErrChatNotAllowed
	}
	if !s.Active || !s.IsAlive {
		return "", domain.ErrChatNotAllowed
	}
	switch t.State.Phase {
	case domain.PhaseDay:
		return domain.ChannelPublic, nil
	case domain.PhaseNight:
		if ch := s.Role.NightChannel(); ch != "" {
			return ch, nil
		}
	}
	return "", domain.ErrChatNotAllowed
}

func (m *Mafia) Allowed(t *Table, seat int) []domain.ActionKind {
	if kind, ok := m.actionOf(t, t.Seat(seat)); ok {
		return []domain.ActionKind{kind}
	}
	return nil
}

// Tally: дневные голоса видны всем. Ночью мафия видит только свои голоса
// и счетчики, остальным счетчики не показываются: по ним считались бы роли
func (m *Mafia) Tally(t *Table, viewer int) *Tally {
	if t.State == nil {
		return nil
	}
	tally := &Tally{
		Phase:      t.State.Phase,
		PhaseToken: t.PhaseToken(),
	}
	if a, ok := t.Actions[viewer]; ok {
		tally.Mine = &a
	}

	var kind domain.ActionKind
	switch t.State.Phase {
	case domain.PhaseDay:
		kind = domain.ActionVote
		tally.Acted, tally.Eligible = m.counts(t, "")
	case domain.PhaseNight:
		if s := t.Seat(viewer); s != nil && s.Role.IsMafia() {
			kind = domain.ActionKill
			tally.Acted, tally.Eligible = m.counts(t, kind)
		}
	}
	if kind != "" {
		tally.Votes = make(map[int]int)
		for _, a := range m.validActions(t, kind) {
			tally.Votes[*a.Target]++
		}
	}
	return tally
}
