package game

import (
	"slices"
	"time"

	"partyrooms/internal/domain"
)

// Snapshot - состояние комнаты глазами одного зрителя
type Snapshot struct {
	Room       domain.Room       `json:"room"`
	Seats      []SeatView        `json:"seats"`
	State      *domain.GameState `json:"state,omitempty"`
	Messages   []domain.Message  `json:"messages"`
	Me         *MeView           `json:"me,omitempty"`
	Tally      *Tally            `json:"tally,omitempty"`
	ServerTime time.Time         `json:"server_time"`
}

type SeatView struct {
	Index      int                `json:"index"`
	UserID     int64              `json:"user_id"`
	Name       string             `json:"name"`
	Avatar     string             `json:"avatar,omitempty"`
	IsHost     bool               `json:"is_host"`
	IsReady    bool               `json:"is_ready"`
	Active     bool               `json:"active"`
	IsAlive    bool               `json:"is_alive"`
	Role       domain.Role        `json:"role,omitempty"`
	Chips      int64              `json:"chips"`
	IsFolded   bool               `json:"is_folded"`
	CurrentBet int64              `json:"current_bet"`
	HoleCards  []domain.Card      `json:"hole_cards,omitempty"`
	LastAction *domain.ActionKind `json:"last_action,omitempty"`
}

// Приватная часть снапшота
type MeView struct {
	Seat        int                 `json:"seat"`
	IsHost      bool                `json:"is_host"`
	Role        domain.Role         `json:"role,omitempty"`
	HoleCards   []domain.Card       `json:"hole_cards,omitempty"`
	Pending     *domain.Action      `json:"pending_action,omitempty"`
	Allowed     []domain.ActionKind `json:"allowed_actions"`
	Notices     []Notice            `json:"notices,omitempty"`
	ChatChannel domain.Channel      `json:"chat_channel,omitempty"`
	PhaseToken  string              `json:"phase_token"`
}

// Partition строит снапшот для viewerID. Зритель без места видит только публичное
func Partition(t *Table, eng Engine, viewerID int64, now time.Time) *Snapshot {
	viewer := t.SeatOf(viewerID)
	snap := &Snapshot{
		Room:       t.Room,
		ServerTime: now,
	}
	if t.State != nil {
		st := *t.State
		st.CommunityCards = slices.Clone(st.CommunityCards)
		snap.State = &st
	}

	for _, s := range t.Seats {
		snap.Seats = append(snap.Seats, seatView(t, s, viewer))
	}
	snap.Messages = visibleMessages(t, viewer)

	viewerIndex := -1
	if viewer != nil {
		viewerIndex = viewer.Index
		me := &MeView{
			Seat:       viewer.Index,
			IsHost:     viewer.UserID == t.Room.HostID,
			Role:       viewer.Role,
			HoleCards:  slices.Clone(viewer.HoleCards),
			Allowed:    eng.Allowed(t, viewer.Index),
			Notices:    slices.Clone(t.Notices[viewer.Index]),
			PhaseToken: t.PhaseToken(),
		}
		if me.Allowed == nil {
			me.Allowed = []domain.ActionKind{}
		}
		if a, ok := t.Actions[viewer.Index]; ok {
			me.Pending = &a
		}
		if ch, err := eng.ChatChannel(t, viewer.Index); err == nil {
			me.ChatChannel = ch
		}
		snap.Me = me
	}
	snap.Tally = eng.Tally(t, viewerIndex)
	return snap
}

func seatView(t *Table, s *domain.Seat, viewer *domain.Seat) SeatView {
	v := SeatView{
		Index:      s.Index,
		UserID:     s.UserID,
		Name:       s.Name,
		Avatar:     s.Avatar,
		IsHost:     s.UserID == t.Room.HostID,
		IsReady:    s.IsReady,
		Active:     s.Active,
		IsAlive:    s.IsAlive,
		Chips:      s.Chips,
		IsFolded:   s.IsFolded,
		CurrentBet: s.CurrentBet,
	}
	own := viewer != nil && viewer.Index == s.Index

	// роли открываются только владельцу и всем после конца игры
	if own || t.Room.Status == domain.StatusFinished {
		v.Role = s.Role
	}

	if len(s.HoleCards) > 0 {
		if own || revealed(t, s.Index) {
			v.HoleCards = slices.Clone(s.HoleCards)
		} else {
			v.HoleCards = make([]domain.Card, len(s.HoleCards))
			for i := range v.HoleCards {
				v.HoleCards[i] = domain.HiddenCard
			}
		}
	}

	if a, ok := t.Actions[s.Index]; ok && t.Room.Variant == domain.VariantPoker {
		kind := a.Kind
		v.LastAction = &kind
	}
	return v
}

// revealed: карты места вскрыты на шоудауне текущей раздачи
func revealed(t *Table, seat int) bool {
	st := t.State
	if st == nil || st.LastHand == nil {
		return false
	}
	if st.Phase != domain.PhaseShowdown && st.Phase != domain.PhaseFinished {
		return false
	}
	return slices.Contains(st.LastHand.Revealed, seat)
}

// visibleMessages: канал мафии читают только мафия, и во время игры, и после
func visibleMessages(t *Table, viewer *domain.Seat) []domain.Message {
	out := make([]domain.Message, 0, len(t.Messages))
	for _, m := range t.Messages {
		switch m.Channel {
		case domain.ChannelSystem, domain.ChannelPublic:
			out = append(out, m)
		case domain.ChannelMafia:
			if viewer != nil && viewer.Role.IsMafia() {
				out = append(out, m)
			}
		}
	}
	return out
}
