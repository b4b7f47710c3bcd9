package game

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"partyrooms/internal/domain"
)

// Table - полное авторитетное состояние одной комнаты.
// Не потокобезопасно: все методы вызываются под замком комнаты.
type Table struct {
	Room     domain.Room           `json:"room"`
	Seats    []*domain.Seat        `json:"seats"` // отсортированы по Index
	State    *domain.GameState     `json:"state,omitempty"`
	Actions  map[int]domain.Action `json:"actions,omitempty"`
	Messages []domain.Message      `json:"messages"`
	Notices  map[int][]Notice      `json:"notices,omitempty"`
	Hand     *HandState            `json:"hand,omitempty"`

	// выплаты по завершении уже сделаны
	Settled   bool  `json:"settled"`
	Version   int64 `json:"version"`
	NextMsgID int64 `json:"next_msg_id"`
}

// Приватное сообщение одному игроку (результат проверки детектива)
type Notice struct {
	Kind   string `json:"kind"`
	Target int    `json:"target"`
	Mafia  bool   `json:"mafia"`
	Text   string `json:"text"`
}

func NewTable(room domain.Room) *Table {
	return &Table{
		Room:    room,
		Actions: make(map[int]domain.Action),
		Notices: make(map[int][]Notice),
	}
}

// Seat возвращает место по индексу
func (t *Table) Seat(index int) *domain.Seat {
	for _, s := range t.Seats {
		if s.Index == index {
			return s
		}
	}
	return nil
}

// SeatOf возвращает место пользователя
func (t *Table) SeatOf(userID int64) *domain.Seat {
	for _, s := range t.Seats {
		if s.UserID == userID {
			return s
		}
	}
	return nil
}

// Host - место владельца комнаты
func (t *Table) Host() *domain.Seat {
	return t.SeatOf(t.Room.HostID)
}

// FreeSeatIndex - наименьший свободный индекс или -1
func (t *Table) FreeSeatIndex() int {
	for i := 0; i < t.Room.MaxPlayers; i++ {
		if t.Seat(i) == nil {
			return i
		}
	}
	return -1
}

// AddSeat сажает игрока, сохраняя порядок мест
func (t *Table) AddSeat(s *domain.Seat) {
	t.Seats = append(t.Seats, s)
	sort.Slice(t.Seats, func(i, j int) bool { return t.Seats[i].Index < t.Seats[j].Index })
}

// RemoveSeat освобождает место
func (t *Table) RemoveSeat(index int) {
	for i, s := range t.Seats {
		if s.Index == index {
			t.Seats = append(t.Seats[:i], t.Seats[i+1:]...)
			return
		}
	}
}

// nextSeat ищет по часовой стрелке после from первое место, подходящее под pred.
// Само место from проверяется последним.
func (t *Table) nextSeat(from int, pred func(*domain.Seat) bool) *domain.Seat {
	var after, before []*domain.Seat
	for _, s := range t.Seats {
		if s.Index > from {
			after = append(after, s)
		} else {
			before = append(before, s)
		}
	}
	for _, s := range append(after, before...) {
		if pred(s) {
			return s
		}
	}
	return nil
}

// PhaseToken - токен текущей фазы/хода для submitAction
func (t *Table) PhaseToken() string {
	if t.State == nil {
		return ""
	}
	return strconv.FormatInt(t.State.PhaseID, 10)
}

func (t *Table) checkToken(token string) error {
	if token != "" && token != t.PhaseToken() {
		return domain.ErrWrongPhase
	}
	return nil
}

// enterPhase заменяет GameState новым значением и очищает действия фазы
func (t *Table) enterPhase(phase domain.Phase, deadline time.Time) *domain.GameState {
	next := domain.GameState{}
	if t.State != nil {
		next = *t.State
		next.CommunityCards = append([]domain.Card(nil), t.State.CommunityCards...)
	}
	next.Phase = phase
	next.PhaseID++
	next.Deadline = deadline
	t.State = &next
	t.Actions = make(map[int]domain.Action)
	return t.State
}

// finish фиксирует итог. Поля победителя пишутся ровно один раз
func (t *Table) finish(now time.Time, winner domain.Winner, seat *int, hand string) {
	if t.Room.Status == domain.StatusFinished {
		return
	}
	st := t.enterPhase(domain.PhaseFinished, time.Time{})
	st.Winner = winner
	st.WinnerSeat = seat
	st.WinnerHand = hand
	st.TurnSeat = -1
	t.Room.Status = domain.StatusFinished
	finishedAt := now
	t.Room.FinishedAt = &finishedAt
}

// Post добавляет сообщение игрока
func (t *Table) Post(now time.Time, s *domain.Seat, channel domain.Channel, text string) domain.Message {
	idx := s.Index
	return t.appendMessage(domain.Message{
		Seat:      &idx,
		Author:    s.Name,
		Text:      text,
		Channel:   channel,
		CreatedAt: now,
	})
}

// System добавляет системное сообщение
func (t *Table) System(now time.Time, text string) domain.Message {
	return t.appendMessage(domain.Message{
		Author:    "system",
		Text:      text,
		Channel:   domain.ChannelSystem,
		CreatedAt: now,
	})
}

func (t *Table) appendMessage(m domain.Message) domain.Message {
	t.NextMsgID++
	m.ID = t.NextMsgID
	if t.State != nil {
		m.Phase = t.State.Phase
	}
	t.Messages = append(t.Messages, m)
	return m
}

func (t *Table) clearNotices() {
	t.Notices = make(map[int][]Notice)
}

// PlayersCount - занятые места
func (t *Table) PlayersCount() int {
	return len(t.Seats)
}

// Summary - строка для списка комнат
func (t *Table) Summary() domain.RoomSummary {
	sum := domain.RoomSummary{
		ID:           t.Room.ID,
		Code:         t.Room.Code,
		Name:         t.Room.Name,
		Variant:      t.Room.Variant,
		HostID:       t.Room.HostID,
		MaxPlayers:   t.Room.MaxPlayers,
		PlayersCount: len(t.Seats),
		Status:       t.Room.Status,
		BuyIn:        t.Room.BuyIn,
		CreatedAt:    t.Room.CreatedAt,
	}
	if h := t.Host(); h != nil {
		sum.HostName = h.Name
	}
	return sum
}

// Clone - глубокая копия через JSON (для записи в хранилище и сравнения в тестах)
func (t *Table) Clone() (*Table, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return DecodeTable(data)
}

// DecodeTable восстанавливает стол из JSON, пустые карты создаются заново
func DecodeTable(data []byte) (*Table, error) {
	var out Table
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out.Actions == nil {
		out.Actions = make(map[int]domain.Action)
	}
	if out.Notices == nil {
		out.Notices = make(map[int][]Notice)
	}
	if h := out.Hand; h != nil {
		if h.Committed == nil {
			h.Committed = make(map[int]int64)
		}
		if h.AllIn == nil {
			h.AllIn = make(map[int]bool)
		}
		if h.Acted == nil {
			h.Acted = make(map[int]bool)
		}
		if h.CallOnly == nil {
			h.CallOnly = make(map[int]bool)
		}
		if h.InHand == nil {
			h.InHand = make(map[int]bool)
		}
	}
	return &out, nil
}
