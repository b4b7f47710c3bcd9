package rooms

import (
	"cmp"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math/big"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"partyrooms/internal/domain"
	"partyrooms/internal/game"
	"partyrooms/internal/logger"
	"partyrooms/internal/metrics"
)

const (
	// без 0/O и 1/I, чтобы код было легко продиктовать
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 5

	maxNameLen    = 64
	maxMessageLen = 500

	externalTimeout = 10 * time.Second
)

type Options struct {
	Factory  *game.Factory
	Wallet   Wallet
	Store    Store
	Notifier Notifier
	Auditor  Auditor
	// часы подменяются в тестах
	Clock func() time.Time
	// сколько законченная комната живет в памяти
	Retention time.Duration
}

// Hub - реестр комнат. Замок хаба листовой: под ним никогда не берется замок комнаты
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	codes map[string]string // код -> id, только для незавершенных

	// закрытые комнаты, чье надгробие еще не легло в хранилище
	tombstones map[string]*game.Table

	factory   *game.Factory
	wallet    Wallet
	store     Store
	notifier  Notifier
	auditor   Auditor
	now       func() time.Time
	retention time.Duration

	// выплаты, уведомления и запись в хранилище уходят в фон
	bg  conc.WaitGroup
	log *slog.Logger
}

// Room - комната с собственным замком. Все чтения и записи состояния идут под ним
type Room struct {
	mu     sync.Mutex
	table  *game.Table
	engine game.Engine
	// комната удалена из реестра
	closed bool
}

func NewHub(opts Options) *Hub {
	h := &Hub{
		rooms:      make(map[string]*Room),
		codes:      make(map[string]string),
		tombstones: make(map[string]*game.Table),
		factory:    opts.Factory,
		wallet:     opts.Wallet,
		store:      opts.Store,
		notifier:   opts.Notifier,
		auditor:    opts.Auditor,
		now:        opts.Clock,
		retention:  opts.Retention,
		log:        logger.With("component", "rooms"),
	}
	if h.factory == nil {
		h.factory = game.NewFactory(game.Config{
			Mafia: game.DefaultMafiaConfig(),
			Poker: game.DefaultPokerConfig(),
		})
	}
	if h.store == nil {
		h.store = noopStore{}
	}
	if h.notifier == nil {
		h.notifier = noopNotifier{}
	}
	if h.auditor == nil {
		h.auditor = noopAuditor{}
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.retention <= 0 {
		h.retention = 30 * time.Minute
	}
	return h
}

// Wait дожидается фоновых задач (выплаты, уведомления, запись)
func (h *Hub) Wait() {
	h.bg.Wait()
}

// Create создает комнату в waiting, создатель садится на место 0
func (h *Hub) Create(ctx context.Context, p domain.Principal, cfg domain.RoomConfig) (*game.Snapshot, error) {
	eng, err := h.factory.Create(cfg.Variant)
	if err != nil {
		return nil, err
	}
	minSeats, maxSeats := eng.SeatRange()
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = maxSeats
	}
	if cfg.MaxPlayers < minSeats || cfg.MaxPlayers > maxSeats {
		return nil, fmt.Errorf("%w: capacity must be between %d and %d", domain.ErrInvalidConfig, minSeats, maxSeats)
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = p.Name + "'s room"
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return nil, fmt.Errorf("%w: name is too long", domain.ErrInvalidConfig)
	}
	switch cfg.Variant {
	case domain.VariantPoker:
		if cfg.SmallBlind <= 0 || cfg.BuyIn < 2*cfg.SmallBlind {
			return nil, fmt.Errorf("%w: buy-in must cover at least one big blind", domain.ErrInvalidConfig)
		}
	default:
		cfg.SmallBlind, cfg.BuyIn = 0, 0
	}

	id := uuid.NewString()
	if err := h.buyIn(ctx, p.UserID, cfg.BuyIn, id); err != nil {
		return nil, err
	}

	now := h.now()
	t := game.NewTable(domain.Room{
		ID:         id,
		Name:       name,
		HostID:     p.UserID,
		Variant:    cfg.Variant,
		MaxPlayers: cfg.MaxPlayers,
		Status:     domain.StatusWaiting,
		CreatedAt:  now,
		SmallBlind: cfg.SmallBlind,
		BuyIn:      cfg.BuyIn,
	})
	host := newSeat(0, p, cfg.BuyIn)
	host.IsReady = true
	t.AddSeat(host)
	t.System(now, fmt.Sprintf("%s created the room", p.Name))
	r := &Room{table: t, engine: eng}

	h.mu.Lock()
	code, err := h.uniqueCode()
	if err == nil {
		t.Room.Code = code
		h.rooms[id] = r
		h.codes[code] = id
	}
	h.mu.Unlock()
	if err != nil {
		h.refund(p.UserID, cfg.BuyIn, domain.TxRefund, id)
		return nil, err
	}
	metrics.MoveRoom(string(cfg.Variant), "", string(domain.StatusWaiting))
	h.log.Info("room created", "room_id", id, "code", code, "variant", cfg.Variant, "user_id", p.UserID)

	r.mu.Lock()
	defer r.mu.Unlock()
	h.persist(r)
	h.audit(p.UserID, domain.AuditActionRoomCreate, domain.AuditCategoryRoom, map[string]interface{}{
		"room_id": id, "variant": cfg.Variant, "buy_in": cfg.BuyIn,
	})
	return game.Partition(t, eng, p.UserID, now), nil
}

// Join сажает игрока на наименьшее свободное место. Комната ищется по id или коду
func (h *Hub) Join(ctx context.Context, p domain.Principal, roomID, code string) (*game.Snapshot, error) {
	var (
		r   *Room
		err error
	)
	if roomID != "" {
		r, err = h.lookup(roomID)
	} else {
		r, err = h.lookupCode(code)
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, domain.ErrRoomNotFound
	}
	t := r.table
	now := h.now()
	if t.Room.Status != domain.StatusWaiting {
		return nil, domain.ErrRoomNotJoinable
	}
	if t.SeatOf(p.UserID) != nil {
		return nil, domain.ErrAlreadySeated
	}
	idx := t.FreeSeatIndex()
	if idx < 0 {
		return nil, domain.ErrRoomFull
	}
	if err := h.buyIn(ctx, p.UserID, t.Room.BuyIn, t.Room.ID); err != nil {
		return nil, err
	}

	t.AddSeat(newSeat(idx, p, t.Room.BuyIn))
	t.System(now, fmt.Sprintf("%s joined", p.Name))
	h.commit(r, domain.StatusWaiting)
	h.audit(p.UserID, domain.AuditActionRoomJoin, domain.AuditCategoryRoom, map[string]interface{}{
		"room_id": t.Room.ID, "seat": idx,
	})
	return game.Partition(t, r.engine, p.UserID, now), nil
}

// Leave освобождает место в waiting или выводит игрока из идущей игры
func (h *Hub) Leave(ctx context.Context, p domain.Principal, roomID string) error {
	r, err := h.lookup(roomID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.ErrRoomNotFound
	}
	t := r.table
	now := h.now()
	h.advance(r, now, "action")

	s := t.SeatOf(p.UserID)
	if s == nil {
		return domain.ErrNotSeated
	}

	switch t.Room.Status {
	case domain.StatusFinished:
		return nil

	case domain.StatusWaiting:
		t.RemoveSeat(s.Index)
		t.System(now, fmt.Sprintf("%s left", s.Name))
		h.refund(p.UserID, t.Room.BuyIn, domain.TxRefund, t.Room.ID)

		if len(t.Seats) == 0 {
			h.abandon(r, now)
			break
		}
		if s.UserID == t.Room.HostID {
			// хост уходит к наименьшему занятому месту
			next := t.Seats[0]
			t.Room.HostID = next.UserID
			next.IsReady = true
			t.System(now, fmt.Sprintf("%s is now the host", next.Name))
		}
		h.commit(r, domain.StatusWaiting)

	case domain.StatusPlaying:
		cash := r.engine.Leave(t, s.Index, now)
		h.commit(r, domain.StatusPlaying)
		h.refund(p.UserID, cash, domain.TxCashOut, t.Room.ID)
	}

	h.audit(p.UserID, domain.AuditActionRoomLeave, domain.AuditCategoryRoom, map[string]interface{}{
		"room_id": t.Room.ID, "status": t.Room.Status,
	})
	return nil
}

// Ready переключает готовность. Для хоста ничего не делает
func (h *Hub) Ready(ctx context.Context, p domain.Principal, roomID string) (*game.Snapshot, error) {
	r, err := h.lookup(roomID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, domain.ErrRoomNotFound
	}
	t := r.table
	now := h.now()
	if t.Room.Status != domain.StatusWaiting {
		return nil, domain.ErrNotWaiting
	}
	s := t.SeatOf(p.UserID)
	if s == nil {
		return nil, domain.ErrNotSeated
	}
	if s.UserID != t.Room.HostID {
		s.IsReady = !s.IsReady
		h.commit(r, domain.StatusWaiting)
	}
	return game.Partition(t, r.engine, p.UserID, now), nil
}

// Start запускает игру: только хост, все готовы, игроков не меньше минимума
func (h *Hub) Start(ctx context.Context, p domain.Principal, roomID string) (*game.Snapshot, error) {
	r, err := h.lookup(roomID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, domain.ErrRoomNotFound
	}
	t := r.table
	now := h.now()
	if t.Room.Status != domain.StatusWaiting {
		return nil, domain.ErrNotWaiting
	}
	if p.UserID != t.Room.HostID {
		return nil, domain.ErrNotHost
	}
	if minSeats, _ := r.engine.SeatRange(); len(t.Seats) < minSeats {
		return nil, fmt.Errorf("%w: need at least %d players", domain.ErrNotEnoughSeat, minSeats)
	}
	for _, s := range t.Seats {
		if s.UserID != t.Room.HostID && !s.IsReady {
			return nil, domain.ErrPlayersNotReady
		}
	}
	if err := r.engine.Start(t, now); err != nil {
		return nil, err
	}
	h.commit(r, domain.StatusWaiting)
	h.log.Info("game started", "room_id", t.Room.ID, "variant", t.Room.Variant, "players", len(t.Seats))
	return game.Partition(t, r.engine, p.UserID, now), nil
}

// Submit принимает действие игрока. Просроченная фаза сначала разрешается
func (h *Hub) Submit(ctx context.Context, p domain.Principal, roomID string, in domain.ActionInput) (*game.Tally, error) {
	r, err := h.lookup(roomID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, domain.ErrRoomNotFound
	}
	t := r.table
	now := h.now()
	h.advance(r, now, "action")

	s := t.SeatOf(p.UserID)
	if s == nil {
		return nil, domain.ErrNotSeated
	}
	if t.Room.Status == domain.StatusWaiting {
		return nil, domain.ErrWrongPhase
	}
	prev := t.Room.Status
	variant := string(t.Room.Variant)
	tally, err := r.engine.Submit(t, s.Index, in, now)
	if err != nil {
		metrics.Actions.WithLabelValues(variant, string(in.Kind), "rejected").Inc()
		return nil, err
	}
	metrics.Actions.WithLabelValues(variant, string(in.Kind), "accepted").Inc()
	h.commit(r, prev)
	return tally, nil
}

// Chat добавляет сообщение в канал, открытый игроку в текущей фазе
func (h *Hub) Chat(ctx context.Context, p domain.Principal, roomID, text string) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > maxMessageLen {
		return domain.Message{}, domain.ErrInvalidMessage
	}
	r, err := h.lookup(roomID)
	if err != nil {
		return domain.Message{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.Message{}, domain.ErrRoomNotFound
	}
	t := r.table
	now := h.now()
	h.advance(r, now, "action")

	s := t.SeatOf(p.UserID)
	if s == nil {
		return domain.Message{}, domain.ErrNotSeated
	}
	ch, err := r.engine.ChatChannel(t, s.Index)
	if err != nil {
		return domain.Message{}, err
	}
	msg := t.Post(now, s, ch, text)
	metrics.ChatMessages.WithLabelValues(string(ch)).Inc()
	h.commit(r, t.Room.Status)
	return msg, nil
}

// Snapshot - состояние комнаты глазами игрока. Истекший дедлайн разрешается
// здесь же, ровно один раз: повторное чтение видит уже новую фазу
func (h *Hub) Snapshot(ctx context.Context, p domain.Principal, roomID string) (*game.Snapshot, error) {
	metrics.SnapshotReads.Inc()
	r, err := h.lookup(roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		r, err = h.loadStored(ctx, roomID)
		if err == nil && r.table.Room.Status == domain.StatusFinished {
			return game.Partition(r.table, r.engine, p.UserID, h.now()), nil
		}
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed && r.table.Room.Status != domain.StatusFinished {
		return nil, domain.ErrRoomNotFound
	}
	now := h.now()
	h.advance(r, now, "read")
	return game.Partition(r.table, r.engine, p.UserID, now), nil
}

// Rooms - список незавершенных комнат: сначала waiting, потом playing.
// Каждый проход по последовательности строит список заново
func (h *Hub) Rooms() iter.Seq[domain.RoomSummary] {
	return func(yield func(domain.RoomSummary) bool) {
		var waiting, playing []domain.RoomSummary
		for _, r := range h.snapshotRooms() {
			r.mu.Lock()
			closed, sum := r.closed, r.table.Summary()
			r.mu.Unlock()
			if closed {
				continue
			}
			switch sum.Status {
			case domain.StatusWaiting:
				waiting = append(waiting, sum)
			case domain.StatusPlaying:
				playing = append(playing, sum)
			}
		}
		newestFirst := func(a, b domain.RoomSummary) int {
			return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID, b.ID))
		}
		slices.SortFunc(waiting, newestFirst)
		slices.SortFunc(playing, newestFirst)
		for _, sum := range append(waiting, playing...) {
			if !yield(sum) {
				return
			}
		}
	}
}

func (h *Hub) snapshotRooms() []*Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		out = append(out, r)
	}
	return out
}

func (h *Hub) lookup(id string) (*Room, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return r, nil
}

func (h *Hub) lookupCode(code string) (*Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := h.codes[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	r, ok := h.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return r, nil
}

// loadStored поднимает комнату из хранилища. В реестр возвращается только
// живая комната: идущая игра или waiting с занятыми местами.
// Законченная отдается только для чтения, закрытая считается удаленной
func (h *Hub) loadStored(ctx context.Context, id string) (*Room, error) {
	h.mu.RLock()
	_, gone := h.tombstones[id]
	h.mu.RUnlock()
	if gone {
		return nil, domain.ErrRoomNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, externalTimeout)
	defer cancel()
	t, err := h.store.LoadRoom(ctx, id)
	if errors.Is(err, ErrNotStored) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", id, err)
	}
	switch t.Room.Status {
	case domain.StatusClosed:
		return nil, domain.ErrRoomNotFound
	case domain.StatusWaiting:
		if len(t.Seats) == 0 {
			return nil, domain.ErrRoomNotFound
		}
	}
	eng, err := h.factory.Create(t.Room.Variant)
	if err != nil {
		return nil, err
	}
	r := &Room{table: t, engine: eng}
	if t.Room.Status == domain.StatusFinished {
		return r, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.rooms[id]; ok {
		return existing, nil
	}
	if _, gone := h.tombstones[id]; gone {
		return nil, domain.ErrRoomNotFound
	}
	h.rooms[id] = r
	if _, taken := h.codes[t.Room.Code]; !taken {
		h.codes[t.Room.Code] = id
	}
	metrics.MoveRoom(string(t.Room.Variant), "", string(t.Room.Status))
	h.log.Info("room restored from store", "room_id", id, "status", t.Room.Status)
	return r, nil
}

// advance разрешает просроченную фазу под замком комнаты
func (h *Hub) advance(r *Room, now time.Time, trigger string) {
	prev := r.table.Room.Status
	if r.engine.Advance(r.table, now) {
		metrics.PhaseResolutions.WithLabelValues(string(r.table.Room.Variant), trigger).Inc()
		h.commit(r, prev)
	}
}

// commit фиксирует изменение: версия, метрики, побочные эффекты переходов, запись
func (h *Hub) commit(r *Room, prev domain.RoomStatus) {
	t := r.table
	t.Version++
	status := t.Room.Status
	if status != prev {
		metrics.MoveRoom(string(t.Room.Variant), string(prev), string(status))
	}
	if prev == domain.StatusWaiting && status != domain.StatusWaiting {
		h.onStarted(t)
	}
	if status == domain.StatusFinished && !t.Settled {
		h.onFinished(t)
	}
	h.persist(r)
}

func (h *Hub) onStarted(t *game.Table) {
	room, seats := t.Room, copySeats(t)
	h.bg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), externalTimeout)
		defer cancel()
		h.notifier.GameStarted(ctx, room, seats)
		h.auditor.Log(ctx, room.HostID, domain.AuditActionGameStart, domain.AuditCategoryGame, map[string]interface{}{
			"room_id": room.ID, "variant": room.Variant, "players": len(seats),
		})
	})
}

// onFinished выплачивает оставшиеся фишки и освобождает код. Ровно один раз
func (h *Hub) onFinished(t *game.Table) {
	t.Settled = true
	room, state, seats := t.Room, *t.State, copySeats(t)
	h.releaseCode(room.Code, room.ID)
	h.log.Info("game finished", "room_id", room.ID, "winner", state.Winner)

	payouts := make(map[int64]int64)
	if room.BuyIn > 0 {
		for _, s := range seats {
			if s.Active && s.Chips > 0 {
				payouts[s.UserID] = s.Chips
			}
		}
	}
	h.bg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), externalTimeout)
		defer cancel()
		for userID, amount := range payouts {
			h.credit(ctx, userID, amount, domain.TxCashOut, room.ID)
		}
		h.notifier.GameFinished(ctx, room, state, seats)
		details := map[string]interface{}{"room_id": room.ID, "variant": room.Variant, "winner": state.Winner}
		if state.WinnerSeat != nil {
			details["winner_seat"] = *state.WinnerSeat
		}
		h.auditor.Log(ctx, room.HostID, domain.AuditActionGameEnd, domain.AuditCategoryGame, details)
	})
}

// persist пишет копию состояния в фоне. Хранилище принимает только более новую версию
func (h *Hub) persist(r *Room) {
	snapshot, err := r.table.Clone()
	if err != nil {
		h.log.Error("clone room failed", "room_id", r.table.Room.ID, "error", err)
		return
	}
	h.bg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), externalTimeout)
		defer cancel()
		if err := h.store.SaveRoom(ctx, snapshot); err != nil {
			h.log.Warn("save room failed", "room_id", snapshot.Room.ID, "version", snapshot.Version, "error", err)
		}
	})
}

// abandon закрывает опустевшую waiting-комнату. Надгробие пишется синхронно
// до удаления из реестра: иначе чтение подняло бы из хранилища старую
// версию с местом и бай-ином, и уход вернул бы деньги второй раз
func (h *Hub) abandon(r *Room, now time.Time) {
	t := r.table
	room := t.Room
	t.Room.Status = domain.StatusClosed
	t.Room.FinishedAt = &now
	t.Version++

	tomb, err := t.Clone()
	if err != nil {
		h.log.Error("clone room failed", "room_id", room.ID, "error", err)
	} else {
		h.mu.Lock()
		h.tombstones[room.ID] = tomb
		h.mu.Unlock()
		h.saveTombstone(tomb)
	}

	r.closed = true
	h.removeRoom(room)
	h.log.Info("empty room removed", "room_id", room.ID)
}

// saveTombstone пишет надгробие. Пока запись не прошла, оно держится
// в памяти и повторяется из Sweep
func (h *Hub) saveTombstone(tomb *game.Table) {
	ctx, cancel := context.WithTimeout(context.Background(), externalTimeout)
	defer cancel()
	if err := h.store.SaveRoom(ctx, tomb); err != nil {
		h.log.Warn("save tombstone failed", "room_id", tomb.Room.ID, "version", tomb.Version, "error", err)
		return
	}
	h.mu.Lock()
	delete(h.tombstones, tomb.Room.ID)
	h.mu.Unlock()
}

func (h *Hub) pendingTombstones() []*game.Table {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*game.Table, 0, len(h.tombstones))
	for _, t := range h.tombstones {
		out = append(out, t)
	}
	return out
}

func (h *Hub) audit(userID int64, action, category string, details map[string]interface{}) {
	h.bg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), externalTimeout)
		defer cancel()
		h.auditor.Log(ctx, userID, action, category, details)
	})
}

// buyIn списывает бай-ин до выдачи места
func (h *Hub) buyIn(ctx context.Context, userID, amount int64, roomID string) error {
	if amount <= 0 {
		return nil
	}
	if h.wallet == nil {
		return domain.ErrBalanceUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, externalTimeout)
	defer cancel()

	balance, err := h.wallet.GetBalance(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBalanceUnavailable, err)
	}
	if balance < amount {
		return domain.ErrInsufficientFunds
	}
	meta := map[string]interface{}{"room_id": roomID}
	if _, err := h.wallet.Debit(ctx, userID, amount, domain.TxBuyIn, meta); err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return domain.ErrInsufficientFunds
		}
		return fmt.Errorf("%w: %v", domain.ErrBalanceUnavailable, err)
	}
	h.audit(userID, domain.AuditActionBuyIn, domain.AuditCategoryBalance, map[string]interface{}{
		"room_id": roomID, "amount": amount,
	})
	return nil
}

// refund возвращает фишки на баланс в фоне
func (h *Hub) refund(userID, amount int64, txType, roomID string) {
	if amount <= 0 || h.wallet == nil {
		return
	}
	h.bg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), externalTimeout)
		defer cancel()
		h.credit(ctx, userID, amount, txType, roomID)
	})
}

func (h *Hub) credit(ctx context.Context, userID, amount int64, txType, roomID string) {
	if amount <= 0 || h.wallet == nil {
		return
	}
	meta := map[string]interface{}{"room_id": roomID}
	if _, err := h.wallet.Credit(ctx, userID, amount, txType, meta); err != nil {
		// деньги не дошли, нужен ручной разбор по логам
		h.log.Error("credit failed", "user_id", userID, "amount", amount, "type", txType, "room_id", roomID, "error", err)
		return
	}
	action := domain.AuditActionCashOut
	if txType == domain.TxRefund {
		action = domain.AuditActionRefund
	}
	h.auditor.Log(ctx, userID, action, domain.AuditCategoryBalance, map[string]interface{}{
		"room_id": roomID, "amount": amount,
	})
}

func (h *Hub) removeRoom(room domain.Room) {
	h.mu.Lock()
	delete(h.rooms, room.ID)
	if h.codes[room.Code] == room.ID {
		delete(h.codes, room.Code)
	}
	h.mu.Unlock()
	metrics.MoveRoom(string(room.Variant), string(room.Status), "")
}

func (h *Hub) releaseCode(code, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.codes[code] == id {
		delete(h.codes, code)
	}
}

// uniqueCode вызывается под замком хаба
func (h *Hub) uniqueCode() (string, error) {
	for attempt := 0; attempt < 32; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		if _, taken := h.codes[code]; !taken {
			return code, nil
		}
	}
	return "", errors.New("could not allocate room code")
}

func randomCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func newSeat(index int, p domain.Principal, chips int64) *domain.Seat {
	return &domain.Seat{
		Index:   index,
		UserID:  p.UserID,
		TgID:    p.TgID,
		Name:    p.Name,
		Avatar:  p.Avatar,
		Active:  true,
		IsAlive: true,
		Chips:   chips,
	}
}

func copySeats(t *game.Table) []domain.Seat {
	out := make([]domain.Seat, 0, len(t.Seats))
	for _, s := range t.Seats {
		out = append(out, *s)
	}
	return out
}
