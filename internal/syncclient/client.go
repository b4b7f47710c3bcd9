// Package syncclient - клиент одной открытой комнаты. Сервер единственный
// источник правды: клиент опрашивает снапшот, целиком заменяет локальное
// состояние и только рисует его. Локальный таймер ничего не решает.
package syncclient

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"partyrooms/internal/domain"
	"partyrooms/internal/game"
	"partyrooms/internal/logger"
)

const (
	MinInterval     = 2500 * time.Millisecond
	MaxInterval     = 5 * time.Second
	DefaultInterval = 3 * time.Second

	countdownTick = time.Second
	writeTimeout  = 10 * time.Second
)

// View - то, что видит игрок прямо сейчас
type View struct {
	Snapshot *game.Snapshot
	// действие отправлено, следующий снапшот его подтвердит
	Pending bool
	// до дедлайна фазы по локальным часам, только для показа
	Remaining time.Duration
}

// Renderer рисует вид и всплывающие ошибки
type Renderer interface {
	Render(View)
	Toast(msg string)
}

type Options struct {
	Interval time.Duration
	Clock    func() time.Time
}

type Client struct {
	transport Transport
	renderer  Renderer
	roomID    string
	interval  time.Duration
	now       func() time.Time

	mu   sync.Mutex
	snap *game.Snapshot
	// локальное время получения снапшота, от него идет обратный отсчет
	fetchedAt time.Time
	pending   bool
	// меняется на каждой отправке и ответе; inflight - отправки без ответа
	gen      uint64
	inflight int

	refresh chan struct{}
	writes  conc.WaitGroup
	log     *slog.Logger
}

func New(t Transport, r Renderer, roomID string, opts Options) *Client {
	interval := opts.Interval
	switch {
	case interval == 0:
		interval = DefaultInterval
	case interval < MinInterval:
		interval = MinInterval
	case interval > MaxInterval:
		interval = MaxInterval
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Client{
		transport: t,
		renderer:  r,
		roomID:    roomID,
		interval:  interval,
		now:       now,
		refresh:   make(chan struct{}, 1),
		log:       logger.With("component", "syncclient", "room_id", roomID),
	}
}

func (c *Client) Interval() time.Duration { return c.interval }

// Run опрашивает комнату до отмены ctx. Раз в секунду перерисовывает таймер
func (c *Client) Run(ctx context.Context) error {
	defer c.writes.Wait()

	poll := time.NewTicker(c.interval)
	defer poll.Stop()
	tick := time.NewTicker(countdownTick)
	defer tick.Stop()

	c.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
			c.Refresh(ctx)
		case <-c.refresh:
			c.Refresh(ctx)
		case <-tick.C:
			c.renderer.Render(c.View())
		}
	}
}

// Refresh забирает снапшот и заменяет им локальное состояние.
// При ошибке остается прежний вид и показывается тост
func (c *Client) Refresh(ctx context.Context) {
	c.mu.Lock()
	gen, idle := c.gen, c.inflight == 0
	c.mu.Unlock()

	snap, err := c.transport.Snapshot(ctx, c.roomID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.log.Debug("snapshot failed", "error", err)
		c.renderer.Toast(describe(err))
		return
	}

	c.mu.Lock()
	c.snap = snap
	c.fetchedAt = c.now()
	// снапшот запрошен после ответа на последнюю отправку
	if idle && c.gen == gen {
		c.pending = false
	}
	c.mu.Unlock()
	c.renderer.Render(c.View())
}

// View считает вид на текущий момент
func (c *Client) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{Snapshot: c.snap, Pending: c.pending}
	if c.snap != nil && c.snap.State != nil && c.snap.Room.Status == domain.StatusPlaying {
		// дедлайн в часах сервера, прошедшее берем по своим
		left := c.snap.State.Deadline.Sub(c.snap.ServerTime) - c.now().Sub(c.fetchedAt)
		v.Remaining = max(left, 0)
	}
	return v
}

// Submit отправляет действие и не ждет ответа. Токен фазы берется из
// последнего снапшота, поэтому запоздавшее действие сервер отклонит
func (c *Client) Submit(ctx context.Context, in domain.ActionInput) {
	c.mu.Lock()
	if in.PhaseToken == "" && c.snap != nil && c.snap.Me != nil {
		in.PhaseToken = c.snap.Me.PhaseToken
	}
	c.pending = true
	c.mu.Unlock()
	c.renderer.Render(c.View())

	c.write(ctx, true, func(ctx context.Context) error {
		return c.transport.Submit(ctx, c.roomID, in)
	})
}

// Chat тоже fire-and-forget
func (c *Client) Chat(ctx context.Context, text string) {
	c.write(ctx, false, func(ctx context.Context) error {
		return c.transport.Chat(ctx, c.roomID, text)
	})
}

func (c *Client) write(ctx context.Context, action bool, call func(context.Context) error) {
	c.mu.Lock()
	c.gen++
	c.inflight++
	c.mu.Unlock()
	c.writes.Go(func() {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		defer cancel()
		if err := call(wctx); err != nil && !errors.Is(err, context.Canceled) {
			c.renderer.Toast(describe(err))
			if action {
				c.mu.Lock()
				c.pending = false
				c.mu.Unlock()
			}
		}
		// после любой записи снапшот обновляется
		c.mu.Lock()
		c.gen++
		c.inflight--
		c.mu.Unlock()
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	})
}

// Wait дожидается отправок, запущенных без Run
func (c *Client) Wait() {
	c.writes.Wait()
}

func describe(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
