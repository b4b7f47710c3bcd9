package syncclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyrooms/internal/domain"
	"partyrooms/internal/game"
)

type fakeTransport struct {
	mu       sync.Mutex
	snap     *game.Snapshot
	snapErr  error
	submits  []domain.ActionInput
	submitFn func(context.Context) error
	chats    []string
}

func (f *fakeTransport) Snapshot(context.Context, string) (*game.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapErr != nil {
		return nil, f.snapErr
	}
	cp := *f.snap
	return &cp, nil
}

func (f *fakeTransport) Submit(ctx context.Context, _ string, in domain.ActionInput) error {
	f.mu.Lock()
	f.submits = append(f.submits, in)
	fn := f.submitFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

func (f *fakeTransport) Chat(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, text)
	return nil
}

type recorder struct {
	mu     sync.Mutex
	views  []View
	toasts []string
}

func (r *recorder) Render(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *recorder) Toast(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, msg)
}

func (r *recorder) lastToast() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return ""
	}
	return r.toasts[len(r.toasts)-1]
}

type localClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *localClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *localClock) Add(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// часы сервера и клиента специально разъехались на час
func nightSnapshot() *game.Snapshot {
	server := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return &game.Snapshot{
		Room:       domain.Room{ID: "r1", Status: domain.StatusPlaying},
		State:      &domain.GameState{Phase: domain.PhaseNight, PhaseID: 1, Deadline: server.Add(30 * time.Second)},
		Me:         &game.MeView{Seat: 0, PhaseToken: "1", Allowed: []domain.ActionKind{domain.ActionKill}},
		ServerTime: server,
	}
}

func newClient(t *testing.T, tr *fakeTransport) (*Client, *recorder, *localClock) {
	t.Helper()
	clock := &localClock{t: time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC)}
	rec := &recorder{}
	c := New(tr, rec, "r1", Options{Clock: clock.Now})
	t.Cleanup(c.Wait)
	return c, rec, clock
}

func TestNew_ClampsInterval(t *testing.T) {
	assert.Equal(t, DefaultInterval, New(nil, nil, "r", Options{}).Interval())
	assert.Equal(t, MinInterval, New(nil, nil, "r", Options{Interval: 100 * time.Millisecond}).Interval())
	assert.Equal(t, MaxInterval, New(nil, nil, "r", Options{Interval: time.Minute}).Interval())
	assert.Equal(t, 4*time.Second, New(nil, nil, "r", Options{Interval: 4 * time.Second}).Interval())
}

func TestCountdown_IsLocalAndNeverNegative(t *testing.T) {
	c, rec, clock := newClient(t, &fakeTransport{snap: nightSnapshot()})

	c.Refresh(context.Background())
	require.Len(t, rec.views, 1)
	assert.Equal(t, 30*time.Second, c.View().Remaining)

	clock.Add(12 * time.Second)
	assert.Equal(t, 18*time.Second, c.View().Remaining)

	// ноль на клиенте ничего не меняет: фаза та же до следующего снапшота
	clock.Add(time.Minute)
	v := c.View()
	assert.Zero(t, v.Remaining)
	assert.Equal(t, domain.PhaseNight, v.Snapshot.State.Phase)
}

func TestRefresh_ErrorKeepsLastView(t *testing.T) {
	tr := &fakeTransport{snap: nightSnapshot()}
	c, rec, _ := newClient(t, tr)
	c.Refresh(context.Background())

	tr.mu.Lock()
	tr.snapErr = &APIError{Status: 502, Code: "balance_unavailable", Message: "balance service unavailable"}
	tr.mu.Unlock()
	c.Refresh(context.Background())

	assert.Equal(t, "balance service unavailable", rec.lastToast())
	require.NotNil(t, c.View().Snapshot)
	assert.Equal(t, "r1", c.View().Snapshot.Room.ID)
}

func TestSubmit_PendingUntilSnapshotAfterReply(t *testing.T) {
	release := make(chan struct{})
	tr := &fakeTransport{snap: nightSnapshot(), submitFn: func(ctx context.Context) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}}
	c, _, _ := newClient(t, tr)
	c.Refresh(context.Background())

	target := 2
	c.Submit(context.Background(), domain.ActionInput{Kind: domain.ActionKill, Target: &target})
	assert.True(t, c.View().Pending)

	// снапшот, полученный пока запрос в пути, ничего не подтверждает
	c.Refresh(context.Background())
	assert.True(t, c.View().Pending)

	close(release)
	c.Wait()
	select {
	case <-c.refresh:
	default:
		t.Fatal("после отправки ожидался запрос на обновление")
	}
	c.Refresh(context.Background())
	assert.False(t, c.View().Pending)

	require.Len(t, tr.submits, 1)
	assert.Equal(t, "1", tr.submits[0].PhaseToken)
}

func TestSubmit_RejectedShowsToast(t *testing.T) {
	tr := &fakeTransport{snap: nightSnapshot(), submitFn: func(context.Context) error {
		return &APIError{Status: 409, Code: "wrong_phase", Message: "action does not match current phase"}
	}}
	c, rec, _ := newClient(t, tr)
	c.Refresh(context.Background())

	c.Submit(context.Background(), domain.ActionInput{Kind: domain.ActionVote})
	c.Wait()

	assert.Equal(t, "action does not match current phase", rec.lastToast())
	assert.False(t, c.View().Pending)
	assert.Len(t, c.refresh, 1)
}

func TestChat_DoesNotTouchPending(t *testing.T) {
	tr := &fakeTransport{snap: nightSnapshot()}
	c, _, _ := newClient(t, tr)

	c.Chat(context.Background(), "hi")
	c.Wait()
	assert.Equal(t, []string{"hi"}, tr.chats)
	assert.False(t, c.View().Pending)
}

func TestRun_StopsOnCancel(t *testing.T) {
	tr := &fakeTransport{snap: nightSnapshot()}
	c, rec, _ := newClient(t, tr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.views) > 0
	}, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("Run не остановился")
	}
}
