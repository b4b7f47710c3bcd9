package rooms

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc/iter"

	"partyrooms/internal/domain"
	"partyrooms/internal/metrics"
)

// Sweep разрешает просроченные фазы в комнатах, которые никто не читает,
// выгружает из памяти давно законченные и дописывает надгробия закрытых
func (h *Hub) Sweep() {
	started := time.Now()
	now := h.now()

	rooms := h.snapshotRooms()
	iter.ForEach(rooms, func(r **Room) {
		h.sweepRoom(*r, now)
	})
	for _, tomb := range h.pendingTombstones() {
		h.saveTombstone(tomb)
	}
	metrics.SweepDuration.Observe(time.Since(started).Seconds())
}

func (h *Hub) sweepRoom(r *Room, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	h.advance(r, now, "sweep")

	t := r.table
	if t.Room.Status != domain.StatusFinished || t.Room.FinishedAt == nil {
		return
	}
	if now.Sub(*t.Room.FinishedAt) < h.retention {
		return
	}
	r.closed = true
	h.removeRoom(t.Room)
	h.log.Debug("finished room evicted", "room_id", t.Room.ID)
}

// StartSweeper запускает Sweep по расписанию cron до отмены ctx
func (h *Hub) StartSweeper(ctx context.Context, spec string) error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(spec, h.Sweep); err != nil {
		return fmt.Errorf("sweep schedule %q: %w", spec, err)
	}
	c.Start()
	h.log.Info("sweeper started", "spec", spec)

	go func() {
		<-ctx.Done()
		// ждем текущий проход
		<-c.Stop().Done()
	}()
	return nil
}
