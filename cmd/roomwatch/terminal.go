package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"partyrooms/internal/domain"
	"partyrooms/internal/syncclient"
)

// terminal перерисовывает экран целиком на каждый Render
type terminal struct {
	mu  sync.Mutex
	out io.Writer
	// номер последнего показанного сообщения
	seen int64
}

func newTerminal(out io.Writer) *terminal {
	return &terminal{out: out}
}

func (t *terminal) Toast(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "! %s\n", msg)
}

func (t *terminal) Render(v syncclient.View) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := v.Snapshot
	if snap == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\r[%s] %s (%s, код %s) %s", snap.Room.Variant, snap.Room.Name, snap.Room.Status, snap.Room.Code, phaseLine(v))
	if v.Pending {
		b.WriteString(" | отправлено")
	}
	b.WriteString("\n")

	for _, m := range snap.Messages {
		if m.ID <= t.seen {
			continue
		}
		t.seen = m.ID
		fmt.Fprintf(&b, "  %s %s: %s\n", channelMark(m.Channel), m.Author, m.Text)
	}
	fmt.Fprint(t.out, b.String())
}

func phaseLine(v syncclient.View) string {
	st := v.Snapshot.State
	if st == nil {
		return fmt.Sprintf("игроков: %d/%d", len(v.Snapshot.Seats), v.Snapshot.Room.MaxPlayers)
	}
	if st.Winner != "" {
		return "итог: " + string(st.Winner) + " " + st.WinnerHand
	}
	line := fmt.Sprintf("%s #%d, осталось %s", st.Phase, max(st.DayNumber, st.HandNumber), v.Remaining.Truncate(time.Second))
	if me := v.Snapshot.Me; me != nil && len(me.Allowed) > 0 {
		kinds := make([]string, len(me.Allowed))
		for i, k := range me.Allowed {
			kinds[i] = string(k)
		}
		line += " | можно: " + strings.Join(kinds, ",")
	}
	if st.Pot > 0 {
		line += fmt.Sprintf(" | банк %d", st.Pot)
	}
	return line
}

func channelMark(ch domain.Channel) string {
	switch ch {
	case domain.ChannelSystem:
		return "*"
	case domain.ChannelMafia:
		return "#"
	}
	return ">"
}
