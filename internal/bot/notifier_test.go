package bot

import (
	"context"
	"errors"
	"iter"
	"slices"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyrooms/internal/domain"
	"partyrooms/internal/logger"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	fail map[int64]bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	if f.fail[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("bot was blocked by the user")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{}, nil
}

type staticRooms []domain.RoomSummary

func (s staticRooms) Rooms() iter.Seq[domain.RoomSummary] {
	return slices.Values(s)
}

func newTestBot(f *fakeSender) *Bot {
	return &Bot{send: f, stopCh: make(chan struct{}), log: logger.With("component", "bot")}
}

func TestGameFinished_SkipsSeatsWithoutTelegram(t *testing.T) {
	f := &fakeSender{fail: map[int64]bool{300: true}}
	b := newTestBot(f)
	seat := 1
	room := domain.Room{Name: "<b>friday</b>", Variant: domain.VariantPoker}
	seats := []domain.Seat{
		{Index: 0, Name: "ann", TgID: 100},
		{Index: 1, Name: "bob", TgID: 200},
		{Index: 2, Name: "eve"},
		{Index: 3, Name: "max", TgID: 300},
	}
	b.GameFinished(context.Background(), room, domain.GameState{
		Winner:     domain.WinnerPlayer,
		WinnerSeat: &seat,
		WinnerHand: "Flush",
	}, seats)

	require.Len(t, f.sent, 2)
	assert.Equal(t, int64(100), f.sent[0].ChatID)
	assert.Equal(t, int64(200), f.sent[1].ChatID)
	assert.Contains(t, f.sent[0].Text, "Победитель: bob (Flush)")
	assert.Contains(t, f.sent[0].Text, "&lt;b&gt;friday&lt;/b&gt;")
	assert.Equal(t, "HTML", f.sent[0].ParseMode)
}

func TestFinishedText_Mafia(t *testing.T) {
	room := domain.Room{Name: "club", Variant: domain.VariantMafia}
	assert.Contains(t, finishedText(room, domain.GameState{Winner: domain.WinnerTown}, nil), "Победил город")
	assert.Contains(t, finishedText(room, domain.GameState{Winner: domain.WinnerMafia}, nil), "Победила мафия")
	assert.Contains(t, finishedText(room, domain.GameState{}, nil), "Все игроки вышли")
}

func TestGameStarted_CancelledContext(t *testing.T) {
	f := &fakeSender{}
	b := newTestBot(f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.GameStarted(ctx, domain.Room{Name: "x"}, []domain.Seat{{TgID: 1}, {TgID: 2}})
	assert.Empty(t, f.sent)
}

func TestRoomsMessage(t *testing.T) {
	b := newTestBot(&fakeSender{})
	assert.Equal(t, "Открытых комнат нет", b.roomsMessage())

	now := time.Now()
	b.SetRoomLister(staticRooms{
		{Code: "ABCDE", Name: "poker night", Variant: domain.VariantPoker, PlayersCount: 2, MaxPlayers: 6, BuyIn: 100, Status: domain.StatusWaiting, CreatedAt: now},
		{Code: "FGHJK", Name: "busy", Variant: domain.VariantMafia, Status: domain.StatusPlaying, CreatedAt: now},
	})
	text := b.roomsMessage()
	assert.Contains(t, text, "<code>ABCDE</code> poker night (poker) 2/6, бай-ин 100")
	assert.NotContains(t, text, "FGHJK")
}
