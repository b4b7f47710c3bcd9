package bot

import (
	"context"
	"fmt"
	"html"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"partyrooms/internal/domain"
	"partyrooms/internal/logger"
)

// сколько комнат показывает /rooms
const roomsListLimit = 10

// RoomLister отдает открытые комнаты для команды /rooms
type RoomLister interface {
	Rooms() iter.Seq[domain.RoomSummary]
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot шлет игрокам личные сообщения о старте и конце игры
// и отвечает на пару команд в личке
type Bot struct {
	api    *tgbotapi.BotAPI
	send   sender
	rooms  RoomLister
	appURL string
	stopCh chan struct{}
	wg     sync.WaitGroup
	log    *slog.Logger
}

// New авторизует бота по токену
func New(token, appURL string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log := logger.With("component", "bot")
	log.Info("bot authorized", "username", api.Self.UserName)

	return &Bot{
		api:    api,
		send:   api,
		appURL: appURL,
		stopCh: make(chan struct{}),
		log:    log,
	}, nil
}

// SetRoomLister подключает список комнат, до вызова /rooms отвечает пусто
func (b *Bot) SetRoomLister(rooms RoomLister) {
	b.rooms = rooms
}

// Start запускает прослушивание команд
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop плавно останавливает бота
func (b *Bot) Stop() {
	b.log.Info("stopping bot...")
	close(b.stopCh)
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	var response string
	switch msg.Command() {
	case "start", "help":
		response = b.helpMessage()
	case "rooms":
		response = b.roomsMessage()
	default:
		response = "Неизвестная команда. /help - список команд"
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.ParseMode = "HTML"
	if _, err := b.send.Send(reply); err != nil {
		b.log.Error("failed to send reply", "chat_id", msg.Chat.ID, "error", err)
	}
}

func (b *Bot) helpMessage() string {
	text := `<b>Комнаты: мафия и покер</b>

/rooms - открытые комнаты
/help - эта справка`
	if b.appURL != "" {
		text += "\n\nИграть: " + b.appURL
	}
	return text
}

func (b *Bot) roomsMessage() string {
	if b.rooms == nil {
		return "Открытых комнат нет"
	}
	var lines []string
	for sum := range b.rooms.Rooms() {
		if sum.Status != domain.StatusWaiting {
			continue
		}
		line := fmt.Sprintf("<code>%s</code> %s (%s) %d/%d",
			sum.Code, html.EscapeString(sum.Name), sum.Variant, sum.PlayersCount, sum.MaxPlayers)
		if sum.BuyIn > 0 {
			line += fmt.Sprintf(", бай-ин %d", sum.BuyIn)
		}
		lines = append(lines, line)
		if len(lines) == roomsListLimit {
			break
		}
	}
	if len(lines) == 0 {
		return "Открытых комнат нет"
	}
	return "<b>Ждут игроков:</b>\n\n" + strings.Join(lines, "\n")
}

// GameStarted рассылает сидящим игрокам уведомление о старте
func (b *Bot) GameStarted(ctx context.Context, room domain.Room, seats []domain.Seat) {
	b.broadcast(ctx, seats, startedText(room, seats))
}

// GameFinished рассылает итог игры
func (b *Bot) GameFinished(ctx context.Context, room domain.Room, state domain.GameState, seats []domain.Seat) {
	b.broadcast(ctx, seats, finishedText(room, state, seats))
}

func (b *Bot) broadcast(ctx context.Context, seats []domain.Seat, text string) {
	for _, s := range seats {
		if s.TgID == 0 {
			continue
		}
		if ctx.Err() != nil {
			b.log.Warn("notification cancelled", "error", ctx.Err())
			return
		}
		msg := tgbotapi.NewMessage(s.TgID, text)
		msg.ParseMode = "HTML"
		if _, err := b.send.Send(msg); err != nil {
			b.log.Error("не удалось уведомить игрока", "tg_id", s.TgID, "error", err)
		}
	}
}

func startedText(room domain.Room, seats []domain.Seat) string {
	names := make([]string, 0, len(seats))
	for _, s := range seats {
		names = append(names, html.EscapeString(s.Name))
	}
	return fmt.Sprintf(`<b>Игра началась!</b>

Комната: %s (%s)
Игроки: %s`, html.EscapeString(room.Name), room.Variant, strings.Join(names, ", "))
}

func finishedText(room domain.Room, state domain.GameState, seats []domain.Seat) string {
	var result string
	switch state.Winner {
	case domain.WinnerTown:
		result = "Победил город"
	case domain.WinnerMafia:
		result = "Победила мафия"
	case domain.WinnerPlayer:
		result = "Победитель не определен"
		if state.WinnerSeat != nil {
			for _, s := range seats {
				if s.Index == *state.WinnerSeat {
					result = "Победитель: " + html.EscapeString(s.Name)
					if state.WinnerHand != "" {
						result += " (" + state.WinnerHand + ")"
					}
				}
			}
		}
	default:
		result = "Все игроки вышли"
	}
	return fmt.Sprintf(`<b>Игра окончена</b>

Комната: %s (%s)
%s`, html.EscapeString(room.Name), room.Variant, result)
}
