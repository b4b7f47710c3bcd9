package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"time"

	"partyrooms/internal/domain"
)

// Engine - машина фаз одного варианта игры.
// Состояние целиком живет в Table, движок хранит только конфиг и rng.
type Engine interface {
	Variant() domain.Variant
	// допустимая вместимость; минимум одновременно порог для старта
	SeatRange() (min, max int)

	Start(t *Table, now time.Time) error
	Submit(t *Table, seat int, in domain.ActionInput, now time.Time) (*Tally, error)
	// Advance разрешает фазу, если дедлайн истек. true если что-то поменялось
	Advance(t *Table, now time.Time) bool
	// Leave выводит место из идущей игры, возвращает фишки к возврату на баланс
	Leave(t *Table, seat int, now time.Time) int64

	ChatChannel(t *Table, seat int) (domain.Channel, error)
	Allowed(t *Table, seat int) []domain.ActionKind
	Tally(t *Table, viewer int) *Tally
}

// Текущий подсчет, возвращается сразу после submitAction
type Tally struct {
	Phase      domain.Phase   `json:"phase"`
	PhaseToken string         `json:"phase_token"`
	Votes      map[int]int    `json:"votes,omitempty"`
	Acted      int            `json:"acted"`
	Eligible   int            `json:"eligible"`
	Mine       *domain.Action `json:"mine,omitempty"`
	Pot        int64          `json:"pot,omitempty"`
	CurrentBet int64          `json:"current_bet,omitempty"`
}

type Config struct {
	Mafia MafiaConfig
	Poker PokerConfig
}

// Factory создает движок на каждую комнату (у каждой свой rng)
type Factory struct {
	cfg  Config
	seed func() int64
}

func NewFactory(cfg Config) *Factory {
	return &Factory{cfg: cfg, seed: secureSeed}
}

// WithSeed делает раздачу ролей и карт воспроизводимой
func (f *Factory) WithSeed(seed int64) *Factory {
	f.seed = func() int64 { return seed }
	return f
}

func (f *Factory) Create(v domain.Variant) (Engine, error) {
	rng := mrand.New(mrand.NewSource(f.seed()))
	switch v {
	case domain.VariantMafia:
		return NewMafia(f.cfg.Mafia, rng), nil
	case domain.VariantPoker:
		return NewPoker(f.cfg.Poker, rng), nil
	}
	return nil, fmt.Errorf("%w: unknown variant %q", domain.ErrInvalidConfig, v)
}

func secureSeed() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return time.Now().UnixNano()
	}
	return n.Int64()
}

// maxCatchUp ограничивает число разрешений за один вызов Advance
const maxCatchUp = 64
