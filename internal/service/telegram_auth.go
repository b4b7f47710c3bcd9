package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"partyrooms/internal/domain"
	"partyrooms/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidInitData = errors.New("invalid telegram init data")

// проверяет HMAC Telegram WebApp init_data и убеждается,
// что auth_date недавний (в течение 1 часа) для предотвращения replay-атак
func ValidateTelegramInitData(initData, botToken string) (url.Values, bool) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, false
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, false
	}
	values.Del("hash")

	var dataCheck []string
	for k, v := range values {
		dataCheck = append(dataCheck, k+"="+strings.Join(v, ""))
	}

	sort.Strings(dataCheck)
	dataString := strings.Join(dataCheck, "\n")

	// Telegram WebApp использует HMAC с ключом "WebAppData"
	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(botToken))
	secret := secretKey.Sum(nil)
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(dataString))

	calculated := h.Sum(nil)
	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, false
	}

	if !hmac.Equal(calculated, provided) {
		return nil, false
	}

	// проверка актуальности: требуем auth_date в течение последнего часа
	authDateStr := values.Get("auth_date")
	if authDateStr == "" {
		return nil, false
	}
	authDate, err := strconv.ParseInt(authDateStr, 10, 64)
	if err != nil {
		return nil, false
	}

	now := time.Now().Unix()
	// разрешаем небольшую рассинхронизацию часов, но отклоняем всё старше 1 часа
	if now-authDate > 3600 || authDate-now > 300 {
		return nil, false
	}

	return values, true
}

// поле user из init_data
type telegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	PhotoURL  string `json:"photo_url"`
}

// ParseTelegramUser достает пользователя из проверенных init_data
func ParseTelegramUser(values url.Values) (*domain.User, error) {
	raw := values.Get("user")
	if raw == "" {
		return nil, ErrInvalidInitData
	}
	var tu telegramUser
	if err := json.Unmarshal([]byte(raw), &tu); err != nil || tu.ID == 0 {
		return nil, ErrInvalidInitData
	}
	return &domain.User{
		TgID:      tu.ID,
		Username:  tu.Username,
		FirstName: tu.FirstName,
		PhotoURL:  tu.PhotoURL,
	}, nil
}

// AuthService меняет init_data мини-приложения на JWT игрока
type AuthService struct {
	users    *repository.UserRepository
	audit    *AuditService
	botToken string
	tokenTTL time.Duration
}

func NewAuthService(db *pgxpool.Pool, audit *AuditService, botToken string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:    repository.NewUserRepository(db),
		audit:    audit,
		botToken: botToken,
		tokenTTL: tokenTTL,
	}
}

// Login проверяет подпись, заводит пользователя при первом входе и выдает токен
func (s *AuthService) Login(ctx context.Context, initData, ip, userAgent string) (string, *domain.User, error) {
	values, ok := ValidateTelegramInitData(initData, s.botToken)
	if !ok {
		return "", nil, ErrInvalidInitData
	}
	user, err := ParseTelegramUser(values)
	if err != nil {
		return "", nil, err
	}
	if err := s.users.UpsertByTgID(ctx, user); err != nil {
		return "", nil, err
	}

	token, err := IssueToken(domain.Principal{
		UserID: user.ID,
		TgID:   user.TgID,
		Name:   user.DisplayName(),
		Avatar: user.PhotoURL,
	}, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	s.audit.LogLogin(ctx, user.ID, ip, userAgent)
	return token, user, nil
}

// Me - профиль с балансом и последними движениями
func (s *AuthService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}
