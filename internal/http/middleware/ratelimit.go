package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"partyrooms/internal/logger"
	"partyrooms/internal/metrics"
)

// Limiter решает, пропустить ли очередной запрос с ключом
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter - фиксированное окно в секунду, общее для всех инстансов
type RedisLimiter struct {
	client *redis.Client
	limit  int64
}

func NewRedisLimiter(client *redis.Client, rps float64, burst int) *RedisLimiter {
	// в окне секунды допускается rps + burst запросов
	return &RedisLimiter{client: client, limit: int64(math.Ceil(rps)) + int64(burst)}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := time.Now().Unix()
	k := fmt.Sprintf("rl:%s:%d", key, window)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, 2*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	return incr.Val() <= l.limit, nil
}

// LocalLimiter - token bucket на процесс, когда redis не настроен
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
	now     func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(rps float64, burst int) *LocalLimiter {
	if burst < 1 {
		burst = 1
	}
	return &LocalLimiter{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()
	return b.lim.AllowN(now, 1), nil
}

// Prune выкидывает ключи, которых не было дольше idle. Ведро за это время
// успевает наполниться, так что новое ведро ведет себя так же
func (l *LocalLimiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idle)
	n := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			n++
		}
	}
	return n
}

func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// StartPruner чистит ведра по расписанию cron до отмены ctx
func (l *LocalLimiter) StartPruner(ctx context.Context, spec string, idle time.Duration) error {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(spec, func() {
		if n := l.Prune(idle); n > 0 {
			logger.Debug("rate limiter pruned", "keys", n)
		}
	})
	if err != nil {
		return fmt.Errorf("prune schedule %q: %w", spec, err)
	}
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

// InitRedisRateLimiter выбирает redis, если он доступен, иначе лимит в памяти процесса
func InitRedisRateLimiter(addr, password string, db int, rps float64, burst int) Limiter {
	if addr == "" {
		logger.Info("rate limiter: in-process", "rps", rps, "burst", burst)
		return NewLocalLimiter(rps, burst)
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("rate limiter: redis unavailable, falling back to in-process", "addr", addr, "error", err)
		_ = client.Close()
		return NewLocalLimiter(rps, burst)
	}
	logger.Info("rate limiter: redis", "addr", addr, "rps", rps, "burst", burst)
	return NewRedisLimiter(client, rps, burst)
}

// RateLimit ограничивает запросы игрока. Ключ - user_id, без авторизации - ip.
// Если redis отвалился, запрос пропускается
func RateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if p, ok := Principal(c); ok {
			key = "user:" + strconv.FormatInt(p.UserID, 10)
		}
		allowed, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter error", "key", key, "error", err)
		}
		if !allowed {
			metrics.RateLimited.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited", "message": "too many requests"})
			return
		}
		c.Next()
	}
}
