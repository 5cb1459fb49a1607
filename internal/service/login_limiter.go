package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// LoginLimiter limita los intentos de login por clave (email normalizado).
// Falla abierto: un backend caido nunca bloquea el login.
// Reset se llama tras un login exitoso: solo los intentos fallidos se acumulan.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) bool
	Reset(ctx context.Context, key string)
}

// memoryLimiterKeys acota las claves distintas que guarda el limitador en memoria.
const memoryLimiterKeys = 10000

// LoginKey normaliza el email usado como clave del limitador.
func LoginKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type memoryLoginLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	now    func() time.Time
	hits   *expirable.LRU[string, []time.Time]
}

// NewMemoryLoginLimiter crea un limitador de ventana deslizante en memoria.
// Una clave sin intentos durante window se descarta sola.
func NewMemoryLoginLimiter(window time.Duration, max int) LoginLimiter {
	return newMemoryLoginLimiter(window, max, memoryLimiterKeys)
}

func newMemoryLoginLimiter(window time.Duration, max, size int) *memoryLoginLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryLoginLimiter{
		window: window,
		max:    max,
		now:    time.Now,
		hits:   expirable.NewLRU[string, []time.Time](size, nil, window),
	}
}

func (l *memoryLoginLimiter) Allow(_ context.Context, key string) bool {
	key = LoginKey(key)
	if key == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	cutoff := now.Add(-l.window)
	prev, _ := l.hits.Get(key)
	kept := make([]time.Time, 0, len(prev)+1)
	for _, ts := range prev {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits.Add(key, kept)
		return false
	}
	l.hits.Add(key, append(kept, now))
	return true
}

func (l *memoryLoginLimiter) Reset(_ context.Context, key string) {
	key = LoginKey(key)
	if key == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits.Remove(key)
}

const redisLoginAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisLimiterClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisLoginLimiter struct {
	client redisLimiterClient
	window time.Duration
	max    int
	prefix string
}

// NewRedisLoginLimiter comparte el conteo entre instancias. Ventana fija de window.
func NewRedisLoginLimiter(client *redis.Client, window time.Duration, max int) LoginLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisLoginLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "web:login:rl:",
	}
}

func (l *redisLoginLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	key = LoginKey(key)
	if key == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisLoginAllowScript, []string{l.prefix + key}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}

// Reset borra el contador de la clave. Un error de redis solo deja el contador en su ventana.
func (l *redisLoginLimiter) Reset(ctx context.Context, key string) {
	if l == nil || l.client == nil {
		return
	}
	key = LoginKey(key)
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_ = l.client.Del(ctx, l.prefix+key).Err()
}
