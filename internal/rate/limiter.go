// Package rate implementa throttling fixed-window para los endpoints de
// auth: limita intentos de login, códigos MFA y pedidos de reset por origen.
package rate

import (
	"context"
	"sync"
	"time"
)

// Result es el veredicto de una consulta al limiter.
type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

// Limiter decide si una key (origen+ruta) puede ejecutar otro intento.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// MemoryLimiter: fixed window en memoria de proceso. Para despliegues de un
// solo nodo o desarrollo; multi-nodo usa RedisLimiter.
type MemoryLimiter struct {
	Max    int64
	Window time.Duration

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	start time.Time
	hits  int64
}

// NewMemoryLimiter crea un limiter en memoria.
func NewMemoryLimiter(max int, win time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Max:     int64(max),
		Window:  win,
		windows: make(map[string]*window),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !w.start.Equal(winStart) {
		w = &window{start: winStart}
		l.windows[key] = w
	}
	w.hits++

	// poda oportunista de ventanas viejas para que el mapa no crezca sin tope
	if len(l.windows) > 4096 {
		for k, v := range l.windows {
			if !v.start.Equal(winStart) {
				delete(l.windows, k)
			}
		}
	}

	res := Result{
		Allowed:     w.hits <= l.Max,
		Remaining:   l.Max - w.hits,
		CurrentHits: w.hits,
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = winStart.Add(l.Window).Sub(now)
	}
	return res, nil
}
