package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type reservation struct {
	token   string
	expires time.Time
}

// BatchGuard reservas de huellas de lote en memoria, para cuando no hay Redis.
// Solo protege dentro de un mismo proceso.
type BatchGuard struct {
	mu      sync.Mutex
	entries map[string]reservation
	now     func() time.Time
}

// NewBatchGuard construye el guard.
func NewBatchGuard() *BatchGuard {
	return &BatchGuard{entries: make(map[string]reservation), now: time.Now}
}

func (g *BatchGuard) Reserve(_ context.Context, fingerprint string, window time.Duration) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if r, ok := g.entries[fingerprint]; ok && now.Before(r.expires) {
		return "", false, nil
	}
	r := reservation{token: uuid.NewString(), expires: now.Add(window)}
	g.entries[fingerprint] = r
	g.sweep(now)
	return r.token, true, nil
}

func (g *BatchGuard) Release(_ context.Context, fingerprint, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.entries[fingerprint]; ok && r.token == token {
		delete(g.entries, fingerprint)
	}
	return nil
}

// sweep descarta reservas vencidas; requiere g.mu tomado.
func (g *BatchGuard) sweep(now time.Time) {
	for fp, r := range g.entries {
		if !now.Before(r.expires) {
			delete(g.entries, fp)
		}
	}
}
