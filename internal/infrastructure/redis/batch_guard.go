package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appledger "github.com/jhoicas/stock-ledger/internal/application/ledger"
)

var _ appledger.BatchGuard = (*BatchGuard)(nil)

const batchKeyPrefix = "ledger:batch:"

// releaseScript borra la clave solo si todavía guarda el token de quien la reservó.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// BatchGuard reservas de huellas de lote compartidas entre instancias (SET NX con TTL).
type BatchGuard struct {
	client *redis.Client
}

// NewBatchGuard construye el guard sobre un cliente ya conectado.
func NewBatchGuard(client *redis.Client) *BatchGuard {
	return &BatchGuard{client: client}
}

// Reserve devuelve ok=false si otra petición ya tiene la huella dentro de la ventana.
func (g *BatchGuard) Reserve(ctx context.Context, fingerprint string, window time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, batchKeyPrefix+fingerprint, token, window).Result()
	if err != nil {
		return "", false, fmt.Errorf("reservar huella: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release borra la reserva para que el lote pueda reenviarse tras una falla.
// Si la reserva venció y otra petición la tomó, no se toca.
func (g *BatchGuard) Release(ctx context.Context, fingerprint, token string) error {
	if err := releaseScript.Run(ctx, g.client, []string{batchKeyPrefix + fingerprint}, token).Err(); err != nil {
		return fmt.Errorf("liberar huella: %w", err)
	}
	return nil
}
