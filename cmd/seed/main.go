// seed crea el superadministrador y carga el catálogo inicial con su stock de apertura.
//
// Uso: go run ./cmd/seed [ruta/catalogo.csv]
// Sin archivo carga un catálogo de demostración. El CSV usa ';' y puede venir en ISO-8859-1
// (SEED_LATIN1=true). Es idempotente: productos y usuarios existentes se omiten.
package main

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	appledger "github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const seedActorID = "00000000-0000-0000-0000-000000000000"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	rows := demoCatalog
	if len(os.Args) > 1 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			log.Fatal().Err(err).Str("path", os.Args[1]).Msg("abrir catálogo")
		}
		latin1, _ := strconv.ParseBool(os.Getenv("SEED_LATIN1"))
		rows, err = parseCatalog(f, latin1)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("leer catálogo")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if _, err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	authUC := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{
		Secret: cfg.JWT.Secret, ExpMinutes: cfg.JWT.Expiration, Issuer: cfg.JWT.Issuer,
	})
	admin := dto.CreateUserRequest{
		Email:    envOr("SEED_ADMIN_EMAIL", "admin@stock-ledger.local"),
		Password: envOr("SEED_ADMIN_PASSWORD", "cambiar-123"),
		Name:     "Superadministrador",
		Role:     entity.RoleSuperAdmin,
	}
	switch _, err := authUC.CreateUser(ctx, admin); {
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		log.Info().Str("email", admin.Email).Msg("superadmin ya existe")
	case err != nil:
		log.Fatal().Err(err).Msg("crear superadmin")
	default:
		log.Info().Str("email", admin.Email).Msg("superadmin creado")
	}

	products := postgres.NewProductRepository(pool)
	productUC := usecase.NewProductUseCase(products)
	ledgerUC := appledger.NewUseCase(
		postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout), products, memory.NewBatchGuard(), nil, log,
		appledger.Config{MaxLineItems: cfg.Ledger.MaxLineItems, DedupWindow: cfg.Ledger.DedupWindow},
	)
	actor := entity.Actor{ID: seedActorID, Name: "seed"}

	created := 0
	for _, row := range rows {
		p, err := productUC.Create(ctx, dto.CreateProductRequest{
			SKU: row.SKU, Barcode: row.Barcode, Name: row.Name, Price: row.Price,
		})
		if errors.Is(err, domain.ErrDuplicate) {
			log.Debug().Str("sku", row.SKU).Msg("producto ya existe, se omite")
			continue
		}
		if err != nil {
			log.Fatal().Err(err).Str("sku", row.SKU).Msg("crear producto")
		}
		created++
		if row.Quantity == 0 {
			continue
		}
		// el stock de apertura entra por el libro para que la conciliación cuadre
		if _, err := ledgerUC.Apply(ctx, appledger.ApplyInput{
			ProductID:       p.ID,
			Type:            entity.MovementTypeIn,
			Quantity:        row.Quantity,
			Actor:           actor,
			ReferenceNumber: "APERTURA-" + row.SKU,
		}); err != nil {
			log.Fatal().Err(err).Str("sku", row.SKU).Msg("stock de apertura")
		}
	}
	log.Info().Int("products", created).Int("rows", len(rows)).Msg("seed completado")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
