package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/internal/application/history"
	appledger "github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	ProductUC *usecase.ProductUseCase
	LedgerUC  *appledger.UseCase
	HistoryUC *history.UseCase
	Exporter  *history.Exporter
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	adminOnly := RequireRole(entity.RoleAdmin, entity.RoleSuperAdmin)
	anyRole := RequireRole(entity.RoleOperator, entity.RoleAdmin, entity.RoleSuperAdmin)

	protected.Post("/users", RequireRole(entity.RoleSuperAdmin), authHandler.CreateUser)

	// Products
	productHandler := NewProductHandler(deps.ProductUC)
	historyHandler := NewHistoryHandler(deps.HistoryUC, deps.Exporter)
	products := protected.Group("/products")
	products.Post("/", adminOnly, productHandler.Create)
	products.Get("/barcode/:code", anyRole, productHandler.GetByBarcode)
	products.Get("/:id", anyRole, productHandler.GetByID)
	products.Patch("/:id/status", adminOnly, productHandler.SetStatus)
	products.Get("/:id/movements", anyRole, historyHandler.ProductHistory)

	// Stock: lotes del escáner
	stockHandler := NewStockHandler(deps.LedgerUC)
	stock := protected.Group("/stock")
	stock.Post("/batches", anyRole, stockHandler.SubmitBatch)
	stock.Post("/in", anyRole, stockHandler.In)
	stock.Post("/out", anyRole, stockHandler.Out)
	stock.Post("/return", anyRole, stockHandler.Return)

	// Historial global (administración)
	stock.Get("/movements", adminOnly, historyHandler.GlobalHistory)
	stock.Get("/movements/export.pdf", adminOnly, historyHandler.ExportPDF)
}
