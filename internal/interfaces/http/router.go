package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	WarehouseUC     *usecase.WarehouseUseCase
	ProductUC       *usecase.ProductUseCase
	PurchaseOrderUC *usecase.PurchaseOrderUseCase
	SalesOrderUC    *usecase.SalesOrderUseCase
	Transfers       *inventory.TransferCoordinator
	Adjustments     *inventory.AdjustmentProcessor
	Receipts        *inventory.ReceiptReconciler
	Fulfillment     *inventory.FulfillmentService
	Projector       *inventory.StockProjector
	StockCardPDF    inventory.StockCardPDFGenerator
	JWTSecret       string
}

// Router registra las rutas de la API. Todo lo que está bajo /api requiere Bearer Token y, salvo
// el mantenimiento de la proyección, un token con company_id.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	company := RequireCompany()

	// Catálogo
	warehouses := api.Group("/warehouses", company)
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", RequireRole(jwt.RoleAdmin), warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)

	products := api.Group("/products", company)
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", RequireRole(jwt.RoleAdmin), productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)

	// Ledger
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Transfers, deps.Adjustments, deps.Projector, deps.StockCardPDF)
	inv.Post("/transfers", company, RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero), inventoryHandler.SubmitTransfer)
	inv.Post("/adjustments", company, RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero), inventoryHandler.SubmitAdjustment)
	inv.Get("/levels/:product_id/:warehouse_id", company, inventoryHandler.GetLevel)
	inv.Get("/products/:product_id/stock", company, inventoryHandler.GetProductStock)
	inv.Get("/products/:product_id/kardex.pdf", company, inventoryHandler.GetStockCardPDF)
	inv.Get("/warehouses/:warehouse_id/stock", company, inventoryHandler.GetWarehouseStock)
	inv.Get("/movements", company, inventoryHandler.ListMovements)

	// La proyección es global: la verifica y reconstruye solo el operador de la plataforma.
	inv.Get("/projection/verify", RequireRole(jwt.RoleSistema), inventoryHandler.VerifyProjection)
	inv.Post("/projection/rebuild", RequireRole(jwt.RoleSistema), inventoryHandler.RebuildProjection)

	// Compras
	pos := api.Group("/purchase-orders", company)
	poHandler := NewPurchaseOrderHandler(deps.PurchaseOrderUC, deps.Receipts)
	pos.Post("/", RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero), poHandler.Create)
	pos.Get("/:id", poHandler.GetByID)
	pos.Post("/:id/receipts", RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero), poHandler.SubmitReceipt)

	// Ventas
	sos := api.Group("/sales-orders", company)
	soHandler := NewSalesOrderHandler(deps.SalesOrderUC, deps.Fulfillment)
	sos.Post("/", RequireRole(jwt.RoleAdmin, jwt.RoleVendedor), soHandler.Create)
	sos.Get("/:id", soHandler.GetByID)
	sos.Post("/:id/issue", RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero), soHandler.Issue)
	sos.Post("/:id/status", RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor), soHandler.Transition)
}
