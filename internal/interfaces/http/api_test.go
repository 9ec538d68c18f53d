package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/inventario-ledger/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/inventario-ledger/pkg/jwt"
)

// buildAPI arma la API completa sobre el motor en memoria.
func buildAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	catalog := inventory.NewRepositoryCatalog(store.Products(), store.Warehouses())
	l := inventory.NewStockLedger(store, store.Levels(),
		inventory.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		WarehouseUC:     usecase.NewWarehouseUseCase(store.Warehouses()),
		ProductUC:       usecase.NewProductUseCase(store.Products()),
		PurchaseOrderUC: usecase.NewPurchaseOrderUseCase(store.PurchaseOrders(), catalog),
		SalesOrderUC:    usecase.NewSalesOrderUseCase(store.SalesOrders(), catalog),
		Transfers:       inventory.NewTransferCoordinator(l, catalog),
		Adjustments:     inventory.NewAdjustmentProcessor(l, catalog),
		Receipts:        inventory.NewReceiptReconciler(l, catalog),
		Fulfillment:     inventory.NewFulfillmentService(l, catalog),
		Projector:       inventory.NewStockProjector(l, store.Levels(), store.Movements(), catalog),
		StockCardPDF:    infrapdf.NewMarotoPDFGenerator(),
		JWTSecret:       testJWTSecret,
	})
	return app
}

// call envía la petición con un token del rol indicado (sin token si role es vacío).
func call(t *testing.T, app *fiber.App, method, path, role string, body any) (int, []byte) {
	t.Helper()
	auth := ""
	if role != "" {
		auth = tokenForRole(t, role)
	}
	return callAuth(t, app, method, path, auth, body)
}

// callAuth igual que call pero con el header Authorization explícito.
func callAuth(t *testing.T, app *fiber.App, method, path, auth string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

type catalogIDs struct {
	product, source, destination string
}

func seedCatalog(t *testing.T, app *fiber.App) catalogIDs {
	t.Helper()
	status, raw := call(t, app, http.MethodPost, "/api/products", pkgjwt.RoleAdmin, dto.CreateProductRequest{SKU: "TOR-001", Name: "Tornillo"})
	require.Equal(t, http.StatusCreated, status, string(raw))
	p := decode[dto.ProductResponse](t, raw)
	assert.Equal(t, "UND", p.UnitType)

	ids := catalogIDs{product: p.ID}
	for i, name := range []string{"Principal", "Sucursal Norte"} {
		status, raw = call(t, app, http.MethodPost, "/api/warehouses", pkgjwt.RoleAdmin, dto.CreateWarehouseRequest{Name: name})
		require.Equal(t, http.StatusCreated, status, string(raw))
		w := decode[dto.WarehouseResponse](t, raw)
		if i == 0 {
			ids.source = w.ID
		} else {
			ids.destination = w.ID
		}
	}
	return ids
}

func seedStock(t *testing.T, app *fiber.App, productID, warehouseID string, qty int) {
	t.Helper()
	status, raw := call(t, app, http.MethodPost, "/api/inventory/adjustments", pkgjwt.RoleBodeguero, map[string]any{
		"product_id": productID, "warehouse_id": warehouseID, "reason_code": "MANUAL_RECEIPT", "quantity": qty,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
}

func TestAPI_TransferFlow(t *testing.T) {
	app := buildAPI(t)
	ids := seedCatalog(t, app)
	seedStock(t, app, ids.product, ids.source, 50)

	status, raw := call(t, app, http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleBodeguero, map[string]any{
		"product_id": ids.product, "source_warehouse_id": ids.source, "destination_warehouse_id": ids.destination, "quantity": 30,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	commit := decode[dto.CommitResponse](t, raw)
	require.Len(t, commit.Movements, 2)
	assert.Equal(t, "TRANSFER_OUT", commit.Movements[0].Kind)
	assert.Equal(t, "-30", commit.Movements[0].SignedDelta.String())
	assert.Equal(t, testUserID, commit.Movements[0].CreatedBy)

	status, raw = call(t, app, http.MethodGet, "/api/inventory/levels/"+ids.product+"/"+ids.source, pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "20", decode[dto.StockLevelResponse](t, raw).Quantity.String())

	status, raw = call(t, app, http.MethodGet, "/api/inventory/products/"+ids.product+"/stock", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, status)
	stock := decode[dto.ProductStockResponse](t, raw)
	assert.Equal(t, "50", stock.Total.String())
	assert.Len(t, stock.Levels, 2)

	status, raw = call(t, app, http.MethodGet, "/api/inventory/movements?product_id="+ids.product+"&limit=2", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[dto.MovementListResponse](t, raw)
	require.Len(t, list.Items, 2)
	assert.Greater(t, list.Items[0].Seq, list.Items[1].Seq)
	assert.Equal(t, 2, list.Page.Limit)
}

func TestAPI_TransferErrors(t *testing.T) {
	app := buildAPI(t)
	ids := seedCatalog(t, app)
	seedStock(t, app, ids.product, ids.source, 5)

	t.Run("stock insuficiente", func(t *testing.T) {
		status, raw := call(t, app, http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleAdmin, map[string]any{
			"product_id": ids.product, "source_warehouse_id": ids.source, "destination_warehouse_id": ids.destination, "quantity": 6,
		})
		require.Equal(t, http.StatusConflict, status)
		e := decode[dto.ErrorResponse](t, raw)
		assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
		detail, ok := e.Detail.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, ids.source, detail["warehouse_id"])
		assert.Equal(t, "5", detail["available"])
	})
	t.Run("misma bodega", func(t *testing.T) {
		status, raw := call(t, app, http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleAdmin, map[string]any{
			"product_id": ids.product, "source_warehouse_id": ids.source, "destination_warehouse_id": ids.source, "quantity": 1,
		})
		require.Equal(t, http.StatusBadRequest, status)
		e := decode[dto.ErrorResponse](t, raw)
		assert.Equal(t, "VALIDATION", e.Code)
		require.Len(t, e.Violations, 1)
		assert.Equal(t, "SAME_WAREHOUSE", e.Violations[0].Code)
	})
	t.Run("bodega inexistente", func(t *testing.T) {
		status, raw := call(t, app, http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleAdmin, map[string]any{
			"product_id": ids.product, "source_warehouse_id": ids.source, "destination_warehouse_id": "nope", "quantity": 1,
		})
		require.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "REFERENCE_NOT_FOUND", decode[dto.ErrorResponse](t, raw).Code)
	})
	t.Run("cuerpo inválido", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/inventory/transfers", bytes.NewBufferString("{no es json"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleAdmin))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
	t.Run("rol sin permiso", func(t *testing.T) {
		status, _ := call(t, app, http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleVendedor, map[string]any{
			"product_id": ids.product, "source_warehouse_id": ids.source, "destination_warehouse_id": ids.destination, "quantity": 1,
		})
		assert.Equal(t, http.StatusForbidden, status)
	})
	t.Run("sin token", func(t *testing.T) {
		status, _ := call(t, app, http.MethodGet, "/api/inventory/movements", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
	t.Run("fecha mal formada", func(t *testing.T) {
		status, raw := call(t, app, http.MethodGet, "/api/inventory/movements?from=ayer", pkgjwt.RoleAdmin, nil)
		require.Equal(t, http.StatusBadRequest, status)
		e := decode[dto.ErrorResponse](t, raw)
		require.Len(t, e.Violations, 1)
		assert.Equal(t, "from", e.Violations[0].Field)
	})

	status, raw := call(t, app, http.MethodGet, "/api/inventory/levels/"+ids.product+"/"+ids.source, pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "5", decode[dto.StockLevelResponse](t, raw).Quantity.String())
}

func TestAPI_AdjustmentDamageBeyondStock(t *testing.T) {
	app := buildAPI(t)
	ids := seedCatalog(t, app)
	seedStock(t, app, ids.product, ids.source, 3)

	status, raw := call(t, app, http.MethodPost, "/api/inventory/adjustments", pkgjwt.RoleBodeguero, map[string]any{
		"product_id": ids.product, "warehouse_id": ids.source, "reason_code": "DAMAGE", "quantity": 5,
	})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.ErrorResponse](t, raw).Code)
}

func TestAPI_PurchaseOrderReceipts(t *testing.T) {
	app := buildAPI(t)
	ids := seedCatalog(t, app)

	status, raw := call(t, app, http.MethodPost, "/api/purchase-orders", pkgjwt.RoleBodeguero, map[string]any{
		"supplier_ref": "OC-77",
		"lines":        []map[string]any{{"product_id": ids.product, "quantity_ordered": 100}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	po := decode[dto.PurchaseOrderResponse](t, raw)
	require.Len(t, po.Lines, 1)
	assert.Equal(t, "OPEN", po.Status)
	lineID := po.Lines[0].ID
	receipts := "/api/purchase-orders/" + po.ID + "/receipts"

	status, raw = call(t, app, http.MethodPost, receipts, pkgjwt.RoleBodeguero, map[string]any{
		"warehouse_id": ids.source,
		"lines":        []map[string]any{{"line_id": lineID, "quantity_received": 20}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	res := decode[dto.ReceiptResponse](t, raw)
	assert.Equal(t, "PARTIALLY_RECEIVED", res.PurchaseOrder.Status)
	assert.Equal(t, "80", res.PurchaseOrder.Lines[0].Pending.String())
	require.Len(t, res.Commit.Movements, 1)
	assert.Equal(t, po.ID, res.Commit.Movements[0].ReferenceID)

	status, raw = call(t, app, http.MethodPost, receipts, pkgjwt.RoleBodeguero, map[string]any{
		"warehouse_id": ids.source,
		"lines":        []map[string]any{{"line_id": lineID, "quantity_received": 0}},
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "NOTHING_TO_RECEIVE", decode[dto.ErrorResponse](t, raw).Violations[0].Code)

	status, raw = call(t, app, http.MethodPost, receipts, pkgjwt.RoleBodeguero, map[string]any{
		"lines": []map[string]any{{"line_id": lineID, "quantity_received": 81, "warehouse_id": ids.destination}},
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "EXCEEDS_PENDING", decode[dto.ErrorResponse](t, raw).Violations[0].Code)

	status, raw = call(t, app, http.MethodGet, "/api/purchase-orders/"+po.ID, pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "20", decode[dto.PurchaseOrderResponse](t, raw).Lines[0].QuantityReceived.String())

	status, raw = call(t, app, http.MethodGet, "/api/inventory/levels/"+ids.product+"/"+ids.source, pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "20", decode[dto.StockLevelResponse](t, raw).Quantity.String())
}

func TestAPI_SalesOrderFulfillment(t *testing.T) {
	app := buildAPI(t)
	ids := seedCatalog(t, app)
	seedStock(t, app, ids.product, ids.source, 10)

	status, raw := call(t, app, http.MethodPost, "/api/sales-orders", pkgjwt.RoleVendedor, map[string]any{
		"customer_ref": "CLI-1",
		"lines":        []map[string]any{{"product_id": ids.product, "warehouse_id": ids.source, "quantity": 4}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	so := decode[dto.SalesOrderResponse](t, raw)
	assert.Equal(t, "DRAFT", so.Status)
	base := "/api/sales-orders/" + so.ID

	status, raw = call(t, app, http.MethodPost, base+"/issue", pkgjwt.RoleBodeguero, nil)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", decode[dto.ErrorResponse](t, raw).Code)

	for _, s := range []string{"CONFIRMED", "PROCESSING", "READY_FOR_DISPATCH"} {
		status, raw = call(t, app, http.MethodPost, base+"/status", pkgjwt.RoleVendedor, map[string]string{"status": s})
		require.Equal(t, http.StatusOK, status, string(raw))
		assert.Equal(t, s, decode[dto.SalesOrderResponse](t, raw).Status)
	}

	status, _ = call(t, app, http.MethodPost, base+"/status", pkgjwt.RoleVendedor, map[string]string{"status": "DISPATCHED"})
	require.Equal(t, http.StatusConflict, status, "sin salida confirmada no se despacha")

	status, raw = call(t, app, http.MethodPost, base+"/issue", pkgjwt.RoleBodeguero, nil)
	require.Equal(t, http.StatusCreated, status, string(raw))
	issue := decode[dto.SalesIssueResponse](t, raw)
	require.NotNil(t, issue.Commit)
	assert.Equal(t, "SALES_ISSUE", issue.Commit.Movements[0].Kind)

	status, _ = call(t, app, http.MethodPost, base+"/status", pkgjwt.RoleVendedor, map[string]string{"status": "DISPATCHED"})
	require.Equal(t, http.StatusOK, status)

	status, raw = call(t, app, http.MethodGet, "/api/inventory/levels/"+ids.product+"/"+ids.source, pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "6", decode[dto.StockLevelResponse](t, raw).Quantity.String())

	status, raw = call(t, app, http.MethodPost, base+"/status", pkgjwt.RoleVendedor, map[string]string{"status": "CANCELLED"})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "CANCELLED", decode[dto.SalesOrderResponse](t, raw).Status)

	status, raw = call(t, app, http.MethodGet, "/api/inventory/levels/"+ids.product+"/"+ids.source, pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "10", decode[dto.StockLevelResponse](t, raw).Quantity.String(), "la anulación devuelve lo despachado")
}

func TestAPI_StockCardPDF(t *testing.T) {
	app := buildAPI(t)
	ids := seedCatalog(t, app)
	seedStock(t, app, ids.product, ids.source, 12)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/products/"+ids.product+"/kardex.pdf?warehouse_id="+ids.source, nil)
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleVendedor))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestAPI_ProjectionMaintenance(t *testing.T) {
	app := buildAPI(t)
	ids := seedCatalog(t, app)
	seedStock(t, app, ids.product, ids.source, 9)

	for _, role := range []string{pkgjwt.RoleBodeguero, pkgjwt.RoleAdmin} {
		status, _ := call(t, app, http.MethodGet, "/api/inventory/projection/verify", role, nil)
		assert.Equal(t, http.StatusForbidden, status, role)
	}

	operator := tokenFor(t, pkgjwt.Identity{UserID: "operador", Role: pkgjwt.RoleSistema}, time.Hour)
	status, raw := callAuth(t, app, http.MethodGet, "/api/inventory/projection/verify", operator, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	v := decode[dto.VerifyResponse](t, raw)
	assert.True(t, v.Consistent)
	assert.Equal(t, 1, v.MovementsReplayed)

	status, raw = callAuth(t, app, http.MethodPost, "/api/inventory/projection/rebuild", operator, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	r := decode[dto.RebuildResponse](t, raw)
	assert.Equal(t, 1, r.Levels)
}

func TestAPI_MovementsScopedToCompany(t *testing.T) {
	app := buildAPI(t)
	ids := seedCatalog(t, app)
	seedStock(t, app, ids.product, ids.source, 10)
	status, raw := call(t, app, http.MethodPost, "/api/inventory/transfers", pkgjwt.RoleBodeguero, map[string]any{
		"product_id": ids.product, "source_warehouse_id": ids.source, "destination_warehouse_id": ids.destination, "quantity": 4,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	groupID := decode[dto.CommitResponse](t, raw).GroupID

	status, raw = call(t, app, http.MethodGet, "/api/inventory/movements", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.MovementListResponse](t, raw).Items, 3)

	other := tokenFor(t, pkgjwt.Identity{UserID: "u-b", CompanyID: "empresa-b", Role: pkgjwt.RoleAdmin}, time.Hour)
	for _, path := range []string{
		"/api/inventory/movements",
		"/api/inventory/movements?reference_id=" + groupID,
	} {
		status, raw = callAuth(t, app, http.MethodGet, path, other, nil)
		require.Equal(t, http.StatusOK, status, path)
		assert.Empty(t, decode[dto.MovementListResponse](t, raw).Items, path)
	}

	status, raw = callAuth(t, app, http.MethodGet, "/api/inventory/movements?product_id="+ids.product, other, nil)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "REFERENCE_NOT_FOUND", decode[dto.ErrorResponse](t, raw).Code)
}

func TestAPI_CatalogScopedToCompany(t *testing.T) {
	app := buildAPI(t)
	ids := seedCatalog(t, app)

	status, raw := call(t, app, http.MethodPost, "/api/products", pkgjwt.RoleAdmin, dto.CreateProductRequest{SKU: "tor-001", Name: "Otro"})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE", decode[dto.ErrorResponse](t, raw).Code)

	status, _ = call(t, app, http.MethodPost, "/api/warehouses", pkgjwt.RoleBodeguero, dto.CreateWarehouseRequest{Name: "X"})
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = call(t, app, http.MethodGet, "/api/warehouses", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.WarehouseListResponse](t, raw).Items, 2)

	status, raw = call(t, app, http.MethodGet, "/api/warehouses/"+ids.source, pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "MAIN", decode[dto.WarehouseResponse](t, raw).Type)

	status, _ = call(t, app, http.MethodGet, "/api/products/desconocido", pkgjwt.RoleVendedor, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
