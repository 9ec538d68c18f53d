package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// InventoryHandler maneja traslados, ajustes y consultas del ledger (protegido).
type InventoryHandler struct {
	transfers   *inventory.TransferCoordinator
	adjustments *inventory.AdjustmentProcessor
	projector   *inventory.StockProjector
	pdf         inventory.StockCardPDFGenerator
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	transfers *inventory.TransferCoordinator,
	adjustments *inventory.AdjustmentProcessor,
	projector *inventory.StockProjector,
	pdf inventory.StockCardPDFGenerator,
) *InventoryHandler {
	return &InventoryHandler{transfers: transfers, adjustments: adjustments, projector: projector, pdf: pdf}
}

// SubmitTransfer godoc
// @Summary      Trasladar stock entre bodegas
// @Description  Registra TRANSFER_OUT y TRANSFER_IN en un solo lote atómico.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, source_warehouse_id, destination_warehouse_id, quantity"
// @Success      201   {object}  dto.CommitResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) SubmitTransfer(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.transfers.SubmitTransfer(c.UserContext(), inventory.TransferInput{
		CompanyID:              companyID,
		UserID:                 userID,
		ProductID:              in.ProductID,
		SourceWarehouseID:      in.SourceWarehouseID,
		DestinationWarehouseID: in.DestinationWarehouseID,
		Quantity:               in.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(usecase.ToCommitResponse(res))
}

// SubmitAdjustment godoc
// @Summary      Ajustar stock con código de razón
// @Description  DAMAGE, WRITE_OFF, EXPIRED y STOCK_TAKE_SHORTAGE restan; STOCK_TAKE_SURPLUS y MANUAL_RECEIPT suman.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "product_id, warehouse_id, reason_code, quantity"
// @Success      201   {object}  dto.CommitResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) SubmitAdjustment(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.adjustments.SubmitAdjustment(c.UserContext(), inventory.AdjustmentInput{
		CompanyID:   companyID,
		UserID:      userID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		ReasonCode:  entity.AdjustmentReason(in.ReasonCode),
		Quantity:    in.Quantity,
		Reference:   in.Reference,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(usecase.ToCommitResponse(res))
}

// GetLevel godoc
// @Summary      Stock de un producto en una bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    path  string  true  "ID del producto"
// @Param        warehouse_id  path  string  true  "ID de la bodega"
// @Success      200  {object}  dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/levels/{product_id}/{warehouse_id} [get]
func (h *InventoryHandler) GetLevel(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	lvl, err := h.projector.CurrentLevel(c.UserContext(), companyID, c.Params("product_id"), c.Params("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(usecase.ToStockLevelResponse(lvl))
}

// GetProductStock godoc
// @Summary      Stock total de un producto con desglose por bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{product_id}/stock [get]
func (h *InventoryHandler) GetProductStock(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	ps, err := h.projector.ProductStock(c.UserContext(), companyID, c.Params("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ProductStockResponse{
		ProductID: ps.ProductID,
		Total:     ps.Total,
		Levels:    usecase.ToStockLevelResponses(ps.Levels),
	})
}

// GetWarehouseStock godoc
// @Summary      Niveles de stock de una bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  path   string  true   "ID de la bodega"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.StockLevelListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/warehouses/{warehouse_id}/stock [get]
func (h *InventoryHandler) GetWarehouseStock(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	page := pageFromQuery(c)
	list, err := h.projector.WarehouseStock(c.UserContext(), companyID, c.Params("warehouse_id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockLevelListResponse{
		Items: usecase.ToStockLevelResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Description  Más recientes primero. from/to en RFC3339.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        reference_id  query  string  false  "Orden o grupo de traslado"
// @Param        from          query  string  false  "Desde (RFC3339)"
// @Param        to            query  string  false  "Hasta (RFC3339)"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	page := pageFromQuery(c)
	filter := repository.MovementFilter{
		ProductID:   c.Query("product_id"),
		WarehouseID: c.Query("warehouse_id"),
		ReferenceID: c.Query("reference_id"),
		Limit:       page.Limit,
		Offset:      page.Offset,
	}
	var err error
	if filter.From, err = timeQuery(c, "from"); err != nil {
		return writeError(c, err)
	}
	if filter.To, err = timeQuery(c, "to"); err != nil {
		return writeError(c, err)
	}
	list, err := h.projector.Movements(c.UserContext(), companyID, filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: usecase.ToMovementResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// GetStockCardPDF godoc
// @Summary      Kardex de un producto en PDF
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        product_id    path   string  true   "ID del producto"
// @Param        warehouse_id  query  string  false  "Solo esta bodega"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{product_id}/kardex.pdf [get]
func (h *InventoryHandler) GetStockCardPDF(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	card, err := h.projector.StockCard(c.UserContext(), companyID, c.Params("product_id"), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.pdf.GenerateStockCardPDF(c.UserContext(), card)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="kardex-`+card.Product.SKU+`.pdf"`)
	return c.Send(out)
}

// VerifyProjection godoc
// @Summary      Verificar la proyección contra el log
// @Description  Solo rol sistema. Abarca todas las empresas.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.VerifyResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/projection/verify [get]
func (h *InventoryHandler) VerifyProjection(c *fiber.Ctx) error {
	rep, err := h.projector.Verify(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	out := dto.VerifyResponse{
		Consistent:        len(rep.Drifts) == 0,
		MovementsReplayed: rep.MovementsReplayed,
		LastSeq:           rep.LastSeq,
		Drifts:            make([]dto.DriftResponse, 0, len(rep.Drifts)),
	}
	for _, d := range rep.Drifts {
		out.Drifts = append(out.Drifts, dto.DriftResponse{
			ProductID: d.ProductID, WarehouseID: d.WarehouseID, Projected: d.Projected, Replayed: d.Replayed,
		})
	}
	return c.JSON(out)
}

// RebuildProjection godoc
// @Summary      Reconstruir la proyección desde el log
// @Description  Solo rol sistema. Bloquea las escrituras del ledger mientras reproduce todos los movimientos.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RebuildResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/projection/rebuild [post]
func (h *InventoryHandler) RebuildProjection(c *fiber.Ctx) error {
	rep, err := h.projector.Rebuild(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RebuildResponse{
		MovementsReplayed: rep.MovementsReplayed,
		LastSeq:           rep.LastSeq,
		Levels:            rep.Levels,
		LinesUpdated:      rep.LinesUpdated,
	})
}

func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p
}

func timeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.NewValidationError(key, "INVALID_FORMAT", "fecha en formato RFC3339")
	}
	return &t, nil
}
