package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
)

// PurchaseOrderHandler órdenes de compra y sus recepciones (protegido).
type PurchaseOrderHandler struct {
	uc       *usecase.PurchaseOrderUseCase
	receipts *inventory.ReceiptReconciler
}

// NewPurchaseOrderHandler construye el handler.
func NewPurchaseOrderHandler(uc *usecase.PurchaseOrderUseCase, receipts *inventory.ReceiptReconciler) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{uc: uc, receipts: receipts}
}

// Create godoc
// @Summary      Crear orden de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "Líneas con producto y cantidad pedida"
// @Success      201   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CreatePurchaseOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), companyID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener orden de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetByID(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SubmitReceipt godoc
// @Summary      Recibir mercancía de una orden de compra
// @Description  Recepción parcial o total. Ninguna línea puede superar lo pendiente.
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID de la orden"
// @Param        body  body  dto.ReceiptRequest  true  "Bodega destino y cantidades por línea"
// @Success      201   {object}  dto.ReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/receipts [post]
func (h *PurchaseOrderHandler) SubmitReceipt(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	input := inventory.ReceiptInput{
		CompanyID:       companyID,
		UserID:          userID,
		PurchaseOrderID: c.Params("id"),
		Lines:           make([]inventory.ReceiptLineInput, 0, len(in.Lines)),
	}
	for _, l := range in.Lines {
		wh := l.WarehouseID
		if wh == "" {
			wh = in.WarehouseID
		}
		input.Lines = append(input.Lines, inventory.ReceiptLineInput{
			LineID:                 l.LineID,
			QuantityReceivedNow:    l.QuantityReceived,
			DestinationWarehouseID: wh,
		})
	}
	res, err := h.receipts.SubmitReceipt(c.UserContext(), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReceiptResponse{
		Commit:        *usecase.ToCommitResponse(res.Commit),
		PurchaseOrder: *usecase.ToPurchaseOrderResponse(res.PurchaseOrder),
	})
}
