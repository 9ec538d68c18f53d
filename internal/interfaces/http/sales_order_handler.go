package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// SalesOrderHandler órdenes de venta, salida de stock y estados (protegido).
type SalesOrderHandler struct {
	uc          *usecase.SalesOrderUseCase
	fulfillment *inventory.FulfillmentService
}

// NewSalesOrderHandler construye el handler.
func NewSalesOrderHandler(uc *usecase.SalesOrderUseCase, fulfillment *inventory.FulfillmentService) *SalesOrderHandler {
	return &SalesOrderHandler{uc: uc, fulfillment: fulfillment}
}

// Create godoc
// @Summary      Crear orden de venta
// @Tags         sales-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSalesOrderRequest  true  "Líneas con producto, bodega y cantidad"
// @Success      201   {object}  dto.SalesOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/sales-orders [post]
func (h *SalesOrderHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CreateSalesOrderRequest
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
// @Summary      Obtener orden de venta
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.SalesOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id} [get]
func (h *SalesOrderHandler) GetByID(c *fiber.Ctx) error {
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

// Issue godoc
// @Summary      Sacar del inventario las líneas de la orden
// @Description  Un SALES_ISSUE por línea pendiente, todo o nada. Solo en PROCESSING o READY_FOR_DISPATCH.
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      201  {object}  dto.SalesIssueResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/issue [post]
func (h *SalesOrderHandler) Issue(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	res, err := h.fulfillment.IssueSalesOrder(c.UserContext(), companyID, userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SalesIssueResponse{
		Commit:     usecase.ToCommitResponse(res.Commit),
		SalesOrder: *usecase.ToSalesOrderResponse(res.SalesOrder),
	})
}

// Transition godoc
// @Summary      Cambiar estado de la orden de venta
// @Description  DISPATCHED exige todas las salidas confirmadas; CANCELLED tras una salida devuelve el inventario con movimientos RECEIPT.
// @Tags         sales-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                           true  "ID de la orden"
// @Param        body  body  dto.TransitionSalesOrderRequest  true  "Estado destino"
// @Success      200   {object}  dto.SalesOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/status [post]
func (h *SalesOrderHandler) Transition(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.TransitionSalesOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	so, err := h.fulfillment.TransitionSalesOrder(c.UserContext(), companyID, GetUserID(c), c.Params("id"), entity.SalesOrderStatus(in.Status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(usecase.ToSalesOrderResponse(so))
}
