package handler

import (
	"net/http"

	"soderia/internal/apierror"
	"soderia/internal/dto"
	"soderia/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdersHandler struct {
	svc        service.OrderService
	settlement service.SettlementService
}

func NewOrdersHandler(svc service.OrderService, settlement service.SettlementService) *OrdersHandler {
	return &OrdersHandler{svc: svc, settlement: settlement}
}

// Create godoc
// @Summary      Crear pedido
// @Description  Crea un pedido en borrador con precios capturados del catálogo. Idempotente por clave.
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateOrderRequest true "Detalle del pedido"
// @Success      201 {object} dto.OrderResponse
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/pedidos [post]
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar pedidos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) AddItem(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AddOrderItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddItem(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Confirm(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Confirm(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Cancel(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Deliver godoc
// @Summary      Entregar pedido
// @Description  Liquida un pedido en la puerta del cliente: transición a entregado, asiento monetario (cuenta corriente) o ingreso de caja (efectivo/transferencia) y neteo de envases — todo en una transacción.
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true "UUID del pedido"
// @Param        body body dto.DeliverOrderRequest true "Método de pago y envases devueltos"
// @Success      200 {object} dto.SettlementResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/pedidos/{id}/entregar [post]
func (h *OrdersHandler) Deliver(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.DeliverOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.settlement.Deliver(c.Request.Context(), id, req, currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
