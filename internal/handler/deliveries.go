package handler

import (
	"net/http"
	"strconv"

	"soderia/internal/apierror"
	"soderia/internal/dto"
	"soderia/internal/service"

	"github.com/gin-gonic/gin"
)

type DeliveriesHandler struct{ svc service.DeliveryService }

func NewDeliveriesHandler(svc service.DeliveryService) *DeliveriesHandler {
	return &DeliveriesHandler{svc: svc}
}

// Create godoc
// @Summary      Crear reparto
// @Description  Agrupa pedidos confirmados y sin asignar en un reparto. Cualquier pedido que no cumpla la precondición aborta el grupo completo.
// @Tags         repartos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateDeliveryRequest true "Pedidos y chofer"
// @Success      201 {object} dto.DeliveryResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/repartos [post]
func (h *DeliveriesHandler) Create(c *gin.Context) {
	var req dto.CreateDeliveryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *DeliveriesHandler) Get(c *gin.Context) {
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

func (h *DeliveriesHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	resp, err := h.svc.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar repartos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DeliveriesHandler) Progress(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	progress, err := h.svc.Progress(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// DetachOrder removes one order from the delivery without touching its status.
func (h *DeliveriesHandler) DetachOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	orderID, ok := pathUUID(c, "pedido_id")
	if !ok {
		return
	}
	if err := h.svc.DetachOrder(c.Request.Context(), id, orderID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DeliveriesHandler) Delete(c *gin.Context) {
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
