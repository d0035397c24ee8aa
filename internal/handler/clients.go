package handler

import (
	"net/http"
	"strconv"

	"soderia/internal/apierror"
	"soderia/internal/dto"
	"soderia/internal/service"

	"github.com/gin-gonic/gin"
)

type ClientsHandler struct {
	svc    service.ClientService
	ledger service.LedgerService
}

func NewClientsHandler(svc service.ClientService, ledger service.LedgerService) *ClientsHandler {
	return &ClientsHandler{svc: svc, ledger: ledger}
}

// Register godoc
// @Summary      Registrar cliente
// @Description  Alta idempotente: mismo nombre+dirección (o misma clave de idempotencia) devuelve el cliente original.
// @Tags         clientes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegisterClientRequest true "Datos del cliente"
// @Success      201 {object} dto.ClientResponse
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/clientes [post]
func (h *ClientsHandler) Register(c *gin.Context) {
	var req dto.RegisterClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ClientsHandler) Get(c *gin.Context) {
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

func (h *ClientsHandler) List(c *gin.Context) {
	var filter dto.ClientFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar clientes"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Debtors returns active clients with positive balance, largest debt first.
func (h *ClientsHandler) Debtors(c *gin.Context) {
	resp, err := h.svc.Debtors(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar deudores"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientsHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientsHandler) Deactivate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ClientsHandler) Delete(c *gin.Context) {
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

// ── Current account ──────────────────────────────────────────────────────────

// RegisterPayment godoc
// @Summary      Registrar pago de cliente
// @Description  Asienta un CREDIT en la cuenta corriente y baja el saldo en la misma transacción.
// @Tags         clientes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string             true "UUID del cliente"
// @Param        body body dto.PaymentRequest true "Monto y descripción"
// @Success      201 {object} dto.LedgerEntryResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/clientes/{id}/pagos [post]
func (h *ClientsHandler) RegisterPayment(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegisterPayment(c.Request.Context(), id, req, currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ClientsHandler) RegisterCharge(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ChargeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegisterCharge(c.Request.Context(), id, req, currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ClientsHandler) History(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.ledger.History(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]dto.LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		item := dto.LedgerEntryResponse{
			ID:          e.ID.String(),
			Type:        e.Type,
			Amount:      e.Amount,
			Concept:     e.Concept,
			Description: e.Description,
			CreatedAt:   e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		if e.OrderID != nil {
			oid := e.OrderID.String()
			item.OrderID = &oid
		}
		resp = append(resp, item)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientsHandler) ContainerHistory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.ledger.ContainerHistory(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]dto.ContainerEntryResponse, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		item := dto.ContainerEntryResponse{
			ID:        e.ID.String(),
			Delta:     e.Delta,
			Concept:   e.Concept,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		if e.OrderID != nil {
			oid := e.OrderID.String()
			item.OrderID = &oid
		}
		resp = append(resp, item)
	}
	c.JSON(http.StatusOK, resp)
}

// Reconcile godoc
// @Summary      Conciliar cuenta
// @Description  Recalcula ambos saldos desde el libro mayor. Una discrepancia deja la cuenta bloqueada para nuevos asientos.
// @Tags         clientes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del cliente"
// @Success      200 {object} dto.ReconcileResponse
// @Failure      409 {object} dto.ReconcileResponse
// @Router       /v1/clientes/{id}/conciliar [post]
func (h *ClientsHandler) Reconcile(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.ledger.Reconcile(c.Request.Context(), id)
	if err != nil {
		if resp != nil {
			// Discrepancy found: the numbers ARE the answer.
			c.JSON(http.StatusConflict, resp)
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientsHandler) ReleaseHold(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.ReleaseHold(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Statement ───────────────────────────────────────────────────────────────

func (h *ClientsHandler) Statement(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Statement(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientsHandler) SendStatement(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SendStatementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.SendStatement(c.Request.Context(), id, req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}
