package handler

import (
	"net/http"
	"time"

	"soderia/internal/apierror"
	"soderia/internal/dto"
	"soderia/internal/service"

	"github.com/gin-gonic/gin"
)

type CashHandler struct{ svc service.CashService }

func NewCashHandler(svc service.CashService) *CashHandler { return &CashHandler{svc: svc} }

func (h *CashHandler) RegisterMovement(c *gin.Context) {
	var req dto.CashMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegisterMovement(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListByDate returns the movements of one day (default: today).
func (h *CashHandler) ListByDate(c *gin.Context) {
	day := time.Now()
	if raw := c.Query("fecha"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Fecha invalida, formato YYYY-MM-DD"))
			return
		}
		day = parsed
	}
	resp, err := h.svc.ListByDate(c.Request.Context(), day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar movimientos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CashHandler) Balance(c *gin.Context) {
	resp, err := h.svc.Balance(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al calcular saldo de caja"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
