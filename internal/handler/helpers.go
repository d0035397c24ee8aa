package handler

import (
	"errors"
	"net/http"
	"reflect"

	"soderia/internal/apierror"
	"soderia/internal/middleware"
	"soderia/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeError maps the service error taxonomy to HTTP status codes. Anything
// not in the taxonomy is a 500 with a generic message (internals stay inside).
func writeError(c *gin.Context, err error) {
	var ve *service.ValidationError
	var nf *service.NotFoundError
	var te *service.TransitionError
	var ce *service.ConflictError
	var ie *service.IntegrityError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(ve.Error()))
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, apierror.New(nf.Error()))
	case errors.As(err, &te):
		c.JSON(http.StatusConflict, apierror.New(te.Error()))
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, apierror.NewConflict(ce.Reason, ce.Error()))
	case errors.As(err, &ie):
		// The reconcile response already carries the numbers; the status
		// tells the operator the account is on hold.
		c.JSON(http.StatusConflict, apierror.NewConflict("INTEGRITY", ie.Error()))
	default:
		c.Error(err) //nolint:errcheck
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}

// pathUUID parses the named path parameter, writing the 400 itself.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// currentUserID extracts the authenticated user from JWT claims, nil when
// the route is unauthenticated.
func currentUserID(c *gin.Context) *uuid.UUID {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return nil
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil
	}
	return &id
}
