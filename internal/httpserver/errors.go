package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
)

// errorBody is the storefront error shape.
type errorBody struct {
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

type requestError struct{ err error }

func (e requestError) Error() string { return e.err.Error() }

func (e requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return requestError{err: err}
}

func (h *handlers) writeError(c *gin.Context, err error) {
	body := errorBody{Description: err.Error()}
	var reqErr requestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrLineOutOfRange),
		errors.Is(err, cartsvc.ErrMissingLine):
		body.Status, body.Message = http.StatusBadRequest, "Bad Request"
	case errors.Is(err, domain.ErrVariantUnavailable):
		body.Status, body.Message = http.StatusUnprocessableEntity, "Cart Error"
	case errors.Is(err, domain.ErrNotFound):
		body.Status, body.Message = http.StatusNotFound, "Not Found"
		var svcErr *cartsvc.Error
		if errors.As(err, &svcErr) {
			body.Message = "Cart Error"
		}
	default:
		h.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		body.Status, body.Message = http.StatusInternalServerError, "Internal Server Error"
		body.Description = "Something went wrong"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(body.Status, body)
}
