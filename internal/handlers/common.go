package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ritalabs/rita/internal/services"
	"github.com/ritalabs/rita/pkg/response"
)

// respondError maps service-layer error types onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		response.BadRequest(c, verr.Message)
		return
	}
	var nferr *services.NotFoundError
	if errors.As(err, &nferr) {
		response.NotFound(c, nferr.Error())
		return
	}
	var serr *services.StateError
	if errors.As(err, &serr) {
		response.Error(c, response.NewConflict(serr.Message))
		return
	}
	if errors.Is(err, services.ErrLastQuestion) {
		response.Error(c, response.NewConflict(err.Error()))
		return
	}
	var derr *services.DeliveryError
	if errors.As(err, &derr) {
		response.Error(c, &response.AppError{HTTPStatus: 502, Code: 502, Message: derr.Error()})
		return
	}
	response.ServerError(c, err.Error())
}
