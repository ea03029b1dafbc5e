package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "settleline.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response
func Error(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if e, ok := err.(*domainerrors.AppError); ok {
		appErr = e
	} else {
		appErr = fromSentinel(err)
	}

	c.JSON(appErr.Code, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

// fromSentinel maps bare domain errors onto HTTP statuses
func fromSentinel(err error) *domainerrors.AppError {
	switch err {
	case domainerrors.ErrNotFound:
		return domainerrors.NotFound(err.Error())
	case domainerrors.ErrAlreadyExists:
		return domainerrors.Conflict(err.Error())
	case domainerrors.ErrInvalidInput, domainerrors.ErrInvalidDestination:
		return domainerrors.BadRequest(err.Error())
	case domainerrors.ErrInvalidTransition, domainerrors.ErrSettlementClaimed, domainerrors.ErrVendorInactive:
		return domainerrors.UnprocessableEntity(err.Error(), err)
	case domainerrors.ErrDataUnavailable:
		return domainerrors.NewAppError(http.StatusServiceUnavailable, err.Error(), err)
	default:
		return domainerrors.InternalError(err)
	}
}
