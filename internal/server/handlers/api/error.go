package api

import (
	"github.com/gin-gonic/gin"
)

// APIError is the body of every error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// AbortWithError stops the handler chain and answers with an APIError built
// from err. err is also attached to the context for the request logger.
func AbortWithError(ctx *gin.Context, status int, code string, err error) {
	_ = ctx.Error(err)
	ctx.AbortWithStatusJSON(status, &APIError{
		Code:    code,
		Message: err.Error(),
	})
}
