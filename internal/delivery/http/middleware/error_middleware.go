package middleware

import (
	"errors"
	"net/http"

	"go-publicworks-backend/internal/delivery/http/response"
	"go-publicworks-backend/pkg/apperror"
	"go-publicworks-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Check if there are errors appended to the context
		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				if appErr.Err != nil {
					// Schema problems and wrapped internals are logged with
					// their cause; the client only sees the message.
					logger.Log.Error("Request failed",
						"path", c.FullPath(),
						"code", appErr.Code,
						"message", appErr.Message,
						"error", appErr.Err,
					)
				}
				response.Error(c, appErr.Code, appErr.Message, nil)
			} else {
				// Never expose internal error details to clients.
				logger.Log.Error("Internal server error", "path", c.FullPath(), "error", err)
				response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
			}
		}
	}
}
