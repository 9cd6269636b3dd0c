package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error as
//
//	{"error": {"code": "GROUP_NOT_FOUND", "message": "..."}}
//
// AppErrors keep their status, code and message. Anything else becomes
// INTERNAL_ERROR and is only visible in the log. Handlers that already wrote
// a body are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			logger.Get().Errorw("unexpected error", append(errorFields(c), "error", err.Error())...)
			appErr = apperrors.ErrInternalServer
		} else if appErr.Internal != nil {
			fields := append(errorFields(c), "code", appErr.Code, "internal", appErr.Internal.Error())
			if appErr.StatusCode >= 500 {
				logger.Get().Errorw(appErr.Message, fields...)
			} else {
				logger.Get().Warnw(appErr.Message, fields...)
			}
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
	}
}

func errorFields(c *gin.Context) []interface{} {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	if requestID := c.GetString(requestIDKey); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if userID := c.GetString(UserIDKey); userID != "" {
		fields = append(fields, "user_id", userID)
	}
	return fields
}
