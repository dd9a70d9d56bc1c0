package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/clarity-api/internal/middleware"
	"github.com/yourusername/clarity-api/internal/model"
	"github.com/yourusername/clarity-api/internal/session"
)

// subject returns the metering/history key for the caller: the user
// UUID when authenticated, otherwise the client IP.
func subject(c *gin.Context) string {
	if userID := middleware.GetUserID(c); userID != nil {
		return userID.String()
	}
	return session.GuestSubject(c.ClientIP())
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, model.Envelope{
		OK:        false,
		ErrorCode: code,
		Message:   message,
	})
}

func respondFieldError(c *gin.Context, status int, message string, fieldErrors map[string]string) {
	c.JSON(status, model.Envelope{
		OK:        false,
		ErrorCode: model.ErrCodeValidation,
		Message:   message,
		Details:   &model.ErrorDetails{FieldErrors: fieldErrors},
	})
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		// All payload types here are plain structs; this cannot fail at
		// runtime with well-formed data.
		panic(err)
	}
	return raw
}
