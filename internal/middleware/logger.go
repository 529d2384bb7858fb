package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger logs one line per request. Bodies are never logged; they carry
// passwords and clinical notes.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		msg := "Request processed"
		switch {
		case status >= 500:
			event = log.Error()
			msg = "Server error"
		case status >= 400:
			event = log.Warn()
			msg = "Client error"
		default:
			event = log.Info()
		}

		event = event.
			Str("request_id", c.GetString(ContextRequestID)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("user_agent", c.Request.UserAgent())

		if actor, ok := ActorFrom(c); ok {
			event = event.Int64("actor_id", actor.ID).Str("role", string(actor.Role))
		}
		event.Msg(msg)
	}
}
