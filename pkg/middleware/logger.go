package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/manzanit0/placefinder/pkg/session"
	"github.com/manzanit0/placefinder/pkg/whttp"
)

type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Logger logs every inbound request once it has been served. Response bodies
// are only captured in debug mode.
func Logger(debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rec *bodyRecorder
		if debug {
			rec = &bodyRecorder{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
			c.Writer = rec
		}

		t0 := time.Now()

		c.Next()

		body := "<redacted>"
		if rec != nil {
			body = rec.body.String()
		}

		var sessionID string
		if i, ok := c.Get(CtxKeySession); ok {
			sessionID = i.(*session.Session).ID
		}

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		slog.Log(c.Request.Context(), level, "inbound request",
			"session_id", sessionID,
			slog.Group("request",
				"method", c.Request.Method,
				"route", c.FullPath(),
				"path", c.Request.URL.Path,
				"query_params", whttp.RedactQuery(c.Request.URL.Query()),
				"user_agent", c.Request.UserAgent(),
				"duration_ms", time.Since(t0).Milliseconds(),
			),
			slog.Group("response",
				"status", status,
				"size", c.Writer.Size(),
				"body", body,
			),
		)
	}
}
