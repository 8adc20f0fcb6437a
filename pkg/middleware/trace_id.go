package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"
)

type CtxKey string

const (
	CtxKeyTraceID   CtxKey = "trace_id"
	CtxKeySessionID CtxKey = "session_id"
)

const HeaderTraceID = "X-Trace-Id"

// TraceID tags every request with a ksuid, reusing the one sent by the
// caller when present, and echoes it back in the response headers.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(HeaderTraceID)
		if _, err := ksuid.Parse(traceID); err != nil {
			traceID = ksuid.New().String()
		}

		ctx := context.WithValue(c.Request.Context(), CtxKeyTraceID, traceID)
		c.Request = c.Request.Clone(ctx)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}
