package tracing

import (
	"github.com/gin-gonic/gin"
)

// Middleware opens a span per request, continuing any trace the caller sent,
// and echoes the trace id in the response.
func Middleware(t *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID, parent := Extract(c.Request.Header)
		ctx := WithTrace(c.Request.Context(), traceID, parent)

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := t.StartSpan(ctx, c.Request.Method+" "+name)
		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceHeader, string(span.TraceID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		if err := c.Errors.Last(); err != nil {
			span.SetError(err.Err)
		}
		span.Finish()
		t.Submit(span)
	}
}
