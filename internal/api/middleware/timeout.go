package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/proto_cache/internal/errs"
)

// RequestTimeout sets a per-request context deadline. The handler is not
// killed; downstream code must honor ctx.Done(). A non-positive duration
// disables the deadline entirely.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		// A response that was already written cannot be replaced; only answer
		// for handlers that gave up silently on the expired context.
		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"kind":  errs.KindTimeout,
				"code":  errs.CodeTimeout,
				"error": "request deadline exceeded",
			})
			return
		}
	}
}
