package middleware

import (
	"net/http"

	"github.com/aihub-ir/aihub/internal/common"
	"github.com/aihub-ir/aihub/pkg/log"
	"github.com/gin-gonic/gin"
)

// Recovery converts panics into the standard 500 envelope instead of tearing
// down the connection, so one bad request cannot kill sibling streams.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("panic recovered", "path", c.Request.URL.Path, "panic", r)
				if !c.Writer.Written() {
					common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
