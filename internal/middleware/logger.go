package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

func RequestLogger(component string) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] %v | %3d | %13v | %15s | %-7s %#v\n%s",
			component,
			param.TimeStamp.Format("2006/01/02 - 15:04:05"),
			param.StatusCode,
			param.Latency,
			param.ClientIP,
			param.Method,
			param.Path,
			param.ErrorMessage,
		)
	})
}
