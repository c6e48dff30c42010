package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/ratelimit"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// RateLimit 写接口限流
// 已登录按用户ID计数，匿名按客户端IP计数；必须放在认证中间件之后
// 只限制写方法，GET/HEAD/OPTIONS直接放行
func RateLimit(limiter *ratelimit.KeyedRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if uid := GetUserID(c); uid != 0 {
			key = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		if !limiter.Allow(key) {
			metrics.IncRateLimited()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.ErrorBody{Detail: "Request was throttled."})
			return
		}
		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
