// Package router 组装gin引擎：全局中间件、业务路由、运维路由
package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/xiebiao/bookshelf/docs" // swagger文档注册
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/interface/http/handler"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/pkg/ratelimit"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// Handlers 路由需要的处理器和中间件
type Handlers struct {
	User     *handler.UserHandler
	Book     *handler.BookHandler
	Relation *handler.RelationHandler
	Auth     *middleware.AuthMiddleware
}

// New 创建gin引擎
// 设计说明：
// 1. 业务路由同时挂在根路径（/books/）和/api/v1下，两套路径行为完全一致
// 2. 中间件顺序：Recovery → Tracing → Logger → Metrics → 认证 → 限流 → Handler
// 3. limiter为nil时不限流
func New(cfg *config.Config, log *slog.Logger, limiter *ratelimit.KeyedRateLimiter, h Handlers) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.Tracing(),
		middleware.Logger(log),
		middleware.Metrics(),
	)

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger文档：http://localhost:8080/swagger/index.html
	// 生产环境建议禁用或加访问控制
	if cfg.Server.Mode != "release" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerAPI(&r.RouterGroup, limiter, h)
	registerAPI(r.Group("/api/v1"), limiter, h)
	return r
}

func registerAPI(g *gin.RouterGroup, limiter *ratelimit.KeyedRateLimiter, h Handlers) {
	throttle := middleware.RateLimit(limiter)

	// 用户模块
	users := g.Group("/users")
	{
		users.POST("/register", throttle, h.User.Register)
		users.POST("/login", throttle, h.User.Login)
		users.POST("/refresh", h.User.Refresh)

		me := users.Group("")
		me.Use(h.Auth.RequireAuth())
		me.POST("/logout", h.User.Logout)
		me.GET("/me", h.User.Me)
		me.DELETE("/me", h.User.DeleteMe)
	}

	// 图书模块：读公开，写的权限由访问策略判断
	books := g.Group("/books")
	books.Use(h.Auth.OptionalAuth(), throttle)
	{
		books.GET("/", h.Book.ListBooks)
		books.POST("/", h.Book.CreateBook)
		books.GET("/:id/", h.Book.GetBook)
		books.PUT("/:id/", h.Book.UpdateBook)
		books.PATCH("/:id/", h.Book.PatchBook)
		books.DELETE("/:id/", h.Book.DeleteBook)
	}

	// 关系模块：必须登录
	relations := g.Group("/relations")
	relations.Use(h.Auth.RequireAuth(), throttle)
	{
		relations.PATCH("/:book_id/", h.Relation.UpdateRelation)
	}
}
