package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-library-server/internal/core/auth"
	"go-library-server/internal/domain"
	"go-library-server/internal/store"
	"go-library-server/internal/transport/http/handler"
	mdw "go-library-server/internal/transport/http/middleware"
)

// NewAPIEngine 七个业务端点 + health/metrics。
// 状态码是对外契约：未带凭据 401，凭据被拒 403，
// 资源不存在 404，状态冲突（重复归还/无可借副本/邮箱重复）400。
func NewAPIEngine(l *zap.Logger, s *store.Store, jwter *auth.JWTer, h *handler.Handler) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(l, true),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	// 前端要能带 Authorization 进来，也要能从登录响应里读回去
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Authorization", "Content-Type"}
	corsCfg.ExposeHeaders = []string{"Authorization"}
	r.Use(cors.New(corsCfg))

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 公共端点
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/books", h.ListBooks)

	// 需要认证
	authed := r.Group("")
	authed.Use(mdw.Authenticate(s, jwter))
	{
		authed.GET("/rentals", h.ListRentals)
		authed.POST("/rentals", h.CreateRental)
		authed.PATCH("/rentals/:id", h.ReturnRental)
	}

	// 仅 Admin
	logs := r.Group("/logs")
	logs.Use(mdw.Authenticate(s, jwter), mdw.RequireRole(domain.RoleAdmin))
	{
		logs.GET("", h.ListLogs)
	}

	return r
}
