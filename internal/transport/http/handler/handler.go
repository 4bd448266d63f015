package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-library-server/internal/account"
	"go-library-server/internal/audit"
	"go-library-server/internal/core/auth"
	"go-library-server/internal/core/cache"
	"go-library-server/internal/domain"
	"go-library-server/internal/ledger"
	"go-library-server/internal/store"
	resp "go-library-server/internal/transport/http/response"
)

type Handler struct {
	Log     *zap.Logger
	Store   *store.Store
	Account *account.Service
	Ledger  *ledger.Ledger
	Audit   *audit.Log
	JWTer   *auth.JWTer

	Cache   *cache.Cache // 可为 nil（未配置 redis）
	BookTTL time.Duration
}

// fail 业务错误按类型映射状态码；没认出来的一律 500，
// 细节只进服务端日志，不跨边界
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrBookUnavailable),
		errors.Is(err, domain.ErrAlreadyReturned):
		resp.Fail(c, 400, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		resp.Fail(c, 401, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		resp.Fail(c, 403, err.Error())
	case errors.Is(err, domain.ErrBookNotFound),
		errors.Is(err, domain.ErrRentalNotFound):
		resp.Fail(c, 404, err.Error())
	default:
		h.Log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		resp.Fail(c, 500, "server error")
	}
}
