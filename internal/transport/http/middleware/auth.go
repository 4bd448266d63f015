package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"go-library-server/internal/core/auth"
	"go-library-server/internal/domain"
	"go-library-server/internal/store"
	resp "go-library-server/internal/transport/http/response"
)

// CtxUser 认证通过后挂在 gin context 上的 *domain.User
const CtxUser = "currentUser"

// Authenticate 两类失败刻意用不同状态码：
// 没带凭据是 401，带了但不被接受（签名/过期/用户已不存在）是 403。
// 令牌通过后还要回库解析出活的用户记录——令牌签发后用户被删的情况在这里拦住。
func Authenticate(s *store.Store, j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if ah == "" {
			resp.Abort(c, 401, "Unauthorized")
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			resp.Abort(c, 403, "Invalid token")
			return
		}

		var user *domain.User
		_ = s.View(func(doc *store.Document) error {
			if u := doc.UserByID(claims.UserID); u != nil {
				cp := *u
				user = &cp
			}
			return nil
		})
		if user == nil {
			resp.Abort(c, 403, "User not found")
			return
		}

		c.Set(CtxUser, user)
		c.Next()
	}
}

// RequireRole 角色必须精确匹配。要求前面已经挂了 Authenticate。
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil || u.Role != role {
			resp.Abort(c, 403, "Forbidden")
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(CtxUser); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
