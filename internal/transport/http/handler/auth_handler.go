package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "go-library-server/internal/transport/http/response"
)

// Register POST /register，成功 201 返回新用户（不含散列）
func (h *Handler) Register(c *gin.Context) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Fail(c, 400, "missing fields")
		return
	}

	user, err := h.Account.Register(in.Name, in.Email, in.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.JSON(c, 201, user.View())
}

// Login POST /login，凭借书卡号 + 密码换 1h 令牌。
// 令牌同时放响应体和 Authorization 响应头。
func (h *Handler) Login(c *gin.Context) {
	var in struct {
		LibraryCardID string `json:"libraryCardId"`
		Password      string `json:"password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Fail(c, 400, "missing credentials")
		return
	}
	if in.LibraryCardID == "" || in.Password == "" {
		resp.Fail(c, 400, "missing credentials")
		return
	}

	user, err := h.Account.Verify(in.LibraryCardID, in.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	token, err := h.JWTer.Issue(user.ID, user.Role)
	if err != nil || token == "" {
		h.Log.Error("issue token failed", zap.Error(err))
		resp.Fail(c, 500, "server error")
		return
	}

	c.Header("Authorization", "Bearer "+token)
	resp.JSON(c, 200, gin.H{
		"token": token,
		"user":  user.View(),
	})
}
