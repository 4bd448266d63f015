package handler

import (
	"github.com/gin-gonic/gin"

	mdw "go-library-server/internal/transport/http/middleware"
	resp "go-library-server/internal/transport/http/response"
)

// ListLogs GET /logs，仅 Admin。查看本身也要进审计
func (h *Handler) ListLogs(c *gin.Context) {
	user := mdw.CurrentUser(c)
	h.Audit.Record("View Logs", user)

	entries, err := h.Audit.List()
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.JSON(c, 200, entries)
}
