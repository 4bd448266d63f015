package handler

import (
	"github.com/gin-gonic/gin"

	mdw "go-library-server/internal/transport/http/middleware"
	resp "go-library-server/internal/transport/http/response"
)

// ListRentals GET /rentals：Admin 全量，Client 只看自己的
func (h *Handler) ListRentals(c *gin.Context) {
	user := mdw.CurrentUser(c)
	rentals, err := h.Ledger.ListFor(user)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.JSON(c, 200, rentals)
}

// CreateRental POST /rentals，借书。userId 取认证出来的用户，
// 不信请求体里的
func (h *Handler) CreateRental(c *gin.Context) {
	var in struct {
		BookID string `json:"bookId"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.BookID == "" {
		resp.Fail(c, 400, "missing bookId")
		return
	}

	user := mdw.CurrentUser(c)
	rental, err := h.Ledger.Borrow(user.ID, in.BookID)
	if err != nil {
		mdw.CountRentalOp("borrow", "rejected")
		h.fail(c, err)
		return
	}

	mdw.CountRentalOp("borrow", "ok")
	h.Audit.Record("POST /rentals", user)
	resp.JSON(c, 201, rental)
}

// ReturnRental PATCH /rentals/:id，还书。重复归还是 400，不是幂等成功
func (h *Handler) ReturnRental(c *gin.Context) {
	user := mdw.CurrentUser(c)
	rental, err := h.Ledger.Return(c.Param("id"))
	if err != nil {
		mdw.CountRentalOp("return", "rejected")
		h.fail(c, err)
		return
	}

	mdw.CountRentalOp("return", "ok")
	h.Audit.Record("PATCH /rentals/"+rental.ID, user)
	resp.JSON(c, 200, rental)
}
