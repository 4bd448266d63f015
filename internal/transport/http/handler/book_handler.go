package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"go-library-server/internal/core/cache"
	"go-library-server/internal/domain"
	"go-library-server/internal/store"
	resp "go-library-server/internal/transport/http/response"
)

// ListBooks GET /books，公开接口。配置了 redis 就整表缓存一份，
// store 每次落盘会把 key 删掉，所以最多脏一个回源窗口。
func (h *Handler) ListBooks(c *gin.Context) {
	if h.Cache != nil {
		books, err := cache.GetOrLoadJSON[[]domain.Book](h.Cache, c.Request.Context(), cache.KeyBooks, h.BookTTL,
			func(ctx context.Context) (*[]domain.Book, error) {
				out, err := h.loadBooks()
				if err != nil {
					return nil, err
				}
				return &out, nil
			})
		if err == nil && books != nil {
			resp.JSON(c, 200, *books)
			return
		}
		// redis 不可用时退化为直读
	}

	out, err := h.loadBooks()
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.JSON(c, 200, out)
}

func (h *Handler) loadBooks() ([]domain.Book, error) {
	out := make([]domain.Book, 0)
	err := h.Store.View(func(doc *store.Document) error {
		out = append(out, doc.Books...)
		return nil
	})
	return out, err
}
