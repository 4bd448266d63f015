package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func NewID() string { return uuid.NewString() }

// NewCardID 借书卡号，沿用 CARD-<毫秒时间戳> 格式
func NewCardID(t time.Time) string {
	return fmt.Sprintf("CARD-%d", t.UnixMilli())
}
