package audit

import (
	"time"

	"go.uber.org/zap"

	"go-library-server/internal/domain"
	"go-library-server/internal/store"
)

// Log 审计追加器。尽力而为：写不进去只打服务端日志，
// 绝不把错误抛回触发它的请求。追加走的是和 ledger 同一个
// 串行写入器，所以不会和借还操作互相覆盖。
type Log struct {
	store *store.Store
	log   *zap.Logger
	now   func() time.Time
}

func New(s *store.Store, l *zap.Logger) *Log {
	return &Log{store: s, log: l, now: time.Now}
}

// Record 记录的是解析出来的真实操作者，actor 为 nil 时记 "Unknown"
func (a *Log) Record(action string, actor *domain.User) {
	entry := domain.LogEntry{
		Timestamp: a.now().UTC().Format(time.RFC3339),
		User:      actor.Actor(),
		Action:    action,
	}
	err := a.store.Update(func(doc *store.Document) error {
		doc.Logs = append(doc.Logs, entry)
		return nil
	})
	if err != nil {
		a.log.Error("audit append failed",
			zap.String("action", action),
			zap.String("user", entry.User),
			zap.Error(err),
		)
	}
}

// List 审计日志快照（/logs 只有 Admin 能看）
func (a *Log) List() ([]domain.LogEntry, error) {
	var out []domain.LogEntry
	err := a.store.View(func(doc *store.Document) error {
		out = append([]domain.LogEntry(nil), doc.Logs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = make([]domain.LogEntry, 0)
	}
	return out, nil
}
