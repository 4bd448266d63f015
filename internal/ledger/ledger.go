package ledger

import (
	"time"

	"go-library-server/internal/domain"
	"go-library-server/internal/store"
	"go-library-server/pkg/utils"
)

// Ledger 借还状态机。两条不变量靠它维护：
//   - availableCopies == totalCopies - Borrowed 租借数（完成任一操作之后）
//   - 租借状态只能 Borrowed -> Returned 走一次，重复归还必须被拒绝
//
// 计数器和租借记录的变更永远落在同一个 store.Update 里，
// 拆成两次写盘的话，两次之间崩溃或并发插队都会把计数弄花。
type Ledger struct {
	store    *store.Store
	loanDays int
	now      func() time.Time // 测试里可替换
}

func New(s *store.Store, loanDays int) *Ledger {
	if loanDays <= 0 {
		loanDays = 14
	}
	return &Ledger{store: s, loanDays: loanDays, now: time.Now}
}

// Borrow 借书。可用性检查和扣减在同一临界区内，
// 并发借同一本书时最多放行 availableCopies 个。
func (l *Ledger) Borrow(userID, bookID string) (domain.Rental, error) {
	var created domain.Rental
	err := l.store.Update(func(doc *store.Document) error {
		book := doc.BookByID(bookID)
		if book == nil {
			return domain.ErrBookNotFound
		}
		if book.AvailableCopies <= 0 {
			return domain.ErrBookUnavailable
		}

		now := l.now()
		created = domain.Rental{
			ID:         utils.NewID(),
			BookID:     bookID,
			UserID:     userID,
			RentalDate: now.Format("2006-01-02"),
			ReturnDate: now.AddDate(0, 0, l.loanDays).Format("2006-01-02"),
			Status:     domain.RentalBorrowed,
		}
		book.AvailableCopies--
		doc.Rentals = append(doc.Rentals, created)
		return nil
	})
	if err != nil {
		return domain.Rental{}, err
	}
	return created, nil
}

// Return 还书。重复归还直接拒绝——静默吞掉会让计数器被 ++ 两次。
// 书记录不在了属于数据被改坏：报错返回，计数器不动。
func (l *Ledger) Return(rentalID string) (domain.Rental, error) {
	var updated domain.Rental
	err := l.store.Update(func(doc *store.Document) error {
		rental := doc.RentalByID(rentalID)
		if rental == nil {
			return domain.ErrRentalNotFound
		}
		if rental.Status == domain.RentalReturned {
			return domain.ErrAlreadyReturned
		}
		book := doc.BookByID(rental.BookID)
		if book == nil {
			return domain.ErrBookNotFound
		}

		rental.Status = domain.RentalReturned
		rental.ReturnDate = l.now().Format(time.RFC3339)
		book.AvailableCopies++
		updated = *rental
		return nil
	})
	if err != nil {
		return domain.Rental{}, err
	}
	return updated, nil
}

// ListFor 按角色给快照：Admin 全量，Client 只看自己的，其他角色拒绝。
// 顺序就是插入顺序。
func (l *Ledger) ListFor(user *domain.User) ([]domain.Rental, error) {
	var out []domain.Rental
	err := l.store.View(func(doc *store.Document) error {
		switch user.Role {
		case domain.RoleAdmin:
			out = make([]domain.Rental, 0, len(doc.Rentals))
			out = append(out, doc.Rentals...)
		case domain.RoleClient:
			out = make([]domain.Rental, 0)
			for _, r := range doc.Rentals {
				if r.UserID == user.ID {
					out = append(out, r)
				}
			}
		default:
			return domain.ErrForbidden
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
