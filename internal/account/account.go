package account

import (
	"strings"
	"time"

	"go-library-server/internal/audit"
	"go-library-server/internal/domain"
	"go-library-server/internal/store"
	"go-library-server/pkg/utils"
)

// Service 注册和凭据校验。唯一性（邮箱、卡号）在 Update 临界区内检查，
// 并发注册同一邮箱只会成功一个。
type Service struct {
	store *store.Store
	audit *audit.Log
	now   func() time.Time
}

func New(s *store.Store, a *audit.Log) *Service {
	return &Service{store: s, audit: a, now: time.Now}
}

// Register 建 Client 账号。明文密码只在这里过一下手，
// 入库前已经是 bcrypt 散列。
func (s *Service) Register(name, email, password string) (domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return domain.User{}, domain.ErrMissingFields
	}

	user := domain.User{
		ID:            utils.NewID(),
		Name:          name,
		Email:         email,
		PasswordHash:  utils.HashPassword(password),
		Role:          domain.RoleClient,
		LibraryCardID: utils.NewCardID(s.now()),
	}
	err := s.store.Update(func(doc *store.Document) error {
		if doc.UserByEmail(email) != nil {
			return domain.ErrDuplicateEmail
		}
		if doc.UserByCardID(user.LibraryCardID) != nil {
			// 同一毫秒注册两个人，卡号撞了就重生成
			user.LibraryCardID = utils.NewCardID(s.now().Add(time.Millisecond))
		}
		doc.Users = append(doc.Users, user)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	s.audit.Record("Registration", &user)
	return user, nil
}

// Verify 按借书卡号登录。卡号不存在和密码不对返回同一个错误，
// 不向外泄露到底是哪个错了。成功才记 Login 审计。
func (s *Service) Verify(libraryCardID, password string) (domain.User, error) {
	if libraryCardID == "" || password == "" {
		return domain.User{}, domain.ErrMissingFields
	}

	var user domain.User
	err := s.store.View(func(doc *store.Document) error {
		u := doc.UserByCardID(libraryCardID)
		if u == nil {
			return domain.ErrInvalidCredentials
		}
		user = *u
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, domain.ErrInvalidCredentials
	}

	s.audit.Record("Login", &user)
	return user, nil
}

// CreateAdmin libctl 用：HTTP 面上不存在创建 Admin 的入口
func (s *Service) CreateAdmin(name, email, password string) (domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return domain.User{}, domain.ErrMissingFields
	}

	user := domain.User{
		ID:            utils.NewID(),
		Name:          name,
		Email:         email,
		PasswordHash:  utils.HashPassword(password),
		Role:          domain.RoleAdmin,
		LibraryCardID: utils.NewCardID(s.now()),
	}
	err := s.store.Update(func(doc *store.Document) error {
		if doc.UserByEmail(email) != nil {
			return domain.ErrDuplicateEmail
		}
		doc.Users = append(doc.Users, user)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}
