package account

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-library-server/internal/audit"
	"go-library-server/internal/domain"
	"go-library-server/internal/store"
	"go-library-server/pkg/utils"
)

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	return New(s, audit.New(s, zap.NewNop())), s
}

func lastLog(t *testing.T, s *store.Store) domain.LogEntry {
	t.Helper()
	var entry domain.LogEntry
	_ = s.View(func(doc *store.Document) error {
		require.NotEmpty(t, doc.Logs)
		entry = doc.Logs[len(doc.Logs)-1]
		return nil
	})
	return entry
}

func TestRegister(t *testing.T) {
	t.Run("creates client with hashed password and card id", func(t *testing.T) {
		svc, s := newService(t)

		u, err := svc.Register("Jan", "jan@x.com", "s3cret")
		require.NoError(t, err)

		assert.NotEmpty(t, u.ID)
		assert.Equal(t, domain.RoleClient, u.Role)
		assert.True(t, strings.HasPrefix(u.LibraryCardID, "CARD-"))
		assert.NotEqual(t, "s3cret", u.PasswordHash)
		assert.True(t, utils.CheckPassword("s3cret", u.PasswordHash))

		// 成功注册要进审计，且记录的是真实操作者
		entry := lastLog(t, s)
		assert.Equal(t, "Registration", entry.Action)
		assert.Equal(t, "jan@x.com (Client)", entry.User)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc, _ := newService(t)
		for _, in := range [][3]string{
			{"", "a@x.com", "pw"},
			{"Jan", "", "pw"},
			{"Jan", "a@x.com", ""},
			{"  ", "a@x.com", "pw"},
		} {
			_, err := svc.Register(in[0], in[1], in[2])
			assert.ErrorIs(t, err, domain.ErrMissingFields)
		}
	})

	t.Run("duplicate email rejected, no second user", func(t *testing.T) {
		// Scenario C
		svc, s := newService(t)
		_, err := svc.Register("Jan", "a@x.com", "pw")
		require.NoError(t, err)

		_, err = svc.Register("Inny", "a@x.com", "pw2")
		require.ErrorIs(t, err, domain.ErrDuplicateEmail)

		assert.Equal(t, 1, s.Stats().Users)
	})

	t.Run("concurrent registrations with same email create one user", func(t *testing.T) {
		svc, s := newService(t)

		const n = 10
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				_, _ = svc.Register("Jan", "race@x.com", "pw")
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, s.Stats().Users)
	})
}

func TestVerify(t *testing.T) {
	svc, s := newService(t)
	u, err := svc.Register("Jan", "jan@x.com", "s3cret")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		got, err := svc.Verify(u.LibraryCardID, "s3cret")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		entry := lastLog(t, s)
		assert.Equal(t, "Login", entry.Action)
		assert.Equal(t, "jan@x.com (Client)", entry.User)
	})

	t.Run("unknown card and wrong password are indistinguishable", func(t *testing.T) {
		_, errUnknown := svc.Verify("CARD-0", "s3cret")
		_, errWrongPw := svc.Verify(u.LibraryCardID, "wrong")
		assert.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)
		assert.ErrorIs(t, errWrongPw, domain.ErrInvalidCredentials)
	})

	t.Run("failed login leaves no audit entry", func(t *testing.T) {
		before := s.Stats().Logs
		_, _ = svc.Verify(u.LibraryCardID, "wrong")
		assert.Equal(t, before, s.Stats().Logs)
	})
}

func TestCreateAdmin(t *testing.T) {
	svc, _ := newService(t)

	u, err := svc.CreateAdmin("Ops", "ops@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	_, err = svc.CreateAdmin("Ops2", "ops@x.com", "pw")
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
}
