package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-library-server/internal/domain"
	"go-library-server/internal/store"
)

func newLog(t *testing.T) (*Log, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	return New(s, zap.NewNop()), s
}

func TestRecord(t *testing.T) {
	t.Run("appends actor and timestamp", func(t *testing.T) {
		a, _ := newLog(t)
		a.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

		a.Record("Login", &domain.User{Email: "a@x.com", Role: domain.RoleClient})

		entries, err := a.List()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Login", entries[0].Action)
		assert.Equal(t, "a@x.com (Client)", entries[0].User)
		assert.Equal(t, "2026-03-01T12:00:00Z", entries[0].Timestamp)
	})

	t.Run("nil actor becomes Unknown", func(t *testing.T) {
		a, _ := newLog(t)
		a.Record("Probe", nil)

		entries, err := a.List()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Unknown", entries[0].User)
	})

	t.Run("entries accumulate in order", func(t *testing.T) {
		a, _ := newLog(t)
		u := &domain.User{Email: "a@x.com", Role: domain.RoleAdmin}
		a.Record("first", u)
		a.Record("second", u)

		entries, err := a.List()
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "first", entries[0].Action)
		assert.Equal(t, "second", entries[1].Action)
	})
}

func TestListEmpty(t *testing.T) {
	a, _ := newLog(t)
	entries, err := a.List()
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}
