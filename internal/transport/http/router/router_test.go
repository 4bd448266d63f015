package router

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-library-server/internal/account"
	"go-library-server/internal/audit"
	"go-library-server/internal/core/auth"
	"go-library-server/internal/domain"
	"go-library-server/internal/ledger"
	"go-library-server/internal/store"
	"go-library-server/internal/transport/http/handler"
)

type testEnv struct {
	engine  *gin.Engine
	store   *store.Store
	account *account.Service
	jwter   *auth.JWTer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.Open(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	log := zap.NewNop()
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "library-server", TTL: time.Hour}
	auditLog := audit.New(s, log)
	acc := account.New(s, auditLog)

	h := &handler.Handler{
		Log:     log,
		Store:   s,
		Account: acc,
		Ledger:  ledger.New(s, 14),
		Audit:   auditLog,
		JWTer:   jwter,
	}
	return &testEnv{
		engine:  NewAPIEngine(log, s, jwter, h),
		store:   s,
		account: acc,
		jwter:   jwter,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) json.RawMessage {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

func (e *testEnv) seedBook(t *testing.T, b domain.Book) {
	t.Helper()
	require.NoError(t, e.store.Update(func(doc *store.Document) error {
		doc.Books = append(doc.Books, b)
		return nil
	}))
}

// loginAs 注册（或建管理员）后换令牌
func (e *testEnv) loginAs(t *testing.T, name, email, role string) (domain.User, string) {
	t.Helper()
	var u domain.User
	var err error
	if role == domain.RoleAdmin {
		u, err = e.account.CreateAdmin(name, email, "pw")
	} else {
		u, err = e.account.Register(name, email, "pw")
	}
	require.NoError(t, err)
	token, err := e.jwter.Issue(u.ID, u.Role)
	require.NoError(t, err)
	return u, token
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("created", func(t *testing.T) {
		w := env.do(t, "POST", "/register", "", gin.H{"name": "Jan", "email": "jan@x.com", "password": "pw"})
		require.Equal(t, 201, w.Code)

		var u map[string]any
		require.NoError(t, json.Unmarshal(dataOf(t, w), &u))
		assert.Equal(t, "jan@x.com", u["email"])
		assert.Equal(t, "Client", u["role"])
		assert.Contains(t, u, "libraryCardId")
		// 散列绝不能出现在响应里
		assert.NotContains(t, u, "password")
	})

	t.Run("duplicate email", func(t *testing.T) {
		w := env.do(t, "POST", "/register", "", gin.H{"name": "Inny", "email": "jan@x.com", "password": "pw"})
		assert.Equal(t, 400, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := env.do(t, "POST", "/register", "", gin.H{"name": "Jan"})
		assert.Equal(t, 400, w.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	u, err := env.account.Register("Jan", "jan@x.com", "s3cret")
	require.NoError(t, err)

	t.Run("success returns token in body and header", func(t *testing.T) {
		w := env.do(t, "POST", "/login", "", gin.H{"libraryCardId": u.LibraryCardID, "password": "s3cret"})
		require.Equal(t, 200, w.Code)

		var out struct {
			Token string `json:"token"`
			User  struct {
				ID   string `json:"id"`
				Role string `json:"role"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(dataOf(t, w), &out))
		assert.NotEmpty(t, out.Token)
		assert.Equal(t, u.ID, out.User.ID)
		assert.Equal(t, "Bearer "+out.Token, w.Header().Get("Authorization"))

		claims, err := env.jwter.Parse(out.Token)
		require.NoError(t, err)
		assert.Equal(t, u.ID, claims.UserID)
	})

	t.Run("missing credentials", func(t *testing.T) {
		w := env.do(t, "POST", "/login", "", gin.H{"libraryCardId": u.LibraryCardID})
		assert.Equal(t, 400, w.Code)
	})

	t.Run("bad password", func(t *testing.T) {
		w := env.do(t, "POST", "/login", "", gin.H{"libraryCardId": u.LibraryCardID, "password": "wrong"})
		assert.Equal(t, 401, w.Code)
	})

	t.Run("unknown card gets same status", func(t *testing.T) {
		w := env.do(t, "POST", "/login", "", gin.H{"libraryCardId": "CARD-0", "password": "s3cret"})
		assert.Equal(t, 401, w.Code)
	})
}

func TestBooksEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, domain.Book{ID: "b1", Title: "Dune", TotalCopies: 1, AvailableCopies: 1})

	w := env.do(t, "GET", "/books", "", nil)
	require.Equal(t, 200, w.Code)

	var books []domain.Book
	require.NoError(t, json.Unmarshal(dataOf(t, w), &books))
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
}

// 没带凭据 401，带了但被拒 403——两类失败必须分开
func TestAccessGuard(t *testing.T) {
	env := newTestEnv(t)

	t.Run("no token is 401", func(t *testing.T) {
		for _, path := range []string{"/rentals", "/logs"} {
			w := env.do(t, "GET", path, "", nil)
			assert.Equal(t, 401, w.Code, path)
			assert.NotContains(t, w.Body.String(), `"id"`)
		}
	})

	t.Run("garbage token is 403", func(t *testing.T) {
		w := env.do(t, "GET", "/rentals", "garbage", nil)
		assert.Equal(t, 403, w.Code)
	})

	t.Run("expired token is 403", func(t *testing.T) {
		short := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "library-server", TTL: -time.Minute}
		u, _ := env.loginAs(t, "Jan", "expired@x.com", domain.RoleClient)
		token, err := short.Issue(u.ID, u.Role)
		require.NoError(t, err)

		w := env.do(t, "GET", "/rentals", token, nil)
		assert.Equal(t, 403, w.Code)
	})

	t.Run("token of deleted user is 403", func(t *testing.T) {
		_, token := env.loginAs(t, "Gone", "gone@x.com", domain.RoleClient)
		require.NoError(t, env.store.Update(func(doc *store.Document) error {
			kept := doc.Users[:0]
			for _, u := range doc.Users {
				if u.Email != "gone@x.com" {
					kept = append(kept, u)
				}
			}
			doc.Users = kept
			return nil
		}))

		w := env.do(t, "GET", "/rentals", token, nil)
		assert.Equal(t, 403, w.Code)
	})

	t.Run("client role on admin endpoint is 403", func(t *testing.T) {
		_, token := env.loginAs(t, "Jan2", "client@x.com", domain.RoleClient)
		w := env.do(t, "GET", "/logs", token, nil)
		assert.Equal(t, 403, w.Code)
	})
}

func TestRentalFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, domain.Book{ID: "b1", Title: "Dune", TotalCopies: 1, AvailableCopies: 1})
	u1, token1 := env.loginAs(t, "U1", "u1@x.com", domain.RoleClient)
	_, token2 := env.loginAs(t, "U2", "u2@x.com", domain.RoleClient)

	var rentalID string

	t.Run("borrow last copy", func(t *testing.T) {
		// Scenario A
		w := env.do(t, "POST", "/rentals", token1, gin.H{"bookId": "b1"})
		require.Equal(t, 201, w.Code)

		var r domain.Rental
		require.NoError(t, json.Unmarshal(dataOf(t, w), &r))
		rentalID = r.ID
		assert.Equal(t, u1.ID, r.UserID)
		assert.Equal(t, domain.RentalBorrowed, r.Status)

		_ = env.store.View(func(doc *store.Document) error {
			assert.Equal(t, 0, doc.BookByID("b1").AvailableCopies)
			return nil
		})
	})

	t.Run("second borrower rejected", func(t *testing.T) {
		w := env.do(t, "POST", "/rentals", token2, gin.H{"bookId": "b1"})
		assert.Equal(t, 400, w.Code)
	})

	t.Run("unknown book is 404", func(t *testing.T) {
		w := env.do(t, "POST", "/rentals", token1, gin.H{"bookId": "nope"})
		assert.Equal(t, 404, w.Code)
	})

	t.Run("missing bookId is 400", func(t *testing.T) {
		w := env.do(t, "POST", "/rentals", token1, gin.H{})
		assert.Equal(t, 400, w.Code)
	})

	t.Run("return then repeat return", func(t *testing.T) {
		// Scenario B
		w := env.do(t, "PATCH", "/rentals/"+rentalID, token1, nil)
		require.Equal(t, 200, w.Code)

		var r domain.Rental
		require.NoError(t, json.Unmarshal(dataOf(t, w), &r))
		assert.Equal(t, domain.RentalReturned, r.Status)

		_ = env.store.View(func(doc *store.Document) error {
			assert.Equal(t, 1, doc.BookByID("b1").AvailableCopies)
			return nil
		})

		w = env.do(t, "PATCH", "/rentals/"+rentalID, token1, nil)
		assert.Equal(t, 400, w.Code)

		_ = env.store.View(func(doc *store.Document) error {
			assert.Equal(t, 1, doc.BookByID("b1").AvailableCopies)
			return nil
		})
	})

	t.Run("return unknown rental is 404", func(t *testing.T) {
		w := env.do(t, "PATCH", "/rentals/nope", token1, nil)
		assert.Equal(t, 404, w.Code)
	})
}

func TestRentalScoping(t *testing.T) {
	// Scenario D
	env := newTestEnv(t)
	env.seedBook(t, domain.Book{ID: "b1", TotalCopies: 5, AvailableCopies: 5})
	u1, token1 := env.loginAs(t, "U1", "u1@x.com", domain.RoleClient)
	_, token2 := env.loginAs(t, "U2", "u2@x.com", domain.RoleClient)
	_, adminToken := env.loginAs(t, "Ops", "ops@x.com", domain.RoleAdmin)

	require.Equal(t, 201, env.do(t, "POST", "/rentals", token1, gin.H{"bookId": "b1"}).Code)
	require.Equal(t, 201, env.do(t, "POST", "/rentals", token2, gin.H{"bookId": "b1"}).Code)

	t.Run("client sees own only", func(t *testing.T) {
		w := env.do(t, "GET", "/rentals", token1, nil)
		require.Equal(t, 200, w.Code)
		var rentals []domain.Rental
		require.NoError(t, json.Unmarshal(dataOf(t, w), &rentals))
		require.Len(t, rentals, 1)
		assert.Equal(t, u1.ID, rentals[0].UserID)
	})

	t.Run("admin sees all", func(t *testing.T) {
		w := env.do(t, "GET", "/rentals", adminToken, nil)
		require.Equal(t, 200, w.Code)
		var rentals []domain.Rental
		require.NoError(t, json.Unmarshal(dataOf(t, w), &rentals))
		assert.Len(t, rentals, 2)
	})
}

func TestLogsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, domain.Book{ID: "b1", TotalCopies: 1, AvailableCopies: 1})
	_, clientToken := env.loginAs(t, "Jan", "jan@x.com", domain.RoleClient)
	admin, adminToken := env.loginAs(t, "Ops", "ops@x.com", domain.RoleAdmin)

	require.Equal(t, 201, env.do(t, "POST", "/rentals", clientToken, gin.H{"bookId": "b1"}).Code)

	w := env.do(t, "GET", "/logs", adminToken, nil)
	require.Equal(t, 200, w.Code)

	var entries []domain.LogEntry
	require.NoError(t, json.Unmarshal(dataOf(t, w), &entries))
	require.NotEmpty(t, entries)

	var actions []string
	var users []string
	for _, e := range entries {
		actions = append(actions, e.Action)
		users = append(users, e.User)
	}
	assert.Contains(t, actions, "Registration")
	assert.Contains(t, actions, "POST /rentals")
	assert.Contains(t, actions, "View Logs")

	// 审计里必须是解析出来的真实操作者，不能是占位文本
	assert.Contains(t, users, "jan@x.com (Client)")
	assert.Contains(t, users, admin.Email+" (Admin)")
	assert.NotContains(t, users, "req.user")
}
