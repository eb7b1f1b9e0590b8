package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/spennies-bot/internal/identity"
	"gitlab.com/yelinaung/spennies-bot/internal/localstore"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
	"gitlab.com/yelinaung/spennies-bot/internal/refresh"
)

type fakeProvider struct {
	mu        sync.Mutex
	rejectAll bool
	failNext  int
	refreshes int
}

func (p *fakeProvider) SignUp(_ context.Context, email, _ string) (*identity.Credentials, error) {
	return &identity.Credentials{UID: "uid-new", Email: email, RefreshToken: "rt-new"}, nil
}

func (p *fakeProvider) SignIn(_ context.Context, email, password string) (*identity.Credentials, error) {
	if password != "secret1" {
		return nil, identity.ErrInvalidCredentials
	}
	return &identity.Credentials{UID: "uid-1", Email: email, RefreshToken: "rt-1"}, nil
}

func (p *fakeProvider) Refresh(_ context.Context, refreshToken string) (*identity.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rejectAll {
		return nil, identity.ErrSessionExpired
	}
	if p.failNext > 0 {
		p.failNext--
		return nil, errors.New("dial tcp: connection refused")
	}
	p.refreshes++
	return &identity.Credentials{UID: "uid-1", IDToken: "id-token", RefreshToken: refreshToken + "+"}, nil
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = "user-9"
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("GET /api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer id-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"srv-1","amount":10,"type":"EXPENSE","date":"2026-06-10"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newManager(t *testing.T, store localstore.Store, provider identity.Provider, bus *refresh.Bus) *Manager {
	t.Helper()
	srv := newBackend(t)
	return NewManager(Config{
		Store:      store,
		Provider:   provider,
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
		Bus:        bus,
		Now:        func() time.Time { return time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC) },
	})
}

func TestScope(t *testing.T) {
	t.Parallel()

	require.Equal(t, "tg:42", Scope(42))
	id, ok := ParseScope("tg:42")
	require.True(t, ok)
	require.Equal(t, int64(42), id)

	for _, bad := range []string{"42", "tg:", "tg:abc", "web:1"} {
		_, ok := ParseScope(bad)
		require.False(t, ok, bad)
	}
}

func TestGetStartsSignedOut(t *testing.T) {
	t.Parallel()

	m := newManager(t, localstore.NewMemory(), &fakeProvider{}, nil)
	ctx := context.Background()

	s, err := m.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, s.Authenticated())
	require.Equal(t, "local", s.Facade().Tier().Name())
	require.Equal(t, "tg:1", s.Scope)

	again, err := m.Get(ctx, 1)
	require.NoError(t, err)
	require.Same(t, s, again)
}

func TestGetConcurrentFirstContact(t *testing.T) {
	t.Parallel()

	m := newManager(t, localstore.NewMemory(), &fakeProvider{}, nil)

	const callers = 10
	sessions := make(chan *Session, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Get(context.Background(), 7)
			if err == nil && s.Facade() != nil {
				sessions <- s
			}
		}()
	}
	wg.Wait()
	close(sessions)

	var first *Session
	n := 0
	for s := range sessions {
		if first == nil {
			first = s
		}
		require.Same(t, first, s)
		n++
	}
	require.Equal(t, callers, n)
}

func TestLoginSwitchesTierAndPersists(t *testing.T) {
	t.Parallel()

	store := localstore.NewMemory()
	bus := refresh.New()
	var mu sync.Mutex
	var published []string
	bus.Subscribe("test", func(_ context.Context, scope string) {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, scope)
	})

	m := newManager(t, store, &fakeProvider{}, bus)
	ctx := context.Background()

	require.ErrorIs(t, m.Login(ctx, 1, "a@example.com", "wrong"), identity.ErrInvalidCredentials)
	require.NoError(t, m.Login(ctx, 1, "a@example.com", "secret1"))

	s, err := m.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, s.Authenticated())
	require.Len(t, s.Facade().Transactions(ctx), 1, "remote tier reads through the gateway with a fresh token")

	p, ok := localstore.Load[persisted](ctx, store, "tg:1", localstore.BucketSession)
	require.True(t, ok)
	require.Equal(t, "uid-1", p.UID)
	require.NotEmpty(t, p.RefreshToken)

	require.ErrorIs(t, m.Login(ctx, 1, "a@example.com", "secret1"), ErrSignedIn)

	bus.Wait()
	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, published, "tg:1")
}

func TestRestoreOnRestart(t *testing.T) {
	t.Parallel()

	store := localstore.NewMemory()
	ctx := context.Background()

	first := newManager(t, store, &fakeProvider{}, nil)
	require.NoError(t, first.Login(ctx, 1, "a@example.com", "secret1"))

	provider := &fakeProvider{}
	second := newManager(t, store, provider, nil)
	s, err := second.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, s.Authenticated())
	require.Equal(t, 1, provider.refreshes)

	p, ok := localstore.Load[persisted](ctx, store, "tg:1", localstore.BucketSession)
	require.True(t, ok)
	require.Equal(t, "rt-1+", p.RefreshToken, "rotated token is persisted")
}

func TestRestoreRejectedFallsBackToLocal(t *testing.T) {
	t.Parallel()

	store := localstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, localstore.Save(ctx, store, "tg:1", localstore.BucketSession, persisted{UID: "uid-1", RefreshToken: "old"}))

	m := newManager(t, store, &fakeProvider{rejectAll: true}, nil)
	s, err := m.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, s.Authenticated())

	_, ok, err := store.Get(ctx, "tg:1", localstore.BucketSession)
	require.NoError(t, err)
	require.False(t, ok, "rejected token is forgotten")
}

func TestRestoreNetworkFailureRetriesNextTime(t *testing.T) {
	t.Parallel()

	store := localstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, localstore.Save(ctx, store, "tg:1", localstore.BucketSession, persisted{UID: "uid-1", RefreshToken: "rt"}))

	m := newManager(t, store, &fakeProvider{failNext: 1}, nil)

	_, err := m.Get(ctx, 1)
	require.ErrorContains(t, err, "connection refused")

	_, ok, err := store.Get(ctx, "tg:1", localstore.BucketSession)
	require.NoError(t, err)
	require.True(t, ok, "token survives a transient failure")

	s, err := m.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, s.Authenticated())
	require.Equal(t, "remote", s.Facade().Tier().Name())
}

func TestLogout(t *testing.T) {
	t.Parallel()

	store := localstore.NewMemory()
	m := newManager(t, store, &fakeProvider{}, nil)
	ctx := context.Background()

	require.ErrorIs(t, m.Logout(ctx, 1), ErrSignedOut)

	require.NoError(t, m.Login(ctx, 1, "a@example.com", "secret1"))
	require.NoError(t, store.Set(ctx, "tg:1", localstore.BucketUser, `{"name":"Asha"}`))
	require.NoError(t, store.Set(ctx, "tg:1", localstore.BucketTransactions, `[{"id":"x","amount":5,"type":"expense"}]`))

	require.NoError(t, m.Logout(ctx, 1))

	s, err := m.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, s.Authenticated())

	for _, bucket := range []localstore.Bucket{localstore.BucketSession, localstore.BucketUser} {
		_, ok, err := store.Get(ctx, "tg:1", bucket)
		require.NoError(t, err)
		require.False(t, ok, bucket)
	}
	require.Len(t, s.Facade().Transactions(ctx), 1, "offline transactions survive logout")
}

func TestRegister(t *testing.T) {
	t.Parallel()

	m := newManager(t, localstore.NewMemory(), &fakeProvider{}, nil)
	ctx := context.Background()

	_, err := m.Register(ctx, 1, models.Registration{Email: "not-an-email", Password: "secret1"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)

	reg := models.Registration{
		Email:    " n@example.com ",
		Password: "secret1",
		Profile: models.User{
			Name:          "Nia",
			AvgIncome:     decimal.NewFromInt(30000),
			SavingsTarget: decimal.NewFromInt(5000),
		},
	}
	u, err := m.Register(ctx, 1, reg)
	require.NoError(t, err)
	require.Equal(t, "user-9", u.ID)
	require.Equal(t, "Nia", u.Name)

	s, err := m.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, s.Authenticated())
}

func TestGuest(t *testing.T) {
	t.Parallel()

	store := localstore.NewMemory()
	m := newManager(t, store, nil, nil)
	ctx := context.Background()
	require.False(t, m.AuthEnabled())

	profile := models.User{
		Name:          "Ravi",
		Language:      "HI",
		AvgIncome:     decimal.NewFromInt(20000),
		SavingsTarget: decimal.NewFromInt(2000),
	}
	require.NoError(t, m.Guest(ctx, 5, profile))

	s, err := m.Get(ctx, 5)
	require.NoError(t, err)
	u := s.Facade().User(ctx)
	require.NotNil(t, u)
	require.Equal(t, "Ravi", u.Name)
	require.Equal(t, "hi", u.Language)
	require.True(t, u.SavingsTarget.Equal(decimal.NewFromInt(2000)))

	require.ErrorIs(t, m.Login(ctx, 5, "a@example.com", "secret1"), identity.ErrNotConfigured)
}

func TestKnown(t *testing.T) {
	t.Parallel()

	store := localstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "tg:3", localstore.BucketLoans, "[]"))
	require.NoError(t, store.Set(ctx, "tg:1", localstore.BucketUser, "{}"))
	require.NoError(t, store.Set(ctx, "other", localstore.BucketUser, "{}"))

	m := newManager(t, store, nil, nil)
	ids, err := m.Known(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 3}, ids)
}
