package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/spennies-bot/internal/gateway"
	"gitlab.com/yelinaung/spennies-bot/internal/localstore"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

var testNow = time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func fixedNow() time.Time { return testNow }

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

type signedIn struct{}

func (signedIn) Await(context.Context) (bool, error)        { return true, nil }
func (signedIn) FreshToken(context.Context) (string, error) { return "token", nil }

// fakeBackend is an in-memory stand-in for the Spennies REST API.
type fakeBackend struct {
	mu           sync.Mutex
	user         map[string]any
	estimates    []map[string]any
	transactions []map[string]any
	loans        []map[string]any
	calls        []string
	failPaths    map[string]int
	chat         map[string]any
	insights     any
	challenge    map[string]any
	nextID       int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		user: map[string]any{
			"id": "user-1", "email": "a@example.com", "name": "Asha",
			"savings_target": "8000", "avg_income": 40000, "job_type": "salaried",
		},
		failPaths: map[string]int{},
	}
}

func (b *fakeBackend) record(r *http.Request) {
	b.calls = append(b.calls, r.Method+" "+r.URL.Path)
}

// with runs fn while holding the backend lock.
func (b *fakeBackend) with(fn func(b *fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *fakeBackend) called(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(r)

	if status, ok := b.failPaths[r.Method+" "+r.URL.Path]; ok {
		w.WriteHeader(status)
		return
	}

	var body map[string]any
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &body)
	}

	write := func(v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	newID := func() string {
		b.nextID++
		return fmt.Sprintf("srv-%d", b.nextID)
	}

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/api/auth/me":
		write(b.user)
	case r.Method == http.MethodPost && path == "/api/auth/register":
		body["id"] = "user-new"
		write(body)
	case r.Method == http.MethodPut && path == "/api/users/me":
		for k, v := range body {
			b.user[k] = v
		}
		write(b.user)
	case r.Method == http.MethodGet && path == "/api/estimates/":
		write(b.estimates)
	case r.Method == http.MethodPost && path == "/api/estimates/":
		b.estimates = append(b.estimates, body)
		write(body)
	case r.Method == http.MethodGet && path == "/api/transactions/":
		write(b.transactions)
	case r.Method == http.MethodPost && path == "/api/transactions/":
		body["id"] = newID()
		body["created_at"] = testNow.Format(time.RFC3339)
		b.transactions = append(b.transactions, body)
		write(body)
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/api/transactions/"):
		id := strings.TrimPrefix(path, "/api/transactions/")
		for i, tx := range b.transactions {
			if tx["id"] == id {
				b.transactions = append(b.transactions[:i], b.transactions[i+1:]...)
				write(map[string]any{"message": "deleted"})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPost && path == "/api/ai/parse-sms":
		write(map[string]any{"amount": 450, "type": "debit", "category": "Food", "merchant": "Cafe", "confidence": 0.9})
	case r.Method == http.MethodGet && path == "/api/loans/":
		write(b.loans)
	case r.Method == http.MethodPost && path == "/api/loans/":
		body["id"] = newID()
		body["is_paid"] = false
		b.loans = append(b.loans, body)
		write(body)
	case r.Method == http.MethodPut && strings.HasSuffix(path, "/paid"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/api/loans/"), "/paid")
		for _, l := range b.loans {
			if l["id"] == id {
				l["is_paid"], l["isPaid"] = true, true
				write(l)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/api/loans/"):
		write(map[string]any{"message": "deleted"})
	case r.Method == http.MethodPost && path == "/api/ai/chat":
		if b.chat != nil {
			write(b.chat)
			return
		}
		write(map[string]any{"response": "echo: " + fmt.Sprint(body["message"]), "action": "query_answered"})
	case r.Method == http.MethodGet && path == "/api/ai/insights":
		write(b.insights)
	case r.Method == http.MethodGet && path == "/api/ai/challenge":
		write(b.challenge)
	case r.Method == http.MethodDelete && path == "/api/users/me/data":
		b.transactions, b.loans = nil, nil
		write(map[string]any{"message": "cleared"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type fixture struct {
	backend *fakeBackend
	store   *localstore.Memory
	remote  *Facade
	local   *Facade
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := newFakeBackend()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	store := localstore.NewMemory()
	deps := Deps{
		API:   gateway.New(srv.URL, srv.Client(), signedIn{}),
		Store: store,
		Scope: "tg:1",
		Now:   fixedNow,
		NewID: sequentialIDs(),
	}

	return &fixture{
		backend: backend,
		store:   store,
		remote:  NewFacade(Select(true, deps), store, deps.Scope, fixedNow),
		local:   NewFacade(Select(false, deps), store, deps.Scope, fixedNow),
	}
}

type stubParser struct {
	result *models.SMSParseResult
	err    error
}

func (p stubParser) ParseSMS(context.Context, string) (*models.SMSParseResult, error) {
	return p.result, p.err
}
