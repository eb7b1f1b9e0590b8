// Package session maps Telegram users to their client session: identity
// state, the selected storage tier and the local fallback scope.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"gitlab.com/yelinaung/spennies-bot/internal/gateway"
	"gitlab.com/yelinaung/spennies-bot/internal/identity"
	"gitlab.com/yelinaung/spennies-bot/internal/ledger"
	"gitlab.com/yelinaung/spennies-bot/internal/localstore"
	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
	"gitlab.com/yelinaung/spennies-bot/internal/refresh"
)

// Errors returned by Manager.
var (
	ErrSignedIn  = errors.New("already signed in")
	ErrSignedOut = errors.New("not signed in")
)

const scopePrefix = "tg:"

// Scope returns the local store scope of a Telegram user.
func Scope(userID int64) string {
	return scopePrefix + strconv.FormatInt(userID, 10)
}

// ParseScope extracts the Telegram user id from a scope.
func ParseScope(scope string) (int64, bool) {
	rest, ok := strings.CutPrefix(scope, scopePrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// persisted is what survives a restart in the session bucket.
type persisted struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	RefreshToken string `json:"refresh_token"`
}

// Config wires a Manager.
type Config struct {
	Store      localstore.Store
	Provider   identity.Provider
	APIBaseURL string
	HTTPClient *http.Client
	Parser     ledger.SMSParser
	Bus        *refresh.Bus
	Now        func() time.Time
}

// Session is one Telegram user's client session.
type Session struct {
	UserID   int64
	Scope    string
	Identity *identity.Session

	mu     sync.RWMutex
	facade *ledger.Facade

	ready   chan struct{}
	initErr error
}

// Facade returns the data facade for the current tier. Callers should not
// hold on to it across commands: the tier is replaced on login and logout.
func (s *Session) Facade() *ledger.Facade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facade
}

// Authenticated reports whether the remote tier is selected.
func (s *Session) Authenticated() bool {
	return s.Facade().Authenticated()
}

func (s *Session) setFacade(f *ledger.Facade) {
	s.mu.Lock()
	s.facade = f
	s.mu.Unlock()
}

// Manager creates sessions lazily on first contact.
type Manager struct {
	cfg Config

	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewManager creates a manager.
func NewManager(cfg Config) *Manager {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = gateway.NewHTTPClient(0)
	}
	return &Manager{cfg: cfg, sessions: make(map[int64]*Session)}
}

// AuthEnabled reports whether an identity provider is configured.
func (m *Manager) AuthEnabled() bool {
	return m.cfg.Provider != nil
}

// Get returns the user's session, creating and resolving it on first use.
// A persisted refresh token is restored; an expired one leaves the user on
// the local tier. A restore that fails for any other reason is returned and
// nothing is cached, so the next call tries again. Concurrent first calls
// share one resolution.
func (m *Manager) Get(ctx context.Context, userID int64) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok {
		s = &Session{
			UserID:   userID,
			Scope:    Scope(userID),
			Identity: identity.NewSession(m.cfg.Provider),
			ready:    make(chan struct{}),
		}
		m.sessions[userID] = s
	}
	m.mu.Unlock()

	if ok {
		select {
		case <-s.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if s.initErr != nil {
			return nil, s.initErr
		}
		return s, nil
	}

	err := m.resolve(ctx, s)
	if err != nil {
		s.initErr = err
		m.mu.Lock()
		delete(m.sessions, userID)
		m.mu.Unlock()
	}
	close(s.ready)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) resolve(ctx context.Context, s *Session) error {
	p, hasToken := localstore.Load[persisted](ctx, m.cfg.Store, s.Scope, localstore.BucketSession)
	if hasToken && p.RefreshToken != "" && m.cfg.Provider != nil {
		if err := s.Identity.Restore(ctx, p.RefreshToken); err != nil {
			if !errors.Is(err, identity.ErrSessionExpired) {
				// The token may still be good; do not cache a local-tier
				// session for a user who is signed in.
				logger.Log.Warn().Err(err).Str("user", logger.HashUserID(s.UserID)).Msg("Persisted session restore failed, will retry")
				return err
			}
			logger.Log.Info().Str("user", logger.HashUserID(s.UserID)).Msg("Persisted session expired")
			m.forget(ctx, s.Scope)
		}
	} else {
		s.Identity.Resolve(nil)
	}

	signedIn, err := s.Identity.Await(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve session: %w", err)
	}
	s.setFacade(m.build(s, signedIn))
	if cur := s.Identity.Current(); cur != nil {
		// The restore may have rotated the refresh token.
		m.persist(ctx, s, cur)
	}

	// Later identity changes persist the token and swap the tier wholesale.
	s.Identity.OnChange(func(id *identity.Identity) {
		m.onIdentityChange(s, id)
	})

	logger.Log.Debug().
		Str("user", logger.HashUserID(s.UserID)).
		Str("tier", s.Facade().Tier().Name()).
		Msg("Session created")
	return nil
}

func (m *Manager) build(s *Session, signedIn bool) *ledger.Facade {
	deps := ledger.Deps{
		Store:  m.cfg.Store,
		Scope:  s.Scope,
		Parser: m.cfg.Parser,
		Now:    m.cfg.Now,
	}
	if signedIn && m.cfg.APIBaseURL != "" {
		deps.API = gateway.New(m.cfg.APIBaseURL, m.cfg.HTTPClient, s.Identity)
	}
	return ledger.NewFacade(ledger.Select(signedIn, deps), m.cfg.Store, s.Scope, m.cfg.Now)
}

func (m *Manager) onIdentityChange(s *Session, id *identity.Identity) {
	ctx := context.Background()
	if id != nil {
		m.persist(ctx, s, id)
	} else {
		m.forget(ctx, s.Scope)
	}

	signedIn := id != nil
	if s.Facade() == nil || s.Facade().Authenticated() != signedIn {
		s.setFacade(m.build(s, signedIn))
		logger.Log.Info().
			Str("user", logger.HashUserID(s.UserID)).
			Bool("authenticated", signedIn).
			Msg("Storage tier switched")
		if m.cfg.Bus != nil {
			m.cfg.Bus.Publish(ctx, s.Scope)
		}
	}
}

func (m *Manager) persist(ctx context.Context, s *Session, id *identity.Identity) {
	err := localstore.Save(ctx, m.cfg.Store, s.Scope, localstore.BucketSession, persisted{
		UID:          id.UID,
		Email:        id.Email,
		RefreshToken: id.RefreshToken,
	})
	if err != nil {
		logger.Log.Warn().Err(err).Str("user", logger.HashUserID(s.UserID)).Msg("Failed to persist session")
	}
}

func (m *Manager) forget(ctx context.Context, scope string) {
	if err := m.cfg.Store.Remove(ctx, scope, localstore.BucketSession); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to remove persisted session")
	}
}

// Register creates an identity, signs it in and creates the backend
// profile. A failed profile creation leaves the user signed in with no
// backend profile; reads then fall back to defaults.
func (m *Manager) Register(ctx context.Context, userID int64, reg models.Registration) (*models.User, error) {
	reg.Normalize()
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	s, err := m.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.Authenticated() {
		return nil, ErrSignedIn
	}

	id, err := s.Identity.SignUp(ctx, reg.Email, reg.Password)
	if err != nil {
		return nil, err
	}

	remote, ok := s.Facade().Tier().(*ledger.Remote)
	if !ok {
		return nil, fmt.Errorf("failed to register profile: backend not configured")
	}
	return remote.Register(ctx, reg, id.UID)
}

// Login signs the user in and switches them to the remote tier.
func (m *Manager) Login(ctx context.Context, userID int64, email, password string) error {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	if s.Authenticated() {
		return ErrSignedIn
	}
	_, err = s.Identity.SignIn(ctx, email, password)
	return err
}

// Logout signs the user out. The mirrored profile goes with the identity;
// offline transactions and loans stay.
func (m *Manager) Logout(ctx context.Context, userID int64) error {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !s.Authenticated() {
		return ErrSignedOut
	}
	if err := m.cfg.Store.Remove(ctx, s.Scope, localstore.BucketUser); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to remove mirrored profile")
	}
	s.Identity.SignOut()
	return nil
}

// Guest stores an offline profile and budget for a signed-out user.
func (m *Manager) Guest(ctx context.Context, userID int64, profile models.User) error {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	if s.Authenticated() {
		return ErrSignedIn
	}

	f := s.Facade()
	if err := f.UpdateProfile(ctx, profile); err != nil {
		return err
	}
	if profile.AvgIncome.IsPositive() {
		err := f.SaveBudget(ctx, ledger.Budget{
			Income:        profile.AvgIncome,
			SavingsTarget: profile.SavingsTarget,
			Expenses:      profile.Expenses,
		})
		if err != nil {
			return err
		}
	}
	if m.cfg.Bus != nil {
		m.cfg.Bus.Publish(ctx, s.Scope)
	}
	return nil
}

// Known returns the Telegram users that have local data, in scope order.
func (m *Manager) Known(ctx context.Context) ([]int64, error) {
	scopes, err := m.cfg.Store.Scopes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}
	ids := make([]int64, 0, len(scopes))
	for _, scope := range scopes {
		if id, ok := ParseScope(scope); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
