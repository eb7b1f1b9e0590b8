package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gitlab.com/yelinaung/spennies-bot/internal/logger"
)

// Session observes the identity state of one bot user. The state starts
// unresolved; Await blocks until Restore, Resolve or a sign-in settles it.
type Session struct {
	provider Provider

	mu        sync.RWMutex
	current   *Identity
	listeners map[int]func(*Identity)
	nextID    int

	resolved     chan struct{}
	resolvedOnce sync.Once
}

// NewSession creates an unresolved session. provider may be nil when no
// identity service is configured; sign-in then fails with ErrNotConfigured.
func NewSession(provider Provider) *Session {
	return &Session{
		provider:  provider,
		listeners: make(map[int]func(*Identity)),
		resolved:  make(chan struct{}),
	}
}

func (s *Session) markResolved() {
	s.resolvedOnce.Do(func() { close(s.resolved) })
}

// Await blocks until the identity state is first resolved and reports
// whether a user is signed in.
func (s *Session) Await(ctx context.Context) (bool, error) {
	select {
	case <-s.resolved:
		return s.Current() != nil, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Resolved reports whether the state has settled without blocking.
func (s *Session) Resolved() bool {
	select {
	case <-s.resolved:
		return true
	default:
		return false
	}
}

// Current returns a copy of the signed-in identity, or nil.
func (s *Session) Current() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// OnChange registers fn to be called after every identity change. The
// returned func unregisters it.
func (s *Session) OnChange(fn func(*Identity)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) set(id *Identity) {
	s.mu.Lock()
	s.current = id
	fns := make([]func(*Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	s.markResolved()

	for _, fn := range fns {
		if id == nil {
			fn(nil)
			continue
		}
		cp := *id
		fn(&cp)
	}
}

// Resolve settles the state as the given identity (nil for signed out)
// without contacting the provider.
func (s *Session) Resolve(id *Identity) {
	s.set(id)
}

// Restore resumes a persisted session. A rejected token resolves the state
// as signed out. Any other failure, such as the provider being unreachable,
// leaves the state unresolved so the caller can retry later.
func (s *Session) Restore(ctx context.Context, refreshToken string) error {
	if s.provider == nil || refreshToken == "" {
		s.set(nil)
		if s.provider == nil {
			return ErrNotConfigured
		}
		return ErrNoIdentity
	}

	creds, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			s.set(nil)
		}
		return fmt.Errorf("failed to restore session: %w", err)
	}

	s.set(&Identity{UID: creds.UID, Email: creds.Email, RefreshToken: creds.RefreshToken})
	logger.Log.Debug().Str("uid", logger.HashUID(creds.UID)).Msg("Session restored")
	return nil
}

// SignUp creates an account and signs it in.
func (s *Session) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	return s.signIn(ctx, email, password, true)
}

// SignIn signs an existing account in.
func (s *Session) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	return s.signIn(ctx, email, password, false)
}

func (s *Session) signIn(ctx context.Context, email, password string, create bool) (*Identity, error) {
	if s.provider == nil {
		return nil, ErrNotConfigured
	}

	email = strings.TrimSpace(email)
	var (
		creds *Credentials
		err   error
	)
	if create {
		creds, err = s.provider.SignUp(ctx, email, password)
	} else {
		creds, err = s.provider.SignIn(ctx, email, password)
	}
	if err != nil {
		return nil, err
	}

	if creds.Email == "" {
		creds.Email = email
	}
	id := &Identity{UID: creds.UID, Email: creds.Email, RefreshToken: creds.RefreshToken}
	s.set(id)
	logger.Log.Info().Str("uid", logger.HashUID(id.UID)).Bool("new_account", create).Msg("Signed in")

	cp := *id
	return &cp, nil
}

// SignOut drops the identity.
func (s *Session) SignOut() {
	s.set(nil)
}

// FreshToken forces a refresh and returns a new ID token. A refresh token
// the provider rejects signs the user out.
func (s *Session) FreshToken(ctx context.Context) (string, error) {
	cur := s.Current()
	if cur == nil {
		return "", ErrNoIdentity
	}
	if s.provider == nil {
		return "", ErrNotConfigured
	}

	creds, err := s.provider.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			logger.Log.Info().Str("uid", logger.HashUID(cur.UID)).Msg("Refresh token rejected, signing out")
			s.set(nil)
		}
		return "", err
	}

	if creds.RefreshToken != "" && creds.RefreshToken != cur.RefreshToken {
		s.rotate(cur.RefreshToken, creds.RefreshToken)
	}
	return creds.IDToken, nil
}

// rotate swaps the refresh token unless the identity changed meanwhile.
func (s *Session) rotate(oldToken, newToken string) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur == nil || cur.RefreshToken != oldToken {
		return
	}
	next := *cur
	next.RefreshToken = newToken
	s.set(&next)
}
