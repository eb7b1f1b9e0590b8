package identity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	mu         sync.Mutex
	refreshes  int
	nextToken  string
	refreshErr error
}

func (p *stubProvider) SignUp(_ context.Context, email, _ string) (*Credentials, error) {
	if email == "taken@example.com" {
		return nil, ErrEmailExists
	}
	return &Credentials{UID: "new-uid", RefreshToken: "rt-new"}, nil
}

func (p *stubProvider) SignIn(_ context.Context, email, password string) (*Credentials, error) {
	if password != "secret1" {
		return nil, ErrInvalidCredentials
	}
	return &Credentials{UID: "uid-1", Email: email, RefreshToken: "rt-1"}, nil
}

func (p *stubProvider) Refresh(_ context.Context, refreshToken string) (*Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	p.refreshes++
	next := refreshToken
	if p.nextToken != "" {
		next = p.nextToken
	}
	return &Credentials{UID: "uid-1", IDToken: "id-" + next, RefreshToken: next}, nil
}

func TestSessionAwaitBlocksUntilResolved(t *testing.T) {
	t.Parallel()

	s := NewSession(&stubProvider{})
	require.False(t, s.Resolved())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	done := make(chan bool)
	go func() {
		present, err := s.Await(context.Background())
		done <- present && err == nil
	}()

	require.NoError(t, s.Restore(context.Background(), "rt-1"))
	select {
	case present := <-done:
		require.True(t, present)
	case <-time.After(time.Second):
		t.Fatal("Await did not return after Restore")
	}
}

func TestSessionRestoreFailureResolvesSignedOut(t *testing.T) {
	t.Parallel()

	s := NewSession(&stubProvider{refreshErr: ErrSessionExpired})
	err := s.Restore(context.Background(), "rt-dead")
	require.ErrorIs(t, err, ErrSessionExpired)

	present, err := s.Await(context.Background())
	require.NoError(t, err)
	require.False(t, present)
}

func TestSessionRestoreTransientFailureStaysUnresolved(t *testing.T) {
	t.Parallel()

	p := &stubProvider{refreshErr: errors.New("dial tcp: i/o timeout")}
	s := NewSession(p)
	require.Error(t, s.Restore(context.Background(), "rt"))
	require.False(t, s.Resolved())

	p.mu.Lock()
	p.refreshErr = nil
	p.mu.Unlock()
	require.NoError(t, s.Restore(context.Background(), "rt"))

	present, err := s.Await(context.Background())
	require.NoError(t, err)
	require.True(t, present)
}

func TestSessionWithoutProvider(t *testing.T) {
	t.Parallel()

	s := NewSession(nil)
	require.ErrorIs(t, s.Restore(context.Background(), "rt"), ErrNotConfigured)
	require.True(t, s.Resolved())

	_, err := s.SignIn(context.Background(), "a@example.com", "secret1")
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = s.FreshToken(context.Background())
	require.ErrorIs(t, err, ErrNoIdentity)
}

func TestSessionSignInOutNotifies(t *testing.T) {
	t.Parallel()

	s := NewSession(&stubProvider{})
	var changes []*Identity
	var mu sync.Mutex
	unsubscribe := s.OnChange(func(id *Identity) {
		mu.Lock()
		changes = append(changes, id)
		mu.Unlock()
	})

	_, err := s.SignIn(context.Background(), "a@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Nil(t, s.Current())

	id, err := s.SignIn(context.Background(), " a@example.com ", "secret1")
	require.NoError(t, err)
	require.Equal(t, "uid-1", id.UID)
	require.Equal(t, "a@example.com", id.Email)

	s.SignOut()
	require.Nil(t, s.Current())

	unsubscribe()
	_, err = s.SignUp(context.Background(), "b@example.com", "secret1")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 2)
	require.NotNil(t, changes[0])
	require.Nil(t, changes[1])
}

func TestSessionFreshTokenForcesRefresh(t *testing.T) {
	t.Parallel()

	p := &stubProvider{}
	s := NewSession(p)
	s.Resolve(&Identity{UID: "uid-1", RefreshToken: "rt-1"})

	for range 3 {
		token, err := s.FreshToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "id-rt-1", token)
	}
	require.Equal(t, 3, p.refreshes)
}

func TestSessionFreshTokenRotatesRefreshToken(t *testing.T) {
	t.Parallel()

	p := &stubProvider{nextToken: "rt-2"}
	s := NewSession(p)
	s.Resolve(&Identity{UID: "uid-1", RefreshToken: "rt-1"})

	var rotated atomic.Bool
	s.OnChange(func(id *Identity) {
		if id != nil && id.RefreshToken == "rt-2" {
			rotated.Store(true)
		}
	})

	_, err := s.FreshToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "rt-2", s.Current().RefreshToken)
	require.True(t, rotated.Load())
}

func TestSessionFreshTokenExpiredSignsOut(t *testing.T) {
	t.Parallel()

	s := NewSession(&stubProvider{refreshErr: ErrSessionExpired})
	s.Resolve(&Identity{UID: "uid-1", RefreshToken: "rt-1"})

	_, err := s.FreshToken(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Nil(t, s.Current())

	other := NewSession(&stubProvider{refreshErr: errors.New("network down")})
	other.Resolve(&Identity{UID: "uid-1", RefreshToken: "rt-1"})
	_, err = other.FreshToken(context.Background())
	require.Error(t, err)
	require.NotNil(t, other.Current(), "transient failures keep the identity")
}
