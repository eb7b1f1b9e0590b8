package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Firebase implements Provider with the Identity Toolkit REST API. Sign-up
// and sign-in post JSON; refresh goes through the secure-token endpoint as
// a plain OAuth2 refresh_token grant.
type Firebase struct {
	apiKey     string
	authURL    string
	oauth      *oauth2.Config
	httpClient *http.Client
}

var _ Provider = (*Firebase)(nil)

// NewFirebase creates a provider. authURL is the Identity Toolkit base
// (".../v1"), tokenURL the secure-token endpoint.
func NewFirebase(apiKey, authURL, tokenURL string, httpClient *http.Client) *Firebase {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Firebase{
		apiKey:  apiKey,
		authURL: strings.TrimRight(authURL, "/"),
		oauth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  withKey(tokenURL, apiKey),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}
}

func withKey(raw, key string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return u.String()
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *Firebase) SignUp(ctx context.Context, email, password string) (*Credentials, error) {
	return f.passwordCall(ctx, "accounts:signUp", email, password)
}

func (f *Firebase) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	return f.passwordCall(ctx, "accounts:signInWithPassword", email, password)
}

func (f *Firebase) passwordCall(ctx context.Context, method, email, password string) (*Credentials, error) {
	body, err := json.Marshal(passwordRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := withKey(f.authURL+"/"+method, f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach identity provider: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return nil, providerError(resp.StatusCode, e.Error.Message)
	}

	var out passwordResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}

	creds := &Credentials{
		UID:          out.LocalID,
		Email:        out.Email,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
	}
	if secs, err := strconv.Atoi(out.ExpiresIn); err == nil {
		creds.ExpiresAt = time.Now().Add(time.Duration(secs) * time.Second)
	}
	return creds, nil
}

// providerError maps Identity Toolkit error codes. Messages may carry a
// suffix such as "WEAK_PASSWORD : Password should be at least 6 characters".
func providerError(status int, message string) error {
	code, _, _ := strings.Cut(message, " ")
	switch code {
	case "EMAIL_EXISTS":
		return ErrEmailExists
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED", "INVALID_EMAIL":
		return ErrInvalidCredentials
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "USER_NOT_FOUND", "INVALID_ID_TOKEN":
		return ErrSessionExpired
	}
	if message == "" {
		return fmt.Errorf("identity provider returned status %d", status)
	}
	return fmt.Errorf("identity provider rejected request: %s", message)
}

func (f *Firebase) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	if refreshToken == "" {
		return nil, ErrNoIdentity
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	// A token without an access token is never valid, so this always exchanges.
	tok, err := f.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && (re.Response == nil || re.Response.StatusCode < 500) {
			// Any 4xx from the token endpoint means the refresh token is dead.
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		idToken = tok.AccessToken
	}
	uid, _ := tok.Extra("user_id").(string)

	creds := &Credentials{
		UID:          uid,
		IDToken:      idToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if creds.RefreshToken == "" {
		creds.RefreshToken = refreshToken
	}
	return creds, nil
}
