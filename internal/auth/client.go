package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/eshophub/storefront/internal/kvstore"
	"github.com/eshophub/storefront/pkg/mylogger"
	"github.com/eshophub/storefront/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const minPasswordLength = 6

// Client talks to an identity-toolkit style REST provider and keeps the
// current session in the KV store under the `user` key. All state
// transitions fan out to registered listeners.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	kv      kvstore.Store
	logger  *zap.Logger

	mu        sync.Mutex
	session   *Session
	listeners []StateListener
	ready     bool
}

func NewClient(baseURL, apiKey string, timeout time.Duration, kv kvstore.Store, logger *zap.Logger) *Client {
	settings := gobreaker.Settings{
		Name:        "AuthAPI",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		cb:      gobreaker.NewCircuitBreaker(settings),
		kv:      kv,
		logger:  logger,
	}
}

// Init restores the persisted session and verifies the provider is
// reachable within the context's deadline. It must succeed once before
// sign-in and sign-up are served; a timeout yields ErrUnavailable and
// leaves the client unusable rather than half-initialized.
func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	if c.ready {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	session := c.restoreSession(ctx)

	if err := c.probe(ctx); err != nil {
		mylogger.Error(ctx, c.logger, "auth provider unreachable", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.mu.Lock()
	c.session = session
	c.ready = true
	c.mu.Unlock()

	c.fireListeners()

	mylogger.Info(ctx, c.logger, "auth client initialized",
		zap.Bool("session_restored", session != nil),
	)
	return nil
}

// restoreSession reads the stored session, dropping it when missing,
// corrupt, or expired. Corruption is logged and cleaned up, not surfaced.
func (c *Client) restoreSession(ctx context.Context) *Session {
	raw, err := c.kv.Get(ctx, kvstore.KeyUser)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			mylogger.Warn(ctx, c.logger, "failed to read stored session", zap.Error(err))
		}
		return nil
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		mylogger.Warn(ctx, c.logger, "stored session is corrupt, removing", zap.Error(err))
		_ = c.kv.Delete(ctx, kvstore.KeyUser)
		return nil
	}

	if session.Expired() {
		mylogger.Info(ctx, c.logger, "stored session expired, removing",
			zap.String("uid", session.UID),
		)
		_ = c.kv.Delete(ctx, kvstore.KeyUser)
		return nil
	}

	return &session
}

// probe performs a cheap unauthenticated round trip to the provider. A
// rejected status still proves reachability; only transport errors fail.
func (c *Client) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint("accounts:lookup"), bytes.NewReader([]byte(`{}`)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	res.Body.Close()
	return nil
}

type providerResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn exchanges credentials for a session, persists it and fires the
// state listeners. Failures come back as *Error with a user-facing message.
func (c *Client) SignIn(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, &Error{Kind: KindInvalidCredentials, Code: "MISSING_FIELDS", Message: "Please fill in all fields."}
	}

	res, err := c.call(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}

	session := c.sessionFrom(res)
	c.storeSession(ctx, session)
	c.fireListeners()

	mylogger.Info(ctx, c.logger, "user signed in", zap.String("uid", session.UID))
	return &session.User, nil
}

// SignUp creates the account and, when a display name is given, applies it
// with a follow-up profile update before the session is stored.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*User, error) {
	if email == "" || password == "" {
		return nil, &Error{Kind: KindInvalidCredentials, Code: "MISSING_FIELDS", Message: "Please fill in all fields."}
	}
	if len(password) < minPasswordLength {
		return nil, mapProviderError("WEAK_PASSWORD")
	}

	res, err := c.call(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}

	session := c.sessionFrom(res)

	if displayName != "" {
		updated, err := c.call(ctx, "accounts:update", map[string]any{
			"idToken":           session.IDToken,
			"displayName":       displayName,
			"returnSecureToken": false,
		})
		if err != nil {
			// The account exists; a failed profile update only costs the name.
			mylogger.Warn(ctx, c.logger, "display name update failed", zap.Error(err))
		} else {
			session.DisplayName = updated.DisplayName
		}
	}

	c.storeSession(ctx, session)
	c.fireListeners()

	mylogger.Info(ctx, c.logger, "user registered", zap.String("uid", session.UID))
	return &session.User, nil
}

// SignOut drops the session locally. The provider keeps no server-side
// session for password sign-in, so no remote call is needed.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	if err := c.kv.Delete(ctx, kvstore.KeyUser); err != nil && !errors.Is(err, kvstore.ErrKeyNotFound) {
		mylogger.Error(ctx, c.logger, "failed to remove stored session", zap.Error(err))
		return fmt.Errorf("failed to remove stored session: %w", err)
	}

	c.fireListeners()

	mylogger.Info(ctx, c.logger, "user signed out")
	return nil
}

// CurrentUser returns the signed-in identity, nil when signed out.
func (c *Client) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.Expired() {
		return nil
	}
	user := c.session.User
	return &user
}

// CurrentSession returns a copy of the active session, nil when signed out.
func (c *Client) CurrentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.Expired() {
		return nil
	}
	session := *c.session
	return &session
}

// OnAuthStateChanged registers a listener and fires it immediately with the
// current state, so late subscribers never miss the restored session.
func (c *Client) OnAuthStateChanged(fn StateListener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	user := c.currentUserLocked()
	c.mu.Unlock()

	fn(user)
}

func (c *Client) currentUserLocked() *User {
	if c.session == nil || c.session.Expired() {
		return nil
	}
	user := c.session.User
	return &user
}

func (c *Client) fireListeners() {
	c.mu.Lock()
	listeners := make([]StateListener, len(c.listeners))
	copy(listeners, c.listeners)
	user := c.currentUserLocked()
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(user)
	}
}

// call posts to one provider endpoint through the circuit breaker and maps
// provider error codes at this boundary. Anything that is not a provider
// rejection surfaces as a network-kind error.
func (c *Client) call(ctx context.Context, action string, payload map[string]any) (*providerResponse, error) {
	res, err := utils.ExecuteWithBreaker[*providerResponse](c.cb, func() (*providerResponse, error) {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode auth request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(action), bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build auth request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		httpRes, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("auth request failed: %w", err)
		}
		defer httpRes.Body.Close()

		var res providerResponse
		if err := json.NewDecoder(httpRes.Body).Decode(&res); err != nil {
			return nil, fmt.Errorf("failed to decode auth response: %w", err)
		}

		if res.Error != nil {
			return nil, mapProviderError(res.Error.Message)
		}
		if httpRes.StatusCode >= 400 {
			return nil, fmt.Errorf("auth provider returned status %d", httpRes.StatusCode)
		}

		return &res, nil
	})
	if err != nil {
		var authErr *Error
		if errors.As(err, &authErr) {
			return nil, authErr
		}

		mylogger.Warn(ctx, c.logger, "auth provider call failed",
			zap.String("action", action),
			zap.Error(err),
		)
		return nil, networkError(err)
	}

	return res, nil
}

func (c *Client) endpoint(action string) string {
	return fmt.Sprintf("%s/v1/%s?key=%s", c.baseURL, action, c.apiKey)
}

// sessionFrom builds a session from a provider response, preferring the ID
// token's own claims for identity and expiry over the response envelope.
func (c *Client) sessionFrom(res *providerResponse) *Session {
	session := &Session{
		User: User{
			UID:         res.LocalID,
			Email:       res.Email,
			DisplayName: res.DisplayName,
		},
		IDToken:      res.IDToken,
		RefreshToken: res.RefreshToken,
	}

	if seconds, err := strconv.Atoi(res.ExpiresIn); err == nil && seconds > 0 {
		session.ExpiresAt = time.Now().Add(time.Duration(seconds) * time.Second)
	}

	// The token is minted by the provider we just called; claims are read
	// without signature verification, the provider verifies on every call.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(res.IDToken, claims); err == nil {
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			session.UID = sub
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			session.ExpiresAt = exp.Time
		}
	}

	return session
}

func (c *Client) storeSession(ctx context.Context, session *Session) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	raw, err := json.Marshal(session)
	if err != nil {
		mylogger.Error(ctx, c.logger, "failed to marshal session", zap.Error(err))
		return
	}
	if err := c.kv.Set(ctx, kvstore.KeyUser, raw); err != nil {
		mylogger.Error(ctx, c.logger, "failed to persist session", zap.Error(err))
	}
}
