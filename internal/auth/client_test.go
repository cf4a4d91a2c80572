package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eshophub/storefront/internal/kvstore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	users map[string]string // email -> password
}

func newProviderServer(t *testing.T) *httptest.Server {
	t.Helper()

	provider := &fakeProvider{users: map[string]string{
		"alice@example.com": "correct-horse",
	}}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/accounts:signInWithPassword", provider.signIn)
	mux.HandleFunc("/v1/accounts:signUp", provider.signUp)
	mux.HandleFunc("/v1/accounts:update", provider.update)
	mux.HandleFunc("/v1/accounts:lookup", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users":[]}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func (p *fakeProvider) signIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	password, ok := p.users[req.Email]
	if !ok {
		writeProviderError(w, "EMAIL_NOT_FOUND")
		return
	}
	if password != req.Password {
		writeProviderError(w, "INVALID_PASSWORD")
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"idToken":      "opaque-token",
		"refreshToken": "refresh-token",
		"expiresIn":    "3600",
		"localId":      "uid-alice",
		"email":        req.Email,
	})
}

func (p *fakeProvider) signUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if _, exists := p.users[req.Email]; exists {
		writeProviderError(w, "EMAIL_EXISTS")
		return
	}
	p.users[req.Email] = req.Password

	json.NewEncoder(w).Encode(map[string]any{
		"idToken":      "opaque-token-new",
		"refreshToken": "refresh-token-new",
		"expiresIn":    "3600",
		"localId":      "uid-new",
		"email":        req.Email,
	})
}

func (p *fakeProvider) update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"displayName"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	json.NewEncoder(w).Encode(map[string]any{
		"localId":     "uid-new",
		"displayName": req.DisplayName,
	})
}

func writeProviderError(w http.ResponseWriter, code string) {
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": code},
	})
}

func newTestClient(t *testing.T) (*Client, *kvstore.MemoryStore) {
	t.Helper()

	kv := kvstore.NewMemoryStore()
	client := NewClient(newProviderServer(t).URL, "test-key", 2*time.Second, kv, zap.NewNop())
	require.NoError(t, client.Init(context.Background()))
	return client, kv
}

func TestInit_UnreachableProvider(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "test-key", 500*time.Millisecond, kvstore.NewMemoryStore(), zap.NewNop())

	err := client.Init(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestInit_RestoresPersistedSession(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	ctx := context.Background()

	session := Session{
		User:      User{UID: "uid-restored", Email: "alice@example.com"},
		IDToken:   "stored-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	raw, err := json.Marshal(session)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, kvstore.KeyUser, raw))

	client := NewClient(newProviderServer(t).URL, "test-key", 2*time.Second, kv, zap.NewNop())
	require.NoError(t, client.Init(ctx))

	user := client.CurrentUser()
	require.NotNil(t, user)
	require.Equal(t, "uid-restored", user.UID)
}

func TestInit_DropsExpiredSession(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	ctx := context.Background()

	session := Session{
		User:      User{UID: "uid-stale"},
		IDToken:   "stale-token",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	raw, _ := json.Marshal(session)
	require.NoError(t, kv.Set(ctx, kvstore.KeyUser, raw))

	client := NewClient(newProviderServer(t).URL, "test-key", 2*time.Second, kv, zap.NewNop())
	require.NoError(t, client.Init(ctx))

	require.Nil(t, client.CurrentUser())
	_, err := kv.Get(ctx, kvstore.KeyUser)
	require.ErrorIs(t, err, kvstore.ErrKeyNotFound, "expired session is removed from storage")
}

func TestInit_CorruptSessionRecovers(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, kvstore.KeyUser, []byte("{broken")))

	client := NewClient(newProviderServer(t).URL, "test-key", 2*time.Second, kv, zap.NewNop())
	require.NoError(t, client.Init(ctx))
	require.Nil(t, client.CurrentUser())
}

func TestSignIn_Success(t *testing.T) {
	client, kv := newTestClient(t)
	ctx := context.Background()

	user, err := client.SignIn(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, "uid-alice", user.UID)
	require.Equal(t, "alice@example.com", user.Email)

	session := client.CurrentSession()
	require.NotNil(t, session)
	require.Equal(t, "opaque-token", session.IDToken)
	require.True(t, session.ExpiresAt.After(time.Now()))

	raw, err := kv.Get(ctx, kvstore.KeyUser)
	require.NoError(t, err)

	var stored Session
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Equal(t, "uid-alice", stored.UID)
}

func TestSignIn_WrongPassword(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.SignIn(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, KindInvalidCredentials, authErr.Kind)
	require.Equal(t, "Incorrect password. Please try again.", authErr.Message)
	require.Nil(t, client.CurrentUser())
}

func TestSignIn_UnknownEmail(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.SignIn(context.Background(), "nobody@example.com", "whatever")

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, KindInvalidCredentials, authErr.Kind)
	require.Equal(t, "User account not found. Please register first.", authErr.Message)
}

func TestSignIn_MissingFields(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.SignIn(context.Background(), "", "")

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "Please fill in all fields.", authErr.Message)
}

func TestSignUp_Success(t *testing.T) {
	client, _ := newTestClient(t)

	user, err := client.SignUp(context.Background(), "bob@example.com", "secure-enough", "Bob")
	require.NoError(t, err)
	require.Equal(t, "uid-new", user.UID)
	require.Equal(t, "Bob", user.DisplayName)
	require.NotNil(t, client.CurrentUser())
}

func TestSignUp_WeakPasswordRejectedLocally(t *testing.T) {
	// No server needed: the length check runs before any request.
	client := NewClient("http://127.0.0.1:1", "test-key", time.Second, kvstore.NewMemoryStore(), zap.NewNop())

	_, err := client.SignUp(context.Background(), "bob@example.com", "short", "Bob")

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, KindWeakPassword, authErr.Kind)
}

func TestSignUp_EmailInUse(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.SignUp(context.Background(), "alice@example.com", "correct-horse", "")

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, KindEmailInUse, authErr.Kind)
	require.Equal(t, "Email already in use. Please login instead.", authErr.Message)
}

func TestSignOut_ClearsSession(t *testing.T) {
	client, kv := newTestClient(t)
	ctx := context.Background()

	_, err := client.SignIn(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, client.SignOut(ctx))
	require.Nil(t, client.CurrentUser())
	require.Nil(t, client.CurrentSession())

	_, err = kv.Get(ctx, kvstore.KeyUser)
	require.ErrorIs(t, err, kvstore.ErrKeyNotFound)
}

func TestOnAuthStateChanged(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	var states []*User
	client.OnAuthStateChanged(func(user *User) {
		states = append(states, user)
	})

	require.Len(t, states, 1, "listener fires immediately on registration")
	require.Nil(t, states[0])

	_, err := client.SignIn(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)
	require.Len(t, states, 2)
	require.NotNil(t, states[1])
	require.Equal(t, "uid-alice", states[1].UID)

	require.NoError(t, client.SignOut(ctx))
	require.Len(t, states, 3)
	require.Nil(t, states[2])
}
