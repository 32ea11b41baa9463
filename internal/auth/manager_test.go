package auth_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/blackwell-systems/bookctl/internal/api"
	"github.com/blackwell-systems/bookctl/internal/auth"
	"github.com/blackwell-systems/bookctl/internal/backendtest"
	"github.com/blackwell-systems/bookctl/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv     *backendtest.Server
	store   *session.Store
	client  *api.Client
	manager *auth.Manager
}

func setup(t *testing.T) *fixture {
	t.Helper()
	srv := backendtest.New(t)
	store := session.NewStore(session.NewMemoryBackend(), nil)
	client := api.New(srv.URL, api.WithSessionStore(store))
	m := auth.NewManager(client, store, nil)
	t.Cleanup(m.Close)
	return &fixture{srv: srv, store: store, client: client, manager: m}
}

func storeIsEmpty(t *testing.T, s *session.Store) {
	t.Helper()
	_, hasToken := s.Token()
	var u api.User
	assert.False(t, hasToken, "token should be cleared")
	assert.False(t, s.LoadUser(&u), "user should be cleared")
}

func TestLogin_Success(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("alice", "secret1")

	require.NoError(t, f.manager.Login(context.Background(), "alice", "secret1"))

	assert.True(t, f.manager.IsAuthenticated())
	sess := f.manager.Session()
	assert.Equal(t, "alice", sess.Token)
	require.NotNil(t, sess.User)
	assert.Equal(t, "alice", sess.User.Username)

	tok, ok := f.store.Token()
	assert.True(t, ok)
	assert.Equal(t, "alice", tok)
	var stored api.User
	require.True(t, f.store.LoadUser(&stored))
	assert.Equal(t, "alice", stored.Username)
}

func TestLogin_FailureLeavesStateUnchanged(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("alice", "secret1")

	err := f.manager.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	_, ok := api.AsError(err)
	assert.True(t, ok, "error should be the client's normalized error")
	assert.False(t, f.manager.IsAuthenticated())
	storeIsEmpty(t, f.store)

	// an authenticated session survives a failed re-login too
	require.NoError(t, f.manager.Login(context.Background(), "alice", "secret1"))
	before := f.manager.Session()
	require.Error(t, f.manager.Login(context.Background(), "alice", "nope"))
	assert.Equal(t, before, f.manager.Session())
	assert.True(t, f.manager.IsAuthenticated())
}

func TestRegister_DoesNotLogIn(t *testing.T) {
	f := setup(t)

	u, err := f.manager.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, &api.User{Username: "alice", Password: "secret1"}, u)
	assert.False(t, f.manager.IsAuthenticated())
	storeIsEmpty(t, f.store)
}

func TestRegister_FailureDoesNotTouchSession(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("alice", "secret1")
	require.NoError(t, f.manager.Login(context.Background(), "alice", "secret1"))

	_, err := f.manager.Register(context.Background(), "alice", "secret1")
	require.Error(t, err)
	assert.True(t, f.manager.IsAuthenticated())
}

func TestLogout_Idempotent(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("alice", "secret1")
	require.NoError(t, f.manager.Login(context.Background(), "alice", "secret1"))

	f.manager.Logout()
	once := f.manager.Session()
	storeIsEmpty(t, f.store)

	f.manager.Logout()
	assert.Equal(t, once, f.manager.Session())
	assert.Equal(t, auth.Session{}, f.manager.Session())
	assert.False(t, f.manager.IsAuthenticated())
	storeIsEmpty(t, f.store)
}

func TestNewManager_RestoresFromStore(t *testing.T) {
	srv := backendtest.New(t)
	store := session.NewStore(session.NewMemoryBackend(), nil)
	store.SetToken("alice")
	store.SetUser(api.User{Username: "alice", Password: "secret1"})

	m := auth.NewManager(api.New(srv.URL, api.WithSessionStore(store)), store, nil)
	defer m.Close()

	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "alice", m.User().Username)
}

func TestNewManager_PartialStoreIsNotAuthenticated(t *testing.T) {
	srv := backendtest.New(t)
	store := session.NewStore(session.NewMemoryBackend(), nil)
	store.SetToken("alice")

	m := auth.NewManager(api.New(srv.URL, api.WithSessionStore(store)), store, nil)
	defer m.Close()

	assert.False(t, m.IsAuthenticated())
}

func TestSessionExpired_ResetsState(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("alice", "secret1")
	require.NoError(t, f.manager.Login(context.Background(), "alice", "secret1"))

	var changes []auth.Session
	var mu sync.Mutex
	f.manager.OnChange(func(s auth.Session) {
		mu.Lock()
		changes = append(changes, s)
		mu.Unlock()
	})

	f.srv.Fail("GET /book/list", http.StatusUnauthorized, map[string]string{"message": "token expired"})
	_, err := f.client.ListBooks(context.Background())
	assert.True(t, errors.Is(err, api.ErrAuthExpired))

	assert.False(t, f.manager.IsAuthenticated())
	storeIsEmpty(t, f.store)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 1)
	assert.False(t, changes[0].Authenticated())
}

func TestOnChange_LoginAndLogout(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("alice", "secret1")

	var seen []bool
	unsubscribe := f.manager.OnChange(func(s auth.Session) { seen = append(seen, s.Authenticated()) })

	require.NoError(t, f.manager.Login(context.Background(), "alice", "secret1"))
	f.manager.Logout()
	f.manager.Logout()
	unsubscribe()
	require.NoError(t, f.manager.Login(context.Background(), "alice", "secret1"))

	assert.Equal(t, []bool{true, false}, seen)
}

func TestSession_ReturnsCopy(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("alice", "secret1")
	require.NoError(t, f.manager.Login(context.Background(), "alice", "secret1"))

	s := f.manager.Session()
	s.User.Username = "mallory"
	assert.Equal(t, "alice", f.manager.User().Username)
}
