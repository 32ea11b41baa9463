package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/bookctl/internal/config"
	"github.com/blackwell-systems/bookctl/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type user struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// brokenBackend fails every operation.
type brokenBackend struct{}

var errBroken = errors.New("disk on fire")

func (brokenBackend) Get(context.Context, string) (string, bool, error) { return "", false, errBroken }
func (brokenBackend) Set(context.Context, string, string) error         { return errBroken }
func (brokenBackend) Delete(context.Context, string) error              { return errBroken }

func backends(t *testing.T) map[string]session.Backend {
	t.Helper()
	db, err := session.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]session.Backend{
		"memory": session.NewMemoryBackend(),
		"file":   session.NewFileBackend(filepath.Join(t.TempDir(), "session.yml")),
		"sqlite": db,
	}
}

func TestStore_SaveLoadRemove(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := session.NewStore(b, nil)

			_, ok := s.Load("k")
			assert.False(t, ok)

			s.Save("k", "v1")
			got, ok := s.Load("k")
			require.True(t, ok)
			assert.Equal(t, "v1", got)

			s.Save("k", "v2")
			got, _ = s.Load("k")
			assert.Equal(t, "v2", got)

			s.Remove("k")
			_, ok = s.Load("k")
			assert.False(t, ok)

			// removing twice is fine
			s.Remove("k")
		})
	}
}

func TestStore_TokenHelpers(t *testing.T) {
	s := session.NewStore(session.NewMemoryBackend(), nil)

	assert.False(t, s.HasToken())

	s.SetToken("")
	assert.False(t, s.HasToken(), "empty token must not count")

	s.SetToken("alice")
	assert.True(t, s.HasToken())
	tok, ok := s.Token()
	assert.True(t, ok)
	assert.Equal(t, "alice", tok)

	s.RemoveToken()
	assert.False(t, s.HasToken())
}

func TestStore_UserRoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := session.NewStore(b, nil)
			s.SetUser(user{Username: "alice", Password: "secret1"})

			var got user
			require.True(t, s.LoadUser(&got))
			assert.Equal(t, user{Username: "alice", Password: "secret1"}, got)

			s.RemoveUser()
			assert.False(t, s.LoadUser(&got))
		})
	}
}

func TestStore_CorruptUserReadsAbsent(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := session.NewStore(session.NewMemoryBackend(), zap.New(core))

	s.Save(session.UserKey, "{not json")

	var got user
	assert.False(t, s.LoadUser(&got))
	assert.Equal(t, 1, logs.FilterMessage("decode user failed").Len())
}

func TestStore_ClearRemovesBoth(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := session.NewStore(b, nil)
			s.SetToken("alice")
			s.SetUser(user{Username: "alice"})
			s.Save("unrelated", "x")

			s.Clear()

			assert.False(t, s.HasToken())
			var u user
			assert.False(t, s.LoadUser(&u))
			v, ok := s.Load("unrelated")
			assert.True(t, ok)
			assert.Equal(t, "x", v)

			// idempotent
			s.Clear()
			assert.False(t, s.HasToken())
		})
	}
}

func TestStore_FailuresAreLoggedNotPropagated(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := session.NewStore(brokenBackend{}, zap.New(core))

	s.Save("k", "v")
	_, ok := s.Load("k")
	s.Remove("k")
	s.Clear()

	assert.False(t, ok)
	assert.False(t, s.HasToken())
	assert.Equal(t, 1, logs.FilterMessage("save failed").Len())
	assert.GreaterOrEqual(t, logs.FilterMessage("load failed").Len(), 2)
	assert.Equal(t, 3, logs.FilterMessage("remove failed").Len())
}

func TestFileBackend_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yml")

	session.NewStore(session.NewFileBackend(path), nil).SetToken("alice")

	s := session.NewStore(session.NewFileBackend(path), nil)
	tok, ok := s.Token()
	require.True(t, ok)
	assert.Equal(t, "alice", tok)
}

func TestFileBackend_UnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, session.NewFileBackend(blocker).Set(context.Background(), "a", "b"))

	// a regular file where a directory is expected
	b := session.NewFileBackend(filepath.Join(blocker, "session.yml"))
	err := b.Set(context.Background(), "k", "v")
	require.Error(t, err)
}

func TestSQLiteBackend_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	first, err := session.OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, session.TokenKey, "alice"))
	require.NoError(t, first.Close())

	// migrations re-run as a no-op
	second, err := session.OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	v, ok, err := second.Get(ctx, session.TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", v)
}

func TestSQLiteBackend_InMemory(t *testing.T) {
	ctx := context.Background()
	b, err := session.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Set(ctx, "k", "v"))
	v, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendSQLite} {
		ext := ".yml"
		if backend == config.BackendSQLite {
			ext = ".db"
		}
		s, err := session.Open(ctx, config.SessionConfig{
			Backend: backend,
			Path:    filepath.Join(dir, backend+ext),
		}, nil)
		require.NoError(t, err, backend)
		s.SetToken("t")
		assert.True(t, s.HasToken(), backend)
		assert.NoError(t, s.Close())
	}

	_, err := session.Open(ctx, config.SessionConfig{Backend: "redis"}, nil)
	assert.Error(t, err)
}
