package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/blackwell-systems/bookctl/internal/config"
	"github.com/blackwell-systems/bookctl/internal/logging"
	"go.uber.org/zap"
)

// Well-known keys.
const (
	TokenKey = "auth_token"
	UserKey  = "user_info"
)

// Store is the session-facing view of a Backend. Storage failures are
// logged and swallowed: a failed read is "absent", a failed write or
// delete is a no-op.
type Store struct {
	backend Backend
	logger  *zap.Logger
}

// NewStore wraps backend. A nil logger discards failure reports.
func NewStore(backend Backend, logger *zap.Logger) *Store {
	return &Store{backend: backend, logger: logging.OrNop(logger).Named("session")}
}

// Open builds the backend selected by cfg and wraps it in a Store.
func Open(ctx context.Context, cfg config.SessionConfig, logger *zap.Logger) (*Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewStore(NewMemoryBackend(), logger), nil
	case config.BackendSQLite:
		b, err := OpenSQLite(ctx, cfg.EffectiveSessionPath())
		if err != nil {
			return nil, err
		}
		return NewStore(b, logger), nil
	case config.BackendFile, "":
		return NewStore(NewFileBackend(cfg.EffectiveSessionPath()), logger), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// Close releases the backend if it holds resources.
func (s *Store) Close() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Save persists value under key.
func (s *Store) Save(key, value string) {
	if err := s.backend.Set(context.Background(), key, value); err != nil {
		s.logger.Error("save failed", zap.String("key", key), zap.Error(err))
	}
}

// Load returns the value under key. Absent keys and storage failures both
// report ok == false.
func (s *Store) Load(key string) (string, bool) {
	v, ok, err := s.backend.Get(context.Background(), key)
	if err != nil {
		s.logger.Error("load failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return v, ok
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(key string) {
	if err := s.backend.Delete(context.Background(), key); err != nil {
		s.logger.Error("remove failed", zap.String("key", key), zap.Error(err))
	}
}

// Clear removes both session keys.
func (s *Store) Clear() {
	s.RemoveToken()
	s.RemoveUser()
}

func (s *Store) SetToken(token string) { s.Save(TokenKey, token) }

func (s *Store) Token() (string, bool) { return s.Load(TokenKey) }

func (s *Store) RemoveToken() { s.Remove(TokenKey) }

// HasToken reports whether a non-empty token is stored.
func (s *Store) HasToken() bool {
	tok, ok := s.Token()
	return ok && tok != ""
}

// SetUser stores user as JSON.
func (s *Store) SetUser(user any) {
	data, err := json.Marshal(user)
	if err != nil {
		s.logger.Error("encode user failed", zap.Error(err))
		return
	}
	s.Save(UserKey, string(data))
}

// LoadUser decodes the stored user into dst. A record that does not
// decode is treated as absent.
func (s *Store) LoadUser(dst any) bool {
	raw, ok := s.Load(UserKey)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Error("decode user failed", zap.Error(err))
		return false
	}
	return true
}

func (s *Store) RemoveUser() { s.Remove(UserKey) }
