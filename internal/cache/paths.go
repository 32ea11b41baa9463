package cache

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blackwell-systems/bookctl/internal/util"
)

// Manager handles the local cover cache.
type Manager struct {
	baseDir string
}

// New creates a cache Manager rooted at baseDir.
func New(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

// BaseDir returns the cache root.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

func (m *Manager) coversDir() string {
	return filepath.Join(m.baseDir, "covers")
}

// CoverPath returns where the cover for bookID is cached.
// Layout: <baseDir>/covers/<id>-<hash><ext>. The hash is taken over the
// cover value, so a changed cover never hits a stale file.
func (m *Manager) CoverPath(bookID int64, cover string) string {
	ext := strings.ToLower(filepath.Ext(cover))
	switch ext {
	case ".png", ".jpg", ".jpeg":
	default:
		ext = ".img"
	}
	name := strconv.FormatInt(bookID, 10) + "-" + util.SHA256Bytes([]byte(cover))[:12] + ext
	return filepath.Join(m.coversDir(), name)
}

// HasCover reports whether the cover is cached.
func (m *Manager) HasCover(bookID int64, cover string) bool {
	if cover == "" {
		return false
	}
	_, err := os.Stat(m.CoverPath(bookID, cover))
	return err == nil
}

// RemoveCover deletes every cached cover of bookID.
func (m *Manager) RemoveCover(bookID int64) error {
	matches, err := filepath.Glob(filepath.Join(m.coversDir(), strconv.FormatInt(bookID, 10)+"-*"))
	if err != nil {
		return err
	}
	for _, p := range matches {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Prune removes cached covers of books not in keep. It returns how many
// files were deleted.
func (m *Manager) Prune(keep []int64) (int, error) {
	wanted := make(map[string]bool, len(keep))
	for _, id := range keep {
		wanted[strconv.FormatInt(id, 10)] = true
	}
	entries, err := os.ReadDir(m.coversDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		id, _, ok := strings.Cut(e.Name(), "-")
		if !ok || wanted[id] {
			continue
		}
		if err := os.Remove(filepath.Join(m.coversDir(), e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
