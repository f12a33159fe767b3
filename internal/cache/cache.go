// Package cache implements the persisted dedup state for one account: an
// id -> title map per content kind, stored as human-readable JSON in the
// account's download directory. Presence of an id means the content must not
// be auto-downloaded again, regardless of whether the earlier download
// succeeded.
package cache

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dlbot/dlbot/internal/logging"
	"github.com/dlbot/dlbot/internal/model"
	"github.com/dlbot/dlbot/internal/platform"
)

// Cache file names, one per content kind. The videos name predates the lives
// listing and is kept for compatibility with existing state on disk.
const (
	videosFileName = ".dlbot_cache.json"
	livesFileName  = ".dlbot_lives_cache.json"
)

// Store holds the seen-content maps for one account. All access goes through
// one mutex; FilterNew holds it across the complete filter-record-notify
// sequence of a candidate batch so a concurrent Clear cannot interleave.
type Store struct {
	mu      sync.Mutex
	dir     string
	account string
	logger  *slog.Logger
	entries map[model.ContentKind]map[string]string
}

// NewStore loads the persisted state for an account from dir. Missing or
// unreadable files yield empty maps and are never fatal.
func NewStore(dir, account string, logger *slog.Logger) *Store {
	s := &Store{
		dir:     dir,
		account: account,
		logger:  logging.WithComponent(logger, "cache"),
		entries: make(map[model.ContentKind]map[string]string, 2),
	}
	for _, kind := range model.Kinds() {
		s.entries[kind] = s.load(kind)
	}
	return s
}

func fileName(kind model.ContentKind) string {
	if kind == model.KindLives {
		return livesFileName
	}
	return videosFileName
}

func (s *Store) path(kind model.ContentKind) string {
	return filepath.Join(s.dir, fileName(kind))
}

func (s *Store) load(kind model.ContentKind) map[string]string {
	entries := make(map[string]string)

	data, err := os.ReadFile(s.path(kind))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("failed to read cache file",
				logging.String("account", s.account),
				logging.String("kind", kind.String()),
				logging.Error(err))
		}
		return entries
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Error("cache file is corrupt, starting with empty cache",
			logging.String("account", s.account),
			logging.String("kind", kind.String()),
			logging.Error(err))
		return make(map[string]string)
	}

	s.logger.Info("loaded cache",
		logging.String("account", s.account),
		logging.String("kind", kind.String()),
		logging.Int("entries", len(entries)))
	return entries
}

// Seen reports whether the content id was already recorded for the kind.
func (s *Store) Seen(kind model.ContentKind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[kind][id]
	return ok
}

// MarkSeen records an id -> title pair without persisting.
func (s *Store) MarkSeen(kind model.ContentKind, id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[kind][id] = title
}

// Len returns the number of recorded entries for the kind.
func (s *Store) Len(kind model.ContentKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries[kind])
}

// FilterNew walks a candidate batch in order under the store lock. Already-seen
// ids are skipped; ids found in the destination directory are recorded as seen
// and skipped; genuinely new candidates are recorded and handed to onNew for
// notification and dispatch before the next candidate is considered.
func (s *Store) FilterNew(kind model.ContentKind, candidates []model.Candidate, inDestination func(id string) bool, onNew func(model.Candidate)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cand := range candidates {
		if cand.ID == "" {
			continue
		}
		if _, ok := s.entries[kind][cand.ID]; ok {
			continue
		}
		if inDestination != nil && inDestination(cand.ID) {
			s.logger.Info("file already exists in destination, marking as seen",
				logging.String("account", s.account),
				logging.String("id", cand.ID),
				logging.String("title", cand.Title))
			s.entries[kind][cand.ID] = cand.Title
			continue
		}

		s.entries[kind][cand.ID] = cand.Title
		if onNew != nil {
			onNew(cand)
		}
	}
}

// Save persists one kind's map. Failures are logged, not propagated: a broken
// disk must never take the poll loop down.
func (s *Store) Save(kind model.ContentKind) {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.entries[kind], "", "  ")
	count := len(s.entries[kind])
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("failed to encode cache",
			logging.String("account", s.account),
			logging.String("kind", kind.String()),
			logging.Error(err))
		return
	}

	if err := platform.CreateDirectoryIfNotExists(s.dir); err != nil {
		s.logger.Error("failed to create cache directory",
			logging.String("account", s.account),
			logging.Error(err))
		return
	}

	if err := os.WriteFile(s.path(kind), data, 0644); err != nil {
		s.logger.Error("failed to write cache file",
			logging.String("account", s.account),
			logging.String("kind", kind.String()),
			logging.Error(err))
		return
	}

	s.logger.Info("saved cache",
		logging.String("account", s.account),
		logging.String("kind", kind.String()),
		logging.Int("entries", count))
}

// SaveAll persists both kinds.
func (s *Store) SaveAll() {
	for _, kind := range model.Kinds() {
		s.Save(kind)
	}
}

// Clear empties the videos map and persists immediately, allowing seen videos
// to be re-downloaded. The lives map is deliberately left untouched to match
// the granularity the controller layer exposes.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries[model.KindVideos] = make(map[string]string)
	s.mu.Unlock()

	s.logger.Info("cleared cache", logging.String("account", s.account))
	s.Save(model.KindVideos)
}
