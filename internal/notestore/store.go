// Package notestore is the single authority for reading, writing and migrating
// the persisted note collection.
//
// The whole collection lives under one key as a JSON array. LoadAll and
// SaveAll are not isolated from each other: two callers that each load,
// modify and save will race and the later save wins. Callers that need
// exclusion use Update, which holds the store's writer lock across the whole
// read-modify-write.
package notestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/nuage/internal/apperr"
	"github.com/starford/nuage/internal/kv"
	"github.com/starford/nuage/internal/models"
)

// Observer receives store instrumentation. *metrics.Metrics implements it.
type Observer interface {
	ObserveStore(op string, d time.Duration, err error)
	SetNoteCount(n int)
	LegacyMigrated(n int)
}

// SavedFunc is called after every successful write with a copy of the saved collection.
type SavedFunc func(ctx context.Context, notes []models.Note)

// Store reads and writes the note collection through a kv.Provider.
type Store struct {
	kv     kv.Provider
	logger *slog.Logger
	now    func() time.Time
	obs    Observer

	writeMu sync.Mutex // held by Update for the whole read-modify-write

	hooksMu sync.RWMutex
	hooks   []SavedFunc
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock sets the clock used for migration dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithObserver attaches instrumentation.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.obs = o }
}

// New creates a Store on top of p.
func New(p kv.Provider, opts ...Option) *Store {
	s := &Store{kv: p, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnSaved registers fn to run after each successful write.
func (s *Store) OnSaved(fn SavedFunc) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// LoadAll returns the persisted collection in stored order. When the primary
// key is absent the legacy key is migrated first. The result is never nil:
// an unavailable backend or a corrupt payload yields an empty collection
// together with the error, so screens can show an empty list and a notice.
func (s *Store) LoadAll(ctx context.Context) (notes []models.Note, err error) {
	const op = "notestore.load"
	defer s.observe(op, time.Now(), &err)

	raw, err := s.kv.Get(ctx, models.NotesKey)
	switch {
	case errors.Is(err, kv.ErrKeyNotFound) || (err == nil && len(bytes.TrimSpace(raw)) == 0):
		migrated, ok, merr := s.MigrateLegacyIfPresent(ctx)
		if merr != nil {
			return []models.Note{}, merr
		}
		if ok {
			return migrated, nil
		}
		return []models.Note{}, nil
	case err != nil:
		s.logger.Error("load notes failed", slog.String("error", err.Error()))
		return []models.Note{}, apperr.Wrap(apperr.KindStorageUnavailable, op, err)
	}

	if err := json.Unmarshal(raw, &notes); err != nil {
		s.logger.Error("decode notes failed", slog.String("error", err.Error()))
		return []models.Note{}, apperr.Wrap(apperr.KindDeserialization, op, err)
	}
	if notes == nil {
		notes = []models.Note{}
	}
	for i := range notes {
		notes[i].Normalize()
	}
	s.setCount(len(notes))
	return notes, nil
}

// SaveAll replaces the persisted collection with notes. The backend writes the
// serialized array in one Set, so readers never observe a partial collection.
func (s *Store) SaveAll(ctx context.Context, notes []models.Note) (err error) {
	const op = "notestore.save"
	defer s.observe(op, time.Now(), &err)

	if id, dup := models.DuplicateID(notes); dup {
		return apperr.Validation(op, "id", "duplicate note id "+id.String())
	}
	return s.write(ctx, op, notes)
}

func (s *Store) write(ctx context.Context, op string, notes []models.Note) error {
	if notes == nil {
		notes = []models.Note{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return apperr.Wrap(apperr.KindWriteFailure, op, err)
	}
	if err := s.kv.Set(ctx, models.NotesKey, data); err != nil {
		s.logger.Error("write notes failed", slog.String("error", err.Error()))
		return apperr.Wrap(apperr.KindWriteFailure, op, err)
	}
	s.setCount(len(notes))
	s.logger.Debug("notes saved", slog.Int("count", len(notes)))

	s.hooksMu.RLock()
	hooks := append([]SavedFunc(nil), s.hooks...)
	s.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, models.CloneAll(notes))
	}
	return nil
}

// MigrateLegacyIfPresent moves the legacy collection to the primary key.
// It reports ok=false when there is nothing to migrate; once the legacy key
// is gone every call is a no-op.
func (s *Store) MigrateLegacyIfPresent(ctx context.Context) (notes []models.Note, ok bool, err error) {
	const op = "notestore.migrate"
	defer s.observe(op, time.Now(), &err)

	raw, err := s.kv.Get(ctx, models.LegacyKey)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperr.Wrap(apperr.KindStorageUnavailable, op, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		s.removeLegacy(ctx)
		return nil, false, nil
	}

	var legacy []models.LegacyNote
	if err := json.Unmarshal(raw, &legacy); err != nil {
		// Keep the legacy payload in place; it is the only copy.
		return nil, false, apperr.Wrap(apperr.KindDeserialization, op, err)
	}

	now := s.now()
	notes = make([]models.Note, 0, len(legacy))
	seen := make(map[models.ID]struct{}, len(legacy))
	for _, l := range legacy {
		if _, dup := seen[l.ID]; dup {
			s.logger.Warn("legacy note dropped: duplicate id", slog.String("id", l.ID.String()))
			continue
		}
		seen[l.ID] = struct{}{}
		notes = append(notes, l.Upgrade(now))
	}

	if err := s.write(ctx, op, notes); err != nil {
		return nil, false, err
	}
	s.removeLegacy(ctx)

	if s.obs != nil {
		s.obs.LegacyMigrated(len(notes))
	}
	s.logger.Info("legacy notes migrated", slog.Int("count", len(notes)))
	return notes, true, nil
}

// removeLegacy deletes the legacy key. A failure is only logged: the primary
// key is already written, so LoadAll will not migrate again.
func (s *Store) removeLegacy(ctx context.Context) {
	if err := s.kv.Delete(ctx, models.LegacyKey); err != nil {
		s.logger.Warn("delete legacy key failed", slog.String("error", err.Error()))
	}
}

// Update runs fn on the current collection and saves its result while holding
// the writer lock. Load failures abort before fn runs so a corrupt payload is
// never overwritten by an empty list.
func (s *Store) Update(ctx context.Context, fn func([]models.Note) ([]models.Note, error)) ([]models.Note, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	next, err := fn(models.CloneAll(current))
	if err != nil {
		return nil, err
	}
	if err := s.SaveAll(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Store) observe(op string, start time.Time, errp *error) {
	if s.obs != nil {
		s.obs.ObserveStore(op, time.Since(start), *errp)
	}
}

func (s *Store) setCount(n int) {
	if s.obs != nil {
		s.obs.SetNoteCount(n)
	}
}
