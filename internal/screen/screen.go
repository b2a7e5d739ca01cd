// Package screen implements the reload-on-focus protocol every note screen follows.
//
// A Screen keeps a private working copy of the collection. It reloads from the
// store each time it gains focus, because another screen may have changed the
// collection in the meantime; there is no other invalidation signal. Loads and
// saves that complete after the screen lost focus or was unmounted are
// discarded instead of being applied to stale state.
package screen

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/starford/nuage/internal/apperr"
	"github.com/starford/nuage/internal/models"
)

var (
	// ErrDiscarded reports that an operation finished after the screen moved on;
	// its result was not applied.
	ErrDiscarded = errors.New("screen: result discarded")
	// ErrUnmounted is returned by calls on an unmounted screen.
	ErrUnmounted = errors.New("screen: unmounted")
	// ErrNotReady is returned by Mutate outside the Ready state.
	ErrNotReady = errors.New("screen: not ready")
)

// State is the lifecycle position of a screen.
type State int

const (
	Unfocused State = iota
	Loading
	Ready
	Saving
)

func (s State) String() string {
	switch s {
	case Unfocused:
		return "unfocused"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Saving:
		return "saving"
	}
	return "unknown"
}

// Store is the part of the note store a screen uses.
type Store interface {
	LoadAll(ctx context.Context) ([]models.Note, error)
	SaveAll(ctx context.Context, notes []models.Note) error
}

// Notifier shows a dismissible message to the user.
type Notifier interface {
	Notify(apperr.Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(apperr.Notice)

func (f NotifierFunc) Notify(n apperr.Notice) { f(n) }

// Screen is one view over the note collection.
type Screen struct {
	name   string
	store  Store
	notify Notifier
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	notes   []models.Note
	gen     uint64 // bumped on focus, blur and unmount
	mounted bool
}

// Option configures a Screen.
type Option func(*Screen)

// WithNotifier sets where failure notices go.
func WithNotifier(n Notifier) Option {
	return func(s *Screen) { s.notify = n }
}

// WithLogger sets the screen's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Screen) { s.logger = l }
}

// New mounts a screen in the Unfocused state.
func New(name string, store Store, opts ...Option) *Screen {
	s := &Screen{
		name:    name,
		store:   store,
		notify:  NotifierFunc(func(apperr.Notice) {}),
		logger:  slog.Default(),
		notes:   []models.Note{},
		mounted: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("screen", name))
	return s
}

// Name returns the screen's name.
func (s *Screen) Name() string { return s.name }

// State returns the current lifecycle state.
func (s *Screen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Notes returns a copy of the working collection.
func (s *Screen) Notes() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneAll(s.notes)
}

// Focus reloads the collection. It runs on every focus, not only the first.
// A failed load leaves the screen Ready with an empty list and a notice.
func (s *Screen) Focus(ctx context.Context) error {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return ErrUnmounted
	}
	s.gen++
	gen := s.gen
	s.state = Loading
	s.mu.Unlock()

	notes, err := s.store.LoadAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || s.gen != gen {
		s.logger.Debug("load result discarded")
		return ErrDiscarded
	}
	if notes == nil {
		notes = []models.Note{}
	}
	s.notes = notes
	s.state = Ready
	if err != nil {
		s.logger.Warn("load failed", slog.String("error", err.Error()))
		s.notify.Notify(apperr.NoticeFor(apperr.ActionLoad, err))
		return err
	}
	return nil
}

// Blur moves the screen to Unfocused. In-flight results are discarded.
func (s *Screen) Blur() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.gen++
	s.state = Unfocused
}

// Unmount tears the screen down; later results are discarded.
func (s *Screen) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = false
	s.gen++
	s.state = Unfocused
}

// Mutate computes the next collection from the working copy and saves it.
// The working copy changes only after the store confirms the write.
func (s *Screen) Mutate(ctx context.Context, action apperr.Action, fn func([]models.Note) ([]models.Note, error)) error {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return ErrUnmounted
	}
	if s.state != Ready {
		s.mu.Unlock()
		return ErrNotReady
	}
	gen := s.gen
	working := models.CloneAll(s.notes)
	s.state = Saving
	s.mu.Unlock()

	next, err := fn(working)
	if err == nil {
		err = s.store.SaveAll(ctx, next)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || s.gen != gen {
		s.logger.Debug("save result discarded", slog.String("action", string(action)))
		if err != nil {
			return err
		}
		return ErrDiscarded
	}
	s.state = Ready
	if err != nil {
		s.logger.Warn("mutation failed", slog.String("action", string(action)), slog.String("error", err.Error()))
		s.notify.Notify(apperr.NoticeFor(action, err))
		return err
	}
	s.notes = models.CloneAll(next)
	return nil
}

// Add prepends n to the collection.
func (s *Screen) Add(ctx context.Context, n models.Note) error {
	return s.Mutate(ctx, apperr.ActionSave, func(notes []models.Note) ([]models.Note, error) {
		return append([]models.Note{n}, notes...), nil
	})
}

// Replace swaps the note with n's id for n.
func (s *Screen) Replace(ctx context.Context, n models.Note) error {
	return s.Mutate(ctx, apperr.ActionSave, func(notes []models.Note) ([]models.Note, error) {
		i := models.IndexOf(notes, n.ID)
		if i < 0 {
			return nil, &apperr.Error{Kind: apperr.KindNotFound, Op: "screen.replace", Msg: "note " + n.ID.String()}
		}
		notes[i] = n
		return notes, nil
	})
}

// Remove deletes the note with id.
func (s *Screen) Remove(ctx context.Context, id models.ID) error {
	return s.Mutate(ctx, apperr.ActionDelete, func(notes []models.Note) ([]models.Note, error) {
		i := models.IndexOf(notes, id)
		if i < 0 {
			return nil, &apperr.Error{Kind: apperr.KindNotFound, Op: "screen.remove", Msg: "note " + id.String()}
		}
		return append(notes[:i], notes[i+1:]...), nil
	})
}

// View returns the working collection narrowed and ordered by f.
func (s *Screen) View(f Filter) []models.Note {
	return f.Apply(s.Notes())
}
