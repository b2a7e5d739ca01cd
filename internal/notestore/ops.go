package notestore

import (
	"context"
	"log/slog"

	"github.com/starford/nuage/internal/apperr"
	"github.com/starford/nuage/internal/models"
)

// Create prepends n so the newest note is listed first.
func (s *Store) Create(ctx context.Context, n models.Note) error {
	_, err := s.Update(ctx, func(notes []models.Note) ([]models.Note, error) {
		if models.IndexOf(notes, n.ID) >= 0 {
			return nil, &apperr.Error{
				Kind: apperr.KindValidation,
				Op:   "notestore.create",
				Msg:  "id: note " + n.ID.String() + " already exists",
				Err:  apperr.ErrAlreadyExists,
			}
		}
		return append([]models.Note{n.Clone()}, notes...), nil
	})
	return err
}

// Get returns the note with id.
func (s *Store) Get(ctx context.Context, id models.ID) (models.Note, error) {
	notes, err := s.LoadAll(ctx)
	if err != nil {
		return models.Note{}, err
	}
	i := models.IndexOf(notes, id)
	if i < 0 {
		return models.Note{}, notFound("notestore.get", id)
	}
	return notes[i], nil
}

// Replace swaps the stored note that has n's id for n, keeping its position.
func (s *Store) Replace(ctx context.Context, n models.Note) error {
	_, err := s.Edit(ctx, n.ID, func(models.Note) (models.Note, error) { return n.Clone(), nil })
	return err
}

// Edit applies fn to the note with id under the writer lock and returns the
// stored result. fn may not change the id.
func (s *Store) Edit(ctx context.Context, id models.ID, fn func(models.Note) (models.Note, error)) (models.Note, error) {
	var edited models.Note
	_, err := s.Update(ctx, func(notes []models.Note) ([]models.Note, error) {
		i := models.IndexOf(notes, id)
		if i < 0 {
			return nil, notFound("notestore.edit", id)
		}
		n, err := fn(notes[i])
		if err != nil {
			return nil, err
		}
		if n.ID != id {
			return nil, apperr.Validation("notestore.edit", "id", "cannot change note id")
		}
		notes[i] = n
		edited = n
		return notes, nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return edited, nil
}

// Delete removes the note with id, keeping the relative order of the rest.
func (s *Store) Delete(ctx context.Context, id models.ID) (models.Note, error) {
	var removed models.Note
	_, err := s.Update(ctx, func(notes []models.Note) ([]models.Note, error) {
		i := models.IndexOf(notes, id)
		if i < 0 {
			return nil, notFound("notestore.delete", id)
		}
		removed = notes[i]
		return append(notes[:i], notes[i+1:]...), nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return removed, nil
}

func notFound(op string, id models.ID) error {
	return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Msg: "note " + id.String()}
}

// Clear removes every note and returns what was removed. The empty
// collection is written like any other update, so saved hooks fire.
func (s *Store) Clear(ctx context.Context) ([]models.Note, error) {
	var removed []models.Note
	_, err := s.Update(ctx, func(notes []models.Note) ([]models.Note, error) {
		removed = notes
		return []models.Note{}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("notes cleared", slog.Int("count", len(removed)))
	return removed, nil
}
