package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/nuage/internal/models"
)

// Player plays audio from a URL.
type Player interface {
	Play(ctx context.Context, url string) error
	Stop(ctx context.Context) error
}

// Playback tracks which note is playing so only one plays at a time.
type Playback struct {
	player Player
	logger *slog.Logger

	mu      sync.Mutex
	playing models.ID
	active  bool
}

// NewPlayback returns an idle Playback on player.
func NewPlayback(player Player, logger *slog.Logger) *Playback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Playback{player: player, logger: logger}
}

// Playing returns the note being played.
func (p *Playback) Playing() (models.ID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing, p.active
}

// Toggle plays note n. Pressing play on the note that is already playing stops it.
func (p *Playback) Toggle(ctx context.Context, n models.Note) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active {
		same := p.playing == n.ID
		if err := p.stopLocked(ctx); err != nil {
			return false, err
		}
		if same {
			return false, nil
		}
	}
	if n.Type != models.TypeAudio || n.URL == "" {
		return false, fmt.Errorf("capture: note %s has no audio", n.ID)
	}
	if err := p.player.Play(ctx, n.URL); err != nil {
		return false, fmt.Errorf("capture: play: %w", err)
	}
	p.playing, p.active = n.ID, true
	return true, nil
}

// Stop stops playback if any.
func (p *Playback) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return nil
	}
	return p.stopLocked(ctx)
}

func (p *Playback) stopLocked(ctx context.Context) error {
	if err := p.player.Stop(ctx); err != nil {
		return fmt.Errorf("capture: stop playback: %w", err)
	}
	p.playing, p.active = 0, false
	return nil
}

// OnSaved stops playback when the playing note is no longer in the saved
// collection. Register it with notestore.Store.OnSaved.
func (p *Playback) OnSaved(ctx context.Context, notes []models.Note) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active || models.IndexOf(notes, p.playing) >= 0 {
		return
	}
	if err := p.stopLocked(ctx); err != nil {
		p.logger.Warn("stop playback of deleted note failed", slog.String("error", err.Error()))
	}
}
