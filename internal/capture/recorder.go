package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/nuage/internal/models"
	"github.com/starford/nuage/internal/record"
)

var (
	ErrRecording    = errors.New("capture: already recording")
	ErrNotRecording = errors.New("capture: not recording")
)

// Recorder is a microphone. Progress is reported through onProgress while a
// recording runs; StopRecording returns where the audio was stored.
type Recorder interface {
	StartRecording(ctx context.Context, onProgress func(elapsed time.Duration)) error
	StopRecording(ctx context.Context) (url string, err error)
}

// Clip is a finished recording.
type Clip struct {
	URL      string
	Duration string
}

// Session wraps one recorder. It is safe for concurrent use.
type Session struct {
	rec    Recorder
	logger *slog.Logger

	mu        sync.Mutex
	recording bool
	// releasing is set while a start the caller gave up on is still running;
	// the device stays reserved until it has been stopped again.
	releasing bool
	elapsed   time.Duration
}

// NewSession returns an idle session on rec.
func NewSession(rec Recorder, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{rec: rec, logger: logger}
}

// Recording reports whether a recording is running.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording && !s.releasing
}

// Elapsed returns the last reported progress.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Start begins a recording. When ctx ends before the recorder answers, Start
// returns ctx's error and a recorder that comes up late is stopped again.
func (s *Session) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("capture: start recording: %w", err)
	}
	s.mu.Lock()
	if s.recording {
		s.mu.Unlock()
		return ErrRecording
	}
	s.recording = true
	s.elapsed = 0
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- s.rec.StartRecording(ctx, s.progress) }()

	select {
	case err := <-done:
		if err != nil {
			s.idle()
			return fmt.Errorf("capture: start recording: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		s.releasing = true
		s.mu.Unlock()
		go s.release(done)
		return fmt.Errorf("capture: start recording: %w", ctx.Err())
	}
}

// release waits for an abandoned start and stops the recorder if it started.
func (s *Session) release(done <-chan error) {
	if err := <-done; err == nil {
		if _, err := s.rec.StopRecording(context.Background()); err != nil {
			s.logger.Warn("stop abandoned recording failed", slog.String("error", err.Error()))
		} else {
			s.logger.Debug("abandoned recording stopped")
		}
	}
	s.idle()
}

func (s *Session) idle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = false
	s.releasing = false
	s.elapsed = 0
}

func (s *Session) progress(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording && !s.releasing {
		s.elapsed = elapsed
	}
}

// Stop ends the recording and returns the clip. When ctx ends first the clip
// is lost and the session is idle again.
func (s *Session) Stop(ctx context.Context) (Clip, error) {
	s.mu.Lock()
	if !s.recording || s.releasing {
		s.mu.Unlock()
		return Clip{}, ErrNotRecording
	}
	s.mu.Unlock()

	var url string
	err := call(ctx, func() error {
		var err error
		url, err = s.rec.StopRecording(ctx)
		return err
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = false
	if err != nil {
		return Clip{}, fmt.Errorf("capture: stop recording: %w", err)
	}
	return Clip{URL: url, Duration: FormatDuration(s.elapsed)}, nil
}

// Cancel stops a running recording and discards it.
func (s *Session) Cancel() {
	if !s.Recording() {
		return
	}
	if _, err := s.Stop(context.Background()); err != nil {
		s.logger.Warn("cancel recording failed", slog.String("error", err.Error()))
	}
}

// AudioNote builds a note from clip. A clip without a URL yields a text note.
func AudioNote(f *record.Factory, clip Clip, title, content string) (models.Note, error) {
	return f.NewAudio(title, content, clip.URL, clip.Duration)
}

// call runs fn and returns early with ctx's error if ctx ends first. Values
// written by fn must not be read after an early return.
func call(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// FormatDuration renders d as mm:ss. Minutes keep growing past 99.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
