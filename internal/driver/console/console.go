// Package console provides terminal-backed driver implementations. They are
// the reference drivers for development machines without a microphone array:
// typed lines stand in for recognized speech and replies are printed instead
// of synthesized.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bwyatt92/muninn/internal/conversation"
	"github.com/bwyatt92/muninn/internal/status"
)

// Device reads lines from a terminal and serves them to both the wake
// detector and the capturer. Any typed line counts as the wake phrase;
// subsequent lines are command fragments.
type Device struct {
	lines chan string
	once  sync.Once
}

var (
	_ conversation.WakeDetector = (*Device)(nil)
	_ conversation.Capturer     = (*Device)(nil)
)

// NewDevice starts reading r line by line. Pass os.Stdin for interactive use.
func NewDevice(r io.Reader) *Device {
	d := &Device{lines: make(chan string)}
	go d.scan(r)
	return d
}

func (d *Device) scan(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		d.lines <- sc.Text()
	}
	d.once.Do(func() { close(d.lines) })
}

// WaitForWake blocks until a line is typed or ctx expires.
func (d *Device) WaitForWake(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-d.lines:
		if !ok {
			return io.EOF
		}
		return nil
	}
}

// Capture returns the next typed line as a speech fragment.
func (d *Device) Capture(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-d.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

// Speaker prints replies to w, one per line.
type Speaker struct {
	mu sync.Mutex
	w  io.Writer
}

var _ conversation.Speaker = (*Speaker)(nil)

// NewSpeaker returns a Speaker writing to w. Pass os.Stdout for interactive
// use.
func NewSpeaker(w io.Writer) *Speaker {
	return &Speaker{w: w}
}

func (s *Speaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "muninn> %s\n", text)
	return err
}

// Player announces playback instead of decoding audio. Real deployments
// replace it with an audio-output driver.
type Player struct {
	log *slog.Logger
}

// NewPlayer returns a Player that logs each played path.
func NewPlayer(log *slog.Logger) *Player {
	if log == nil {
		log = slog.Default()
	}
	return &Player{log: log}
}

func (p *Player) Play(_ context.Context, path string) error {
	p.log.Info("playing recording", "path", path)
	return nil
}

// Recorder creates empty placeholder files under dir so the save and
// playback paths can be exercised without a microphone.
type Recorder struct {
	dir string
}

// NewRecorder returns a Recorder storing placeholder files under dir.
func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir}
}

func (r *Recorder) Record(_ context.Context) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("console: create recordings dir: %w", err)
	}
	path := filepath.Join(r.dir, fmt.Sprintf("recording-%d.wav", time.Now().UnixNano()))
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return "", fmt.Errorf("console: write recording: %w", err)
	}
	return path, nil
}

// StatusDriver logs state transitions at debug level. It ignores animation
// frames beyond the first so steady states do not flood the log.
func StatusDriver(log *slog.Logger) status.Driver {
	if log == nil {
		log = slog.Default()
	}
	return status.DriverFunc(func(s status.State, frame int) error {
		if frame == 0 {
			log.Debug("status changed", "state", s.String())
		}
		return nil
	})
}
