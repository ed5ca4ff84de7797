package console_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bwyatt92/muninn/internal/driver/console"
	"github.com/bwyatt92/muninn/internal/status"
)

func TestDeviceWakeThenCapture(t *testing.T) {
	t.Parallel()

	d := console.NewDevice(strings.NewReader("hey muninn\nwhat time is it\n"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := d.WaitForWake(ctx); err != nil {
		t.Fatalf("WaitForWake: %v", err)
	}
	got, err := d.Capture(ctx)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if got != "what time is it" {
		t.Errorf("fragment = %q", got)
	}
}

func TestDeviceCaptureTimesOut(t *testing.T) {
	t.Parallel()

	d := console.NewDevice(strings.NewReader(""))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Capture(ctx)
	if err == nil {
		t.Fatal("expected an error on exhausted input")
	}
	if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, io.EOF) {
		t.Errorf("err = %v", err)
	}
}

func TestSpeakerWritesPrefixedLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := console.NewSpeaker(&buf)
	if err := s.Speak(context.Background(), "Hello!"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if got, want := buf.String(), "muninn> Hello!\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRecorderCreatesFile(t *testing.T) {
	t.Parallel()

	r := console.NewRecorder(t.TempDir())
	path, err := r.Record(context.Background())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("recording file missing: %v", err)
	}
}

func TestStatusDriverLogsWithoutError(t *testing.T) {
	t.Parallel()

	d := console.StatusDriver(nil)
	if err := d.Frame(status.Processing, 0); err != nil {
		t.Errorf("Frame: %v", err)
	}
	if err := d.Frame(status.Processing, 3); err != nil {
		t.Errorf("Frame: %v", err)
	}
}
