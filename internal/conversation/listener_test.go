package conversation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwyatt92/muninn/internal/conversation"
	"github.com/bwyatt92/muninn/internal/conversation/mock"
	"github.com/bwyatt92/muninn/internal/intent"
	"github.com/bwyatt92/muninn/internal/lexicon"
	"github.com/bwyatt92/muninn/internal/transcript"
)

const listenTimeout = 100 * time.Millisecond

func newListener(capturer conversation.Capturer, maxTranscript int) *conversation.Listener {
	lex := lexicon.Default()
	return conversation.NewListener(
		capturer,
		transcript.NewNormalizer(lex),
		intent.NewResolver(lex),
		0.7,
		maxTranscript,
		nil,
	)
}

func TestListener_AccumulatesFragmentsUntilConfident(t *testing.T) {
	t.Parallel()

	mc := mock.NewCapturer("play the", "last recorded memory")
	l := newListener(mc, 80)

	res, raw, err := l.Listen(context.Background(), listenTimeout)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if res.Intent != intent.PlayLastRecording {
		t.Errorf("intent = %v, want PlayLastRecording", res.Intent)
	}
	if raw != "play the last recorded memory" {
		t.Errorf("transcript = %q", raw)
	}
}

func TestListener_SilenceReturnsTimeout(t *testing.T) {
	t.Parallel()

	l := newListener(mock.NewCapturer(), 80)

	_, _, err := l.Listen(context.Background(), listenTimeout)
	if !errors.Is(err, conversation.ErrListenTimeout) {
		t.Fatalf("err = %v, want ErrListenTimeout", err)
	}
}

func TestListener_GibberishReturnsUnresolved(t *testing.T) {
	t.Parallel()

	mc := mock.NewCapturer("colorless green ideas")
	l := newListener(mc, 80)

	res, raw, err := l.Listen(context.Background(), listenTimeout)
	if err != nil {
		t.Fatalf("heard speech should not be a timeout: %v", err)
	}
	if res.Understood {
		t.Errorf("gibberish resolved to %v", res.Intent)
	}
	if raw == "" {
		t.Error("transcript should carry the heard text")
	}
}

func TestListener_OverlongTranscriptResets(t *testing.T) {
	t.Parallel()

	mc := mock.NewCapturer("alpha beta gamma delta", "what time is it")
	l := newListener(mc, 24)

	res, raw, err := l.Listen(context.Background(), listenTimeout)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if res.Intent != intent.GetTime {
		t.Errorf("intent = %v, want GetTime", res.Intent)
	}
	if raw != "what time is it" {
		t.Errorf("transcript = %q, want reset to latest fragment", raw)
	}
}

func TestListener_ParentCancellation(t *testing.T) {
	t.Parallel()

	l := newListener(mock.NewCapturer(), 80)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := l.Listen(ctx, time.Hour)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
