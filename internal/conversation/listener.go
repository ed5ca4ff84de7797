package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwyatt92/muninn/internal/intent"
)

// ErrListenTimeout is returned by [Listener.Listen] when the capture deadline
// expired without any speech at all. A deadline that expires after speech was
// heard returns the last (unresolved) result instead.
var ErrListenTimeout = errors.New("conversation: no speech before deadline")

// Listener accumulates transcript fragments, re-running normalization and
// resolution on each increment until a confident result arrives or the
// deadline expires.
type Listener struct {
	capturer Capturer
	log      *slog.Logger

	// mu guards the retunable fields below; Retune swaps them while a
	// session may be running.
	mu         sync.RWMutex
	normalizer Normalizer
	resolver   Resolver

	// accept is the minimum confidence treated as understood.
	accept float64

	// maxTranscript bounds the working transcript; past it the accumulated
	// text is discarded so stale fragments cannot poison later matches.
	maxTranscript int
}

// NewListener wires a capture loop over the given collaborators.
func NewListener(capturer Capturer, normalizer Normalizer, resolver Resolver, accept float64, maxTranscript int, log *slog.Logger) *Listener {
	if log == nil {
		log = slog.Default()
	}
	return &Listener{
		capturer:      capturer,
		normalizer:    normalizer,
		resolver:      resolver,
		accept:        accept,
		maxTranscript: maxTranscript,
		log:           log,
	}
}

// Retune replaces the normalizer, resolver, and matching bounds. It is safe
// to call while a session is listening; the new values take effect on the
// next Listen call.
func (l *Listener) Retune(normalizer Normalizer, resolver Resolver, accept float64, maxTranscript int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.normalizer = normalizer
	l.resolver = resolver
	l.accept = accept
	l.maxTranscript = maxTranscript
}

// Listen captures speech for at most timeout and returns the first resolution
// whose confidence clears the acceptance threshold. When the deadline expires
// with accumulated speech that never resolved, the last unresolved result is
// returned with a nil error. When no speech arrived at all, the error is
// [ErrListenTimeout]. Any other error comes from the parent context being
// cancelled.
func (l *Listener) Listen(ctx context.Context, timeout time.Duration) (intent.Result, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	l.mu.RLock()
	normalizer, resolver := l.normalizer, l.resolver
	accept, maxTranscript := l.accept, l.maxTranscript
	l.mu.RUnlock()

	var transcript string
	last := intent.Result{Intent: intent.Unknown}

	for {
		fragment, err := l.capturer.Capture(ctx)
		if err != nil {
			if ctx.Err() != nil {
				if transcript == "" {
					return last, "", ErrListenTimeout
				}
				// Heard something, understood nothing.
				return last, transcript, nil
			}
			return last, transcript, err
		}

		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}

		if transcript == "" {
			transcript = fragment
		} else {
			transcript += " " + fragment
		}
		if len(transcript) > maxTranscript {
			l.log.Debug("transcript overrun, resetting", "len", len(transcript))
			transcript = fragment
			if len(transcript) > maxTranscript {
				transcript = ""
				continue
			}
		}

		normalized := normalizer.Normalize(transcript)
		last = resolver.Resolve(normalized)
		l.log.Debug("resolution attempt",
			"transcript", normalized,
			"intent", string(last.Intent),
			"confidence", last.Confidence,
		)
		if last.Understood && last.Confidence > accept {
			return last, transcript, nil
		}
	}
}
