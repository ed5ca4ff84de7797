package conversation

import (
	"context"
	"time"

	"github.com/bwyatt92/muninn/internal/resilience"
)

// FallbackSpeaker renders speech through the first healthy engine in a
// prioritized list. A failing primary trips its breaker and later phrases go
// straight to the stand-in until the breaker's cooldown allows a probe.
type FallbackSpeaker struct {
	chain *resilience.Chain[Speaker]
}

var _ Speaker = (*FallbackSpeaker)(nil)

// NewFallbackSpeaker wraps primary. Add lower-priority engines with
// [FallbackSpeaker.AddFallback].
func NewFallbackSpeaker(name string, primary Speaker) *FallbackSpeaker {
	return &FallbackSpeaker{
		chain: resilience.NewChain(name, primary,
			resilience.WithChainBreaker[Speaker](
				resilience.WithTripAfter(3),
				resilience.WithCooldown(30*time.Second),
			),
		),
	}
}

// AddFallback appends a lower-priority speech engine.
func (f *FallbackSpeaker) AddFallback(name string, s Speaker) {
	f.chain.Extend(name, s)
}

func (f *FallbackSpeaker) Speak(ctx context.Context, text string) error {
	return f.chain.Do(func(s Speaker) error {
		return s.Speak(ctx, text)
	})
}
