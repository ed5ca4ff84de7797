package skill

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/bwyatt92/muninn/internal/resilience"
)

// Offline jokes keep the skill responsive when both APIs are down.
var offlineJokes = []string{
	"Why don't scientists trust atoms? ...... Because they make up everything!",
	"What did the ocean say to the beach? ...... Nothing, it just waved.",
	"Why did the scarecrow win an award? ...... He was outstanding in his field.",
}

var offlineDadJokes = []string{
	"I'm afraid for the calendar. ...... Its days are numbered.",
	"What do you call a fish wearing a bowtie? ...... Sofishticated.",
	"I used to hate facial hair. ...... But then it grew on me.",
}

// Jokes fetches jokes from public APIs with canned offline fallbacks. The
// "......" marker is a pause hint for the speech synthesizer between setup
// and punchline.
type Jokes struct {
	generalURL string
	dadURL     string
	client     *http.Client
	log        *slog.Logger
	pick       func(n int) int

	// One breaker per endpoint so a dead dad-joke API does not mute the
	// general one.
	generalBreaker *resilience.Breaker
	dadBreaker     *resilience.Breaker
}

// JokesOption configures a [Jokes] skill.
type JokesOption func(*Jokes)

// WithJokesTimeout bounds each joke request.
func WithJokesTimeout(d time.Duration) JokesOption {
	return func(j *Jokes) { j.client.Timeout = d }
}

// WithJokesLogger sets the logger.
func WithJokesLogger(log *slog.Logger) JokesOption {
	return func(j *Jokes) { j.log = log }
}

// NewJokes creates the joke skill. Empty URLs default to the public
// official-joke-api and icanhazdadjoke instances.
func NewJokes(generalURL, dadURL string, opts ...JokesOption) *Jokes {
	if generalURL == "" {
		generalURL = "https://official-joke-api.appspot.com/random_joke"
	}
	if dadURL == "" {
		dadURL = "https://icanhazdadjoke.com/"
	}
	j := &Jokes{
		generalURL: generalURL,
		dadURL:     dadURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		log:        slog.Default(),
		pick:       rand.Intn,
		generalBreaker: resilience.NewBreaker("jokes",
			resilience.WithTripAfter(3),
			resilience.WithCooldown(time.Minute),
		),
		dadBreaker: resilience.NewBreaker("dad-jokes",
			resilience.WithTripAfter(3),
			resilience.WithCooldown(time.Minute),
		),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Joke returns a random general joke, already formatted for speech.
func (j *Jokes) Joke(ctx context.Context) (string, error) {
	var payload struct {
		Setup     string `json:"setup"`
		Punchline string `json:"punchline"`
	}
	err := j.generalBreaker.Do(func() error {
		return j.fetch(ctx, j.generalURL, &payload)
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		j.log.Warn("joke request failed, using offline joke", "error", err)
		return offlineJokes[j.pick(len(offlineJokes))], nil
	}
	if payload.Setup == "" || payload.Punchline == "" {
		return offlineJokes[j.pick(len(offlineJokes))], nil
	}
	return payload.Setup + " ...... " + payload.Punchline, nil
}

// DadJoke returns a random dad joke.
func (j *Jokes) DadJoke(ctx context.Context) (string, error) {
	var payload struct {
		Joke string `json:"joke"`
	}
	err := j.dadBreaker.Do(func() error {
		return j.fetch(ctx, j.dadURL, &payload)
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		j.log.Warn("dad joke request failed, using offline joke", "error", err)
		return offlineDadJokes[j.pick(len(offlineDadJokes))], nil
	}
	if payload.Joke == "" {
		return offlineDadJokes[j.pick(len(offlineDadJokes))], nil
	}
	return payload.Joke, nil
}

func (j *Jokes) fetch(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.code, http.StatusText(e.code))
}
