package skill

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwyatt92/muninn/internal/resilience"
)

// weatherFallback is spoken when the forecast service is unreachable.
const weatherFallback = "I can't reach the weather service right now."

// Weather reports current conditions through a wttr.in-compatible endpoint.
type Weather struct {
	baseURL  string
	location string
	client   *http.Client
	breaker  *resilience.Breaker
	log      *slog.Logger
}

// WeatherOption configures a [Weather] skill.
type WeatherOption func(*Weather)

// WithWeatherLocation pins the reported location instead of the service's
// IP-based guess.
func WithWeatherLocation(loc string) WeatherOption {
	return func(w *Weather) { w.location = loc }
}

// WithWeatherTimeout bounds each forecast request.
func WithWeatherTimeout(d time.Duration) WeatherOption {
	return func(w *Weather) { w.client.Timeout = d }
}

// WithWeatherLogger sets the logger.
func WithWeatherLogger(log *slog.Logger) WeatherOption {
	return func(w *Weather) { w.log = log }
}

// NewWeather creates the weather skill. An empty baseURL defaults to the
// public wttr.in instance.
func NewWeather(baseURL string, opts ...WeatherOption) *Weather {
	if baseURL == "" {
		baseURL = "https://wttr.in"
	}
	w := &Weather{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
		breaker: resilience.NewBreaker("weather",
			resilience.WithTripAfter(3),
			resilience.WithCooldown(time.Minute),
		),
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Current returns a one-line spoken forecast, e.g. "Partly cloudy and 72
// degrees Fahrenheit." A service failure returns the offline fallback text
// and no error; only a cancelled context is surfaced.
func (w *Weather) Current(ctx context.Context) (string, error) {
	var conditions string
	err := w.breaker.Do(func() error {
		var ferr error
		conditions, ferr = w.fetch(ctx)
		return ferr
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		w.log.Warn("weather request failed", "error", err)
		return weatherFallback, nil
	}
	return conditions, nil
}

func (w *Weather) fetch(ctx context.Context) (string, error) {
	u := fmt.Sprintf("%s/%s?format=%s", w.baseURL, url.PathEscape(w.location), url.QueryEscape("%C+%t"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "curl/8") // wttr.in serves HTML to browsers

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}

	return speakableConditions(string(body)), nil
}

// speakableConditions turns wttr.in's "%C +72°F" format into a sentence.
func speakableConditions(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return weatherFallback
	}
	s = strings.ReplaceAll(s, "°F", " degrees Fahrenheit")
	s = strings.ReplaceAll(s, "°C", " degrees Celsius")
	s = strings.ReplaceAll(s, "+", "")
	return "It's currently " + s + "."
}
