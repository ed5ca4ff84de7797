package skill_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwyatt92/muninn/internal/skill"
)

func TestCurrentTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{
			"afternoon",
			time.Date(2021, time.December, 28, 15, 45, 0, 0, time.UTC),
			"It's 3:45 PM on Tuesday, December 28th.",
		},
		{
			"first of month",
			time.Date(2022, time.May, 1, 9, 5, 0, 0, time.UTC),
			"It's 9:05 AM on Sunday, May 1st.",
		},
		{
			"teens keep th",
			time.Date(2022, time.March, 13, 12, 0, 0, 0, time.UTC),
			"It's 12:00 PM on Sunday, March 13th.",
		},
		{
			"twenty-second",
			time.Date(2022, time.June, 22, 0, 30, 0, 0, time.UTC),
			"It's 12:30 AM on Wednesday, June 22nd.",
		},
		{
			"twenty-third",
			time.Date(2022, time.June, 23, 18, 0, 0, 0, time.UTC),
			"It's 6:00 PM on Thursday, June 23rd.",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := skill.CurrentTime(tt.now); got != tt.want {
				t.Errorf("CurrentTime = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWeather_Current(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("format"); !strings.Contains(got, "%C") {
			t.Errorf("format query = %q", got)
		}
		w.Write([]byte("Partly cloudy +72°F"))
	}))
	defer srv.Close()

	w := skill.NewWeather(srv.URL, skill.WithWeatherLocation("Denver"))
	got, err := w.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	want := "It's currently Partly cloudy 72 degrees Fahrenheit."
	if got != want {
		t.Errorf("Current = %q, want %q", got, want)
	}
}

func TestWeather_ServiceDownFallsBack(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w := skill.NewWeather(srv.URL)
	got, err := w.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if !strings.Contains(got, "can't reach") {
		t.Errorf("expected offline fallback, got %q", got)
	}
}

func TestJokes_General(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"setup":"Why did the gopher cross the road?","punchline":"To get to the other routine."}`))
	}))
	defer srv.Close()

	j := skill.NewJokes(srv.URL, "")
	got, err := j.Joke(context.Background())
	if err != nil {
		t.Fatalf("Joke: %v", err)
	}
	want := "Why did the gopher cross the road? ...... To get to the other routine."
	if got != want {
		t.Errorf("Joke = %q, want %q", got, want)
	}
}

func TestJokes_Dad(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		w.Write([]byte(`{"joke":"I only know 25 letters of the alphabet. I don't know y."}`))
	}))
	defer srv.Close()

	j := skill.NewJokes("", srv.URL)
	got, err := j.DadJoke(context.Background())
	if err != nil {
		t.Fatalf("DadJoke: %v", err)
	}
	if !strings.Contains(got, "25 letters") {
		t.Errorf("DadJoke = %q", got)
	}
}

func TestJokes_OfflineFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	j := skill.NewJokes(srv.URL, srv.URL)

	got, err := j.Joke(context.Background())
	if err != nil {
		t.Fatalf("Joke: %v", err)
	}
	if got == "" {
		t.Error("offline joke is empty")
	}

	got, err = j.DadJoke(context.Background())
	if err != nil {
		t.Fatalf("DadJoke: %v", err)
	}
	if got == "" {
		t.Error("offline dad joke is empty")
	}
}
