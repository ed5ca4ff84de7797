// Package command executes resolved intents. The Processor implements the
// conversation dispatcher interface and maps each intent to a handler that
// drives the message store, the audio player, and the skills.
package command

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Message is a recorded greeting addressed to a person.
type Message struct {
	ID       string
	Person   string
	Path     string
	Birthday bool
	Recorded time.Time
}

// Story is a recorded story or memory told by a person.
type Story struct {
	ID       string
	Person   string
	Path     string
	Length   string // short, medium, long
	Kind     string // story, joke, advice, ...
	Recorded time.Time
}

// Recording is the most recent capture, whatever its type.
type Recording struct {
	Path     string
	Person   string
	Recorded time.Time
}

// Store is the persistent message/story archive. Implementations must be
// safe for concurrent use.
type Store interface {
	// MessagesFor returns all messages addressed to person, oldest first.
	MessagesFor(person string) []Message

	// BirthdayMessages returns every birthday message, oldest first.
	BirthdayMessages() []Message

	// MessageCounts returns the number of messages per person.
	MessageCounts() map[string]int

	// RandomStory picks a story matching the non-empty filters. ok is false
	// when nothing matches.
	RandomStory(person, length, kind string) (Story, bool)

	// StoryCount returns the total number of stories and the distinct
	// story-tellers, sorted.
	StoryCount() (int, []string)

	// LastRecording returns the most recent recording, if any.
	LastRecording() (Recording, bool)

	// SaveRecording archives a new recording.
	SaveRecording(rec Recording) error
}

// MemStore is an in-memory [Store]. It backs tests and fresh installations
// that have not recorded anything yet.
type MemStore struct {
	mu       sync.RWMutex
	messages []Message
	stories  []Story
	last     *Recording
	pick     func(n int) int
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty store. pick selects the random story index;
// nil means last-match (deterministic, useful in tests).
func NewMemStore(pick func(n int) int) *MemStore {
	if pick == nil {
		pick = func(n int) int { return n - 1 }
	}
	return &MemStore{pick: pick}
}

// AddMessage appends a message to the archive.
func (s *MemStore) AddMessage(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

// AddStory appends a story to the archive.
func (s *MemStore) AddStory(st Story) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stories = append(s.stories, st)
}

func (s *MemStore) MessagesFor(person string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Message
	for _, m := range s.messages {
		if strings.EqualFold(m.Person, person) {
			out = append(out, m)
		}
	}
	return out
}

func (s *MemStore) BirthdayMessages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Message
	for _, m := range s.messages {
		if m.Birthday {
			out = append(out, m)
		}
	}
	return out
}

func (s *MemStore) MessageCounts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, m := range s.messages {
		counts[m.Person]++
	}
	return counts
}

func (s *MemStore) RandomStory(person, length, kind string) (Story, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []Story
	for _, st := range s.stories {
		if person != "" && !strings.EqualFold(st.Person, person) {
			continue
		}
		if length != "" && st.Length != length {
			continue
		}
		if kind != "" && st.Kind != kind {
			continue
		}
		matches = append(matches, st)
	}
	if len(matches) == 0 {
		return Story{}, false
	}
	return matches[s.pick(len(matches))], true
}

func (s *MemStore) StoryCount() (int, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	people := make(map[string]struct{})
	for _, st := range s.stories {
		people[st.Person] = struct{}{}
	}
	names := make([]string, 0, len(people))
	for p := range people {
		names = append(names, p)
	}
	sort.Strings(names)
	return len(s.stories), names
}

func (s *MemStore) LastRecording() (Recording, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Recording{}, false
	}
	return *s.last, true
}

func (s *MemStore) SaveRecording(rec Recording) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &rec
	return nil
}
