package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwyatt92/muninn/internal/conversation"
	"github.com/bwyatt92/muninn/internal/intent"
	"github.com/bwyatt92/muninn/internal/skill"
)

// Player renders recorded audio files through the output device.
type Player interface {
	// Play blocks until the file at path has finished playing or ctx is
	// cancelled.
	Play(ctx context.Context, path string) error
}

// Recorder captures a new recording from the microphone.
type Recorder interface {
	// Record blocks until the user finishes speaking and returns the stored
	// file path.
	Record(ctx context.Context) (string, error)
}

// WeatherService reports current conditions.
type WeatherService interface {
	Current(ctx context.Context) (string, error)
}

// JokeService tells jokes.
type JokeService interface {
	Joke(ctx context.Context) (string, error)
	DadJoke(ctx context.Context) (string, error)
}

// Processor maps resolved intents to handlers. It implements
// [conversation.Dispatcher].
type Processor struct {
	store    Store
	player   Player
	recorder Recorder
	weather  WeatherService
	jokes    JokeService
	now      func() time.Time
	log      *slog.Logger
}

var _ conversation.Dispatcher = (*Processor)(nil)

// ProcessorOption configures a [Processor].
type ProcessorOption func(*Processor)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

// WithProcessorLogger sets the logger.
func WithProcessorLogger(log *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.log = log }
}

// NewProcessor wires the command handlers over their collaborators.
func NewProcessor(store Store, player Player, recorder Recorder, weather WeatherService, jokes JokeService, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:    store,
		player:   player,
		recorder: recorder,
		weather:  weather,
		jokes:    jokes,
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Dispatch runs the handler for res.Intent. Handler errors are returned to
// the orchestrator, which apologizes and keeps the session alive.
func (p *Processor) Dispatch(ctx context.Context, res intent.Result) (conversation.Outcome, error) {
	switch res.Intent {
	case intent.GetTime:
		return speak(skill.CurrentTime(p.now())), nil

	case intent.GetWeather:
		text, err := p.weather.Current(ctx)
		if err != nil {
			return conversation.Outcome{}, err
		}
		return speak(text), nil

	case intent.TellJoke:
		text, err := p.jokes.Joke(ctx)
		if err != nil {
			return conversation.Outcome{}, err
		}
		return speak(text), nil

	case intent.TellDadJoke:
		text, err := p.jokes.DadJoke(ctx)
		if err != nil {
			return conversation.Outcome{}, err
		}
		return speak(text), nil

	case intent.PlayAllMessages:
		return p.playAllMessages(ctx)

	case intent.GetMessage:
		return p.playPersonMessages(ctx, res.Slots[intent.SlotPerson])

	case intent.GetMemory:
		return p.playStory(ctx, res.Slots)

	case intent.PlayLastRecording:
		return p.playLastRecording(ctx)

	case intent.ListMessages:
		return speak(p.describeMessages()), nil

	case intent.ListStories:
		return speak(p.describeStories()), nil

	case intent.CreateMemory, intent.RecordStory, intent.RecordForPerson:
		return p.recordNew(ctx, res.Slots[intent.SlotPerson])

	case intent.Stop:
		return conversation.Outcome{Reply: "Goodbye!"}, nil

	case intent.Timeout:
		return conversation.Outcome{Reply: "I did not hear a command. Returning to sleep mode."}, nil

	default:
		return conversation.Outcome{}, fmt.Errorf("command: no handler for intent %q", res.Intent)
	}
}

// speak wraps a reply into a continuation-requesting outcome.
func speak(text string) conversation.Outcome {
	return conversation.Outcome{Reply: text, Continue: true}
}

func (p *Processor) playAllMessages(ctx context.Context) (conversation.Outcome, error) {
	msgs := p.store.BirthdayMessages()
	if len(msgs) == 0 {
		return speak("There are no birthday messages yet."), nil
	}
	for _, m := range msgs {
		if err := p.player.Play(ctx, m.Path); err != nil {
			return conversation.Outcome{}, fmt.Errorf("command: play %s: %w", m.ID, err)
		}
	}
	return speak(fmt.Sprintf("That was all %d birthday messages.", len(msgs))), nil
}

func (p *Processor) playPersonMessages(ctx context.Context, person string) (conversation.Outcome, error) {
	if person == "" {
		return speak("Whose messages would you like to hear?"), nil
	}
	msgs := p.store.MessagesFor(person)
	if len(msgs) == 0 {
		return speak(fmt.Sprintf("I don't have any messages from %s yet.", person)), nil
	}
	for _, m := range msgs {
		if err := p.player.Play(ctx, m.Path); err != nil {
			return conversation.Outcome{}, fmt.Errorf("command: play %s: %w", m.ID, err)
		}
	}
	return speak("Would you like to hear anything else?"), nil
}

func (p *Processor) playStory(ctx context.Context, slots map[string]string) (conversation.Outcome, error) {
	story, ok := p.store.RandomStory(slots[intent.SlotPerson], slots[intent.SlotLength], slots[intent.SlotStory])
	if !ok {
		return speak("I couldn't find a story like that."), nil
	}
	if err := p.player.Play(ctx, story.Path); err != nil {
		return conversation.Outcome{}, fmt.Errorf("command: play story %s: %w", story.ID, err)
	}
	return speak("Would you like to hear another one?"), nil
}

func (p *Processor) playLastRecording(ctx context.Context) (conversation.Outcome, error) {
	rec, ok := p.store.LastRecording()
	if !ok {
		return speak("Nothing has been recorded yet."), nil
	}
	if err := p.player.Play(ctx, rec.Path); err != nil {
		return conversation.Outcome{}, fmt.Errorf("command: play last recording: %w", err)
	}
	return speak("Would you like to hear anything else?"), nil
}

func (p *Processor) describeMessages() string {
	counts := p.store.MessageCounts()
	if len(counts) == 0 {
		return "There are no messages yet."
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return fmt.Sprintf("There are %d messages from %d people.", total, len(counts))
}

func (p *Processor) describeStories() string {
	total, people := p.store.StoryCount()
	if total == 0 {
		return "There are no stories yet."
	}
	return fmt.Sprintf("There are %d stories from %s.", total, joinNames(people))
}

// recordNew captures a recording and archives it. Recording intents are
// terminal, so the outcome never requests continuation.
func (p *Processor) recordNew(ctx context.Context, person string) (conversation.Outcome, error) {
	path, err := p.recorder.Record(ctx)
	if err != nil {
		return conversation.Outcome{}, fmt.Errorf("command: record: %w", err)
	}
	rec := Recording{Path: path, Person: person, Recorded: p.now()}
	if err := p.store.SaveRecording(rec); err != nil {
		return conversation.Outcome{}, fmt.Errorf("command: save recording: %w", err)
	}
	p.log.Info("recording archived", "path", path, "person", person)
	return conversation.Outcome{Reply: "Got it, your recording is saved."}, nil
}

// joinNames renders a spoken-friendly name list: "ana", "ana and beau",
// "ana, beau, and cass".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "no one"
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}
