package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/phrazzld/scry-study/internal/events"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

// DueCounter reports due-card counts per deck.
type DueCounter interface {
	ListDueCounts(ctx context.Context, asOf time.Time) ([]store.DeckDueCount, error)
}

// SessionSweeper ends study sessions idle since before cutoff.
type SessionSweeper interface {
	ExpireIdleSessions(ctx context.Context, cutoff time.Time) int
}

// Notifier delivers a reminder for one deck.
type Notifier interface {
	NotifyDue(ctx context.Context, due store.DeckDueCount, asOf time.Time) error
}

// EventNotifier publishes reminders as events.TypeReminderDue events.
type EventNotifier struct {
	emitter events.EventEmitter
}

// NewEventNotifier creates a Notifier backed by emitter.
func NewEventNotifier(emitter events.EventEmitter) *EventNotifier {
	if emitter == nil {
		panic("emitter cannot be nil")
	}
	return &EventNotifier{emitter: emitter}
}

// NotifyDue implements Notifier.
func (n *EventNotifier) NotifyDue(ctx context.Context, due store.DeckDueCount, asOf time.Time) error {
	event, err := events.NewEvent(events.TypeReminderDue, events.ReminderDuePayload{
		UserID:   due.UserID,
		DeckID:   due.DeckID,
		DeckName: due.DeckName,
		Due:      due.Due,
		AsOf:     asOf,
	})
	if err != nil {
		return fmt.Errorf("build reminder event: %w", err)
	}
	return n.emitter.EmitEvent(ctx, event)
}

// Options configures a Scheduler.
type Options struct {
	// Interval between checks. Must be positive.
	Interval time.Duration

	// IdleTimeout expires sessions untouched for this long. Zero disables it.
	IdleTimeout time.Duration

	// Sweeper receives idle-session expiry. Required when IdleTimeout is set.
	Sweeper SessionSweeper

	// Now defaults to time.Now.
	Now func() time.Time
}

// Scheduler periodically checks for due cards.
type Scheduler struct {
	counter  DueCounter
	notifier Notifier
	opts     Options
	cron     *gocron.Scheduler
	logger   *slog.Logger
}

// New creates a Scheduler. It does not start until Start is called. A nil
// notifier skips the due-card check, leaving only idle-session expiry.
func New(counter DueCounter, notifier Notifier, opts Options, log *slog.Logger) (*Scheduler, error) {
	if counter == nil {
		return nil, errors.New("due counter cannot be nil")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("reminder interval must be positive, got %s", opts.Interval)
	}
	if opts.IdleTimeout > 0 && opts.Sweeper == nil {
		return nil, errors.New("sweeper is required when idle timeout is set")
	}
	if notifier == nil && opts.IdleTimeout <= 0 {
		return nil, errors.New("scheduler has nothing to do without a notifier or idle timeout")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}

	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()

	return &Scheduler{
		counter:  counter,
		notifier: notifier,
		opts:     opts,
		cron:     cron,
		logger:   log.With(slog.String("component", "reminder")),
	}, nil
}

// Start schedules the check and runs the scheduler in the background. The
// first check runs immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.Every(s.opts.Interval).Do(func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("reminder check failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminder job: %w", err)
	}

	s.cron.StartAsync()
	s.logger.Info("reminder scheduler started", slog.Duration("interval", s.opts.Interval))
	return nil
}

// Stop halts the scheduler and waits for a running check to return.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("reminder scheduler stopped")
}

// RunOnce performs a single check and returns how many reminders were sent.
// A failing notifier does not stop the remaining decks from being notified;
// the failures are joined into the returned error.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.opts.Now()

	if s.opts.IdleTimeout > 0 {
		if n := s.opts.Sweeper.ExpireIdleSessions(ctx, now.Add(-s.opts.IdleTimeout)); n > 0 {
			log.Info("expired idle sessions", slog.Int("count", n))
		}
	}

	if s.notifier == nil {
		return 0, nil
	}

	counts, err := s.counter.ListDueCounts(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due counts: %w", err)
	}

	sent := 0
	var errs []error
	for _, due := range counts {
		if due.Due <= 0 {
			continue
		}
		if err := s.notifier.NotifyDue(ctx, due, now); err != nil {
			log.Warn("failed to send reminder",
				slog.String("deck_id", due.DeckID.String()),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("deck %s: %w", due.DeckID, err))
			continue
		}
		sent++
	}

	log.Debug("reminder check finished",
		slog.Int("decks", len(counts)),
		slog.Int("sent", sent))
	return sent, errors.Join(errs...)
}
