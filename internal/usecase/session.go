package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tasbih-counter/internal/counter"
	"tasbih-counter/internal/domain"
	"tasbih-counter/internal/metrics"
	"tasbih-counter/internal/ports"
	"tasbih-counter/internal/validate"
)

// DisplayDigits is the width of the odometer-style counter display.
const DisplayDigits = 6

// ErrBusy is returned when a submission is already in flight.
var ErrBusy = errors.New("submission already in progress")

// ReconcileMode decides what happens to the local total after an append.
type ReconcileMode string

const (
	// ReconcileOptimistic adds the count locally and lets a best-effort
	// refresh overwrite the list and total if it succeeds.
	ReconcileOptimistic ReconcileMode = "optimistic"
	// ReconcileRefetch re-fetches the list and only re-derives the total
	// from the server when the new entry is visible there.
	ReconcileRefetch ReconcileMode = "refetch"
)

// Outcome is the result of one Submit call.
type Outcome int

const (
	OutcomeSubmitted Outcome = iota + 1
	OutcomeInvalid
	OutcomeFailed
	OutcomeBusy
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSubmitted:
		return "submitted"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeFailed:
		return "failed"
	case OutcomeBusy:
		return "busy"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// State is a read-only copy of the session for the presentation layer.
type State struct {
	Name    string         `json:"name"`
	Count   string         `json:"count"`
	Counter int            `json:"counter"`
	Display string         `json:"display"`
	Muted   bool           `json:"muted"`
	Total   int            `json:"total"`
	Entries []domain.Entry `json:"-"`
	Busy    bool           `json:"busy"`
	Loading bool           `json:"loading"`
	Notice  *domain.Notice `json:"notice,omitempty"`
}

// FormUpdate carries form values to apply right before a submission. Nil
// fields leave the current value in place.
type FormUpdate struct {
	Name       *string
	Count      *string
	UseCounter bool
}

// SessionOptions tunes a Session. Zero values pick the defaults.
type SessionOptions struct {
	Reconcile ReconcileMode
	Now       func() time.Time
}

// Session owns the application state and implements the submission workflow.
// All mutation goes through its methods.
type Session struct {
	log       *slog.Logger
	store     ports.EntryStore
	counter   *counter.Counter
	reconcile ReconcileMode
	now       func() time.Time

	mu      sync.Mutex
	name    string
	count   string
	total   int
	entries []domain.Entry
	gen     uint64 // bumped on every write to total or entries
	busy    bool
	loading int // fetches in flight
	notice  *domain.Notice
}

func NewSession(log *slog.Logger, store ports.EntryStore, c *counter.Counter, opts SessionOptions) *Session {
	if opts.Reconcile == "" {
		opts.Reconcile = ReconcileOptimistic
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if c == nil {
		c = counter.New(nil)
	}
	return &Session{
		log:       log,
		store:     store,
		counter:   c,
		reconcile: opts.Reconcile,
		now:       opts.Now,
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Name:    s.name,
		Count:   s.count,
		Counter: s.counter.Value(),
		Display: s.counter.Format(DisplayDigits),
		Muted:   s.counter.Muted(),
		Total:   s.total,
		Entries: append([]domain.Entry(nil), s.entries...),
		Busy:    s.busy,
		Loading: s.loading > 0,
	}
	if s.notice != nil {
		n := *s.notice
		n.Messages = append([]string(nil), s.notice.Messages...)
		st.Notice = &n
	}
	return st
}

// RecentEntries returns up to n entries, newest first. n <= 0 means all.
func (s *Session) RecentEntries(n int) []domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]domain.Entry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i])
	}
	return out
}

func (s *Session) SetName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

func (s *Session) SetCount(count string) {
	s.mu.Lock()
	s.count = count
	s.mu.Unlock()
}

// UseCounter copies the counter value into the count field.
func (s *Session) UseCounter() {
	s.SetCount(fmt.Sprint(s.counter.Value()))
}

func (s *Session) Increment() int { return s.counter.Increment() }
func (s *Session) Decrement() bool { return s.counter.Decrement() }
func (s *Session) Reset() bool { return s.counter.Reset() }
func (s *Session) ToggleMute() bool { return s.counter.ToggleMute() }
func (s *Session) HandleKey(k string) bool { return s.counter.HandleKey(k) }

// ListenKeys attaches a key source to the counter until ctx is done.
func (s *Session) ListenKeys(ctx context.Context, keys <-chan string) {
	s.counter.Listen(ctx, keys)
}

func (s *Session) DismissNotice() {
	s.mu.Lock()
	s.notice = nil
	s.mu.Unlock()
}

// Refresh fetches the entry list. On failure the previous list and total are
// kept and the error is only logged and returned. A result that lands after
// the state has changed since the fetch started is dropped.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	gen := s.gen
	s.loading++
	s.mu.Unlock()

	entries, err := s.store.ListEntries(ctx)
	metrics.RecordFetch(err == nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if err != nil {
		s.log.Warn("failed to fetch entries, keeping stale state", slog.String("error", err.Error()))
		return err
	}
	if gen != s.gen {
		s.log.Debug("dropping stale entry list", slog.Int("count", len(entries)))
		return nil
	}
	s.setEntries(entries)
	s.log.Debug("fetched entries", slog.Int("count", len(entries)), slog.Int("total", s.total))
	return nil
}

// setEntries replaces the list and derives the total from it. Callers hold mu.
func (s *Session) setEntries(entries []domain.Entry) {
	s.entries = entries
	s.total = domain.Total(entries)
	s.gen++
	metrics.SetTotal(s.total)
}

// Submit validates the form, appends the entry and updates local state.
func (s *Session) Submit(ctx context.Context) (Outcome, error) {
	return s.SubmitWith(ctx, FormUpdate{})
}

// SubmitWith applies u to the form and submits it. A submission rejected as
// busy leaves the form untouched.
func (s *Session) SubmitWith(ctx context.Context, u FormUpdate) (Outcome, error) {
	outcome, err := s.submit(ctx, u)
	metrics.RecordSubmission(outcome.String())
	return outcome, err
}

func (s *Session) submit(ctx context.Context, u FormUpdate) (Outcome, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return OutcomeBusy, ErrBusy
	}
	if u.Name != nil {
		s.name = *u.Name
	}
	switch {
	case u.UseCounter:
		s.count = fmt.Sprint(s.counter.Value())
	case u.Count != nil:
		s.count = *u.Count
	}
	name := s.name
	n, err := validate.Entry(name, s.count)
	if err != nil {
		s.notice = &domain.Notice{
			Kind:     domain.NoticeValidation,
			Title:    "Oops! Something's missing!",
			Messages: validate.Messages(err),
		}
		s.mu.Unlock()
		return OutcomeInvalid, err
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	entry := domain.Entry{
		Timestamp: s.now().UTC().Truncate(time.Millisecond),
		Name:      name,
		Count:     n,
	}
	start := time.Now()
	err = s.store.AppendEntry(ctx, entry)
	metrics.RecordAppend(time.Since(start))
	if err != nil {
		s.log.Error("failed to append entry", slog.String("name", name), slog.Int("count", n), slog.String("error", err.Error()))
		s.mu.Lock()
		s.notice = &domain.Notice{
			Kind:     domain.NoticeError,
			Title:    "Oops!",
			Messages: []string{"Something went wrong. Please try again."},
		}
		s.mu.Unlock()
		return OutcomeFailed, err
	}

	s.mu.Lock()
	s.total += n
	s.gen++
	gen := s.gen
	s.name = ""
	s.count = ""
	s.notice = &domain.Notice{
		Kind:  domain.NoticeSuccess,
		Title: "Success!",
		Messages: []string{
			"Thank you for participating!",
			fmt.Sprintf("Your count of %d has been recorded.", n),
		},
	}
	metrics.SetTotal(s.total)
	s.mu.Unlock()
	s.counter.Reset()
	s.log.Info("entry submitted", slog.String("name", name), slog.Int("count", n))

	if s.reconcile == ReconcileRefetch {
		s.confirm(ctx, entry, gen)
	} else {
		_ = s.Refresh(ctx)
	}
	return OutcomeSubmitted, nil
}

// confirm re-fetches the list and looks for entry in it. The total is only
// re-derived from the server once the entry is visible; otherwise the local
// total stands and the user is warned. gen is the generation written by the
// submission; a newer one means the result is stale.
func (s *Session) confirm(ctx context.Context, entry domain.Entry, gen uint64) {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()

	entries, err := s.store.ListEntries(ctx)
	metrics.RecordFetch(err == nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if err == nil && gen != s.gen {
		s.log.Debug("dropping stale confirmation list", slog.String("name", entry.Name))
		return
	}
	if err == nil {
		for _, e := range entries {
			if e.Same(entry) {
				s.setEntries(entries)
				return
			}
		}
		// Keep the list current without overwriting the local total.
		s.entries = entries
		s.gen++
	} else {
		s.log.Warn("failed to re-fetch entries after append", slog.String("error", err.Error()))
	}
	s.log.Warn("submitted entry not visible in store", slog.String("name", entry.Name), slog.String("timestamp", entry.FormatTimestamp()))
	s.notice = &domain.Notice{
		Kind:  domain.NoticeWarning,
		Title: "Sent, not yet confirmed",
		Messages: []string{
			fmt.Sprintf("Your count of %d was sent but is not visible in the sheet yet.", entry.Count),
		},
	}
}
