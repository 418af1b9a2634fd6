package plan

import (
	"sync"
	"time"
)

// Snapshot is what the presentation layer renders: the current plan with its report.
type Snapshot struct {
	Plan    Plan   `json:"plan"`
	Report  Report `json:"report"`
	Quote   string `json:"quote"`
	Unsaved bool   `json:"unsaved"`
}

// Session owns the plan of one logged in user, from login until logout.
// Edits only live in the session until it is saved.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	mu       sync.Mutex
	plan     Plan
	quote    string
	unsaved  bool
	lastSeen time.Time
	quotes   *QuoteSelector
}

func newSession(id, userID string, p Plan, quotes *QuoteSelector, now time.Time) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		plan:      p,
		quote:     quotes.Pick(),
		lastSeen:  now,
		quotes:    quotes,
	}
}

// State returns a copy of the current plan.
func (s *Session) State() Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan.Clone()
}

// Report recomputes the metrics of the current plan.
func (s *Session) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Compute(s.plan)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Plan:    s.plan.Clone(),
		Report:  Compute(s.plan),
		Quote:   s.quote,
		Unsaved: s.unsaved,
	}
}

// Apply runs fn on a copy of the plan and keeps the result only if fn succeeds,
// so a rejected edit never leaves a partial change behind.
// A new quote is picked when the subjects or the schedule changed.
func (s *Session) Apply(fn func(p *Plan) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.plan.Clone()
	if err := fn(&next); err != nil {
		return s.snapshot(), err
	}
	if !workEqual(s.plan, next) {
		s.quote = s.quotes.Pick()
	}
	s.plan = next
	s.unsaved = true
	return s.snapshot(), nil
}

// RefreshQuote displays a new random quote.
func (s *Session) RefreshQuote() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quote = s.quotes.Pick()
	return s.quote
}

func (s *Session) Quote() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quote
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// markSaved marks the session clean if the plan did not change since p was taken.
func (s *Session) markSaved(p Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if plansEqual(s.plan, p) {
		s.unsaved = false
	}
}

func plansEqual(a, b Plan) bool {
	return a.StudentName == b.StudentName && workEqual(a, b)
}

// workEqual compares what the report is computed from.
func workEqual(a, b Plan) bool {
	if !a.Schedule.Equal(b.Schedule) || len(a.Subjects) != len(b.Subjects) {
		return false
	}
	for i := range a.Subjects {
		if a.Subjects[i] != b.Subjects[i] {
			return false
		}
	}
	return true
}
