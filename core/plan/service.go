package plan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core"
)

var (
	// errors
	ErrPlanNotFound    = errors.New("study plan not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSaveFailed      = errors.New("failed to save progress")
)

type (
	// Repository stores whole plans keyed by user ID. Saves overwrite: the last writer wins.
	Repository interface {
		// GetPlan returns ErrPlanNotFound if the user never saved a plan.
		GetPlan(ctx context.Context, userID string) (Plan, error)
		SavePlan(ctx context.Context, userID string, p Plan) error
	}

	Service struct {
		repo        Repository
		logger      core.Logger
		quotes      *QuoteSelector
		idleTimeout time.Duration
		nowFunc     func() time.Time // mockable

		mu       sync.Mutex
		sessions map[string]*Session // {sessionID: *Session}
	}
)

// NewService returns a Service keeping sessions until logout or until they have been idle for idleTimeout
// (0 keeps them until logout).
func NewService(repo Repository, logger core.Logger, quotes *QuoteSelector, idleTimeout time.Duration) *Service {
	if quotes == nil {
		quotes = NewQuoteSelector(nil)
	}
	return &Service{
		repo:        repo,
		logger:      logger,
		quotes:      quotes,
		idleTimeout: idleTimeout,
		nowFunc:     time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Initialize stores the default plan for a newly registered user.
func (svc *Service) Initialize(ctx context.Context, userID string) error {
	return pkgerrors.Wrap(svc.repo.SavePlan(ctx, userID, NewDefault()), "saving default plan")
}

// Load returns the stored plan of the user.
func (svc *Service) Load(ctx context.Context, userID string) (Plan, error) {
	p, err := svc.repo.GetPlan(ctx, userID)
	if err != nil {
		return Plan{}, err
	}
	if p.Subjects == nil {
		p.Subjects = []Subject{}
	}
	return p, nil
}

// Open starts the session of a user who just logged in, with their stored plan.
// A missing plan, or one that cannot be loaded, never blocks the login: the session starts
// from the default plan instead.
func (svc *Service) Open(ctx context.Context, sessionID, userID string) *Session {
	p, err := svc.Load(ctx, userID)
	switch {
	case err == nil:
		if vErr := p.Validate(); vErr != nil {
			svc.logger.Warn(fmt.Sprintf("stored plan of user %s is invalid, starting from default", userID), vErr)
			p = NewDefault()
		}
	case errors.Is(err, ErrPlanNotFound):
		p = NewDefault()
	default:
		svc.logger.Error(fmt.Sprintf("loading plan of user %s: %v", userID, err), err)
		p = NewDefault()
	}

	now := svc.nowFunc()
	sess := newSession(sessionID, userID, p, svc.quotes, now)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.pruneIdle(now)
	svc.sessions[sessionID] = sess
	return sess
}

// Get returns the open session sessionID of the user.
func (svc *Service) Get(sessionID, userID string) (*Session, error) {
	svc.mu.Lock()
	sess, ok := svc.sessions[sessionID]
	svc.mu.Unlock()

	if !ok || sess.UserID != userID {
		return nil, ErrSessionNotFound
	}
	now := svc.nowFunc()
	if svc.idleTimeout > 0 && now.Sub(sess.idleSince()) > svc.idleTimeout {
		svc.Close(sessionID)
		return nil, ErrSessionNotFound
	}
	sess.touch(now)
	return sess, nil
}

// Save writes the session's plan to the repository.
func (svc *Service) Save(ctx context.Context, sess *Session) error {
	p := sess.State()
	if err := svc.repo.SavePlan(ctx, sess.UserID, p); err != nil {
		svc.logger.Error(fmt.Sprintf("saving plan of user %s: %v", sess.UserID, err), err)
		return pkgerrors.Wrap(ErrSaveFailed, err.Error())
	}
	sess.markSaved(p)
	return nil
}

// Close ends the session, dropping unsaved changes.
func (svc *Service) Close(sessionID string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	delete(svc.sessions, sessionID)
}

// CloseUser ends every session of the user.
func (svc *Service) CloseUser(userID string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for id, sess := range svc.sessions {
		if sess.UserID == userID {
			delete(svc.sessions, id)
		}
	}
}

// ActiveSessions counts the open sessions.
func (svc *Service) ActiveSessions() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.sessions)
}

// pruneIdle must be called with svc.mu held.
func (svc *Service) pruneIdle(now time.Time) {
	if svc.idleTimeout <= 0 {
		return
	}
	for id, sess := range svc.sessions {
		if now.Sub(sess.idleSince()) > svc.idleTimeout {
			delete(svc.sessions, id)
		}
	}
}
