// Package play holds the client side of a trivia game: a state store with a
// pure transition function, and a controller that sequences the session
// lifecycle against the question/session service. The service's responses
// are authoritative; the controller never advances counters on its own.
package play

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/minhvn/triviad/internal/domain"
	"github.com/minhvn/triviad/internal/errors"
)

// DefaultAdvanceDelay is how long a revealed result stays on screen before
// the next question replaces it.
const DefaultAdvanceDelay = 2 * time.Second

// Service is the question/session service boundary the controller consumes.
// *game.Service satisfies it directly; internal/client provides an HTTP
// implementation.
type Service interface {
	CreateSession(ctx context.Context, userID string, cfg domain.GameConfig) (*domain.Session, error)
	StartSession(ctx context.Context, sessionID string) (*domain.Session, *domain.Question, error)
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	SubmitAnswer(ctx context.Context, sub domain.AnswerSubmission) (*domain.AnswerResult, error)
	PauseSession(ctx context.Context, sessionID string) error
	ResumeSession(ctx context.Context, sessionID string) (*domain.Question, error)
	CompleteSession(ctx context.Context, sessionID string) (*domain.GameSummary, error)
	GetSummary(ctx context.Context, sessionID string) (*domain.GameSummary, error)
	UpdateSession(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.Session, error)
	ListSessions(ctx context.Context, userID string) ([]domain.Session, error)
}

// Identity supplies the opaque authenticated-user identifier. The
// controller never manages credentials itself.
type Identity interface {
	CurrentUserID(ctx context.Context) (string, error)
}

type Config struct {
	Service  Service
	Identity Identity
	// Store defaults to a fresh one.
	Store *Store
	// AdvanceDelay defaults to DefaultAdvanceDelay.
	AdvanceDelay time.Duration
	// Now and Schedule are injectable for tests; they default to
	// time.Now and time.AfterFunc.
	Now      func() time.Time
	Schedule func(d time.Duration, fn func()) (cancel func() bool)
}

// Controller sequences the game lifecycle: idle, setup, playing, paused,
// completed. Intents are processed one at a time.
type Controller struct {
	svc      Service
	identity Identity
	store    *Store
	delay    time.Duration
	now      func() time.Time
	schedule func(d time.Duration, fn func()) (cancel func() bool)

	mu sync.Mutex
	// questionShownAt anchors the client-side elapsed clock. It resets
	// when a question appears and again on resume.
	questionShownAt time.Time
	cancelAdvance   func() bool
}

func NewController(c Config) *Controller {
	ctrl := &Controller{
		svc:      c.Service,
		identity: c.Identity,
		store:    c.Store,
		delay:    c.AdvanceDelay,
		now:      c.Now,
		schedule: c.Schedule,
	}

	if ctrl.store == nil {
		ctrl.store = NewStore()
	}
	if ctrl.delay == 0 {
		ctrl.delay = DefaultAdvanceDelay
	}
	if ctrl.now == nil {
		ctrl.now = time.Now
	}
	if ctrl.schedule == nil {
		ctrl.schedule = func(d time.Duration, fn func()) func() bool {
			return time.AfterFunc(d, fn).Stop
		}
	}

	return ctrl
}

func (c *Controller) Store() *Store {
	return c.store
}

func (c *Controller) Snapshot() Snapshot {
	return c.store.Snapshot()
}

// fail stores a normalized error message and returns the error. Local
// precondition failures surface exactly like service failures.
func (c *Controller) fail(err error) error {
	c.store.dispatch(evError{msg: errors.Convert(err).Message})
	return err
}

// LoadProfile resolves the current user and stores it on the snapshot.
func (c *Controller) LoadProfile(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	userID, err := c.identity.CurrentUserID(ctx)
	if err != nil {
		return c.fail(err)
	}

	c.store.dispatch(evProfileLoaded{profile: Profile{UserID: userID}})
	return nil
}

// SetCatalog installs the category catalog. It survives Reset.
func (c *Controller) SetCatalog(categories []string) {
	c.store.dispatch(evCatalogLoaded{catalog: categories})
}

// NewGame validates the configuration and creates a session in setup
// status. On any failure the previous state is kept and no partial session
// is retained.
func (c *Controller) NewGame(ctx context.Context, cfg domain.GameConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg.TotalRounds < 1 || cfg.QuestionsPerRound < 1 || len(cfg.Categories) == 0 {
		return c.fail(errors.InvalidArgumentf("a game needs at least 1 round, 1 question per round and 1 category"))
	}

	userID, err := c.identity.CurrentUserID(ctx)
	if err != nil {
		return c.fail(err)
	}

	c.store.dispatch(evLoading{})

	ss, err := c.svc.CreateSession(ctx, userID, cfg)
	if err != nil {
		return c.fail(err)
	}

	c.store.dispatch(evSessionCreated{session: ss})
	return nil
}

// StartGame moves setup to playing. Session and first question arrive
// together and are applied as one snapshot.
func (c *Controller) StartGame(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.store.Snapshot()
	if snap.Session == nil {
		return c.fail(errors.FailedPreconditionf("no session to start"))
	}

	c.store.dispatch(evLoading{})

	ss, q, err := c.svc.StartSession(ctx, snap.Session.SessionID)
	if err != nil {
		return c.fail(err)
	}

	c.store.dispatch(evGameStarted{session: ss, question: q})
	c.questionShownAt = c.now()
	return nil
}

// SubmitAnswer runs the answer pipeline for the question on screen. A
// second submission while one is in flight is a no-op, not queued.
func (c *Controller) SubmitAnswer(ctx context.Context, answerText string) error {
	c.mu.Lock()

	snap := c.store.Snapshot()
	if snap.Answering {
		c.mu.Unlock()
		return nil
	}
	if snap.Status != GamePlaying || snap.Session == nil || snap.Question == nil {
		c.mu.Unlock()
		return c.fail(errors.FailedPreconditionf("no active question to answer"))
	}

	sub := domain.AnswerSubmission{
		SessionID:  snap.Session.SessionID,
		QuestionID: snap.Question.QuestionID,
		AnswerText: answerText,
		ElapsedMs:  c.now().Sub(c.questionShownAt).Milliseconds(),
	}

	c.store.dispatch(evAnswerPending{})
	c.mu.Unlock()

	res, err := c.svc.SubmitAnswer(ctx, sub)
	if err != nil {
		return c.fail(err)
	}

	// Pick up server-computed round/question advancement instead of
	// incrementing counters locally.
	refreshed, err := c.svc.GetSession(ctx, sub.SessionID)
	if err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.dispatch(evResultRevealed{session: refreshed, result: res})

	// Flags are checked in fixed priority: a final round's last question
	// can be round-complete and game-complete at once.
	switch {
	case res.GameComplete:
		c.stopPendingAdvance()
		c.store.dispatch(evCompleted{session: refreshed})
		c.fetchSummary(ctx, refreshed.SessionID)

	case res.NextQuestion != nil:
		c.scheduleAdvance(sub.SessionID, res.NextQuestion)
	}

	return nil
}

// fetchSummary enriches a completed game exactly once. A failure leaves
// the terminal status in place; only the summary is missing.
func (c *Controller) fetchSummary(ctx context.Context, sessionID string) {
	go func() {
		sum, err := c.svc.GetSummary(context.WithoutCancel(ctx), sessionID)
		if err != nil {
			slog.ErrorContext(ctx, "play: summary fetch failed",
				"session", sessionID,
				"error", err,
			)
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		snap := c.store.Snapshot()
		if snap.Session == nil || snap.Session.SessionID != sessionID {
			return
		}

		c.store.dispatch(evSummaryLoaded{summary: sum})
	}()
}

// scheduleAdvance arms the delayed question replacement. Caller holds mu.
func (c *Controller) scheduleAdvance(sessionID string, next *domain.Question) {
	c.stopPendingAdvance()
	c.cancelAdvance = c.schedule(c.delay, func() {
		c.advance(sessionID, next)
	})
}

// advance fires after the post-result delay. The session may have been
// paused, abandoned or replaced since; a stale callback is discarded.
func (c *Controller) advance(sessionID string, next *domain.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.store.Snapshot()
	if snap.Session == nil || snap.Session.SessionID != sessionID || snap.Status != GamePlaying {
		return
	}

	c.store.dispatch(evQuestionAdvanced{question: next})
	c.questionShownAt = c.now()
}

func (c *Controller) stopPendingAdvance() {
	if c.cancelAdvance != nil {
		c.cancelAdvance()
		c.cancelAdvance = nil
	}
}

// Pause suspends play. A selected-but-unsubmitted answer is UI-local state
// and is neither submitted nor discarded here.
func (c *Controller) Pause(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.store.Snapshot()
	if snap.Status != GamePlaying || snap.Session == nil {
		return c.fail(errors.FailedPreconditionf("no game in progress to pause"))
	}

	if err := c.svc.PauseSession(ctx, snap.Session.SessionID); err != nil {
		return c.fail(err)
	}

	c.store.dispatch(evPaused{})
	return nil
}

// Resume re-fetches the current question from the service; the server is
// the source of truth across process restarts. The elapsed clock restarts
// now, not at pause time.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.store.Snapshot()
	if snap.Status != GamePaused || snap.Session == nil {
		return c.fail(errors.FailedPreconditionf("no paused game to resume"))
	}

	return c.resumeLocked(ctx, snap.Session.SessionID)
}

func (c *Controller) resumeLocked(ctx context.Context, sessionID string) error {
	q, err := c.svc.ResumeSession(ctx, sessionID)
	if err != nil {
		return c.fail(err)
	}

	c.store.dispatch(evResumed{question: q})
	c.questionShownAt = c.now()
	return nil
}

// ResumePausedGame loads a session by id, adopts it as current and resumes
// it. Usable after a full process restart where no in-memory session
// existed.
func (c *Controller) ResumePausedGame(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ss, err := c.svc.GetSession(ctx, sessionID)
	if err != nil {
		return c.fail(err)
	}
	if ss.Status != domain.StatusPaused {
		return c.fail(errors.FailedPreconditionf("session %s is %s, not paused", sessionID, ss.Status))
	}

	c.store.dispatch(evSessionAdopted{session: ss})
	return c.resumeLocked(ctx, sessionID)
}

// Abandon reclaims the current session without treating it as a played-out
// game, then returns the controller to idle. This path is deliberately
// distinct from normal completion.
func (c *Controller) Abandon(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.store.Snapshot()
	if snap.Session == nil {
		return c.fail(errors.FailedPreconditionf("no session to abandon"))
	}

	now := c.now()
	status := domain.StatusAbandoned
	_, err := c.svc.UpdateSession(ctx, snap.Session.SessionID, domain.SessionPatch{
		Status:  &status,
		EndTime: &now,
	})
	if err != nil {
		return c.fail(err)
	}

	c.stopPendingAdvance()
	c.store.dispatch(evReset{})
	return nil
}

// LoadHistory refreshes the player's session history.
func (c *Controller) LoadHistory(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	userID, err := c.identity.CurrentUserID(ctx)
	if err != nil {
		return c.fail(err)
	}

	history, err := c.svc.ListSessions(ctx, userID)
	if err != nil {
		return c.fail(err)
	}

	c.store.dispatch(evHistoryLoaded{history: history})
	return nil
}

// Reset clears session-scoped state while keeping profile, catalog and
// history.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopPendingAdvance()
	c.store.dispatch(evReset{})
}
