// Package game implements the question/session service: it owns session
// lifecycle, question drawing, grading and scoring. Clients treat its
// responses as authoritative and never advance counters on their own.
package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhvn/triviad/internal/domain"
	"github.com/minhvn/triviad/internal/errors"
	"github.com/minhvn/triviad/internal/event"
)

const (
	basePoints = 100
	maxBonus   = 50
	// bonusWindowMs is the answer time beyond which the speed bonus is zero.
	bonusWindowMs = 10_000
)

type Config struct {
	Store    Store
	EventBus *event.Bus
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	store Store
	eb    *event.Bus
	now   func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		store: c.Store,
		eb:    c.EventBus,
		now:   c.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// CreateSession validates the config and stores a new session in setup
// status. Nothing is persisted when validation fails.
func (s *Service) CreateSession(ctx context.Context, userID string, cfg domain.GameConfig) (*domain.Session, error) {
	if userID == "" {
		return nil, errors.New(errors.CodeUnauthenticated, errors.WithMessagef("missing user"))
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	ss := &domain.Session{
		SessionID:            id.String(),
		UserID:               userID,
		TotalRounds:          cfg.TotalRounds,
		QuestionsPerRound:    cfg.QuestionsPerRound,
		CurrentRound:         1,
		CurrentQuestionIndex: 0,
		Status:               domain.StatusSetup,
		Categories:           append([]string(nil), cfg.Categories...),
	}

	if err := s.store.InsertSession(ctx, ss); err != nil {
		return nil, err
	}

	return ss, nil
}

func validateConfig(cfg domain.GameConfig) error {
	if cfg.TotalRounds < 1 {
		return errors.InvalidArgumentf("total rounds must be at least 1, got %d", cfg.TotalRounds)
	}
	if cfg.QuestionsPerRound < 1 {
		return errors.InvalidArgumentf("questions per round must be at least 1, got %d", cfg.QuestionsPerRound)
	}
	if len(cfg.Categories) == 0 {
		return errors.InvalidArgumentf("at least one category is required")
	}
	for _, c := range cfg.Categories {
		if strings.TrimSpace(c) == "" {
			return errors.InvalidArgumentf("category name must not be empty")
		}
	}

	return nil
}

// StartSession activates a setup session and draws its first question.
// Session and question are returned together so callers can apply them as
// one snapshot.
func (s *Service) StartSession(ctx context.Context, sessionID string) (*domain.Session, *domain.Question, error) {
	ss, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if ss.Status != domain.StatusSetup {
		return nil, nil, errors.FailedPreconditionf("session %s is %s, not in setup", sessionID, ss.Status)
	}

	q, err := s.store.DrawQuestion(ctx, ss.SessionID, categoryFor(ss, 1), 1)
	if err != nil {
		return nil, nil, err
	}

	ss.Status = domain.StatusActive
	ss.StartTime = s.now()
	ss.CurrentQuestionID = q.QuestionID

	if err := s.store.UpdateSession(ctx, ss); err != nil {
		return nil, nil, err
	}

	return ss, q.Presentation(), nil
}

func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.store.GetSession(ctx, sessionID)
}

// SubmitAnswer grades one answer against the session's current question,
// advances the server-side counters, and reports round/game completion.
// GameComplete implies the session is already terminal when the response
// leaves this method.
func (s *Service) SubmitAnswer(ctx context.Context, sub domain.AnswerSubmission) (*domain.AnswerResult, error) {
	ss, err := s.store.GetSession(ctx, sub.SessionID)
	if err != nil {
		return nil, err
	}
	if ss.Status != domain.StatusActive {
		return nil, errors.FailedPreconditionf("session %s is %s, not active", ss.SessionID, ss.Status)
	}
	if sub.QuestionID == "" || sub.QuestionID != ss.CurrentQuestionID {
		return nil, errors.FailedPreconditionf("question %s is not current for session %s", sub.QuestionID, ss.SessionID)
	}

	q, err := s.store.GetQuestion(ctx, sub.QuestionID)
	if err != nil {
		return nil, err
	}

	isCorrect := grade(sub.AnswerText, q.CorrectAnswer)
	points := 0
	if isCorrect {
		points = basePoints + speedBonus(sub.ElapsedMs)
	}

	rec := domain.AnswerRecord{
		SessionID:  ss.SessionID,
		QuestionID: q.QuestionID,
		Category:   q.Category,
		AnswerText: sub.AnswerText,
		IsCorrect:  isCorrect,
		Points:     points,
		ElapsedMs:  sub.ElapsedMs,
		CreateTime: s.now(),
	}
	if err := s.store.RecordAnswer(ctx, rec); err != nil {
		return nil, err
	}

	res := &domain.AnswerResult{
		IsCorrect:     isCorrect,
		CorrectAnswer: q.CorrectAnswer,
		Points:        points,
	}

	ss.Score += points
	answeredSeq := sequenceOf(ss)

	ss.CurrentQuestionIndex++
	if ss.CurrentQuestionIndex >= ss.QuestionsPerRound {
		res.RoundComplete = true
		if ss.CurrentRound >= ss.TotalRounds {
			res.GameComplete = true
		} else {
			ss.CurrentRound++
			ss.CurrentQuestionIndex = 0
		}
	}

	if res.GameComplete {
		now := s.now()
		ss.Status = domain.StatusCompleted
		ss.EndTime = &now
		ss.CurrentQuestionID = ""
		// Keep the counters on the last playable cell; the terminal
		// status is what marks the session finished.
		ss.CurrentQuestionIndex = ss.QuestionsPerRound - 1
	} else {
		next, err := s.store.DrawQuestion(ctx, ss.SessionID, categoryFor(ss, answeredSeq+1), answeredSeq+1)
		if err != nil {
			return nil, err
		}
		ss.CurrentQuestionID = next.QuestionID
		res.NextQuestion = next.Presentation()
	}

	if err := s.store.UpdateSession(ctx, ss); err != nil {
		return nil, err
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventAnswerRecorded{Record: rec})
		if res.GameComplete {
			s.eb.Publish(ctx, domain.EventGameCompleted{Session: *ss})
		}
	}

	return res, nil
}

func grade(given, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(correct))
}

// speedBonus decays linearly from maxBonus at 0ms to zero at the window
// edge.
func speedBonus(elapsedMs int64) int {
	if elapsedMs <= 0 {
		return maxBonus
	}
	if elapsedMs >= bonusWindowMs {
		return 0
	}

	remaining := decimal.NewFromInt(bonusWindowMs - elapsedMs)
	bonus := remaining.
		Div(decimal.NewFromInt(bonusWindowMs)).
		Mul(decimal.NewFromInt(maxBonus))

	return int(bonus.Round(0).IntPart())
}

// sequenceOf is the 1-based position of the session's current question
// across the whole game.
func sequenceOf(ss *domain.Session) int {
	return (ss.CurrentRound-1)*ss.QuestionsPerRound + ss.CurrentQuestionIndex + 1
}

// categoryFor rotates through the session's categories by sequence number.
func categoryFor(ss *domain.Session, sequence int) string {
	return ss.Categories[(sequence-1)%len(ss.Categories)]
}

func (s *Service) PauseSession(ctx context.Context, sessionID string) error {
	ss, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if ss.Status != domain.StatusActive {
		return errors.FailedPreconditionf("session %s is %s, not active", sessionID, ss.Status)
	}

	ss.Status = domain.StatusPaused
	return s.store.UpdateSession(ctx, ss)
}

// ResumeSession reactivates a paused session and returns its current
// question, loaded fresh from the store rather than from any cache.
func (s *Service) ResumeSession(ctx context.Context, sessionID string) (*domain.Question, error) {
	ss, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if ss.Status != domain.StatusPaused {
		return nil, errors.FailedPreconditionf("session %s is %s, not paused", sessionID, ss.Status)
	}

	q, err := s.store.GetQuestion(ctx, ss.CurrentQuestionID)
	if err != nil {
		return nil, err
	}
	q.SessionID = ss.SessionID
	q.Sequence = sequenceOf(ss)

	ss.Status = domain.StatusActive
	if err := s.store.UpdateSession(ctx, ss); err != nil {
		return nil, err
	}

	return q.Presentation(), nil
}

// CompleteSession marks the session completed if it is not already terminal
// and returns its summary.
func (s *Service) CompleteSession(ctx context.Context, sessionID string) (*domain.GameSummary, error) {
	ss, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !ss.Terminal() {
		now := s.now()
		ss.Status = domain.StatusCompleted
		ss.EndTime = &now
		ss.CurrentQuestionID = ""
		if err := s.store.UpdateSession(ctx, ss); err != nil {
			return nil, err
		}

		if s.eb != nil {
			s.eb.Publish(ctx, domain.EventGameCompleted{Session: *ss})
		}
	}

	return s.buildSummary(ctx, ss)
}

func (s *Service) GetSummary(ctx context.Context, sessionID string) (*domain.GameSummary, error) {
	ss, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return s.buildSummary(ctx, ss)
}

func (s *Service) buildSummary(ctx context.Context, ss *domain.Session) (*domain.GameSummary, error) {
	answers, err := s.store.ListAnswers(ctx, ss.SessionID)
	if err != nil {
		return nil, err
	}

	type tally struct {
		asked   int
		correct int
	}

	var order []string
	byCategory := make(map[string]*tally)
	for _, a := range answers {
		t := byCategory[a.Category]
		if t == nil {
			t = &tally{}
			byCategory[a.Category] = t
			order = append(order, a.Category)
		}
		t.asked++
		if a.IsCorrect {
			t.correct++
		}
	}

	sum := &domain.GameSummary{
		SessionID:  ss.SessionID,
		UserID:     ss.UserID,
		FinalScore: ss.Score,
	}
	for _, c := range order {
		t := byCategory[c]
		sum.Categories = append(sum.Categories, domain.CategoryBreakdown{
			Category: c,
			Asked:    t.asked,
			Correct:  t.correct,
			Accuracy: decimal.NewFromInt(int64(t.correct)).
				Div(decimal.NewFromInt(int64(t.asked))).
				Round(2),
		})
	}

	return sum, nil
}

// UpdateSession applies a partial update. It backs the abandon path, which
// marks a session abandoned with an end timestamp without treating it as a
// played-out game.
func (s *Service) UpdateSession(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.Session, error) {
	ss, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	wasTerminal := ss.Terminal()
	if patch.Status != nil {
		ss.Status = *patch.Status
	}
	if patch.EndTime != nil {
		ss.EndTime = patch.EndTime
	}
	if ss.Status == domain.StatusAbandoned {
		ss.CurrentQuestionID = ""
	}

	if err := s.store.UpdateSession(ctx, ss); err != nil {
		return nil, err
	}

	if s.eb != nil && !wasTerminal && ss.Status == domain.StatusAbandoned {
		s.eb.Publish(ctx, domain.EventGameAbandoned{Session: *ss})
	}

	return ss, nil
}

func (s *Service) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	return s.store.ListSessions(ctx, userID)
}
