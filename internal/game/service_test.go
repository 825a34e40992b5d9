package game_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhvn/triviad/internal/domain"
	"github.com/minhvn/triviad/internal/errors"
	"github.com/minhvn/triviad/internal/event"
	"github.com/minhvn/triviad/internal/game"
)

func TestService_CreateSession(t *testing.T) {
	tests := map[string]struct {
		userID   string
		cfg      domain.GameConfig
		wantCode errors.Code
	}{
		"valid config should create a setup session": {
			userID: "u1",
			cfg:    domain.GameConfig{TotalRounds: 2, QuestionsPerRound: 2, Categories: []string{"science"}},
		},
		"zero rounds should be rejected": {
			userID:   "u1",
			cfg:      domain.GameConfig{TotalRounds: 0, QuestionsPerRound: 2, Categories: []string{"science"}},
			wantCode: errors.CodeInvalidArgument,
		},
		"zero questions per round should be rejected": {
			userID:   "u1",
			cfg:      domain.GameConfig{TotalRounds: 1, QuestionsPerRound: 0, Categories: []string{"science"}},
			wantCode: errors.CodeInvalidArgument,
		},
		"empty category set should be rejected": {
			userID:   "u1",
			cfg:      domain.GameConfig{TotalRounds: 1, QuestionsPerRound: 1},
			wantCode: errors.CodeInvalidArgument,
		},
		"blank category name should be rejected": {
			userID:   "u1",
			cfg:      domain.GameConfig{TotalRounds: 1, QuestionsPerRound: 1, Categories: []string{"  "}},
			wantCode: errors.CodeInvalidArgument,
		},
		"missing user should be rejected": {
			cfg:      domain.GameConfig{TotalRounds: 1, QuestionsPerRound: 1, Categories: []string{"science"}},
			wantCode: errors.CodeUnauthenticated,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := makeService(t)

			ss, err := s.CreateSession(context.Background(), tt.userID, tt.cfg)
			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.Convert(err).Code)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, ss.SessionID)
			assert.Equal(t, domain.StatusSetup, ss.Status)
			assert.Equal(t, 1, ss.CurrentRound)
			assert.Equal(t, 0, ss.CurrentQuestionIndex)
			assert.Zero(t, ss.Score)
		})
	}
}

func TestService_StartSession(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	ss := createSession(t, s, domain.GameConfig{TotalRounds: 2, QuestionsPerRound: 2, Categories: []string{"science"}})

	started, q, err := s.StartSession(context.Background(), ss.SessionID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusActive, started.Status)
	assert.False(t, started.StartTime.IsZero())
	assert.Equal(t, q.QuestionID, started.CurrentQuestionID)
	assert.Equal(t, 1, q.Sequence)
	assert.Equal(t, "science", q.Category)
	assert.Empty(t, q.CorrectAnswer, "presentation must not leak the correct answer")
	assert.NotEmpty(t, q.Options)

	_, _, err = s.StartSession(context.Background(), ss.SessionID)
	assert.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code, "second start should be rejected")

	_, _, err = s.StartSession(context.Background(), "missing")
	assert.Equal(t, errors.CodeNotFound, errors.Convert(err).Code)
}

func TestService_SubmitAnswer_Flow(t *testing.T) {
	t.Parallel()

	eb := event.NewBus()
	var completed []domain.EventGameCompleted
	eb.Subscribe(domain.EventNameGameCompleted, func(_ context.Context, e event.Event) error {
		completed = append(completed, e.(domain.EventGameCompleted))
		return nil
	})

	s := makeService(t, withEventBus(eb))
	ss := createSession(t, s, domain.GameConfig{TotalRounds: 2, QuestionsPerRound: 2, Categories: []string{"science"}})
	_, q, err := s.StartSession(context.Background(), ss.SessionID)
	require.NoError(t, err)

	// Q1: correct, fast. Round not complete, next question provided.
	res := submitCorrect(t, s, ss.SessionID, q, 0)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 150, res.Points, "base plus full speed bonus")
	assert.False(t, res.RoundComplete)
	assert.False(t, res.GameComplete)
	require.NotNil(t, res.NextQuestion)
	assert.Empty(t, res.NextQuestion.CorrectAnswer)
	assert.NotEqual(t, q.QuestionID, res.NextQuestion.QuestionID, "questions must not repeat within a session")

	cur, err := s.GetSession(context.Background(), ss.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 150, cur.Score)
	assert.Equal(t, 1, cur.CurrentRound)
	assert.Equal(t, 1, cur.CurrentQuestionIndex)

	// Q2: round boundary.
	res = submitCorrect(t, s, ss.SessionID, res.NextQuestion, 12_000)
	assert.Equal(t, 100, res.Points, "no bonus past the window")
	assert.True(t, res.RoundComplete)
	assert.False(t, res.GameComplete)
	require.NotNil(t, res.NextQuestion)

	cur, err = s.GetSession(context.Background(), ss.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, cur.CurrentRound)
	assert.Equal(t, 0, cur.CurrentQuestionIndex)

	// Q3 then Q4: the last answer is both round- and game-complete.
	res = submitCorrect(t, s, ss.SessionID, res.NextQuestion, 5_000)
	require.NotNil(t, res.NextQuestion)

	res = submitCorrect(t, s, ss.SessionID, res.NextQuestion, 5_000)
	assert.True(t, res.RoundComplete)
	assert.True(t, res.GameComplete)
	assert.Nil(t, res.NextQuestion)

	cur, err = s.GetSession(context.Background(), ss.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, cur.Status)
	require.NotNil(t, cur.EndTime)

	// Terminal session rejects further submissions.
	_, err = s.SubmitAnswer(context.Background(), domain.AnswerSubmission{
		SessionID:  ss.SessionID,
		QuestionID: "anything",
		AnswerText: "x",
	})
	assert.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)

	eb.Stop()
	require.Len(t, completed, 1, "completion event should fire exactly once")
	assert.Equal(t, ss.SessionID, completed[0].Session.SessionID)
}

func TestService_SubmitAnswer_Preconditions(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	ss := createSession(t, s, domain.GameConfig{TotalRounds: 1, QuestionsPerRound: 2, Categories: []string{"science"}})

	// Not started yet.
	_, err := s.SubmitAnswer(context.Background(), domain.AnswerSubmission{SessionID: ss.SessionID, QuestionID: "q"})
	assert.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)

	_, q, err := s.StartSession(context.Background(), ss.SessionID)
	require.NoError(t, err)

	// Stale question id.
	_, err = s.SubmitAnswer(context.Background(), domain.AnswerSubmission{SessionID: ss.SessionID, QuestionID: "stale"})
	assert.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)

	// An incorrect answer scores zero but still reveals the truth.
	res, err := s.SubmitAnswer(context.Background(), domain.AnswerSubmission{
		SessionID:  ss.SessionID,
		QuestionID: q.QuestionID,
		AnswerText: "definitely wrong",
		ElapsedMs:  100,
	})
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Zero(t, res.Points)
	assert.NotEmpty(t, res.CorrectAnswer)
}

func TestService_PauseResume(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	ss := createSession(t, s, domain.GameConfig{TotalRounds: 1, QuestionsPerRound: 2, Categories: []string{"science"}})
	_, q, err := s.StartSession(context.Background(), ss.SessionID)
	require.NoError(t, err)

	require.NoError(t, s.PauseSession(context.Background(), ss.SessionID))

	paused, err := s.GetSession(context.Background(), ss.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, paused.Status)

	// Pausing a paused session is a precondition failure, not a no-op here;
	// the client decides what to surface.
	err = s.PauseSession(context.Background(), ss.SessionID)
	assert.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)

	got, err := s.ResumeSession(context.Background(), ss.SessionID)
	require.NoError(t, err)
	assert.Equal(t, q.QuestionID, got.QuestionID, "resume must return the same current question")
	assert.Equal(t, q.Sequence, got.Sequence)
	assert.Empty(t, got.CorrectAnswer)

	resumed, err := s.GetSession(context.Background(), ss.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, resumed.Status)
	assert.Equal(t, paused.CurrentRound, resumed.CurrentRound)
	assert.Equal(t, paused.CurrentQuestionIndex, resumed.CurrentQuestionIndex)
}

func TestService_AbandonViaUpdate(t *testing.T) {
	t.Parallel()

	eb := event.NewBus()
	var abandoned int
	eb.Subscribe(domain.EventNameGameAbandoned, func(_ context.Context, _ event.Event) error {
		abandoned++
		return nil
	})

	s := makeService(t, withEventBus(eb))
	ss := createSession(t, s, domain.GameConfig{TotalRounds: 1, QuestionsPerRound: 1, Categories: []string{"science"}})
	_, _, err := s.StartSession(context.Background(), ss.SessionID)
	require.NoError(t, err)
	require.NoError(t, s.PauseSession(context.Background(), ss.SessionID))

	now := time.Now()
	st := domain.StatusAbandoned
	got, err := s.UpdateSession(context.Background(), ss.SessionID, domain.SessionPatch{Status: &st, EndTime: &now})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAbandoned, got.Status)
	require.NotNil(t, got.EndTime)
	assert.True(t, got.Terminal())

	eb.Stop()
	assert.Equal(t, 1, abandoned)
}

func TestService_Summary(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	ss := createSession(t, s, domain.GameConfig{TotalRounds: 1, QuestionsPerRound: 2, Categories: []string{"science", "history"}})
	_, q, err := s.StartSession(context.Background(), ss.SessionID)
	require.NoError(t, err)

	res := submitCorrect(t, s, ss.SessionID, q, 20_000)
	require.NotNil(t, res.NextQuestion)

	// Miss the second one.
	_, err = s.SubmitAnswer(context.Background(), domain.AnswerSubmission{
		SessionID:  ss.SessionID,
		QuestionID: res.NextQuestion.QuestionID,
		AnswerText: "wrong",
	})
	require.NoError(t, err)

	sum, err := s.GetSummary(context.Background(), ss.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 100, sum.FinalScore)
	require.Len(t, sum.Categories, 2)
	assert.Equal(t, "science", sum.Categories[0].Category)
	assert.Equal(t, 1, sum.Categories[0].Correct)
	assert.Equal(t, "1", sum.Categories[0].Accuracy.String())
	assert.Equal(t, "history", sum.Categories[1].Category)
	assert.Equal(t, 0, sum.Categories[1].Correct)
}

func TestService_ListSessions(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	for i := 0; i < 3; i++ {
		createSession(t, s, domain.GameConfig{TotalRounds: 1, QuestionsPerRound: 1, Categories: []string{"science"}})
	}

	got, err := s.ListSessions(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = s.ListSessions(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func makeService(t *testing.T, opts ...option) *game.Service {
	t.Helper()

	store := game.NewMemStore()
	seedQuestions(store)

	c := game.Config{Store: store}
	for _, opt := range opts {
		opt(&c)
	}

	return game.NewService(c)
}

type option func(*game.Config)

func withEventBus(eb *event.Bus) option {
	return func(c *game.Config) {
		c.EventBus = eb
	}
}

func seedQuestions(store *game.MemStore) {
	for _, cat := range []string{"science", "history"} {
		for i := 1; i <= 8; i++ {
			store.AddQuestion(domain.Question{
				QuestionID: fmt.Sprintf("%s-%d", cat, i),
				Category:   cat,
				Text:       fmt.Sprintf("%s question %d", cat, i),
				Options: []domain.Option{
					{Label: "A", Text: "right"},
					{Label: "B", Text: "wrong"},
				},
				CorrectAnswer: "right",
			})
		}
	}
}

func createSession(t *testing.T, s *game.Service, cfg domain.GameConfig) *domain.Session {
	t.Helper()

	ss, err := s.CreateSession(context.Background(), "u1", cfg)
	require.NoError(t, err)
	return ss
}

func submitCorrect(t *testing.T, s *game.Service, sessionID string, q *domain.Question, elapsedMs int64) *domain.AnswerResult {
	t.Helper()

	res, err := s.SubmitAnswer(context.Background(), domain.AnswerSubmission{
		SessionID:  sessionID,
		QuestionID: q.QuestionID,
		AnswerText: "right",
		ElapsedMs:  elapsedMs,
	})
	require.NoError(t, err)
	return res
}
