package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle status of a session as stored by the service.
type Status string

const (
	StatusSetup     Status = "setup"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	// StatusAbandoned marks a session the player walked away from.
	// Kept distinct from StatusCompleted so history can tell a finished
	// game from a reclaimed one.
	StatusAbandoned Status = "abandoned"
)

// GameConfig is the player-chosen shape of a new game.
type GameConfig struct {
	TotalRounds       int
	QuestionsPerRound int
	Categories        []string
}

// Session represents one playthrough. The service's copy is authoritative;
// any client-held copy is a cache refreshed on server responses.
type Session struct {
	SessionID         string
	UserID            string
	TotalRounds       int
	QuestionsPerRound int
	// CurrentRound is 1-indexed, CurrentQuestionIndex is 0-indexed
	// within the round.
	CurrentRound         int
	CurrentQuestionIndex int
	CurrentQuestionID    string
	Score                int
	Status               Status
	Categories           []string
	StartTime            time.Time
	EndTime              *time.Time
}

// Terminal reports whether the session can accept no further play.
func (s *Session) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusAbandoned
}

// Question is one question shown to the player. Sequence counts from 1
// across the whole session.
type Question struct {
	QuestionID string
	SessionID  string
	Sequence   int
	Category   string
	Text       string
	Options    []Option
	// CorrectAnswer is populated only on the service side and on reveal.
	// Presentations handed out before a submission must not carry it.
	CorrectAnswer string
}

type Option struct {
	Label string
	Text  string
}

// Presentation returns a copy safe to hand to a player: the correct
// answer is stripped.
func (q *Question) Presentation() *Question {
	p := *q
	p.CorrectAnswer = ""
	p.Options = make([]Option, len(q.Options))
	copy(p.Options, q.Options)
	return &p
}

// AnswerSubmission carries one answer from player to service. ElapsedMs is
// measured client-side, from the moment the question became current.
type AnswerSubmission struct {
	SessionID  string
	QuestionID string
	AnswerText string
	ElapsedMs  int64
}

// AnswerResult is the verdict on one submission. RoundComplete and
// GameComplete are flags on the same response, not separate events; on the
// last question of the last round both are true.
type AnswerResult struct {
	IsCorrect     bool
	CorrectAnswer string
	Points        int
	RoundComplete bool
	GameComplete  bool
	NextQuestion  *Question
}

// AnswerRecord is what the service keeps about a graded answer, the raw
// material for summaries.
type AnswerRecord struct {
	SessionID  string
	QuestionID string
	Category   string
	AnswerText string
	IsCorrect  bool
	Points     int
	ElapsedMs  int64
	CreateTime time.Time
}

// GameSummary is the terminal aggregate for a completed session.
type GameSummary struct {
	SessionID  string
	UserID     string
	FinalScore int
	Categories []CategoryBreakdown
}

type CategoryBreakdown struct {
	Category string
	Asked    int
	Correct  int
	Accuracy decimal.Decimal
}

// SessionPatch is the partial update accepted by UpdateSession. Nil fields
// are left untouched.
type SessionPatch struct {
	Status  *Status
	EndTime *time.Time
}
