package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/minhvn/triviad/internal/domain"
)

// Wire types for the /v1 surface. The question payload deliberately has no
// correct-answer field; the verdict is the only place it appears.
type (
	Session struct {
		SessionID            string     `json:"session_id"`
		UserID               string     `json:"user_id"`
		TotalRounds          int        `json:"total_rounds"`
		QuestionsPerRound    int        `json:"questions_per_round"`
		CurrentRound         int        `json:"current_round"`
		CurrentQuestionIndex int        `json:"current_question_index"`
		Score                int        `json:"score"`
		Status               string     `json:"status"`
		Categories           []string   `json:"categories"`
		StartTime            time.Time  `json:"start_time"`
		EndTime              *time.Time `json:"end_time,omitempty"`
	}

	Question struct {
		QuestionID string           `json:"question_id"`
		SessionID  string           `json:"session_id"`
		Sequence   int              `json:"sequence"`
		Category   string           `json:"category"`
		Text       string           `json:"text"`
		Options    []QuestionOption `json:"options"`
	}

	QuestionOption struct {
		Label string `json:"label"`
		Text  string `json:"text"`
	}

	AnswerResult struct {
		IsCorrect     bool      `json:"is_correct"`
		CorrectAnswer string    `json:"correct_answer"`
		Points        int       `json:"points"`
		RoundComplete bool      `json:"round_complete"`
		GameComplete  bool      `json:"game_complete"`
		NextQuestion  *Question `json:"next_question,omitempty"`
	}

	GameSummary struct {
		SessionID  string              `json:"session_id"`
		UserID     string              `json:"user_id"`
		FinalScore int                 `json:"final_score"`
		Categories []CategoryBreakdown `json:"categories"`
	}

	CategoryBreakdown struct {
		Category string          `json:"category"`
		Asked    int             `json:"asked"`
		Correct  int             `json:"correct"`
		Accuracy decimal.Decimal `json:"accuracy"`
	}

	CreateSessionRequest struct {
		TotalRounds       int      `json:"total_rounds"`
		QuestionsPerRound int      `json:"questions_per_round"`
		Categories        []string `json:"categories"`
	}

	StartSessionResponse struct {
		Session  Session  `json:"session"`
		Question Question `json:"question"`
	}

	SubmitAnswerRequest struct {
		QuestionID string `json:"question_id"`
		AnswerText string `json:"answer_text"`
		ElapsedMs  int64  `json:"elapsed_ms"`
	}

	UpdateSessionRequest struct {
		Status  *string    `json:"status,omitempty"`
		EndTime *time.Time `json:"end_time,omitempty"`
	}

	ListSessionsResponse struct {
		Sessions []Session `json:"sessions"`
	}

	Leaderboard struct {
		Entries []LeaderboardEntry `json:"entries"`
	}

	LeaderboardEntry struct {
		UserID string `json:"user_id"`
		Score  int    `json:"score"`
	}

	Error struct {
		Code    uint32 `json:"code"`
		Message string `json:"message"`
	}
)

func toSession(ss *domain.Session) Session {
	return Session{
		SessionID:            ss.SessionID,
		UserID:               ss.UserID,
		TotalRounds:          ss.TotalRounds,
		QuestionsPerRound:    ss.QuestionsPerRound,
		CurrentRound:         ss.CurrentRound,
		CurrentQuestionIndex: ss.CurrentQuestionIndex,
		Score:                ss.Score,
		Status:               string(ss.Status),
		Categories:           ss.Categories,
		StartTime:            ss.StartTime,
		EndTime:              ss.EndTime,
	}
}

func (s Session) Domain() domain.Session {
	return domain.Session{
		SessionID:            s.SessionID,
		UserID:               s.UserID,
		TotalRounds:          s.TotalRounds,
		QuestionsPerRound:    s.QuestionsPerRound,
		CurrentRound:         s.CurrentRound,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		Score:                s.Score,
		Status:               domain.Status(s.Status),
		Categories:           s.Categories,
		StartTime:            s.StartTime,
		EndTime:              s.EndTime,
	}
}

func toQuestion(q *domain.Question) Question {
	out := Question{
		QuestionID: q.QuestionID,
		SessionID:  q.SessionID,
		Sequence:   q.Sequence,
		Category:   q.Category,
		Text:       q.Text,
		Options:    make([]QuestionOption, 0, len(q.Options)),
	}
	for _, o := range q.Options {
		out.Options = append(out.Options, QuestionOption{Label: o.Label, Text: o.Text})
	}

	return out
}

func (q Question) Domain() domain.Question {
	out := domain.Question{
		QuestionID: q.QuestionID,
		SessionID:  q.SessionID,
		Sequence:   q.Sequence,
		Category:   q.Category,
		Text:       q.Text,
		Options:    make([]domain.Option, 0, len(q.Options)),
	}
	for _, o := range q.Options {
		out.Options = append(out.Options, domain.Option{Label: o.Label, Text: o.Text})
	}

	return out
}

func toAnswerResult(res *domain.AnswerResult) AnswerResult {
	out := AnswerResult{
		IsCorrect:     res.IsCorrect,
		CorrectAnswer: res.CorrectAnswer,
		Points:        res.Points,
		RoundComplete: res.RoundComplete,
		GameComplete:  res.GameComplete,
	}
	if res.NextQuestion != nil {
		q := toQuestion(res.NextQuestion)
		out.NextQuestion = &q
	}

	return out
}

func (r AnswerResult) Domain() domain.AnswerResult {
	out := domain.AnswerResult{
		IsCorrect:     r.IsCorrect,
		CorrectAnswer: r.CorrectAnswer,
		Points:        r.Points,
		RoundComplete: r.RoundComplete,
		GameComplete:  r.GameComplete,
	}
	if r.NextQuestion != nil {
		q := r.NextQuestion.Domain()
		out.NextQuestion = &q
	}

	return out
}

func toSummary(sum *domain.GameSummary) GameSummary {
	out := GameSummary{
		SessionID:  sum.SessionID,
		UserID:     sum.UserID,
		FinalScore: sum.FinalScore,
		Categories: make([]CategoryBreakdown, 0, len(sum.Categories)),
	}
	for _, c := range sum.Categories {
		out.Categories = append(out.Categories, CategoryBreakdown{
			Category: c.Category,
			Asked:    c.Asked,
			Correct:  c.Correct,
			Accuracy: c.Accuracy,
		})
	}

	return out
}

func (s GameSummary) Domain() domain.GameSummary {
	out := domain.GameSummary{
		SessionID:  s.SessionID,
		UserID:     s.UserID,
		FinalScore: s.FinalScore,
		Categories: make([]domain.CategoryBreakdown, 0, len(s.Categories)),
	}
	for _, c := range s.Categories {
		out.Categories = append(out.Categories, domain.CategoryBreakdown{
			Category: c.Category,
			Asked:    c.Asked,
			Correct:  c.Correct,
			Accuracy: c.Accuracy,
		})
	}

	return out
}
