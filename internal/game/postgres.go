package game

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhvn/triviad/internal/domain"
	"github.com/minhvn/triviad/internal/errors"
)

// PGStore is the postgres-backed Store.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) InsertSession(ctx context.Context, ss *domain.Session) error {
	const stmt = `
INSERT INTO sessions (
	session_id, user_id, total_rounds, questions_per_round,
	current_round, current_question_index, current_question_id,
	score, status, categories, start_time, end_time
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	_, err := s.db.Exec(ctx, stmt,
		ss.SessionID, ss.UserID, ss.TotalRounds, ss.QuestionsPerRound,
		ss.CurrentRound, ss.CurrentQuestionIndex, ss.CurrentQuestionID,
		ss.Score, ss.Status, ss.Categories, ss.StartTime, ss.EndTime,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (s *PGStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	const stmt = `
SELECT session_id, user_id, total_rounds, questions_per_round,
	current_round, current_question_index, current_question_id,
	score, status, categories, start_time, end_time
FROM sessions WHERE session_id = $1;`

	var ss domain.Session
	err := s.db.QueryRow(ctx, stmt, sessionID).Scan(
		&ss.SessionID, &ss.UserID, &ss.TotalRounds, &ss.QuestionsPerRound,
		&ss.CurrentRound, &ss.CurrentQuestionIndex, &ss.CurrentQuestionID,
		&ss.Score, &ss.Status, &ss.Categories, &ss.StartTime, &ss.EndTime,
	)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFoundf("session not found: %s", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &ss, nil
}

func (s *PGStore) UpdateSession(ctx context.Context, ss *domain.Session) error {
	const stmt = `
UPDATE sessions SET
	current_round = $2, current_question_index = $3, current_question_id = $4,
	score = $5, status = $6, start_time = $7, end_time = $8
WHERE session_id = $1;`

	tag, err := s.db.Exec(ctx, stmt,
		ss.SessionID, ss.CurrentRound, ss.CurrentQuestionIndex, ss.CurrentQuestionID,
		ss.Score, ss.Status, ss.StartTime, ss.EndTime,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFoundf("session not found: %s", ss.SessionID)
	}

	return nil
}

func (s *PGStore) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	const stmt = `
SELECT session_id, user_id, total_rounds, questions_per_round,
	current_round, current_question_index, current_question_id,
	score, status, categories, start_time, end_time
FROM sessions WHERE user_id = $1
ORDER BY start_time DESC;`

	rows, err := s.db.Query(ctx, stmt, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Session, error) {
		var ss domain.Session
		err := r.Scan(
			&ss.SessionID, &ss.UserID, &ss.TotalRounds, &ss.QuestionsPerRound,
			&ss.CurrentRound, &ss.CurrentQuestionIndex, &ss.CurrentQuestionID,
			&ss.Score, &ss.Status, &ss.Categories, &ss.StartTime, &ss.EndTime,
		)
		return ss, err
	})
}

func (s *PGStore) DrawQuestion(ctx context.Context, sessionID, category string, sequence int) (_ *domain.Question, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const selStmt = `
SELECT question_id, category, question_text, options, correct_answer
FROM questions
WHERE category = $1
	AND question_id NOT IN (SELECT question_id FROM session_questions WHERE session_id = $2)
ORDER BY random()
LIMIT 1;`

	q, err := scanQuestion(tx.QueryRow(ctx, selStmt, category, sessionID))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFoundf("no unused question in category %q for session %s", category, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("draw question: %w", err)
	}

	const insStmt = `INSERT INTO session_questions (session_id, question_id, sequence) VALUES ($1, $2, $3);`
	if _, err = tx.Exec(ctx, insStmt, sessionID, q.QuestionID, sequence); err != nil {
		return nil, fmt.Errorf("record drawn question: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	q.SessionID = sessionID
	q.Sequence = sequence
	return q, nil
}

func (s *PGStore) GetQuestion(ctx context.Context, questionID string) (*domain.Question, error) {
	const stmt = `
SELECT question_id, category, question_text, options, correct_answer
FROM questions WHERE question_id = $1;`

	q, err := scanQuestion(s.db.QueryRow(ctx, stmt, questionID))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFoundf("question not found: %s", questionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}

	return q, nil
}

func scanQuestion(row pgx.Row) (*domain.Question, error) {
	var (
		q       domain.Question
		options []byte
	)
	if err := row.Scan(&q.QuestionID, &q.Category, &q.Text, &options, &q.CorrectAnswer); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}

	return &q, nil
}

func (s *PGStore) RecordAnswer(ctx context.Context, rec domain.AnswerRecord) error {
	const stmt = `
INSERT INTO answers (session_id, question_id, category, answer_text, is_correct, points, elapsed_ms, create_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err := s.db.Exec(ctx, stmt,
		rec.SessionID, rec.QuestionID, rec.Category, rec.AnswerText,
		rec.IsCorrect, rec.Points, rec.ElapsedMs, rec.CreateTime,
	)
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}

	return nil
}

func (s *PGStore) ListAnswers(ctx context.Context, sessionID string) ([]domain.AnswerRecord, error) {
	const stmt = `
SELECT session_id, question_id, category, answer_text, is_correct, points, elapsed_ms, create_time
FROM answers WHERE session_id = $1
ORDER BY create_time;`

	rows, err := s.db.Query(ctx, stmt, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.AnswerRecord, error) {
		var rec domain.AnswerRecord
		err := r.Scan(
			&rec.SessionID, &rec.QuestionID, &rec.Category, &rec.AnswerText,
			&rec.IsCorrect, &rec.Points, &rec.ElapsedMs, &rec.CreateTime,
		)
		return rec, err
	})
}
