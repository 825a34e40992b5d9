// Package api exposes the question/session service over HTTP. Identity
// arrives as an opaque user id in the X-User-ID header; this surface never
// handles credentials.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minhvn/triviad/internal/domain"
	"github.com/minhvn/triviad/internal/errors"
	"github.com/minhvn/triviad/internal/game"
	"github.com/minhvn/triviad/internal/summary"
	"github.com/minhvn/triviad/internal/telemetry"
)

// UserHeader carries the identity-provider user id.
const UserHeader = "X-User-ID"

type Config struct {
	Router *gin.Engine
	Game   *game.Service
	// Summary is optional; without it summaries are computed on demand
	// and the leaderboard route is absent.
	Summary *summary.Service
}

type API struct {
	game    *game.Service
	summary *summary.Service
}

func New(c Config) *API {
	a := &API{
		game:    c.Game,
		summary: c.Summary,
	}

	v1 := c.Router.Group("/v1")
	v1.POST("/sessions", a.createSession)
	v1.GET("/sessions", a.listSessions)
	v1.GET("/sessions/:id", a.getSession)
	v1.PATCH("/sessions/:id", a.updateSession)
	v1.POST("/sessions/:id/start", a.startSession)
	v1.POST("/sessions/:id/answers", a.submitAnswer)
	v1.POST("/sessions/:id/pause", a.pauseSession)
	v1.POST("/sessions/:id/resume", a.resumeSession)
	v1.POST("/sessions/:id/complete", a.completeSession)
	v1.GET("/sessions/:id/summary", a.getSummary)

	if a.summary != nil {
		v1.GET("/leaderboard", a.leaderboard)
	}

	return a
}

func (a *API) createSession(c *gin.Context) {
	userID := c.GetHeader(UserHeader)
	if userID == "" {
		renderError(c, errors.New(errors.CodeUnauthenticated, errors.WithMessagef("missing %s header", UserHeader)))
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	ss, err := a.game.CreateSession(c.Request.Context(), userID, domain.GameConfig{
		TotalRounds:       req.TotalRounds,
		QuestionsPerRound: req.QuestionsPerRound,
		Categories:        req.Categories,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSession(ss))
}

func (a *API) listSessions(c *gin.Context) {
	userID := c.GetHeader(UserHeader)
	if userID == "" {
		renderError(c, errors.New(errors.CodeUnauthenticated, errors.WithMessagef("missing %s header", UserHeader)))
		return
	}

	sessions, err := a.game.ListSessions(c.Request.Context(), userID)
	if err != nil {
		renderError(c, err)
		return
	}

	resp := ListSessionsResponse{Sessions: make([]Session, 0, len(sessions))}
	for i := range sessions {
		resp.Sessions = append(resp.Sessions, toSession(&sessions[i]))
	}

	c.JSON(http.StatusOK, resp)
}

func (a *API) getSession(c *gin.Context) {
	ss, err := a.game.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSession(ss))
}

func (a *API) startSession(c *gin.Context) {
	ss, q, err := a.game.StartSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, StartSessionResponse{
		Session:  toSession(ss),
		Question: toQuestion(q),
	})
}

func (a *API) submitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	res, err := a.game.SubmitAnswer(c.Request.Context(), domain.AnswerSubmission{
		SessionID:  c.Param("id"),
		QuestionID: req.QuestionID,
		AnswerText: req.AnswerText,
		ElapsedMs:  req.ElapsedMs,
	})
	if err != nil {
		telemetry.AnswerSubmissions.WithLabelValues("error").Inc()
		renderError(c, err)
		return
	}

	if res.IsCorrect {
		telemetry.AnswerSubmissions.WithLabelValues("correct").Inc()
	} else {
		telemetry.AnswerSubmissions.WithLabelValues("incorrect").Inc()
	}

	c.JSON(http.StatusOK, toAnswerResult(res))
}

func (a *API) pauseSession(c *gin.Context) {
	if err := a.game.PauseSession(c.Request.Context(), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (a *API) resumeSession(c *gin.Context) {
	q, err := a.game.ResumeSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuestion(q))
}

func (a *API) completeSession(c *gin.Context) {
	sum, err := a.game.CompleteSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSummary(sum))
}

func (a *API) getSummary(c *gin.Context) {
	var (
		sum *domain.GameSummary
		err error
	)
	if a.summary != nil {
		sum, err = a.summary.Get(c.Request.Context(), c.Param("id"))
	} else {
		sum, err = a.game.GetSummary(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSummary(sum))
}

func (a *API) updateSession(c *gin.Context) {
	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	patch := domain.SessionPatch{EndTime: req.EndTime}
	if req.Status != nil {
		st := domain.Status(*req.Status)
		patch.Status = &st
	}

	ss, err := a.game.UpdateSession(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSession(ss))
}

func (a *API) leaderboard(c *gin.Context) {
	entries, err := a.summary.Top(c.Request.Context(), 10)
	if err != nil {
		renderError(c, err)
		return
	}

	resp := Leaderboard{Entries: make([]LeaderboardEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, LeaderboardEntry{UserID: e.UserID, Score: e.Score})
	}

	c.JSON(http.StatusOK, resp)
}

func renderError(c *gin.Context, err error) {
	e := errors.Convert(err)
	c.JSON(e.HTTPStatusCode(), Error{
		Code:    uint32(e.Code),
		Message: e.Message,
	})
}
