// Package client is the HTTP counterpart of internal/api: it adapts the
// REST surface back to the play.Service interface consumed by the
// controller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minhvn/triviad/internal/api"
	"github.com/minhvn/triviad/internal/domain"
	"github.com/minhvn/triviad/internal/errors"
)

type Config struct {
	// BaseURL points at the service root, e.g. "http://localhost:8080".
	BaseURL string
	// HTTPClient defaults to one with a 30s timeout.
	HTTPClient *http.Client
}

type Client struct {
	base string
	hc   *http.Client
}

func New(c Config) *Client {
	cl := &Client{
		base: strings.TrimRight(c.BaseURL, "/"),
		hc:   c.HTTPClient,
	}
	if cl.hc == nil {
		cl.hc = &http.Client{Timeout: 30 * time.Second}
	}

	return cl
}

func (c *Client) CreateSession(ctx context.Context, userID string, cfg domain.GameConfig) (*domain.Session, error) {
	req := api.CreateSessionRequest{
		TotalRounds:       cfg.TotalRounds,
		QuestionsPerRound: cfg.QuestionsPerRound,
		Categories:        cfg.Categories,
	}

	var resp api.Session
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", userID, req, &resp); err != nil {
		return nil, err
	}

	ss := resp.Domain()
	return &ss, nil
}

func (c *Client) StartSession(ctx context.Context, sessionID string) (*domain.Session, *domain.Question, error) {
	var resp api.StartSessionResponse
	if err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "start"), "", nil, &resp); err != nil {
		return nil, nil, err
	}

	ss := resp.Session.Domain()
	q := resp.Question.Domain()
	return &ss, &q, nil
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var resp api.Session
	if err := c.do(ctx, http.MethodGet, c.sessionPath(sessionID), "", nil, &resp); err != nil {
		return nil, err
	}

	ss := resp.Domain()
	return &ss, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, sub domain.AnswerSubmission) (*domain.AnswerResult, error) {
	req := api.SubmitAnswerRequest{
		QuestionID: sub.QuestionID,
		AnswerText: sub.AnswerText,
		ElapsedMs:  sub.ElapsedMs,
	}

	var resp api.AnswerResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath(sub.SessionID, "answers"), "", req, &resp); err != nil {
		return nil, err
	}

	res := resp.Domain()
	return &res, nil
}

func (c *Client) PauseSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "pause"), "", nil, nil)
}

func (c *Client) ResumeSession(ctx context.Context, sessionID string) (*domain.Question, error) {
	var resp api.Question
	if err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "resume"), "", nil, &resp); err != nil {
		return nil, err
	}

	q := resp.Domain()
	return &q, nil
}

func (c *Client) CompleteSession(ctx context.Context, sessionID string) (*domain.GameSummary, error) {
	var resp api.GameSummary
	if err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "complete"), "", nil, &resp); err != nil {
		return nil, err
	}

	sum := resp.Domain()
	return &sum, nil
}

func (c *Client) GetSummary(ctx context.Context, sessionID string) (*domain.GameSummary, error) {
	var resp api.GameSummary
	if err := c.do(ctx, http.MethodGet, c.sessionPath(sessionID, "summary"), "", nil, &resp); err != nil {
		return nil, err
	}

	sum := resp.Domain()
	return &sum, nil
}

func (c *Client) UpdateSession(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.Session, error) {
	var req api.UpdateSessionRequest
	if patch.Status != nil {
		st := string(*patch.Status)
		req.Status = &st
	}
	req.EndTime = patch.EndTime

	var resp api.Session
	if err := c.do(ctx, http.MethodPatch, c.sessionPath(sessionID), "", req, &resp); err != nil {
		return nil, err
	}

	ss := resp.Domain()
	return &ss, nil
}

func (c *Client) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	var resp api.ListSessionsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/sessions", userID, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Session, 0, len(resp.Sessions))
	for _, s := range resp.Sessions {
		out = append(out, s.Domain())
	}

	return out, nil
}

func (c *Client) sessionPath(sessionID string, parts ...string) string {
	p := "/v1/sessions/" + url.PathEscape(sessionID)
	for _, part := range parts {
		p += "/" + part
	}

	return p
}

func (c *Client) do(ctx context.Context, method, path, userID string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(api.UserHeader, userID)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Internal(fmt.Errorf("client: %s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Internal(fmt.Errorf("client: decode %s %s response: %w", method, path, err))
	}

	return nil
}

// decodeError rebuilds the service error from the wire so callers can
// branch on its code the same way they would against the in-process
// service.
func decodeError(resp *http.Response) error {
	var e api.Error
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		return errors.Internal(fmt.Errorf("client: server returned %s", resp.Status))
	}

	return errors.New(errors.Code(e.Code), errors.WithMessagef("%s", e.Message))
}

// StaticIdentity is an Identity that always reports the same user, for
// tools and tests.
type StaticIdentity string

func (s StaticIdentity) CurrentUserID(context.Context) (string, error) {
	if s == "" {
		return "", errors.New(errors.CodeUnauthenticated, errors.WithMessagef("no authenticated user"))
	}

	return string(s), nil
}
