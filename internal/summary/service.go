// Package summary materializes game summaries when sessions complete and
// keeps a leaderboard of best final scores.
package summary

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/minhvn/triviad/internal/domain"
	"github.com/minhvn/triviad/internal/errors"
	"github.com/minhvn/triviad/internal/event"
	"github.com/minhvn/triviad/internal/game"
)

type Config struct {
	EventBus *event.Bus
	Game     *game.Service
	Redis    redis.UniversalClient
	Prefix   string
}

type Service struct {
	eb     *event.Bus
	game   *game.Service
	redis  redis.UniversalClient
	prefix string
}

func NewService(c Config) *Service {
	s := &Service{
		eb:     c.EventBus,
		game:   c.Game,
		redis:  c.Redis,
		prefix: c.Prefix,
	}

	s.eb.Subscribe(domain.EventNameGameCompleted, func(ctx context.Context, e event.Event) error {
		return s.Materialize(ctx, e.(domain.EventGameCompleted))
	})

	return s
}

// Materialize computes and caches the summary for a completed session and
// records the player's score on the leaderboard.
func (s *Service) Materialize(ctx context.Context, e domain.EventGameCompleted) error {
	sum, err := s.game.GetSummary(ctx, e.Session.SessionID)
	if err != nil {
		return fmt.Errorf("summary: compute for session %s: %w", e.Session.SessionID, err)
	}

	if err := s.cache(ctx, sum); err != nil {
		return err
	}

	// Keep each player's best final score. ZAddGT never lowers it.
	if err := s.redis.ZAddGT(ctx, s.leaderboardKey(), redis.Z{
		Score:  float64(sum.FinalScore),
		Member: sum.UserID,
	}).Err(); err != nil {
		return fmt.Errorf("summary: update leaderboard: %w", err)
	}

	return nil
}

// Get returns the cached summary, computing and caching it on a miss.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.GameSummary, error) {
	raw, err := s.redis.Get(ctx, s.summaryKey(sessionID)).Bytes()
	if err == nil {
		var sum domain.GameSummary
		if err := json.Unmarshal(raw, &sum); err != nil {
			return nil, fmt.Errorf("summary: decode cached summary: %w", err)
		}
		return &sum, nil
	}
	if !stderrors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("summary: read cache: %w", err)
	}

	sum, err := s.game.GetSummary(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.cache(ctx, sum); err != nil {
		return nil, err
	}

	return sum, nil
}

func (s *Service) cache(ctx context.Context, sum *domain.GameSummary) error {
	b, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("summary: encode: %w", err)
	}

	if err := s.redis.Set(ctx, s.summaryKey(sum.SessionID), b, 0).Err(); err != nil {
		return fmt.Errorf("summary: cache: %w", err)
	}

	return nil
}

type LeaderboardEntry struct {
	UserID string
	Score  int
}

// Top returns the n best final scores, highest first.
func (s *Service) Top(ctx context.Context, n int64) ([]LeaderboardEntry, error) {
	res, err := s.redis.ZRevRangeWithScores(ctx, s.leaderboardKey(), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("summary: read leaderboard: %w", err)
	}

	if len(res) == 0 {
		return nil, errors.NotFoundf("leaderboard is empty")
	}

	entries := make([]LeaderboardEntry, 0, len(res))
	for _, z := range res {
		entries = append(entries, LeaderboardEntry{
			UserID: z.Member.(string),
			Score:  int(z.Score),
		})
	}

	return entries, nil
}

func (s *Service) summaryKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s:summary", s.prefix, sessionID)
}

func (s *Service) leaderboardKey() string {
	return fmt.Sprintf("%s:leaderboard", s.prefix)
}
