package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"commentlottery/internal/metrics"
	"commentlottery/internal/models"

	"github.com/google/logger"
)

// Resolver maps a public video code to the id the reply API uses.
type Resolver interface {
	Resolve(ctx context.Context, code string) (models.ResourceID, error)
}

// CommentSource is everything a lottery run needs from the remote service.
type CommentSource interface {
	Resolver
	PageSource
}

// LotterySession holds the draw history of a single user/tenant.
type LotterySession struct {
	Results      []*models.DrawResult
	LastActivity time.Time
}

// LotteryService runs comment lotteries and keeps per-session results in memory.
type LotteryService struct {
	source  CommentSource
	sampler *Sampler
	opts    []PaginatorOption

	mu       sync.RWMutex
	sessions map[string]*LotterySession // Key: tenantID
}

// NewLotteryService creates and initializes a new LotteryService.
func NewLotteryService(source CommentSource, sampler *Sampler, opts ...PaginatorOption) *LotteryService {
	if sampler == nil {
		sampler = NewSampler()
	}
	return &LotteryService{
		source:   source,
		sampler:  sampler,
		opts:     opts,
		sessions: make(map[string]*LotterySession),
	}
}

// Run resolves code, collects every comment on the video and draws winners
// from the distinct authors. Any failure fails the whole run.
func (s *LotteryService) Run(ctx context.Context, code string, winners int) (*models.DrawResult, error) {
	if winners < 0 {
		return nil, ErrInvalidWinnerCount
	}
	start := time.Now()

	result, err := s.run(ctx, code, winners)
	metrics.DrawDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DrawsTotal.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}
	metrics.DrawsTotal.WithLabelValues("success").Inc()
	return result, nil
}

func (s *LotteryService) run(ctx context.Context, code string, winners int) (*models.DrawResult, error) {
	id, err := s.source.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	logger.Infof("Resolved %s to resource %d", code, id)

	participants, total, err := Extract(ctx, NewPaginator(s.source, id, s.opts...))
	if err != nil {
		return nil, err
	}
	logger.Infof("Fetched %d comments from %d distinct users on %s", total, participants.Len(), code)

	drawn := s.sampler.Sample(participants, winners)
	logger.Infof("Drew %d of %d requested winners on %s", len(drawn), winners, code)

	return &models.DrawResult{
		Code:          code,
		ResourceID:    id,
		TotalComments: total,
		Participants:  participants.Len(),
		Requested:     winners,
		Winners:       drawn,
		DrawnAt:       time.Now(),
	}, nil
}

func outcome(err error) string {
	var aborted *AbortedFetchError
	var transport *TransportError
	switch {
	case errors.As(err, &aborted):
		if aborted.IsRateLimited() {
			return "rate_limited"
		}
		return "aborted"
	case errors.As(err, &transport):
		return "transport_error"
	default:
		return "resolution_error"
	}
}

// Draw performs a lottery run for a tenant and records the result in its session.
func (s *LotteryService) Draw(ctx context.Context, tenantID, code string, winners int) (*models.DrawResult, error) {
	result, err := s.Run(ctx, code, winners)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.getSessionLocked(tenantID)
	session.Results = append(session.Results, result)
	return result, nil
}

// getSessionLocked returns a session for a tenant, creating one if it doesn't exist.
// s.mu must be held for writing.
func (s *LotteryService) getSessionLocked(tenantID string) *LotterySession {
	session, exists := s.sessions[tenantID]
	if !exists {
		session = &LotterySession{
			Results: make([]*models.DrawResult, 0),
		}
		s.sessions[tenantID] = session
	}
	session.LastActivity = time.Now()
	return session
}

// GetLotteryResults returns a copy of the draw results for a specific tenant.
// Unknown tenants get an empty slice and no session is created for them.
func (s *LotteryService) GetLotteryResults(tenantID string) []*models.DrawResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[tenantID]
	if !exists {
		return make([]*models.DrawResult, 0)
	}
	session.LastActivity = time.Now()
	out := make([]*models.DrawResult, len(session.Results))
	copy(out, session.Results)
	return out
}

// SessionCount returns the number of live sessions.
func (s *LotteryService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CleanUpInactiveSessions removes sessions that have been inactive for longer than maxIdle.
func (s *LotteryService) CleanUpInactiveSessions(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for tenantID, session := range s.sessions {
		if time.Since(session.LastActivity) > maxIdle {
			logger.Infof("Removing inactive session for tenant: %s", tenantID)
			delete(s.sessions, tenantID)
			removed++
		}
	}
	return removed
}

// ClearSession removes all data associated with a specific tenant.
func (s *LotteryService) ClearSession(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tenantID)
	logger.Infof("Cleared session for tenant: %s", tenantID)
}
