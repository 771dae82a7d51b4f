package admin

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"casestatus/internal/audit"
	dErrors "casestatus/pkg/domain-errors"
	"casestatus/pkg/requestcontext"
	"casestatus/pkg/validation"
)

// CaseStats counts stored cases by status.
type CaseStats interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// SessionCounter reports the number of usable sessions.
type SessionCounter interface {
	ActiveSessions(ctx context.Context) (int, error)
}

// AuditReader lists recent audit events, newest first.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Service backs the admin dashboard.
type Service struct {
	cases    CaseStats
	sessions SessionCounter
	audit    AuditReader
	logger   *slog.Logger
}

func NewService(cases CaseStats, sessions SessionCounter, auditReader AuditReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cases:    cases,
		sessions: sessions,
		audit:    auditReader,
		logger:   logger,
	}
}

// Stats summarises the case registry for the dashboard.
type Stats struct {
	TotalCases int            `json:"total_cases"`
	ByStatus   map[string]int `json:"by_status"`

	// ActiveSessions is nil when the session store could not be counted.
	ActiveSessions *int      `json:"active_sessions"`
	Timestamp      time.Time `json:"timestamp"`
}

// GetStats loads case counts and the session count concurrently. Case counts
// are required; a session count failure only blanks that field.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	var (
		byStatus map[string]int
		active   *int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.cases.CountByStatus(gctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "case statistics unavailable")
		}
		byStatus = counts
		return nil
	})
	g.Go(func() error {
		count, err := s.sessions.ActiveSessions(gctx)
		if err != nil {
			s.logger.WarnContext(ctx, "active session count unavailable",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil
		}
		active = &count
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}
	if byStatus == nil {
		byStatus = map[string]int{}
	}
	return &Stats{
		TotalCases:     total,
		ByStatus:       byStatus,
		ActiveSessions: active,
		Timestamp:      requestcontext.Now(ctx),
	}, nil
}

// GetRecentAuditEvents returns at most limit events, capped at MaxAuditPageSize.
func (s *Service) GetRecentAuditEvents(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 || limit > validation.MaxAuditPageSize {
		limit = validation.MaxAuditPageSize
	}
	events, err := s.audit.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit trail unavailable")
	}
	return events, nil
}
