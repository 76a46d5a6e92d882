// Package dashboard aggregates per-role counts for the landing view.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/coursehub/coursehub/internal/security"
)

// Stats is the role-dependent dashboard payload. Only the fields relevant to
// the requesting role are populated.
type Stats struct {
	Role            string `json:"role"`
	TotalUsers      int    `json:"totalUsers,omitempty"`
	TotalCourses    int    `json:"totalCourses,omitempty"`
	MyCourses       int    `json:"myCourses,omitempty"`
	MyAssignments   int    `json:"myAssignments,omitempty"`
	PendingGrading  int    `json:"pendingGrading,omitempty"`
	EnrolledCourses int    `json:"enrolledCourses,omitempty"`
	OpenAssignments int    `json:"openAssignments,omitempty"`
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service computes stats with a short-TTL Redis cache in front of the count
// queries. A nil client disables caching. Concurrent requests for the same
// principal share one computation.
type Service struct {
	pool   rowQuerier
	client *redis.Client
	ttl    time.Duration
	flight singleflight.Group
}

// NewService builds a Service instance.
func NewService(pool *pgxpool.Pool, client *redis.Client, ttl time.Duration) *Service {
	return &Service{pool: pool, client: client, ttl: ttl}
}

func cacheKey(p security.Principal) string {
	return fmt.Sprintf("dashboard:%s:%d", p.Role, p.ID)
}

// StatsFor returns the dashboard stats for the principal.
func (s *Service) StatsFor(ctx context.Context, p security.Principal) (Stats, error) {
	key := cacheKey(p)
	if s.client != nil {
		payload, err := s.client.Get(ctx, key).Bytes()
		if err == nil {
			var stats Stats
			if err := json.Unmarshal(payload, &stats); err == nil {
				return stats, nil
			}
		}
	}

	resultChan := s.flight.DoChan(key, func() (any, error) {
		stats, err := s.compute(ctx, p)
		if err != nil {
			return Stats{}, err
		}
		if s.client != nil {
			if raw, err := json.Marshal(stats); err == nil {
				_ = s.client.Set(ctx, key, raw, s.ttl).Err()
			}
		}
		return stats, nil
	})

	select {
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return Stats{}, res.Err
		}
		return res.Val.(Stats), nil
	}
}

func (s *Service) count(ctx context.Context, dst *int, sql string, args ...any) func() error {
	return func() error {
		return s.pool.QueryRow(ctx, sql, args...).Scan(dst)
	}
}

func (s *Service) compute(ctx context.Context, p security.Principal) (Stats, error) {
	stats := Stats{Role: string(p.Role)}
	g, ctx := errgroup.WithContext(ctx)

	switch {
	case p.IsAdmin():
		g.Go(s.count(ctx, &stats.TotalUsers, `SELECT COUNT(*) FROM users`))
		g.Go(s.count(ctx, &stats.TotalCourses, `SELECT COUNT(*) FROM courses`))
	case p.Role.Equals(string(security.RoleTeacher)):
		g.Go(s.count(ctx, &stats.MyCourses,
			`SELECT COUNT(*) FROM courses WHERE teacher_id = $1`, p.ID))
		g.Go(s.count(ctx, &stats.MyAssignments,
			`SELECT COUNT(*) FROM assignments a JOIN courses c ON c.id = a.course_id WHERE c.teacher_id = $1`,
			p.ID))
		g.Go(s.count(ctx, &stats.PendingGrading,
			`SELECT COUNT(*) FROM submissions s
			 JOIN assignments a ON a.id = s.assignment_id
			 JOIN courses c ON c.id = a.course_id
			 WHERE c.teacher_id = $1 AND s.status != 'GRADED'`, p.ID))
	default:
		g.Go(s.count(ctx, &stats.EnrolledCourses,
			`SELECT COUNT(*) FROM student_courses WHERE student_id = $1`, p.ID))
		g.Go(s.count(ctx, &stats.OpenAssignments,
			`SELECT COUNT(*) FROM assignments a
			 JOIN student_courses sc ON sc.course_id = a.course_id
			 WHERE sc.student_id = $1 AND a.status = 'PUBLISHED' AND a.deadline > NOW()
			   AND NOT EXISTS (SELECT 1 FROM submissions s WHERE s.assignment_id = a.id AND s.student_id = $1)`,
			p.ID))
	}

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
