package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/coursehub/internal/security"
)

type stubRow struct {
	val   int
	err   error
	delay time.Duration
}

func (r stubRow) Scan(dest ...any) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int)) = r.val
	return nil
}

type stubQuery struct {
	fragment string
	row      stubRow
}

// stubQuerier answers count queries by matching a distinctive fragment of the
// SQL text (first match wins) and keeps a call counter.
type stubQuerier struct {
	queries []stubQuery
	calls   atomic.Int32
}

func (q *stubQuerier) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	q.calls.Add(1)
	for _, sq := range q.queries {
		if strings.Contains(sql, sq.fragment) {
			return sq.row
		}
	}
	return stubRow{err: errors.New("unexpected query: " + sql)}
}

func TestStatsForAdmin(t *testing.T) {
	svc := &Service{pool: &stubQuerier{queries: []stubQuery{
		{"FROM users", stubRow{val: 10}},
		{"FROM courses", stubRow{val: 4}},
	}}}

	stats, err := svc.StatsFor(context.Background(), security.Principal{ID: 1, Role: security.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalUsers)
	assert.Equal(t, 4, stats.TotalCourses)
	assert.Zero(t, stats.MyCourses)
}

func TestStatsForTeacher(t *testing.T) {
	svc := &Service{pool: &stubQuerier{queries: []stubQuery{
		{"FROM courses WHERE teacher_id", stubRow{val: 3}},
		{"FROM submissions s", stubRow{val: 5}},
		{"FROM assignments a JOIN courses", stubRow{val: 12}},
	}}}

	stats, err := svc.StatsFor(context.Background(), security.Principal{ID: 7, Role: security.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.MyCourses)
	assert.Equal(t, 12, stats.MyAssignments)
	assert.Equal(t, 5, stats.PendingGrading)
}

func TestStatsForStudent(t *testing.T) {
	svc := &Service{pool: &stubQuerier{queries: []stubQuery{
		{"FROM student_courses WHERE student_id", stubRow{val: 2}},
		{"FROM assignments a", stubRow{val: 1}},
	}}}

	stats, err := svc.StatsFor(context.Background(), security.Principal{ID: 2, Role: security.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.EnrolledCourses)
	assert.Equal(t, 1, stats.OpenAssignments)
}

func TestStatsForQueryError(t *testing.T) {
	svc := &Service{pool: &stubQuerier{queries: []stubQuery{
		{"FROM users", stubRow{err: errors.New("connection refused")}},
		{"FROM courses", stubRow{val: 4}},
	}}}

	_, err := svc.StatsFor(context.Background(), security.Principal{ID: 1, Role: security.RoleAdmin})
	assert.Error(t, err)
}

func TestStatsForServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	querier := &stubQuerier{queries: []stubQuery{
		{"FROM users", stubRow{val: 10}},
		{"FROM courses", stubRow{val: 4}},
	}}
	svc := &Service{pool: querier, client: client, ttl: time.Minute}
	admin := security.Principal{ID: 1, Role: security.RoleAdmin}

	first, err := svc.StatsFor(context.Background(), admin)
	require.NoError(t, err)
	queriesAfterFirst := querier.calls.Load()

	second, err := svc.StatsFor(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, queriesAfterFirst, querier.calls.Load(), "second call must hit the cache")
}

func TestConcurrentStatsShareOneComputation(t *testing.T) {
	querier := &stubQuerier{queries: []stubQuery{
		{"FROM users", stubRow{val: 10, delay: 50 * time.Millisecond}},
		{"FROM courses", stubRow{val: 4, delay: 50 * time.Millisecond}},
	}}
	svc := &Service{pool: querier}
	admin := security.Principal{ID: 1, Role: security.RoleAdmin}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats, err := svc.StatsFor(context.Background(), admin)
			assert.NoError(t, err)
			assert.Equal(t, 10, stats.TotalUsers)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), querier.calls.Load(), "overlapping requests must share one computation")
}
