package enrollment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Enroll inserts an enrollment row. Duplicate enrollments surface as
// shared.ErrAlreadyEnrolled via the unique constraint.
func (r *Repository) Enroll(ctx context.Context, studentID, courseID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO student_courses (student_id, course_id) VALUES ($1, $2)`, studentID, courseID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrAlreadyEnrolled
		}
		return err
	}
	return nil
}

// Drop removes an enrollment.
func (r *Repository) Drop(ctx context.Context, studentID, courseID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM student_courses WHERE student_id = $1 AND course_id = $2`, studentID, courseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ListByStudent returns the student's enrollments with course names.
func (r *Repository) ListByStudent(ctx context.Context, studentID int64) ([]Enrollment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT sc.student_id, sc.course_id, c.name, sc.created_at
		 FROM student_courses sc JOIN courses c ON c.id = sc.course_id
		 WHERE sc.student_id = $1 ORDER BY sc.created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.StudentID, &e.CourseID, &e.CourseName, &e.EnrolledAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// ListStudents returns the roster for one course.
func (r *Repository) ListStudents(ctx context.Context, courseID int64) ([]Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.username, u.real_name, sc.created_at
		 FROM student_courses sc JOIN users u ON u.id = sc.student_id
		 WHERE sc.course_id = $1 ORDER BY u.username`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Username, &s.RealName, &s.EnrolledAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// IsEnrolled reports whether the student is enrolled in the course.
func (r *Repository) IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM student_courses WHERE student_id = $1 AND course_id = $2)`,
		studentID, courseID).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}
	return exists, nil
}
