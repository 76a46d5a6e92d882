package assignments

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursehub/coursehub/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const assignmentSelect = `
	SELECT a.id, a.title, a.description, a.course_id, c.name, a.deadline, a.status, a.created_at, a.updated_at
	FROM assignments a JOIN courses c ON c.id = a.course_id`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.CourseID, &a.CourseName,
		&a.Deadline, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, httpx.ErrNotFound
		}
		return Assignment{}, err
	}
	return a, nil
}

// FindByID fetches an assignment by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (Assignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx, assignmentSelect+` WHERE a.id = $1`, id))
}

// FindOwningTeacherID resolves an assignment to its parent course's owning
// teacher. Missing assignment or missing course both yield httpx.ErrNotFound.
func (r *Repository) FindOwningTeacherID(ctx context.Context, id int64) (int64, error) {
	var teacherID int64
	err := r.pool.QueryRow(ctx,
		`SELECT c.teacher_id FROM assignments a JOIN courses c ON c.id = a.course_id WHERE a.id = $1`,
		id).Scan(&teacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, httpx.ErrNotFound
		}
		return 0, err
	}
	return teacherID, nil
}

// Create inserts an assignment.
func (r *Repository) Create(ctx context.Context, a Assignment) (Assignment, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO assignments (title, description, course_id, deadline, status)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		a.Title, a.Description, a.CourseID, a.Deadline, a.Status).Scan(&id)
	if err != nil {
		return Assignment{}, err
	}
	return r.FindByID(ctx, id)
}

// Update modifies title, description, and deadline.
func (r *Repository) Update(ctx context.Context, id int64, title, description string, deadline time.Time) (Assignment, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assignments SET title = $2, description = $3, deadline = $4, updated_at = NOW() WHERE id = $1`,
		id, title, description, deadline)
	if err != nil {
		return Assignment{}, err
	}
	if tag.RowsAffected() == 0 {
		return Assignment{}, httpx.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// SetStatus moves the assignment between DRAFT, PUBLISHED, and CLOSED.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string) (Assignment, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assignments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return Assignment{}, err
	}
	if tag.RowsAffected() == 0 {
		return Assignment{}, httpx.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes an assignment.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ListByCourse returns the assignments for one course, newest first.
func (r *Repository) ListByCourse(ctx context.Context, courseID int64) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, assignmentSelect+` WHERE a.course_id = $1 ORDER BY a.created_at DESC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
