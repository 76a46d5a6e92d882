package courses

import (
	"context"
	"errors"

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

const courseSelect = `
	SELECT c.id, c.name, c.description, c.teacher_id, COALESCE(u.real_name, u.username), c.created_at, c.updated_at
	FROM courses c JOIN users u ON u.id = c.teacher_id`

func scanCourse(row pgx.Row) (Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.TeacherID, &c.TeacherName, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Course{}, httpx.ErrNotFound
		}
		return Course{}, err
	}
	return c, nil
}

// FindByID fetches a course by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (Course, error) {
	return scanCourse(r.pool.QueryRow(ctx, courseSelect+` WHERE c.id = $1`, id))
}

// FindOwningTeacherID resolves a course id to its owning teacher. Returns
// httpx.ErrNotFound when the course does not exist.
func (r *Repository) FindOwningTeacherID(ctx context.Context, id int64) (int64, error) {
	var teacherID int64
	err := r.pool.QueryRow(ctx, `SELECT teacher_id FROM courses WHERE id = $1`, id).Scan(&teacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, httpx.ErrNotFound
		}
		return 0, err
	}
	return teacherID, nil
}

// Create inserts a course.
func (r *Repository) Create(ctx context.Context, name, description string, teacherID int64) (Course, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO courses (name, description, teacher_id) VALUES ($1, $2, $3) RETURNING id`,
		name, description, teacherID).Scan(&id)
	if err != nil {
		return Course{}, err
	}
	return r.FindByID(ctx, id)
}

// Update modifies name and description.
func (r *Repository) Update(ctx context.Context, id int64, name, description string) (Course, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE courses SET name = $2, description = $3, updated_at = NOW() WHERE id = $1`,
		id, name, description)
	if err != nil {
		return Course{}, err
	}
	if tag.RowsAffected() == 0 {
		return Course{}, httpx.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes a course.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// List returns a page of courses plus the total count. A non-zero teacherID
// restricts the listing to that teacher's courses.
func (r *Repository) List(ctx context.Context, teacherID int64, limit, offset int) ([]Course, int, error) {
	where := ``
	args := []any{limit, offset}
	if teacherID != 0 {
		where = ` WHERE c.teacher_id = $3`
		args = append(args, teacherID)
	}
	var total int
	countArgs := args[2:]
	countWhere := ``
	if teacherID != 0 {
		countWhere = ` WHERE teacher_id = $1`
	}
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM courses`+countWhere, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, courseSelect+where+` ORDER BY c.id LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
