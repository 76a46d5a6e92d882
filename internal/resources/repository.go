package resources

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

const resourceSelect = `
	SELECT r.id, r.name, r.description, r.file_name, r.original_name, r.file_size, r.type,
	       r.course_id, c.name, r.uploader_id, r.download_count, r.created_at, r.updated_at
	FROM resources r JOIN courses c ON c.id = r.course_id`

func scanResource(row pgx.Row) (Resource, error) {
	var res Resource
	err := row.Scan(&res.ID, &res.Name, &res.Description, &res.FileName, &res.OriginalName,
		&res.FileSize, &res.Type, &res.CourseID, &res.CourseName, &res.UploaderID,
		&res.DownloadCount, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Resource{}, httpx.ErrNotFound
		}
		return Resource{}, err
	}
	return res, nil
}

// FindByID fetches a resource by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (Resource, error) {
	return scanResource(r.pool.QueryRow(ctx, resourceSelect+` WHERE r.id = $1`, id))
}

// FindOwningTeacherID resolves a resource to its parent course's owning
// teacher. Missing resource or missing course both yield httpx.ErrNotFound.
func (r *Repository) FindOwningTeacherID(ctx context.Context, id int64) (int64, error) {
	var teacherID int64
	err := r.pool.QueryRow(ctx,
		`SELECT c.teacher_id FROM resources r JOIN courses c ON c.id = r.course_id WHERE r.id = $1`,
		id).Scan(&teacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, httpx.ErrNotFound
		}
		return 0, err
	}
	return teacherID, nil
}

// Create inserts a resource.
func (r *Repository) Create(ctx context.Context, res Resource) (Resource, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO resources (name, description, file_name, original_name, file_size, type, course_id, uploader_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		res.Name, res.Description, res.FileName, res.OriginalName, res.FileSize, res.Type,
		res.CourseID, res.UploaderID).Scan(&id)
	if err != nil {
		return Resource{}, err
	}
	return r.FindByID(ctx, id)
}

// UpdateMeta modifies the name and description.
func (r *Repository) UpdateMeta(ctx context.Context, id int64, name, description string) (Resource, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE resources SET name = $2, description = $3, updated_at = NOW() WHERE id = $1`,
		id, name, description)
	if err != nil {
		return Resource{}, err
	}
	if tag.RowsAffected() == 0 {
		return Resource{}, httpx.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes a resource row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// IncrementDownloads bumps the download counter.
func (r *Repository) IncrementDownloads(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE resources SET download_count = download_count + 1 WHERE id = $1`, id)
	return err
}

// ListByCourse returns a course's resources, newest first.
func (r *Repository) ListByCourse(ctx context.Context, courseID int64) ([]Resource, error) {
	rows, err := r.pool.Query(ctx, resourceSelect+` WHERE r.course_id = $1 ORDER BY r.created_at DESC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	return list, rows.Err()
}
