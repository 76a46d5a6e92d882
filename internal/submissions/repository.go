package submissions

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

const submissionSelect = `
	SELECT s.id, s.assignment_id, s.student_id, COALESCE(u.real_name, u.username),
	       s.content, s.file_name, s.original_name, s.status, s.score, s.feedback,
	       s.submitted_at, s.graded_at
	FROM submissions s JOIN users u ON u.id = s.student_id`

func scanSubmission(row pgx.Row) (Submission, error) {
	var s Submission
	err := row.Scan(&s.ID, &s.AssignmentID, &s.StudentID, &s.StudentName, &s.Content,
		&s.FileName, &s.OriginalName, &s.Status, &s.Score, &s.Feedback,
		&s.SubmittedAt, &s.GradedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Submission{}, httpx.ErrNotFound
		}
		return Submission{}, err
	}
	return s, nil
}

// FindByID fetches a submission by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (Submission, error) {
	return scanSubmission(r.pool.QueryRow(ctx, submissionSelect+` WHERE s.id = $1`, id))
}

// FindByAssignmentAndStudent fetches one student's submission for an
// assignment.
func (r *Repository) FindByAssignmentAndStudent(ctx context.Context, assignmentID, studentID int64) (Submission, error) {
	return scanSubmission(r.pool.QueryRow(ctx,
		submissionSelect+` WHERE s.assignment_id = $1 AND s.student_id = $2`, assignmentID, studentID))
}

// Upsert inserts the submission or replaces a prior ungraded one.
func (r *Repository) Upsert(ctx context.Context, s Submission) (Submission, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO submissions (assignment_id, student_id, content, file_name, original_name, status, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (assignment_id, student_id)
		 DO UPDATE SET content = EXCLUDED.content, file_name = EXCLUDED.file_name,
		               original_name = EXCLUDED.original_name, status = EXCLUDED.status,
		               submitted_at = EXCLUDED.submitted_at
		 RETURNING id`,
		s.AssignmentID, s.StudentID, s.Content, s.FileName, s.OriginalName, s.Status, s.SubmittedAt).Scan(&id)
	if err != nil {
		return Submission{}, err
	}
	return r.FindByID(ctx, id)
}

// Grade records a score and feedback.
func (r *Repository) Grade(ctx context.Context, id int64, score int, feedback string, at time.Time) (Submission, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions SET score = $2, feedback = $3, status = $4, graded_at = $5 WHERE id = $1`,
		id, score, feedback, StatusGraded, at)
	if err != nil {
		return Submission{}, err
	}
	if tag.RowsAffected() == 0 {
		return Submission{}, httpx.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// ListByAssignment returns all submissions for an assignment.
func (r *Repository) ListByAssignment(ctx context.Context, assignmentID int64) ([]Submission, error) {
	rows, err := r.pool.Query(ctx, submissionSelect+` WHERE s.assignment_id = $1 ORDER BY s.submitted_at`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
