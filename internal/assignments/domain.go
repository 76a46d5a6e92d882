package assignments

import "time"

// Assignment statuses.
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusClosed    = "CLOSED"
)

// Assignment represents homework attached to a course.
type Assignment struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CourseID    int64     `json:"courseId"`
	CourseName  string    `json:"courseName,omitempty"`
	Deadline    time.Time `json:"deadline"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
