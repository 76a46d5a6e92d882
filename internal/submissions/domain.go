package submissions

import "time"

// Submission statuses.
const (
	StatusSubmitted = "SUBMITTED"
	StatusLate      = "LATE"
	StatusGraded    = "GRADED"
)

// Submission represents a student's answer to an assignment. A resubmission
// replaces the previous one until the assignment is graded.
type Submission struct {
	ID           int64      `json:"id"`
	AssignmentID int64      `json:"assignmentId"`
	StudentID    int64      `json:"studentId"`
	StudentName  string     `json:"studentName,omitempty"`
	Content      string     `json:"content"`
	FileName     string     `json:"fileName,omitempty"`
	OriginalName string     `json:"originalName,omitempty"`
	Status       string     `json:"status"`
	Score        *int       `json:"score,omitempty"`
	Feedback     string     `json:"feedback,omitempty"`
	SubmittedAt  time.Time  `json:"submittedAt"`
	GradedAt     *time.Time `json:"gradedAt,omitempty"`
}
