package courses

import "time"

// Course represents a taught course owned by exactly one teacher.
type Course struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TeacherID   int64     `json:"teacherId"`
	TeacherName string    `json:"teacherName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
