package resources

import "time"

// Resource represents a teaching material uploaded to a course.
type Resource struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	FileName      string    `json:"fileName"`
	OriginalName  string    `json:"originalName"`
	FileSize      int64     `json:"fileSize"`
	Type          string    `json:"type"`
	CourseID      int64     `json:"courseId"`
	CourseName    string    `json:"courseName,omitempty"`
	UploaderID    int64     `json:"uploaderId"`
	DownloadCount int       `json:"downloadCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
