package enrollment

import "time"

// Enrollment links a student to a course.
type Enrollment struct {
	StudentID  int64     `json:"studentId"`
	CourseID   int64     `json:"courseId"`
	CourseName string    `json:"courseName,omitempty"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

// Student is the roster view of an enrolled student.
type Student struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	RealName   string    `json:"realName"`
	EnrolledAt time.Time `json:"enrolledAt"`
}
