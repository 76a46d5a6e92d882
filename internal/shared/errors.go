package shared

import "errors"

var (
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrDeadlinePassed indicates a submission arrived after the deadline.
	ErrDeadlinePassed = errors.New("assignment deadline has passed")
	// ErrAlreadyEnrolled indicates a duplicate enrollment attempt.
	ErrAlreadyEnrolled = errors.New("already enrolled in course")
)
