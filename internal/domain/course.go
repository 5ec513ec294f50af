package domain

import (
	"context"
	"errors"
)

var ErrCourseNotFound = errors.New("course not found")

// Course represents a course managed through the backend API
type Course struct {
	ID          ID     `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CourseService defines the course operations the pages depend on
type CourseService interface {
	List(ctx context.Context) ([]Course, error)
	Get(ctx context.Context, id string) (*Course, error)
	Create(ctx context.Context, course Course) (*Course, error)
	Update(ctx context.Context, id string, course Course) (*Course, error)
	Delete(ctx context.Context, id string) error
}
