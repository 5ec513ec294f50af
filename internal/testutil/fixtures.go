package testutil

import (
	"fmt"
	"sync/atomic"

	"course-portal/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// nextID generates a unique ID for test fixtures
func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// UserOptions allows customizing user fixture creation
type UserOptions struct {
	ID       string
	Email    string
	UserName string
}

// NewTestUser creates a test user with sensible defaults
// Pass options to override specific fields
func NewTestUser(opts ...func(*UserOptions)) *domain.User {
	o := &UserOptions{
		ID:       nextID("user"),
		UserName: fmt.Sprintf("student%d", idCounter.Load()),
	}

	for _, opt := range opts {
		opt(o)
	}

	// Set email based on user name if not provided
	if o.Email == "" {
		o.Email = o.UserName + "@example.com"
	}

	return &domain.User{
		ID:       domain.ID(o.ID),
		Email:    o.Email,
		UserName: o.UserName,
	}
}

// WithUserID sets the user ID
func WithUserID(id string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.ID = id
	}
}

// WithEmail sets the email
func WithEmail(email string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Email = email
	}
}

// WithUserName sets the user name
func WithUserName(name string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.UserName = name
	}
}

// NewTestGrant creates a grant for a fresh test user
func NewTestGrant(opts ...func(*UserOptions)) *domain.Grant {
	return &domain.Grant{
		Token: nextID("token"),
		User:  NewTestUser(opts...),
	}
}

// NewTestCourse creates a course with sensible defaults
func NewTestCourse(title string) domain.Course {
	return domain.Course{
		ID:          domain.ID(nextID("course")),
		Title:       title,
		Description: title + " description",
	}
}
