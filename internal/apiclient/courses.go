package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"course-portal/internal/domain"
)

// CoursesAPI calls the course endpoints. It implements domain.CourseService.
type CoursesAPI struct {
	client *Client
}

func NewCoursesAPI(client *Client) *CoursesAPI {
	return &CoursesAPI{client: client}
}

func (a *CoursesAPI) List(ctx context.Context) ([]domain.Course, error) {
	var courses []domain.Course
	err := a.client.send(ctx, call{method: http.MethodGet, path: "/courses", endpoint: "/courses"}, &courses)
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (a *CoursesAPI) Get(ctx context.Context, id string) (*domain.Course, error) {
	var course domain.Course
	err := a.client.send(ctx, coursePath(http.MethodGet, id, nil), &course)
	if err != nil {
		return nil, notFound(err)
	}
	return &course, nil
}

func (a *CoursesAPI) Create(ctx context.Context, course domain.Course) (*domain.Course, error) {
	course.ID = ""
	var created domain.Course
	err := a.client.send(ctx, call{method: http.MethodPost, path: "/courses", endpoint: "/courses", body: course}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (a *CoursesAPI) Update(ctx context.Context, id string, course domain.Course) (*domain.Course, error) {
	course.ID = domain.ID(id)
	var updated domain.Course
	err := a.client.send(ctx, coursePath(http.MethodPut, id, course), &updated)
	if errors.Is(err, errEmptyBody) {
		// some backends answer 204 to PUT; the submitted course is then current
		return &course, nil
	}
	if err != nil {
		return nil, notFound(err)
	}
	return &updated, nil
}

func (a *CoursesAPI) Delete(ctx context.Context, id string) error {
	return notFound(a.client.send(ctx, coursePath(http.MethodDelete, id, nil), nil))
}

func coursePath(method, id string, body any) call {
	return call{
		method:   method,
		path:     "/courses/" + url.PathEscape(id),
		endpoint: "/courses/{id}",
		body:     body,
	}
}

// notFound maps a 404 onto domain.ErrCourseNotFound
func notFound(err error) error {
	var respErr *ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return errors.Join(domain.ErrCourseNotFound, err)
	}
	return err
}
