package handler

import (
	"net/http"
	"strings"

	"course-portal/internal/apiclient"
	"course-portal/internal/domain"
	"course-portal/internal/router"
)

const deleteAction = "delete"

func (p *Pages) courses(r *http.Request) *apiclient.CoursesAPI {
	client, _ := p.bind(r)
	return apiclient.NewCoursesAPI(client)
}

func (p *Pages) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := p.courses(r).List(r.Context())
	if err != nil {
		p.fail(w, r, err)
		return
	}
	p.view.render(w, r, http.StatusOK, "courses", pageData{Title: "Courses", Courses: courses})
}

func (p *Pages) NewCourseForm(w http.ResponseWriter, r *http.Request) {
	p.view.render(w, r, http.StatusOK, "course_form", pageData{Title: "New course", Course: &domain.Course{}})
}

func (p *Pages) CreateCourse(w http.ResponseWriter, r *http.Request) {
	course, ok := p.courseForm(w, r, "")
	if !ok {
		return
	}

	created, err := p.courses(r).Create(r.Context(), course)
	if err != nil {
		p.fail(w, r, err)
		return
	}

	target := "/courses"
	if created.ID != "" {
		target = "/courses/" + string(created.ID)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (p *Pages) EditCourseForm(w http.ResponseWriter, r *http.Request) {
	course, err := p.courses(r).Get(r.Context(), router.Param(r, "id"))
	if err != nil {
		p.fail(w, r, err)
		return
	}
	p.view.render(w, r, http.StatusOK, "course_form", pageData{Title: course.Title, Course: course})
}

// SaveCourse updates the course, or deletes it when the form carries
// _action=delete
func (p *Pages) SaveCourse(w http.ResponseWriter, r *http.Request) {
	id := router.Param(r, "id")
	api := p.courses(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	if r.PostFormValue("_action") == deleteAction {
		if err := api.Delete(r.Context(), id); err != nil {
			p.fail(w, r, err)
			return
		}
		http.Redirect(w, r, "/courses", http.StatusSeeOther)
		return
	}

	course, ok := p.courseForm(w, r, id)
	if !ok {
		return
	}
	if _, err := api.Update(r.Context(), id, course); err != nil {
		p.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/courses", http.StatusSeeOther)
}

// courseForm reads and validates the submitted course. On failure the form is
// re-rendered and ok is false.
func (p *Pages) courseForm(w http.ResponseWriter, r *http.Request, id string) (domain.Course, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return domain.Course{}, false
	}

	course := domain.Course{
		ID:          domain.ID(id),
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
	if course.Title == "" {
		title := "New course"
		if id != "" {
			title = "Edit course"
		}
		p.view.render(w, r, http.StatusUnprocessableEntity, "course_form",
			pageData{Title: title, Error: "Title is required", Course: &course})
		return course, false
	}
	return course, true
}
