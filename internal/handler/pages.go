package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"course-portal/internal/apiclient"
	"course-portal/internal/domain"
	"course-portal/internal/middleware"
	"course-portal/internal/observability"
	"course-portal/internal/router"
	"course-portal/internal/session"
	"course-portal/internal/storage"
)

// Pages renders the portal. Each request talks to the backend through the
// API client bound to that browser's session.
type Pages struct {
	client *apiclient.Client
	view   *renderer
}

// NewPages creates the page handlers around an unbound API client
func NewPages(client *apiclient.Client) (*Pages, error) {
	view, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &Pages{client: client, view: view}, nil
}

// Components wires the pages into the route table. authPost wraps the login
// and registration submissions, e.g. with a rate limiter.
func (p *Pages) Components(authPost ...func(http.Handler) http.Handler) router.Components {
	wrap := func(h http.HandlerFunc) http.HandlerFunc {
		var handler http.Handler = h
		for i := len(authPost) - 1; i >= 0; i-- {
			handler = authPost[i](handler)
		}
		return handler.ServeHTTP
	}

	return router.Components{
		Home:       router.Component{Get: p.Home},
		Login:      router.Component{Get: p.LoginForm, Post: wrap(p.Login)},
		Register:   router.Component{Get: p.RegisterForm, Post: wrap(p.Register)},
		Logout:     router.Component{Post: p.Logout},
		Courses:    router.Component{Get: p.ListCourses},
		NewCourse:  router.Component{Get: p.NewCourseForm, Post: p.CreateCourse},
		EditCourse: router.Component{Get: p.EditCourseForm, Post: p.SaveCourse},
	}
}

// bind returns the API client and session manager for the request's browser
func (p *Pages) bind(r *http.Request) (*apiclient.Client, *session.Manager) {
	store, ok := middleware.GetStore(r.Context())
	if !ok {
		store = session.NewStore(storage.NewMemoryStore())
	}
	client := p.client.Bind(store, router.NavigationFrom(r.Context()))
	return client, session.NewManager(store, apiclient.NewAuthAPI(client))
}

func (p *Pages) Home(w http.ResponseWriter, r *http.Request) {
	p.view.render(w, r, http.StatusOK, "home", pageData{Title: "Home"})
}

func (p *Pages) LoginForm(w http.ResponseWriter, r *http.Request) {
	p.view.render(w, r, http.StatusOK, "login", pageData{Title: "Log in"})
}

// Login handles the login form. A rejection stays on the form with the
// backend's message instead of following the forced navigation, which would
// only land on this same page.
func (p *Pages) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	form := map[string]string{"email": strings.TrimSpace(r.PostFormValue("email"))}

	_, manager := p.bind(r)
	if _, err := manager.Login(r.Context(), form["email"], r.PostFormValue("password")); err != nil {
		status, msg := authFailure(err)
		p.view.render(w, r, status, "login", pageData{Title: "Log in", Error: msg, Form: form})
		return
	}

	http.Redirect(w, r, "/courses", http.StatusSeeOther)
}

func (p *Pages) RegisterForm(w http.ResponseWriter, r *http.Request) {
	p.view.render(w, r, http.StatusOK, "register", pageData{Title: "Register"})
}

// Register handles the registration form. The password confirmation is sent
// to the backend as entered. Like Login, a rejection stays on the form.
func (p *Pages) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	form := map[string]string{
		"email":    strings.TrimSpace(r.PostFormValue("email")),
		"userName": strings.TrimSpace(r.PostFormValue("userName")),
	}

	_, manager := p.bind(r)
	_, err := manager.Register(r.Context(),
		form["email"],
		r.PostFormValue("password"),
		form["userName"],
		r.PostFormValue("confirmPassword"))
	if err != nil {
		status, msg := authFailure(err)
		p.view.render(w, r, status, "register", pageData{Title: "Register", Error: msg, Form: form})
		return
	}

	http.Redirect(w, r, "/courses", http.StatusSeeOther)
}

func (p *Pages) Logout(w http.ResponseWriter, r *http.Request) {
	_, manager := p.bind(r)
	manager.Logout(r.Context())
	http.Redirect(w, r, router.LoginPath, http.StatusSeeOther)
}

// authFailure picks the status and message shown on a rejected auth form
func authFailure(err error) (int, string) {
	var rejected *domain.RejectedError
	switch {
	case errors.As(err, &rejected):
		msg := rejected.Message
		if msg == "" {
			msg = "The credentials were not accepted"
		}
		status := rejected.StatusCode
		if status < 400 || status >= 500 {
			status = http.StatusUnauthorized
		}
		return status, msg
	case errors.Is(err, domain.ErrTransportFailure):
		return http.StatusBadGateway, "The course service is unreachable, please try again later"
	default:
		return http.StatusBadGateway, "Something went wrong, please try again"
	}
}

// fail renders the error page for a failed backend call unless the call
// already forced a navigation
func (p *Pages) fail(w http.ResponseWriter, r *http.Request, err error) {
	if router.Redirected(w, r) {
		return
	}

	var respErr *apiclient.ResponseError
	status, title := http.StatusBadGateway, "The course service returned an error"
	switch {
	case errors.Is(err, domain.ErrCourseNotFound):
		status, title = http.StatusNotFound, "Course not found"
	case errors.Is(err, domain.ErrTransportFailure):
		title = "The course service is unreachable"
	case errors.Is(err, apiclient.ErrMalformedResponse):
		title = "The course service sent an unexpected response"
	case errors.As(err, &respErr) && respErr.StatusCode < 500:
		status = respErr.StatusCode
		if msg := respErr.Message(); msg != "" {
			title = msg
		}
	}

	observability.FromContext(r.Context()).Warn("backend call failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()))
	p.view.render(w, r, status, "error", pageData{Title: title})
}
