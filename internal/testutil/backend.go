package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"course-portal/internal/domain"

	"github.com/go-chi/chi/v5"
)

// RecordedRequest is what FakeBackend saw for one call
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          string
}

// FakeBackend is an in-process imitation of the course API under /api/v1.
// Tokens it issues are accepted on the course endpoints until revoked.
type FakeBackend struct {
	Server *httptest.Server

	mu        sync.Mutex
	passwords map[string]string
	users     map[string]*domain.User
	tokens    map[string]string // token -> email
	courses   map[string]domain.Course
	nextID    int
	requests  []RecordedRequest
	forced    int
}

// NewFakeBackend starts a backend and closes it when the test ends
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		passwords: map[string]string{},
		users:     map[string]*domain.User{},
		tokens:    map[string]string{},
		courses:   map[string]domain.Course{},
	}

	r := chi.NewRouter()
	r.Use(b.record)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", b.login)
		r.Post("/auth/register", b.register)
		r.Group(func(r chi.Router) {
			r.Use(b.authorize)
			r.Get("/courses", b.listCourses)
			r.Post("/courses", b.createCourse)
			r.Get("/courses/{id}", b.getCourse)
			r.Put("/courses/{id}", b.updateCourse)
			r.Delete("/courses/{id}", b.deleteCourse)
		})
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// BaseURL returns the API base including /api/v1
func (b *FakeBackend) BaseURL() string {
	return b.Server.URL + "/api/v1"
}

// AddUser registers an account directly
func (b *FakeBackend) AddUser(user *domain.User, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[user.Email] = user
	b.passwords[user.Email] = password
}

// Issue creates a token for an existing user without going through login
func (b *FakeBackend) Issue(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	token := fmt.Sprintf("token-%d", b.nextID)
	b.tokens[token] = email
	return token
}

// Revoke invalidates a token so the next call with it gets 401
func (b *FakeBackend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

// AddCourse stores a course and returns it with an assigned ID
func (b *FakeBackend) AddCourse(c domain.Course) domain.Course {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	c.ID = domain.ID(fmt.Sprintf("%d", b.nextID))
	b.courses[string(c.ID)] = c
	return c
}

// ForceStatus answers every later request with status; 0 restores normal
// behavior
func (b *FakeBackend) ForceStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forced = status
}

// Requests returns a copy of every recorded request
func (b *FakeBackend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest returns the most recent request
func (b *FakeBackend) LastRequest() RecordedRequest {
	reqs := b.Requests()
	if len(reqs) == 0 {
		return RecordedRequest{}
	}
	return reqs[len(reqs)-1]
}

func (b *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          string(body),
		})
		forced := b.forced
		b.mu.Unlock()

		if forced != 0 {
			writeJSON(w, forced, map[string]string{"message": http.StatusText(forced)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		_, valid := b.tokens[token]
		b.mu.Unlock()

		if !ok || !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	password, known := b.passwords[creds.Email]
	user := b.users[creds.Email]
	b.mu.Unlock()

	if !known || password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		return
	}
	writeJSON(w, http.StatusOK, domain.Grant{Token: b.Issue(creds.Email), User: user})
}

func (b *FakeBackend) register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	_, exists := b.users[reg.Email]
	b.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Email already registered"})
		return
	}

	user := NewTestUser(WithEmail(reg.Email), WithUserName(reg.UserName))
	b.AddUser(user, reg.Password)
	writeJSON(w, http.StatusOK, domain.Grant{Token: b.Issue(reg.Email), User: user})
}

func (b *FakeBackend) listCourses(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	courses := make([]domain.Course, 0, len(b.courses))
	for _, c := range b.courses {
		courses = append(courses, c)
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, courses)
}

func (b *FakeBackend) getCourse(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	c, ok := b.courses[chi.URLParam(r, "id")]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Course not found"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (b *FakeBackend) createCourse(w http.ResponseWriter, r *http.Request) {
	var c domain.Course
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	writeJSON(w, http.StatusCreated, b.AddCourse(c))
}

func (b *FakeBackend) updateCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var c domain.Course
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	_, ok := b.courses[id]
	if ok {
		c.ID = domain.ID(id)
		b.courses[id] = c
	}
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Course not found"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (b *FakeBackend) deleteCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	_, ok := b.courses[id]
	delete(b.courses, id)
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Course not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
