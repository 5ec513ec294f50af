package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"course-portal/internal/domain"
	"course-portal/internal/middleware"
	"course-portal/internal/observability"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "login", "register", "courses", "course_form", "error"}

// pageData is what every template receives
type pageData struct {
	Title         string
	Authenticated bool
	User          *domain.User
	Error         string
	Form          map[string]string
	Courses       []domain.Course
	Course        *domain.Course
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &renderer{pages: pages}, nil
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind
func (rn *renderer) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	if store, ok := middleware.GetStore(r.Context()); ok {
		snapshot := store.Snapshot()
		data.Authenticated = snapshot.Authenticated()
		data.User = snapshot.User
	}

	var buf bytes.Buffer
	if err := rn.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		observability.FromContext(r.Context()).Error("failed to render page",
			slog.String("page", page),
			slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
