package router

import (
	"log/slog"
	"net/http"
	"slices"

	"course-portal/internal/observability"
)

// LoginPath is where denied visitors are sent
const LoginPath = "/login"

// PublicPaths may be visited without a session. Matching is exact: "/login/"
// and "/courses/" are not public.
var PublicPaths = []string{"/login", "/register", "/"}

// SessionSource reports whether the visitor behind r holds a session
type SessionSource func(r *http.Request) bool

// Decision is the outcome of one navigation check
type Decision struct {
	AuthRequired bool
	Allow        bool
	Redirect     string
}

// Guard decides whether a navigation may proceed
type Guard struct {
	public  []string
	routes  []Route
	session SessionSource
}

// NewGuard creates a guard over the given page table
func NewGuard(routes []Route, session SessionSource) *Guard {
	return &Guard{
		public:  slices.Clone(PublicPaths),
		routes:  routes,
		session: session,
	}
}

// Decide is pure: it depends only on the target path and the predicate
func (g *Guard) Decide(path string, authenticated bool) Decision {
	required := !slices.Contains(g.public, path)
	if required && !authenticated {
		return Decision{AuthRequired: true, Allow: false, Redirect: LoginPath}
	}
	return Decision{AuthRequired: required, Allow: true}
}

// Middleware redirects anonymous visitors of protected paths to the login
// page with 302 Found
func (g *Guard) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Decide(r.URL.Path, g.session != nil && g.session(r))
			if d.Allow {
				next.ServeHTTP(w, r)
				return
			}

			route := "unknown"
			if matched, ok := Lookup(g.routes, r.URL.Path); ok {
				route = matched.Name
			}
			observability.GuardRedirectsTotal.WithLabelValues(route).Inc()
			observability.FromContext(r.Context()).Debug("navigation denied",
				slog.String("path", r.URL.Path),
				slog.String("route", route))

			http.Redirect(w, r, d.Redirect, http.StatusFound)
		})
	}
}
