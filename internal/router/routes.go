// Package router holds the static page table and the navigation guard that
// keeps anonymous visitors out of protected pages.
package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Route names
const (
	RouteHome         = "home"
	RouteLogin        = "login"
	RouteRegister     = "register"
	RouteLogout       = "logout"
	RouteCourses      = "courses"
	RouteCourseCreate = "course-create"
	RouteCourseEdit   = "course-edit"
)

// Component renders one page. Nil methods are not mounted.
type Component struct {
	Get  http.HandlerFunc
	Post http.HandlerFunc
}

// Components supplies a Component for every route in the table
type Components struct {
	Home       Component
	Login      Component
	Register   Component
	Logout     Component
	Courses    Component
	NewCourse  Component
	EditCourse Component
}

// Route binds a path pattern to a page
type Route struct {
	Path      string
	Name      string
	Component Component
}

// Routes returns the page table. It does not change after startup.
func Routes(c Components) []Route {
	return []Route{
		{Path: "/", Name: RouteHome, Component: c.Home},
		{Path: "/login", Name: RouteLogin, Component: c.Login},
		{Path: "/register", Name: RouteRegister, Component: c.Register},
		{Path: "/logout", Name: RouteLogout, Component: c.Logout},
		{Path: "/courses", Name: RouteCourses, Component: c.Courses},
		{Path: "/courses/new", Name: RouteCourseCreate, Component: c.NewCourse},
		{Path: "/courses/{id}", Name: RouteCourseEdit, Component: c.EditCourse},
	}
}

// Mount registers every route on r
func Mount(r chi.Router, routes []Route) {
	for _, route := range routes {
		if route.Component.Get != nil {
			r.Get(route.Path, route.Component.Get)
		}
		if route.Component.Post != nil {
			r.Post(route.Path, route.Component.Post)
		}
	}
}

// Param returns a path parameter of the matched route, e.g. Param(r, "id")
func Param(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// Lookup finds the route whose pattern matches path
func Lookup(routes []Route, path string) (Route, bool) {
	for _, route := range routes {
		if matches(route.Path, path) {
			return route, true
		}
	}
	return Route{}, false
}

// matches compares a chi pattern with a concrete path segment by segment.
// Literal segments win over parameters because the table lists them first.
func matches(pattern, path string) bool {
	ps := strings.Split(pattern, "/")
	xs := strings.Split(path, "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], "{") && strings.HasSuffix(ps[i], "}") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
