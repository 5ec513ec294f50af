package router

import (
	"context"
	"net/http"
	"sync"
)

type navigationKey struct{}

// Navigation records forced navigations raised while serving one request
type Navigation struct {
	mu     sync.Mutex
	target string
	count  int
}

func NewNavigation() *Navigation {
	return &Navigation{}
}

// Navigate records path as the destination. The first target wins.
func (n *Navigation) Navigate(ctx context.Context, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.count == 0 {
		n.target = path
	}
	n.count++
}

// Target returns the recorded destination, if any
func (n *Navigation) Target() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target, n.count > 0
}

// Count returns how many navigations were requested
func (n *Navigation) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

func WithNavigation(ctx context.Context, n *Navigation) context.Context {
	return context.WithValue(ctx, navigationKey{}, n)
}

// NavigationFrom returns the request's Navigation, or a detached one
func NavigationFrom(ctx context.Context) *Navigation {
	if n, ok := ctx.Value(navigationKey{}).(*Navigation); ok {
		return n
	}
	return NewNavigation()
}

// Redirected finishes the response with 303 See Other when a forced
// navigation was recorded for r. Handlers return immediately when it reports
// true.
func Redirected(w http.ResponseWriter, r *http.Request) bool {
	target, ok := NavigationFrom(r.Context()).Target()
	if !ok {
		return false
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
	return true
}
