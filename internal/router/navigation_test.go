package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavigation_FirstTargetWins(t *testing.T) {
	n := NewNavigation()
	_, ok := n.Target()
	assert.False(t, ok)

	n.Navigate(context.Background(), "/login")
	n.Navigate(context.Background(), "/elsewhere")

	target, ok := n.Target()
	assert.True(t, ok)
	assert.Equal(t, "/login", target)
	assert.Equal(t, 2, n.Count())
}

func TestRedirected(t *testing.T) {
	nav := NewNavigation()
	req := httptest.NewRequest(http.MethodPost, "/courses/new", nil)
	req = req.WithContext(WithNavigation(req.Context(), nav))

	w := httptest.NewRecorder()
	assert.False(t, Redirected(w, req))
	assert.Equal(t, http.StatusOK, w.Code)

	nav.Navigate(req.Context(), LoginPath)
	w = httptest.NewRecorder()
	assert.True(t, Redirected(w, req))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
}

func TestNavigationFrom_Detached(t *testing.T) {
	n := NavigationFrom(context.Background())
	assert.NotNil(t, n)
	assert.Zero(t, n.Count())
}
