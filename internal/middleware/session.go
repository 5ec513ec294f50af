package middleware

import (
	"context"
	"net/http"
	"time"

	"course-portal/internal/observability"
	"course-portal/internal/router"
	"course-portal/internal/session"

	"github.com/google/uuid"
)

type contextKey string

const (
	StoreKey    contextKey = "session_store"
	ClientIDKey contextKey = "client_id"
)

// ClientCookie identifies one browser across requests
const ClientCookie = "client_id"

const clientCookieMaxAge = 365 * 24 * time.Hour

// StoreFactory returns the session store for a browser
type StoreFactory func(clientID string) *session.Store

// SessionOptions configures the client cookie
type SessionOptions struct {
	Secure bool
}

// Session identifies the browser by its client_id cookie, issuing a new one
// when it is missing or not a UUID, and loads that browser's session store
// into the request context together with a fresh Navigation.
func Session(factory StoreFactory, opts SessionOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ""
			if cookie, err := r.Cookie(ClientCookie); err == nil {
				if id, err := uuid.Parse(cookie.Value); err == nil {
					clientID = id.String()
				}
			}
			if clientID == "" {
				clientID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     ClientCookie,
					Value:    clientID,
					Path:     "/",
					MaxAge:   int(clientCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := observability.WithClientID(r.Context(), clientID)
			store := factory(clientID)
			store.Initialize(ctx)

			ctx = context.WithValue(ctx, ClientIDKey, clientID)
			ctx = context.WithValue(ctx, StoreKey, store)
			ctx = router.WithNavigation(ctx, router.NewNavigation())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetStore(ctx context.Context) (*session.Store, bool) {
	store, ok := ctx.Value(StoreKey).(*session.Store)
	return store, ok
}

func GetClientID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ClientIDKey).(string)
	return id, ok
}

func WithStore(ctx context.Context, store *session.Store) context.Context {
	return context.WithValue(ctx, StoreKey, store)
}

// Authenticated is the guard's session predicate
func Authenticated(r *http.Request) bool {
	store, ok := GetStore(r.Context())
	return ok && store.IsAuthenticated()
}
