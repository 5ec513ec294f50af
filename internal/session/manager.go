package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"course-portal/internal/domain"
	"course-portal/internal/observability"
)

// ErrIncompleteGrant is returned when the backend accepts credentials but
// omits the token or user
var ErrIncompleteGrant = errors.New("backend grant is missing token or user")

// Rejection lets backend errors describe themselves to the store without the
// store depending on the HTTP client. apiclient.ResponseError implements it.
type Rejection interface {
	error
	Status() int
	Message() string
}

// Manager performs login, registration and logout against a backend and
// records the outcome in a Store
type Manager struct {
	store   *Store
	backend domain.AuthBackend
}

func NewManager(store *Store, backend domain.AuthBackend) *Manager {
	return &Manager{store: store, backend: backend}
}

// Store returns the underlying session store
func (m *Manager) Store() *Store {
	return m.store
}

// Login exchanges credentials for a grant and installs it. On failure the
// session is left unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.Grant, error) {
	grant, err := m.backend.Login(ctx, domain.Credentials{Email: email, Password: password})
	return m.accept(ctx, "login", grant, err)
}

// Register creates an account and installs the resulting grant. The password
// confirmation is forwarded without comparing it to the password.
func (m *Manager) Register(ctx context.Context, email, password, userName, confirmPassword string) (*domain.Grant, error) {
	grant, err := m.backend.Register(ctx, domain.Registration{
		Email:           email,
		Password:        password,
		UserName:        userName,
		ConfirmPassword: confirmPassword,
	})
	return m.accept(ctx, "register", grant, err)
}

// Logout clears the session. It always succeeds.
func (m *Manager) Logout(ctx context.Context) {
	m.store.Clear(ctx)
	observability.SessionEventsTotal.WithLabelValues("logout", "ok").Inc()
}

// IsAuthenticated reports whether a token is present
func (m *Manager) IsAuthenticated() bool {
	return m.store.IsAuthenticated()
}

func (m *Manager) accept(ctx context.Context, event string, grant *domain.Grant, err error) (*domain.Grant, error) {
	log := observability.FromContext(ctx)

	if err != nil {
		observability.SessionEventsTotal.WithLabelValues(event, "rejected").Inc()
		var rejection Rejection
		if errors.As(err, &rejection) {
			log.Info("authentication rejected",
				slog.String("event", event),
				slog.Int("status", rejection.Status()))
			return nil, &domain.RejectedError{
				StatusCode: rejection.Status(),
				Message:    rejection.Message(),
				Err:        err,
			}
		}
		return nil, err
	}

	if grant == nil || grant.Token == "" || grant.User == nil {
		observability.SessionEventsTotal.WithLabelValues(event, "invalid").Inc()
		return nil, fmt.Errorf("%s: %w", event, ErrIncompleteGrant)
	}

	if err := m.store.Replace(ctx, *grant); err != nil {
		observability.SessionEventsTotal.WithLabelValues(event, "failed").Inc()
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	observability.SessionEventsTotal.WithLabelValues(event, "ok").Inc()
	log.Info("session established", slog.String("event", event), slog.String("user_id", string(grant.User.ID)))
	return grant, nil
}
