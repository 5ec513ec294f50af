package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"course-portal/internal/domain"
	"course-portal/internal/session"
	"course-portal/internal/storage"
	"course-portal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: baseURL, Timeout: 2 * time.Second}, opts...)
	require.NoError(t, err)
	return c
}

func newSignedInStore(t *testing.T, token string) (*session.Store, *storage.MemoryStore) {
	t.Helper()
	kv := storage.NewMemoryStore()
	store := session.NewStore(kv)
	require.NoError(t, store.Replace(context.Background(), domain.Grant{Token: token, User: &domain.User{ID: "1"}}))
	return store, kv
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "localhost:5129"})
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := NewClient(Config{BaseURL: "http://localhost:5129/api/v1/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5129/api/v1", c.BaseURL())
}

func TestClient_AttachesBearerToken(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.AddUser(testutil.NewTestUser(testutil.WithEmail("a@b.com")), "pw")
	token := backend.Issue("a@b.com")
	store, _ := newSignedInStore(t, token)

	client := newTestClient(t, backend.BaseURL()).Bind(store, &testutil.RecordingNavigator{})

	_, err := NewCoursesAPI(client).List(context.Background())
	require.NoError(t, err)

	last := backend.LastRequest()
	assert.Equal(t, "Bearer "+token, last.Authorization)
	assert.Equal(t, "application/json", last.ContentType)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	anonymous := session.NewStore(storage.NewMemoryStore())

	tests := []struct {
		name   string
		client *Client
	}{
		{"anonymous_session", newTestClient(t, backend.BaseURL()).Bind(anonymous, nil)},
		{"unbound_client", newTestClient(t, backend.BaseURL())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _ = NewAuthAPI(tt.client).Login(context.Background(), domain.Credentials{Email: "x@y.z", Password: "pw"})
			assert.Empty(t, backend.LastRequest().Authorization)
		})
	}
}

func TestClient_AuthFailureExpiresSessionAndNavigates(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			backend := testutil.NewFakeBackend(t)
			backend.ForceStatus(status)
			store, kv := newSignedInStore(t, "T")
			nav := &testutil.RecordingNavigator{}

			client := newTestClient(t, backend.BaseURL()).Bind(store, nav)
			_, err := NewCoursesAPI(client).List(context.Background())

			// the original failure still reaches the caller
			var respErr *ResponseError
			require.ErrorAs(t, err, &respErr)
			assert.Equal(t, status, respErr.StatusCode)
			assert.ErrorIs(t, err, domain.ErrSessionExpired)

			assert.False(t, store.IsAuthenticated())
			assert.Zero(t, kv.Len(), "durable token and user removed")
			assert.Equal(t, []string{LoginPath}, nav.Targets)
		})
	}
}

func TestClient_OneNavigationPerResponse(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.ForceStatus(http.StatusUnauthorized)
	store, _ := newSignedInStore(t, "T")
	nav := &testutil.RecordingNavigator{}
	courses := NewCoursesAPI(newTestClient(t, backend.BaseURL()).Bind(store, nav))

	for i := 0; i < 3; i++ {
		_, _ = courses.List(context.Background())
	}

	assert.Equal(t, 3, nav.Count())
}

func TestClient_OtherErrorsPassThrough(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"bad_request", http.StatusBadRequest},
		{"not_found", http.StatusNotFound},
		{"conflict", http.StatusConflict},
		{"server_error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewFakeBackend(t)
			backend.ForceStatus(tt.status)
			store, _ := newSignedInStore(t, "T")
			nav := &testutil.RecordingNavigator{}

			err := newTestClient(t, backend.BaseURL()).Bind(store, nav).Do(context.Background(), http.MethodGet, "/anything", nil, nil)

			var respErr *ResponseError
			require.ErrorAs(t, err, &respErr)
			assert.Equal(t, tt.status, respErr.StatusCode)
			assert.NotErrorIs(t, err, domain.ErrSessionExpired)
			assert.True(t, store.IsAuthenticated())
			assert.Zero(t, nav.Count())
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	store, _ := newSignedInStore(t, "T")
	nav := &testutil.RecordingNavigator{}
	client := newTestClient(t, baseURL).Bind(store, nav)

	err := client.Do(context.Background(), http.MethodGet, "/courses", nil, nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, domain.ErrTransportFailure)
	assert.True(t, store.IsAuthenticated())
	assert.Zero(t, nav.Count())
}

func TestClient_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":`))
	}))
	defer server.Close()

	_, err := NewAuthAPI(newTestClient(t, server.URL)).Login(context.Background(), domain.Credentials{})

	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClient_NeverRetries(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.ForceStatus(http.StatusServiceUnavailable)

	_ = newTestClient(t, backend.BaseURL()).Do(context.Background(), http.MethodGet, "/courses", nil, nil)

	assert.Len(t, backend.Requests(), 1)
}

func TestClient_DefaultHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c, err := NewClient(Config{BaseURL: server.URL, Headers: map[string]string{"X-Client": "course-portal"}})
	require.NoError(t, err)
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/", nil, nil))

	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "course-portal", got.Get("X-Client"))
}

func TestResponseError_Message(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message_field", `{"message":"Invalid email or password"}`, "Invalid email or password"},
		{"problem_details", `{"title":"Conflict","detail":"Email taken"}`, "Email taken"},
		{"string_list", `["Passwords must match","Too short"]`, "Passwords must match; Too short"},
		{"plain_text", "Unauthorized", "Unauthorized"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &ResponseError{StatusCode: 400, Body: []byte(tt.body)}
			assert.Equal(t, tt.want, e.Message())
		})
	}
}

func TestResponseError_MessageTruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("a", maxMessageLen-1) + strings.Repeat("é", 10)
	e := &ResponseError{StatusCode: 400, Body: []byte(body)}

	msg := e.Message()

	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, strings.Repeat("a", maxMessageLen-1)+"…", msg)
}

func TestResponseError_IsOnlySessionExpiredFor401And403(t *testing.T) {
	assert.True(t, errors.Is(&ResponseError{StatusCode: 401}, domain.ErrSessionExpired))
	assert.True(t, errors.Is(&ResponseError{StatusCode: 403}, domain.ErrSessionExpired))
	assert.False(t, errors.Is(&ResponseError{StatusCode: 404}, domain.ErrSessionExpired))
}
