package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"course-portal/internal/domain"
	"course-portal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCoursesAPI(t *testing.T, backend *testutil.FakeBackend) *CoursesAPI {
	t.Helper()
	backend.AddUser(testutil.NewTestUser(testutil.WithEmail("a@b.com")), "pw")
	store, _ := newSignedInStore(t, backend.Issue("a@b.com"))
	return NewCoursesAPI(newTestClient(t, backend.BaseURL()).Bind(store, &testutil.RecordingNavigator{}))
}

func TestCoursesAPI_CRUD(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewFakeBackend(t)
	api := newCoursesAPI(t, backend)

	created, err := api.Create(ctx, domain.Course{Title: "Go 101", Description: "Intro"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := api.Get(ctx, string(created.ID))
	require.NoError(t, err)
	assert.Equal(t, "Go 101", got.Title)

	updated, err := api.Update(ctx, string(created.ID), domain.Course{Title: "Go 102"})
	require.NoError(t, err)
	assert.Equal(t, "Go 102", updated.Title)

	list, err := api.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Go 102", list[0].Title)

	require.NoError(t, api.Delete(ctx, string(created.ID)))
	_, err = api.Get(ctx, string(created.ID))
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)
}

func TestCoursesAPI_DeleteMissing(t *testing.T) {
	api := newCoursesAPI(t, testutil.NewFakeBackend(t))

	err := api.Delete(context.Background(), "404")

	assert.ErrorIs(t, err, domain.ErrCourseNotFound)
}

func TestCoursesAPI_UpdateNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	api := NewCoursesAPI(newTestClient(t, server.URL))
	updated, err := api.Update(context.Background(), "7", domain.Course{Title: "Kept"})

	require.NoError(t, err)
	assert.Equal(t, domain.ID("7"), updated.ID)
	assert.Equal(t, "Kept", updated.Title)
}
