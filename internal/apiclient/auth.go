package apiclient

import (
	"context"
	"net/http"

	"course-portal/internal/domain"
)

// AuthAPI calls the authentication endpoints. It implements
// domain.AuthBackend.
type AuthAPI struct {
	client *Client
}

func NewAuthAPI(client *Client) *AuthAPI {
	return &AuthAPI{client: client}
}

func (a *AuthAPI) Login(ctx context.Context, creds domain.Credentials) (*domain.Grant, error) {
	var grant domain.Grant
	err := a.client.send(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/login",
		endpoint: "/auth/login",
		body:     creds,
	}, &grant)
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func (a *AuthAPI) Register(ctx context.Context, reg domain.Registration) (*domain.Grant, error) {
	var grant domain.Grant
	err := a.client.send(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/register",
		endpoint: "/auth/register",
		body:     reg,
	}, &grant)
	if err != nil {
		return nil, err
	}
	return &grant, nil
}
