package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrAuthenticationRejected = errors.New("authentication rejected")
	ErrSessionExpired         = errors.New("session expired")
	ErrStorageCorrupt         = errors.New("stored session is corrupt")
	ErrTransportFailure       = errors.New("transport failure")
	ErrKeyNotFound            = errors.New("key not found")
)

// Durable storage keys for the session record
const (
	TokenKey = "token"
	UserKey  = "user"
)

// ID accepts both numeric and string identifiers from the backend
type ID string

// MarshalJSON emits canonical integers as JSON numbers and everything else,
// including "007" and "+5", as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// User is the profile returned by the backend alongside a token
type User struct {
	ID       ID     `json:"id"`
	Email    string `json:"email,omitempty"`
	UserName string `json:"userName,omitempty"`
}

// DisplayName returns the best human-readable label for the user
func (u *User) DisplayName() string {
	switch {
	case u == nil:
		return ""
	case u.UserName != "":
		return u.UserName
	case u.Email != "":
		return u.Email
	default:
		return string(u.ID)
	}
}

// Grant is the success payload of the login and registration endpoints
type Grant struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Credentials is the login request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the registration request body. ConfirmPassword is passed
// through to the backend unchecked.
type Registration struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	UserName        string `json:"userName"`
	ConfirmPassword string `json:"confirmPassword"`
}

// AuthBackend issues grants for credentials
type AuthBackend interface {
	Login(ctx context.Context, creds Credentials) (*Grant, error)
	Register(ctx context.Context, reg Registration) (*Grant, error)
}

// RejectedError reports a login or registration the backend refused
type RejectedError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authentication rejected (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("authentication rejected (status %d)", e.StatusCode)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrAuthenticationRejected
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}
