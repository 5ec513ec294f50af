// Package session holds the client-side authentication state: the bearer
// token and user profile issued by the backend, mirrored to durable storage.
//
// State transitions are pure functions over State; Persister performs the
// storage I/O; Store combines both behind a mutex; Manager adds the login,
// register and logout operations on top of an auth backend.
package session

import (
	"encoding/json"
	"fmt"

	"course-portal/internal/domain"
)

// undefinedUser is what a browser writes when an absent user is stringified
const undefinedUser = "undefined"

// State is an immutable snapshot of the session. User is non-nil iff Token
// is non-empty.
type State struct {
	Token string
	User  *domain.User
}

// Anonymous returns the empty session
func Anonymous() State {
	return State{}
}

// Authenticate returns the session described by a backend grant
func Authenticate(g domain.Grant) State {
	return State{Token: g.Token, User: g.User}
}

// Authenticated reports whether a token is present
func (s State) Authenticated() bool {
	return s.Token != ""
}

// Record serializes the state into the values stored under the token and
// user keys
func (s State) Record() (token, user string, err error) {
	data, err := json.Marshal(s.User)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode user: %w", err)
	}
	return s.Token, string(data), nil
}

// Restore rebuilds a State from the stored token and user text. Two absent
// values are the anonymous session. A half-present record or an undecodable
// user is ErrStorageCorrupt.
func Restore(token, rawUser string) (State, error) {
	userAbsent := rawUser == "" || rawUser == undefinedUser || rawUser == "null"

	switch {
	case token == "" && userAbsent:
		return Anonymous(), nil
	case token == "":
		return Anonymous(), fmt.Errorf("user stored without token: %w", domain.ErrStorageCorrupt)
	case userAbsent:
		return Anonymous(), fmt.Errorf("token stored without user: %w", domain.ErrStorageCorrupt)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return Anonymous(), fmt.Errorf("user unreadable: %v: %w", err, domain.ErrStorageCorrupt)
	}
	return State{Token: token, User: &user}, nil
}
