// Package session resolves the identity attached to a request and exposes
// auth change notifications. Credential issuance itself lives in the auth
// handlers; this package only answers "who is acting right now".
package session

import (
	"context"
	"sync"

	"alliancefeed/internal/models"
	"alliancefeed/internal/repository"
)

// Session identifies the authenticated actor for one operation. DisplayName
// is the name attributed to comments and compared for mutation rights.
type Session struct {
	UserID      uint
	DisplayName string
}

// Store resolves sessions against the user store and fans out auth change
// events to registered listeners.
type Store struct {
	users repository.UserRepository

	mu        sync.Mutex
	nextID    int
	listeners map[int]func(Session, bool)
}

// NewStore creates a session store backed by the given user repository.
func NewStore(users repository.UserRepository) *Store {
	return &Store{
		users:     users,
		listeners: make(map[int]func(Session, bool)),
	}
}

// Resolve looks up the display name for an authenticated user ID.
func (s *Store) Resolve(ctx context.Context, userID uint) (Session, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Session{}, models.NewUnauthorizedError("Unknown session")
	}
	return Session{UserID: user.ID, DisplayName: user.Username}, nil
}

// OnAuthChange registers a callback fired whenever login state changes.
// loggedIn is true on login/signup and false on logout. The returned
// function removes the listener.
func (s *Store) OnAuthChange(fn func(sess Session, loggedIn bool)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// NotifyAuthChange invokes every registered listener. Called by the auth
// handlers after a successful signup, login or logout.
func (s *Store) NotifyAuthChange(sess Session, loggedIn bool) {
	s.mu.Lock()
	fns := make([]func(Session, bool), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(sess, loggedIn)
	}
}
