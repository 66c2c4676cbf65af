// Package events is a small synchronous pub/sub used to couple the auth
// store, cart store and HTTP client without shared globals.
package events

import (
	"sync"

	"github.com/safar/flowerstore/internal/models"
)

type AuthChangeType string

const (
	AuthLogin  AuthChangeType = "login"
	AuthLogout AuthChangeType = "logout"
)

// AuthChange is published after a login and before a logout clears state.
type AuthChange struct {
	Type AuthChangeType
	User *models.User
}

// AuthError is published by the HTTP client when a session cannot be refreshed.
type AuthError struct {
	Message string
}

// LogoutRequest asks the auth store to end the session.
type LogoutRequest struct {
	Reason string
}

type LanguageChange struct {
	Language string
}

// Topic delivers values of one type to its subscribers in subscription order.
type Topic[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it.
func (t *Topic[T]) Subscribe(fn func(T)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID
	t.subs = append(t.subs, subscriber[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { t.remove(id) })
	}
}

// Publish calls every subscriber synchronously. Subscribers may publish or
// unsubscribe from inside the callback.
func (t *Topic[T]) Publish(value T) {
	t.mu.RLock()
	subs := make([]subscriber[T], len(t.subs))
	copy(subs, t.subs)
	t.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(value)
	}
}

func (t *Topic[T]) remove(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, sub := range t.subs {
		if sub.id == id {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			return
		}
	}
}

// Bus groups the topics shared by one client session.
type Bus struct {
	AuthChange     Topic[AuthChange]
	AuthError      Topic[AuthError]
	Logout         Topic[LogoutRequest]
	LanguageChange Topic[LanguageChange]
}

func NewBus() *Bus {
	return &Bus{}
}
