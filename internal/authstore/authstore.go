// Package authstore holds the signed-in user and drives login and logout
// transitions. Every transition is announced on the events bus so the cart
// can react to it.
package authstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/safar/flowerstore/internal/apiclient"
	"github.com/safar/flowerstore/internal/events"
	"github.com/safar/flowerstore/internal/models"
	"github.com/safar/flowerstore/internal/services"
)

var (
	ErrIncompleteAuthResponse = errors.New("authentication response is missing user or token")
	ErrPasswordMismatch       = errors.New("passwords do not match")
	ErrWeakPassword           = errors.New("password must be at least 8 characters and include upper and lower case letters, a digit and a special character")
)

// AuthService is the subset of services.AuthService the store drives.
type AuthService interface {
	Signup(ctx context.Context, req services.SignupRequest) (services.AuthResult, error)
	Login(ctx context.Context, creds services.Credentials) (services.AuthResult, error)
	RequestOTP(ctx context.Context, destination string) error
	VerifyOTP(ctx context.Context, destination, code string) (services.AuthResult, error)
	GoogleLogin(ctx context.Context, credential string) (services.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req services.ResetPasswordRequest) error
	Profile(ctx context.Context) (models.User, error)
	Logout(ctx context.Context) error
}

// Session is where tokens and the cached user live between runs.
type Session interface {
	AccessToken(ctx context.Context) (string, error)
	SetTokens(ctx context.Context, access, refresh string) error
	ClearTokens(ctx context.Context) error
	User(ctx context.Context) (*models.User, error)
	SetUser(ctx context.Context, user *models.User) error
}

type State struct {
	IsLoading       bool
	IsAuthenticated bool
	User            *models.User
	Error           string
}

type Store struct {
	svc     AuthService
	session Session
	bus     *events.Bus

	mu         sync.Mutex
	state      State
	loggingOut bool

	unsubscribe []func()
}

// New wires the store to the bus. Call Init to restore a cached session and
// Close to detach from the bus.
func New(svc AuthService, session Session, bus *events.Bus) *Store {
	s := &Store{svc: svc, session: session, bus: bus}
	s.unsubscribe = []func(){
		bus.AuthError.Subscribe(func(ev events.AuthError) {
			log.Printf("Session ended by API: %s", ev.Message)
			s.endSession(context.Background(), false)
		}),
		bus.Logout.Subscribe(func(ev events.LogoutRequest) {
			s.endSession(context.Background(), false)
		}),
	}
	return s
}

func (s *Store) Close() {
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state
	if state.User != nil {
		user := *state.User
		state.User = &user
	}
	return state
}

func (s *Store) IsAuthenticated() bool {
	return s.State().IsAuthenticated
}

func (s *Store) User() *models.User {
	return s.State().User
}

// Init restores a cached session. When a token and user are cached the store
// authenticates immediately, announces the login, then refreshes the profile.
// A failed profile refresh keeps the cached user.
func (s *Store) Init(ctx context.Context) error {
	access, err := s.session.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("read cached token: %w", err)
	}
	user, err := s.session.User(ctx)
	if err != nil {
		return fmt.Errorf("read cached user: %w", err)
	}
	if access == "" || user == nil {
		return nil
	}

	s.mu.Lock()
	s.state = State{IsAuthenticated: true, User: user}
	s.mu.Unlock()

	s.bus.AuthChange.Publish(events.AuthChange{Type: events.AuthLogin, User: user})

	profile, err := s.svc.Profile(ctx)
	if err != nil {
		log.Printf("Warning: could not refresh profile: %v", err)
		return nil
	}
	if err := s.session.SetUser(ctx, &profile); err != nil {
		log.Printf("Warning: could not cache profile: %v", err)
	}

	s.mu.Lock()
	if s.state.IsAuthenticated {
		s.state.User = &profile
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Login(ctx context.Context, email, password string) (*models.User, error) {
	s.begin()
	result, err := s.svc.Login(ctx, services.Credentials{Email: email, Password: password})
	return s.complete(ctx, result, err)
}

func (s *Store) Signup(ctx context.Context, req services.SignupRequest) (*models.User, error) {
	s.begin()
	result, err := s.svc.Signup(ctx, req)
	return s.complete(ctx, result, err)
}

func (s *Store) VerifyOTP(ctx context.Context, destination, code string) (*models.User, error) {
	s.begin()
	result, err := s.svc.VerifyOTP(ctx, destination, code)
	return s.complete(ctx, result, err)
}

func (s *Store) GoogleLogin(ctx context.Context, credential string) (*models.User, error) {
	s.begin()
	result, err := s.svc.GoogleLogin(ctx, credential)
	return s.complete(ctx, result, err)
}

func (s *Store) RequestOTP(ctx context.Context, destination string) error {
	s.begin()
	err := s.svc.RequestOTP(ctx, destination)
	s.finish(err)
	return err
}

func (s *Store) ForgotPassword(ctx context.Context, email string) error {
	s.begin()
	err := s.svc.ForgotPassword(ctx, email)
	s.finish(err)
	return err
}

// ResetPassword validates locally before calling the API.
func (s *Store) ResetPassword(ctx context.Context, req services.ResetPasswordRequest) error {
	if err := ValidatePassword(req.NewPassword, req.ConfirmNewPassword); err != nil {
		s.finish(err)
		return err
	}

	s.begin()
	err := s.svc.ResetPassword(ctx, req)
	s.finish(err)
	return err
}

// Logout announces the logout while the user is still readable, then clears
// the session. The server-side revoke is best effort.
func (s *Store) Logout(ctx context.Context) {
	s.endSession(ctx, true)
}

func (s *Store) endSession(ctx context.Context, revoke bool) {
	s.mu.Lock()
	if s.loggingOut {
		s.mu.Unlock()
		return
	}
	s.loggingOut = true
	user := s.state.User
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loggingOut = false
		s.mu.Unlock()
	}()

	if revoke && user != nil {
		if err := s.svc.Logout(ctx); err != nil {
			log.Printf("Warning: logout request failed: %v", err)
		}
	}

	s.bus.AuthChange.Publish(events.AuthChange{Type: events.AuthLogout, User: user})

	if err := s.session.ClearTokens(ctx); err != nil {
		log.Printf("Failed to clear session: %v", err)
	}

	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
}

func (s *Store) begin() {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *Store) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.IsLoading = false
	if err != nil {
		s.state.Error = apiclient.Message(err)
	}
}

// complete applies a login-shaped result. Failures leave the authenticated
// user untouched.
func (s *Store) complete(ctx context.Context, result services.AuthResult, err error) (*models.User, error) {
	if err == nil && !result.Complete() {
		err = ErrIncompleteAuthResponse
	}
	if err != nil {
		s.finish(err)
		return nil, err
	}

	if err := s.session.SetTokens(ctx, result.AccessToken, result.RefreshToken); err != nil {
		s.finish(err)
		return nil, fmt.Errorf("store tokens: %w", err)
	}
	if err := s.session.SetUser(ctx, result.User); err != nil {
		s.finish(err)
		return nil, fmt.Errorf("store user: %w", err)
	}

	user := *result.User
	s.mu.Lock()
	s.state = State{IsAuthenticated: true, User: &user}
	s.mu.Unlock()

	s.bus.AuthChange.Publish(events.AuthChange{Type: events.AuthLogin, User: &user})
	return &user, nil
}
