package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/safar/flowerstore/internal/apitest"
	"github.com/safar/flowerstore/internal/events"
	"github.com/safar/flowerstore/internal/models"
	"github.com/safar/flowerstore/internal/storage"
	"github.com/safar/flowerstore/internal/tokenstore"
)

type fixedLanguage string

func (l fixedLanguage) Language(context.Context) string { return string(l) }

type fixture struct {
	api    *apitest.Server
	client *Client
	tokens *tokenstore.Store
	bus    *events.Bus
}

func setup(t *testing.T) *fixture {
	t.Helper()

	api := apitest.New()
	t.Cleanup(api.Close)

	bus := events.NewBus()
	tokens := tokenstore.New(storage.NewMemory())
	client, err := New(Options{
		BaseURL:  api.URL,
		Tokens:   tokens,
		Language: fixedLanguage("ar"),
		Bus:      bus,
	})
	if err != nil {
		t.Fatalf("New client: %v", err)
	}

	return &fixture{api: api, client: client, tokens: tokens, bus: bus}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	f.api.RegisterUser("Sara", "sara@example.com", "Passw0rd!", models.RoleUser)

	var payload struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	err := f.client.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/auth/login",
		Body:      map[string]string{"email": "sara@example.com", "password": "Passw0rd!"},
		Anonymous: true,
	}, &payload)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.tokens.SetTokens(ctx, payload.AccessToken, payload.RefreshToken); err != nil {
		t.Fatalf("SetTokens: %v", err)
	}
}

func TestAttachesTokenAndLanguage(t *testing.T) {
	f := setup(t)
	f.login(t)

	user, err := Get[models.User](context.Background(), f.client, "/auth/me", nil)
	if err != nil {
		t.Fatalf("Get me: %v", err)
	}
	if user.Email != "sara@example.com" {
		t.Errorf("Expected unwrapped user, got %+v", user)
	}
	if f.api.LastLanguage() != "ar" {
		t.Errorf("Expected Accept-Language ar, got %q", f.api.LastLanguage())
	}
}

func TestRefreshesOnceAndRetries(t *testing.T) {
	f := setup(t)
	f.login(t)
	ctx := context.Background()

	before, _ := f.tokens.AccessToken(ctx)
	f.api.RevokeAccessTokens()

	if _, err := Get[models.User](ctx, f.client, "/auth/me", nil); err != nil {
		t.Fatalf("Expected retry after refresh to succeed: %v", err)
	}

	if got := f.api.RefreshCalls.Load(); got != 1 {
		t.Errorf("Expected 1 refresh call, got %d", got)
	}
	after, _ := f.tokens.AccessToken(ctx)
	if after == "" || after == before {
		t.Error("Expected rotated access token to be stored")
	}
}

func TestSecond401DoesNotLoop(t *testing.T) {
	f := setup(t)
	f.login(t)
	ctx := context.Background()

	var authErrors []events.AuthError
	f.bus.AuthError.Subscribe(func(ev events.AuthError) { authErrors = append(authErrors, ev) })

	f.api.RejectAll(true)

	_, err := Get[models.User](ctx, f.client, "/auth/me", nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Expected ErrSessionExpired, got: %v", err)
	}
	if StatusOf(err) != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", StatusOf(err))
	}

	if got := f.api.RefreshCalls.Load(); got != 1 {
		t.Errorf("Expected exactly 1 refresh call, got %d", got)
	}
	if got := f.api.Unauthorized.Load(); got != 2 {
		t.Errorf("Expected the request to be sent twice, got %d 401s", got)
	}
	if len(authErrors) != 1 {
		t.Errorf("Expected 1 authError event, got %d", len(authErrors))
	}

	access, _ := f.tokens.AccessToken(ctx)
	refresh, _ := f.tokens.RefreshToken(ctx)
	if access != "" || refresh != "" {
		t.Errorf("Expected tokens cleared, got access=%q refresh=%q", access, refresh)
	}
}

func TestRefreshFailureClearsSession(t *testing.T) {
	f := setup(t)
	f.login(t)
	ctx := context.Background()

	published := 0
	f.bus.AuthError.Subscribe(func(events.AuthError) { published++ })

	f.api.RevokeAccessTokens()
	f.api.FailRefresh(true)

	_, err := Get[models.User](ctx, f.client, "/auth/me", nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Expected ErrSessionExpired, got: %v", err)
	}
	if published != 1 {
		t.Errorf("Expected 1 authError event, got %d", published)
	}
	if access, _ := f.tokens.AccessToken(ctx); access != "" {
		t.Error("Expected access token cleared")
	}
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	f := setup(t)
	f.login(t)
	ctx := context.Background()

	f.api.RevokeAccessTokens()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Get[models.User](ctx, f.client, "/auth/me", nil)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if got := f.api.RefreshCalls.Load(); got != 1 {
		t.Errorf("Expected a single refresh exchange, got %d", got)
	}
}

func TestCancelledCallerDoesNotFailSharedRefresh(t *testing.T) {
	f := setup(t)
	f.login(t)

	f.api.RevokeAccessTokens()
	f.api.DelayRefresh(200 * time.Millisecond)

	expired := 0
	f.bus.AuthError.Subscribe(func(events.AuthError) { expired++ })

	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	shortErr := make(chan error, 1)
	go func() {
		_, err := Get[models.User](short, f.client, "/auth/me", nil)
		shortErr <- err
	}()

	// Let the short caller start the refresh before the second one joins it.
	time.Sleep(20 * time.Millisecond)

	user, err := Get[models.User](context.Background(), f.client, "/auth/me", nil)
	if err != nil {
		t.Fatalf("Expected the live caller to succeed, got: %v", err)
	}
	if user.Email != "sara@example.com" {
		t.Errorf("Unexpected user: %+v", user)
	}

	if err := <-shortErr; !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected the short caller to hit its deadline, got: %v", err)
	}
	if got := f.api.RefreshCalls.Load(); got != 1 {
		t.Errorf("Expected a single refresh exchange, got %d", got)
	}
	if expired != 0 {
		t.Errorf("Expected no authError, got %d", expired)
	}
	if access, _ := f.tokens.AccessToken(context.Background()); access == "" {
		t.Error("Expected the rotated access token to be stored")
	}
}

func TestGuest401IsNotRefreshed(t *testing.T) {
	f := setup(t)

	published := 0
	f.bus.AuthError.Subscribe(func(events.AuthError) { published++ })

	_, err := Get[models.User](context.Background(), f.client, "/auth/me", nil)
	if StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got: %v", err)
	}
	if errors.Is(err, ErrSessionExpired) {
		t.Error("Guest request should not report an expired session")
	}
	if f.api.RefreshCalls.Load() != 0 || published != 0 {
		t.Error("Guest request should neither refresh nor publish authError")
	}
}

func TestNormalizesErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := Get[models.Product](ctx, f.client, "/products/999", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *Error, got %T: %v", err, err)
	}
	if apiErr.Success || apiErr.Status != http.StatusNotFound || apiErr.Message != "Product not found" {
		t.Errorf("Unexpected normalized error: %+v", apiErr)
	}

	_, err = Post[json.RawMessage](ctx, f.client, "/auth/signup", map[string]string{"name": "x"})
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if apiErr.Status != http.StatusBadRequest || len(apiErr.Errors) != 1 {
		t.Errorf("Expected 400 with one detail, got %+v", apiErr)
	}
}

func TestTransportErrorHasNoStatus(t *testing.T) {
	f := setup(t)
	f.api.Close()

	_, err := Get[models.Product](context.Background(), f.client, "/products/1", nil)
	if err == nil {
		t.Fatal("Expected error from closed server")
	}
	if StatusOf(err) != 0 {
		t.Errorf("Expected status 0 for transport error, got %d", StatusOf(err))
	}
	if Message(err) == "" {
		t.Error("Expected a message for transport error")
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{BaseURL: "::not a url", Tokens: tokenstore.New(storage.NewMemory())}); err == nil {
		t.Error("Expected error for invalid base url")
	}
	if _, err := New(Options{BaseURL: "http://localhost"}); err == nil {
		t.Error("Expected error without token store")
	}
}
