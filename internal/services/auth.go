package services

import (
	"context"
	"net/http"

	"github.com/safar/flowerstore/internal/apiclient"
	"github.com/safar/flowerstore/internal/models"
)

type AuthService struct {
	client *apiclient.Client
}

// AuthResult is the data of a successful login, signup or OTP verification.
// Fields may be missing when the backend misbehaves; callers must check.
type AuthResult struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Complete reports whether the result carries a user and an access token.
func (r AuthResult) Complete() bool {
	return r.User != nil && r.AccessToken != ""
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Password    string `json:"password"`
}

type ResetPasswordRequest struct {
	Email              string `json:"email"`
	Code               string `json:"code"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (AuthResult, error) {
	return anonymousPost[AuthResult](ctx, s.client, "/auth/signup", req)
}

func (s *AuthService) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	return anonymousPost[AuthResult](ctx, s.client, "/auth/login", creds)
}

// RequestOTP sends a one-time passcode to an email address or phone number.
func (s *AuthService) RequestOTP(ctx context.Context, destination string) error {
	_, err := anonymousPost[struct{}](ctx, s.client, "/auth/otp/request", map[string]string{"destination": destination})
	return err
}

func (s *AuthService) VerifyOTP(ctx context.Context, destination, code string) (AuthResult, error) {
	return anonymousPost[AuthResult](ctx, s.client, "/auth/otp/verify", map[string]string{
		"destination": destination,
		"code":        code,
	})
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	_, err := anonymousPost[struct{}](ctx, s.client, "/auth/forgot-password", map[string]string{"email": email})
	return err
}

func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	_, err := anonymousPost[struct{}](ctx, s.client, "/auth/reset-password", req)
	return err
}

// RefreshToken exchanges a refresh token outside the client's own 401 handling.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (models.Tokens, error) {
	return anonymousPost[models.Tokens](ctx, s.client, "/auth/refresh-token", map[string]string{"refreshToken": refreshToken})
}

// GoogleLogin exchanges a Google ID token (or OAuth callback credential).
func (s *AuthService) GoogleLogin(ctx context.Context, credential string) (AuthResult, error) {
	return anonymousPost[AuthResult](ctx, s.client, "/auth/google", map[string]string{"credential": credential})
}

func (s *AuthService) Profile(ctx context.Context) (models.User, error) {
	return apiclient.Get[models.User](ctx, s.client, "/auth/me", nil)
}

// Logout tells the backend to revoke the refresh token.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: "/auth/logout"}, nil)
}
