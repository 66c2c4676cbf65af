package apitest

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/safar/flowerstore/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const contextUserKey contextKey = "user"

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

type claims struct {
	Role       string `json:"role"`
	Kind       string `json:"kind"`
	Generation int    `json:"gen"`
	jwt.RegisteredClaims
}

type authPayload struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

func (s *Server) createAccountLocked(name, email, phone, password string, role models.Role) (*account, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		key = phone
	}
	if _, exists := s.accounts[key]; exists {
		return nil, errors.New("account already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	acct := &account{
		user: models.User{
			ID:              s.newIDLocked(),
			Name:            name,
			Email:           email,
			PhoneNumber:     phone,
			RoleName:        role,
			IsEmailVerified: email != "",
			CreatedAt:       time.Now().UTC(),
		},
		passwordHash: hashed,
	}
	s.accounts[key] = acct
	return acct, nil
}

func (s *Server) accountByIDLocked(id int64) *account {
	for _, acct := range s.accounts {
		if acct.user.ID == id {
			return acct
		}
	}
	return nil
}

func (s *Server) issueLocked(acct *account) (authPayload, error) {
	now := time.Now()
	acct.user.LastLoginAt = &now

	access, err := s.signLocked(acct.user, kindAccess, s.tokenTTL)
	if err != nil {
		return authPayload{}, err
	}
	refresh, err := s.signLocked(acct.user, kindRefresh, 30*24*time.Hour)
	if err != nil {
		return authPayload{}, err
	}
	return authPayload{User: acct.user, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Server) signLocked(user models.User, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role:       string(user.RoleName),
		Kind:       kind,
		Generation: s.generation,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(s.secret)
}

func (s *Server) parse(tokenString, kind string) (*claims, error) {
	parsed := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, parsed, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || parsed.Kind != kind {
		return nil, errors.New("invalid token")
	}
	return parsed, nil
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unauthorized := func() {
			s.Unauthorized.Add(1)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
		}

		tokenString, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || tokenString == "" {
			unauthorized()
			return
		}

		parsed, err := s.parse(tokenString, kindAccess)
		if err != nil {
			unauthorized()
			return
		}

		s.mu.Lock()
		rejected := s.rejectAll || parsed.Generation != s.generation
		id, _ := strconv.ParseInt(parsed.Subject, 10, 64)
		acct := s.accountByIDLocked(id)
		s.mu.Unlock()

		if rejected || acct == nil {
			unauthorized()
			return
		}

		ctx := context.WithValue(r.Context(), contextUserKey, acct.user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if !user.RoleName.IsAdmin() {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		if r.Method != http.MethodGet && !user.RoleName.CanWrite() {
			writeError(w, http.StatusForbidden, "Read-only admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) models.User {
	user, _ := r.Context().Value(contextUserKey).(models.User)
	return user
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phoneNumber"`
		Password    string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields", "name, email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, err := s.createAccountLocked(req.Name, req.Email, req.PhoneNumber, req.Password, models.RoleUser)
	if err != nil {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	payload, err := s.issueLocked(acct)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}
	writeData(w, http.StatusCreated, payload)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[strings.ToLower(strings.TrimSpace(req.Email))]
	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	payload, err := s.issueLocked(acct)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}
	writeData(w, http.StatusOK, payload)
}

func (s *Server) handleOTPRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Destination string `json:"destination"`
	}
	if err := decodeBody(r, &req); err != nil || req.Destination == "" {
		writeError(w, http.StatusBadRequest, "Destination is required")
		return
	}

	code, err := newOTP()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue code")
		return
	}

	s.mu.Lock()
	s.otps[req.Destination] = code
	s.mu.Unlock()

	writeData(w, http.StatusOK, map[string]any{"expiresIn": 300})
}

func (s *Server) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Destination string `json:"destination"`
		Code        string `json:"code"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Code == "" || s.otps[req.Destination] != req.Code {
		writeError(w, http.StatusBadRequest, "Invalid or expired code")
		return
	}
	delete(s.otps, req.Destination)

	acct, ok := s.accounts[strings.ToLower(req.Destination)]
	if !ok {
		var err error
		email, phone := req.Destination, ""
		if !strings.Contains(req.Destination, "@") {
			email, phone = "", req.Destination
		}
		acct, err = s.createAccountLocked(req.Destination, email, phone, uuid.NewString(), models.RoleUser)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to create account")
			return
		}
		acct.user.IsPhoneVerified = phone != ""
	}

	payload, err := s.issueLocked(acct)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}
	writeData(w, http.StatusOK, payload)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.RefreshCalls.Add(1)

	s.mu.Lock()
	delay := s.refreshDelay
	s.mu.Unlock()
	time.Sleep(delay)

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	parsed, err := s.parse(req.RefreshToken, kindRefresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failRefresh || s.usedRefresh[parsed.ID] {
		writeError(w, http.StatusUnauthorized, "Refresh token rejected")
		return
	}
	s.usedRefresh[parsed.ID] = true

	id, _ := strconv.ParseInt(parsed.Subject, 10, 64)
	acct := s.accountByIDLocked(id)
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "Unknown account")
		return
	}

	payload, err := s.issueLocked(acct)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}
	writeData(w, http.StatusOK, map[string]string{
		"accessToken":  payload.AccessToken,
		"refreshToken": payload.RefreshToken,
	})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	code, err := newOTP()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue code")
		return
	}

	s.mu.Lock()
	s.otps[strings.ToLower(req.Email)] = code
	s.mu.Unlock()

	writeData(w, http.StatusOK, nil)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email              string `json:"email"`
		Code               string `json:"code"`
		NewPassword        string `json:"newPassword"`
		ConfirmNewPassword string `json:"confirmNewPassword"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.NewPassword != req.ConfirmNewPassword {
		writeError(w, http.StatusBadRequest, "Passwords do not match")
		return
	}

	key := strings.ToLower(req.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[key]
	if !ok || req.Code == "" || s.otps[key] != req.Code {
		writeError(w, http.StatusBadRequest, "Invalid or expired code")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}
	acct.passwordHash = hashed
	delete(s.otps, key)

	writeData(w, http.StatusOK, nil)
}

// handleGoogle accepts "google:<email>" as a stand-in for a provider token.
func (s *Server) handleGoogle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Credential string `json:"credential"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email, ok := strings.CutPrefix(req.Credential, "google:")
	if !ok || email == "" {
		writeError(w, http.StatusUnauthorized, "Invalid Google credential")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, exists := s.accounts[strings.ToLower(email)]
	if !exists {
		var err error
		acct, err = s.createAccountLocked(email, email, "", uuid.NewString(), models.RoleUser)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to create account")
			return
		}
	}

	payload, err := s.issueLocked(acct)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}
	writeData(w, http.StatusOK, payload)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, currentUser(r))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, nil)
}

func newOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
