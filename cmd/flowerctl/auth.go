package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang-jwt/jwt/v5"
	"github.com/safar/flowerstore/internal/locale"
	"github.com/safar/flowerstore/internal/models"
	"github.com/safar/flowerstore/internal/services"
	"github.com/spf13/cobra"
)

// passwordFrom prefers the flag, then FLOWER_PASSWORD.
func passwordFrom(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv("FLOWER_PASSWORD"); env != "" {
		return env, nil
	}
	return "", errors.New("password required: pass --password or set FLOWER_PASSWORD")
}

func printWelcome(cmd *cobra.Command, user *models.User) {
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s> (%s)\n", user.Name, user.Email, user.RoleName)
}

func newLoginCmd() *cobra.Command {
	var email, password, google string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password, or a Google credential",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()

			if google != "" {
				user, err := a.auth.GoogleLogin(ctx, google)
				if err != nil {
					return fmt.Errorf("google login: %w", err)
				}
				printWelcome(cmd, user)
				return nil
			}

			if email == "" {
				return errors.New("--email is required")
			}
			pw, err := passwordFrom(password)
			if err != nil {
				return err
			}
			user, err := a.auth.Login(ctx, email, pw)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			printWelcome(cmd, user)
			return nil
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or FLOWER_PASSWORD)")
	cmd.Flags().StringVar(&google, "google", "", "Google ID token from the OAuth callback")
	return cmd
}

func newSignupCmd() *cobra.Command {
	var req services.SignupRequest
	var password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a customer account and log in",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			pw, err := passwordFrom(password)
			if err != nil {
				return err
			}
			req.Password = pw

			user, err := a.auth.Signup(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("signup: %w", err)
			}
			printWelcome(cmd, user)
			return nil
		}),
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.PhoneNumber, "phone", "", "phone number")
	cmd.Flags().StringVar(&password, "password", "", "password (or FLOWER_PASSWORD)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newOTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otp",
		Short: "Passwordless login with a one-time code",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "request <email-or-phone>",
			Short: "Send a one-time code",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				if err := a.auth.RequestOTP(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("request code: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Code sent to %s\n", args[0])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "verify <email-or-phone> <code>",
			Short: "Log in with a one-time code",
			Args:  cobra.ExactArgs(2),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				user, err := a.auth.VerifyOTP(cmd.Context(), args[0], args[1])
				if err != nil {
					return fmt.Errorf("verify code: %w", err)
				}
				printWelcome(cmd, user)
				return nil
			}),
		},
	)
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and empty the cart",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			a.auth.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		}),
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session, language and cart",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			lang := a.language.Language(ctx)
			fmt.Fprintf(out, "API:      %s\n", a.cfg.API.BaseURL)
			fmt.Fprintf(out, "Language: %s (%s)\n", lang, locale.Direction(lang))
			fmt.Fprintf(out, "Cart:     %d item(s), %s\n", a.cart.Count(), a.cart.Total().StringFixed(3))

			state := a.auth.State()
			if !state.IsAuthenticated {
				fmt.Fprintln(out, "Session:  guest")
				return nil
			}

			fmt.Fprintf(out, "Session:  %s <%s> (%s)\n", state.User.Name, state.User.Email, state.User.RoleName)
			if state.User.RoleName.IsAdmin() && !state.User.RoleName.CanWrite() {
				fmt.Fprintln(out, "          read-only admin")
			}

			access, err := a.tokens.AccessToken(ctx)
			if err != nil {
				return err
			}
			if exp, ok := tokenExpiry(access); ok {
				verb := "expires"
				if exp.Before(time.Now()) {
					verb = "expired"
				}
				fmt.Fprintf(out, "Token:    %s %s\n", verb, humanize.Time(exp))
			}
			return nil
		}),
	}
}

// tokenExpiry reads the exp claim without verifying the signature; the API
// remains the judge of validity.
func tokenExpiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func newPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Recover a forgotten password",
	}

	var req services.ResetPasswordRequest
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with the emailed code",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if req.ConfirmNewPassword == "" {
				req.ConfirmNewPassword = req.NewPassword
			}
			if err := a.auth.ResetPassword(cmd.Context(), req); err != nil {
				return fmt.Errorf("reset password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password updated; log in with the new password")
			return nil
		}),
	}
	reset.Flags().StringVar(&req.Email, "email", "", "account email")
	reset.Flags().StringVar(&req.Code, "code", "", "code from the reset email")
	reset.Flags().StringVar(&req.NewPassword, "password", "", "new password")
	reset.Flags().StringVar(&req.ConfirmNewPassword, "confirm", "", "new password again (defaults to --password)")
	_ = reset.MarkFlagRequired("email")
	_ = reset.MarkFlagRequired("code")
	_ = reset.MarkFlagRequired("password")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "forgot <email>",
			Short: "Email a password reset code",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				if err := a.auth.ForgotPassword(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("forgot password: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset code sent to %s\n", args[0])
				return nil
			}),
		},
		reset,
	)
	return cmd
}
