package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/safar/flowerstore/internal/apitest"
	"github.com/safar/flowerstore/internal/models"
)

func setupCLI(t *testing.T) *apitest.Server {
	t.Helper()

	api := apitest.New()
	t.Cleanup(api.Close)

	t.Setenv("FLOWER_API_URL", api.URL)
	t.Setenv("FLOWER_STORAGE_DRIVER", "file")
	t.Setenv("FLOWER_STORAGE_PATH", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("FLOWER_DELIVERY_RATES", "Salmiya=1.500")
	t.Setenv("FLOWER_DEFAULT_LANGUAGE", "en")
	return api
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()

	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("flowerctl %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestShoppingSession(t *testing.T) {
	api := setupCLI(t)
	api.RegisterUser("Sara", "sara@example.com", "Passw0rd!", models.RoleUser)

	mustRun(t, "cart", "add", "1")
	mustRun(t, "cart", "add", "2", "--qty", "2")

	out := mustRun(t, "cart", "list", "--area", "salmiya")
	if !strings.Contains(out, "12.000") || !strings.Contains(out, "13.500") {
		t.Errorf("Expected subtotal 12.000 and total 13.500 in:\n%s", out)
	}

	out = mustRun(t, "login", "--email", "sara@example.com", "--password", "Passw0rd!")
	if !strings.Contains(out, "Logged in as Sara") {
		t.Errorf("Unexpected login output: %s", out)
	}

	out = mustRun(t, "status")
	if !strings.Contains(out, "3 item(s), 12.000") {
		t.Errorf("Expected guest cart kept after login:\n%s", out)
	}
	if !strings.Contains(out, "Token:    expires") {
		t.Errorf("Expected token expiry line:\n%s", out)
	}

	out = mustRun(t, "cart", "checkout", "--name", "Sara", "--address", "Block 1", "--area", "Salmiya")
	if !strings.Contains(out, "FL-") {
		t.Errorf("Expected an order number:\n%s", out)
	}

	out = mustRun(t, "orders", "list")
	if !strings.Contains(out, "PENDING") {
		t.Errorf("Expected the pending order:\n%s", out)
	}

	mustRun(t, "cart", "add", "3")
	mustRun(t, "logout")

	out = mustRun(t, "status")
	if !strings.Contains(out, "Session:  guest") || !strings.Contains(out, "0 item(s)") {
		t.Errorf("Expected empty guest session after logout:\n%s", out)
	}
}

func TestLanguageCommands(t *testing.T) {
	api := setupCLI(t)

	out := mustRun(t, "lang", "set", "ar-KW")
	if !strings.Contains(out, "Language set to ar") {
		t.Errorf("Unexpected output: %s", out)
	}

	out = mustRun(t, "categories", "list")
	if !strings.Contains(out, "ورود") {
		t.Errorf("Expected Arabic category names:\n%s", out)
	}
	if api.LastLanguage() != "ar" {
		t.Errorf("Expected Accept-Language ar, got %q", api.LastLanguage())
	}

	if _, err := run(t, "lang", "set", "fr"); err == nil {
		t.Error("Expected unsupported language to fail")
	}
}

func TestProductSearchMatchesLocally(t *testing.T) {
	setupCLI(t)

	out := mustRun(t, "products", "search", "tulip")
	if !strings.Contains(out, "Spring Bouquet") || strings.Contains(out, "Red Rose Box") {
		t.Errorf("Expected tag match on Spring Bouquet only:\n%s", out)
	}
}

func TestAdminCommandsNeedAdminRole(t *testing.T) {
	api := setupCLI(t)
	api.RegisterUser("Sara", "sara@example.com", "Passw0rd!", models.RoleUser)
	api.RegisterUser("Boss", "boss@example.com", "Passw0rd!", models.RoleSuperAdmin)

	mustRun(t, "login", "--email", "sara@example.com", "--password", "Passw0rd!")
	if _, err := run(t, "admin", "dashboard"); err == nil {
		t.Error("Expected customer to be refused the dashboard")
	}

	mustRun(t, "logout")
	mustRun(t, "login", "--email", "boss@example.com", "--password", "Passw0rd!")

	out := mustRun(t, "admin", "discount", "--percent", "10", "1")
	if !strings.Contains(out, "1 succeeded, 0 failed") {
		t.Errorf("Unexpected discount output: %s", out)
	}
	if got := api.Product(1).FinalPrice.StringFixed(3); got != "4.500" {
		t.Errorf("Expected discounted price 4.500, got %s", got)
	}
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("any"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	got, ok := tokenExpiry(token)
	if !ok || !got.Equal(exp) {
		t.Errorf("tokenExpiry = %v, %v; want %v", got, ok, exp)
	}

	if _, ok := tokenExpiry("opaque-token"); ok {
		t.Error("Expected opaque token to have no expiry")
	}
}

var orderIDPattern = regexp.MustCompile(`\(#(\d+)\)`)

func TestOrderPayment(t *testing.T) {
	api := setupCLI(t)
	api.RegisterUser("Sara", "sara@example.com", "Passw0rd!", models.RoleUser)

	mustRun(t, "login", "--email", "sara@example.com", "--password", "Passw0rd!")
	mustRun(t, "cart", "add", "1")
	out := mustRun(t, "cart", "checkout", "--name", "Sara", "--address", "Block 1")
	match := orderIDPattern.FindStringSubmatch(out)
	if match == nil {
		t.Fatalf("Expected an order ID in:\n%s", out)
	}
	id, _ := strconv.ParseInt(match[1], 10, 64)

	out = mustRun(t, "orders", "pay", match[1])
	if !strings.Contains(out, "Pay at:") || !strings.Contains(out, "7.000") {
		t.Errorf("Expected payment URL and amount:\n%s", out)
	}

	returnURL := fmt.Sprintf("https://shop.example.com/payment/success?orderId=%d&status=COMPLETED&ref=%s", id, api.PaymentRef(id))
	out = mustRun(t, "orders", "confirm-payment", returnURL)
	if !strings.Contains(out, "payment COMPLETED") {
		t.Errorf("Expected completed payment:\n%s", out)
	}

	if _, err := run(t, "orders", "confirm-payment", "https://shop.example.com/payment/failure"); err == nil {
		t.Error("Expected a return URL without parameters to fail")
	}
}
