package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FLOWER_API_URL", "")
	t.Setenv("FLOWER_STORAGE_DRIVER", "")
	t.Setenv("FLOWER_DELIVERY_RATES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8080/api" {
		t.Errorf("Expected default base URL, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %s", cfg.API.Timeout)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected mock server port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "file" {
		t.Errorf("Expected file storage, got %s", cfg.Storage.Driver)
	}
	if !cfg.Delivery.DefaultFee.Equal(decimal.RequireFromString("2")) {
		t.Errorf("Expected default fee 2.000, got %s", cfg.Delivery.DefaultFee)
	}
}

func TestLoadDeliveryRates(t *testing.T) {
	t.Setenv("FLOWER_DELIVERY_RATES", "Salmiya=1.500; Jahra = 3.250")
	t.Setenv("FLOWER_API_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Delivery.Rates) != 2 {
		t.Fatalf("Expected 2 rates, got %d", len(cfg.Delivery.Rates))
	}
	if !cfg.Delivery.Rates["Jahra"].Equal(decimal.RequireFromString("3.25")) {
		t.Errorf("Expected Jahra 3.250, got %s", cfg.Delivery.Rates["Jahra"])
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", cfg.API.Timeout)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Setenv("FLOWER_DELIVERY_RATES", "Salmiya")
	if _, err := Load(); err == nil {
		t.Error("Expected error for malformed rates")
	}

	t.Setenv("FLOWER_DELIVERY_RATES", "")
	t.Setenv("FLOWER_STORAGE_DRIVER", "redis")
	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown storage driver")
	}
}
