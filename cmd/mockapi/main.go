// Command mockapi serves the in-process fake storefront API on a fixed port
// so flowerctl can be tried without the real backend. State lives in memory.
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/safar/flowerstore/internal/apitest"
	"github.com/safar/flowerstore/internal/config"
	"github.com/safar/flowerstore/internal/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	fake := apitest.New()
	defer fake.Close()

	email := getEnv("MOCKAPI_ADMIN_EMAIL", "admin@flowerstore.local")
	password := getEnv("MOCKAPI_ADMIN_PASSWORD", "Admin123!")
	fake.RegisterUser("Store Admin", email, password, models.RoleSuperAdmin)
	log.Printf("Seeded super admin %s", email)

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", fake.Handler()))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Mock API listening on http://localhost:%s/api", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
