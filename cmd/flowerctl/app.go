package main

import (
	"context"
	"fmt"
	"log"

	"github.com/safar/flowerstore/internal/apiclient"
	"github.com/safar/flowerstore/internal/authstore"
	"github.com/safar/flowerstore/internal/cart"
	"github.com/safar/flowerstore/internal/config"
	"github.com/safar/flowerstore/internal/events"
	"github.com/safar/flowerstore/internal/locale"
	"github.com/safar/flowerstore/internal/pricing"
	"github.com/safar/flowerstore/internal/services"
	"github.com/safar/flowerstore/internal/storage"
	"github.com/safar/flowerstore/internal/tokenstore"
	"github.com/spf13/cobra"
)

// app is one client session: storage, stores and services wired together.
type app struct {
	cfg      *config.Config
	storage  storage.Store
	bus      *events.Bus
	tokens   *tokenstore.Store
	language *locale.Preference
	svc      *services.Services
	auth     *authstore.Store
	cart     *cart.Cart
	rates    *pricing.DeliveryRates
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	st, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	bus := events.NewBus()
	tokens := tokenstore.New(st)
	language := locale.NewPreference(st, bus, cfg.Language)

	client, err := apiclient.New(apiclient.Options{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		Tokens:   tokens,
		Language: language,
		Bus:      bus,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create api client: %w", err)
	}

	svc := services.New(client)
	auth := authstore.New(svc.Auth, tokens, bus)

	// The cart subscribes before Init so a restored session reaches it.
	c, err := cart.New(ctx, st, bus)
	if err != nil {
		auth.Close()
		st.Close()
		return nil, err
	}

	if err := auth.Init(ctx); err != nil {
		log.Printf("Warning: could not restore session: %v", err)
	}

	return &app{
		cfg:      cfg,
		storage:  st,
		bus:      bus,
		tokens:   tokens,
		language: language,
		svc:      svc,
		auth:     auth,
		cart:     c,
		rates:    pricing.NewDeliveryRates(cfg.Delivery),
	}, nil
}

func (a *app) Close() {
	a.cart.Close()
	a.auth.Close()
	if err := a.storage.Close(); err != nil {
		log.Printf("Failed to close storage: %v", err)
	}
}

// withApp builds the session for one command and tears it down afterwards.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		return run(cmd, a, args)
	}
}

func (a *app) requireLogin() error {
	if !a.auth.IsAuthenticated() {
		return fmt.Errorf("not logged in; run `flowerctl login` first")
	}
	return nil
}
