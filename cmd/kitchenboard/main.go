package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go-restaurant-ordering/api"
	"go-restaurant-ordering/config"
	"go-restaurant-ordering/helpers"
	"go-restaurant-ordering/livesync"
)

func main() {
	envFile := flag.String("env", ".env", "path to the .env file")
	email := flag.String("email", "", "staff email to log in with when no AUTH_TOKEN is set")
	password := flag.String("password", "", "staff password")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	creds := helpers.NewCredentialManager(nil, helpers.WithFallbackRestaurantName(cfg.RestaurantName))
	if cfg.AuthToken != "" {
		creds.SetToken(cfg.AuthToken)
	}
	client := api.NewClient(cfg.APIBase, creds, api.WithTimeout(cfg.RequestTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !creds.HasToken() && *email != "" {
		resp, err := client.Login(ctx, *email, *password)
		if err != nil {
			slog.Error("login failed", "email", *email, "error", err)
			os.Exit(1)
		}
		slog.Info("logged in", "restaurant_id", resp.RestaurantID)
	}

	pushURL, err := client.PushURL(cfg.PushPath)
	if err != nil {
		slog.Error("failed to derive push url", "error", err)
		os.Exit(1)
	}

	board := livesync.New(client, creds, livesync.NewWebsocketDialer(cfg.RequestTimeout), livesync.Config{
		PushURL:           pushURL,
		PollInterval:      cfg.PollInterval,
		PushRetryInterval: cfg.PushRetryInterval,
	}, livesync.WithLogger(slog.Default().With("component", "kitchenboard")))
	if err := board.Start(ctx); err != nil {
		slog.Error("failed to start kitchen board", "error", err)
		os.Exit(1)
	}
	slog.Info("kitchen board started", "restaurant", creds.RestaurantName(), "api", cfg.APIBase)

	for {
		select {
		case <-ctx.Done():
			board.Stop()
			slog.Info("kitchen board stopped")
			return
		case snap := <-board.Updates():
			logSnapshot(snap)
			if snap.AuthRequired {
				slog.Error("session expired, log in again")
				os.Exit(1)
			}
		}
	}
}

func logSnapshot(snap livesync.Snapshot) {
	active := snap.Active()
	slog.Info("board updated", "state", snap.State, "active", len(active), "total", len(snap.Orders), "error", snap.Err)
	for _, o := range active {
		slog.Info("order", "id", o.ID, "where", o.Label(), "status", o.Status, "items", len(o.Items))
	}
}
