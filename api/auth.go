package api

import (
	"context"
	"fmt"
	"net/http"

	"go-restaurant-ordering/models"
)

// Login exchanges staff credentials for a bearer token and stores it.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	req := models.LoginRequest{Email: email, Password: password}
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid login: %w", err)
	}
	var resp models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	c.creds.SetToken(resp.Token)
	if !c.creds.HasToken() {
		return nil, fmt.Errorf("%w: server returned an unusable token", ErrAuthRequired)
	}
	if resp.RestaurantName != "" {
		c.creds.SetRestaurantName(resp.RestaurantName)
	}
	return &resp, nil
}

func (c *Client) Me(ctx context.Context) (*models.Profile, error) {
	if !c.creds.HasToken() {
		return nil, ErrAuthRequired
	}
	var profile models.Profile
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &profile); err != nil {
		return nil, err
	}
	if profile.RestaurantName != "" {
		c.creds.SetRestaurantName(profile.RestaurantName)
	}
	return &profile, nil
}

func (c *Client) Logout() {
	c.creds.Invalidate()
}
