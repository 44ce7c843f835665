package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go-restaurant-ordering/models"
)

func (c *Client) GetMenu(ctx context.Context, restaurantID int64, filter models.MenuFilter) ([]models.Category, error) {
	query := url.Values{}
	if restaurantID > 0 {
		query.Set("restaurant_id", strconv.FormatInt(restaurantID, 10))
	}
	if filter.Diet != "" && filter.Diet != "all" {
		query.Set("diet", filter.Diet)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		query.Set("search", s)
	}
	var categories []models.Category
	if err := c.do(ctx, http.MethodGet, "/menu/", query, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Trending returns the most ordered items of a restaurant.
func (c *Client) Trending(ctx context.Context, restaurantID int64, limit int) ([]models.MenuItem, error) {
	query := url.Values{}
	query.Set("restaurant_id", strconv.FormatInt(restaurantID, 10))
	query.Set("limit", strconv.Itoa(limit))
	var items []models.MenuItem
	if err := c.do(ctx, http.MethodGet, "/recommendations/trending", query, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// LookupTable resolves the short code printed on a table's QR card.
func (c *Client) LookupTable(ctx context.Context, code string) (*models.Table, error) {
	var table models.Table
	query := url.Values{"code": {code}}
	if err := c.do(ctx, http.MethodGet, "/tables/lookup", query, nil, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

func (c *Client) PublicTables(ctx context.Context, restaurantID int64) ([]models.Table, error) {
	query := url.Values{}
	if restaurantID > 0 {
		query.Set("restaurant_id", strconv.FormatInt(restaurantID, 10))
	}
	var tables []models.Table
	if err := c.do(ctx, http.MethodGet, "/tables/public", query, nil, &tables); err != nil {
		return nil, err
	}
	return tables, nil
}
