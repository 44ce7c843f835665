package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go-restaurant-ordering/models"
)

// ListOrders returns the restaurant's orders, newest first. An empty status
// lists all of them.
func (c *Client) ListOrders(ctx context.Context, status models.Status) ([]models.Order, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/orders/", query, nil, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%d", id), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) OrderHistory(ctx context.Context, limit int) ([]models.Order, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/orders/history", query, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid order: %w", err)
	}
	var order models.Order
	if err := c.do(ctx, http.MethodPost, "/orders/", nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus sets the status of an order. The response body is not
// required and is ignored.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status models.Status) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/orders/%d/status", id), nil, models.StatusUpdate{Status: status}, nil)
}
