package apitest

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go-restaurant-ordering/models"
)

func (s *Server) getOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := models.Status(c.Query("status"))
		s.mu.Lock()
		all := s.sortedOrders(c.GetInt64("restaurant_id"))
		s.mu.Unlock()

		out := all[:0]
		for _, o := range all {
			if status == "" || o.Status == status {
				out = append(out, o)
			}
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) getOrderHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if err != nil || limit < 1 {
			limit = 50
		}
		s.mu.Lock()
		all := s.sortedOrders(c.GetInt64("restaurant_id"))
		s.mu.Unlock()
		if len(all) > limit {
			all = all[:limit]
		}
		c.JSON(http.StatusOK, all)
	}
}

func (s *Server) getOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid order id"})
			return
		}
		order, ok := s.Order(id)
		if !ok || order.RestaurantID != c.GetInt64("restaurant_id") {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Order not found"})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func (s *Server) createOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		if len(req.Items) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Order must include items"})
			return
		}
		if err := s.validate.Struct(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}

		s.mu.Lock()
		order, status, msg := s.buildOrder(req)
		if status == 0 {
			s.orders[order.ID] = order
			s.nextID++
		}
		s.mu.Unlock()
		if status != 0 {
			c.JSON(status, gin.H{"detail": msg})
			return
		}

		s.hub.broadcast(models.Message{Type: models.EventOrderCreated, OrderID: order.ID})
		c.JSON(http.StatusCreated, order)
	}
}

// buildOrder resolves the restaurant and prices each line from the menu.
// It must be called with s.mu held.
func (s *Server) buildOrder(req models.CreateOrderRequest) (*models.Order, int, string) {
	var restaurantID int64
	if req.RestaurantID != nil {
		restaurantID = *req.RestaurantID
	}
	if req.TableID != nil {
		table, ok := s.tables[*req.TableID]
		if !ok {
			return nil, http.StatusNotFound, "Table not found"
		}
		restaurantID = table.RestaurantID
	}
	if restaurantID == 0 {
		return nil, http.StatusBadRequest, "restaurant_id is required"
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:           s.nextID,
		RestaurantID: restaurantID,
		TableID:      req.TableID,
		Status:       models.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Notes != "" {
		notes := req.Notes
		order.Notes = &notes
	}
	for i, line := range req.Items {
		item, ok := s.findMenuItem(restaurantID, line.MenuItemID)
		if !ok {
			return nil, http.StatusNotFound, fmt.Sprintf("Menu item %d not found", line.MenuItemID)
		}
		order.Items = append(order.Items, models.OrderItem{
			ID:                  int64(i + 1),
			MenuItemID:          item.ID,
			Quantity:            line.Quantity,
			UnitPrice:           item.Price,
			SpecialInstructions: line.SpecialInstructions,
			MenuItem:            &models.MenuItemRef{ID: item.ID, Name: item.Name},
		})
	}
	return order, 0, ""
}

func (s *Server) updateOrderStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid order id"})
			return
		}
		var update models.StatusUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		if err := s.validate.Struct(update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid status"})
			return
		}

		s.mu.Lock()
		order, ok := s.orders[id]
		if ok && order.RestaurantID == c.GetInt64("restaurant_id") {
			order.Status = update.Status
			order.UpdatedAt = time.Now().UTC()
		}
		var out models.Order
		if ok {
			out = *order
		}
		s.mu.Unlock()

		if !ok || out.RestaurantID != c.GetInt64("restaurant_id") {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Order not found"})
			return
		}
		s.hub.broadcast(models.Message{Type: models.EventOrderStatus, OrderID: out.ID, Status: out.Status})
		c.JSON(http.StatusOK, out)
	}
}
