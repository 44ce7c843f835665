package apitest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"go-restaurant-ordering/models"
)

func (s *Server) getMenu() gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, err := strconv.ParseInt(c.Query("restaurant_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "restaurant_id is required"})
			return
		}
		diet := c.Query("diet")
		search := strings.ToLower(c.Query("search"))

		s.mu.Lock()
		defer s.mu.Unlock()
		out := []models.Category{}
		for _, cat := range s.menu[restaurantID] {
			filtered := models.Category{ID: cat.ID, Name: cat.Name, Items: []models.MenuItem{}}
			for _, item := range cat.Items {
				if diet != "" && item.Diet != diet {
					continue
				}
				if search != "" && !strings.Contains(strings.ToLower(item.Name), search) {
					continue
				}
				filtered.Items = append(filtered.Items, item)
			}
			out = append(out, filtered)
		}
		c.JSON(http.StatusOK, out)
	}
}

// getTrending ranks menu items by the quantity ordered so far.
func (s *Server) getTrending() gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, _ := strconv.ParseInt(c.Query("restaurant_id"), 10, 64)
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
		if err != nil || limit < 1 {
			limit = 5
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		counts := make(map[int64]int)
		for _, o := range s.orders {
			if o.RestaurantID != restaurantID {
				continue
			}
			for _, it := range o.Items {
				counts[it.MenuItemID] += it.Quantity
			}
		}
		var items []models.MenuItem
		for _, cat := range s.menu[restaurantID] {
			for _, it := range cat.Items {
				if counts[it.ID] > 0 {
					items = append(items, it)
				}
			}
		}
		sort.SliceStable(items, func(i, j int) bool { return counts[items[i].ID] > counts[items[j].ID] })
		if len(items) > limit {
			items = items[:limit]
		}
		if items == nil {
			items = []models.MenuItem{}
		}
		c.JSON(http.StatusOK, items)
	}
}

// findMenuItem must be called with s.mu held.
func (s *Server) findMenuItem(restaurantID, itemID int64) (models.MenuItem, bool) {
	for _, cat := range s.menu[restaurantID] {
		for _, it := range cat.Items {
			if it.ID == itemID {
				return it, true
			}
		}
	}
	return models.MenuItem{}, false
}
