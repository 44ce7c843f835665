package apitest

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-restaurant-ordering/models"
)

func (s *Server) lookupTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, t := range s.tables {
			if t.Code == code {
				c.JSON(http.StatusOK, t)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"detail": "Table not found"})
	}
}

func (s *Server) publicTables() gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, _ := strconv.ParseInt(c.Query("restaurant_id"), 10, 64)
		s.mu.Lock()
		defer s.mu.Unlock()
		out := []models.Table{}
		for _, t := range s.tables {
			if restaurantID == 0 || t.RestaurantID == restaurantID {
				out = append(out, t)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		c.JSON(http.StatusOK, out)
	}
}
