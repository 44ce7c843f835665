package apitest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"go-restaurant-ordering/models"
)

func (s *Server) login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		if err := s.validate.Struct(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}

		s.mu.Lock()
		u, ok := s.users[req.Email]
		s.mu.Unlock()
		if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials"})
			return
		}

		c.JSON(http.StatusOK, models.LoginResponse{
			Token:          s.IssueToken(u.restaurantID, 24*time.Hour),
			RestaurantID:   u.restaurantID,
			RestaurantName: u.restaurantName,
		})
	}
}

func (s *Server) me() gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID := c.GetInt64("restaurant_id")
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, u := range s.users {
			if u.restaurantID == restaurantID {
				c.JSON(http.StatusOK, models.Profile{
					ID:             u.id,
					Name:           u.name,
					Email:          u.email,
					Role:           "owner",
					RestaurantID:   u.restaurantID,
					RestaurantName: u.restaurantName,
				})
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
	}
}
