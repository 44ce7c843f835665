package apitest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func UserRoutes(incomingRoutes *gin.Engine, s *Server) {
	incomingRoutes.POST("/api/auth/login", s.login())
	incomingRoutes.GET("/api/auth/me", s.authentication(), s.me())
}

func MenuRoutes(incomingRoutes *gin.RouterGroup, s *Server) {
	incomingRoutes.GET("/menu/", s.getMenu())
	incomingRoutes.GET("/recommendations/trending", s.getTrending())
}

func TableRoutes(incomingRoutes *gin.RouterGroup, s *Server) {
	incomingRoutes.GET("/tables/lookup", s.lookupTable())
	incomingRoutes.GET("/tables/public", s.publicTables())
}

func OrderRoutes(incomingRoutes *gin.RouterGroup, s *Server) {
	incomingRoutes.POST("/orders/", s.createOrder())

	staff := incomingRoutes.Group("/orders", s.authentication())
	staff.GET("/", s.getOrders())
	staff.GET("/history", s.getOrderHistory())
	staff.GET("/:order_id", s.getOrder())
	staff.PATCH("/:order_id/status", s.updateOrderStatus())
}

// authentication rejects requests without a valid bearer token.
func (s *Server) authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}
		claims, err := s.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
			return
		}
		c.Set("restaurant_id", claims.RestaurantID)
		c.Set("email", claims.Email)
		c.Next()
	}
}
