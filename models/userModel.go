package models

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token          string `json:"token" validate:"required"`
	RestaurantID   int64  `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name,omitempty"`
}

// Profile is the authenticated staff member as reported by /auth/me.
type Profile struct {
	ID             int64  `json:"id" validate:"required"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	RestaurantID   int64  `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
}
