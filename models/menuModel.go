package models

type MenuItem struct {
	ID          int64    `json:"id" validate:"required"`
	CategoryID  int64    `json:"category_id"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"min=0"`
	Diet        string   `json:"diet,omitempty"`
	Available   bool     `json:"is_available"`
	Tags        []string `json:"tags,omitempty"`
}

type Category struct {
	ID    int64      `json:"id" validate:"required"`
	Name  string     `json:"name"`
	Items []MenuItem `json:"items" validate:"dive"`
}

// MenuFilter narrows a menu listing. Empty fields are not sent.
type MenuFilter struct {
	Diet   string
	Search string
}

type Table struct {
	ID           int64  `json:"id" validate:"required"`
	Label        string `json:"label"`
	Code         string `json:"code" validate:"required"`
	RestaurantID int64  `json:"restaurant_id" validate:"required"`
}
