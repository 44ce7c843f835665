package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"go-restaurant-ordering/models"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrSubmitInProgress = errors.New("order is already being sent")
)

// OrderCreator sends a finished cart to the ordering API.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error)
}

type Line struct {
	MenuItemID          int64
	Name                string
	UnitPrice           decimal.Decimal
	Quantity            int
	SpecialInstructions string
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is a diner's unsent selection for one table. Every line has a
// distinct menu item and a quantity of at least one.
type Cart struct {
	entry  TableContext
	orders OrderCreator
	log    *slog.Logger

	mu         sync.Mutex
	lines      []Line
	notes      string
	submitting bool
}

type Option func(*Cart)

func WithLogger(l *slog.Logger) Option {
	return func(c *Cart) { c.log = l }
}

func New(entry TableContext, orders OrderCreator, opts ...Option) *Cart {
	c := &Cart{
		entry:  entry,
		orders: orders,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cart) Context() TableContext { return c.entry }

// AddItem puts one more of item in the cart.
func (c *Cart) AddItem(item models.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(item.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, Line{
		MenuItemID: item.ID,
		Name:       item.Name,
		UnitPrice:  decimal.NewFromFloat(item.Price),
		Quantity:   1,
	})
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
// Unknown ids are ignored.
func (c *Cart) UpdateQuantity(menuItemID int64, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(menuItemID)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		c.lines = append(c.lines[:i:i], c.lines[i+1:]...)
		return
	}
	c.lines[i].Quantity = quantity
}

func (c *Cart) SetInstruction(menuItemID int64, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(menuItemID); i >= 0 {
		c.lines[i].SpecialInstructions = text
	}
}

func (c *Cart) SetOrderNotes(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = text
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.notes = ""
}

// Submit sends the cart as a new order and returns its id. The cart is
// cleared only once the API confirms the order; on any failure it is left
// exactly as it was and the call can be retried.
func (c *Cart) Submit(ctx context.Context) (int64, error) {
	c.mu.Lock()
	if len(c.lines) == 0 {
		c.mu.Unlock()
		return 0, ErrEmptyCart
	}
	if c.submitting {
		c.mu.Unlock()
		return 0, ErrSubmitInProgress
	}
	c.submitting = true
	req := c.payload()
	c.mu.Unlock()

	order, err := c.orders.CreateOrder(ctx, req)
	if err == nil && order == nil {
		err = errors.New("empty response from order api")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		c.log.Warn("order submission failed", "table_id", c.entry.TableID, "lines", len(req.Items), "error", err)
		return 0, fmt.Errorf("submit order: %w", err)
	}
	c.lines = nil
	c.notes = ""
	c.log.Info("order submitted", "order_id", order.ID, "table_id", c.entry.TableID)
	return order.ID, nil
}

func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Notes() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notes
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Count is the number of items across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Total())
	}
	return total
}

func (c *Cart) index(menuItemID int64) int {
	for i, l := range c.lines {
		if l.MenuItemID == menuItemID {
			return i
		}
	}
	return -1
}

// payload must be called with c.mu held.
func (c *Cart) payload() models.CreateOrderRequest {
	req := models.CreateOrderRequest{
		RestaurantID: c.entry.restaurantRef(),
		TableID:      c.entry.tableRef(),
		Notes:        c.notes,
		Items:        make([]models.CreateOrderItem, 0, len(c.lines)),
	}
	for _, l := range c.lines {
		item := models.CreateOrderItem{MenuItemID: l.MenuItemID, Quantity: l.Quantity}
		if l.SpecialInstructions != "" {
			s := l.SpecialInstructions
			item.SpecialInstructions = &s
		}
		req.Items = append(req.Items, item)
	}
	return req
}
