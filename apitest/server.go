// Package apitest runs an in-process fake of the remote ordering API: the REST
// endpoints under /api and the /ws/orders push channel.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"golang.org/x/crypto/bcrypt"

	"go-restaurant-ordering/helpers"
	"go-restaurant-ordering/models"
)

type user struct {
	id             int64
	name           string
	email          string
	passwordHash   []byte
	restaurantID   int64
	restaurantName string
}

type failure struct {
	status    int
	remaining int // <0 means until cleared
}

// Server is a fake ordering API backed by memory.
type Server struct {
	*httptest.Server

	secret   []byte
	validate *validator.Validate
	hub      *hub

	mu       sync.Mutex
	users    map[string]*user
	tables   map[int64]models.Table
	menu     map[int64][]models.Category
	orders   map[int64]*models.Order
	nextID   int64
	calls    map[string]int
	failures map[string]*failure
	delay    map[string]time.Duration
}

func NewServer() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		secret:   []byte("apitest-secret"),
		validate: models.NewValidator(),
		hub:      newHub(),
		users:    make(map[string]*user),
		tables:   make(map[int64]models.Table),
		menu:     make(map[int64][]models.Category),
		orders:   make(map[int64]*models.Order),
		nextID:   1,
		calls:    make(map[string]int),
		failures: make(map[string]*failure),
		delay:    make(map[string]time.Duration),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.faults())
	UserRoutes(router, s)
	router.GET(pushPath, s.hub.handleWebSocket())

	api := router.Group("/api")
	MenuRoutes(api, s)
	TableRoutes(api, s)
	OrderRoutes(api, s)

	s.Server = httptest.NewServer(router)
	return s
}

// BaseURL is the API base the client should be configured with.
func (s *Server) BaseURL() string { return s.URL + "/api" }

func (s *Server) Close() {
	s.hub.closeAll()
	s.Server.Close()
}

// IssueToken signs a staff token for restaurantID valid for ttl.
func (s *Server) IssueToken(restaurantID int64, ttl time.Duration) string {
	claims := helpers.SignedDetails{
		RestaurantID: restaurantID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(ttl).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return token
}

// ValidateToken verifies the signature and expiry of a staff token.
func (s *Server) ValidateToken(signedToken string) (*helpers.SignedDetails, error) {
	token, err := jwt.ParseWithClaims(signedToken, &helpers.SignedDetails{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*helpers.SignedDetails)
	if !ok || !token.Valid {
		return nil, jwt.NewValidationError("the token is invalid", jwt.ValidationErrorClaimsInvalid)
	}
	return claims, nil
}

func (s *Server) AddUser(email, password string, restaurantID int64, restaurantName string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = &user{
		id:             int64(len(s.users) + 1),
		email:          email,
		name:           email,
		passwordHash:   hash,
		restaurantID:   restaurantID,
		restaurantName: restaurantName,
	}
}

func (s *Server) AddTable(t models.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.ID] = t
}

func (s *Server) AddCategory(restaurantID int64, c models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu[restaurantID] = append(s.menu[restaurantID], c)
}

// AddOrder stores o as is, assigning an id when it has none.
func (s *Server) AddOrder(o models.Order) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		o.ID = s.nextID
	}
	if o.ID >= s.nextID {
		s.nextID = o.ID + 1
	}
	if o.Status == "" {
		o.Status = models.StatusPending
	}
	s.orders[o.ID] = &o
	return o.ID
}

func (s *Server) Order(id int64) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, false
	}
	return *o, true
}

func (s *Server) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// Calls returns how many requests reached route, e.g. "GET /api/orders/".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Fail makes the next n requests to route answer with status. A negative n
// fails until ClearFailures.
func (s *Server) Fail(route string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &failure{status: status, remaining: n}
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]*failure)
}

// Delay holds every request to route for d before it is handled.
func (s *Server) Delay(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay[route] = d
}

// Broadcast sends msg to every connected push client.
func (s *Server) Broadcast(msg models.Message) { s.hub.broadcast(msg) }

// PushClients is the number of open push connections.
func (s *Server) PushClients() int { return s.hub.count() }

// DropPushClients closes every push connection from the server side.
func (s *Server) DropPushClients() { s.hub.closeAll() }

// RejectPush makes the push endpoint refuse upgrades while on is true.
func (s *Server) RejectPush(on bool) {
	if on {
		s.Fail(pushRoute, http.StatusServiceUnavailable, -1)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, pushRoute)
}

func (s *Server) faults() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.Request.Method + " " + c.FullPath()
		s.mu.Lock()
		s.calls[route]++
		d := s.delay[route]
		var status int
		if f, ok := s.failures[route]; ok && f.remaining != 0 {
			status = f.status
			if f.remaining > 0 {
				f.remaining--
			}
		}
		s.mu.Unlock()

		if d > 0 {
			time.Sleep(d)
		}
		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"detail": http.StatusText(status)})
			return
		}
		c.Next()
	}
}

func (s *Server) sortedOrders(restaurantID int64) []models.Order {
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if restaurantID != 0 && o.RestaurantID != restaurantID {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}
