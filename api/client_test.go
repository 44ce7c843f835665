package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-restaurant-ordering/api"
	"go-restaurant-ordering/apitest"
	"go-restaurant-ordering/helpers"
	"go-restaurant-ordering/models"
)

const restaurantID = int64(3)

func setup(t *testing.T) (*apitest.Server, *api.Client) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)

	srv.AddTable(models.Table{ID: 12, Label: "Patio 2", Code: "ab12cd34ef", RestaurantID: restaurantID})
	srv.AddCategory(restaurantID, models.Category{
		ID:   1,
		Name: "Mains",
		Items: []models.MenuItem{
			{ID: 101, Name: "Margherita", Price: 9.5, Diet: "veg", Available: true},
			{ID: 102, Name: "Pepperoni", Price: 11, Diet: "nonveg", Available: true},
		},
	})
	srv.AddUser("chef@example.com", "s3cret", restaurantID, "Trattoria")

	client := api.NewClient(srv.BaseURL(), helpers.NewCredentialManager(nil))
	return srv, client
}

func login(t *testing.T, srv *apitest.Server, client *api.Client) {
	t.Helper()
	client.Credentials().SetToken(srv.IssueToken(restaurantID, time.Hour))
	require.True(t, client.Credentials().HasToken())
}

func TestClient_CreateAndListOrders(t *testing.T) {
	srv, client := setup(t)
	ctx := context.Background()
	tableID := int64(12)
	note := "no basil"

	created, err := client.CreateOrder(ctx, models.CreateOrderRequest{
		RestaurantID: &[]int64{restaurantID}[0],
		TableID:      &tableID,
		Notes:        "window seat",
		Items: []models.CreateOrderItem{
			{MenuItemID: 101, Quantity: 2, SpecialInstructions: &note},
			{MenuItemID: 102, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, "Table 12", created.Label())
	require.Len(t, created.Items, 2)
	assert.Equal(t, "Margherita", created.Items[0].DisplayName())

	_, err = client.ListOrders(ctx, "")
	assert.ErrorIs(t, err, api.ErrAuthRequired, "listing orders is a staff operation")

	login(t, srv, client)
	orders, err := client.ListOrders(ctx, "")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, created.ID, orders[0].ID)

	one, err := client.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, one.ID)
}

func TestClient_UpdateOrderStatus(t *testing.T) {
	srv, client := setup(t)
	id := srv.AddOrder(models.Order{RestaurantID: restaurantID})
	login(t, srv, client)

	require.NoError(t, client.UpdateOrderStatus(context.Background(), id, models.StatusInProgress))

	order, ok := srv.Order(id)
	require.True(t, ok)
	assert.Equal(t, models.StatusInProgress, order.Status)
	assert.Equal(t, 1, srv.Calls("PATCH /api/orders/:order_id/status"))
}

func TestClient_UnauthorizedInvalidatesCredential(t *testing.T) {
	srv, client := setup(t)
	login(t, srv, client)
	srv.Fail("GET /api/orders/", http.StatusUnauthorized, 1)

	_, err := client.ListOrders(context.Background(), "")

	assert.ErrorIs(t, err, api.ErrAuthRequired)
	assert.False(t, client.Credentials().HasToken())
}

func TestClient_ServerErrorIsTransient(t *testing.T) {
	srv, client := setup(t)
	login(t, srv, client)
	srv.Fail("GET /api/orders/", http.StatusBadGateway, 1)

	_, err := client.ListOrders(context.Background(), "")

	var te *api.TransientError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)
	assert.Equal(t, "Bad Gateway", te.Error())
	assert.True(t, client.Credentials().HasToken())

	orders, err := client.ListOrders(context.Background(), "")
	assert.NoError(t, err)
	assert.Empty(t, orders)
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"detail field", http.StatusNotFound, `{"detail":"Menu item 9 not found"}`, "Menu item 9 not found"},
		{"structured detail", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, `[{"msg":"field required"}]`},
		{"plain body", http.StatusInternalServerError, "boom", "boom"},
		{"empty body", http.StatusServiceUnavailable, "", "Service Unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := api.NewClient(srv.URL, nil)
			_, err := client.GetOrder(context.Background(), 1)
			require.Error(t, err)
			assert.True(t, api.IsTransient(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestClient_RejectsMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"status":"lost","items":[]}]`))
	}))
	defer srv.Close()

	_, err := api.NewClient(srv.URL, nil).ListOrders(context.Background(), "")

	require.Error(t, err)
	assert.True(t, api.IsTransient(err))
	assert.Contains(t, err.Error(), "invalid response")
}

func TestClient_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := api.NewClient(srv.URL, nil).UpdateOrderStatus(context.Background(), 4, models.StatusReady)
	assert.NoError(t, err)
}

func TestClient_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := api.NewClient(url, nil).GetOrder(context.Background(), 1)
	assert.True(t, api.IsTransient(err))
}

func TestClient_LoginStoresCredential(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()

	_, err := client.Login(ctx, "chef@example.com", "wrong")
	assert.ErrorIs(t, err, api.ErrAuthRequired)

	resp, err := client.Login(ctx, "chef@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, restaurantID, resp.RestaurantID)
	assert.True(t, client.Credentials().HasToken())
	assert.Equal(t, "Trattoria", client.Credentials().RestaurantName())

	profile, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "chef@example.com", profile.Email)

	client.Logout()
	_, err = client.Me(ctx)
	assert.ErrorIs(t, err, api.ErrAuthRequired)
}

func TestClient_MenuAndTables(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()

	menu, err := client.GetMenu(ctx, restaurantID, models.MenuFilter{Diet: "veg"})
	require.NoError(t, err)
	require.Len(t, menu, 1)
	require.Len(t, menu[0].Items, 1)
	assert.Equal(t, "Margherita", menu[0].Items[0].Name)

	menu, err = client.GetMenu(ctx, restaurantID, models.MenuFilter{Diet: "all", Search: " pepp "})
	require.NoError(t, err)
	require.Len(t, menu[0].Items, 1)
	assert.Equal(t, int64(102), menu[0].Items[0].ID)

	table, err := client.LookupTable(ctx, "ab12cd34ef")
	require.NoError(t, err)
	assert.Equal(t, int64(12), table.ID)

	_, err = client.LookupTable(ctx, "missing")
	assert.True(t, api.IsTransient(err))

	tables, err := client.PublicTables(ctx, restaurantID)
	require.NoError(t, err)
	assert.Len(t, tables, 1)
}

func TestClient_Trending(t *testing.T) {
	srv, client := setup(t)
	srv.AddOrder(models.Order{RestaurantID: restaurantID, Items: []models.OrderItem{
		{MenuItemID: 102, Quantity: 3},
		{MenuItemID: 101, Quantity: 1},
	}})

	items, err := client.Trending(context.Background(), restaurantID, 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(102), items[0].ID)
}

func TestPushURL(t *testing.T) {
	tests := []struct {
		base, path, want string
		wantErr          bool
	}{
		{base: "http://localhost:8000/api", path: "/ws/orders", want: "ws://localhost:8000/ws/orders"},
		{base: "https://orders.example.com/api/", path: "", want: "wss://orders.example.com/ws/orders"},
		{base: "ftp://example.com", wantErr: true},
		{base: "/api", wantErr: true},
	}
	for _, tt := range tests {
		got, err := api.PushURL(tt.base, tt.path)
		if tt.wantErr {
			assert.Error(t, err, tt.base)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
