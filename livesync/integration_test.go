package livesync_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-restaurant-ordering/api"
	"go-restaurant-ordering/apitest"
	"go-restaurant-ordering/helpers"
	"go-restaurant-ordering/livesync"
	"go-restaurant-ordering/models"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

func setup(t *testing.T, cfg livesync.Config) (*apitest.Server, *api.Client, *livesync.Channel) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddTable(models.Table{ID: 12, Label: "Table 12", Code: "ab12cd34ef", RestaurantID: 3})
	srv.AddCategory(3, models.Category{ID: 1, Name: "Pizza", Items: []models.MenuItem{
		{ID: 101, Name: "Margherita", Price: 9.5, Available: true},
	}})

	creds := helpers.NewCredentialManager(nil)
	creds.SetToken(srv.IssueToken(3, time.Hour))
	client := api.NewClient(srv.BaseURL(), creds)

	pushURL, err := client.PushURL(api.DefaultPushPath)
	require.NoError(t, err)
	cfg.PushURL = pushURL
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 20 * time.Millisecond
	}
	ch := livesync.New(client, creds, livesync.NewWebsocketDialer(time.Second), cfg)
	t.Cleanup(ch.Stop)
	return srv, client, ch
}

func placeOrder(t *testing.T, client *api.Client) int64 {
	t.Helper()
	restaurant, table := int64(3), int64(12)
	order, err := client.CreateOrder(context.Background(), models.CreateOrderRequest{
		RestaurantID: &restaurant,
		TableID:      &table,
		Items:        []models.CreateOrderItem{{MenuItemID: 101, Quantity: 2}},
	})
	require.NoError(t, err)
	return order.ID
}

func hasOrder(ch *livesync.Channel, id int64, status models.Status) bool {
	for _, o := range ch.Snapshot().Orders {
		if o.ID == id {
			return o.Status == status
		}
	}
	return false
}

func TestChannel_KitchenBoardFlow(t *testing.T) {
	srv, client, ch := setup(t, livesync.Config{})
	existing := placeOrder(t, client)

	require.NoError(t, ch.Start(context.Background()))
	require.Eventually(t, func() bool {
		return ch.State() == livesync.StateLive && srv.PushClients() == 1
	}, waitFor, tick)
	require.Eventually(t, func() bool { return hasOrder(ch, existing, models.StatusPending) }, waitFor, tick)

	// The create broadcast is the only thing that makes the board refetch.
	created := placeOrder(t, client)
	assert.Eventually(t, func() bool { return hasOrder(ch, created, models.StatusPending) }, waitFor, tick)

	require.NoError(t, ch.AdvanceStatus(context.Background(), created))
	assert.True(t, hasOrder(ch, created, models.StatusInProgress))
	stored, ok := srv.Order(created)
	require.True(t, ok)
	assert.Equal(t, models.StatusInProgress, stored.Status)

	require.NoError(t, ch.AdvanceStatus(context.Background(), created))
	require.NoError(t, ch.AdvanceStatus(context.Background(), created))
	assert.True(t, hasOrder(ch, created, models.StatusCompleted))
	assert.ErrorIs(t, ch.AdvanceStatus(context.Background(), created), livesync.ErrTerminalStatus)

	active := ch.Snapshot().Active()
	require.Len(t, active, 1)
	assert.Equal(t, existing, active[0].ID)
}

func TestChannel_FallsBackToPollingWhenPushDrops(t *testing.T) {
	srv, _, ch := setup(t, livesync.Config{})
	require.NoError(t, ch.Start(context.Background()))
	require.Eventually(t, func() bool { return srv.PushClients() == 1 }, waitFor, tick)

	srv.DropPushClients()
	require.Eventually(t, func() bool { return ch.State() == livesync.StateDegraded }, waitFor, tick)

	// No broadcast reaches the board now; polling has to find the order.
	id := srv.AddOrder(models.Order{RestaurantID: 3, Status: models.StatusReady, CreatedAt: time.Now().UTC()})
	assert.Eventually(t, func() bool { return hasOrder(ch, id, models.StatusReady) }, waitFor, tick)
	assert.Equal(t, livesync.StateDegraded, ch.State())
}

func TestChannel_PushRetryAfterRejection(t *testing.T) {
	srv, _, ch := setup(t, livesync.Config{PollInterval: time.Hour, PushRetryInterval: 20 * time.Millisecond})
	srv.RejectPush(true)

	require.NoError(t, ch.Start(context.Background()))
	require.Eventually(t, func() bool { return ch.State() == livesync.StateDegraded }, waitFor, tick)

	srv.RejectPush(false)
	assert.Eventually(t, func() bool {
		return ch.State() == livesync.StateLive && srv.PushClients() == 1
	}, waitFor, tick)
}

func TestChannel_ExpiredSessionHalts(t *testing.T) {
	srv, _, ch := setup(t, livesync.Config{})
	require.NoError(t, ch.Start(context.Background()))
	require.Eventually(t, func() bool { return ch.State() == livesync.StateLive }, waitFor, tick)

	srv.Fail("GET /api/orders/", 401, 1)
	err := ch.Refresh(context.Background())

	assert.ErrorIs(t, err, api.ErrAuthRequired)
	snap := ch.Snapshot()
	assert.Equal(t, livesync.StateClosed, snap.State)
	assert.True(t, snap.AuthRequired)
	assert.Eventually(t, func() bool { return srv.PushClients() == 0 }, waitFor, tick)

	// The rejected credential was dropped, so a restart fails without a request.
	calls := srv.Calls("GET /api/orders/")
	assert.ErrorIs(t, ch.Start(context.Background()), api.ErrAuthRequired)
	assert.Equal(t, calls, srv.Calls("GET /api/orders/"))
}
