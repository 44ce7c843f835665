package livesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go-restaurant-ordering/api"
	"go-restaurant-ordering/models"
)

const DefaultPollInterval = 6 * time.Second

var (
	ErrTerminalStatus = models.ErrTerminalStatus
	ErrClosed         = errors.New("live sync channel is closed")
	ErrUnknownOrder   = errors.New("order is not on the board")
	ErrAlreadyStarted = errors.New("live sync channel already started")
)

// OrderSource is the part of the ordering API the board needs.
type OrderSource interface {
	ListOrders(ctx context.Context, status models.Status) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status models.Status) error
}

type CredentialChecker interface {
	Token() (string, bool)
}

type Config struct {
	// PushURL is the websocket endpoint notifying about order changes.
	PushURL string
	// PollInterval is the refetch period while push is unavailable.
	PollInterval time.Duration
	// PushRetryInterval, when positive, re-dials the push channel at this
	// period while degraded. Zero keeps polling for the rest of the session.
	PushRetryInterval time.Duration
	// ApplyOutOfOrder lets a response that started before the last applied
	// one still replace the list. By default such responses are dropped.
	ApplyOutOfOrder bool
}

// session is one Start..Stop lifetime. Work started for a session whose
// generation is no longer current must not touch the channel.
type session struct {
	gen uint64
	// ctx ends with the session and bounds dialing and timers.
	ctx    context.Context
	cancel context.CancelFunc
	// fetchCtx outlives the session so in-flight fetches resolve normally.
	fetchCtx context.Context
}

// Channel keeps a reconciled list of the restaurant's orders for the kitchen
// board. It prefers the push channel and falls back to polling.
type Channel struct {
	orders  OrderSource
	creds   CredentialChecker
	dialer  Dialer
	cfg     Config
	log     *slog.Logger
	now     func() time.Time
	updates chan Snapshot

	mu           sync.Mutex
	state        State
	list         []models.Order
	lastErr      string
	authRequired bool
	updatedAt    time.Time
	gen          uint64
	sess         *session
	issued       uint64 // sequence of the last fetch started
	applied      uint64 // sequence of the last fetch applied
	conn         Conn
	pollStop     chan struct{}
	retryStop    chan struct{}
	staleDrops   int
}

type Option func(*Channel)

func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) { c.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Channel) { c.now = now }
}

func New(orders OrderSource, creds CredentialChecker, dialer Dialer, cfg Config, opts ...Option) *Channel {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if dialer == nil {
		dialer = NewWebsocketDialer(10 * time.Second)
	}
	c := &Channel{
		orders:  orders,
		creds:   creds,
		dialer:  dialer,
		cfg:     cfg,
		log:     slog.Default(),
		now:     time.Now,
		updates: make(chan Snapshot, 1),
		state:   StateClosed,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start opens a session: the first fetch is issued right away while the push
// channel is dialed. Without a credential it fails with api.ErrAuthRequired
// before touching the network. The session ends on Stop or when ctx is done.
func (c *Channel) Start(ctx context.Context) error {
	if _, ok := c.creds.Token(); !ok {
		c.mu.Lock()
		if c.state == StateClosed {
			c.lastErr = "login required to view kitchen orders"
			c.authRequired = true
			c.publishLocked()
		}
		c.mu.Unlock()
		return api.ErrAuthRequired
	}

	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.gen++
	sessCtx, cancel := context.WithCancel(ctx)
	s := &session{
		gen:      c.gen,
		ctx:      sessCtx,
		cancel:   cancel,
		fetchCtx: context.WithoutCancel(sessCtx),
	}
	c.sess = s
	c.state = StateConnecting
	c.lastErr = ""
	c.authRequired = false
	c.publishLocked()
	c.mu.Unlock()

	c.log.Info("live sync starting", "push_url", c.cfg.PushURL, "generation", s.gen)

	go c.watch(s)
	go func() {
		if err := c.load(s.fetchCtx, s); err != nil {
			c.log.Warn("initial order fetch failed", "error", err)
		}
	}()
	go c.connect(s)
	return nil
}

// Stop closes the session. Fetches still in flight finish but their results
// are discarded.
func (c *Channel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.closeLocked()
	c.log.Info("live sync stopped")
}

// Refresh fetches the full order list now, whatever the connection state.
func (c *Channel) Refresh(ctx context.Context) error {
	c.mu.Lock()
	s, err := c.openSessionLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.load(ctx, s)
}

// AdvanceStatus moves an order one step along the kitchen progression,
// based on the status from the last applied fetch, then refreshes. The board
// is not updated optimistically; on failure it keeps showing what the server
// last reported.
func (c *Channel) AdvanceStatus(ctx context.Context, orderID int64) error {
	c.mu.Lock()
	s, err := c.openSessionLocked()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	current, found := c.findLocked(orderID)
	c.mu.Unlock()
	if !found {
		return fmt.Errorf("order %d: %w", orderID, ErrUnknownOrder)
	}

	next, err := current.Next()
	if err != nil {
		return fmt.Errorf("order %d: %w", orderID, err)
	}

	if err := c.orders.UpdateOrderStatus(ctx, orderID, next); err != nil {
		c.mu.Lock()
		if c.currentLocked(s) {
			c.failLocked(err)
		}
		c.mu.Unlock()
		return fmt.Errorf("advance order %d to %s: %w", orderID, next, err)
	}
	c.log.Info("order advanced", "order_id", orderID, "status", next)
	return c.Refresh(ctx)
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Updates delivers the latest snapshot after every change. Intermediate
// snapshots are dropped if the receiver falls behind.
func (c *Channel) Updates() <-chan Snapshot {
	return c.updates
}

// load fetches the full list and, if the session is still current and no
// newer response was applied meanwhile, replaces the held list with it.
func (c *Channel) load(ctx context.Context, s *session) error {
	c.mu.Lock()
	if !c.currentLocked(s) {
		c.mu.Unlock()
		return nil
	}
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	orders, err := c.orders.ListOrders(ctx, "")

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentLocked(s) {
		c.staleDrops++
		c.log.Debug("discarding fetch from a closed session", "generation", s.gen, "seq", seq)
		return nil
	}
	if err != nil {
		c.failLocked(err)
		return err
	}
	if seq < c.applied && !c.cfg.ApplyOutOfOrder {
		c.staleDrops++
		c.log.Debug("discarding out of order fetch", "seq", seq, "applied", c.applied)
		return nil
	}
	c.applied = seq
	c.list = orders
	c.lastErr = ""
	c.updatedAt = c.now()
	c.publishLocked()
	return nil
}

func (c *Channel) connect(s *session) {
	conn, err := c.dial(s)
	if err != nil {
		c.pushFailed(s, nil, err)
		return
	}
	if c.pushOpened(s, conn) {
		c.read(s, conn)
	}
}

func (c *Channel) dial(s *session) (Conn, error) {
	header := http.Header{}
	if token, ok := c.creds.Token(); ok {
		header.Set("Authorization", "Bearer "+token)
	}
	return c.dialer.Dial(s.ctx, c.cfg.PushURL, header)
}

func (c *Channel) pushOpened(s *session, conn Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentLocked(s) {
		conn.Close()
		return false
	}
	recovered := c.state == StateDegraded
	c.conn = conn
	c.state = StateLive
	c.stopPollingLocked()
	c.stopRetryLocked()
	c.publishLocked()
	c.log.Info("push channel open", "recovered", recovered)

	// Changes between the last poll and now produced no notification.
	if recovered {
		go func() {
			if err := c.load(s.fetchCtx, s); err != nil {
				c.log.Warn("order fetch after push recovery failed", "error", err)
			}
		}()
	}
	return true
}

func (c *Channel) read(s *session, conn Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.pushFailed(s, conn, err)
			return
		}
		var msg models.Message
		if json.Unmarshal(payload, &msg) == nil {
			c.log.Debug("push notification", "type", msg.Type, "order_id", msg.OrderID)
		}
		go func() {
			if err := c.load(s.fetchCtx, s); err != nil {
				c.log.Warn("order fetch after notification failed", "error", err)
			}
		}()
	}
}

// pushFailed moves the channel to polling. conn is nil when dialing failed.
func (c *Channel) pushFailed(s *session, conn Conn, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentLocked(s) {
		return
	}
	if conn != nil {
		if c.conn != conn {
			return
		}
		conn.Close()
		c.conn = nil
	}
	if c.state != StateDegraded {
		c.log.Warn("push channel unavailable, polling for orders", "error", err, "interval", c.cfg.PollInterval)
	}
	c.state = StateDegraded
	c.startPollingLocked(s)
	c.startRetryLocked(s)
	c.publishLocked()
}

func (c *Channel) poll(s *session, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := c.load(s.fetchCtx, s); err != nil {
				c.log.Warn("order poll failed", "error", err)
			}
		}
	}
}

func (c *Channel) retryPush(s *session, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PushRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			conn, err := c.dial(s)
			if err != nil {
				c.log.Debug("push channel retry failed", "error", err)
				continue
			}
			if c.pushOpened(s, conn) {
				c.read(s, conn)
			}
			return
		}
	}
}

func (c *Channel) watch(s *session) {
	<-s.ctx.Done()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentLocked(s) {
		c.log.Info("live sync context done, closing")
		c.closeLocked()
	}
}

// failLocked records a failed request. Authorization failures end the
// session; anything else only shows up as the transient error.
func (c *Channel) failLocked(err error) {
	if errors.Is(err, api.ErrAuthRequired) {
		c.log.Warn("credential rejected, halting live sync", "error", err)
		c.closeLocked()
		c.lastErr = api.ErrAuthRequired.Error()
		c.authRequired = true
		c.publishLocked()
		return
	}
	c.lastErr = err.Error()
	c.publishLocked()
}

func (c *Channel) closeLocked() {
	c.gen++
	c.stopPollingLocked()
	c.stopRetryLocked()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	if c.sess != nil {
		c.sess.cancel()
		c.sess = nil
	}
	c.state = StateClosed
	c.publishLocked()
}

func (c *Channel) startPollingLocked(s *session) {
	if c.pollStop != nil {
		return
	}
	stop := make(chan struct{})
	c.pollStop = stop
	go c.poll(s, stop)
}

func (c *Channel) stopPollingLocked() {
	if c.pollStop != nil {
		close(c.pollStop)
		c.pollStop = nil
	}
}

func (c *Channel) startRetryLocked(s *session) {
	if c.cfg.PushRetryInterval <= 0 || c.retryStop != nil {
		return
	}
	stop := make(chan struct{})
	c.retryStop = stop
	go c.retryPush(s, stop)
}

func (c *Channel) stopRetryLocked() {
	if c.retryStop != nil {
		close(c.retryStop)
		c.retryStop = nil
	}
}

func (c *Channel) currentLocked(s *session) bool {
	return s != nil && s.gen == c.gen && c.state != StateClosed
}

func (c *Channel) openSessionLocked() (*session, error) {
	if c.state == StateClosed {
		if c.authRequired {
			return nil, api.ErrAuthRequired
		}
		return nil, ErrClosed
	}
	return c.sess, nil
}

func (c *Channel) findLocked(orderID int64) (models.Status, bool) {
	for _, o := range c.list {
		if o.ID == orderID {
			return o.Status, true
		}
	}
	return "", false
}

func (c *Channel) snapshotLocked() Snapshot {
	orders := make([]models.Order, len(c.list))
	copy(orders, c.list)
	return Snapshot{
		State:        c.state,
		Orders:       orders,
		Err:          c.lastErr,
		AuthRequired: c.authRequired,
		UpdatedAt:    c.updatedAt,
	}
}

func (c *Channel) publishLocked() {
	snap := c.snapshotLocked()
	select {
	case <-c.updates:
	default:
	}
	select {
	case c.updates <- snap:
	default:
	}
}
