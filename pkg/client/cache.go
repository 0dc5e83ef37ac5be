// Package client implements the consumer side of the notification
// channel: an eventually-consistent mirror of a recipient's
// notifications and unread count, fed by pushed events and healed by
// on-demand refetch.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/grupobacar/helpdesk/internal/model"
)

// Notification and NotificationType are re-exported so importers of the
// client library can name the records the cache traffics in.
type (
	Notification     = model.Notification
	NotificationType = model.NotificationType
)

const (
	TypeSuccess = model.NotificationTypeSuccess
	TypeError   = model.NotificationTypeError
	TypeInfo    = model.NotificationTypeInfo
	TypeWarning = model.NotificationTypeWarning
)

// State is the connection state of the cache.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	defaultReconnectDelay = 3 * time.Second
	defaultMaxReconnects  = 5
)

// ErrReconnectExhausted is returned through LastError once the cache has
// given up on automatic reconnection; a manual Connect or Refresh is
// required from then on.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

type Config struct {
	// BaseURL of the helpdesk service, e.g. "http://localhost:8080".
	BaseURL string
	// Token is the signed credential used for both the channel handshake
	// and HTTP pulls.
	Token string
	// ReconnectDelay is the fixed delay between reconnect attempts.
	ReconnectDelay time.Duration
	// MaxReconnects caps automatic reconnection attempts.
	MaxReconnects int
	HTTPClient    *http.Client
	Logger        *zap.Logger
	// OnNotification, when set, is invoked for every pushed notification
	// that survives dedup.
	OnNotification func(Notification)
}

// Cache mirrors the server-side notification state for one recipient.
type Cache struct {
	cfg Config

	mu            sync.Mutex
	state         State
	notifications []Notification
	unread        int
	lastErr       error
	cancel        context.CancelFunc
	done          chan struct{}
}

func New(cfg Config) *Cache {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = defaultMaxReconnects
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Cache{cfg: cfg}
}

// State returns the current connection state.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the cached notifications (newest first) and
// the unread count.
func (c *Cache) Snapshot() ([]Notification, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.notifications))
	copy(out, c.notifications)
	return out, c.unread
}

// LastError returns the most recent transport or pull error, if any.
func (c *Cache) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Connect starts the channel loop. It returns immediately; the cache
// moves through Connecting to Connected in the background and falls
// back to reconnect-with-cap on transport failure.
func (c *Cache) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run(runCtx)
}

// Close disconnects and stops reconnection.
func (c *Cache) Close() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (c *Cache) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Cache) setError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Cache) run(ctx context.Context) {
	defer close(c.done)
	defer c.setState(Disconnected)
	// Allow a manual Connect after the loop gives up.
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
	}()

	attempts := 0
	for {
		if ctx.Err() != nil {
			return
		}

		c.setState(Connecting)
		err := c.stream(ctx)
		c.setState(Disconnected)

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.setError(err)
			c.cfg.Logger.Warn("Channel stream ended", zap.Error(err))
		}

		attempts++
		if attempts > c.cfg.MaxReconnects {
			c.setError(ErrReconnectExhausted)
			c.cfg.Logger.Warn("Giving up on automatic reconnection",
				zap.Int("attempts", attempts-1),
			)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

// stream opens the SSE connection, reconciles the baseline, then applies
// pushed events until the stream breaks.
func (c *Cache) stream(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/api/events?token=%s", c.cfg.BaseURL, url.QueryEscape(c.cfg.Token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected channel status %d", resp.StatusCode)
	}

	c.setState(Connected)

	// Baseline pull: heals anything missed while disconnected. The
	// stream is already open, so a notification pushed during the pull
	// arrives as an event and is deduplicated by id.
	if err := c.Refresh(ctx); err != nil {
		c.cfg.Logger.Warn("Baseline pull failed, keeping last-known cache", zap.Error(err))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventName, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if eventName != "" && data != "" {
				c.apply(eventName, data)
			}
			eventName, data = "", ""
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		default:
			// comment lines (heartbeats) and unknown fields are ignored
		}
	}
	return scanner.Err()
}

// apply folds one pushed event into the mirror. Prepend is optimistic
// and deduplicated by id so a push racing a concurrent pull cannot
// produce duplicate entries.
func (c *Cache) apply(eventName, data string) {
	if eventName != "notification" {
		return
	}

	var n Notification
	if err := json.Unmarshal([]byte(data), &n); err != nil {
		c.cfg.Logger.Warn("Failed to decode pushed notification", zap.Error(err))
		return
	}

	c.mu.Lock()
	duplicate := false
	for _, existing := range c.notifications {
		if existing.ID == n.ID {
			duplicate = true
			break
		}
	}
	if !duplicate {
		c.notifications = append([]Notification{n}, c.notifications...)
		if !n.IsRead {
			c.unread++
		}
	}
	c.mu.Unlock()

	if !duplicate && c.cfg.OnNotification != nil {
		c.cfg.OnNotification(n)
	}
}

type listResponse struct {
	Success bool           `json:"success"`
	Data    []Notification `json:"data"`
}

type countResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Count int `json:"count"`
	} `json:"data"`
}

// Refresh performs a full pull (list + unread count) and replaces the
// mirror with the server snapshot. On failure the last-known cache is
// preserved.
func (c *Cache) Refresh(ctx context.Context) error {
	var list listResponse
	if err := c.getJSON(ctx, "/api/notifications", &list); err != nil {
		c.setError(err)
		return err
	}

	var count countResponse
	if err := c.getJSON(ctx, "/api/notifications/unread-count", &count); err != nil {
		c.setError(err)
		return err
	}

	c.mu.Lock()
	c.notifications = list.Data
	c.unread = count.Data.Count
	c.lastErr = nil
	c.mu.Unlock()
	return nil
}

func (c *Cache) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
