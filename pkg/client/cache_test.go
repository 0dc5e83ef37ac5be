package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/grupobacar/helpdesk/internal/httpserver"
	"github.com/grupobacar/helpdesk/internal/model"
	"github.com/grupobacar/helpdesk/internal/service/notification"
	"github.com/grupobacar/helpdesk/internal/service/user"
	"github.com/grupobacar/helpdesk/internal/sse"
	"github.com/grupobacar/helpdesk/internal/testutil"
	"github.com/grupobacar/helpdesk/pkg/auth"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// startTestServer runs the real router (SSE endpoint included) over
// in-memory fakes, so cache tests exercise the full push/pull contract.
func startTestServer(t *testing.T) (*httptest.Server, *notification.Service) {
	t.Helper()

	store := testutil.NewMemStore()
	directory := &testutil.MemDirectory{
		Users: []model.User{
			{ID: 42, Email: "cliente@example.com", Role: model.RoleClient},
		},
	}
	hub := sse.NewHub()
	broadcaster := sse.NewBroadcaster(hub, nil, zap.NewNop())

	svc := notification.NewService(store, directory, broadcaster, zap.NewNop())

	router := httpserver.NewRouter(
		httpserver.NewAuthHandler(user.NewService(directory, testSecret)),
		httpserver.NewNotificationHandler(svc, zap.NewNop()),
		httpserver.NewEventsHandler(hub, testSecret, zap.NewNop()),
		testSecret,
	)

	srv := httptest.NewServer(router.Engine)
	t.Cleanup(srv.Close)
	return srv, svc
}

func newTestCache(t *testing.T, baseURL string) *Cache {
	t.Helper()
	token, err := auth.GenerateToken(42, model.RoleClient, testSecret)
	if err != nil {
		t.Fatal(err)
	}
	return New(Config{
		BaseURL:        baseURL,
		Token:          token,
		ReconnectDelay: 20 * time.Millisecond,
		MaxReconnects:  2,
	})
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestConnectEstablishesBaseline(t *testing.T) {
	srv, svc := startTestServer(t)

	// Notifications created while the client is disconnected.
	ctx := context.Background()
	if _, err := svc.Notify(ctx, 42, "m1", model.NotificationTypeInfo, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Notify(ctx, 42, "m2", model.NotificationTypeInfo, nil); err != nil {
		t.Fatal(err)
	}

	cache := newTestCache(t, srv.URL)
	cache.Connect(ctx)
	defer cache.Close()

	eventually(t, 2*time.Second, func() bool {
		return cache.State() == Connected
	}, "cache never connected")

	// The baseline pull heals everything missed while disconnected.
	eventually(t, 2*time.Second, func() bool {
		notifications, unread := cache.Snapshot()
		return len(notifications) == 2 && unread == 2
	}, "baseline pull did not populate the cache")

	notifications, _ := cache.Snapshot()
	if notifications[0].Message != "m2" || notifications[1].Message != "m1" {
		t.Errorf("expected newest first, got %+v", notifications)
	}
}

func TestPushAppliedWhileConnected(t *testing.T) {
	srv, svc := startTestServer(t)

	cache := newTestCache(t, srv.URL)
	cache.Connect(context.Background())
	defer cache.Close()

	eventually(t, 2*time.Second, func() bool {
		return cache.State() == Connected
	}, "cache never connected")

	created, err := svc.Notify(context.Background(), 42, "Ticket #7 actualizado|||Cambió a en progreso", model.NotificationTypeInfo, &notification.Related{Type: "ticket", ID: 7})
	if err != nil {
		t.Fatal(err)
	}

	eventually(t, 2*time.Second, func() bool {
		notifications, unread := cache.Snapshot()
		return len(notifications) == 1 && unread == 1 && notifications[0].ID == created.ID
	}, "pushed notification never reached the cache")
}

func TestPushAndPullDeduplicateByID(t *testing.T) {
	srv, svc := startTestServer(t)

	cache := newTestCache(t, srv.URL)
	cache.Connect(context.Background())
	defer cache.Close()

	eventually(t, 2*time.Second, func() bool {
		return cache.State() == Connected
	}, "cache never connected")

	created, err := svc.Notify(context.Background(), 42, "hola", model.NotificationTypeInfo, nil)
	if err != nil {
		t.Fatal(err)
	}

	eventually(t, 2*time.Second, func() bool {
		notifications, _ := cache.Snapshot()
		return len(notifications) == 1
	}, "push not applied")

	// A pull observing the same row must not duplicate it.
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	notifications, unread := cache.Snapshot()
	if len(notifications) != 1 || notifications[0].ID != created.ID {
		t.Errorf("duplicate entry after push+pull: %+v", notifications)
	}
	if unread != 1 {
		t.Errorf("unread = %d, want 1", unread)
	}
}

func TestReconnectGivesUpAfterCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache := newTestCache(t, srv.URL)
	cache.Connect(context.Background())
	defer cache.Close()

	eventually(t, 2*time.Second, func() bool {
		return cache.LastError() == ErrReconnectExhausted
	}, "cache never gave up reconnecting")

	if cache.State() != Disconnected {
		t.Errorf("state = %v, want Disconnected", cache.State())
	}
}

func TestManualConnectAfterGivingUp(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	cache := newTestCache(t, broken.URL)
	cache.Connect(context.Background())

	eventually(t, 2*time.Second, func() bool {
		return cache.LastError() == ErrReconnectExhausted
	}, "cache never gave up reconnecting")

	// A healthy server comes back; a manual Connect must work again.
	srv, svc := startTestServer(t)
	if _, err := svc.Notify(context.Background(), 42, "hola", model.NotificationTypeInfo, nil); err != nil {
		t.Fatal(err)
	}

	healthy := newTestCache(t, srv.URL)
	healthy.Connect(context.Background())
	defer healthy.Close()

	eventually(t, 2*time.Second, func() bool {
		notifications, _ := healthy.Snapshot()
		return healthy.State() == Connected && len(notifications) == 1
	}, "manual reconnect did not recover")
}

func TestOnNotificationCallback(t *testing.T) {
	srv, svc := startTestServer(t)

	token, err := auth.GenerateToken(42, model.RoleClient, testSecret)
	if err != nil {
		t.Fatal(err)
	}

	received := make(chan Notification, 1)
	cache := New(Config{
		BaseURL:        srv.URL,
		Token:          token,
		ReconnectDelay: 20 * time.Millisecond,
		MaxReconnects:  2,
		OnNotification: func(n Notification) {
			select {
			case received <- n:
			default:
			}
		},
	})
	cache.Connect(context.Background())
	defer cache.Close()

	eventually(t, 2*time.Second, func() bool {
		return cache.State() == Connected
	}, "cache never connected")

	created, err := svc.Notify(context.Background(), 42, "hola", TypeInfo, nil)
	if err != nil {
		t.Fatal(err)
	}

	select {
	case n := <-received:
		if n.ID != created.ID {
			t.Errorf("callback notification id = %d, want %d", n.ID, created.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never invoked")
	}
}

func TestStreamEscapesToken(t *testing.T) {
	tokens := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case tokens <- r.URL.Query().Get("token"):
		default:
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Not a JWT on purpose: the field accepts any string, so characters
	// with query-string meaning must survive the round trip.
	raw := "raw token+&special=chars"
	cache := New(Config{
		BaseURL:        srv.URL,
		Token:          raw,
		ReconnectDelay: 20 * time.Millisecond,
		MaxReconnects:  1,
	})
	cache.Connect(context.Background())
	defer cache.Close()

	select {
	case got := <-tokens:
		if got != raw {
			t.Errorf("server decoded token %q, want %q", got, raw)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no connection attempt observed")
	}
}

func TestRefreshFailureKeepsLastKnownCache(t *testing.T) {
	srv, svc := startTestServer(t)

	cache := newTestCache(t, srv.URL)
	cache.Connect(context.Background())
	defer cache.Close()

	if _, err := svc.Notify(context.Background(), 42, "hola", model.NotificationTypeInfo, nil); err != nil {
		t.Fatal(err)
	}

	eventually(t, 2*time.Second, func() bool {
		notifications, _ := cache.Snapshot()
		return len(notifications) == 1
	}, "cache never populated")

	// Stop the stream first: the test server cannot shut down while an
	// event-stream request is still open.
	cache.Close()
	srv.Close()

	if err := cache.Refresh(context.Background()); err == nil {
		t.Error("Refresh against a dead server should fail")
	}

	// Failed pull preserves the last-known state instead of clearing it.
	notifications, unread := cache.Snapshot()
	if len(notifications) != 1 || unread != 1 {
		t.Errorf("cache cleared on failed refresh: %d entries, %d unread", len(notifications), unread)
	}
}

func TestStateString(t *testing.T) {
	if Disconnected.String() != "disconnected" || Connecting.String() != "connecting" || Connected.String() != "connected" {
		t.Error("unexpected state strings")
	}
}
