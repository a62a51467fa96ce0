package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/unkn0wn-root/entsync"
	"github.com/unkn0wn-root/entsync/auth"
)

type offlineMon bool

func (o offlineMon) IsOffline() bool { return bool(o) }

type recordingNotifier struct {
	mu    sync.Mutex
	warns []string
}

func (n *recordingNotifier) Warn(msg string) {
	n.mu.Lock()
	n.warns = append(n.warns, msg)
	n.mu.Unlock()
}

func (n *recordingNotifier) Error(msg string) { n.Warn(msg) }

func (n *recordingNotifier) warned() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.warns...)
}

type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type testWire struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RowVersion int64  `json:"row_version"`
}

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestMutatingCallBlockedOffline(t *testing.T) {
	var calls int32
	rt := rtFunc(func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("should not be reached")
	})
	notif := &recordingNotifier{}
	c := newTestClient(t, Config{
		BaseURL:      "http://erp.test",
		HTTPClient:   &http.Client{Transport: rt},
		Connectivity: offlineMon(true),
		Notifier:     notif,
	})

	_, err := c.Do(context.Background(), http.MethodPost, "/orders", nil, testWire{ID: "o1"})
	if entsync.KindOf(err) != entsync.KindOffline {
		t.Fatalf("expected OFFLINE, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("transport reached %d times while offline", n)
	}
	if w := notif.warned(); len(w) != 1 || w[0] != "You appear to be offline. The change was not saved." {
		t.Fatalf("unexpected warnings: %v", w)
	}
}

// Reads pass through even while the monitor says offline; a transport
// failure then classifies as OFFLINE rather than NETWORK_ERROR.
func TestReadPassesThroughOffline(t *testing.T) {
	var calls int32
	rt := rtFunc(func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("connection refused")
	})
	c := newTestClient(t, Config{
		BaseURL:      "http://erp.test",
		HTTPClient:   &http.Client{Transport: rt},
		Connectivity: offlineMon(true),
	})

	_, err := c.Do(context.Background(), http.MethodGet, "/orders", nil, nil)
	if entsync.KindOf(err) != entsync.KindOffline {
		t.Fatalf("expected OFFLINE classification, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("read should reach the transport, got %d calls", n)
	}
}

func TestTransportErrorClassifiesNetworkWhenOnline(t *testing.T) {
	cause := errors.New("connection reset")
	rt := rtFunc(func(*http.Request) (*http.Response, error) { return nil, cause })
	c := newTestClient(t, Config{
		BaseURL:      "http://erp.test",
		HTTPClient:   &http.Client{Transport: rt},
		Connectivity: offlineMon(false),
	})

	_, err := c.Do(context.Background(), http.MethodGet, "/orders", nil, nil)
	if entsync.KindOf(err) != entsync.KindNetworkError {
		t.Fatalf("expected NETWORK_ERROR, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("classified error must wrap the transport cause")
	}
}

func TestConflictCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "record changed by another user"})
	}))
	defer srv.Close()

	notif := &recordingNotifier{}
	c := newTestClient(t, Config{BaseURL: srv.URL, Notifier: notif})

	_, err := c.Do(context.Background(), http.MethodPut, "/orders/o1", nil, testWire{ID: "o1"})
	var se *entsync.Error
	if !errors.As(err, &se) || se.Kind != entsync.KindConflict || se.Status != http.StatusConflict {
		t.Fatalf("expected CONFLICT 409, got %v", err)
	}
	if se.Message != "record changed by another user" {
		t.Fatalf("server message lost: %q", se.Message)
	}
	if w := notif.warned(); len(w) != 1 || w[0] != "record changed by another user" {
		t.Fatalf("conflict must be surfaced via notifier, got %v", w)
	}
}

func TestConflictDefaultMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	_, err := c.Do(context.Background(), http.MethodPut, "/orders/o1", nil, testWire{ID: "o1"})
	var se *entsync.Error
	if !errors.As(err, &se) || se.Kind != entsync.KindConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if se.Message != defaultConflictMessage {
		t.Fatalf("expected default conflict message, got %q", se.Message)
	}
}

func TestHTTPErrorFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	_, err := c.Do(context.Background(), http.MethodGet, "/orders", nil, nil)
	var se *entsync.Error
	if !errors.As(err, &se) || se.Kind != entsync.KindHTTPError || se.Status != 500 {
		t.Fatalf("expected HTTP_ERROR 500, got %v", err)
	}
	if se.Message != "request failed with status 500" {
		t.Fatalf("unexpected fallback message: %q", se.Message)
	}
}

func TestRequestCarriesBearerAndJSON(t *testing.T) {
	var gotAuth, gotCT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(testWire{ID: "o1", Name: "widget", RowVersion: 1})
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL, Tokens: auth.Static("tok123")})
	col := NewCollection[testWire](c, "/orders")

	rec, err := col.Create(context.Background(), testWire{ID: "o1", Name: "widget"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotCT != "application/json" {
		t.Fatalf("Content-Type = %q", gotCT)
	}
	if rec.RowVersion != 1 {
		t.Fatalf("decoded record = %+v", rec)
	}
}

func TestListShapesQueryParams(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]testWire{{ID: "a"}, {ID: "b"}})
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	col := NewCollection[testWire](c, "/products")

	recs, err := col.List(context.Background(), entsync.Query{Search: "wid", Page: 2, Limit: 50})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if gotQuery.Get("search") != "wid" || gotQuery.Get("page") != "2" || gotQuery.Get("limit") != "50" {
		t.Fatalf("query params = %v", gotQuery)
	}
}

// A 2xx response without a JSON content type yields no payload; for a list
// that reads as an empty collection.
func TestNonJSONBodyIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	col := NewCollection[testWire](c, "/products")

	recs, err := col.List(context.Background(), entsync.Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if recs != nil {
		t.Fatalf("expected no records, got %+v", recs)
	}
}

func TestItemPathEscapesID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	col := NewCollection[testWire](c, "/documents")

	if err := col.Remove(context.Background(), "inv/2024"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if gotPath != "/documents/inv%2F2024" {
		t.Fatalf("path = %q", gotPath)
	}
}
