// Package remote is the single chokepoint for all network calls of the
// synchronization layer. It attaches bearer credentials, blocks mutating
// calls while offline, normalizes transport and HTTP failures into
// entsync.Error, and special-cases HTTP 409 version conflicts.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/unkn0wn-root/entsync"
	"github.com/unkn0wn-root/entsync/auth"
)

const defaultConflictMessage = "record changed by another actor, reload to see latest"

// Connectivity is the slice of connectivity.Monitor the gateway consults.
type Connectivity interface {
	IsOffline() bool
}

type Client struct {
	base    *url.URL
	httpc   *http.Client
	monitor Connectivity
	tokens  auth.TokenSource
	notify  entsync.Notifier
	log     entsync.Logger
}

// Config wires a Client. Only BaseURL is required; a nil Connectivity means
// "assume online", a nil TokenSource means anonymous.
type Config struct {
	BaseURL      string
	HTTPClient   *http.Client // transport-level timeouts live here
	Connectivity Connectivity
	Tokens       auth.TokenSource
	Notifier     entsync.Notifier
	Logger       entsync.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote: base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("remote: parse base URL: %w", err)
	}

	c := &Client{
		base:    base,
		httpc:   cfg.HTTPClient,
		monitor: cfg.Connectivity,
		tokens:  cfg.Tokens,
	}
	if c.httpc == nil {
		c.httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if c.tokens == nil {
		c.tokens = auth.Nop{}
	}
	c.notify = coalesceNotifier(cfg.Notifier)
	c.log = coalesceLogger(cfg.Logger)
	return c, nil
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func (c *Client) offline() bool {
	return c.monitor != nil && c.monitor.IsOffline()
}

// Do performs one call against the remote API and returns the parsed JSON
// payload (nil when the response carried none). Every failure comes back as
// an *entsync.Error, already surfaced through the notifier.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	if isMutating(method) && c.offline() {
		c.notify.Warn("You appear to be offline. The change was not saved.")
		return nil, &entsync.Error{
			Kind:    entsync.KindOffline,
			Message: fmt.Sprintf("%s %s blocked while offline", method, path),
		}
	}

	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("remote: encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("remote: bearer token: %w", err)
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, c.classifyTransport(method, path, err)
	}
	defer resp.Body.Close()

	var payload json.RawMessage
	if isJSON(resp.Header.Get("Content-Type")) {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, c.classifyTransport(method, path, err)
		}
		payload = raw
	}

	if resp.StatusCode == http.StatusConflict {
		msg := serverMessage(payload)
		if msg == "" {
			msg = defaultConflictMessage
		}
		c.notify.Warn(msg)
		c.log.Warn("version conflict", entsync.Fields{"method": method, "path": path})
		return nil, &entsync.Error{Kind: entsync.KindConflict, Status: resp.StatusCode, Message: msg}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(payload)
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		c.notify.Warn(msg)
		c.log.Warn("request failed", entsync.Fields{"method": method, "path": path, "status": resp.StatusCode})
		return nil, &entsync.Error{Kind: entsync.KindHTTPError, Status: resp.StatusCode, Message: msg}
	}
	return payload, nil
}

// classifyTransport turns a transport-level failure into OFFLINE or
// NETWORK_ERROR, depending on whether the monitor independently confirms
// the network is gone.
func (c *Client) classifyTransport(method, path string, err error) error {
	kind := entsync.KindNetworkError
	msg := "The server could not be reached. Please try again."
	if c.offline() {
		kind = entsync.KindOffline
		msg = "You appear to be offline."
	}
	c.notify.Warn(msg)
	c.log.Warn("transport failure", entsync.Fields{"method": method, "path": path, "err": err})
	return &entsync.Error{
		Kind:    kind,
		Message: fmt.Sprintf("%s %s: %v", method, path, err),
		Cause:   err,
	}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// serverMessage pulls the human-readable message out of an error response
// body shaped like {message|error, code}.
func serverMessage(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func coalesceNotifier(n entsync.Notifier) entsync.Notifier {
	if n == nil {
		return entsync.NopNotifier{}
	}
	return n
}

func coalesceLogger(l entsync.Logger) entsync.Logger {
	if l == nil {
		return entsync.NopLogger{}
	}
	return l
}
