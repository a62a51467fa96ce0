package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/unkn0wn-root/entsync"
)

// Collection is the per-entity convenience wrapper over Client.Do: thin
// parameter shaping, no policy of its own. W is the entity's wire shape.
type Collection[W any] struct {
	client *Client
	path   string // e.g. "/products"
}

func NewCollection[W any](client *Client, path string) Collection[W] {
	return Collection[W]{client: client, path: path}
}

func (c Collection[W]) List(ctx context.Context, q entsync.Query) ([]W, error) {
	vals := url.Values{}
	if q.Search != "" {
		vals.Set("search", q.Search)
	}
	if q.Page > 0 {
		vals.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		vals.Set("limit", strconv.Itoa(q.Limit))
	}

	raw, err := c.client.Do(ctx, http.MethodGet, c.path, vals, nil)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var out []W
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("remote: decode %s list: %w", c.path, err)
	}
	return out, nil
}

func (c Collection[W]) Get(ctx context.Context, id string) (W, error) {
	var zero W
	raw, err := c.client.Do(ctx, http.MethodGet, c.itemPath(id), nil, nil)
	if err != nil {
		return zero, err
	}
	return decodeRecord[W](c.path, raw)
}

func (c Collection[W]) Create(ctx context.Context, rec W) (W, error) {
	var zero W
	raw, err := c.client.Do(ctx, http.MethodPost, c.path, nil, rec)
	if err != nil {
		return zero, err
	}
	return decodeRecord[W](c.path, raw)
}

// Update submits the full wire record; its row_version field is what lets
// the server detect a concurrent change and answer 409.
func (c Collection[W]) Update(ctx context.Context, id string, rec W) (W, error) {
	var zero W
	raw, err := c.client.Do(ctx, http.MethodPut, c.itemPath(id), nil, rec)
	if err != nil {
		return zero, err
	}
	return decodeRecord[W](c.path, raw)
}

func (c Collection[W]) Remove(ctx context.Context, id string) error {
	_, err := c.client.Do(ctx, http.MethodDelete, c.itemPath(id), nil, nil)
	return err
}

func (c Collection[W]) itemPath(id string) string {
	return c.path + "/" + url.PathEscape(id)
}

func decodeRecord[W any](path string, raw json.RawMessage) (W, error) {
	var out W
	if len(raw) == 0 {
		return out, fmt.Errorf("remote: %s: empty response where a record was expected", path)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("remote: decode %s record: %w", path, err)
	}
	return out, nil
}
