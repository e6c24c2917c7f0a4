// Package remote is the typed HTTP client of the pharmacy server.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"gestion-stock/internal/api"

	"github.com/gofiber/fiber/v2"
)

type Client struct {
	baseURL string
	timeout time.Duration

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// SetToken sets the bearer token sent with every request. Empty clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) agent(ctx context.Context, method, path string, query url.Values) (*fiber.Agent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var a *fiber.Agent
	switch method {
	case fiber.MethodGet:
		a = fiber.Get(u)
	case fiber.MethodPost:
		a = fiber.Post(u)
	case fiber.MethodPut:
		a = fiber.Put(u)
	case fiber.MethodDelete:
		a = fiber.Delete(u)
	default:
		return nil, fmt.Errorf("unsupported method %s", method)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if timeout > 0 {
		a.Timeout(timeout)
	}
	if tok := c.Token(); tok != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	}
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	return a, nil
}

// send runs the request and returns the raw body of a 2xx answer.
func send(ctx context.Context, a *fiber.Agent) ([]byte, error) {
	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("request failed: %w", errors.Join(errs...))
	}
	if code < 200 || code > 299 {
		return nil, decodeError(code, body)
	}
	return body, nil
}

// call sends body as JSON (when not nil) and decodes the answer into out
// (when not nil).
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	a, err := c.agent(ctx, method, path, query)
	if err != nil {
		return err
	}
	if body != nil {
		a.JSON(body)
	}
	raw, err := send(ctx, a)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Resource is the CRUD surface shared by every entity route.
type Resource[T any] struct {
	c    *Client
	path string
}

func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	return r.Find(ctx, nil)
}

// Find lists with query filters.
func (r *Resource[T]) Find(ctx context.Context, query url.Values) ([]T, error) {
	var out []T
	err := r.c.call(ctx, fiber.MethodGet, r.path, query, nil, &out)
	return out, err
}

func (r *Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	err := r.c.call(ctx, fiber.MethodGet, r.item(id), nil, nil, &out)
	return out, err
}

func (r *Resource[T]) Create(ctx context.Context, v T) (T, error) {
	var out T
	err := r.c.call(ctx, fiber.MethodPost, r.path, nil, v, &out)
	return out, err
}

func (r *Resource[T]) Update(ctx context.Context, id int64, v T) (T, error) {
	var out T
	err := r.c.call(ctx, fiber.MethodPut, r.item(id), nil, v, &out)
	return out, err
}

func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.c.call(ctx, fiber.MethodDelete, r.item(id), nil, nil, nil)
}

func (r *Resource[T]) item(id int64) string {
	return r.path + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) Medicins() *Resource[api.Medicin] {
	return &Resource[api.Medicin]{c: c, path: "/medicins"}
}

func (c *Client) Lots() *Resource[api.Lot] {
	return &Resource[api.Lot]{c: c, path: "/api/lots"}
}

func (c *Client) Movements() *Resource[api.StockMovement] {
	return &Resource[api.StockMovement]{c: c, path: "/mouvements"}
}

func (c *Client) Alerts() *Resource[api.Alert] {
	return &Resource[api.Alert]{c: c, path: "/alertes"}
}

func (c *Client) Logs() *Resource[api.ActionLog] {
	return &Resource[api.ActionLog]{c: c, path: "/log"}
}
