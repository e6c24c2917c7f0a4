package remote

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"gestion-stock/internal/api"

	"github.com/gofiber/fiber/v2"
)

func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (api.AuthResponse, error) {
	var out api.AuthResponse
	err := c.call(ctx, fiber.MethodPost, "/api/register", nil, req, &out)
	return out, err
}

// Login does not store the token; callers decide with SetToken.
func (c *Client) Login(ctx context.Context, email, password string) (api.AuthResponse, error) {
	var out api.AuthResponse
	q := url.Values{"email": {email}, "password": {password}}
	err := c.call(ctx, fiber.MethodPost, "/api/login", q, nil, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context) (api.User, error) {
	var out api.User
	err := c.call(ctx, fiber.MethodGet, "/api/me", nil, nil, &out)
	return out, err
}

func (c *Client) Users(ctx context.Context) ([]api.User, error) {
	var out []api.User
	err := c.call(ctx, fiber.MethodGet, "/api/users", nil, nil, &out)
	return out, err
}

func (c *Client) AllUsers(ctx context.Context) ([]api.User, error) {
	var out []api.User
	err := c.call(ctx, fiber.MethodGet, "/admin/all-users", nil, nil, &out)
	return out, err
}

// Block returns the server confirmation message.
func (c *Client) Block(ctx context.Context, userID int64) (string, error) {
	return c.text(ctx, "/firebase/block/"+strconv.FormatInt(userID, 10))
}

func (c *Client) Unblock(ctx context.Context, userID int64) (string, error) {
	return c.text(ctx, "/firebase/unblock/"+strconv.FormatInt(userID, 10))
}

func (c *Client) text(ctx context.Context, path string) (string, error) {
	a, err := c.agent(ctx, fiber.MethodPost, path, nil)
	if err != nil {
		return "", err
	}
	body, err := send(ctx, a)
	return string(body), err
}

func (c *Client) LowStock(ctx context.Context, userID *int64) ([]api.Medicin, error) {
	var q url.Values
	if userID != nil {
		q = url.Values{"userId": {strconv.FormatInt(*userID, 10)}}
	}
	var out []api.Medicin
	err := c.call(ctx, fiber.MethodGet, "/medicins/low-stock", q, nil, &out)
	return out, err
}

func (c *Client) ResolveAlert(ctx context.Context, id int64) (api.Alert, error) {
	var out api.Alert
	err := c.call(ctx, fiber.MethodPut, "/alertes/"+strconv.FormatInt(id, 10)+"/resolve", nil, nil, &out)
	return out, err
}

func (c *Client) History(ctx context.Context, query url.Values) ([]api.History, error) {
	var out []api.History
	err := c.call(ctx, fiber.MethodGet, "/api/historique", query, nil, &out)
	return out, err
}

func (c *Client) UndoHistory(ctx context.Context, id int64) error {
	return c.call(ctx, fiber.MethodPost, "/api/historique/"+strconv.FormatInt(id, 10)+"/undo", nil, nil, nil)
}

// ImportMedicins uploads an xlsx file to the bulk import route.
func (c *Client) ImportMedicins(ctx context.Context, path string) (api.ImportResult, error) {
	var out api.ImportResult
	a, err := c.agent(ctx, fiber.MethodPost, "/medicins/import", nil)
	if err != nil {
		return out, err
	}
	a.SendFile(path, "file").MultipartForm(nil)

	body, err := send(ctx, a)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(body, &out)
	return out, err
}

func (c *Client) StockSummary(ctx context.Context) (api.StockSummary, error) {
	var out api.StockSummary
	err := c.call(ctx, fiber.MethodGet, "/api/dashboard/stock", nil, nil, &out)
	return out, err
}

// MovementChart fetches entries and exits per bucket. period is daily,
// weekly or monthly; count 0 keeps the server default.
func (c *Client) MovementChart(ctx context.Context, period string, count int) (api.MovementChart, error) {
	q := url.Values{"period": {period}}
	if count > 0 {
		q.Set("count", strconv.Itoa(count))
	}
	var out api.MovementChart
	err := c.call(ctx, fiber.MethodGet, "/api/dashboard/movements-chart", q, nil, &out)
	return out, err
}
