package kitchen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client talks to the kitchen status API.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchOrderStatus retrieves the current snapshot for one order. Every
// failure comes back as a *QueryError so callers see a single taxonomy.
func (c *Client) FetchOrderStatus(ctx context.Context, orderID int64) (*OrderStatus, error) {
	httpClient, base := c.conn()
	url := fmt.Sprintf("%s/orders/%d/status", base, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &QueryError{OrderID: orderID, Err: err}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &QueryError{OrderID: orderID, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &QueryError{OrderID: orderID, Err: err}
	}
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &QueryError{OrderID: orderID, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}
	var status OrderStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, &QueryError{OrderID: orderID, Err: fmt.Errorf("decode: %w", err)}
	}
	return &status, nil
}

// PlaceOrder submits a new order to the kitchen.
func (c *Client) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*Order, error) {
	var order Order
	if err := c.post(ctx, "/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders retrieves all orders the kitchen knows about.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.get(ctx, "/orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Ping checks that the kitchen API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/ping", nil)
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	httpClient, base := c.conn()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return fmt.Errorf("kitchen GET %s: %w", path, err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kitchen GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	return c.decode(resp, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("kitchen marshal: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}
	httpClient, base := c.conn()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bodyReader)
	if err != nil {
		return fmt.Errorf("kitchen POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kitchen POST %s: %w", path, err)
	}
	defer resp.Body.Close()
	return c.decode(resp, result)
}

func (c *Client) decode(resp *http.Response, result any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("kitchen read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("kitchen HTTP %d: %s", resp.StatusCode, string(data))
	}
	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("kitchen decode: %w", err)
		}
	}
	return nil
}

// conn snapshots the transport so Reconfigure never races an in-flight call.
func (c *Client) conn() (*http.Client, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.httpClient, c.baseURL
}

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// Reconfigure updates the client's base URL and timeout for hot-reload.
func (c *Client) Reconfigure(baseURL string, timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.httpClient = &http.Client{Timeout: timeout}
}
