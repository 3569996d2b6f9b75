// Package cartclient talks to the storefront AJAX cart endpoints.
package cartclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront/internal/domain"
)

const (
	pathCart   = "/cart.js"
	pathAdd    = "/cart/add.js"
	pathChange = "/cart/change.js"
	pathUpdate = "/cart/update.js"
)

// ErrorHandler is notified of every failed call. The default logs the error;
// callers can swap in a user-facing notification.
type ErrorHandler func(op string, err error)

// Config configures a Client.
type Config struct {
	BaseURL      string
	HTTPClient   *http.Client
	Timeout      time.Duration
	Logger       *zap.Logger
	ErrorHandler ErrorHandler
}

// Client is a thin request layer over the cart resource. It never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
	onError    ErrorHandler
	fetches    singleflight.Group

	// generation moves whenever a mutating request starts or finishes, so
	// fetches only share a request with callers that saw the same cart state.
	generation atomic.Uint64
}

// ChangeRequest addresses a line by 1-based Line or by ID (variant id or line key).
type ChangeRequest struct {
	Line       int               `json:"line,omitempty"`
	ID         string            `json:"id,omitempty"`
	Quantity   int               `json:"quantity"`
	Properties map[string]string `json:"properties,omitempty"`
}

// AddRequest is one line to add.
type AddRequest struct {
	ID         int64
	Quantity   int
	Properties map[string]string
}

// Form encodes the request the way a product form would submit it.
func (r AddRequest) Form() url.Values {
	form := url.Values{}
	form.Set("id", strconv.FormatInt(r.ID, 10))
	qty := r.Quantity
	if qty <= 0 {
		qty = 1
	}
	form.Set("quantity", strconv.Itoa(qty))
	for k, v := range r.Properties {
		form.Set("properties["+k+"]", v)
	}
	return form
}

// New creates a Client. A cookie jar is attached when the supplied HTTP
// client has none, so the cart session survives between calls.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("cartclient: base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("cartclient: parse base URL: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cartclient: cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:     logger,
		onError:    cfg.ErrorHandler,
	}
	if c.onError == nil {
		c.onError = c.logError
	}
	return c, nil
}

// AddLine posts form data to the add endpoint and returns the echoed line item.
// The form must carry id and quantity.
func (c *Client) AddLine(ctx context.Context, form url.Values) (*domain.LineItem, error) {
	if form.Get("id") == "" {
		return nil, c.fail("add", errors.New("cartclient: form is missing id"))
	}
	var line domain.LineItem
	if err := c.do(ctx, "add", http.MethodPost, pathAdd, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &line); err != nil {
		return nil, err
	}
	return &line, nil
}

// AddItem adds a line and returns the resulting cart snapshot.
func (c *Client) AddItem(ctx context.Context, form url.Values) (*domain.Cart, error) {
	if _, err := c.AddLine(ctx, form); err != nil {
		return nil, err
	}
	return c.fetchCart(ctx)
}

// ChangeLine sets a line's quantity; zero removes it.
func (c *Client) ChangeLine(ctx context.Context, req ChangeRequest) (*domain.Cart, error) {
	if req.Line <= 0 && req.ID == "" {
		return nil, c.fail("change", errors.New("cartclient: line or id required"))
	}
	if req.Quantity < 0 {
		return nil, c.fail("change", domain.ErrInvalidQuantity)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, c.fail("change", fmt.Errorf("marshal change request: %w", err))
	}
	var cart domain.Cart
	if err := c.do(ctx, "change", http.MethodPost, pathChange, bytes.NewReader(body), "application/json", &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetCart fetches the current cart. Concurrent callers share one request
// unless a mutation started or finished in between, so the returned snapshot
// must be treated as read-only.
func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	key := "cart:" + strconv.FormatUint(c.generation.Load(), 10)
	v, err, _ := c.fetches.Do(key, func() (interface{}, error) {
		return c.fetchCart(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// UpdateNote replaces the cart note.
func (c *Client) UpdateNote(ctx context.Context, note string) (*domain.Cart, error) {
	form := url.Values{}
	form.Set("note", note)
	var cart domain.Cart
	if err := c.do(ctx, "update", http.MethodPost, pathUpdate, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetProduct fetches a product by handle.
func (c *Client) GetProduct(ctx context.Context, handle string) (*domain.Product, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, c.fail("product", errors.New("cartclient: handle required"))
	}
	var p domain.Product
	if err := c.do(ctx, "product", http.MethodGet, "/products/"+url.PathEscape(handle)+".js", nil, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ChangeURL is the navigation fallback that removes a line without script.
func (c *Client) ChangeURL(line, quantity int) string {
	return fmt.Sprintf("%s/cart/change?line=%d&quantity=%d", c.baseURL, line, quantity)
}

func (c *Client) fetchCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, "get", http.MethodGet, pathCart, nil, "", &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return c.fail(op, fmt.Errorf("creating %s request: %w", op, err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if method != http.MethodGet {
		c.generation.Add(1)
		defer c.generation.Add(1)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(op, fmt.Errorf("cart %s: %w", op, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(op, fmt.Errorf("reading %s response: %w", op, err))
	}
	c.logger.Debug("cart request",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(op, parseErrorResponse(op, resp.StatusCode, respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return c.fail(op, fmt.Errorf("parsing %s response: %w", op, err))
	}
	return nil
}

func (c *Client) fail(op string, err error) error {
	c.onError(op, err)
	return err
}

func (c *Client) logError(op string, err error) {
	var re *ResponseError
	if errors.As(err, &re) {
		c.logger.Warn("cart request failed",
			zap.String("op", op),
			zap.Int("status", re.Status),
			zap.String("message", re.Message),
			zap.String("description", re.Description))
		return
	}
	c.logger.Warn("cart request failed", zap.String("op", op), zap.Error(err))
}
