package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/cart"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/http/handlers"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/orders"
)

// apiClient talks to the public table endpoints and the checkout endpoint.
type apiClient struct {
	baseURL    string
	tableID    int64
	tableToken string
	http       *http.Client
}

func newAPIClient(baseURL string, tableID int64, tableToken string) *apiClient {
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tableID:    tableID,
		tableToken: tableToken,
		http:       &http.Client{Timeout: 15 * time.Second},
	}
}

type apiError struct {
	Status  int
	Code    string
	Message string
	Reason  string
}

func (e *apiError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Reason, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details struct {
		Reason string `json:"reason"`
	} `json:"details"`
}

func (c *apiClient) tablePath(suffix string) string {
	p := c.baseURL + "/api/public/tables/" + strconv.FormatInt(c.tableID, 10) + suffix
	if c.tableToken != "" {
		p += "?t=" + url.QueryEscape(c.tableToken)
	}
	return p
}

func (c *apiClient) do(ctx context.Context, method, target string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, res.StatusCode, err
	}
	return raw, res.StatusCode, nil
}

func (c *apiClient) envelopeCall(ctx context.Context, method, target string, body any, out any) error {
	raw, status, err := c.do(ctx, method, target, body)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &apiError{Status: status, Message: strings.TrimSpace(string(raw))}
	}
	if status < 200 || status >= 300 || !env.Success {
		return &apiError{Status: status, Code: env.Error, Message: env.Message, Reason: env.Details.Reason}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (c *apiClient) Menu(ctx context.Context) (handlers.TableMenuResponse, error) {
	var out handlers.TableMenuResponse
	err := c.envelopeCall(ctx, http.MethodGet, c.tablePath("/menu"), nil, &out)
	return out, err
}

func (c *apiClient) Submit(ctx context.Context, cc cart.Cart) (orders.Order, error) {
	var out orders.Order
	err := c.envelopeCall(ctx, http.MethodPost, c.tablePath("/orders"), handlers.CartRequest{Items: cart.Snapshot(cc)}, &out)
	return out, err
}

// Checkout returns the provider session id. The endpoint answers with a bare
// {"id"} body on success.
func (c *apiClient) Checkout(ctx context.Context, cc cart.Cart) (string, error) {
	raw, status, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/checkout", handlers.CheckoutRequest{
		TableID: c.tableID,
		Items:   cart.Snapshot(cc),
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		return "", &apiError{Status: status, Code: env.Error, Message: env.Message}
	}
	var out handlers.CheckoutResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}
