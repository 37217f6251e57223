package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type mpItem struct {
	Title      string      `json:"title"`
	UnitPrice  json.Number `json:"unit_price"`
	Quantity   int         `json:"quantity"`
	CurrencyID string      `json:"currency_id"`
}

type mpBackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type mpPreferenceRequest struct {
	Items             []mpItem   `json:"items"`
	BackURLs          mpBackURLs `json:"back_urls"`
	AutoReturn        string     `json:"auto_return,omitempty"`
	ExternalReference string     `json:"external_reference"`
}

type mpPreferenceResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// MercadoPago creates checkout preferences through the REST API.
type MercadoPago struct {
	BaseURL     string
	AccessToken string
	Client      *http.Client
}

func NewMercadoPago(baseURL, accessToken string, timeout time.Duration) *MercadoPago {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MercadoPago{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		AccessToken: accessToken,
		Client:      &http.Client{Timeout: timeout},
	}
}

func (m *MercadoPago) CreatePreference(ctx context.Context, p Preference) (string, error) {
	if strings.TrimSpace(m.AccessToken) == "" {
		return "", fmt.Errorf("mercadopago access token missing")
	}

	body := mpPreferenceRequest{
		Items: make([]mpItem, 0, len(p.Items)),
		BackURLs: mpBackURLs{
			Success: p.BackURLs.Success,
			Failure: p.BackURLs.Failure,
			Pending: p.BackURLs.Pending,
		},
		AutoReturn:        p.AutoReturn,
		ExternalReference: p.ExternalReference,
	}
	for _, item := range p.Items {
		body.Items = append(body.Items, mpItem{
			Title:      item.Title,
			UnitPrice:  json.Number(item.UnitPrice.String()),
			Quantity:   item.Quantity,
			CurrencyID: item.CurrencyID,
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/checkout/preferences", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.AccessToken)

	client := m.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mercadopago request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("mercadopago api error (%d): %s", res.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed mpPreferenceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("mercadopago response decode: %w", err)
	}
	if strings.TrimSpace(parsed.ID) == "" {
		return "", fmt.Errorf("mercadopago returned empty preference id")
	}
	return parsed.ID, nil
}
