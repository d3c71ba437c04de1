package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Client is an OrderCreator posting to the storefront's own JSON API.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for the API at base, e.g.
// "http://localhost:8000".
func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), http: httpClient}
}

type orderEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// CreateOrder posts req to /api/orders and decodes the response
// envelope. A backend-reported failure is returned as an error carrying
// the backend's message.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode order request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build order request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "post order")
	}
	defer resp.Body.Close()

	var env orderEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, errors.Wrap(err, "decode order response")
	}
	if !env.Success {
		if env.Error == "" {
			return nil, errors.Errorf("order creation failed with status %d", resp.StatusCode)
		}
		return nil, errors.New(env.Error)
	}

	var ord Order
	if err := json.Unmarshal(env.Data, &ord); err != nil {
		return nil, errors.Wrap(err, "decode created order")
	}
	return &ord, nil
}
