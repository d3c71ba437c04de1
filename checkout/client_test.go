package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavka/cart"
)

func TestClientCreateOrderSuccess(t *testing.T) {
	var got OrderRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"id":     "o1",
				"status": "pending",
				"total":  got.Total,
			},
		})
	}))
	defer ts.Close()

	client := NewClient(ts.URL, nil)
	ord, err := client.CreateOrder(context.Background(), OrderRequest{
		CustomerName: "Aigerim",
		Items:        []OrderItem{{ID: "p1", Name: "shirt", Qty: 2, Price: 100}},
		Total:        200,
	})
	require.NoError(t, err)
	assert.Equal(t, "o1", ord.ID)
	assert.Equal(t, "pending", ord.Status)
	assert.Equal(t, 200.0, ord.Total)
	assert.Equal(t, "Aigerim", got.CustomerName)
}

func TestClientCreateOrderBackendFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "validation failed",
		})
	}))
	defer ts.Close()

	client := NewClient(ts.URL, nil)
	ord, err := client.CreateOrder(context.Background(), OrderRequest{})
	require.Error(t, err)
	assert.Nil(t, ord)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestClientCreateOrderGarbageResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, nil)
	_, err := client.CreateOrder(context.Background(), OrderRequest{})
	require.Error(t, err)
}

func TestWorkflowWithHTTPClient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"id": "o9", "status": "pending"},
		})
	}))
	defer ts.Close()

	c := newCart(t, cart.LineItem{ID: "p1", Name: "shirt", Price: 100, Qty: 1})
	wf := New(c, NewClient(ts.URL, ts.Client()))

	ord, err := wf.Submit(context.Background(), testForm)
	require.NoError(t, err)
	assert.Equal(t, "o9", ord.ID)
	assert.Empty(t, c.Items())
}
