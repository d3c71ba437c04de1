// Package checkout turns the current cart plus a delivery form into a
// single order-creation request and clears the cart only once the
// backend has confirmed the order.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"lavka/cart"
)

// ErrEmptyCart is returned when Submit is called with nothing in the
// cart. It is a guard, not a recorded failure: no request is sent and
// the workflow's success/error state is left untouched.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// ErrInFlight is returned when Submit is called while a previous
// submission has not resolved yet.
var ErrInFlight = errors.New("checkout: submission already in flight")

// DeliveryForm is the customer-supplied half of an order.
type DeliveryForm struct {
	CustomerName   string `json:"customer_name"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	DeliveryMethod string `json:"delivery_method"`
	PaymentMethod  string `json:"payment_method"`
}

// OrderItem is one cart line snapshotted into an order request.
type OrderItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Qty   int     `json:"qty"`
	Price float64 `json:"price"`
}

// OrderRequest is the full order-creation payload.
type OrderRequest struct {
	CustomerName   string      `json:"customer_name"`
	Phone          string      `json:"phone"`
	Address        string      `json:"address"`
	DeliveryMethod string      `json:"delivery_method"`
	PaymentMethod  string      `json:"payment_method"`
	Items          []OrderItem `json:"items"`
	Total          float64     `json:"total"`
}

// Order is the created order as confirmed by the backend, including the
// server-assigned id, status and timestamp.
type Order struct {
	ID             string      `json:"id"`
	CustomerName   string      `json:"customer_name"`
	Phone          string      `json:"phone"`
	Address        string      `json:"address"`
	DeliveryMethod string      `json:"delivery_method"`
	PaymentMethod  string      `json:"payment_method"`
	Items          []OrderItem `json:"items"`
	Total          float64     `json:"total"`
	Status         string      `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
}

// OrderCreator submits an order-creation request to the backend.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
}

// Workflow reconciles one cart with one delivery form. Like the cart it
// belongs to a single session; the mutex only backs the advisory
// duplicate-submission guard.
type Workflow struct {
	cart   *cart.Store
	orders OrderCreator

	mu      sync.Mutex
	loading bool
	success *Order
	lastErr error
}

// New returns a workflow over the given cart and order backend.
func New(c *cart.Store, orders OrderCreator) *Workflow {
	return &Workflow{cart: c, orders: orders}
}

// Submit snapshots the cart, sends the order-creation request and, on
// confirmed success, records the created order and clears the cart. On
// failure the cart is left untouched and the error is both recorded and
// returned. The order total is computed from the snapshot so it stays
// stable even if the cart mutates while the request is in flight.
func (w *Workflow) Submit(ctx context.Context, form DeliveryForm) (*Order, error) {
	if w.cart.Count() == 0 {
		return nil, ErrEmptyCart
	}

	w.mu.Lock()
	if w.loading {
		w.mu.Unlock()
		return nil, ErrInFlight
	}
	w.loading = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.loading = false
		w.mu.Unlock()
	}()

	items := snapshotItems(w.cart.Items())
	req := OrderRequest{
		CustomerName:   form.CustomerName,
		Phone:          form.Phone,
		Address:        form.Address,
		DeliveryMethod: form.DeliveryMethod,
		PaymentMethod:  form.PaymentMethod,
		Items:          items,
		Total:          itemsTotal(items),
	}

	ord, err := w.orders.CreateOrder(ctx, req)
	if err != nil {
		w.mu.Lock()
		w.lastErr = err
		w.mu.Unlock()
		return nil, err
	}

	w.mu.Lock()
	w.success = ord
	w.lastErr = nil
	w.mu.Unlock()

	if err := w.cart.Clear(); err != nil {
		// The order exists; only the local clear failed.
		return ord, errors.Wrap(err, "clear cart after checkout")
	}
	return ord, nil
}

// Loading reports whether a submission is in flight.
func (w *Workflow) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

// Success returns the confirmed order of the last successful submission,
// or nil.
func (w *Workflow) Success() *Order {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.success
}

// Err returns the failure of the last submission, cleared on success.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func snapshotItems(lines []cart.LineItem) []OrderItem {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{ID: l.ID, Name: l.Name, Qty: l.Qty, Price: l.Price})
	}
	return items
}

func itemsTotal(items []OrderItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	f, _ := sum.Float64()
	return f
}
