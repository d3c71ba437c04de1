package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavka/cart"
)

var testForm = DeliveryForm{
	CustomerName:   "Aigerim",
	Phone:          "+77001234567",
	Address:        "Abay ave 10",
	DeliveryMethod: "courier",
	PaymentMethod:  "cash",
}

// fakeCreator scripts the backend reply and records requests.
type fakeCreator struct {
	reqs    []OrderRequest
	order   *Order
	err     error
	observe func()
}

func (f *fakeCreator) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	f.reqs = append(f.reqs, req)
	if f.observe != nil {
		f.observe()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func newCart(t *testing.T, items ...cart.LineItem) *cart.Store {
	t.Helper()
	c := cart.New(nil)
	for _, it := range items {
		require.NoError(t, c.Add(it))
	}
	return c
}

func TestSubmitSuccessClearsCart(t *testing.T) {
	c := newCart(t, cart.LineItem{ID: "p1", Name: "shirt", Price: 100, Qty: 2})
	created := &Order{ID: "o1", Status: "pending", Total: 200, CreatedAt: time.Now()}
	creator := &fakeCreator{order: created}
	wf := New(c, creator)

	ord, err := wf.Submit(context.Background(), testForm)
	require.NoError(t, err)
	require.NotNil(t, ord)
	assert.Equal(t, "o1", ord.ID)

	assert.Empty(t, c.Items())
	require.NotNil(t, wf.Success())
	assert.Equal(t, "o1", wf.Success().ID)
	assert.NoError(t, wf.Err())
	assert.False(t, wf.Loading())
}

func TestSubmitFailureLeavesCartUntouched(t *testing.T) {
	c := newCart(t, cart.LineItem{ID: "p1", Name: "shirt", Price: 100, Qty: 2})
	creator := &fakeCreator{err: errors.New("backend exploded")}
	wf := New(c, creator)

	ord, err := wf.Submit(context.Background(), testForm)
	require.Error(t, err)
	assert.Nil(t, ord)
	assert.Contains(t, err.Error(), "backend exploded")

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Qty)
	assert.Nil(t, wf.Success())
	require.Error(t, wf.Err())
	assert.False(t, wf.Loading())
}

func TestEmptyCartGuard(t *testing.T) {
	c := newCart(t)
	creator := &fakeCreator{order: &Order{ID: "o1"}}
	wf := New(c, creator)

	ord, err := wf.Submit(context.Background(), testForm)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, ord)

	// guard, not a transition: nothing was sent and nothing was recorded
	assert.Empty(t, creator.reqs)
	assert.Nil(t, wf.Success())
	assert.NoError(t, wf.Err())
	assert.False(t, wf.Loading())
}

func TestRequestSnapshotsCartAndTotal(t *testing.T) {
	c := newCart(t,
		cart.LineItem{ID: "p1", Name: "shirt", Price: 100, Qty: 2},
		cart.LineItem{ID: "p2", Name: "shoes", Price: 50.5, Qty: 1},
	)
	creator := &fakeCreator{order: &Order{ID: "o1"}}
	wf := New(c, creator)

	_, err := wf.Submit(context.Background(), testForm)
	require.NoError(t, err)

	require.Len(t, creator.reqs, 1)
	req := creator.reqs[0]
	assert.Equal(t, testForm.CustomerName, req.CustomerName)
	assert.Equal(t, testForm.Phone, req.Phone)
	require.Len(t, req.Items, 2)
	assert.Equal(t, OrderItem{ID: "p1", Name: "shirt", Qty: 2, Price: 100}, req.Items[0])
	assert.Equal(t, OrderItem{ID: "p2", Name: "shoes", Qty: 1, Price: 50.5}, req.Items[1])
	assert.Equal(t, 250.5, req.Total)
}

func TestTotalStableWhenCartMutatesInFlight(t *testing.T) {
	c := newCart(t, cart.LineItem{ID: "p1", Name: "shirt", Price: 100, Qty: 2})
	creator := &fakeCreator{order: &Order{ID: "o1"}}
	wf := New(c, creator)
	// the cart changes while the request is in flight; the order keeps
	// the snapshot total
	creator.observe = func() {
		require.NoError(t, c.Increment("p1"))
	}

	_, err := wf.Submit(context.Background(), testForm)
	require.NoError(t, err)
	require.Len(t, creator.reqs, 1)
	assert.Equal(t, 200.0, creator.reqs[0].Total)
}

func TestLoadingFlagDuringSubmit(t *testing.T) {
	c := newCart(t, cart.LineItem{ID: "p1", Name: "shirt", Price: 100, Qty: 1})
	creator := &fakeCreator{order: &Order{ID: "o1"}}
	wf := New(c, creator)

	var loadingDuring bool
	var secondErr error
	creator.observe = func() {
		loadingDuring = wf.Loading()
		_, secondErr = wf.Submit(context.Background(), testForm)
	}

	assert.False(t, wf.Loading())
	_, err := wf.Submit(context.Background(), testForm)
	require.NoError(t, err)

	assert.True(t, loadingDuring)
	assert.ErrorIs(t, secondErr, ErrInFlight)
	assert.False(t, wf.Loading())
	// the duplicate attempt never reached the backend
	assert.Len(t, creator.reqs, 1)
}

func TestSuccessAfterEarlierFailure(t *testing.T) {
	c := newCart(t, cart.LineItem{ID: "p1", Name: "shirt", Price: 100, Qty: 1})
	creator := &fakeCreator{err: errors.New("temporary")}
	wf := New(c, creator)

	_, err := wf.Submit(context.Background(), testForm)
	require.Error(t, err)
	require.Error(t, wf.Err())

	creator.err = nil
	creator.order = &Order{ID: "o2"}
	_, err = wf.Submit(context.Background(), testForm)
	require.NoError(t, err)
	assert.NoError(t, wf.Err(), "error cleared on success")
	assert.Equal(t, "o2", wf.Success().ID)
	assert.Empty(t, c.Items())
}
