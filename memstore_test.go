package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, m *memStore, name string, total float64, at time.Time) Order {
	t.Helper()
	created, err := m.CreateOrder(context.Background(), OrderCreateInput{
		CustomerName: name,
		Phone:        "+77001234567",
		Items:        []OrderItem{{ID: "p1", Name: "shirt", Qty: 1, Price: total}},
	})
	require.NoError(t, err)
	ord := *created
	// CreateOrder stamps now; pin the timestamp for window tests
	m.mu.Lock()
	for i := range m.orders {
		if m.orders[i].ID == ord.ID {
			m.orders[i].CreatedAt = at
			ord = m.orders[i]
		}
	}
	m.mu.Unlock()
	return ord
}

func TestOrdersBetweenInclusive(t *testing.T) {
	m := newMemStore()
	day := func(s string) time.Time {
		ts, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return ts
	}

	seedOrder(t, m, "before", 10, day("2026-08-01").Add(-time.Second))
	lo := seedOrder(t, m, "low edge", 20, day("2026-08-01"))
	mid := seedOrder(t, m, "middle", 30, day("2026-08-03"))
	hi := seedOrder(t, m, "high edge", 40, day("2026-08-05"))
	seedOrder(t, m, "after", 50, day("2026-08-05").Add(time.Second))

	got, err := m.OrdersBetween(context.Background(), day("2026-08-01"), day("2026-08-05"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	// oldest first
	assert.Equal(t, lo.ID, got[0].ID)
	assert.Equal(t, mid.ID, got[1].ID)
	assert.Equal(t, hi.ID, got[2].ID)
}

func TestCreateOrderDerivesTotalAndDefaults(t *testing.T) {
	m := newMemStore()
	ord, err := m.CreateOrder(context.Background(), OrderCreateInput{
		CustomerName: "Aigerim",
		Phone:        "+77001234567",
		Items: []OrderItem{
			{ID: "p1", Name: "shirt", Qty: 2, Price: 100.10},
			{ID: "p2", Name: "dress", Qty: 1, Price: 0.30},
		},
		Total: 1, // ignored
	})
	require.NoError(t, err)
	assert.Equal(t, 200.5, ord.Total)
	assert.Equal(t, StatusPending, ord.Status)
	assert.NotEmpty(t, ord.ID)
	assert.False(t, ord.CreatedAt.IsZero())
}

func TestListProductsSorting(t *testing.T) {
	m := newMemStore()
	ctx := context.Background()
	for _, p := range []ProductInput{
		{Name: "b-mid", Price: 200},
		{Name: "a-cheap", Price: 100},
		{Name: "c-dear", Price: 300},
	} {
		_, err := m.CreateProduct(ctx, p)
		require.NoError(t, err)
	}

	names := func(f ProductFilters) []string {
		page, err := m.ListProducts(ctx, f)
		require.NoError(t, err)
		out := make([]string, 0, len(page.Items))
		for _, p := range page.Items {
			out = append(out, p.Name)
		}
		return out
	}

	assert.Equal(t, []string{"a-cheap", "b-mid", "c-dear"},
		names(ProductFilters{OrderBy: "price", OrderDir: "asc", Page: 1, Limit: 10}))
	assert.Equal(t, []string{"c-dear", "b-mid", "a-cheap"},
		names(ProductFilters{OrderBy: "price", OrderDir: "desc", Page: 1, Limit: 10}))
	assert.Equal(t, []string{"a-cheap", "b-mid", "c-dear"},
		names(ProductFilters{OrderBy: "name", OrderDir: "asc", Page: 1, Limit: 10}))
}

func TestUpdateOrderPartialPatch(t *testing.T) {
	m := newMemStore()
	ord := seedOrder(t, m, "Dana", 100, time.Now().UTC())

	total := 450.0
	got, err := m.UpdateOrder(context.Background(), ord.ID, OrderPatch{Total: &total})
	require.NoError(t, err)
	assert.Equal(t, 450.0, got.Total)
	assert.Equal(t, "Dana", got.CustomerName, "fields not in the patch stay put")

	_, err = m.UpdateOrder(context.Background(), "missing", OrderPatch{Total: &total})
	assert.ErrorIs(t, err, ErrNotFound)
}
