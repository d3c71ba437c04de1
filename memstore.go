package main

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore is the in-memory DataStore used when DEV_MODE is on, so the
// server runs without MySQL. Mutex-guarded; fine for a dev instance.
type memStore struct {
	mu       sync.Mutex
	products []Product
	orders   []Order
}

func newMemStore() *memStore {
	return &memStore{}
}

func (m *memStore) ListProducts(ctx context.Context, f ProductFilters) (*Paginated[Product], error) {
	clampPaging(&f.Page, &f.Limit)
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Product
	q := strings.ToLower(strings.TrimSpace(f.Q))
	for _, p := range m.products {
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		matched = append(matched, p)
	}

	sortProducts(matched, f.OrderBy, f.OrderDir)

	total := len(matched)
	from := (f.Page - 1) * f.Limit
	if from > total {
		from = total
	}
	to := from + f.Limit
	if to > total {
		to = total
	}
	items := make([]Product, to-from)
	copy(items, matched[from:to])

	return &Paginated[Product]{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func sortProducts(ps []Product, orderBy, orderDir string) {
	asc := orderDir == "asc"
	sort.SliceStable(ps, func(i, j int) bool {
		var less bool
		switch orderBy {
		case "price":
			less = ps[i].Price < ps[j].Price
		case "name":
			less = ps[i].Name < ps[j].Name
		default:
			less = ps[i].CreatedAt.Before(ps[j].CreatedAt)
		}
		if asc {
			return less
		}
		return !less
	})
}

func (m *memStore) GetProduct(ctx context.Context, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    in.Category,
		Description: in.Description,
		Sizes:       in.Sizes,
		Images:      in.Images,
		CreatedAt:   time.Now().UTC(),
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	m.products = append(m.products, p)
	return &p, nil
}

func (m *memStore) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if m.products[i].ID != id {
			continue
		}
		p := &m.products[i]
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.Stock != nil {
			p.Stock = *patch.Stock
		}
		if patch.Category != nil {
			p.Category = *patch.Category
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Sizes != nil {
			p.Sizes = *patch.Sizes
		}
		if patch.Images != nil {
			p.Images = *patch.Images
		}
		now := time.Now().UTC()
		p.UpdatedAt = &now
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memStore) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.products {
		if p.ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) CreateOrder(ctx context.Context, in OrderCreateInput) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := Order{
		ID:             uuid.NewString(),
		CustomerName:   in.CustomerName,
		Phone:          in.Phone,
		Address:        in.Address,
		DeliveryMethod: in.DeliveryMethod,
		PaymentMethod:  in.PaymentMethod,
		Items:          in.Items,
		Total:          orderTotal(in.Items),
		Status:         StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	m.orders = append(m.orders, o)
	return &o, nil
}

func (m *memStore) ListOrders(ctx context.Context, f OrderFilters) (*Paginated[Order], error) {
	clampPaging(&f.Page, &f.Limit)
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Order
	q := strings.ToLower(strings.TrimSpace(f.Q))
	for _, o := range m.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(o.CustomerName), q) &&
			!strings.Contains(strings.ToLower(o.Phone), q) {
			continue
		}
		matched = append(matched, o)
	}
	// newest first
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	from := (f.Page - 1) * f.Limit
	if from > total {
		from = total
	}
	to := from + f.Limit
	if to > total {
		to = total
	}
	items := make([]Order, to-from)
	copy(items, matched[from:to])

	return &Paginated[Order]{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (m *memStore) GetOrder(ctx context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			cp := o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, id, status string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders[i].Status = status
			cp := m.orders[i]
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) UpdateOrder(ctx context.Context, id string, patch OrderPatch) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID != id {
			continue
		}
		o := &m.orders[i]
		if patch.CustomerName != nil {
			o.CustomerName = *patch.CustomerName
		}
		if patch.Phone != nil {
			o.Phone = *patch.Phone
		}
		if patch.Total != nil {
			o.Total = *patch.Total
		}
		if patch.Status != nil {
			o.Status = *patch.Status
		}
		cp := *o
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memStore) DeleteOrder(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.orders {
		if o.ID == id {
			m.orders = append(m.orders[:i], m.orders[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) OrdersBetween(ctx context.Context, from, to time.Time) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.orders {
		if o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
