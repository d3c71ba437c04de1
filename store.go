package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound marks a requested entity as absent. Handlers map it to the
// dedicated not-found response instead of a generic error.
var ErrNotFound = errors.New("not found")

// ProductFilters are the query parameters of the public product listing.
// Schema tags drive query-string decoding, default tags fill in what the
// client omitted.
type ProductFilters struct {
	Q        string   `schema:"q"`
	Category string   `schema:"category"`
	MinPrice *float64 `schema:"minPrice"`
	MaxPrice *float64 `schema:"maxPrice"`
	Page     int      `schema:"page" default:"1"`
	Limit    int      `schema:"limit" default:"20"`
	OrderBy  string   `schema:"orderBy" default:"created_at"`
	OrderDir string   `schema:"orderDir" default:"desc"`
}

// OrderFilters are the admin order-list query parameters. Q matches
// customer name or phone.
type OrderFilters struct {
	Q      string `schema:"q"`
	Status string `schema:"status"`
	Page   int    `schema:"page" default:"1"`
	Limit  int    `schema:"limit" default:"20"`
}

// ProductInput creates a product.
type ProductInput struct {
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Sizes       []string `json:"sizes"`
	Images      []string `json:"images"`
}

// ProductPatch updates a product; nil fields are left untouched.
type ProductPatch struct {
	Name        *string   `json:"name"`
	Price       *float64  `json:"price"`
	Stock       *int      `json:"stock"`
	Category    *string   `json:"category"`
	Description *string   `json:"description"`
	Sizes       *[]string `json:"sizes"`
	Images      *[]string `json:"images"`
}

// OrderCreateInput creates an order. Total is accepted for shape
// compatibility but always re-derived from Items before storing.
type OrderCreateInput struct {
	CustomerName   string      `json:"customer_name"`
	Phone          string      `json:"phone"`
	Address        string      `json:"address"`
	DeliveryMethod string      `json:"delivery_method"`
	PaymentMethod  string      `json:"payment_method"`
	Items          []OrderItem `json:"items"`
	Total          float64     `json:"total"`
}

// OrderPatch is the admin order-editor save; nil fields are untouched.
type OrderPatch struct {
	CustomerName *string  `json:"customer_name"`
	Phone        *string  `json:"phone"`
	Total        *float64 `json:"total"`
	Status       *string  `json:"status"`
}

// DataStore is the persistence boundary of the storefront. Both the
// MySQL store and the in-memory dev store implement it.
type DataStore interface {
	ListProducts(ctx context.Context, f ProductFilters) (*Paginated[Product], error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateOrder(ctx context.Context, in OrderCreateInput) (*Order, error)
	ListOrders(ctx context.Context, f OrderFilters) (*Paginated[Order], error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string) (*Order, error)
	UpdateOrder(ctx context.Context, id string, patch OrderPatch) (*Order, error)
	DeleteOrder(ctx context.Context, id string) error
	OrdersBetween(ctx context.Context, from, to time.Time) ([]Order, error)
}

// orderTotal re-derives an order total from its items.
func orderTotal(items []OrderItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	f, _ := sum.Float64()
	return f
}

func clampPaging(page, limit *int) {
	if *page < 1 {
		*page = 1
	}
	if *limit < 1 {
		*limit = 20
	}
}
