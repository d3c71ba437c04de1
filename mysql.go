package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// mysqlStore is the DataStore backed by MySQL (or TiDB; see the TLS
// registration in main).
type mysqlStore struct {
	db *sql.DB
}

func newMySQLStore(db *sql.DB) *mysqlStore {
	return &mysqlStore{db: db}
}

// ensureTables creates the schema if it does not exist yet.
func ensureTables(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS products (
        id CHAR(36) PRIMARY KEY,
        name VARCHAR(255) NOT NULL,
        price DECIMAL(12,2) DEFAULT 0.00,
        stock INT DEFAULT 0,
        category VARCHAR(255) NULL,
        description TEXT,
        sizes JSON NULL,
        images JSON NULL,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NULL,
        INDEX idx_products_category (category),
        INDEX idx_products_created (created_at)
    )`); err != nil {
		return errors.Wrap(err, "create products table")
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS orders (
        id CHAR(36) PRIMARY KEY,
        customer_name VARCHAR(255) NOT NULL,
        phone VARCHAR(32) NOT NULL,
        address TEXT,
        delivery_method VARCHAR(64),
        payment_method VARCHAR(64),
        items JSON NOT NULL,
        total DECIMAL(12,2) DEFAULT 0.00,
        status VARCHAR(16) DEFAULT 'pending',
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        INDEX idx_orders_status (status),
        INDEX idx_orders_created (created_at)
    )`); err != nil {
		return errors.Wrap(err, "create orders table")
	}

	return nil
}

const productCols = `id, name, price, stock, IFNULL(category,''), IFNULL(description,''), sizes, images, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*Product, error) {
	var p Product
	var priceStr string
	var sizesRaw, imagesRaw []byte
	var created interface{}
	var updated sql.NullTime
	if err := row.Scan(&p.ID, &p.Name, &priceStr, &p.Stock, &p.Category, &p.Description,
		&sizesRaw, &imagesRaw, &created, &updated); err != nil {
		return nil, err
	}
	// price comes as string from DECIMAL
	p.Price, _ = strconv.ParseFloat(priceStr, 64)
	if len(sizesRaw) > 0 {
		_ = json.Unmarshal(sizesRaw, &p.Sizes)
	}
	p.Images = []string{}
	if len(imagesRaw) > 0 {
		_ = json.Unmarshal(imagesRaw, &p.Images)
	}
	p.CreatedAt = parseDBTime(created)
	if updated.Valid {
		t := updated.Time
		p.UpdatedAt = &t
	}
	return &p, nil
}

// parseDBTime handles created_at arriving as time.Time or []byte/string
// depending on driver settings.
func parseDBTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case []byte:
		parsed, _ := time.Parse("2006-01-02 15:04:05", string(t))
		return parsed
	case string:
		parsed, _ := time.Parse("2006-01-02 15:04:05", t)
		return parsed
	default:
		return time.Time{}
	}
}

var productOrderCols = map[string]string{
	"price":      "price",
	"name":       "name",
	"created_at": "created_at",
}

func (s *mysqlStore) ListProducts(ctx context.Context, f ProductFilters) (*Paginated[Product], error) {
	clampPaging(&f.Page, &f.Limit)

	where := []string{"1=1"}
	var args []interface{}
	if q := strings.TrimSpace(f.Q); q != "" {
		where = append(where, "(name LIKE ? OR description LIKE ?)")
		pat := "%" + q + "%"
		args = append(args, pat, pat)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.MinPrice != nil {
		where = append(where, "price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= ?")
		args = append(args, *f.MaxPrice)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, errors.Wrap(err, "count products")
	}

	orderCol, ok := productOrderCols[f.OrderBy]
	if !ok {
		orderCol = "created_at"
	}
	dir := "DESC"
	if f.OrderDir == "asc" {
		dir = "ASC"
	}

	query := "SELECT " + productCols + " FROM products WHERE " + cond +
		" ORDER BY " + orderCol + " " + dir + " LIMIT ? OFFSET ?"
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer rows.Close()

	items := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate products")
	}

	return &Paginated[Product]{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *mysqlStore) GetProduct(ctx context.Context, id string) (*Product, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+productCols+" FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	return p, nil
}

func (s *mysqlStore) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	sizes, _ := json.Marshal(in.Sizes)
	images := in.Images
	if images == nil {
		images = []string{}
	}
	imagesRaw, _ := json.Marshal(images)

	_, err := s.db.ExecContext(ctx, `INSERT INTO products
        (id, name, price, stock, category, description, sizes, images, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.Name, formatPrice(in.Price), in.Stock, sqlNullString(in.Category),
		in.Description, sizes, imagesRaw, now)
	if err != nil {
		return nil, errors.Wrap(err, "insert product")
	}

	return &Product{
		ID: id, Name: in.Name, Price: in.Price, Stock: in.Stock,
		Category: in.Category, Description: in.Description,
		Sizes: in.Sizes, Images: images, CreatedAt: now,
	}, nil
}

func (s *mysqlStore) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	var setCols []string
	var args []interface{}
	if patch.Name != nil {
		setCols = append(setCols, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Price != nil {
		setCols = append(setCols, "price = ?")
		args = append(args, formatPrice(*patch.Price))
	}
	if patch.Stock != nil {
		setCols = append(setCols, "stock = ?")
		args = append(args, *patch.Stock)
	}
	if patch.Category != nil {
		setCols = append(setCols, "category = ?")
		args = append(args, sqlNullString(*patch.Category))
	}
	if patch.Description != nil {
		setCols = append(setCols, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Sizes != nil {
		raw, _ := json.Marshal(*patch.Sizes)
		setCols = append(setCols, "sizes = ?")
		args = append(args, raw)
	}
	if patch.Images != nil {
		raw, _ := json.Marshal(*patch.Images)
		setCols = append(setCols, "images = ?")
		args = append(args, raw)
	}
	if len(setCols) == 0 {
		return s.GetProduct(ctx, id)
	}
	setCols = append(setCols, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, "UPDATE products SET "+strings.Join(setCols, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// could also be a no-change update; confirm existence
		if _, err := s.GetProduct(ctx, id); err != nil {
			return nil, err
		}
	}
	return s.GetProduct(ctx, id)
}

func (s *mysqlStore) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const orderCols = `id, customer_name, phone, IFNULL(address,''), IFNULL(delivery_method,''), IFNULL(payment_method,''), items, total, status, created_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*Order, error) {
	var o Order
	var totalStr string
	var itemsRaw []byte
	var created interface{}
	if err := row.Scan(&o.ID, &o.CustomerName, &o.Phone, &o.Address, &o.DeliveryMethod,
		&o.PaymentMethod, &itemsRaw, &totalStr, &o.Status, &created); err != nil {
		return nil, err
	}
	o.Total, _ = strconv.ParseFloat(totalStr, 64)
	o.Items = []OrderItem{}
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &o.Items); err != nil {
			return nil, errors.Wrap(err, "decode order items")
		}
	}
	o.CreatedAt = parseDBTime(created)
	return &o, nil
}

func (s *mysqlStore) CreateOrder(ctx context.Context, in OrderCreateInput) (*Order, error) {
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
	itemsRaw, err := json.Marshal(o.Items)
	if err != nil {
		return nil, errors.Wrap(err, "encode order items")
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO orders
        (id, customer_name, phone, address, delivery_method, payment_method, items, total, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerName, o.Phone, o.Address, o.DeliveryMethod, o.PaymentMethod,
		itemsRaw, formatPrice(o.Total), o.Status, o.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "insert order")
	}
	return &o, nil
}

func (s *mysqlStore) ListOrders(ctx context.Context, f OrderFilters) (*Paginated[Order], error) {
	clampPaging(&f.Page, &f.Limit)

	where := []string{"1=1"}
	var args []interface{}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if q := strings.TrimSpace(f.Q); q != "" {
		where = append(where, "(customer_name LIKE ? OR phone LIKE ?)")
		pat := "%" + q + "%"
		args = append(args, pat, pat)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, errors.Wrap(err, "count orders")
	}

	query := "SELECT " + orderCols + " FROM orders WHERE " + cond +
		" ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	items := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		items = append(items, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate orders")
	}

	return &Paginated[Order]{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *mysqlStore) GetOrder(ctx context.Context, id string) (*Order, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+orderCols+" FROM orders WHERE id = ?", id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	return o, nil
}

func (s *mysqlStore) UpdateOrderStatus(ctx context.Context, id, status string) (*Order, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE orders SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return nil, errors.Wrap(err, "update order status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetOrder(ctx, id); err != nil {
			return nil, err
		}
	}
	return s.GetOrder(ctx, id)
}

func (s *mysqlStore) UpdateOrder(ctx context.Context, id string, patch OrderPatch) (*Order, error) {
	var setCols []string
	var args []interface{}
	if patch.CustomerName != nil {
		setCols = append(setCols, "customer_name = ?")
		args = append(args, *patch.CustomerName)
	}
	if patch.Phone != nil {
		setCols = append(setCols, "phone = ?")
		args = append(args, *patch.Phone)
	}
	if patch.Total != nil {
		setCols = append(setCols, "total = ?")
		args = append(args, formatPrice(*patch.Total))
	}
	if patch.Status != nil {
		setCols = append(setCols, "status = ?")
		args = append(args, *patch.Status)
	}
	if len(setCols) == 0 {
		return s.GetOrder(ctx, id)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, "UPDATE orders SET "+strings.Join(setCols, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetOrder(ctx, id); err != nil {
			return nil, err
		}
	}
	return s.GetOrder(ctx, id)
}

func (s *mysqlStore) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "delete order")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mysqlStore) OrdersBetween(ctx context.Context, from, to time.Time) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+orderCols+" FROM orders WHERE created_at >= ? AND created_at <= ? ORDER BY created_at ASC",
		from, to)
	if err != nil {
		return nil, errors.Wrap(err, "query orders range")
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// formatPrice keeps DECIMAL columns at two digits.
func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

func sqlNullString(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
