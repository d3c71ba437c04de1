package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"net/http"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"
	mysql "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"lavka/cart"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	log := logrus.New()
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}

	dsn := os.Getenv("MYSQL_DSN")
	cloudURL := os.Getenv("CLOUDINARY_URL")
	devMode := false
	if v := os.Getenv("DEV_MODE"); v == "1" || strings.ToLower(v) == "true" {
		devMode = true
	}
	if !devMode && dsn == "" {
		log.Fatal("env MYSQL_DSN must be set (or set DEV_MODE=true to run without external services)")
	}

	var store DataStore
	if devMode {
		log.Info("DEV_MODE=true: running with the in-memory store")
		store = newMemStore()
	} else {
		registerTiDBTLS(log, dsn)
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			log.WithError(err).Fatal("open db")
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.WithError(err).Fatal("ping db")
		}
		if err := ensureTables(db); err != nil {
			log.WithError(err).Fatal("ensure tables")
		}
		store = newMySQLStore(db)
	}

	cartRepo := buildCartRepoFactory(log)
	srv := newServer(store, log, cloudURL, cartRepo)
	r := newRouter(srv)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	log.WithField("port", port).Info("server listening")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.WithError(err).Fatal("server")
	}
}

// newRouter wires every endpoint of the storefront and admin API.
func newRouter(srv *server) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/login", srv.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/logout", srv.handleLogout).Methods(http.MethodPost)

	api.HandleFunc("/products", srv.handleListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products", srv.requireAdmin(srv.handleCreateProduct)).Methods(http.MethodPost)
	api.HandleFunc("/products/{id}", srv.handleGetProduct).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", srv.requireAdmin(srv.handleUpdateProduct)).Methods(http.MethodPut)
	api.HandleFunc("/products/{id}", srv.requireAdmin(srv.handleDeleteProduct)).Methods(http.MethodDelete)

	api.HandleFunc("/orders", srv.handleCreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders", srv.requireAdmin(srv.handleListOrders)).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", srv.handleGetOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", srv.requireAdmin(srv.handleSaveOrderForm)).Methods(http.MethodPut)
	api.HandleFunc("/orders/{id}/status", srv.requireAdmin(srv.handleUpdateOrderStatus)).Methods(http.MethodPut)
	api.HandleFunc("/orders/{id}", srv.requireAdmin(srv.handleDeleteOrder)).Methods(http.MethodDelete)
	api.HandleFunc("/admin/orders", srv.requireAdmin(srv.handleSaveOrderForm)).Methods(http.MethodPost)

	api.HandleFunc("/cart", srv.handleGetCart).Methods(http.MethodGet)
	api.HandleFunc("/cart", srv.handleClearCart).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items", srv.handleAddCartItem).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{id}", srv.cartMutation(func(c *cart.Store, id string) error {
		return c.Remove(id)
	})).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items/{id}/increment", srv.cartMutation(func(c *cart.Store, id string) error {
		return c.Increment(id)
	})).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{id}/decrement", srv.cartMutation(func(c *cart.Store, id string) error {
		return c.Decrement(id)
	})).Methods(http.MethodPost)
	api.HandleFunc("/checkout", srv.handleCheckout).Methods(http.MethodPost)

	api.HandleFunc("/stats", srv.requireAdmin(srv.handleStats)).Methods(http.MethodGet)
	api.HandleFunc("/upload", srv.requireAdmin(srv.handleUpload)).Methods(http.MethodPost)

	// Static assets and pages under /static
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir("./static"))))

	return r
}

// registerTiDBTLS registers a TLS config named "tidb" when the DSN asks
// for it, loading the CA from TIDB_CA or the system bundle.
func registerTiDBTLS(log *logrus.Logger, dsn string) {
	if !strings.Contains(dsn, "tls=tidb") {
		return
	}
	caPath := os.Getenv("TIDB_CA")
	if caPath == "" {
		caPath = "/etc/ssl/certs/ca-certificates.crt"
	}
	pool := x509.NewCertPool()
	b, err := os.ReadFile(caPath)
	if err != nil {
		log.WithError(err).Warnf("could not read CA file %s, falling back to InsecureSkipVerify", caPath)
		_ = mysql.RegisterTLSConfig("tidb", &tls.Config{InsecureSkipVerify: true})
		return
	}
	if !pool.AppendCertsFromPEM(b) {
		log.Warnf("could not parse CA file %s, falling back to InsecureSkipVerify", caPath)
		_ = mysql.RegisterTLSConfig("tidb", &tls.Config{InsecureSkipVerify: true})
		return
	}
	_ = mysql.RegisterTLSConfig("tidb", &tls.Config{RootCAs: pool})
}

// buildCartRepoFactory picks where session carts persist: Redis when
// REDIS_ADDR is set, otherwise JSON files under CART_DIR.
func buildCartRepoFactory(log *logrus.Logger) func(session string) (cart.Repository, error) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			opts = &redis.Options{Addr: addr}
		}
		client := redis.NewClient(opts)
		ctx := context.Background()
		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("redis ping")
		}
		log.WithField("addr", addr).Info("session carts persisted in redis")
		return func(session string) (cart.Repository, error) {
			return cart.NewRedisRepository(ctx, client, session), nil
		}
	}

	dir := os.Getenv("CART_DIR")
	if dir == "" {
		dir = "./data/carts"
	}
	log.WithField("dir", dir).Info("session carts persisted on disk")
	return func(session string) (cart.Repository, error) {
		return cart.NewFileRepository(dir, session)
	}
}
