package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"lavka/cart"
	"lavka/checkout"
)

const cartCookie = "cart_session"

// sessionID returns the caller's cart session, minting a new one (and
// setting the cookie) on first contact.
func (s *server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(cartCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 24 * 180,
	})
	return id
}

// openCart restores the session's cart from its repository.
func (s *server) openCart(w http.ResponseWriter, r *http.Request) (*cart.Store, error) {
	session := s.sessionID(w, r)
	repo, err := s.cartRepo(session)
	if err != nil {
		return nil, errors.Wrap(err, "open cart repository")
	}
	return cart.Open(repo)
}

// cartView is what the cart endpoints answer with.
type cartView struct {
	Items []cart.LineItem `json:"items"`
	Total float64         `json:"total"`
	Count int             `json:"count"`
}

func viewOf(c *cart.Store) cartView {
	return cartView{Items: c.Items(), Total: c.Total(), Count: c.Count()}
}

func (s *server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, err := s.openCart(w, r)
	if err != nil {
		s.log.WithError(err).Error("open cart")
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusOK, viewOf(c))
}

func (s *server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var item cart.LineItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	errs := fieldErrors{}
	if item.ID == "" {
		errs["id"] = "product id is required"
	}
	if item.Name == "" {
		errs["name"] = "product name is required"
	}
	if item.Price < 0 {
		errs["price"] = "price must be >= 0"
	}
	if item.Qty < 1 {
		errs["qty"] = "qty must be a positive integer"
	}
	if len(errs) > 0 {
		s.failValidation(w, errs)
		return
	}

	c, err := s.openCart(w, r)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := c.Add(item); err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusOK, viewOf(c))
}

// cartMutation runs one id-keyed cart operation and answers with the
// updated cart.
func (s *server) cartMutation(op func(c *cart.Store, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.openCart(w, r)
		if err != nil {
			s.fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := op(c, mux.Vars(r)["id"]); err != nil {
			s.fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respond(w, http.StatusOK, viewOf(c))
	}
}

func (s *server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	c, err := s.openCart(w, r)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := c.Clear(); err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusOK, viewOf(c))
}

// storeOrderCreator lets the checkout workflow create orders directly
// against the data store, applying the same validation as the public
// order endpoint.
type storeOrderCreator struct {
	store DataStore
}

func (c storeOrderCreator) CreateOrder(ctx context.Context, req checkout.OrderRequest) (*checkout.Order, error) {
	in := OrderCreateInput{
		CustomerName:   req.CustomerName,
		Phone:          req.Phone,
		Address:        req.Address,
		DeliveryMethod: req.DeliveryMethod,
		PaymentMethod:  req.PaymentMethod,
		Total:          req.Total,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, OrderItem(it))
	}
	if errs := validateOrderCreate(in); len(errs) > 0 {
		return nil, validationError(errs)
	}
	ord, err := c.store.CreateOrder(ctx, in)
	if err != nil {
		return nil, err
	}
	out := checkout.Order{
		ID:             ord.ID,
		CustomerName:   ord.CustomerName,
		Phone:          ord.Phone,
		Address:        ord.Address,
		DeliveryMethod: ord.DeliveryMethod,
		PaymentMethod:  ord.PaymentMethod,
		Total:          ord.Total,
		Status:         ord.Status,
		CreatedAt:      ord.CreatedAt,
	}
	for _, it := range ord.Items {
		out.Items = append(out.Items, checkout.OrderItem(it))
	}
	return &out, nil
}

// validationError flattens field errors into one message for callers
// outside the HTTP layer.
func validationError(errs fieldErrors) error {
	raw, _ := json.Marshal(errs)
	return errors.Errorf("validation failed: %s", raw)
}

// handleCheckout runs the checkout workflow for the session cart: it
// refuses an empty cart, creates the order and clears the cart only
// after the order is confirmed.
func (s *server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var form checkout.DeliveryForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	c, err := s.openCart(w, r)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	wf := checkout.New(c, storeOrderCreator{store: s.store})
	ord, err := wf.Submit(r.Context(), form)
	if errors.Is(err, checkout.ErrEmptyCart) {
		s.fail(w, http.StatusBadRequest, "cart is empty")
		return
	}
	if err != nil {
		s.log.WithError(err).Warn("checkout failed")
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.log.WithFields(logrus.Fields{"order": ord.ID, "total": ord.Total}).Info("checkout complete")
	s.respond(w, http.StatusCreated, ord)
}
