package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/creasty/defaults"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"lavka/orderform"
	"lavka/stats"
)

// handleCreateOrder is the public checkout target. It validates the
// payload, re-derives the total from the items and stores the order with
// a fresh id, pending status and server timestamp.
func (s *server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in OrderCreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if errs := validateOrderCreate(in); len(errs) > 0 {
		s.failValidation(w, errs)
		return
	}
	ord, err := s.store.CreateOrder(r.Context(), in)
	if err != nil {
		s.storeErr(w, err)
		return
	}
	s.log.WithFields(logrus.Fields{
		"id":    ord.ID,
		"total": ord.Total,
		"items": len(ord.Items),
	}).Info("order created")
	s.respond(w, http.StatusCreated, ord)
}

func (s *server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	var f OrderFilters
	if err := s.decoder.Decode(&f, r.URL.Query()); err != nil {
		s.fail(w, http.StatusBadRequest, "bad query: "+err.Error())
		return
	}
	if err := defaults.Set(&f); err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if f.Status != "" && !validStatuses[f.Status] {
		s.failValidation(w, fieldErrors{"status": "invalid status"})
		return
	}
	page, err := s.store.ListOrders(r.Context(), f)
	if err != nil {
		s.storeErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, page)
}

func (s *server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ord, err := s.store.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, ord)
}

func (s *server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if errs := validateOrderStatus(id, payload.Status); len(errs) > 0 {
		s.failValidation(w, errs)
		return
	}
	ord, err := s.store.UpdateOrderStatus(r.Context(), id, payload.Status)
	if err != nil {
		s.storeErr(w, err)
		return
	}
	s.log.WithFields(logrus.Fields{"id": id, "status": payload.Status}).Info("order status updated")
	s.respond(w, http.StatusOK, ord)
}

func (s *server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteOrder(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.storeErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, nil)
}

// storeOrderWriter adapts the DataStore to the order-form submit
// dispatch.
type storeOrderWriter struct {
	store DataStore
}

func (w storeOrderWriter) CreateOrder(ctx context.Context, f orderform.Form) (string, error) {
	ord, err := w.store.CreateOrder(ctx, OrderCreateInput{
		CustomerName: f.CustomerName,
		Phone:        f.Phone,
	})
	if err != nil {
		return "", err
	}
	// manual admin orders carry an explicit total and status
	if _, err := w.store.UpdateOrder(ctx, ord.ID, OrderPatch{Total: &f.Total, Status: &f.Status}); err != nil {
		return "", err
	}
	return ord.ID, nil
}

func (w storeOrderWriter) UpdateOrder(ctx context.Context, f orderform.Form) error {
	_, err := w.store.UpdateOrder(ctx, f.ID, OrderPatch{
		CustomerName: &f.CustomerName,
		Phone:        &f.Phone,
		Total:        &f.Total,
		Status:       &f.Status,
	})
	return err
}

// handleSaveOrderForm is the admin order editor's save: a body with an
// id updates that order, a body without one creates a new order. The
// dispatch lives in the orderform package.
func (s *server) handleSaveOrderForm(w http.ResponseWriter, r *http.Request) {
	var f orderform.Form
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if id := mux.Vars(r)["id"]; id != "" {
		f.ID = id
	}
	if f.Status != "" && !validStatuses[f.Status] {
		s.failValidation(w, fieldErrors{"status": "invalid status"})
		return
	}

	form := orderform.New()
	if f.IsNew() {
		form.Reset()
		_ = form.SetField("customer_name", f.CustomerName)
		_ = form.SetField("phone", f.Phone)
		_ = form.SetField("total", f.Total)
		if f.Status != "" {
			_ = form.SetField("status", f.Status)
		}
	} else {
		form.LoadOrder(f)
	}

	if err := form.Submit(r.Context(), storeOrderWriter{store: s.store}); err != nil {
		s.storeErr(w, err)
		return
	}
	ord, err := s.store.GetOrder(r.Context(), form.Form().ID)
	if err != nil {
		s.storeErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, ord)
}

// handleStats reduces the order history of the requested period into a
// summary and a per-day chart.
func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period := q.Get("period")

	var custom *stats.Range
	if period == "custom" {
		from, err := stats.ParseDay(q.Get("from"))
		if err != nil {
			s.fail(w, http.StatusBadRequest, err.Error())
			return
		}
		to, err := stats.ParseDay(q.Get("to"))
		if err != nil {
			s.fail(w, http.StatusBadRequest, err.Error())
			return
		}
		custom = &stats.Range{From: from, To: to.AddDate(0, 0, 1).Add(-1)}
	}

	rng, err := stats.PeriodRange(period, s.now(), custom)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := s.store.OrdersBetween(r.Context(), rng.From, rng.To)
	if err != nil {
		s.storeErr(w, err)
		return
	}

	sales := make([]stats.Sale, 0, len(orders))
	for _, o := range orders {
		sales = append(sales, stats.Sale{Total: o.Total, CreatedAt: o.CreatedAt})
	}

	s.respond(w, http.StatusOK, map[string]interface{}{
		"summary": stats.Summarize(sales),
		"chart":   stats.GroupByDay(sales),
		"orders":  orders,
	})
}
