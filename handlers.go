package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"lavka/cart"
)

// server ties the HTTP surface to its collaborators. One instance per
// process; handlers hang off it as methods.
type server struct {
	store    DataStore
	log      *logrus.Logger
	decoder  *schema.Decoder
	cloudURL string
	cartRepo func(session string) (cart.Repository, error)
	now      func() time.Time
}

func newServer(store DataStore, log *logrus.Logger, cloudURL string,
	cartRepo func(session string) (cart.Repository, error)) *server {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return &server{
		store:    store,
		log:      log,
		decoder:  dec,
		cloudURL: cloudURL,
		cartRepo: cartRepo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// respond writes the success envelope.
func (s *server) respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data}); err != nil {
		s.log.WithError(err).Error("encode response")
	}
}

// fail writes the error envelope.
func (s *server) fail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: false, Error: msg})
}

// failValidation writes field-keyed validation messages alongside the
// error envelope.
func (s *server) failValidation(w http.ResponseWriter, errs fieldErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: false, Error: "validation failed", Data: errs})
}

// storeErr maps store failures onto the envelope: not-found gets its
// dedicated state, everything else surfaces as a single message.
func (s *server) storeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		s.fail(w, http.StatusNotFound, "not found")
		return
	}
	s.log.WithError(err).Error("store error")
	s.fail(w, http.StatusInternalServerError, err.Error())
}

// isAdmin checks the session cookie for the admin flag, falling back to
// the ADMIN_TOKEN header or query token.
func isAdmin(r *http.Request) bool {
	if c, err := r.Cookie("session"); err == nil && c.Value == "admin" {
		return true
	}
	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		return false
	}
	if t := r.Header.Get("X-Admin-Token"); t != "" && t == adminToken {
		return true
	}
	if t := r.URL.Query().Get("token"); t != "" && t == adminToken {
		return true
	}
	return false
}

// requireAdmin wraps an admin-only handler.
func (s *server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isAdmin(r) {
			s.fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// handleLogin expects JSON {"username","password"} and sets the admin
// session cookie. Credentials come from ADMIN_USER/ADMIN_PASSWORD.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var cred struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	user, pass := os.Getenv("ADMIN_USER"), os.Getenv("ADMIN_PASSWORD")
	if user == "" || pass == "" {
		s.fail(w, http.StatusUnauthorized, "admin login disabled")
		return
	}
	if cred.Username != user || cred.Password != pass {
		s.fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "admin",
		Path:     "/",
		HttpOnly: true,
	})
	s.respond(w, http.StatusOK, nil)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
	s.respond(w, http.StatusOK, nil)
}

// handleListProducts serves the public catalog with search, filters and
// pagination.
func (s *server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	var f ProductFilters
	if err := s.decoder.Decode(&f, r.URL.Query()); err != nil {
		s.fail(w, http.StatusBadRequest, "bad query: "+err.Error())
		return
	}
	if err := defaults.Set(&f); err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	page, err := s.store.ListProducts(r.Context(), f)
	if err != nil {
		s.storeErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, page)
}

func (s *server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, p)
}

func (s *server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if errs := validateProductCreate(in); len(errs) > 0 {
		s.failValidation(w, errs)
		return
	}
	p, err := s.store.CreateProduct(r.Context(), in)
	if err != nil {
		s.storeErr(w, err)
		return
	}
	s.log.WithFields(logrus.Fields{"id": p.ID, "name": p.Name}).Info("product created")
	s.respond(w, http.StatusCreated, p)
}

func (s *server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if errs := validateProductPatch(patch); len(errs) > 0 {
		s.failValidation(w, errs)
		return
	}
	p, err := s.store.UpdateProduct(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		s.storeErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, p)
}

func (s *server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.DeleteProduct(r.Context(), id); err != nil {
		s.storeErr(w, err)
		return
	}
	s.log.WithField("id", id).Info("product deleted")
	s.respond(w, http.StatusOK, nil)
}
