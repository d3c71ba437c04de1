// Package orderform isolates transient admin edit-form state from the
// order list being browsed: opening or closing the editor never touches
// stored orders until an explicit submit.
package orderform

import (
	"context"
	"fmt"
)

// StatusPending is the default status a fresh form starts with.
const StatusPending = "pending"

// Form is the editable subset of an order. A present ID means the form
// edits an existing order; an absent ID means it creates a new one.
type Form struct {
	ID           string  `json:"id,omitempty"`
	CustomerName string  `json:"customer_name"`
	Phone        string  `json:"phone"`
	Total        float64 `json:"total"`
	Status       string  `json:"status"`
}

// IsNew reports whether submitting the form should create an order
// rather than update one.
func (f Form) IsNew() bool { return f.ID == "" }

// OrderWriter is the backend the form is submitted to.
type OrderWriter interface {
	CreateOrder(ctx context.Context, f Form) (id string, err error)
	UpdateOrder(ctx context.Context, f Form) error
}

// Store holds one form. Discarding the store discards unsaved edits;
// nothing is written anywhere except through Submit.
type Store struct {
	form Form
}

// New returns a store reset to create mode.
func New() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset puts the form into create mode with empty defaults.
func (s *Store) Reset() {
	s.form = Form{Status: StatusPending}
}

// LoadOrder copies an existing order into the form, enabling edit mode.
// Missing string fields default to "", a missing total to 0 and a
// missing status to pending.
func (s *Store) LoadOrder(o Form) {
	if o.Status == "" {
		o.Status = StatusPending
	}
	s.form = o
}

// SetField updates a single field by its wire name. No validation
// happens at this layer.
func (s *Store) SetField(key string, value interface{}) error {
	switch key {
	case "customer_name":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("orderform: %s wants a string", key)
		}
		s.form.CustomerName = v
	case "phone":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("orderform: %s wants a string", key)
		}
		s.form.Phone = v
	case "status":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("orderform: %s wants a string", key)
		}
		s.form.Status = v
	case "total":
		switch v := value.(type) {
		case float64:
			s.form.Total = v
		case int:
			s.form.Total = float64(v)
		default:
			return fmt.Errorf("orderform: %s wants a number", key)
		}
	default:
		return fmt.Errorf("orderform: unknown field %q", key)
	}
	return nil
}

// Form returns the current form contents.
func (s *Store) Form() Form { return s.form }

// Submit dispatches the form to the writer: update when an id is
// present, create otherwise. On a successful create the assigned id is
// loaded back into the form so further submits update.
func (s *Store) Submit(ctx context.Context, w OrderWriter) error {
	if s.form.IsNew() {
		id, err := w.CreateOrder(ctx, s.form)
		if err != nil {
			return err
		}
		s.form.ID = id
		return nil
	}
	return w.UpdateOrder(ctx, s.form)
}
