package orderform

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStartsInCreateMode(t *testing.T) {
	s := New()
	f := s.Form()
	assert.True(t, f.IsNew())
	assert.Equal(t, "", f.CustomerName)
	assert.Equal(t, "", f.Phone)
	assert.Equal(t, 0.0, f.Total)
	assert.Equal(t, StatusPending, f.Status)
}

func TestResetDiscardsEdits(t *testing.T) {
	s := New()
	s.LoadOrder(Form{ID: "o1", CustomerName: "Dana", Phone: "+77001234567", Total: 500, Status: "confirmed"})
	s.Reset()

	f := s.Form()
	assert.True(t, f.IsNew())
	assert.Equal(t, "", f.CustomerName)
	assert.Equal(t, StatusPending, f.Status)
	assert.Equal(t, 0.0, f.Total)
}

func TestLoadOrderDefaultsMissingFields(t *testing.T) {
	s := New()
	s.LoadOrder(Form{ID: "o2"})

	f := s.Form()
	assert.False(t, f.IsNew())
	assert.Equal(t, "", f.CustomerName)
	assert.Equal(t, "", f.Phone)
	assert.Equal(t, 0.0, f.Total)
	assert.Equal(t, StatusPending, f.Status)
}

func TestSetField(t *testing.T) {
	s := New()
	require.NoError(t, s.SetField("customer_name", "Dana"))
	require.NoError(t, s.SetField("phone", "+77001234567"))
	require.NoError(t, s.SetField("total", 1500.0))
	require.NoError(t, s.SetField("status", "confirmed"))

	f := s.Form()
	assert.Equal(t, "Dana", f.CustomerName)
	assert.Equal(t, "+77001234567", f.Phone)
	assert.Equal(t, 1500.0, f.Total)
	assert.Equal(t, "confirmed", f.Status)
}

func TestSetFieldIntTotal(t *testing.T) {
	s := New()
	require.NoError(t, s.SetField("total", 300))
	assert.Equal(t, 300.0, s.Form().Total)
}

func TestSetFieldRejectsUnknownKeyAndWrongType(t *testing.T) {
	s := New()
	assert.Error(t, s.SetField("created_at", "2024-01-01"))
	assert.Error(t, s.SetField("customer_name", 42))
	assert.Error(t, s.SetField("total", "many"))
}

// recordingWriter captures which dispatch path Submit took.
type recordingWriter struct {
	created  []Form
	updated  []Form
	createID string
	err      error
}

func (w *recordingWriter) CreateOrder(ctx context.Context, f Form) (string, error) {
	w.created = append(w.created, f)
	if w.err != nil {
		return "", w.err
	}
	return w.createID, nil
}

func (w *recordingWriter) UpdateOrder(ctx context.Context, f Form) error {
	w.updated = append(w.updated, f)
	return w.err
}

func TestSubmitWithoutIDCreates(t *testing.T) {
	s := New()
	require.NoError(t, s.SetField("customer_name", "Dana"))
	w := &recordingWriter{createID: "o-new"}

	require.NoError(t, s.Submit(context.Background(), w))
	require.Len(t, w.created, 1)
	assert.Empty(t, w.updated)
	assert.Equal(t, "Dana", w.created[0].CustomerName)

	// the assigned id is loaded back so the next submit updates
	assert.Equal(t, "o-new", s.Form().ID)
	require.NoError(t, s.Submit(context.Background(), w))
	require.Len(t, w.updated, 1)
	assert.Len(t, w.created, 1)
	assert.Equal(t, "o-new", w.updated[0].ID)
}

func TestSubmitWithIDUpdates(t *testing.T) {
	s := New()
	s.LoadOrder(Form{ID: "o7", CustomerName: "Dana", Status: "confirmed"})
	w := &recordingWriter{}

	require.NoError(t, s.Submit(context.Background(), w))
	assert.Empty(t, w.created)
	require.Len(t, w.updated, 1)
	assert.Equal(t, "o7", w.updated[0].ID)
}

func TestSubmitCreateFailureKeepsCreateMode(t *testing.T) {
	s := New()
	w := &recordingWriter{err: errors.New("backend down")}

	err := s.Submit(context.Background(), w)
	require.Error(t, err)
	assert.True(t, s.Form().IsNew(), "failed create must not flip the form into edit mode")
}
