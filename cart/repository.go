package cart

import "encoding/json"

// Namespace is the fixed key carts are persisted under. The serialized
// envelope format must stay stable across versions so returning sessions
// keep their cart.
const Namespace = "cart-storage"

// envelope is the on-disk/on-wire shape of a persisted cart.
type envelope struct {
	Items []LineItem `json:"items"`
}

// Repository persists a cart between sessions. Save is called
// synchronously after every mutation; Load is called once when the cart
// is opened.
type Repository interface {
	Load() ([]LineItem, error)
	Save(items []LineItem) error
}

// NopRepository keeps nothing. Useful for ephemeral carts and tests.
type NopRepository struct{}

func (NopRepository) Load() ([]LineItem, error) { return nil, nil }
func (NopRepository) Save([]LineItem) error     { return nil }

func marshalEnvelope(items []LineItem) ([]byte, error) {
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(envelope{Items: items})
}

func unmarshalEnvelope(data []byte) ([]LineItem, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}
