package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPhone(t *testing.T) {
	valid := []string{
		"+77001234567",
		"87001234567",
		"+7 700 123 45 67",
		"8 (700) 123-45-67",
	}
	for _, p := range valid {
		assert.True(t, validPhone(p), p)
	}

	invalid := []string{
		"",
		"12345",
		"+7700123456",    // too short
		"+770012345678",  // too long
		"+17001234567",   // wrong country code
		"hello",
		"7001234567",     // missing prefix
	}
	for _, p := range invalid {
		assert.False(t, validPhone(p), p)
	}
}

func validOrderInput() OrderCreateInput {
	return OrderCreateInput{
		CustomerName:   "Aigerim",
		Phone:          "+77001234567",
		Address:        "Abay ave 10, apt 5",
		DeliveryMethod: "courier",
		PaymentMethod:  "cash",
		Items:          []OrderItem{{ID: "p1", Name: "shirt", Qty: 2, Price: 100}},
	}
}

func TestValidateOrderCreateOK(t *testing.T) {
	assert.Empty(t, validateOrderCreate(validOrderInput()))
}

func TestValidateOrderCreateFieldErrors(t *testing.T) {
	in := validOrderInput()
	in.CustomerName = "A"
	in.Phone = "nope"
	in.Address = "abc"
	in.DeliveryMethod = ""
	in.PaymentMethod = ""
	in.Items = nil

	errs := validateOrderCreate(in)
	for _, field := range []string{"customer_name", "phone", "address", "delivery_method", "payment_method", "items"} {
		assert.Contains(t, errs, field)
	}
}

func TestValidateOrderCreateBadItem(t *testing.T) {
	in := validOrderInput()
	in.Items = append(in.Items, OrderItem{ID: "p2", Name: "", Qty: 0, Price: 0})

	errs := validateOrderCreate(in)
	assert.Contains(t, errs, "items[1]")
	assert.NotContains(t, errs, "items[0]")
}

func TestValidateOrderStatus(t *testing.T) {
	assert.Empty(t, validateOrderStatus("o1", StatusConfirmed))
	assert.Contains(t, validateOrderStatus("", StatusConfirmed), "id")
	assert.Contains(t, validateOrderStatus("o1", "shipped"), "status")
}

func TestValidateProductCreate(t *testing.T) {
	ok := ProductInput{Name: "Shirt", Price: 100, Stock: 5}
	assert.Empty(t, validateProductCreate(ok))

	bad := ProductInput{Name: "S", Price: -1, Stock: -2}
	errs := validateProductCreate(bad)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "price")
	assert.Contains(t, errs, "stock")
}

func TestValidateProductPatch(t *testing.T) {
	assert.Empty(t, validateProductPatch(ProductPatch{}))

	name := "x"
	price := -5.0
	errs := validateProductPatch(ProductPatch{Name: &name, Price: &price})
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "price")
}
