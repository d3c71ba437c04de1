package main

import (
	"regexp"
	"strconv"
	"strings"
)

// fieldErrors maps field names to messages, resolved locally before any
// store call.
type fieldErrors map[string]string

var validStatuses = map[string]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusDelivered: true,
	StatusCancelled: true,
}

// mobile number: +7 or 8 followed by exactly 10 digits
var phoneRe = regexp.MustCompile(`^(?:\+7|8)\d{10}$`)

func validPhone(s string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(s)
	return phoneRe.MatchString(cleaned)
}

func validateOrderCreate(in OrderCreateInput) fieldErrors {
	errs := fieldErrors{}
	if len(strings.TrimSpace(in.CustomerName)) < 2 {
		errs["customer_name"] = "name must be at least 2 characters"
	}
	if !validPhone(in.Phone) {
		errs["phone"] = "enter a valid phone number"
	}
	if len(strings.TrimSpace(in.Address)) < 5 {
		errs["address"] = "address must be at least 5 characters"
	}
	if in.DeliveryMethod == "" {
		errs["delivery_method"] = "choose a delivery method"
	}
	if in.PaymentMethod == "" {
		errs["payment_method"] = "choose a payment method"
	}
	if len(in.Items) == 0 {
		errs["items"] = "order items must not be empty"
	}
	for i, it := range in.Items {
		if it.ID == "" || it.Name == "" || it.Price <= 0 || it.Qty <= 0 {
			errs["items["+strconv.Itoa(i)+"]"] = "item is missing required fields"
		}
	}
	return errs
}

func validateOrderStatus(id, status string) fieldErrors {
	errs := fieldErrors{}
	if id == "" {
		errs["id"] = "order id is required"
	}
	if !validStatuses[status] {
		errs["status"] = "invalid status"
	}
	return errs
}

func validateProductCreate(in ProductInput) fieldErrors {
	errs := fieldErrors{}
	if len(strings.TrimSpace(in.Name)) < 2 {
		errs["name"] = "name must be at least 2 characters"
	}
	if in.Price < 0 {
		errs["price"] = "price must be >= 0"
	}
	if in.Stock < 0 {
		errs["stock"] = "stock must be an integer >= 0"
	}
	return errs
}

func validateProductPatch(p ProductPatch) fieldErrors {
	errs := fieldErrors{}
	if p.Name != nil && len(strings.TrimSpace(*p.Name)) < 2 {
		errs["name"] = "name must be at least 2 characters"
	}
	if p.Price != nil && *p.Price < 0 {
		errs["price"] = "price must be >= 0"
	}
	if p.Stock != nil && *p.Stock < 0 {
		errs["stock"] = "stock must be an integer >= 0"
	}
	return errs
}
