package checkoutapi

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MarcGrol/ordermailer/lib/myerrors"
)

const (
	ReasonRequired      = "is required"
	ReasonInvalidEmail  = "is not a valid email address"
	ReasonEmpty         = "must contain at least one item"
	ReasonNegative      = "must not be negative"
	ReasonNotInteger    = "must be a whole number"
	ReasonTooSmall      = "must be at least 1"
	ReasonTooLarge      = "must be at most 9999"
	ReasonPriceTooLarge = "must be at most 999999.99"

	maxQuantity = 9999
)

// maxPrice is the largest unit amount the payment processor accepts: 99999999 minor units.
var maxPrice = decimal.New(99999999, -2)

// FieldError names the offending field of a rejected order.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return myerrors.NewInvalidInputError(FieldError{Field: field, Reason: reason})
}

// Normalize validates a raw order and turns it into the canonical Order.
// Prices are quantized to cents, half away from zero, so that what is charged,
// what is mailed and the total can never drift apart.
func Normalize(raw RawOrder, uid string) (Order, error) {
	customer, err := normalizeCustomer(raw.Customer)
	if err != nil {
		return Order{}, err
	}

	if len(raw.Items) == 0 {
		return Order{}, invalid("items", ReasonEmpty)
	}

	items := make([]CartItem, 0, len(raw.Items))
	for idx, rawItem := range raw.Items {
		item, err := normalizeItem(idx, rawItem)
		if err != nil {
			return Order{}, err
		}
		items = append(items, item)
	}

	return Order{
		UID:      uid,
		Customer: customer,
		Items:    items,
		total:    SumItems(items),
	}, nil
}

func normalizeCustomer(raw *Customer) (Customer, error) {
	if raw == nil {
		return Customer{}, invalid("customer", ReasonRequired)
	}

	customer := Customer{
		Name:       strings.TrimSpace(raw.Name),
		Surname:    strings.TrimSpace(raw.Surname),
		Email:      strings.ToLower(strings.TrimSpace(raw.Email)),
		Phone:      strings.TrimSpace(raw.Phone),
		Address:    strings.TrimSpace(raw.Address),
		PostalCode: strings.TrimSpace(raw.PostalCode),
	}
	if customer.Email == "" {
		return Customer{}, invalid("customer.email", ReasonRequired)
	}
	addr, err := mail.ParseAddress(customer.Email)
	if err != nil || addr.Address != customer.Email {
		return Customer{}, invalid("customer.email", ReasonInvalidEmail)
	}

	return customer, nil
}

func normalizeItem(idx int, raw RawCartItem) (CartItem, error) {
	field := func(name string) string {
		return fmt.Sprintf("items[%d].%s", idx, name)
	}

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return CartItem{}, invalid(field("name"), ReasonRequired)
	}

	if raw.Price == nil {
		return CartItem{}, invalid(field("price"), ReasonRequired)
	}
	if raw.Price.IsNegative() {
		return CartItem{}, invalid(field("price"), ReasonNegative)
	}
	price := raw.Price.Round(2)
	if price.GreaterThan(maxPrice) {
		return CartItem{}, invalid(field("price"), ReasonPriceTooLarge)
	}

	if raw.Quantity == nil {
		return CartItem{}, invalid(field("quantity"), ReasonRequired)
	}
	if !raw.Quantity.IsInteger() {
		return CartItem{}, invalid(field("quantity"), ReasonNotInteger)
	}
	if raw.Quantity.LessThan(decimal.NewFromInt(1)) {
		return CartItem{}, invalid(field("quantity"), ReasonTooSmall)
	}
	if raw.Quantity.GreaterThan(decimal.NewFromInt(maxQuantity)) {
		return CartItem{}, invalid(field("quantity"), ReasonTooLarge)
	}

	return CartItem{
		Name:         name,
		Price:        price,
		Quantity:     raw.Quantity.IntPart(),
		Size:         strings.TrimSpace(string(raw.Size)),
		PlayerName:   strings.TrimSpace(string(raw.PlayerName)),
		PlayerNumber: strings.TrimSpace(string(raw.PlayerNumber)),
		Image:        strings.TrimSpace(raw.Image),
		Description:  strings.TrimSpace(raw.Description),
	}, nil
}
