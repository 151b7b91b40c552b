package checkoutapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Customer struct {
	Name       string `json:"name,omitempty" form:"name"`
	Surname    string `json:"surname,omitempty" form:"surname"`
	Email      string `json:"email" form:"email"`
	Phone      string `json:"phone,omitempty" form:"phone"`
	Address    string `json:"address,omitempty" form:"address"`
	PostalCode string `json:"postalCode,omitempty" form:"postalCode"`
}

func (c Customer) FullName() string {
	return strings.TrimSpace(c.Name + " " + c.Surname)
}

// UnmarshalJSON also accepts the field names the storefront used to send.
func (c *Customer) UnmarshalJSON(data []byte) error {
	type plain Customer
	var withLegacy struct {
		plain
		Nom        string `json:"nom"`
		Prenom     string `json:"prenom"`
		Telephone  string `json:"telephone"`
		Adresse    string `json:"adresse"`
		CodePostal string `json:"codepostal"`
	}
	err := json.Unmarshal(data, &withLegacy)
	if err != nil {
		return err
	}

	*c = Customer(withLegacy.plain)
	c.Name = firstNonEmpty(c.Name, withLegacy.Prenom)
	c.Surname = firstNonEmpty(c.Surname, withLegacy.Nom)
	c.Phone = firstNonEmpty(c.Phone, withLegacy.Telephone)
	c.Address = firstNonEmpty(c.Address, withLegacy.Adresse)
	c.PostalCode = firstNonEmpty(c.PostalCode, withLegacy.CodePostal)

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type CartItem struct {
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int64           `json:"quantity"`
	Size         string          `json:"size,omitempty"`
	PlayerName   string          `json:"playerName,omitempty"`
	PlayerNumber string          `json:"playerNumber,omitempty"`
	Image        string          `json:"image,omitempty"`
	Description  string          `json:"description,omitempty"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// Order is the canonical, validated order. Only Normalize creates one.
type Order struct {
	UID      string
	Customer Customer
	Items    []CartItem
	total    decimal.Decimal
}

// Total is computed from the items when the order is normalized; client totals are never used.
func (o Order) Total() decimal.Decimal {
	return o.total
}

func SumItems(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// RawOrder is the order as received from a client, before validation.
type RawOrder struct {
	Customer *Customer       `json:"customer" form:"customer"`
	Items    []RawCartItem   `json:"items" form:"items"`
	Total    json.RawMessage `json:"total,omitempty" form:"-"`
}

type RawCartItem struct {
	Name         string           `json:"name" form:"name"`
	Price        *decimal.Decimal `json:"price" form:"price"`
	Quantity     *decimal.Decimal `json:"quantity" form:"quantity"`
	Size         FlexString       `json:"size,omitempty" form:"size"`
	PlayerName   FlexString       `json:"playerName,omitempty" form:"playerName"`
	PlayerNumber FlexString       `json:"playerNumber,omitempty" form:"playerNumber"`
	Image        string           `json:"image,omitempty" form:"image"`
	Description  string           `json:"description,omitempty" form:"description"`
}

// FlexString accepts both a JSON string and a JSON number, storefronts send jersey numbers as either.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		err := json.Unmarshal(data, &str)
		if err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	err := json.Unmarshal(data, &num)
	if err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*s = FlexString(num.String())
	return nil
}
