package checkoutapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcGrol/ordermailer/lib/myerrors"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validRawOrder() RawOrder {
	return RawOrder{
		Customer: &Customer{Name: "Marc", Surname: "Grol", Email: "a@b.com"},
		Items: []RawCartItem{
			{Name: "Jersey", Price: dec("49.99"), Quantity: dec("2")},
		},
	}
}

func TestNormalize(t *testing.T) {
	t.Run("jersey scenario", func(t *testing.T) {
		// given
		raw := RawOrder{}
		err := json.Unmarshal([]byte(`{
			"items":[{"name":"Jersey","price":49.99,"quantity":2}],
			"customer":{"email":"a@b.com"},
			"total": 1.00
		}`), &raw)
		require.NoError(t, err)

		// when
		order, err := Normalize(raw, "order-1")

		// then
		require.NoError(t, err)
		assert.Equal(t, "order-1", order.UID)
		assert.Equal(t, "a@b.com", order.Customer.Email)
		require.Len(t, order.Items, 1)
		assert.Equal(t, "49.99", order.Items[0].Price.StringFixed(2))
		assert.Equal(t, int64(2), order.Items[0].Quantity)
		assert.Equal(t, "99.98", order.Total().StringFixed(2))
	})

	t.Run("trims and lower-cases", func(t *testing.T) {
		// given
		raw := validRawOrder()
		raw.Customer.Email = "  Someone@Example.COM "
		raw.Items[0].Name = " Jersey  "
		raw.Items[0].PlayerNumber = " 10 "

		// when
		order, err := Normalize(raw, "order-1")

		// then
		require.NoError(t, err)
		assert.Equal(t, "someone@example.com", order.Customer.Email)
		assert.Equal(t, "Jersey", order.Items[0].Name)
		assert.Equal(t, "10", order.Items[0].PlayerNumber)
	})

	t.Run("quantizes prices to cents", func(t *testing.T) {
		// given
		raw := validRawOrder()
		raw.Items[0].Price = dec("0.30000000000000004")
		raw.Items[0].Quantity = dec("3")

		// when
		order, err := Normalize(raw, "order-1")

		// then
		require.NoError(t, err)
		assert.Equal(t, "0.30", order.Items[0].Price.StringFixed(2))
		assert.Equal(t, "0.90", order.Total().StringFixed(2))
	})

	t.Run("free item is allowed", func(t *testing.T) {
		raw := validRawOrder()
		raw.Items[0].Price = dec("0")

		order, err := Normalize(raw, "order-1")

		require.NoError(t, err)
		assert.True(t, order.Total().IsZero())
	})
}

func TestNormalizeRejects(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(raw *RawOrder)
		field  string
		reason string
	}{
		{
			name:   "missing customer",
			modify: func(raw *RawOrder) { raw.Customer = nil },
			field:  "customer",
			reason: ReasonRequired,
		},
		{
			name:   "empty email",
			modify: func(raw *RawOrder) { raw.Customer.Email = "  " },
			field:  "customer.email",
			reason: ReasonRequired,
		},
		{
			name:   "malformed email",
			modify: func(raw *RawOrder) { raw.Customer.Email = "not-an-email" },
			field:  "customer.email",
			reason: ReasonInvalidEmail,
		},
		{
			name:   "no items",
			modify: func(raw *RawOrder) { raw.Items = nil },
			field:  "items",
			reason: ReasonEmpty,
		},
		{
			name:   "item without name",
			modify: func(raw *RawOrder) { raw.Items[0].Name = "" },
			field:  "items[0].name",
			reason: ReasonRequired,
		},
		{
			name:   "item without price",
			modify: func(raw *RawOrder) { raw.Items[0].Price = nil },
			field:  "items[0].price",
			reason: ReasonRequired,
		},
		{
			name:   "negative price",
			modify: func(raw *RawOrder) { raw.Items[0].Price = dec("-0.01") },
			field:  "items[0].price",
			reason: ReasonNegative,
		},
		{
			name:   "price above processor limit",
			modify: func(raw *RawOrder) { raw.Items[0].Price = dec("1000000") },
			field:  "items[0].price",
			reason: ReasonPriceTooLarge,
		},
		{
			name:   "price overflowing minor units",
			modify: func(raw *RawOrder) { raw.Items[0].Price = dec("184467440737095516.26") },
			field:  "items[0].price",
			reason: ReasonPriceTooLarge,
		},
		{
			name:   "price rounding above limit",
			modify: func(raw *RawOrder) { raw.Items[0].Price = dec("999999.995") },
			field:  "items[0].price",
			reason: ReasonPriceTooLarge,
		},
		{
			name:   "item without quantity",
			modify: func(raw *RawOrder) { raw.Items[0].Quantity = nil },
			field:  "items[0].quantity",
			reason: ReasonRequired,
		},
		{
			name:   "zero quantity",
			modify: func(raw *RawOrder) { raw.Items[0].Quantity = dec("0") },
			field:  "items[0].quantity",
			reason: ReasonTooSmall,
		},
		{
			name:   "negative quantity",
			modify: func(raw *RawOrder) { raw.Items[0].Quantity = dec("-1") },
			field:  "items[0].quantity",
			reason: ReasonTooSmall,
		},
		{
			name:   "fractional quantity",
			modify: func(raw *RawOrder) { raw.Items[0].Quantity = dec("1.5") },
			field:  "items[0].quantity",
			reason: ReasonNotInteger,
		},
		{
			name:   "huge quantity",
			modify: func(raw *RawOrder) { raw.Items[0].Quantity = dec("10000") },
			field:  "items[0].quantity",
			reason: ReasonTooLarge,
		},
		{
			name: "second item invalid",
			modify: func(raw *RawOrder) {
				raw.Items = append(raw.Items, RawCartItem{Name: "Scarf", Price: dec("-5"), Quantity: dec("1")})
			},
			field:  "items[1].price",
			reason: ReasonNegative,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			raw := validRawOrder()
			tc.modify(&raw)

			// when
			_, err := Normalize(raw, "order-1")

			// then
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, myerrors.GetHTTPStatus(err))
			fieldErr := FieldError{}
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, tc.field, fieldErr.Field)
			assert.Equal(t, tc.reason, fieldErr.Reason)
			assert.Equal(t, fmt.Sprintf("%s %s", tc.field, tc.reason), myerrors.GetMessage(err))
		})
	}
}

func TestNormalizeAcceptsMaxPrice(t *testing.T) {
	// given
	raw := validRawOrder()
	raw.Items[0].Price = dec("999999.994")
	raw.Items[0].Quantity = dec("9999")

	// when
	order, err := Normalize(raw, "order-1")

	// then
	require.NoError(t, err)
	assert.Equal(t, "999999.99", order.Items[0].Price.StringFixed(2))
	assert.Equal(t, "9998999900.01", order.Total().StringFixed(2))
}

func TestTotalIgnoresClientTotal(t *testing.T) {
	for _, clientTotal := range []string{`0`, `-5`, `"1000000"`, `null`} {
		t.Run(clientTotal, func(t *testing.T) {
			raw := RawOrder{}
			err := json.Unmarshal([]byte(fmt.Sprintf(`{
				"customer":{"email":"a@b.com"},
				"items":[
					{"name":"Jersey","price":"49.99","quantity":2},
					{"name":"Scarf","price":12.5,"quantity":3},
					{"name":"Sticker","price":0.1,"quantity":7}
				],
				"total":%s}`, clientTotal)), &raw)
			require.NoError(t, err)

			order, err := Normalize(raw, "order-1")

			require.NoError(t, err)
			assert.Equal(t, "138.18", order.Total().StringFixed(2))
			assert.True(t, order.Total().Equal(SumItems(order.Items)))
		})
	}
}
