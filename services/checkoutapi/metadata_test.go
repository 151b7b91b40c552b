package checkoutapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcGrol/ordermailer/lib/myerrors"
)

func exampleOrder(t *testing.T) Order {
	raw := RawOrder{
		Customer: &Customer{Name: "Marc", Surname: "Grol", Email: "a@b.com", Phone: "0612345678", Address: "Main street 1", PostalCode: "1234AB"},
		Items: []RawCartItem{
			{Name: "Jersey", Price: dec("49.99"), Quantity: dec("2"), Size: "L", PlayerName: "Messi", PlayerNumber: "10", Image: "https://shop.example.com/jersey.png"},
			{Name: "Scarf", Price: dec("12.50"), Quantity: dec("1"), Description: "Wool"},
		},
	}
	order, err := Normalize(raw, "order-1")
	require.NoError(t, err)
	return order
}

func TestMetadataRoundTrip(t *testing.T) {
	// given
	order := exampleOrder(t)

	// when
	metadata, err := EncodeMetadata(order)
	require.NoError(t, err)
	decoded, err := DecodeMetadata(metadata)

	// then
	require.NoError(t, err)
	assert.Equal(t, "1", metadata[KeyVersion])
	assert.Equal(t, "order-1", metadata[KeyUID])
	assert.Equal(t, "1", metadata[KeyParts])
	assert.Equal(t, order.UID, decoded.UID)
	assert.Equal(t, order.Customer, decoded.Customer)
	require.Len(t, decoded.Items, len(order.Items))
	for idx := range order.Items {
		assert.Equal(t, order.Items[idx].Name, decoded.Items[idx].Name)
		assert.Equal(t, order.Items[idx].Price.StringFixed(2), decoded.Items[idx].Price.StringFixed(2))
		assert.Equal(t, order.Items[idx].Quantity, decoded.Items[idx].Quantity)
		assert.Equal(t, order.Items[idx].PlayerNumber, decoded.Items[idx].PlayerNumber)
	}
	assert.Equal(t, "112.48", decoded.Total().StringFixed(2))
}

func TestMetadataSplitsLargeOrders(t *testing.T) {
	// given
	raw := RawOrder{Customer: &Customer{Email: "a@b.com"}}
	for idx := 0; idx < 40; idx++ {
		raw.Items = append(raw.Items, RawCartItem{
			Name:     fmt.Sprintf("Maillot édition spéciale n°%d", idx),
			Price:    dec("19.95"),
			Quantity: dec("1"),
		})
	}
	order, err := Normalize(raw, "order-2")
	require.NoError(t, err)

	// when
	metadata, err := EncodeMetadata(order)
	require.NoError(t, err)

	// then
	assert.NotEqual(t, "1", metadata[KeyParts])
	assert.LessOrEqual(t, len(metadata), 50)
	for key, value := range metadata {
		assert.LessOrEqual(t, len(value), 500, key)
		assert.True(t, utf8.ValidString(value), key)
	}

	decoded, err := DecodeMetadata(metadata)
	require.NoError(t, err)
	assert.Equal(t, order.Items, decoded.Items)
	assert.True(t, order.Total().Equal(decoded.Total()))
}

func TestMetadataTooLarge(t *testing.T) {
	// given
	raw := RawOrder{Customer: &Customer{Email: "a@b.com"}}
	for idx := 0; idx < 200; idx++ {
		raw.Items = append(raw.Items, RawCartItem{
			Name:        fmt.Sprintf("Jersey %d", idx),
			Description: strings.Repeat("x", 100),
			Price:       dec("49.99"),
			Quantity:    dec("1"),
		})
	}
	order, err := Normalize(raw, "order-3")
	require.NoError(t, err)

	// when
	_, err = EncodeMetadata(order)

	// then
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPayloadTooLarge))
	assert.Equal(t, http.StatusRequestEntityTooLarge, myerrors.GetHTTPStatus(err))
}

func TestDecodeMetadataRejects(t *testing.T) {
	valid, err := EncodeMetadata(exampleOrder(t))
	require.NoError(t, err)

	testCases := []struct {
		name   string
		modify func(md map[string]string)
	}{
		{
			name:   "no order at all",
			modify: func(md map[string]string) { clear(md) },
		},
		{
			name:   "unknown version",
			modify: func(md map[string]string) { md[KeyVersion] = "2" },
		},
		{
			name:   "bad part count",
			modify: func(md map[string]string) { md[KeyParts] = "abc" },
		},
		{
			name:   "missing part",
			modify: func(md map[string]string) { md[KeyParts] = "2" },
		},
		{
			name:   "corrupt json",
			modify: func(md map[string]string) { md["order_0"] = md["order_0"][:10] },
		},
		{
			name:   "direct delivery",
			modify: func(md map[string]string) { md[KeyDelivery] = DeliveryDirect },
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			md := map[string]string{}
			for k, v := range valid {
				md[k] = v
			}
			tc.modify(md)

			_, err := DecodeMetadata(md)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidMetadata))
			assert.Equal(t, http.StatusBadRequest, myerrors.GetHTTPStatus(err))
		})
	}
}

func TestDecodeMetadataRevalidates(t *testing.T) {
	md := map[string]string{
		KeyVersion: "1",
		KeyUID:     "order-4",
		KeyParts:   "1",
		"order_0":  `{"v":1,"c":{"email":"a@b.com"},"i":[{"name":"Jersey","price":"-1","quantity":1}]}`,
	}

	_, err := DecodeMetadata(md)

	fieldErr := FieldError{}
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "items[0].price", fieldErr.Field)
}

func TestDecodeLegacyMetadata(t *testing.T) {
	md := map[string]string{
		"customer_data": `{"nom":"Grol","prenom":"Marc","email":"a@b.com","telephone":"0612345678"}`,
		"items_data":    `[{"name":"Jersey","price":49.99,"quantity":2,"size":"M","playerNumber":10}]`,
	}

	order, err := DecodeMetadata(md)

	require.NoError(t, err)
	assert.Equal(t, "Marc", order.Customer.Name)
	assert.Equal(t, "Grol", order.Customer.Surname)
	assert.Equal(t, "10", order.Items[0].PlayerNumber)
	assert.Equal(t, "99.98", order.Total().StringFixed(2))
}

func TestDirectDeliveryMetadata(t *testing.T) {
	md := DirectDeliveryMetadata("order-5")

	assert.True(t, IsDirectDelivery(md))
	assert.Equal(t, "order-5", md[KeyUID])
	assert.False(t, IsDirectDelivery(map[string]string{}))
}

func TestSplitUTF8(t *testing.T) {
	parts := splitUTF8(strings.Repeat("é", 10), 3)

	assert.Equal(t, []string{"é", "é", "é", "é", "é", "é", "é", "é", "é", "é"}, parts)
	assert.Equal(t, []string{}, splitUTF8("", 3))
	assert.Equal(t, []string{"abc", "de"}, splitUTF8("abcde", 3))
}
