package checkoutapi

import (
	"fmt"
	"net/url"

	"github.com/go-playground/form/v4"
	"github.com/shopspring/decimal"

	"github.com/MarcGrol/ordermailer/lib/myerrors"
)

var formDecoder = newFormDecoder()

func newFormDecoder() *form.Decoder {
	decoder := form.NewDecoder()
	decoder.RegisterCustomTypeFunc(func(values []string) (interface{}, error) {
		return decimal.NewFromString(values[0])
	}, decimal.Decimal{})
	return decoder
}

// DecodeForm reads customer.* and items[i].* fields of a form-encoded checkout request.
func DecodeForm(values url.Values) (RawOrder, error) {
	raw := RawOrder{}
	err := formDecoder.Decode(&raw, values)
	if err != nil {
		return RawOrder{}, myerrors.NewInvalidInputError(fmt.Errorf("error parsing form: %s", err))
	}
	return raw, nil
}
