package checkoutapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/MarcGrol/ordermailer/lib/myerrors"
)

const (
	MetadataVersion = 1

	KeyVersion  = "order_version"
	KeyUID      = "order_uid"
	KeyParts    = "order_parts"
	KeyDelivery = "order_delivery"
	keyPart     = "order_%d"

	DeliveryDirect = "direct"

	legacyCustomerKey = "customer_data"
	legacyItemsKey    = "items_data"

	// Stripe allows 50 metadata keys with values of at most 500 characters.
	maxValueLength = 500
	maxParts       = 50 - 4
)

var (
	ErrPayloadTooLarge = errors.New("order does not fit in session metadata")
	ErrInvalidMetadata = errors.New("invalid order metadata")
)

type metadataEnvelope struct {
	Version  int        `json:"v"`
	Customer Customer   `json:"c"`
	Items    []CartItem `json:"i"`
}

type rawMetadataEnvelope struct {
	Version  int           `json:"v"`
	Customer *Customer     `json:"c"`
	Items    []RawCartItem `json:"i"`
}

// EncodeMetadata serializes the order into session metadata.
func EncodeMetadata(order Order) (map[string]string, error) {
	jsonBlob, err := json.Marshal(metadataEnvelope{
		Version:  MetadataVersion,
		Customer: order.Customer,
		Items:    order.Items,
	})
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error marshalling order %s: %s", order.UID, err))
	}

	parts := splitUTF8(string(jsonBlob), maxValueLength)
	if len(parts) > maxParts {
		return nil, myerrors.NewPayloadTooLargeError(fmt.Errorf("%w: order %s needs %d metadata values, at most %d allowed",
			ErrPayloadTooLarge, order.UID, len(parts), maxParts))
	}

	metadata := map[string]string{
		KeyVersion: strconv.Itoa(MetadataVersion),
		KeyUID:     order.UID,
		KeyParts:   strconv.Itoa(len(parts)),
	}
	for idx, part := range parts {
		metadata[fmt.Sprintf(keyPart, idx)] = part
	}
	return metadata, nil
}

// DirectDeliveryMetadata marks a session whose confirmation is sent by the storefront itself.
func DirectDeliveryMetadata(orderUID string) map[string]string {
	return map[string]string{
		KeyVersion:  strconv.Itoa(MetadataVersion),
		KeyUID:      orderUID,
		KeyDelivery: DeliveryDirect,
	}
}

func IsDirectDelivery(metadata map[string]string) bool {
	return metadata[KeyDelivery] == DeliveryDirect
}

// DecodeMetadata reconstructs and re-validates the order carried by a session.
func DecodeMetadata(metadata map[string]string) (Order, error) {
	version, found := metadata[KeyVersion]
	if !found {
		if _, legacy := metadata[legacyCustomerKey]; legacy {
			return decodeLegacyMetadata(metadata)
		}
		return Order{}, invalidMetadata("no order found")
	}
	if version != strconv.Itoa(MetadataVersion) {
		return Order{}, invalidMetadata("unsupported version %q", version)
	}
	if IsDirectDelivery(metadata) {
		return Order{}, invalidMetadata("order %s is delivered directly", metadata[KeyUID])
	}

	partCount, err := strconv.Atoi(metadata[KeyParts])
	if err != nil || partCount < 1 || partCount > maxParts {
		return Order{}, invalidMetadata("invalid part count %q", metadata[KeyParts])
	}

	sb := strings.Builder{}
	for idx := 0; idx < partCount; idx++ {
		part, found := metadata[fmt.Sprintf(keyPart, idx)]
		if !found {
			return Order{}, invalidMetadata("part %d of %d missing", idx, partCount)
		}
		sb.WriteString(part)
	}

	envelope := rawMetadataEnvelope{}
	err = json.Unmarshal([]byte(sb.String()), &envelope)
	if err != nil {
		return Order{}, invalidMetadata("error parsing order: %s", err)
	}
	if envelope.Version != MetadataVersion {
		return Order{}, invalidMetadata("envelope version %d does not match %s", envelope.Version, version)
	}

	return Normalize(RawOrder{Customer: envelope.Customer, Items: envelope.Items}, metadata[KeyUID])
}

func decodeLegacyMetadata(metadata map[string]string) (Order, error) {
	var customer *Customer
	err := json.Unmarshal([]byte(metadata[legacyCustomerKey]), &customer)
	if err != nil {
		return Order{}, invalidMetadata("error parsing legacy customer: %s", err)
	}

	items := []RawCartItem{}
	err = json.Unmarshal([]byte(metadata[legacyItemsKey]), &items)
	if err != nil {
		return Order{}, invalidMetadata("error parsing legacy items: %s", err)
	}

	return Normalize(RawOrder{Customer: customer, Items: items}, metadata[KeyUID])
}

func invalidMetadata(format string, args ...interface{}) error {
	return myerrors.NewInvalidInputError(fmt.Errorf("%w: %s", ErrInvalidMetadata, fmt.Sprintf(format, args...)))
}

// splitUTF8 cuts s into chunks of at most max bytes without splitting a rune.
func splitUTF8(s string, max int) []string {
	parts := []string{}
	for len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		parts = append(parts, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
