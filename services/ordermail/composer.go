package ordermail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MarcGrol/ordermailer/services/checkoutapi"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const dateLayout = "2006-01-02 15:04:05 MST"

type Message struct {
	Subject string
	HTML    string
	Text    string
}

// Composer renders order confirmations. It does no I/O and only depends on its input.
type Composer struct {
	shopName string
	currency string
	html     *htmltemplate.Template
	text     *texttemplate.Template
}

func NewComposer(shopName string, currency string) (*Composer, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/order.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("error parsing html template: %s", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/order.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("error parsing text template: %s", err)
	}
	return &Composer{
		shopName: shopName,
		currency: strings.ToUpper(currency),
		html:     html,
		text:     text,
	}, nil
}

type emailView struct {
	ShopName  string
	Customer  checkoutapi.Customer
	Items     []itemView
	Total     string
	OrderUID  string
	SessionID string
	Date      string
}

type itemView struct {
	Image        string
	Name         string
	Size         string
	PlayerName   string
	PlayerNumber string
	Quantity     int64
	Price        string
}

func (c *Composer) Compose(order checkoutapi.Order, sessionID string, at time.Time) (Message, error) {
	view := emailView{
		ShopName:  c.shopName,
		Customer:  order.Customer,
		Items:     make([]itemView, 0, len(order.Items)),
		Total:     c.formatPrice(checkoutapi.SumItems(order.Items)),
		OrderUID:  order.UID,
		SessionID: sessionID,
		Date:      at.Format(dateLayout),
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, itemView{
			Image:        item.Image,
			Name:         item.Name,
			Size:         item.Size,
			PlayerName:   item.PlayerName,
			PlayerNumber: item.PlayerNumber,
			Quantity:     item.Quantity,
			Price:        c.formatPrice(item.Price),
		})
	}

	html := bytes.Buffer{}
	err := c.html.Execute(&html, view)
	if err != nil {
		return Message{}, fmt.Errorf("error rendering html for order %s: %s", order.UID, err)
	}
	text := bytes.Buffer{}
	err = c.text.Execute(&text, view)
	if err != nil {
		return Message{}, fmt.Errorf("error rendering text for order %s: %s", order.UID, err)
	}

	return Message{
		Subject: c.subject(order.Customer),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func (c *Composer) subject(customer checkoutapi.Customer) string {
	name := customer.FullName()
	if name == "" {
		name = "Customer"
	}
	return fmt.Sprintf("New order %s - %s", c.shopName, name)
}

func (c *Composer) formatPrice(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " " + c.currency
}
