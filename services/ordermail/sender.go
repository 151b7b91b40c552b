package ordermail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/jordan-wright/email"

	"github.com/MarcGrol/ordermailer/lib/myerrors"
	"github.com/MarcGrol/ordermailer/lib/myuuid"
)

//go:generate mockgen -source=sender.go -package ordermail -destination sender_mock.go Sender
type Sender interface {
	Send(c context.Context, msg Message) (string, error)
}

type SMTPSettings struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       []string
}

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

type smtpSender struct {
	settings SMTPSettings
	auth     smtp.Auth
	uuider   myuuid.UUIDer
	send     sendFunc
}

// NewSMTPSender sends every message from and to the fixed shop addresses
func NewSMTPSender(settings SMTPSettings, uuider myuuid.UUIDer) *smtpSender {
	return newSMTPSender(settings, uuider, func(e *email.Email, addr string, auth smtp.Auth) error {
		return e.Send(addr, auth)
	})
}

func newSMTPSender(settings SMTPSettings, uuider myuuid.UUIDer, send sendFunc) *smtpSender {
	return &smtpSender{
		settings: settings,
		auth:     smtp.PlainAuth("", settings.User, settings.Password, settings.Host),
		uuider:   uuider,
		send:     send,
	}
}

func (s *smtpSender) Send(c context.Context, msg Message) (string, error) {
	err := c.Err()
	if err != nil {
		return "", myerrors.NewUnavailableError(fmt.Errorf("not sending %q: %s", msg.Subject, err))
	}

	messageID := fmt.Sprintf("<%s@%s>", s.uuider.Create(), domainOf(s.settings.From))

	e := email.NewEmail()
	e.From = s.settings.From
	e.To = s.settings.To
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	e.HTML = []byte(msg.HTML)
	e.Headers.Set("Message-Id", messageID)

	addr := net.JoinHostPort(s.settings.Host, strconv.Itoa(s.settings.Port))
	err = s.send(e, addr, s.auth)
	if err != nil {
		return "", myerrors.NewUpstreamError(fmt.Errorf("error sending mail via %s: %s", addr, err))
	}

	return messageID, nil
}

func domainOf(address string) string {
	idx := strings.LastIndex(address, "@")
	if idx < 0 || idx == len(address)-1 {
		return "localhost"
	}
	return strings.TrimSuffix(address[idx+1:], ">")
}
