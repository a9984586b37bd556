package digest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
)

// Mailer sends the digest over SMTP with STARTTLS when the server
// offers it.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string

	// send is smtp.SendMail unless a test replaces it.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(host string, port int, username, password, from string, to []string) *Mailer {
	if from == "" {
		from = username
	}
	return &Mailer{
		Host: host, Port: port,
		Username: username, Password: password,
		From: from, To: to,
		send: smtp.SendMail,
	}
}

// Compose builds a multipart/alternative message with a text and an
// HTML part.
func Compose(from string, to []string, subject, text, html string, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetSubject(subject)
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	rcpts := make([]*mail.Address, 0, len(to))
	for _, a := range to {
		rcpts = append(rcpts, &mail.Address{Address: a})
	}
	h.SetAddressList("To", rcpts)

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	alt, err := mw.CreateInline()
	if err != nil {
		return nil, err
	}
	for _, p := range []struct{ ct, body string }{{"text/plain", text}, {"text/html", html}} {
		var ph mail.InlineHeader
		ph.SetContentType(p.ct, map[string]string{"charset": "utf-8"})
		ph.Set("Content-Transfer-Encoding", "quoted-printable")
		w, err := alt.CreatePart(ph)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, p.body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	}
	if err := alt.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Send mails d. It fails without contacting the server when the mailer
// is not fully configured.
func (m *Mailer) Send(d Digest, now time.Time) error {
	if m.Host == "" || m.Port == 0 || m.From == "" || len(m.To) == 0 {
		return errors.New("email not configured: smtp host, port, from and to are required")
	}
	html, err := d.HTML()
	if err != nil {
		return err
	}
	msg, err := Compose(m.From, m.To, d.Subject(), d.Text(), html, now)
	if err != nil {
		return fmt.Errorf("compose digest: %w", err)
	}

	var auth smtp.Auth
	if m.Username != "" && m.Password != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	send := m.send
	if send == nil {
		send = smtp.SendMail
	}
	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	if err := send(addr, auth, m.From, m.To, msg); err != nil {
		return fmt.Errorf("send digest via %s: %w", addr, err)
	}
	return nil
}
