package email_scrape

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// maxPart caps how much of one MIME part is read.
const maxPart = 8 << 20

// Message is a parsed alert mail. Text and HTML hold the largest part of
// each kind, decoded to UTF-8.
type Message struct {
	Subject  string
	From     string // address
	FromName string // display name
	Date     time.Time
	Text     string
	HTML     string
}

// ParseMessage decodes raw RFC822 bytes. Transfer encodings and
// charsets are undone by go-message; attachments are skipped.
func ParseMessage(raw []byte) (Message, error) {
	var m Message
	if len(raw) == 0 {
		return m, errors.New("empty message")
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return m, fmt.Errorf("read message: %w", err)
	}

	if s, err := mr.Header.Subject(); err == nil {
		m.Subject = strings.TrimSpace(s)
	} else {
		m.Subject = strings.TrimSpace(mr.Header.Get("Subject"))
	}
	if d, err := mr.Header.Date(); err == nil {
		m.Date = d
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		m.From = from[0].Address
		m.FromName = from[0].Name
	}

	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// keep what was decoded so far; a broken trailing part is common
			if m.Text == "" && m.HTML == "" {
				return m, fmt.Errorf("read part: %w", err)
			}
			break
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		b, err := io.ReadAll(io.LimitReader(p.Body, maxPart))
		if err != nil {
			continue
		}

		switch {
		case strings.EqualFold(ct, "text/html"):
			if len(b) > len(m.HTML) {
				m.HTML = string(b)
			}
		case ct == "" || strings.EqualFold(ct, "text/plain"):
			if len(b) > len(m.Text) {
				m.Text = string(b)
			}
		}
	}
	return m, nil
}
