package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a single outgoing HTML email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Mailer dispatches a message. Each call sends the message at most once and
// returns when the transport has accepted or rejected it.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

const verificationSubject = "Twitter Clone email confirmation"

var verificationTemplate = template.Must(template.New("verify").Parse(
	`<p>To confirm your email address, follow <a href="{{.Link}}">this link</a>.</p>`,
))

// VerificationMessage renders the email that carries the confirmation link.
func VerificationMessage(from, to, publicURL, hash string) (Message, error) {
	link := strings.TrimRight(publicURL, "/") + "/auth/verify?hash=" + url.QueryEscape(hash)

	var body bytes.Buffer
	if err := verificationTemplate.Execute(&body, struct{ Link string }{Link: link}); err != nil {
		return Message{}, fmt.Errorf("render verification email: %w", err)
	}

	return Message{
		From:    from,
		To:      to,
		Subject: verificationSubject,
		HTML:    body.String(),
	}, nil
}

// Bytes renders msg as an RFC 5322 message with an HTML body.
func (m Message) Bytes(now time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), domainOf(m.From))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.HTML)
	b.WriteString("\r\n")
	return b.Bytes()
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return strings.Trim(addr[i+1:], "> ")
	}
	return "localhost"
}
