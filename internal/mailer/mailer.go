package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"
)

const (
	FromName = "ReviewHub"

	ReviewDigestTemplate = "review_digest.tmpl"
)

//go:embed "templates"
var FS embed.FS

// Client sends a transactional email rendered from an embedded template.
// Templates define "subject" and "body" blocks.
type Client interface {
	Send(ctx context.Context, to, templateFile string, data any) error
}

// DigestReview is one new review line in the digest email.
type DigestReview struct {
	ReviewerName string
	Rating       int
	Comment      string
}

// DigestLocation groups a location's new reviews in the digest email.
type DigestLocation struct {
	Title   string
	Reviews []DigestReview
}

// DigestData is the payload for the review digest template.
type DigestData struct {
	UserName     string
	TotalNew     int
	Locations    []DigestLocation
	DashboardURL string
}

type smtpClient struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPClient creates a mail client that delivers over SMTP.
func NewSMTPClient(host string, port int, username, password, from string) Client {
	return &smtpClient{host: host, port: port, username: username, password: password, from: from}
}

// Render parses the named template and executes its subject and body
// blocks. It is exported so tests and previews can render without sending.
func Render(templateFile string, data any) (subject, body string, err error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return "", "", fmt.Errorf("parse template %s: %w", templateFile, err)
	}

	var subj bytes.Buffer
	if err := tmpl.ExecuteTemplate(&subj, "subject", data); err != nil {
		return "", "", fmt.Errorf("render subject of %s: %w", templateFile, err)
	}
	var out bytes.Buffer
	if err := tmpl.ExecuteTemplate(&out, "body", data); err != nil {
		return "", "", fmt.Errorf("render body of %s: %w", templateFile, err)
	}
	return subj.String(), out.String(), nil
}

func (c *smtpClient) Send(ctx context.Context, to, templateFile string, data any) error {
	subject, body, err := Render(templateFile, data)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(FromName, c.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	client, err := mail.NewClient(c.host,
		mail.WithPort(c.port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(c.username),
		mail.WithPassword(c.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
