package email

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MailgunSender posts messages to {base}{path}{domain}/messages.
type MailgunSender struct {
	endpoint string
	domain   string
	apiKey   string
	http     *http.Client
}

func NewMailgunSender(baseURL, path, domain, apiKey string) *MailgunSender {
	if path == "" {
		path = "/v3/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return &MailgunSender{
		endpoint: strings.TrimRight(baseURL, "/") + path + domain + "/messages",
		domain:   domain,
		apiKey:   apiKey,
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (s *MailgunSender) Send(ctx context.Context, to, subject, text string) error {
	m, err := NewMessage(to, subject, text)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("from", fmt.Sprintf("Pizza Delivery <mailgun@%s>", s.domain))
	form.Set("to", m.To)
	form.Set("subject", m.Subject)
	form.Set("text", m.Text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("call mail provider: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("Status code returned was %d", resp.StatusCode)
	}
	return nil
}
