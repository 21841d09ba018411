// Package secrets loads provider credentials from an OpenBao KV v2 path into
// the process environment before configuration is read.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrOpenBaoSecretNotFound = errors.New("openbao secret path not found")

// OpenBao addresses one KV v2 secret.
type OpenBao struct {
	Addr      string
	Token     string
	Mount     string
	Path      string
	Namespace string

	HTTP *http.Client
}

// FromEnv reads OPENBAO_ADDR, OPENBAO_TOKEN, OPENBAO_SECRET_PATH and the
// optional OPENBAO_MOUNT and OPENBAO_NAMESPACE. ok is false when any of the
// three required variables is unset.
func FromEnv() (OpenBao, bool) {
	addr := strings.TrimSpace(os.Getenv("OPENBAO_ADDR"))
	token := os.Getenv("OPENBAO_TOKEN")
	path := strings.Trim(strings.TrimSpace(os.Getenv("OPENBAO_SECRET_PATH")), "/")
	if addr == "" || token == "" || path == "" {
		return OpenBao{}, false
	}
	mount := strings.Trim(strings.TrimSpace(os.Getenv("OPENBAO_MOUNT")), "/")
	if mount == "" {
		mount = "secret"
	}
	return OpenBao{
		Addr:      strings.TrimRight(addr, "/"),
		Token:     token,
		Mount:     mount,
		Path:      path,
		Namespace: strings.TrimSpace(os.Getenv("OPENBAO_NAMESPACE")),
	}, true
}

// Bootstrap exports the secret's keys (e.g. STRIPE_SECRET_KEY,
// MAILGUN_API_KEY) as environment variables. Variables that are already set
// win. Without OpenBao configuration it does nothing.
func Bootstrap(ctx context.Context, logger *log.Logger) error {
	bao, ok := FromEnv()
	if !ok {
		return nil
	}
	values, err := bao.Read(ctx)
	if err != nil {
		return err
	}
	n := 0
	for k, v := range values {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("export %s: %w", k, err)
		}
		n++
	}
	logger.Printf("[Secrets] exported %d of %d keys from %s/%s", n, len(values), bao.Mount, bao.Path)
	return nil
}

// Read fetches the secret's data as strings. Values of other JSON types
// are skipped.
func (o OpenBao) Read(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/%s/data/%s", o.Addr, o.Mount, o.Path), nil)
	if err != nil {
		return nil, fmt.Errorf("create OpenBao request: %w", err)
	}
	req.Header.Set("X-Vault-Token", o.Token)
	if o.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", o.Namespace)
	}

	client := o.HTTP
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call OpenBao: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrOpenBaoSecretNotFound
	default:
		return nil, fmt.Errorf("openbao request failed: status=%d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			Data map[string]any `json:"data"`
		} `json:"data"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode OpenBao response: %w", err)
	}

	out := make(map[string]string, len(payload.Data.Data))
	for k, v := range payload.Data.Data {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case bool:
			out[k] = strconv.FormatBool(val)
		}
	}
	return out, nil
}
