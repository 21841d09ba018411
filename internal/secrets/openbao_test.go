package secrets

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBao(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/kv/data/pizza/prod", r.URL.Path)
		assert.Equal(t, "root", r.Header.Get("X-Vault-Token"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFromEnv(t *testing.T) {
	t.Setenv("OPENBAO_ADDR", "")
	_, ok := FromEnv()
	assert.False(t, ok)

	t.Setenv("OPENBAO_ADDR", "http://bao:8200/")
	t.Setenv("OPENBAO_TOKEN", "root")
	t.Setenv("OPENBAO_SECRET_PATH", "/pizza/prod/")
	t.Setenv("OPENBAO_MOUNT", "")
	bao, ok := FromEnv()
	require.True(t, ok)
	assert.Equal(t, "http://bao:8200", bao.Addr)
	assert.Equal(t, "secret", bao.Mount)
	assert.Equal(t, "pizza/prod", bao.Path)
}

func TestRead(t *testing.T) {
	srv := fakeBao(t, http.StatusOK, `{"data":{"data":{"STRIPE_SECRET_KEY":"sk_test","MAILGUN_PORT":587,"DEBUG":true,"NESTED":{"a":1}}}}`)
	bao := OpenBao{Addr: srv.URL, Token: "root", Mount: "kv", Path: "pizza/prod"}

	values, err := bao.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"STRIPE_SECRET_KEY": "sk_test", "MAILGUN_PORT": "587", "DEBUG": "true"}, values)
}

func TestReadNotFound(t *testing.T) {
	srv := fakeBao(t, http.StatusNotFound, `{}`)
	_, err := OpenBao{Addr: srv.URL, Token: "root", Mount: "kv", Path: "pizza/prod"}.Read(context.Background())
	assert.ErrorIs(t, err, ErrOpenBaoSecretNotFound)
}

func TestBootstrapKeepsExistingEnv(t *testing.T) {
	srv := fakeBao(t, http.StatusOK, `{"data":{"data":{"PIZZA_TEST_STRIPE":"from-bao","PIZZA_TEST_MAILGUN":"from-bao"}}}`)
	t.Setenv("OPENBAO_ADDR", srv.URL)
	t.Setenv("OPENBAO_TOKEN", "root")
	t.Setenv("OPENBAO_SECRET_PATH", "pizza/prod")
	t.Setenv("OPENBAO_MOUNT", "kv")
	t.Setenv("PIZZA_TEST_STRIPE", "explicit")
	t.Setenv("PIZZA_TEST_MAILGUN", "")
	os.Unsetenv("PIZZA_TEST_MAILGUN")

	var buf bytes.Buffer
	require.NoError(t, Bootstrap(context.Background(), log.New(&buf, "", 0)))
	assert.Equal(t, "explicit", os.Getenv("PIZZA_TEST_STRIPE"))
	assert.Equal(t, "from-bao", os.Getenv("PIZZA_TEST_MAILGUN"))
	assert.Contains(t, buf.String(), "exported 1 of 2 keys")
}

func TestBootstrapNoop(t *testing.T) {
	t.Setenv("OPENBAO_ADDR", "")
	assert.NoError(t, Bootstrap(context.Background(), log.New(&bytes.Buffer{}, "", 0)))
}
