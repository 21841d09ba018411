package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWelcome(t *testing.T) {
	body, err := RenderWelcome("Ann", "1 Main St")
	require.NoError(t, err)
	assert.Contains(t, body, "Hi Ann,")
	assert.Contains(t, body, "bring them to 1 Main St.")

	_, err = NewMessage("ann@x.com", WelcomeSubject, body)
	assert.NoError(t, err)
}

func TestRenderWelcomeWithoutName(t *testing.T) {
	body, err := RenderWelcome("", "")
	require.NoError(t, err)
	assert.Contains(t, body, "Hi there,")
}
