package email

import (
	"bytes"
	"fmt"
	"text/template"
)

const WelcomeSubject = "Welcome to Pizza Delivery"

var welcomeTpl = template.Must(template.New("welcome").Parse(
	`Hi {{.FirstName}},

Your account is ready. Sign in, pick your pizzas from the menu and we will bring them to {{.StreetAddress}}.
`))

// RenderWelcome builds the plain-text body sent after sign up.
func RenderWelcome(firstName, streetAddress string) (string, error) {
	if firstName == "" {
		firstName = "there"
	}
	var buf bytes.Buffer
	if err := welcomeTpl.Execute(&buf, map[string]string{
		"FirstName":     firstName,
		"StreetAddress": streetAddress,
	}); err != nil {
		return "", fmt.Errorf("render welcome email: %w", err)
	}
	return buf.String(), nil
}
