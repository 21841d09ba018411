package bdd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

func (w *PizzaWorld) registerAccountSteps(sc *godog.ScenarioContext) {
	sc.Step(`^"([^"]+)" signs up with password "([^"]+)"$`, w.signUp)
	sc.Step(`^"([^"]+)" logs in with password "([^"]+)"$`, w.logIn)
	sc.Step(`^I send (GET|POST|PUT|DELETE) "([^"]*)"$`, w.send)
	sc.Step(`^I send (GET|POST|PUT|DELETE) "([^"]*)" with:$`, w.sendWith)
	sc.Step(`^the response status is (\d+)$`, w.assertStatus)
	sc.Step(`^the response error is "([^"]*)"$`, w.assertError)
	sc.Step(`^the response field "([^"]+)" is "([^"]*)"$`, w.assertField)
	sc.Step(`^the response has no field "([^"]+)"$`, w.assertNoField)
	sc.Step(`^the response content type is "([^"]+)"$`, w.assertContentType)
	sc.Step(`^the response body contains "([^"]+)"$`, w.assertBodyContains)
}

func (w *PizzaWorld) signUp(address, password string) error {
	first, _, _ := strings.Cut(address, "@")
	payload, err := json.Marshal(map[string]string{
		"firstName":     strings.ToUpper(first[:1]) + first[1:],
		"lastName":      "Tester",
		"email":         address,
		"password":      password,
		"streetAddress": "1 Main St",
	})
	if err != nil {
		return err
	}
	if err := w.do(http.MethodPost, "api/users", string(payload)); err != nil {
		return err
	}
	return w.assertStatus(http.StatusOK)
}

func (w *PizzaWorld) logIn(address, password string) error {
	payload := fmt.Sprintf(`{"email":%q,"password":%q}`, address, password)
	if err := w.do(http.MethodPost, "api/tokens", payload); err != nil {
		return err
	}
	if w.status != http.StatusOK {
		return fmt.Errorf("login failed with %d: %s", w.status, w.body)
	}
	body, err := w.responseJSON()
	if err != nil {
		return err
	}
	id, _ := body["id"].(string)
	if id == "" {
		return fmt.Errorf("login returned no token id: %s", w.body)
	}
	w.token = id
	return nil
}

func (w *PizzaWorld) send(method, path string) error {
	return w.do(method, w.expand(path), "")
}

func (w *PizzaWorld) sendWith(method, path string, doc *godog.DocString) error {
	return w.do(method, w.expand(path), w.expand(doc.Content))
}

// expand substitutes the current session token for {token}.
func (w *PizzaWorld) expand(s string) string {
	return strings.ReplaceAll(s, "{token}", w.token)
}

func (w *PizzaWorld) assertStatus(status int) error {
	if w.status != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, w.status, w.body)
	}
	return nil
}

func (w *PizzaWorld) assertError(msg string) error {
	body, err := w.responseJSON()
	if err != nil {
		return err
	}
	if got, _ := body["Error"].(string); got != msg {
		return fmt.Errorf("expected error %q, got %q", msg, got)
	}
	return nil
}

func (w *PizzaWorld) assertField(field, want string) error {
	body, err := w.responseJSON()
	if err != nil {
		return err
	}
	got, ok := body[field]
	if !ok {
		return fmt.Errorf("response has no field %q: %s", field, w.body)
	}
	if fmt.Sprint(got) != want {
		return fmt.Errorf("expected %s=%q, got %v", field, want, got)
	}
	return nil
}

func (w *PizzaWorld) assertNoField(field string) error {
	body, err := w.responseJSON()
	if err != nil {
		return err
	}
	if _, ok := body[field]; ok {
		return fmt.Errorf("response unexpectedly has field %q", field)
	}
	return nil
}

func (w *PizzaWorld) assertContentType(want string) error {
	if !strings.HasPrefix(w.contentType, want) {
		return fmt.Errorf("expected content type %q, got %q", want, w.contentType)
	}
	return nil
}

func (w *PizzaWorld) assertBodyContains(s string) error {
	if !strings.Contains(string(w.body), s) {
		return fmt.Errorf("body does not contain %q: %s", s, w.body)
	}
	return nil
}
