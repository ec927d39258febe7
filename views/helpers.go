package views

import "encoding/json"

// hxHeaders is the hx-headers value that sends the CSRF token with every
// htmx request.
func hxHeaders(csrfToken string) string {
	b, err := json.Marshal(map[string]string{"X-CSRF-Token": csrfToken})
	if err != nil {
		return "{}"
	}
	return string(b)
}
