package response

import (
	"encoding/json"
	"fmt"
)

// Text builds a plain text response
func Text(code Status, body string) Response {
	return New(code, "Content-Type: text/plain; charset=utf-8", []byte(body))
}

// HTML builds an HTML response
func HTML(code Status, body string) Response {
	return New(code, "Content-Type: text/html; charset=utf-8", []byte(body))
}

// JSON marshals v into a JSON response
func JSON(code Status, v any) (Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Response{}, err
	}
	return New(code, "Content-Type: application/json; charset=utf-8", body), nil
}

// Error builds a standard error response
func Error(code Status, message string) Response {
	if message == "" {
		message = StatusText(code)
	}

	body := fmt.Sprintf("Error %d: %s\n", code, message)
	return Text(code, body)
}

// NoContent builds a 204 No Content response
func NoContent() Response {
	return New(StatusNoContent, "", nil)
}

// Redirect builds a redirect response
func Redirect(code Status, location string) (Response, error) {
	switch code {
	case StatusMovedPermanently, StatusFound, StatusSeeOther, StatusTemporaryRedirect, StatusPermanentRedirect:
	default:
		return Response{}, fmt.Errorf("invalid redirect status code: %d", code)
	}

	return New(code, "Location: "+location, nil), nil
}
