package transport

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Classify maps a completed exchange to nil (status < 400) or an *Error.
// 400 is Validation; any other status >= 400 is Generic. The message is the
// body's "error" field when the body is a JSON object carrying one, otherwise
// the raw body text. A malformed body never makes classification fail.
func Classify(status int, body []byte) error {
	if status < http.StatusBadRequest {
		return nil
	}

	kind := KindGeneric
	if status == http.StatusBadRequest {
		kind = KindValidation
	}

	msg, details := errorMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}

	return &Error{
		Kind:       kind,
		Message:    msg,
		StatusCode: status,
		Body:       body,
		Details:    details,
		sent:       true,
	}
}

func errorMessage(body []byte) (string, any) {
	raw := strings.TrimSpace(string(body))

	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return raw, nil
	}

	var details any
	if v, ok := envelope["validation_errors"]; ok {
		details = v
	} else if v, ok := envelope["details"]; ok {
		details = v
	}

	if s, ok := envelope["error"].(string); ok && s != "" {
		return s, details
	}
	return raw, details
}
