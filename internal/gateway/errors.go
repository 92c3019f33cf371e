package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrEmptyBatch is returned when a bulk update carries no rows. No request is sent.
var ErrEmptyBatch = errors.New("bulk update has no responses")

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status int
	Code   string
	// Detail is the server's top-level message, if any.
	Detail string
	// Fields holds per-field validation messages.
	Fields map[string][]string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("api: %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// Message returns the most specific server-provided message, or "".
func (e *APIError) Message() string {
	if e == nil {
		return ""
	}
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.Fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if msgs := e.Fields[name]; len(msgs) > 0 {
			if name == "non_field_errors" {
				return msgs[0]
			}
			return name + ": " + msgs[0]
		}
	}
	return ""
}

// Unauthorized reports 401 and 403 answers.
func (e *APIError) Unauthorized() bool {
	return e != nil && (e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

// TransportError wraps failures that never produced an HTTP answer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

var detailKeys = []string{"error", "detail", "message"}

func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		if s := strings.TrimSpace(string(body)); s != "" && len(s) < 200 && !strings.HasPrefix(s, "<") {
			e.Detail = s
		}
		return e
	}
	for _, k := range detailKeys {
		if v, ok := raw[k]; ok {
			var s string
			if json.Unmarshal(v, &s) == nil && s != "" {
				e.Detail = s
				break
			}
		}
	}
	if v, ok := raw["code"]; ok {
		_ = json.Unmarshal(v, &e.Code)
	}
	for k, v := range raw {
		if k == "code" || contains(detailKeys, k) {
			continue
		}
		var list []string
		if json.Unmarshal(v, &list) == nil && len(list) > 0 {
			e.addField(k, list...)
			continue
		}
		var s string
		if json.Unmarshal(v, &s) == nil && s != "" {
			e.addField(k, s)
		}
	}
	return e
}

func (e *APIError) addField(name string, msgs ...string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[name] = append(e.Fields[name], msgs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
