// Package validation collects per-field input errors so the HTTP layer can
// report all of them at once.
package validation

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is a list of field errors. A non-empty Errors is returned as an error
// value from request parsing and rendered as 400 with details.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "Validation failed"
	}
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "Validation failed: " + strings.Join(parts, "; ")
}

// Add appends an error for field.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Err returns nil when nothing was collected.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Length checks the rune length of s against [min, max]. emptyMsg is used for
// blank strings, the other messages for the bounds.
func (e *Errors) Length(field, s string, min, max int, emptyMsg, minMsg, maxMsg string) {
	n := utf8.RuneCountInString(s)
	switch {
	case strings.TrimSpace(s) == "":
		e.Add(field, emptyMsg)
	case n < min:
		e.Add(field, minMsg)
	case max > 0 && n > max:
		e.Add(field, maxMsg)
	}
}

// Email checks that s is a bare address such as "ana@example.com".
func (e *Errors) Email(field, s, msg string) {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(s[strings.LastIndex(s, "@")+1:], ".") {
		e.Add(field, msg)
	}
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

// ParseDate accepts ISO 8601 timestamps and plain dates. Values without a
// zone are read as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
