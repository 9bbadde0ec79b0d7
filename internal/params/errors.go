package params

import (
	"errors"
	"fmt"
	"strings"
)

// Validation error codes (E200-E209).
const (
	ErrCodeInvalidLabel = "E200" // label empty or not a valid module label
	ErrCodeMissing      = "E201" // required parameter absent
	ErrCodeUnknown      = "E202" // parameter not defined for this plugin
	ErrCodeWrongType    = "E203" // value has the wrong type
	ErrCodeOutOfRange   = "E204" // numeric value outside its domain or not finite
	ErrCodeNotInDomain  = "E205" // value not in an enumerated domain
)

// ErrValidation matches any error returned by record construction.
var ErrValidation = errors.New("invalid parameter record")

// ValidationError describes one field that violates its domain.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("[%s] %s: %s (got %v)", e.Code, e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Is reports whether target is ErrValidation.
func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationErrors collects every violation found while constructing a
// record. Construction never stops at the first bad field.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	switch len(errs) {
	case 0:
		return "no validation errors"
	case 1:
		return errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(errs), strings.Join(msgs, "; "))
}

// Is reports whether target is ErrValidation.
func (errs ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// Unwrap exposes the individual errors to errors.As.
func (errs ValidationErrors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

// Fields returns the names of the offending fields in report order.
func (errs ValidationErrors) Fields() []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

// orNil returns nil for an empty list so callers can return it directly.
func (errs ValidationErrors) orNil() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
