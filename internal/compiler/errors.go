package compiler

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/btagcfg/internal/params"
)

// Compile error codes (E210-E219). Field-level validation failures keep the
// params codes (E200-E205).
const (
	ErrCodeSyntax         = "E210" // source does not parse
	ErrCodeSchema         = "E211" // value conflicts with the parameter schema
	ErrCodeDuplicateLabel = "E212" // label defined by more than one source
	ErrCodeNotConcrete    = "E213" // parameter left abstract, e.g. `nthTrack: int`
	ErrCodeUnsupported    = "E214" // unsupported file type or value kind
)

// CompileError is one problem found while compiling a source, with its
// location when known.
type CompileError struct {
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Label   string `json:"label,omitempty"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`

	// Err is the underlying error, typically a params.ValidationError.
	Err error `json:"-"`
}

func (e *CompileError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(": ")
	}
	switch {
	case e.Label != "" && e.Field != "":
		fmt.Fprintf(&b, "%s.%s: ", e.Label, e.Field)
	case e.Label != "":
		fmt.Fprintf(&b, "%s: ", e.Label)
	case e.Field != "":
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	return b.String()
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// CompileErrors aggregates every error found in one compilation.
type CompileErrors []*CompileError

func (errs CompileErrors) Error() string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d errors:\n  %s", len(errs), strings.Join(msgs, "\n  "))
}

func (errs CompileErrors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

func (errs CompileErrors) orNil() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// asCompileErrors flattens any error produced in this package.
func asCompileErrors(err error) CompileErrors {
	if err == nil {
		return nil
	}
	var many CompileErrors
	if errors.As(err, &many) {
		return many
	}
	var one *CompileError
	if errors.As(err, &one) {
		return CompileErrors{one}
	}
	return CompileErrors{{Code: ErrCodeSyntax, Message: err.Error(), Err: err}}
}

// fromCUEError converts a CUE error, which may hold several, keeping
// positions.
func fromCUEError(err error, code, label string) CompileErrors {
	var out CompileErrors
	for _, e := range cueerrors.Errors(err) {
		ce := &CompileError{Label: label, Code: code, Message: e.Error(), Err: e}
		setPos(ce, e.Position())
		if !e.Position().IsValid() {
			if positions := cueerrors.Positions(e); len(positions) > 0 {
				setPos(ce, positions[0])
			}
		}
		out = append(out, ce)
	}
	if len(out) == 0 {
		out = CompileErrors{{Label: label, Code: code, Message: err.Error(), Err: err}}
	}
	return out
}

func setPos(e *CompileError, pos token.Pos) {
	if pos.IsValid() {
		e.File = pos.Filename()
		e.Line = pos.Line()
	}
}

// fromValidation converts params errors, locating each field with locate.
func fromValidation(err error, label string, locate func(field string) (string, int)) CompileErrors {
	var verrs params.ValidationErrors
	if !errors.As(err, &verrs) {
		return CompileErrors{{Label: label, Code: ErrCodeSchema, Message: err.Error(), Err: err}}
	}
	out := make(CompileErrors, 0, len(verrs))
	for _, ve := range verrs {
		ce := &CompileError{
			Label:   label,
			Field:   ve.Field,
			Code:    ve.Code,
			Message: ve.Message,
			Err:     ve,
		}
		if ve.Value != nil {
			ce.Message = fmt.Sprintf("%s (got %v)", ve.Message, ve.Value)
		}
		ce.File, ce.Line = locate(ve.Field)
		out = append(out, ce)
	}
	return out
}
