package compiler

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/btagcfg/internal/params"
)

//go:embed schema.cue
var schemaSource string

// RootField is the top-level field that holds records, keyed by label:
//
//	esproducer: trackCounting3D1st: {
//		impactParameterType: 0
//		...
//	}
const RootField = "esproducer"

// schemaFor compiles the schema in v's runtime; values from different
// runtimes cannot be unified.
func schemaFor(v cue.Value) cue.Value {
	return v.Context().CompileString(schemaSource, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#ESProducer"))
}

// CompileRecord compiles one record struct. The label is the last path
// selector, so v should be looked up from its root:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`esproducer: trackCounting3D1st: { ... }`)
//	rec, err := CompileRecord(v.LookupPath(cue.ParsePath("esproducer.trackCounting3D1st")))
//
// Every problem is reported; the error is a CompileErrors.
func CompileRecord(v cue.Value) (*params.Record, error) {
	var label string
	if sels := v.Path().Selectors(); len(sels) > 0 {
		label = sels[len(sels)-1].String()
	}

	if err := v.Err(); err != nil {
		return nil, fromCUEError(err, ErrCodeSyntax, label)
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, CompileErrors{{
			Label:   label,
			Code:    ErrCodeSchema,
			Message: fmt.Sprintf("record must be a struct, got %v", v.IncompleteKind()),
		}}
	}

	if err := schemaFor(v).Unify(v).Validate(); err != nil {
		return nil, fromCUEError(err, ErrCodeSchema, label)
	}

	m, errs := extractFields(v, label)
	if len(errs) > 0 {
		return nil, errs
	}

	rec, err := params.FromMap(label, m)
	if err != nil {
		return nil, fromValidation(err, label, func(field string) (string, int) {
			pos := v.Pos()
			if fv := v.LookupPath(cue.MakePath(cue.Str(field))); fv.Exists() {
				pos = fv.Pos()
			}
			if !pos.IsValid() {
				return "", 0
			}
			return pos.Filename(), pos.Line()
		})
	}
	return rec, nil
}

// extractFields reads the concrete scalar fields of v into a flat map.
func extractFields(v cue.Value, label string) (map[string]any, CompileErrors) {
	iter, err := v.Fields()
	if err != nil {
		return nil, fromCUEError(err, ErrCodeSyntax, label)
	}

	m := make(map[string]any)
	var errs CompileErrors
	for iter.Next() {
		name := iter.Label()
		fv := iter.Value()

		var val any
		var verr error
		switch fv.Kind() {
		case cue.IntKind:
			val, verr = fv.Int64()
		case cue.FloatKind:
			val, verr = fv.Float64()
		case cue.StringKind:
			val, verr = fv.String()
		case cue.BoolKind:
			val, verr = fv.Bool()
		case cue.BottomKind:
			ce := &CompileError{
				Label:   label,
				Field:   name,
				Code:    ErrCodeNotConcrete,
				Message: fmt.Sprintf("value must be concrete, got %v", fv.IncompleteKind()),
			}
			setPos(ce, fv.Pos())
			errs = append(errs, ce)
			continue
		default:
			ce := &CompileError{
				Label:   label,
				Field:   name,
				Code:    ErrCodeUnsupported,
				Message: fmt.Sprintf("unsupported value kind %v", fv.Kind()),
			}
			setPos(ce, fv.Pos())
			errs = append(errs, ce)
			continue
		}
		if verr != nil {
			errs = append(errs, fromCUEError(verr, ErrCodeSchema, label)...)
			continue
		}
		m[name] = val
	}
	return m, errs
}

// compileRoot compiles every record under RootField of a unified value.
func compileRoot(root cue.Value) ([]*params.Record, CompileErrors) {
	if err := root.Err(); err != nil {
		return nil, fromCUEError(err, ErrCodeSyntax, "")
	}

	recordsVal := root.LookupPath(cue.ParsePath(RootField))
	if !recordsVal.Exists() {
		return nil, nil
	}

	iter, err := recordsVal.Fields()
	if err != nil {
		return nil, fromCUEError(err, ErrCodeSyntax, "")
	}

	var records []*params.Record
	var errs CompileErrors
	for iter.Next() {
		rec, err := CompileRecord(iter.Value())
		if err != nil {
			errs = append(errs, asCompileErrors(err)...)
			continue
		}
		records = append(records, rec)
	}
	return records, errs
}
