package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/roach88/btagcfg/internal/compiler"
	"github.com/roach88/btagcfg/internal/params"
)

// Error code constants - unified across all CLI commands.
// Record and source problems keep the codes of the package that found them
// (params E200-E205, compiler E210-E214).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No configuration sources found
	ErrCodeNoRecords   = "E004" // Sources define no parameter sets
	ErrCodeNotFound    = "E005" // Path, preset or catalog entry not found
	ErrCodeUsage       = "E006" // Invalid flag combination
	ErrCodeStoreFailed = "E007" // Catalog read/write error
	ErrCodeRegistry    = "E008" // Registry refused a record
)

// LoadResult contains the records loaded from a path.
type LoadResult struct {
	Records []*params.Record
	Files   []string
}

// LoadError represents an error that occurred while loading records.
type LoadError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Label   string `json:"label,omitempty"`
	Field   string `json:"field,omitempty"`
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Code)
	b.WriteString(": ")
	switch {
	case e.Label != "" && e.Field != "":
		fmt.Fprintf(&b, "%s.%s: ", e.Label, e.Field)
	case e.Label != "":
		fmt.Fprintf(&b, "%s: ", e.Label)
	case e.Field != "":
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	b.WriteString(e.Message)
	return b.String()
}

// LoadRecords compiles every configuration source under path.
//
// A nil result means nothing could be compiled at all (missing path, no
// sources). Otherwise the result holds every valid record and the error
// slice lists each problem found in the rest.
func LoadRecords(path string) (*LoadResult, []*LoadError) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []*LoadError{{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}}
	}
	if err != nil {
		return nil, []*LoadError{{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing path: %v", err)}}
	}

	if info.IsDir() {
		files, err := compiler.FindSources(path)
		if err != nil {
			return nil, []*LoadError{{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(files) == 0 {
			return nil, []*LoadError{{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no .cue, .yaml or .yml files found in %s", path)}}
		}
	}

	compiled, err := compiler.CompilePath(path)
	if compiled == nil {
		return nil, convertCompileError(err)
	}

	result := &LoadResult{Records: compiled.Records, Files: compiled.Files}
	var errs []*LoadError
	if err != nil {
		errs = convertCompileError(err)
	}
	if len(result.Records) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoRecords, Message: fmt.Sprintf("no parameter sets found under %q in %s", compiler.RootField, path)})
	}
	return result, errs
}

// convertCompileError flattens compiler errors into LoadErrors, keeping
// position info.
func convertCompileError(err error) []*LoadError {
	var cerrs compiler.CompileErrors
	if errors.As(err, &cerrs) {
		out := make([]*LoadError, len(cerrs))
		for i, ce := range cerrs {
			out[i] = &LoadError{
				Code:    ce.Code,
				Message: ce.Message,
				File:    ce.File,
				Line:    ce.Line,
				Label:   ce.Label,
				Field:   ce.Field,
			}
		}
		return out
	}
	return []*LoadError{{Code: ErrCodeGeneric, Message: err.Error()}}
}
