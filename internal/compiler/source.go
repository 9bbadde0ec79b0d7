package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/btagcfg/internal/params"
)

// Result holds the records compiled from one path.
type Result struct {
	Records []*params.Record
	Files   []string // source files read, sorted
}

// Labels returns the compiled labels in order.
func (r *Result) Labels() []string {
	labels := make([]string, len(r.Records))
	for i, rec := range r.Records {
		labels[i] = rec.Name()
	}
	return labels
}

// IsSource reports whether path has a supported extension.
func IsSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue", ".yaml", ".yml":
		return true
	}
	return false
}

// FindSources walks dir and returns all supported source files, sorted.
func FindSources(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && IsSource(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// CompilePath compiles a single source file or every source in a directory.
//
// CUE files in a directory are unified into one value, so a label may be
// split across files. YAML files stand alone. A label produced by more than
// one unit is an error. Compilation continues past bad records; the
// returned Result holds the good ones and the error is a CompileErrors.
func CompilePath(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var files []string
	if info.IsDir() {
		files, err = FindSources(path)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
	} else {
		if !IsSource(path) {
			return nil, CompileErrors{{
				File:    path,
				Code:    ErrCodeUnsupported,
				Message: "unsupported file type; want .cue, .yaml or .yml",
			}}
		}
		files = []string{path}
	}
	return CompileFiles(files)
}

// CompileFiles compiles the given files together.
func CompileFiles(files []string) (*Result, error) {
	result := &Result{Files: append([]string(nil), files...)}
	sort.Strings(result.Files)

	var cueFiles, yamlFiles []string
	for _, f := range result.Files {
		if strings.EqualFold(filepath.Ext(f), ".cue") {
			cueFiles = append(cueFiles, f)
		} else {
			yamlFiles = append(yamlFiles, f)
		}
	}

	var errs CompileErrors
	origin := make(map[string]string)
	add := func(recs []*params.Record, file string) {
		for _, rec := range recs {
			if prev, dup := origin[rec.Name()]; dup {
				errs = append(errs, &CompileError{
					File:    file,
					Label:   rec.Name(),
					Code:    ErrCodeDuplicateLabel,
					Message: fmt.Sprintf("label already defined in %s", prev),
				})
				continue
			}
			origin[rec.Name()] = file
			result.Records = append(result.Records, rec)
		}
	}

	if len(cueFiles) > 0 {
		recs, cerrs := compileCUEFiles(cueFiles)
		errs = append(errs, cerrs...)
		add(recs, strings.Join(cueFiles, ","))
	}
	for _, f := range yamlFiles {
		data, err := os.ReadFile(f)
		if err != nil {
			errs = append(errs, &CompileError{File: f, Code: ErrCodeSyntax, Message: err.Error(), Err: err})
			continue
		}
		recs, cerrs := compileYAML(f, data)
		errs = append(errs, cerrs...)
		add(recs, f)
	}

	return result, errs.orNil()
}

// compileCUEFiles unifies every file that parses. Files that cannot be read
// or parsed are reported and left out of the unification.
func compileCUEFiles(files []string) ([]*params.Record, CompileErrors) {
	ctx := cuecontext.New()
	var errs CompileErrors
	var root cue.Value
	parsed := 0
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			errs = append(errs, &CompileError{File: f, Code: ErrCodeSyntax, Message: err.Error(), Err: err})
			continue
		}
		v := ctx.CompileBytes(data, cue.Filename(f))
		if err := v.Err(); err != nil {
			cerrs := fromCUEError(err, ErrCodeSyntax, "")
			for _, ce := range cerrs {
				if ce.File == "" {
					ce.File = f
				}
			}
			errs = append(errs, cerrs...)
			continue
		}
		if parsed == 0 {
			root = v
		} else {
			root = root.Unify(v)
		}
		parsed++
	}
	if parsed == 0 {
		return nil, errs
	}
	recs, cerrs := compileRoot(root)
	return recs, append(errs, cerrs...)
}

// CompileCUE compiles CUE source text. filename is used in positions only.
func CompileCUE(filename string, data []byte) ([]*params.Record, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(filename))
	recs, errs := compileRoot(v)
	return recs, errs.orNil()
}

// CompileYAML compiles YAML of the form
//
//	esproducer:
//	  trackCounting3D1st:
//	    impactParameterType: 0
//	    ...
//
// Records are returned in document order. The error is a CompileErrors.
func CompileYAML(filename string, data []byte) ([]*params.Record, error) {
	recs, errs := compileYAML(filename, data)
	return recs, errs.orNil()
}

func compileYAML(filename string, data []byte) ([]*params.Record, CompileErrors) {
	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, CompileErrors{{File: filename, Code: ErrCodeSyntax, Message: err.Error(), Err: err}}
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, CompileErrors{{
			File:    filename,
			Line:    top.Line,
			Code:    ErrCodeSchema,
			Message: "document must be a mapping",
		}}
	}

	root := mappingValue(top, RootField)
	if root == nil {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, CompileErrors{{
			File:    filename,
			Line:    root.Line,
			Field:   RootField,
			Code:    ErrCodeSchema,
			Message: "must map labels to records",
		}}
	}

	var records []*params.Record
	var errs CompileErrors
	seen := make(map[string]int)
	for i := 0; i+1 < len(root.Content); i += 2 {
		labelNode, body := root.Content[i], root.Content[i+1]
		// Decoding into a yaml.Node does not reject repeated keys.
		if prev, dup := seen[labelNode.Value]; dup {
			errs = append(errs, &CompileError{
				File:    filename,
				Line:    labelNode.Line,
				Label:   labelNode.Value,
				Code:    ErrCodeDuplicateLabel,
				Message: fmt.Sprintf("label already defined at line %d", prev),
			})
			continue
		}
		seen[labelNode.Value] = labelNode.Line
		rec, cerrs := compileYAMLRecord(filename, labelNode, body)
		if len(cerrs) > 0 {
			errs = append(errs, cerrs...)
			continue
		}
		records = append(records, rec)
	}
	return records, errs
}

func compileYAMLRecord(filename string, labelNode, body *yaml.Node) (*params.Record, CompileErrors) {
	label := labelNode.Value
	if body.Kind != yaml.MappingNode {
		return nil, CompileErrors{{
			File:    filename,
			Line:    body.Line,
			Label:   label,
			Code:    ErrCodeSchema,
			Message: "record must be a mapping",
		}}
	}

	m := make(map[string]any)
	lines := make(map[string]int)
	var errs CompileErrors
	for i := 0; i+1 < len(body.Content); i += 2 {
		key, val := body.Content[i], body.Content[i+1]
		if prev, dup := lines[key.Value]; dup {
			errs = append(errs, &CompileError{
				File:    filename,
				Line:    key.Line,
				Label:   label,
				Field:   key.Value,
				Code:    ErrCodeSchema,
				Message: fmt.Sprintf("parameter already set at line %d", prev),
			})
			continue
		}
		lines[key.Value] = key.Line
		if val.Kind != yaml.ScalarNode {
			errs = append(errs, &CompileError{
				File:    filename,
				Line:    val.Line,
				Label:   label,
				Field:   key.Value,
				Code:    ErrCodeUnsupported,
				Message: "parameter values must be scalars",
			})
			continue
		}
		var decoded any
		if err := val.Decode(&decoded); err != nil {
			errs = append(errs, &CompileError{
				File: filename, Line: val.Line, Label: label, Field: key.Value,
				Code: ErrCodeSyntax, Message: err.Error(), Err: err,
			})
			continue
		}
		m[key.Value] = decoded
	}
	if len(errs) > 0 {
		return nil, errs
	}

	rec, err := params.FromMap(label, m)
	if err != nil {
		return nil, fromValidation(err, label, func(field string) (string, int) {
			if line, ok := lines[field]; ok {
				return filename, line
			}
			return filename, labelNode.Line
		})
	}
	return rec, nil
}

// mappingValue returns the value node for key in a mapping node.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
