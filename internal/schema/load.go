package schema

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// Error codes for catalog loading.
const (
	ErrCodeNotFound     = "E301"
	ErrCodeUnsupported  = "E302"
	ErrCodeParseFailed  = "E303"
	ErrCodeInvalidTable = "E304"
	ErrCodeReference    = "E305"
)

// LoadError is a catalog loading problem, positioned when the source
// format reports one.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadCatalog reads a catalog file. The format is chosen by extension:
// .yaml/.yml or .cue. All table-level problems are collected; the catalog
// is nil whenever errs is non-empty.
func LoadCatalog(path string) (*Catalog, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog not found: %s", path)}}
		}
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading catalog: %v", err)}}
	}

	var (
		tables map[string]TableSpec
		errs   []error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		tables, errs = decodeYAML(data)
	case ".cue":
		tables, errs = decodeCUE(path, data)
	default:
		return nil, []error{&LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported catalog format %q (want .yaml, .yml or .cue)", ext)}}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	cat, err := NewCatalog(tables)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeInvalidTable, Message: err.Error()}}
	}
	for _, refErr := range cat.Check() {
		errs = append(errs, &LoadError{Code: ErrCodeReference, Message: refErr.Error()})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return cat, nil
}

func decodeYAML(data []byte) (map[string]TableSpec, []error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file CatalogFile
	if err := dec.Decode(&file); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing YAML: %v", err)}}
	}
	if len(file.Tables) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeParseFailed, Message: "catalog declares no tables"}}
	}
	return file.Tables, nil
}

func decodeCUE(path string, data []byte) (map[string]TableSpec, []error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, []error{cueLoadError(ErrCodeParseFailed, err)}
	}

	tablesVal := value.LookupPath(cue.ParsePath("tables"))
	if !tablesVal.Exists() {
		return nil, []error{&LoadError{Code: ErrCodeParseFailed, Message: "catalog declares no tables"}}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, []error{cueLoadError(ErrCodeParseFailed, err)}
	}

	var errs []error
	tables := make(map[string]TableSpec)
	for iter.Next() {
		if err := iter.Value().Validate(cue.Concrete(true)); err != nil {
			errs = append(errs, cueLoadError(ErrCodeInvalidTable, fmt.Errorf("tables.%s: %w", iter.Label(), err)))
			continue
		}
		var spec TableSpec
		if err := iter.Value().Decode(&spec); err != nil {
			errs = append(errs, cueLoadError(ErrCodeInvalidTable, fmt.Errorf("tables.%s: %w", iter.Label(), err)))
			continue
		}
		tables[iter.Label()] = spec
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return tables, nil
}

// cueLoadError keeps the first CUE position so the CLI can point at it.
func cueLoadError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	var cueErr cueerrors.Error
	if errors.As(err, &cueErr) {
		le.Pos = cueErr.Position()
	}
	return le
}
