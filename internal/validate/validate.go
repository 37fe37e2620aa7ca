// Package validate checks the linked symbol sequence before indexing:
// duplicate FQNs, schema conformance of every canonical object, and
// referential closure of owners and base classes. Validation is
// all-or-nothing; any error aborts the run with no partial output.
package validate

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/apictx/apictx/internal/apierr"
	"github.com/apictx/apictx/internal/symbol"
)

//go:embed schema.json
var schemaJSON []byte

// Schema is the resolved JSON Schema every canonical symbol object must
// satisfy.
type Schema struct {
	resolved *jsonschema.Resolved
}

// LoadSchema parses and resolves the embedded symbol schema.
func LoadSchema() (*Schema, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(schemaJSON, &s); err != nil {
		return nil, fmt.Errorf("parse symbol schema: %w", err)
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve symbol schema: %w", err)
	}
	return &Schema{resolved: resolved}, nil
}

// Check validates one canonical symbol object.
func (s *Schema) Check(data []byte) error {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return err
	}
	return s.resolved.Validate(instance)
}

// Record pairs a validated symbol with its canonical serialized form, plus
// the fields the index needs without re-deserializing.
type Record struct {
	FQN        string
	Name       string // simple name, last dotted segment
	Kind       symbol.Kind
	Data       []byte
	Visibility symbol.Visibility // "" for kinds without visibility
	Owner      string            // "" when unset
}

// Report summarizes a validation pass.
type Report struct {
	SymbolCount       int `json:"symbol_count"`
	MissingReferences int `json:"missing_references"`
}

// Options tunes validation behavior.
type Options struct {
	// AllowOverloadDuplicates exempts overload stubs and their
	// implementation from duplicate-FQN detection.
	AllowOverloadDuplicates bool
}

// Run checks the full symbol sequence, accumulating errors across the set
// rather than short-circuiting. On any error the record set is nil and the
// pipeline must not proceed. Duplicate FQNs beyond the first occurrence are
// excluded from the output set; overload groups are kept whole when
// opts.AllowOverloadDuplicates is set.
func Run(syms []symbol.Symbol, schema *Schema, opts Options) ([]Record, Report, []apierr.Error) {
	var errs []apierr.Error
	records := make([]Record, 0, len(syms))

	seen := map[string]bool{}
	sawOverload := map[string]bool{}
	missing := 0

	for _, s := range syms {
		info := s.Common()
		overload := isOverload(s)

		if seen[info.FQN] {
			if !opts.AllowOverloadDuplicates || !(overload || sawOverload[info.FQN]) {
				errs = append(errs, apierr.Newf(apierr.CodeDuplicate, info.Location.Path,
					"duplicate fqn %q", info.FQN))
				continue
			}
		}
		seen[info.FQN] = true
		if overload {
			sawOverload[info.FQN] = true
		}

		data, err := json.Marshal(s)
		if err != nil {
			errs = append(errs, apierr.Newf(apierr.CodeSchema, info.Location.Path,
				"serialize %q: %v", info.FQN, err))
			continue
		}
		if err := schema.Check(data); err != nil {
			errs = append(errs, apierr.Newf(apierr.CodeSchema, info.Location.Path,
				"schema violation for %q: %v", info.FQN, compactErr(err)))
			continue
		}

		records = append(records, newRecord(s, info, data))
	}

	// Referential closure over the surviving set.
	fqns := map[string]bool{}
	classes := map[string]bool{}
	for _, r := range records {
		fqns[r.FQN] = true
		if r.Kind == symbol.KindClass {
			classes[r.FQN] = true
		}
	}
	for _, r := range records {
		if r.Owner != "" && !fqns[r.Owner] {
			missing++
			errs = append(errs, apierr.Newf(apierr.CodeMissingRef, r.FQN,
				"owner %q does not exist", r.Owner))
		}
		if r.Kind != symbol.KindClass {
			continue
		}
		var cls symbol.Class
		if err := json.Unmarshal(r.Data, &cls); err != nil {
			continue
		}
		for _, base := range cls.BaseFQNs {
			if !classes[base] {
				missing++
				errs = append(errs, apierr.Newf(apierr.CodeMissingRef, r.FQN,
					"base %q does not exist as a class", base))
			}
		}
	}

	report := Report{SymbolCount: len(records), MissingReferences: missing}
	if len(errs) > 0 {
		return nil, report, errs
	}
	return records, report, nil
}

func newRecord(s symbol.Symbol, info symbol.Info, data []byte) Record {
	r := Record{
		FQN:  info.FQN,
		Name: symbol.SimpleName(info.FQN),
		Kind: info.Kind,
		Data: data,
	}
	switch v := s.(type) {
	case symbol.Function:
		r.Visibility = v.Visibility
		if v.Owner != nil {
			r.Owner = *v.Owner
		}
	case symbol.Class:
		r.Visibility = v.Visibility
	case symbol.Constant:
		r.Visibility = v.Visibility
		r.Owner = v.Owner
	}
	return r
}

func isOverload(s symbol.Symbol) bool {
	fn, ok := s.(symbol.Function)
	return ok && fn.OverloadOf != nil
}

// compactErr flattens multi-line validator messages into one line.
func compactErr(err error) string {
	return strings.Join(strings.Fields(err.Error()), " ")
}
