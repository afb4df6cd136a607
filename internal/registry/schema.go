package registry

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// suiteSchema constrains suite documents. The definitions are closed,
// so unknown fields fail validation, and the policy/format/exit
// vocabularies are checked before any Go-side decoding runs.
const suiteSchema = `
#Precondition: {
	path:     string & !=""
	content?: string
	dir?:     bool
}

#Case: {
	name:         string & !=""
	description?: string
	args?: [...string]
	input?: string
	stdin?: string
	pre?: [...#Precondition]
	policy:  "stdout-only" | "stdout-and-output-file" | "stdout-and-deletion"
	format?: "gzip" | "raw"
	exit?:   "class" | "exact"
	output?:         string
	mask_stdout?:    bool
	input_survives?: bool
}

#Suite: {
	name:         string & !=""
	description?: string
	cases: [#Case, ...#Case]
}
`

// SchemaError reports a suite document that does not satisfy the
// embedded schema.
type SchemaError struct {
	Path    string // dotted field path, e.g. cases.3.policy
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Path, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidateSchema checks a raw suite YAML document against the embedded
// schema. A nil return means the document decodes cleanly into a Suite.
func ValidateSchema(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(suiteSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("failed to compile suite schema: %w", err)
	}

	file, err := cueyaml.Extract("suite", data)
	if err != nil {
		return fmt.Errorf("failed to parse suite YAML: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return formatSchemaError(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Suite")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatSchemaError(err)
	}
	return nil
}

// formatSchemaError extracts the first CUE error with its field path
// and source position.
func formatSchemaError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	format, args := first.Msg()
	schemaErr := &SchemaError{
		Path:    strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		schemaErr.Pos = positions[0]
	}
	return schemaErr
}
