package compiler

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

	"github.com/roach88/suql/internal/relation"
)

// Schema is the relationship configuration of a session: the dialect to
// render with and the declared table relationships.
//
// In CUE:
//
//	dialect: "mysql"
//	relations: [
//		{left: {table: "users", alias: "u"}, right: {table: "user_group", alias: "ug"}, on: "u.id = ug.user_id"},
//	]
type Schema struct {
	Dialect   string         `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Relations []RelationSpec `json:"relations" yaml:"relations"`
}

// RelationSpec is one relationship declaration.
type RelationSpec struct {
	Left  relation.TableRef `json:"left" yaml:"left"`
	Right relation.TableRef `json:"right" yaml:"right"`
	On    string            `json:"on" yaml:"on"`
}

// schemaDefinition constrains schema files before they are decoded.
const schemaDefinition = `
#Ident: =~"^[A-Za-z_][A-Za-z0-9_]*$"

#TableRef: {
	table:  #Ident
	alias?: #Ident
}

#Relation: {
	left:  #TableRef
	right: #TableRef
	on:    string & !=""
}

#Schema: {
	dialect?:  string
	relations?: [...#Relation]
}
`

// CompileError is a schema error with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadSchema reads a schema file. The format is chosen by extension:
// .cue is CUE; .yaml, .yml and .json are YAML (JSON being a subset).
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return ParseSchemaCUE(path, data)
	case ".yaml", ".yml", ".json":
		return ParseSchemaYAML(data)
	default:
		return nil, fmt.Errorf("unsupported schema format %q (want .cue, .yaml, .yml or .json)", filepath.Ext(path))
	}
}

// ParseSchemaCUE compiles CUE source, checks it against the schema
// definition and decodes it.
func ParseSchemaCUE(filename string, data []byte) (*Schema, error) {
	ctx := cuecontext.New()

	def := ctx.CompileString(schemaDefinition, cue.Filename("schema.cue"))
	if err := def.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = def.LookupPath(cue.ParsePath("#Schema")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	schema := &Schema{}
	if d := v.LookupPath(cue.ParsePath("dialect")); d.Exists() {
		s, err := d.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		schema.Dialect = s
	}

	schema.Relations = []RelationSpec{}
	rels := v.LookupPath(cue.ParsePath("relations"))
	if !rels.Exists() {
		return schema, nil
	}
	iter, err := rels.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		var spec RelationSpec
		if err := iter.Value().Decode(&spec); err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("relations[%d]", i),
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		schema.Relations = append(schema.Relations, spec)
	}
	return schema, nil
}

// ParseSchemaYAML decodes a YAML (or JSON) schema. Unknown keys are errors.
func ParseSchemaYAML(data []byte) (*Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	schema := &Schema{}
	if err := dec.Decode(schema); err != nil {
		return nil, fmt.Errorf("decoding schema: %w", err)
	}
	if schema.Relations == nil {
		schema.Relations = []RelationSpec{}
	}
	for i, rel := range schema.Relations {
		if strings.TrimSpace(rel.On) == "" {
			return nil, &CompileError{
				Field:   fmt.Sprintf("relations[%d].on", i),
				Message: "join predicate is required",
			}
		}
	}
	return schema, nil
}

// DeclareFunc registers one relationship, e.g. (*relation.Graph).Declare or
// (*suql.Session).Rel.
type DeclareFunc func(left, right relation.TableRef, on string) error

// Declare passes every relationship to declare. All declarations are
// attempted; failures are joined.
func (s *Schema) Declare(declare DeclareFunc) error {
	var errs []error
	for i, rel := range s.Relations {
		if err := declare(rel.Left, rel.Right, rel.On); err != nil {
			errs = append(errs, fmt.Errorf("relations[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		path := firstErr.Path()
		if len(path) > 0 && path[0] == "#Schema" {
			path = path[1:]
		}
		field := strings.Join(path, ".")
		if field == "" {
			field = "cue"
		}
		return &CompileError{
			Field:   field,
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
