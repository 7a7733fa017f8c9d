package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/suql"
	"github.com/roach88/suql/internal/compiler"
	"github.com/roach88/suql/internal/ir"
	"github.com/roach88/suql/internal/parser"
)

// Input is a SuQL script loaded into a fresh session.
type Input struct {
	Session *suql.Session
	Schema  *compiler.Schema
	Source  string
}

// LoadError represents an error that occurred while loading a script or a
// relationship schema.
type LoadError struct {
	Code    string
	Message string
	Line    int // 1-based, 0 when unknown
	Column  int
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s: %s", e.Line, e.Column, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadInput reads the script at scriptPath and the optional relationship
// schema at schemaPath, creates a session with the schema's relationships and
// parses the script into it.
//
// The dialect is dialectName if set, else the schema's dialect, else the
// session default. Builder errors are returned as a *LoadError after the
// session is created, together with the Input, so callers can still inspect
// the queries that were built.
func LoadInput(scriptPath, schemaPath, dialectName string, logger *slog.Logger) (*Input, error) {
	src, err := os.ReadFile(scriptPath)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("script not found: %s", scriptPath)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading script: %v", err)}
	}

	schema := &compiler.Schema{}
	if schemaPath != "" {
		if _, err := os.Stat(schemaPath); os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema not found: %s", schemaPath)}
		}
		schema, err = compiler.LoadSchema(schemaPath)
		if err != nil {
			le := wrapLoadError(err, "loading schema")
			if le.Code == ErrCodeGeneric {
				le.Code = ErrCodeSchemaInvalid
			}
			return nil, le
		}
	}

	if dialectName == "" {
		dialectName = schema.Dialect
	}
	s, err := suql.New(suql.WithDialect(dialectName), suql.WithLogger(logger))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidDialect, Message: err.Error()}
	}
	if err := schema.Declare(s.Rel); err != nil {
		return nil, wrapLoadError(err, "declaring relationships")
	}

	in := &Input{Session: s, Schema: schema, Source: string(src)}
	if err := s.Parse(in.Source); err != nil {
		return in, wrapLoadError(err, "loading script")
	}
	return in, nil
}

// wrapLoadError converts an error to a LoadError with an appropriate code.
func wrapLoadError(err error, context string) *LoadError {
	var synErr *parser.SyntaxError
	if errors.As(err, &synErr) {
		return &LoadError{
			Code:    ErrCodeSyntax,
			Message: synErr.Message,
			Line:    synErr.Pos.Line,
			Column:  synErr.Pos.Column,
		}
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		le := &LoadError{
			Code:    ErrCodeSchemaInvalid,
			Message: compileErr.Message,
		}
		if compileErr.Pos.IsValid() {
			le.Line = compileErr.Pos.Line()
			le.Column = compileErr.Pos.Column()
		}
		return le
	}
	var irErr *ir.Error
	if errors.As(err, &irErr) {
		return &LoadError{Code: MapErrorCode(irErr.Code), Message: irErr.Error()}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeReadFailed     = "E002" // File read error
	ErrCodeInvalidDialect = "E003" // Unknown dialect name
	ErrCodeSchemaInvalid  = "E004" // Relationship schema rejected
	ErrCodeNotFound       = "E005" // Path not found
	ErrCodeWriteFailed    = "E007" // File write error

	// Script errors
	ErrCodeSyntax         = "E101" // SuQL syntax error
	ErrCodeConfiguration  = "E102" // Malformed relationship declaration
	ErrCodeUnresolvedJoin = "E103" // No relationship between consecutive tables
	ErrCodeUnknownQuery   = "E104" // Reference to an undeclared query
	ErrCodeComposition    = "E105" // Cyclic nesting

	// Static analysis findings
	ErrCodeValidation = "E110" // Store validation warning
	ErrCodeCycle      = "E111" // Nesting cycle

	ErrCodeTestFailed = "E120" // One or more scenarios failed
)

// MapErrorCode maps a session error code to a CLI error code.
func MapErrorCode(code ir.ErrorCode) string {
	switch code {
	case ir.ErrCodeConfiguration:
		return ErrCodeConfiguration
	case ir.ErrCodeUnresolvedJoin:
		return ErrCodeUnresolvedJoin
	case ir.ErrCodeUnknownQuery:
		return ErrCodeUnknownQuery
	case ir.ErrCodeComposition:
		return ErrCodeComposition
	default:
		return ErrCodeGeneric
	}
}
