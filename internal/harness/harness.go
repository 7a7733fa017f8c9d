package harness

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/suql"
	"github.com/roach88/suql/internal/compiler"
	"github.com/roach88/suql/internal/ir"
	"github.com/roach88/suql/internal/parser"
	"github.com/roach88/suql/internal/testutil"
)

// defaultDialect is used when neither the scenario nor its schema names one.
const defaultDialect = "mysql"

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh session with a fixed session id and a
// discarding logger. Execution flow:
//  1. Load the schema, if any, and pick the dialect
//  2. Declare the schema relations, then the scenario relations
//  3. Parse the script into the session
//  4. Request SQL for the scenario's queries
//  5. Evaluate expectations against the outcome
//
// The returned error reports harness failures (unreadable schema, unknown
// dialect). Session errors are part of the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, testutil.DiscardLogger())
}

// RunWithLogger is Run with an explicit session logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	schema := &compiler.Schema{}
	if scenario.Schema != "" {
		loaded, err := compiler.LoadSchema(scenario.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to load schema: %w", err)
		}
		schema = loaded
	}
	schema.Relations = append(schema.Relations, scenario.Relations...)

	dialectName := scenario.Dialect
	if dialectName == "" {
		dialectName = schema.Dialect
	}
	if dialectName == "" {
		dialectName = defaultDialect
	}

	ids := testutil.NewFixedIDGenerator()
	if scenario.SessionID != "" {
		ids = testutil.NewFixedIDGenerator(scenario.SessionID)
	}

	s, err := suql.New(
		suql.WithDialect(dialectName),
		suql.WithLogger(logger),
		suql.WithIDGenerator(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	result := NewResult()
	result.Dialect = s.Dialect()
	out, err := execute(s, schema, scenario)
	if err != nil {
		result.ErrorCode = ErrorCode(err)
		result.ErrorMessage = err.Error()
	}
	if out != nil {
		result.SQL = out
	}

	for _, m := range Compare(result, scenario) {
		result.AddMismatch(m)
	}
	return result, nil
}

// execute may return partial SQL alongside an error.
func execute(s *suql.Session, schema *compiler.Schema, scenario *Scenario) (map[string]string, error) {
	if err := schema.Declare(s.Rel); err != nil {
		return nil, err
	}
	if err := s.Parse(scenario.Script); err != nil {
		return nil, err
	}
	return s.SQLFor(scenario.Queries...)
}

// ErrorCode categorizes err: the code of an *ir.Error, ErrCodeSyntax for a
// parser error, ErrCodeOther otherwise.
func ErrorCode(err error) string {
	var irErr *ir.Error
	if errors.As(err, &irErr) {
		return string(irErr.Code)
	}
	var synErr *parser.SyntaxError
	if errors.As(err, &synErr) {
		return ErrCodeSyntax
	}
	return ErrCodeOther
}
