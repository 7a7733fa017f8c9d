package harness

import (
	"fmt"
	"sort"
)

// Mismatch is one failed expectation of a scenario.
//
// For a query expectation Query names the query; Want and Got hold the SQL.
// For an error expectation Query is empty and Want and Got hold error codes.
type Mismatch struct {
	Query   string `json:"query,omitempty"`
	Want    string `json:"want,omitempty"`
	Got     string `json:"got,omitempty"`
	Missing bool   `json:"missing,omitempty"` // the query produced no SQL
}

func (m Mismatch) String() string {
	switch {
	case m.Query == "" && m.Want == "":
		return fmt.Sprintf("unexpected error %s", m.Got)
	case m.Query == "" && m.Got == "":
		return fmt.Sprintf("expected error %s, got success", m.Want)
	case m.Query == "":
		return fmt.Sprintf("expected error %s, got %s", m.Want, m.Got)
	case m.Missing:
		return fmt.Sprintf("query %q: no SQL produced", m.Query)
	default:
		return fmt.Sprintf("query %q:\n  want: %s\n  got:  %s", m.Query, m.Want, m.Got)
	}
}

// Compare checks a result against the scenario's expectations.
//
// With expect_error set, the session must have failed with that code.
// Otherwise the session must have succeeded and every expected query must
// have produced exactly the expected SQL. Queries composed but not listed in
// expect are ignored. Query mismatches are sorted by name.
func Compare(result *Result, scenario *Scenario) []Mismatch {
	var out []Mismatch

	if scenario.ExpectError != "" {
		switch {
		case result.ErrorCode == "":
			out = append(out, Mismatch{Want: scenario.ExpectError})
		case result.ErrorCode != scenario.ExpectError:
			out = append(out, Mismatch{
				Want: scenario.ExpectError,
				Got:  result.ErrorCode + ": " + result.ErrorMessage,
			})
		}
		return out
	}

	if result.ErrorCode != "" {
		out = append(out, Mismatch{Got: result.ErrorCode + ": " + result.ErrorMessage})
	}

	names := make([]string, 0, len(scenario.Expect))
	for name := range scenario.Expect {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		want := scenario.Expect[name]
		got, ok := result.SQL[name]
		switch {
		case !ok:
			out = append(out, Mismatch{Query: name, Want: want, Missing: true})
		case got != want:
			out = append(out, Mismatch{Query: name, Want: want, Got: got})
		}
	}
	return out
}

// Evaluate is Compare rendered as one message per mismatch. An empty slice
// means the scenario passed.
func Evaluate(result *Result, scenario *Scenario) []string {
	mismatches := Compare(result, scenario)
	msgs := make([]string, len(mismatches))
	for i, m := range mismatches {
		msgs[i] = m.String()
	}
	return msgs
}
