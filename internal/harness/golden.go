package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs a scenario, fails the test if it does not pass, and
// compares a text snapshot of the run against testdata/golden/<name>.golden.
//
// Golden files are updated by running the tests with -update.
func RunWithGolden(t *testing.T, s *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), s)
	if err != nil {
		t.Fatalf("scenario %s: %v", s.Name, err)
	}
	if !result.Pass {
		t.Fatalf("scenario %s failed:\n  %s", s.Name, strings.Join(result.Errors, "\n  "))
	}

	snapshot, err := Snapshot(s, result)
	if err != nil {
		t.Fatalf("scenario %s: snapshot: %v", s.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, snapshot)
	return result
}

// Snapshot renders the compiled statements, the created objects, and the
// rows of every query checkpoint of a run as text.
func Snapshot(s *Scenario, r *Result) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Name)

	for _, st := range r.Statements {
		fmt.Fprintf(&b, "-- %s (%s)\n%s;\n\n", st.Name, st.Materialization, st.SQL)
	}

	if r.ExecutionError != nil {
		fmt.Fprintf(&b, "# error\n%v\n", r.ExecutionError)
		return []byte(b.String()), nil
	}
	if r.Execution == nil {
		return []byte(b.String()), nil
	}

	b.WriteString("# created\n")
	for _, obj := range r.Execution.Created {
		fmt.Fprintf(&b, "%s (%s)\n", obj.Name, obj.Materialization)
	}

	for _, name := range r.Execution.QueryNames() {
		qr := r.Execution.Queries[name]
		fmt.Fprintf(&b, "\n# %s\n", name)
		if err := writeJSONLine(&b, qr.Columns); err != nil {
			return nil, err
		}
		for _, row := range qr.Rows {
			if err := writeJSONLine(&b, row); err != nil {
				return nil, err
			}
		}
	}
	return []byte(b.String()), nil
}

func writeJSONLine(b *strings.Builder, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.Write(data)
	b.WriteByte('\n')
	return nil
}
