package pipeline

import (
	"fmt"
	"slices"

	"github.com/roach88/lazyq/internal/frame"
	"github.com/roach88/lazyq/internal/sqlmodel"
)

// DefaultSourceName is the name checkpoints use in "from" to read the
// source relation when the source does not name itself.
const DefaultSourceName = "source"

// Pipeline is a complete pipeline definition.
type Pipeline struct {
	// Name identifies the pipeline in logs and output.
	Name string `json:"name" yaml:"name"`

	// Source is the relation every checkpoint chain starts from.
	Source Source `json:"source" yaml:"source"`

	// Checkpoints are registered in order. A checkpoint may only read
	// from the source or from a checkpoint listed before it.
	Checkpoints []Checkpoint `json:"checkpoints" yaml:"checkpoints"`
}

// Source declares the relation a pipeline reads. Exactly one of Table and
// SQL is set.
type Source struct {
	Name    string             `json:"name,omitempty" yaml:"name,omitempty"`
	Table   string             `json:"table,omitempty" yaml:"table,omitempty"`
	SQL     string             `json:"sql,omitempty" yaml:"sql,omitempty"`
	Index   []frame.ColumnSpec `json:"index,omitempty" yaml:"index,omitempty"`
	Columns []frame.ColumnSpec `json:"columns" yaml:"columns"`
}

// Checkpoint declares one named checkpoint.
type Checkpoint struct {
	Name string `json:"name" yaml:"name"`
	From string `json:"from" yaml:"from"`

	// Filter conditions are combined with "and" and applied to rows
	// before grouping.
	Filter []Condition `json:"filter,omitempty" yaml:"filter,omitempty"`

	GroupBy []string `json:"group_by,omitempty" yaml:"group_by,omitempty"`

	// Aggregate maps a column to the functions applied to it. Results are
	// named "<column>_<function>".
	Aggregate map[string][]string `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`

	// Having conditions are applied after aggregation and may refer to
	// aggregate results.
	Having []Condition `json:"having,omitempty" yaml:"having,omitempty"`

	SortBy     []string `json:"sort_by,omitempty" yaml:"sort_by,omitempty"`
	Descending bool     `json:"descending,omitempty" yaml:"descending,omitempty"`

	// Materialization is one of query, table, view or virtual_node.
	// Defaults to query.
	Materialization string `json:"materialization,omitempty" yaml:"materialization,omitempty"`
}

// Condition compares a column to a constant.
type Condition struct {
	Column string `json:"column" yaml:"column"`

	// Op is eq, ne, lt, le, gt, ge, is_null or not_null.
	Op string `json:"op" yaml:"op"`

	// Value is the constant to compare against. Unused by is_null and
	// not_null.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`
}

var conditionOps = []string{"eq", "ne", "lt", "le", "gt", "ge", "is_null", "not_null"}

// applyDefaults fills in omitted optional fields.
func (p *Pipeline) applyDefaults() {
	if p.Source.Name == "" {
		p.Source.Name = DefaultSourceName
	}
	for i := range p.Checkpoints {
		if p.Checkpoints[i].Materialization == "" {
			p.Checkpoints[i].Materialization = string(sqlmodel.MaterializationQuery)
		}
	}
}

// Validate checks the structure of p. Column names, dtypes and function
// names are checked when the pipeline is built.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return &LoadError{Code: ErrCodeInvalid, Message: "name is required"}
	}
	if err := p.Source.validate(); err != nil {
		return err
	}
	if len(p.Checkpoints) == 0 {
		return &LoadError{Code: ErrCodeInvalid, Message: "checkpoints list is required and must be non-empty"}
	}

	known := []string{p.Source.Name}
	for i, cp := range p.Checkpoints {
		field := fmt.Sprintf("checkpoints[%d]", i)
		if cp.Name == "" {
			return &LoadError{Code: ErrCodeInvalid, Field: field, Message: "name is required"}
		}
		field = fmt.Sprintf("checkpoints[%d] (%s)", i, cp.Name)
		if slices.Contains(known, cp.Name) {
			return &LoadError{Code: ErrCodeInvalid, Field: field, Message: "name is already used"}
		}
		if !slices.Contains(known, cp.From) {
			return &LoadError{Code: ErrCodeInvalid, Field: field,
				Message: fmt.Sprintf("from %q must be the source or an earlier checkpoint, one of %v", cp.From, known)}
		}
		if len(cp.GroupBy) > 0 && len(cp.Aggregate) == 0 {
			return &LoadError{Code: ErrCodeInvalid, Field: field, Message: "group_by requires aggregate"}
		}
		if len(cp.Having) > 0 && len(cp.Aggregate) == 0 {
			return &LoadError{Code: ErrCodeInvalid, Field: field, Message: "having requires aggregate"}
		}
		for _, c := range slices.Concat(cp.Filter, cp.Having) {
			if err := c.validate(field); err != nil {
				return err
			}
		}
		if _, err := sqlmodel.ParseMaterialization(cp.Materialization); err != nil {
			return &LoadError{Code: ErrCodeInvalid, Field: field, Message: err.Error()}
		}
		known = append(known, cp.Name)
	}
	return nil
}

func (s *Source) validate() error {
	if (s.Table == "") == (s.SQL == "") {
		return &LoadError{Code: ErrCodeInvalid, Field: "source", Message: "exactly one of table and sql is required"}
	}
	if len(s.Columns) == 0 {
		return &LoadError{Code: ErrCodeInvalid, Field: "source", Message: "columns list is required and must be non-empty"}
	}
	return nil
}

func (c Condition) validate(field string) error {
	if c.Column == "" {
		return &LoadError{Code: ErrCodeInvalid, Field: field, Message: "condition column is required"}
	}
	if !slices.Contains(conditionOps, c.Op) {
		return &LoadError{Code: ErrCodeInvalid, Field: field,
			Message: fmt.Sprintf("condition op %q must be one of %v", c.Op, conditionOps)}
	}
	if c.Value == nil && c.Op != "is_null" && c.Op != "not_null" {
		return &LoadError{Code: ErrCodeInvalid, Field: field,
			Message: fmt.Sprintf("condition %s on %q needs a value", c.Op, c.Column)}
	}
	return nil
}
