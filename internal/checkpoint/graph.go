package checkpoint

import (
	"fmt"
	"strings"

	"github.com/roach88/lazyq/internal/engine"
	"github.com/roach88/lazyq/internal/frame"
	"github.com/roach88/lazyq/internal/sqlmodel"
)

const rootName = "checkpoints"

func refKey(name string) string {
	return "ref_" + name
}

// graph builds the virtual root that references every checkpoint node with
// its materialization applied. Checkpoints that depend on one another share
// nodes, so a persisted checkpoint is referenced by name wherever it is used.
func (r *Registry) graph() (*sqlmodel.Node, error) {
	refs := make(map[string]*sqlmodel.Node, len(r.order))
	markers := make([]string, 0, len(r.order))
	for _, name := range r.order {
		key := refKey(name)
		refs[key] = r.entries[name].frame.Base()
		markers = append(markers, "{"+key+"}")
	}

	root, err := sqlmodel.Build(rootName, "select * from "+strings.Join(markers, ", "), refs, nil)
	if err != nil {
		return nil, fmt.Errorf("build checkpoint graph: %w", err)
	}
	if root, err = root.SetMaterialization(nil, sqlmodel.MaterializationVirtual); err != nil {
		return nil, err
	}

	for _, name := range r.order {
		path := []string{refKey(name)}
		if root, err = root.SetMaterializationName(path, name); err != nil {
			return nil, fmt.Errorf("name checkpoint %q: %w", name, err)
		}
		if root, err = root.SetMaterialization(path, r.entries[name].kind); err != nil {
			return nil, fmt.Errorf("materialize checkpoint %q: %w", name, err)
		}
	}
	return root, nil
}

// ToSQL emits one statement per query, table and view checkpoint, each after
// the checkpoints it depends on.
func (r *Registry) ToSQL() (sqlmodel.Statements, error) {
	if len(r.order) == 0 {
		return nil, nil
	}
	root, err := r.graph()
	if err != nil {
		return nil, err
	}
	return sqlmodel.ToSQLMaterialized(root, false)
}

// CreateStatements returns the table and view statements in creation order.
func (r *Registry) CreateStatements() (sqlmodel.Statements, error) {
	stmts, err := r.ToSQL()
	if err != nil {
		return nil, err
	}
	return stmts.Filter(persisted), nil
}

// DropStatements returns a "drop ... if exists" statement for every table
// and view checkpoint, dependents first.
func (r *Registry) DropStatements() (sqlmodel.Statements, error) {
	stmts, err := r.CreateStatements()
	if err != nil {
		return nil, err
	}
	out := make(sqlmodel.Statements, 0, len(stmts))
	for _, st := range stmts.Reversed() {
		out = append(out, sqlmodel.Statement{
			Name:            st.Name,
			SQL:             dropSQL(st),
			Materialization: st.Materialization,
		})
	}
	return out, nil
}

func persisted(st sqlmodel.Statement) bool {
	return st.Materialization.IsPersisted()
}

func dropSQL(st sqlmodel.Statement) string {
	object := "table"
	if st.Materialization == sqlmodel.MaterializationView {
		object = "view"
	}
	return fmt.Sprintf("drop %s if exists %s", object, sqlmodel.QuoteIdentifier(st.Name))
}

// GetMaterialized returns the frame of a checkpoint rebased onto its node in
// the combined graph, so that queries built on it read the object created
// on eng instead of recomputing it.
func (r *Registry) GetMaterialized(eng *engine.Engine, name string) (*frame.Frame, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, newError(ErrCodeNotFound, name, "no such checkpoint")
	}
	if eng == nil {
		return nil, newError(ErrCodeInvalidArgument, name, "engine must not be nil")
	}
	if _, ok := e.engines[eng.URL()]; !ok {
		return nil, newError(ErrCodeNotMaterialized, name, "not materialized on %s", eng.URL())
	}

	root, err := r.graph()
	if err != nil {
		return nil, err
	}
	node, err := root.Lookup(refKey(name))
	if err != nil {
		return nil, err
	}
	f, err := e.frame.CopyOverrideBaseNode(node)
	if err != nil {
		return nil, err
	}
	return f.WithEngine(eng), nil
}
