package checkpoint

import (
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/lazyq/internal/frame"
	"github.com/roach88/lazyq/internal/sqlmodel"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// kinds lists the materializations a checkpoint may use, in the order
// String groups them.
var kinds = []sqlmodel.Materialization{
	sqlmodel.MaterializationQuery,
	sqlmodel.MaterializationTable,
	sqlmodel.MaterializationView,
	sqlmodel.MaterializationVirtual,
}

// Entry describes one registered checkpoint.
type Entry struct {
	Name            string                   `json:"name"`
	Frame           *frame.Frame             `json:"-"`
	Materialization sqlmodel.Materialization `json:"materialization"`

	// Engines lists the URLs of the engines the checkpoint was executed
	// against, sorted.
	Engines []string `json:"engines"`
}

type entry struct {
	name    string
	frame   *frame.Frame
	kind    sqlmodel.Materialization
	engines map[string]struct{}
}

func (e *entry) clone() *entry {
	return &entry{name: e.name, frame: e.frame, kind: e.kind, engines: maps.Clone(e.engines)}
}

func (e *entry) sameContent(o *entry) bool {
	return e.kind == o.kind && e.frame.Equal(o.frame)
}

// Registry holds named checkpoints in insertion order.
//
// A Registry is not safe for concurrent mutation.
type Registry struct {
	entries map[string]*entry
	order   []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]*entry{}}
}

func validateKind(name string, kind sqlmodel.Materialization) error {
	if !slices.Contains(kinds, kind) {
		return newError(ErrCodeInvalidMaterialization, name,
			"materialization %q is not one of %v", kind, kinds)
	}
	return nil
}

// Add registers f under name. The frame is stored materialized as a node
// called name.
//
// Adding an identical checkpoint twice is a no-op. Adding a different frame
// or materialization under an existing name is a CONFLICT.
func (r *Registry) Add(name string, f *frame.Frame, kind sqlmodel.Materialization) error {
	if !validName.MatchString(name) {
		return newError(ErrCodeInvalidName, name, "name must match %s", validName)
	}
	if err := validateKind(name, kind); err != nil {
		return err
	}
	if f == nil {
		return newError(ErrCodeInvalidArgument, name, "frame must not be nil")
	}

	materialized, err := f.Materialize(name)
	if err != nil {
		return &Error{Code: ErrCodeInvalidArgument, Checkpoint: name, Message: "materialize frame", Err: err}
	}
	e := &entry{name: name, frame: materialized, kind: kind, engines: map[string]struct{}{}}

	if existing, ok := r.entries[name]; ok {
		if existing.sameContent(e) {
			return nil
		}
		return newError(ErrCodeConflict, name, "a different checkpoint is already registered under this name")
	}

	r.entries[name] = e
	r.order = append(r.order, name)
	return nil
}

// Update changes the materialization of a checkpoint and forgets every
// engine it was executed against. Database objects created for the old
// materialization are left in place.
func (r *Registry) Update(name string, kind sqlmodel.Materialization) error {
	e, ok := r.entries[name]
	if !ok {
		return newError(ErrCodeNotFound, name, "no such checkpoint")
	}
	if err := validateKind(name, kind); err != nil {
		return err
	}
	if e.kind == kind {
		return nil
	}

	if len(e.engines) > 0 {
		slog.Info("checkpoint materialization changed, existing objects are not dropped",
			"checkpoint", name,
			"from", e.kind,
			"to", kind)
	}
	r.entries[name] = &entry{name: name, frame: e.frame, kind: kind, engines: map[string]struct{}{}}
	return nil
}

// Remove deletes a checkpoint.
func (r *Registry) Remove(name string) error {
	if _, ok := r.entries[name]; !ok {
		return newError(ErrCodeNotFound, name, "no such checkpoint")
	}
	delete(r.entries, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })
	return nil
}

// Get returns the materialized frame of a checkpoint. Frames are immutable,
// so the result can be extended freely without affecting the registry.
func (r *Registry) Get(name string) (*frame.Frame, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, newError(ErrCodeNotFound, name, "no such checkpoint")
	}
	return e.frame, nil
}

// Names returns the checkpoint names in insertion order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// All returns every checkpoint in insertion order.
func (r *Registry) All() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		e := r.entries[name]
		out = append(out, Entry{
			Name:            e.name,
			Frame:           e.frame,
			Materialization: e.kind,
			Engines:         slices.Sorted(maps.Keys(e.engines)),
		})
	}
	return out
}

// Len returns the number of checkpoints.
func (r *Registry) Len() int {
	return len(r.order)
}

// Merge copies the checkpoints of other into r. Checkpoints present in both
// must be identical; their engine sets are combined. Nothing is changed if
// any checkpoint conflicts.
func (r *Registry) Merge(other *Registry) error {
	if other == nil {
		return nil
	}
	for _, name := range other.order {
		if mine, ok := r.entries[name]; ok && !mine.sameContent(other.entries[name]) {
			return newError(ErrCodeConflict, name, "checkpoint differs between the merged registries")
		}
	}

	for _, name := range other.order {
		theirs := other.entries[name]
		mine, ok := r.entries[name]
		if !ok {
			r.entries[name] = theirs.clone()
			r.order = append(r.order, name)
			continue
		}
		merged := mine.clone()
		maps.Copy(merged.engines, theirs.engines)
		r.entries[name] = merged
	}
	return nil
}

func (r *Registry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Checkpoints (%d)", len(r.order))
	for _, kind := range kinds {
		var names []string
		for _, name := range r.order {
			if r.entries[name].kind == kind {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			fmt.Fprintf(&b, "\n  %s: %s", kind, strings.Join(names, ", "))
		}
	}
	return b.String()
}
