package dtype

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/lazyq/internal/expr"
)

// Registered dtype names.
const (
	Int64     = "int64"
	Float64   = "float64"
	Bool      = "bool"
	String    = "string"
	UUID      = "uuid"
	Timestamp = "timestamp"
	Date      = "date"
	Time      = "time"
	Timedelta = "timedelta"
)

// Kind is a registered column kind.
type Kind interface {
	// DType is the canonical dtype name.
	DType() string

	// Aliases are alternative names Lookup resolves to this kind.
	Aliases() []string

	// DBType is the PostgreSQL type the kind maps to.
	DBType() string

	// ValueToExpression renders a Go literal. nil renders as NULL.
	ValueToExpression(v any) (*expr.Expression, error)

	// CastFrom converts an expression of dtype source to this kind.
	CastFrom(source string, e *expr.Expression) (*expr.Expression, error)

	// Operator reports how the kind supports op as left-hand side.
	Operator(op Operator) (OpSupport, bool)

	// Aggregate reports whether the named aggregation applies and its
	// result dtype.
	Aggregate(name string) (result string, ok bool)
}

type kind struct {
	dtype   string
	aliases []string
	dbType  string
	literal func(v any) (*expr.Expression, error)
	casts   map[string]string // source dtype (or "*") -> template
	ops     map[Operator]OpSupport
	aggs    map[string]string // aggregation -> result dtype ("" = same)
}

func (k *kind) DType() string     { return k.dtype }
func (k *kind) Aliases() []string { return slices.Clone(k.aliases) }
func (k *kind) DBType() string    { return k.dbType }

func (k *kind) ValueToExpression(v any) (*expr.Expression, error) {
	if v == nil {
		return expr.ConstValue("", expr.Raw("NULL")), nil
	}
	e, err := k.literal(v)
	if err != nil {
		return nil, err
	}
	return expr.ConstValue("", e), nil
}

func (k *kind) CastFrom(source string, e *expr.Expression) (*expr.Expression, error) {
	if source == k.dtype {
		return e, nil
	}
	tmpl, ok := k.casts[source]
	if !ok {
		tmpl, ok = k.casts["*"]
	}
	if !ok {
		return nil, &UnsupportedValueError{
			DType:   k.dtype,
			Message: fmt.Sprintf("cannot cast from %s", source),
		}
	}
	return expr.Construct(tmpl, e)
}

func (k *kind) Operator(op Operator) (OpSupport, bool) {
	s, ok := k.ops[op]
	return s, ok
}

func (k *kind) Aggregate(name string) (string, bool) {
	r, ok := k.aggs[name]
	if !ok {
		return "", false
	}
	if r == "" {
		r = k.dtype
	}
	return r, true
}

var (
	registry = map[string]*kind{}
	aliases  = map[string]*kind{}
)

func register(k *kind) {
	registry[k.dtype] = k
	for _, a := range k.aliases {
		aliases[a] = k
	}
}

// Lookup resolves a dtype name or alias.
func Lookup(name string) (Kind, error) {
	if k, ok := registry[name]; ok {
		return k, nil
	}
	if k, ok := aliases[name]; ok {
		return k, nil
	}
	return nil, &UnknownTypeError{Name: name, Known: Names()}
}

// MustLookup is like Lookup but panics on error.
func MustLookup(name string) Kind {
	k, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return k
}

// Names returns the registered dtype names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Matches reports whether name is k's dtype or one of its aliases.
func Matches(k Kind, name string) bool {
	return name == k.DType() || slices.Contains(k.Aliases(), name)
}

// ValueDType infers the dtype of a Go literal.
func ValueDType(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", &UnsupportedValueError{Message: "cannot infer the dtype of nil"}
	case bool:
		return Bool, nil
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return Int64, nil
	case uint64:
		if val > math.MaxInt64 {
			return "", &UnsupportedValueError{DType: Int64, Message: fmt.Sprintf("value %d overflows int64", val)}
		}
		return Int64, nil
	case float32, float64:
		return Float64, nil
	case string:
		return String, nil
	case uuid.UUID:
		return UUID, nil
	case time.Time:
		return Timestamp, nil
	case time.Duration:
		return Timedelta, nil
	default:
		return "", &UnsupportedValueError{Message: fmt.Sprintf("cannot infer the dtype of %T", v)}
	}
}
