package dtype

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/lazyq/internal/expr"
)

const (
	timestampLayout = "2006-01-02 15:04:05.999999"
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05.999999"
)

var numeric = []string{Int64, Float64}

// aggregations every kind supports.
var baseAggs = map[string]string{
	"count":   Int64,
	"nunique": Int64,
	"mode":    "",
}

func aggs(extra map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range baseAggs {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func init() {
	register(&kind{
		dtype:   Int64,
		aliases: []string{"int", "integer", "bigint"},
		dbType:  "bigint",
		literal: func(v any) (*expr.Expression, error) {
			n, ok := toInt64(v)
			if !ok {
				return nil, &UnsupportedValueError{DType: Int64, Message: fmt.Sprintf("unsupported value %v (%T)", v, v)}
			}
			return expr.Raw(fmt.Sprintf("cast(%d as bigint)", n)), nil
		},
		casts: map[string]string{
			Float64: "cast({} as bigint)",
			Bool:    "cast({} as bigint)",
			String:  "cast({} as bigint)",
		},
		ops: merge(comparisons(numeric...), map[Operator]OpSupport{
			OpAdd:      {RHS: numeric, Template: "({}) + ({})", ResultByRHS: map[string]string{Float64: Float64}},
			OpSub:      {RHS: numeric, Template: "({}) - ({})", ResultByRHS: map[string]string{Float64: Float64}},
			OpMul:      {RHS: numeric, Template: "({}) * ({})", ResultByRHS: map[string]string{Float64: Float64}},
			OpDiv:      {RHS: numeric, Template: "cast({} as double precision) / ({})", Result: Float64},
			OpFloorDiv: {RHS: numeric, Template: "cast(floor(cast({} as double precision) / ({})) as bigint)", Result: Int64},
			OpPow:      {RHS: numeric, Template: "POWER({}, {})", Result: Float64},
		}),
		aggs: aggs(map[string]string{"min": "", "max": "", "sum": "", "mean": Float64, "median": ""}),
	})

	register(&kind{
		dtype:   Float64,
		aliases: []string{"float", "double", "double precision"},
		dbType:  "double precision",
		literal: func(v any) (*expr.Expression, error) {
			var f float64
			switch val := v.(type) {
			case float64:
				f = val
			case float32:
				f = float64(val)
			default:
				n, ok := toInt64(v)
				if !ok {
					return nil, &UnsupportedValueError{DType: Float64, Message: fmt.Sprintf("unsupported value %v (%T)", v, v)}
				}
				f = float64(n)
			}
			switch {
			case math.IsNaN(f):
				return expr.MustConstruct("cast({} as double precision)", expr.StringValue("NaN")), nil
			case math.IsInf(f, 1):
				return expr.MustConstruct("cast({} as double precision)", expr.StringValue("Infinity")), nil
			case math.IsInf(f, -1):
				return expr.MustConstruct("cast({} as double precision)", expr.StringValue("-Infinity")), nil
			}
			return expr.Raw("cast(" + strconv.FormatFloat(f, 'g', -1, 64) + " as double precision)"), nil
		},
		casts: map[string]string{
			Int64:  "cast({} as double precision)",
			String: "cast({} as double precision)",
		},
		ops: merge(comparisons(numeric...), map[Operator]OpSupport{
			OpAdd:      {RHS: numeric, Template: "({}) + ({})", Result: Float64},
			OpSub:      {RHS: numeric, Template: "({}) - ({})", Result: Float64},
			OpMul:      {RHS: numeric, Template: "({}) * ({})", Result: Float64},
			OpDiv:      {RHS: numeric, Template: "({}) / ({})", Result: Float64},
			OpFloorDiv: {RHS: numeric, Template: "cast(floor(({}) / ({})) as bigint)", Result: Int64},
			OpPow:      {RHS: numeric, Template: "POWER({}, {})", Result: Float64},
		}),
		aggs: aggs(map[string]string{"min": "", "max": "", "sum": "", "mean": Float64, "median": ""}),
	})

	register(&kind{
		dtype:   Bool,
		aliases: []string{"boolean"},
		dbType:  "boolean",
		literal: func(v any) (*expr.Expression, error) {
			b, ok := v.(bool)
			if !ok {
				return nil, &UnsupportedValueError{DType: Bool, Message: fmt.Sprintf("unsupported value %v (%T)", v, v)}
			}
			if b {
				return expr.Raw("True"), nil
			}
			return expr.Raw("False"), nil
		},
		casts: map[string]string{
			Int64:  "cast({} as bool)",
			String: "cast({} as bool)",
		},
		ops: merge(comparisons(Bool), map[Operator]OpSupport{
			OpAnd: {RHS: []string{Bool}, Template: "({}) AND ({})", Result: Bool},
			OpOr:  {RHS: []string{Bool}, Template: "({}) OR ({})", Result: Bool},
			OpXor: {RHS: []string{Bool}, Template: "({}) != ({})", Result: Bool},
		}),
		aggs: aggs(nil),
	})

	register(&kind{
		dtype:   String,
		aliases: []string{"str", "text"},
		dbType:  "text",
		literal: func(v any) (*expr.Expression, error) {
			s, ok := v.(string)
			if !ok {
				return nil, &UnsupportedValueError{DType: String, Message: fmt.Sprintf("unsupported value %v (%T)", v, v)}
			}
			return expr.StringValue(s), nil
		},
		casts: map[string]string{
			"*": "cast({} as text)",
		},
		ops: merge(comparisons(String), map[Operator]OpSupport{
			OpAdd: {RHS: []string{String}, Template: "({}) || ({})", Result: String},
		}),
		aggs: aggs(map[string]string{"min": "", "max": "", "median": ""}),
	})

	register(&kind{
		dtype:  UUID,
		dbType: "uuid",
		literal: func(v any) (*expr.Expression, error) {
			var id uuid.UUID
			switch val := v.(type) {
			case uuid.UUID:
				id = val
			case string:
				parsed, err := uuid.Parse(val)
				if err != nil {
					return nil, &UnsupportedValueError{DType: UUID, Message: fmt.Sprintf("invalid uuid %q: %v", val, err)}
				}
				id = parsed
			default:
				return nil, &UnsupportedValueError{DType: UUID, Message: fmt.Sprintf("unsupported value %v (%T)", v, v)}
			}
			return expr.MustConstruct("cast({} as uuid)", expr.StringValue(id.String())), nil
		},
		casts: map[string]string{
			String: "cast(({}) as uuid)",
		},
		ops: map[Operator]OpSupport{
			OpEq: {RHS: []string{UUID, String}, Template: "({}) = ({})", TemplateByRHS: map[string]string{String: "({}) = (cast({} as uuid))"}, Result: Bool},
			OpNe: {RHS: []string{UUID, String}, Template: "({}) <> ({})", TemplateByRHS: map[string]string{String: "({}) <> (cast({} as uuid))"}, Result: Bool},
		},
		aggs: aggs(nil),
	})

	temporalAggs := aggs(map[string]string{"min": "", "max": "", "median": ""})

	register(&kind{
		dtype:   Timestamp,
		aliases: []string{"datetime64", "datetime64[ns]", "timestamp without time zone"},
		dbType:  "timestamp without time zone",
		literal: func(v any) (*expr.Expression, error) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, &UnsupportedValueError{DType: Timestamp, Message: fmt.Sprintf("unsupported value %v (%T)", v, v)}
			}
			return expr.MustConstruct("cast({} as timestamp without time zone)", expr.StringValue(t.Format(timestampLayout))), nil
		},
		casts: map[string]string{
			String: "cast({} as timestamp without time zone)",
			Date:   "cast({} as timestamp without time zone)",
		},
		ops: merge(comparisons(Timestamp, Date, String), map[Operator]OpSupport{
			OpSub: {RHS: []string{Timestamp, Date, Timedelta}, Template: "({}) - ({})", Result: Timedelta, ResultByRHS: map[string]string{Timedelta: Timestamp}},
			OpAdd: {RHS: []string{Timedelta}, Template: "({}) + ({})", Result: Timestamp},
		}),
		aggs: temporalAggs,
	})

	register(&kind{
		dtype:  Date,
		dbType: "date",
		literal: func(v any) (*expr.Expression, error) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, &UnsupportedValueError{DType: Date, Message: fmt.Sprintf("unsupported value %v (%T)", v, v)}
			}
			return expr.MustConstruct("cast({} as date)", expr.StringValue(t.Format(dateLayout))), nil
		},
		casts: map[string]string{
			String:    "cast({} as date)",
			Timestamp: "cast({} as date)",
		},
		ops: merge(comparisons(Date, Timestamp, String), map[Operator]OpSupport{
			OpSub: {RHS: []string{Date, Timestamp, Timedelta}, Template: "({}) - ({})", Result: Timedelta, ResultByRHS: map[string]string{Timedelta: Timestamp}},
			OpAdd: {RHS: []string{Timedelta}, Template: "({}) + ({})", Result: Timestamp},
		}),
		aggs: temporalAggs,
	})

	register(&kind{
		dtype:  Time,
		dbType: "time without time zone",
		literal: func(v any) (*expr.Expression, error) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, &UnsupportedValueError{DType: Time, Message: fmt.Sprintf("unsupported value %v (%T)", v, v)}
			}
			return expr.MustConstruct("cast({} as time without time zone)", expr.StringValue(t.Format(timeLayout))), nil
		},
		casts: map[string]string{
			String:    "cast({} as time without time zone)",
			Timestamp: "cast({} as time without time zone)",
		},
		ops: merge(comparisons(Time, String), map[Operator]OpSupport{
			OpAdd: {RHS: []string{Timedelta}, Template: "({}) + ({})", Result: Time},
			OpSub: {RHS: []string{Timedelta}, Template: "({}) - ({})", Result: Time},
		}),
		aggs: temporalAggs,
	})

	register(&kind{
		dtype:   Timedelta,
		aliases: []string{"interval", "timedelta64[ns]"},
		dbType:  "interval",
		literal: func(v any) (*expr.Expression, error) {
			d, ok := v.(time.Duration)
			if !ok {
				return nil, &UnsupportedValueError{DType: Timedelta, Message: fmt.Sprintf("unsupported value %v (%T)", v, v)}
			}
			return expr.MustConstruct("cast({} as interval)", expr.StringValue(fmt.Sprintf("%d microseconds", d.Microseconds()))), nil
		},
		casts: map[string]string{
			String: "cast({} as interval)",
		},
		ops: merge(comparisons(Timedelta, String), map[Operator]OpSupport{
			OpAdd: {RHS: []string{Timedelta, Timestamp, Date}, Template: "({}) + ({})", ResultByRHS: map[string]string{Timestamp: Timestamp, Date: Timestamp}},
			OpSub: {RHS: []string{Timedelta}, Template: "({}) - ({})"},
			OpMul: {RHS: numeric, Template: "({}) * ({})"},
			OpDiv: {RHS: numeric, Template: "({}) / ({})"},
		}),
		aggs: aggs(map[string]string{"min": "", "max": "", "sum": "", "mean": "", "median": ""}),
	})
}

// toInt64 converts Go integer literals. bool is deliberately not an integer.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}
