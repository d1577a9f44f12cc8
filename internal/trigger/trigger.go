// Package trigger defines the closed set of predicate variants that gate an
// analysis unit's eligibility. Conditions are evaluated between batches
// against a read-only view of the session's accumulated signals; a unit's
// full condition list is a conjunction, and an empty list means the unit is
// eligible immediately.
package trigger

import (
	"fmt"
	"reflect"
	"strings"

	"percept/internal/signal"
)

// View is the read-only session state a condition is evaluated against.
type View interface {
	// Signal returns the value for a signal key and whether it is present.
	Signal(key string) (any, bool)
	// CompletedUnits returns how many units have completed so far.
	CompletedUnits() int
}

// Condition is one eligibility predicate. Implementations must be pure reads
// of the view; evaluation happens repeatedly as the signal set grows.
type Condition interface {
	Satisfied(v View) bool
	String() string
}

// Satisfied reports whether every condition in the list holds (conjunction).
// An empty or nil list is vacuously satisfied.
func Satisfied(conds []Condition, v View) bool {
	for _, c := range conds {
		if !c.Satisfied(v) {
			return false
		}
	}
	return true
}

// Describe renders a condition list for diagnostics.
func Describe(conds []Condition) string {
	if len(conds) == 0 {
		return "always"
	}
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

// --- Exists ---

type existsCond struct{ key string }

// Exists is satisfied when the signal key is present, whatever its value.
func Exists(key string) Condition {
	return existsCond{key: signal.Normalize(key)}
}

func (c existsCond) Satisfied(v View) bool {
	_, ok := v.Signal(c.key)
	return ok
}

func (c existsCond) String() string { return fmt.Sprintf("exists(%s)", c.key) }

// --- Equals ---

type equalsCond struct {
	key  string
	want any
}

// Equals is satisfied when the signal key is present and its value equals
// want. Numeric values compare by magnitude across int/float kinds, since
// signals round-trip through JSON and arrive back as float64.
func Equals(key string, want any) Condition {
	return equalsCond{key: signal.Normalize(key), want: want}
}

func (c equalsCond) Satisfied(v View) bool {
	got, ok := v.Signal(c.key)
	if !ok {
		return false
	}
	return valuesEqual(got, c.want)
}

func (c equalsCond) String() string { return fmt.Sprintf("%s == %v", c.key, c.want) }

func valuesEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// --- Predicate ---

type predicateCond struct {
	key  string
	desc string
	fn   func(value any) bool
}

// Predicate is satisfied when the signal key is present and fn returns true
// for its value. desc names the predicate in diagnostics.
func Predicate(key, desc string, fn func(value any) bool) Condition {
	return predicateCond{key: signal.Normalize(key), desc: desc, fn: fn}
}

func (c predicateCond) Satisfied(v View) bool {
	val, ok := v.Signal(c.key)
	if !ok {
		return false
	}
	return c.fn(val)
}

func (c predicateCond) String() string { return fmt.Sprintf("%s satisfies %s", c.key, c.desc) }

// --- AnyOf / AllOf ---

type anyOfCond struct{ conds []Condition }

// AnyOf is a short-circuiting OR over its children.
func AnyOf(conds ...Condition) Condition { return anyOfCond{conds: conds} }

func (c anyOfCond) Satisfied(v View) bool {
	for _, child := range c.conds {
		if child.Satisfied(v) {
			return true
		}
	}
	return false
}

func (c anyOfCond) String() string { return compose("any", c.conds, " OR ") }

type allOfCond struct{ conds []Condition }

// AllOf is a short-circuiting AND over its children.
func AllOf(conds ...Condition) Condition { return allOfCond{conds: conds} }

func (c allOfCond) Satisfied(v View) bool {
	for _, child := range c.conds {
		if !child.Satisfied(v) {
			return false
		}
	}
	return true
}

func (c allOfCond) String() string { return compose("all", c.conds, " AND ") }

func compose(name string, conds []Condition, sep string) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return name + "(" + strings.Join(parts, sep) + ")"
}

// --- UnitsCompleted ---

type unitsCompletedCond struct{ min int }

// UnitsCompleted is satisfied once at least min units have completed,
// regardless of which. It lets a late-stage unit run "after N others".
func UnitsCompleted(min int) Condition { return unitsCompletedCond{min: min} }

func (c unitsCompletedCond) Satisfied(v View) bool {
	return v.CompletedUnits() >= c.min
}

func (c unitsCompletedCond) String() string { return fmt.Sprintf("completed >= %d", c.min) }
