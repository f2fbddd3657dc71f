package filter

import "fmt"

// MaxPredicates is the maximum number of predicates in one Spec.
const MaxPredicates = 16

// Op is the comparison a predicate applies.
type Op int

const (
	// Equals requires the field to equal the value exactly.
	Equals Op = iota
	// NotEquals requires the field to differ from the value.
	NotEquals
)

// Predicate is a single metadata condition ANDed into both retrieval legs.
type Predicate struct {
	field string
	value string
	op    Op
}

// NewEquals creates an equality predicate.
func NewEquals(field, value string) (Predicate, error) {
	return newPredicate(field, value, Equals)
}

// NewNotEquals creates an exclusion predicate.
func NewNotEquals(field, value string) (Predicate, error) {
	return newPredicate(field, value, NotEquals)
}

func newPredicate(field, value string, op Op) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("filter field is required")
	}
	if value == "" {
		return Predicate{}, fmt.Errorf("filter value is required for field %q", field)
	}
	return Predicate{field: field, value: value, op: op}, nil
}

// Field returns the metadata field name.
func (p Predicate) Field() string { return p.field }

// Value returns the comparison value.
func (p Predicate) Value() string { return p.value }

// Op returns the comparison operator.
func (p Predicate) Op() Op { return p.op }

// Spec is a conjunction of metadata predicates applied identically to the
// semantic and keyword legs so both candidate sets stay filter-consistent.
type Spec struct {
	predicates []Predicate
}

// New validates and creates a filter Spec.
func New(predicates ...Predicate) (Spec, error) {
	if len(predicates) > MaxPredicates {
		return Spec{}, fmt.Errorf("too many filter predicates (max %d)", MaxPredicates)
	}
	return Spec{predicates: predicates}, nil
}

// Predicates returns the predicates in declaration order.
func (s Spec) Predicates() []Predicate { return s.predicates }

// IsEmpty reports whether the spec has no predicates.
func (s Spec) IsEmpty() bool { return len(s.predicates) == 0 }
