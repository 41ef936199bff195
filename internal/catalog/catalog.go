// Package catalog holds the static case-handling policy directory: which
// (category, subcategory) pairs the assistant knows how to handle and how
// each one is driven end to end. The catalog is read-only after load and is
// injected, so tests can substitute a smaller one.
package catalog

import (
	"fmt"
)

// Kind is the closed set of case-handling policies.
type Kind int

const (
	// RemoteLookup resolves the case by querying the remote student record
	// and branching on a numeric field.
	RemoteLookup Kind = iota
	// SelfServiceGuide resolves the case with a static step-by-step guide.
	SelfServiceGuide
	// UserDecision branches on a yes/no question answered by the user.
	UserDecision
)

func (k Kind) String() string {
	switch k {
	case RemoteLookup:
		return "remote_lookup"
	case SelfServiceGuide:
		return "self_service_guide"
	case UserDecision:
		return "user_decision"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Op is a comparison operator for remote-lookup conditions. Catalog data is
// never interpreted as code; conditions are built from this closed set.
type Op int

const (
	LessThan Op = iota
	LessOrEqual
	GreaterThan
	GreaterOrEqual
	Equal
	NotEqual
)

func (o Op) String() string {
	switch o {
	case LessThan:
		return "<"
	case LessOrEqual:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterOrEqual:
		return ">="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Condition is a predicate over a named numeric field of the remote record.
type Condition struct {
	Field     string
	Op        Op
	Threshold int
}

// Holds evaluates the condition against a field value.
func (c Condition) Holds(value int) bool {
	switch c.Op {
	case LessThan:
		return value < c.Threshold
	case LessOrEqual:
		return value <= c.Threshold
	case GreaterThan:
		return value > c.Threshold
	case GreaterOrEqual:
		return value >= c.Threshold
	case Equal:
		return value == c.Threshold
	case NotEqual:
		return value != c.Threshold
	}
	return false
}

// Lookup configures a RemoteLookup policy: the condition and the message
// variant for each outcome.
type Lookup struct {
	Condition  Condition
	WhenMet    string
	WhenNotMet string
}

// Decision configures a UserDecision policy.
type Decision struct {
	Question string
	WhenYes  string
	WhenNo   string
}

// FollowUp is the shared post-resolution question every policy converges on.
// Escalate adds an extra notice when the user reports the case unresolved.
type FollowUp struct {
	Question       string
	WhenResolved   string
	WhenUnresolved string
	Escalate       bool
}

// RecordTemplate carries the per-case defaults merged into the persisted
// record at finalize time. Zero values fall back to builder defaults.
type RecordTemplate struct {
	Title      string
	AssignedTo string
}

// Policy describes how one (category, subcategory) pair is handled. Exactly
// one of Lookup, Guide or Decision is meaningful, selected by Kind.
type Policy struct {
	Kind        Kind
	Description string

	Lookup   *Lookup
	Guide    string
	Decision *Decision

	FollowUp FollowUp
	Record   RecordTemplate
}

// Area is one top-level case category and its ordered subcategories.
type Area struct {
	Name     string
	Subcases []string
}

// Catalog is the immutable policy directory.
type Catalog struct {
	areas    []Area
	policies map[string]Policy
}

func policyKey(area, subcase string) string {
	return area + "/" + subcase
}

// New builds a catalog from an ordered area directory and a policy table
// keyed by (area, subcase).
func New(areas []Area, policies map[[2]string]Policy) *Catalog {
	c := &Catalog{areas: areas, policies: make(map[string]Policy, len(policies))}
	for key, p := range policies {
		c.policies[policyKey(key[0], key[1])] = p
	}
	return c
}

// Areas returns the top-level category names in directory order.
func (c *Catalog) Areas() []string {
	names := make([]string, len(c.areas))
	for i, a := range c.areas {
		names[i] = a.Name
	}
	return names
}

// Subcases returns the subcategories of an area, or nil if the area is
// unknown.
func (c *Catalog) Subcases(area string) []string {
	for _, a := range c.areas {
		if a.Name == area {
			return a.Subcases
		}
	}
	return nil
}

// Policy looks up the handling policy for a (category, subcategory) pair.
// Not every listed subcase has a policy; the second return reports a miss.
func (c *Catalog) Policy(area, subcase string) (Policy, bool) {
	p, ok := c.policies[policyKey(area, subcase)]
	return p, ok
}
