package version

import (
	"fmt"
	"strings"
)

// ConstraintKind discriminates the VersionConstraint sum type.
type ConstraintKind int

const (
	KindAny ConstraintKind = iota
	KindExact
	KindGt
	KindGte
	KindLt
	KindLte
	KindCaret
	KindTilde
	KindRange
	KindAnd
	KindOr
)

// Constraint is the algebraic sum type of spec.md §3: a closed variant set
// with Any/Exact/comparison/Caret/Tilde/Range/And/Or, matching
// original_source's resolver/constraint.rs exactly (including the
// major==0 / minor==0 caret special cases).
type Constraint struct {
	Kind ConstraintKind

	// Exact, Gt, Gte, Lt, Lte, Caret, Tilde carry Value.
	Value Version

	// Range carries Min/Max (nil means unbounded) and inclusivity flags.
	Min          *Version
	Max          *Version
	MinInclusive bool
	MaxInclusive bool

	// And, Or carry Items.
	Items []Constraint
}

// Any is the always-matching constraint.
func Any() Constraint { return Constraint{Kind: KindAny} }

// Matches reports whether v satisfies the constraint.
func (c Constraint) Matches(v Version) bool {
	switch c.Kind {
	case KindAny:
		return true
	case KindExact:
		return v.Equal(c.Value)
	case KindGt:
		return v.Greater(c.Value)
	case KindGte:
		return !v.Less(c.Value)
	case KindLt:
		return v.Less(c.Value)
	case KindLte:
		return !v.Greater(c.Value)
	case KindCaret:
		return matchesCaret(c.Value, v)
	case KindTilde:
		return matchesTilde(c.Value, v)
	case KindRange:
		return matchesRange(c, v)
	case KindAnd:
		for _, item := range c.Items {
			if !item.Matches(v) {
				return false
			}
		}
		return true
	case KindOr:
		for _, item := range c.Items {
			if item.Matches(v) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// matchesCaret implements §8 invariant 2 exactly:
// ^1.2.3 matches x iff 1.2.3 <= x < 2.0.0
// ^0.2.3 matches x iff 0.2.3 <= x < 0.3.0
// ^0.0.3 matches x iff x == 0.0.3
func matchesCaret(base, v Version) bool {
	if v.Less(base) {
		return false
	}
	switch {
	case base.Major == 0 && base.Minor == 0:
		return v.Major == 0 && v.Minor == 0 && v.Patch == base.Patch
	case base.Major == 0:
		return v.Major == 0 && v.Minor == base.Minor
	default:
		return v.Major == base.Major
	}
}

// matchesTilde: >=base and same (major, minor).
func matchesTilde(base, v Version) bool {
	if v.Less(base) {
		return false
	}
	return v.Major == base.Major && v.Minor == base.Minor
}

func matchesRange(c Constraint, v Version) bool {
	if c.Min != nil {
		cmp := v.Compare(*c.Min)
		if c.MinInclusive {
			if cmp < 0 {
				return false
			}
		} else if cmp <= 0 {
			return false
		}
	}
	if c.Max != nil {
		cmp := v.Compare(*c.Max)
		if c.MaxInclusive {
			if cmp > 0 {
				return false
			}
		} else if cmp >= 0 {
			return false
		}
	}
	return true
}

// String renders the constraint back to its textual form.
func (c Constraint) String() string {
	switch c.Kind {
	case KindAny:
		return "*"
	case KindExact:
		return c.Value.String()
	case KindGt:
		return ">" + c.Value.String()
	case KindGte:
		return ">=" + c.Value.String()
	case KindLt:
		return "<" + c.Value.String()
	case KindLte:
		return "<=" + c.Value.String()
	case KindCaret:
		return "^" + c.Value.String()
	case KindTilde:
		return "~" + c.Value.String()
	case KindRange:
		var min, max string
		if c.Min != nil {
			op := ">"
			if c.MinInclusive {
				op = ">="
			}
			min = op + c.Min.String()
		}
		if c.Max != nil {
			op := "<"
			if c.MaxInclusive {
				op = "<="
			}
			max = op + c.Max.String()
		}
		if min != "" && max != "" {
			return min + " " + max
		}
		return min + max
	case KindAnd:
		parts := make([]string, len(c.Items))
		for i, item := range c.Items {
			parts[i] = item.String()
		}
		return strings.Join(parts, " ")
	case KindOr:
		parts := make([]string, len(c.Items))
		for i, item := range c.Items {
			parts[i] = item.String()
		}
		return strings.Join(parts, " || ")
	default:
		return ""
	}
}

// ParseConstraint parses a version constraint expression. Empty string,
// "*", and "latest" all parse to Any. "||" separates Or-alternatives;
// whitespace (absent "||") separates And-atoms. Recognized prefixes:
// ^ ~ >= > <= < =. Wildcard components (x, X, *) desugar to half-open
// Range. Anything else is Exact.
func ParseConstraint(s string) (Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" || s == "latest" {
		return Any(), nil
	}

	if strings.Contains(s, "||") {
		atoms := strings.Split(s, "||")
		items := make([]Constraint, 0, len(atoms))
		for _, atom := range atoms {
			c, err := ParseConstraint(strings.TrimSpace(atom))
			if err != nil {
				return Constraint{}, err
			}
			items = append(items, c)
		}
		return Constraint{Kind: KindOr, Items: items}, nil
	}

	if strings.Contains(s, " ") {
		fields := strings.Fields(s)
		items := make([]Constraint, 0, len(fields))
		for _, f := range fields {
			c, err := ParseConstraint(f)
			if err != nil {
				return Constraint{}, err
			}
			items = append(items, c)
		}
		return Constraint{Kind: KindAnd, Items: items}, nil
	}

	switch {
	case strings.HasPrefix(s, "^"):
		v, err := Parse(s[1:])
		if err != nil {
			return Constraint{}, err
		}
		return Constraint{Kind: KindCaret, Value: v}, nil
	case strings.HasPrefix(s, "~"):
		v, err := Parse(s[1:])
		if err != nil {
			return Constraint{}, err
		}
		return Constraint{Kind: KindTilde, Value: v}, nil
	case strings.HasPrefix(s, ">="):
		v, err := Parse(s[2:])
		if err != nil {
			return Constraint{}, err
		}
		return Constraint{Kind: KindGte, Value: v}, nil
	case strings.HasPrefix(s, ">"):
		v, err := Parse(s[1:])
		if err != nil {
			return Constraint{}, err
		}
		return Constraint{Kind: KindGt, Value: v}, nil
	case strings.HasPrefix(s, "<="):
		v, err := Parse(s[2:])
		if err != nil {
			return Constraint{}, err
		}
		return Constraint{Kind: KindLte, Value: v}, nil
	case strings.HasPrefix(s, "<"):
		v, err := Parse(s[1:])
		if err != nil {
			return Constraint{}, err
		}
		return Constraint{Kind: KindLt, Value: v}, nil
	case strings.HasPrefix(s, "="):
		v, err := Parse(s[1:])
		if err != nil {
			return Constraint{}, err
		}
		return Constraint{Kind: KindExact, Value: v}, nil
	}

	if isWildcard(s) {
		return parseWildcardRange(s)
	}

	v, err := Parse(s)
	if err != nil {
		return Constraint{}, err
	}
	return Constraint{Kind: KindExact, Value: v}, nil
}

func isWildcard(s string) bool {
	return strings.ContainsAny(s, "xX*")
}

// parseWildcardRange desugars "1.x" / "1.2.*" / "1.X.x" into a half-open
// Range: a wildcard minor yields [major.0.0, (major+1).0.0); a wildcard
// patch yields [major.minor.0, major.(minor+1).0).
func parseWildcardRange(s string) (Constraint, error) {
	parts := strings.Split(s, ".")
	isWild := func(p string) bool {
		return p == "x" || p == "X" || p == "*"
	}

	if len(parts) == 0 {
		return Constraint{}, fmt.Errorf("version: invalid wildcard constraint %q", s)
	}

	if len(parts) == 1 || isWild(parts[1]) {
		major, err := parseComponent(parts[0])
		if err != nil {
			return Constraint{}, err
		}
		min := Version{Major: major}
		max := Version{Major: major + 1}
		return Constraint{Kind: KindRange, Min: &min, Max: &max, MinInclusive: true, MaxInclusive: false}, nil
	}

	major, err := parseComponent(parts[0])
	if err != nil {
		return Constraint{}, err
	}
	minor, err := parseComponent(parts[1])
	if err != nil {
		return Constraint{}, err
	}
	min := Version{Major: major, Minor: minor}
	max := Version{Major: major, Minor: minor + 1}
	return Constraint{Kind: KindRange, Min: &min, Max: &max, MinInclusive: true, MaxInclusive: false}, nil
}

func parseComponent(s string) (uint64, error) {
	var n uint64
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return 0, fmt.Errorf("version: invalid wildcard component %q", s)
	}
	return n, nil
}
