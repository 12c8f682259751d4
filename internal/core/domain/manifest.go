package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Requirement is a single entry of a dependency manifest, parsed into a
// structured form so rewrite rules operate on package identity rather
// than raw text.
type Requirement struct {
	// Name is the canonical (normalized) package name. Empty for
	// comments and blank lines.
	Name string

	// Constraint is the version constraint as written, including the
	// operator (e.g. "==2.6.0", ">=1.26,<2"). Empty when the entry is
	// unconstrained.
	Constraint string

	// Raw preserves the original line. Entries a rewrite rule never
	// touched render from it verbatim, keeping extras, environment
	// markers, trailing comments, and casing intact; rules replace it
	// for the entries they modify.
	Raw string

	// Passthrough marks entries that are not package requirements
	// (comments, blank lines, options such as "-r other.txt").
	Passthrough bool
}

// Render returns the manifest line for this entry.
func (r Requirement) Render() string {
	if r.Raw != "" {
		return r.Raw
	}
	return r.Name + r.Constraint
}

// RequirementSet is a parsed dependency manifest. Sets are never
// mutated after being read; every transformation yields a new set.
type RequirementSet struct {
	Name    string
	Entries []Requirement
}

// NormalizePackageName canonicalizes a package name: lower-case with
// underscores and dots folded to hyphens, per the index's own rules.
func NormalizePackageName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "_", "-")
	name = strings.ReplaceAll(name, ".", "-")
	return name
}

// constraint operators, longest first so "==" wins over "=".
var constraintOps = []string{"===", "==", "!=", "<=", ">=", "~=", "<", ">", "@"}

// ParseRequirements parses manifest text into a RequirementSet.
// Comments, blank lines, and option lines are kept as passthrough
// entries so a rendered set stays line-for-line comparable to its
// source.
func ParseRequirements(name string, data []byte) (*RequirementSet, error) {
	set := &RequirementSet{Name: name}

	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "-") {
			set.Entries = append(set.Entries, Requirement{Raw: line, Passthrough: true})
			continue
		}

		// Strip a trailing comment and any environment marker; rules
		// match on package identity only.
		spec := trimmed
		if idx := strings.Index(spec, "#"); idx >= 0 {
			spec = strings.TrimSpace(spec[:idx])
		}
		if idx := strings.Index(spec, ";"); idx >= 0 {
			spec = strings.TrimSpace(spec[:idx])
		}

		entry, err := parseRequirementSpec(spec)
		if err != nil {
			return nil, zerr.With(err, "manifest", name)
		}
		entry.Raw = line
		set.Entries = append(set.Entries, entry)
	}

	return set, nil
}

func parseRequirementSpec(spec string) (Requirement, error) {
	nameEnd := len(spec)
	for _, op := range constraintOps {
		if idx := strings.Index(spec, op); idx >= 0 && idx < nameEnd {
			nameEnd = idx
		}
	}

	rawName := strings.TrimSpace(spec[:nameEnd])
	// Extras ("pkg[extra]") belong to the name portion.
	bare := rawName
	if idx := strings.Index(bare, "["); idx >= 0 {
		bare = bare[:idx]
	}
	if bare == "" {
		return Requirement{}, zerr.With(ErrMalformedRequirement, "line", spec)
	}

	return Requirement{
		Name:       NormalizePackageName(bare),
		Constraint: strings.TrimSpace(spec[nameEnd:]),
	}, nil
}

// Render serializes the set back to manifest text.
func (s *RequirementSet) Render() []byte {
	var b strings.Builder
	for _, e := range s.Entries {
		b.WriteString(e.Render())
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// Contains reports whether the set has an entry for the given package.
func (s *RequirementSet) Contains(pkg string) bool {
	pkg = NormalizePackageName(pkg)
	for _, e := range s.Entries {
		if !e.Passthrough && e.Name == pkg {
			return true
		}
	}
	return false
}

// Get returns the first entry for the given package.
func (s *RequirementSet) Get(pkg string) (Requirement, bool) {
	pkg = NormalizePackageName(pkg)
	for _, e := range s.Entries {
		if !e.Passthrough && e.Name == pkg {
			return e, true
		}
	}
	return Requirement{}, false
}

// clone returns a shallow copy with an independent entry slice, so
// transformations never alias the source set.
func (s *RequirementSet) clone() *RequirementSet {
	entries := make([]Requirement, len(s.Entries))
	copy(entries, s.Entries)
	return &RequirementSet{Name: s.Name, Entries: entries}
}
