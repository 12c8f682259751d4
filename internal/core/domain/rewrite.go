package domain

// RuleAction is the kind of transformation a rewrite rule applies to a
// manifest entry.
type RuleAction int

const (
	// ActionDeleteEntry removes every entry for the matched package.
	ActionDeleteEntry RuleAction = iota
	// ActionReplaceVersion pins the matched package to an exact version.
	ActionReplaceVersion
	// ActionNormalizeEntry strips the matched package's constraint so
	// the resolver is free to pick a compatible build.
	ActionNormalizeEntry
)

// RewriteRule is an ordered pattern-action pair applied to a parsed
// manifest. Rules are targeted substitutions on package identity, which
// makes repeated application a no-op by construction.
type RewriteRule struct {
	// Package is the (normalized) package name the rule matches.
	Package string
	// Action selects the transformation.
	Action RuleAction
	// Version is the exact version for ActionReplaceVersion.
	Version string
}

// Apply returns a new set with the rule applied. The input set is never
// modified.
func (r RewriteRule) Apply(set *RequirementSet) *RequirementSet {
	pkg := NormalizePackageName(r.Package)
	out := &RequirementSet{Name: set.Name}

	for _, e := range set.Entries {
		if e.Passthrough || e.Name != pkg {
			out.Entries = append(out.Entries, e)
			continue
		}

		switch r.Action {
		case ActionDeleteEntry:
			// drop the entry
		case ActionReplaceVersion:
			e.Constraint = "==" + r.Version
			e.Raw = e.Name + e.Constraint
			out.Entries = append(out.Entries, e)
		case ActionNormalizeEntry:
			e.Constraint = ""
			e.Raw = e.Name
			out.Entries = append(out.Entries, e)
		}
	}

	return out
}

// ApplyRules applies an ordered rule list, yielding a new set.
func ApplyRules(set *RequirementSet, rules []RewriteRule) *RequirementSet {
	out := set.clone()
	for _, rule := range rules {
		out = rule.Apply(out)
	}
	return out
}

// TorchVersionCPU is the numerical-compute backend release known to be
// compatible with CPU-only execution.
const TorchVersionCPU = "2.6.0"

// CPUTestRewriteRules derives a CPU-compatible test manifest from the
// shared accelerator-oriented one: accelerator-only packages are
// removed, torch is pinned to the known-compatible release, and its
// companion packages are left unconstrained so the resolver picks
// CPU-compatible builds.
func CPUTestRewriteRules() []RewriteRule {
	return []RewriteRule{
		{Package: "mamba-ssm", Action: ActionDeleteEntry},
		{Package: "torch", Action: ActionReplaceVersion, Version: TorchVersionCPU},
		{Package: "torchaudio", Action: ActionNormalizeEntry},
		{Package: "torchvision", Action: ActionNormalizeEntry},
	}
}
