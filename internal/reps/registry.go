package reps

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize folds a free-text name into its comparison form: trimmed,
// lower-cased, every run of non-alphanumeric characters collapsed to a
// single space.
func Normalize(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimSpace(nonAlnum.ReplaceAllString(lowered, " "))
}

// Registry resolves free-text rep and wholesaler names to canonical
// identities. It is the single source of truth for both canonicalization and
// classification, so the two can never disagree.
type Registry struct {
	identities []Identity
	// aliasTo maps normalized alias -> canonical name.
	aliasTo map[string]string
	classOf map[string]Classification
}

// NewRegistry builds a registry from the given identity table. The canonical
// name itself is always registered as an alias of the identity.
func NewRegistry(identities []Identity) *Registry {
	r := &Registry{
		identities: identities,
		aliasTo:    make(map[string]string),
		classOf:    make(map[string]Classification),
	}
	for _, id := range identities {
		r.classOf[id.Name] = id.Class
		r.aliasTo[Normalize(id.Name)] = id.Name
		for _, alias := range id.Aliases {
			r.aliasTo[Normalize(alias)] = id.Name
		}
	}
	return r
}

// Identities returns the registered identity table.
func (r *Registry) Identities() []Identity {
	out := make([]Identity, len(r.identities))
	copy(out, r.identities)
	return out
}

// Canonicalize maps a raw name to its canonical identity name. Exact alias
// matches win; otherwise the longest registered alias contained in the input
// wins (handles suffixed variants like "Wholesale Lifts Inc"). Unknown names
// pass through trimmed and unchanged, never as an error.
func (r *Registry) Canonicalize(raw string) string {
	norm := Normalize(raw)
	if norm == "" {
		return strings.TrimSpace(raw)
	}
	if canonical, ok := r.aliasTo[norm]; ok {
		return canonical
	}
	bestLen := 0
	best := ""
	for alias, canonical := range r.aliasTo {
		if strings.Contains(norm, alias) && len(alias) > bestLen {
			bestLen = len(alias)
			best = canonical
		}
	}
	if best != "" {
		return best
	}
	return strings.TrimSpace(raw)
}

// Classify resolves the payout classification for a raw name.
func (r *Registry) Classify(raw string) Classification {
	if class, ok := r.classOf[r.Canonicalize(raw)]; ok {
		return class
	}
	return ClassUnknown
}

// IsSalaryRep reports whether the name resolves to a salary-bonus identity.
func (r *Registry) IsSalaryRep(raw string) bool {
	return r.Classify(raw) == ClassSalaryBonus
}

// IsWholesalerName reports whether the name resolves to a wholesaler account.
func (r *Registry) IsWholesalerName(raw string) bool {
	return r.Classify(raw) == ClassWholesaler
}

// DefaultRegistry returns the production identity table. Salary-bonus
// membership is fixed to exactly two identities; everything else with a rate
// on file is commissioned.
func DefaultRegistry() *Registry {
	return NewRegistry([]Identity{
		{Name: "SC", Class: ClassSalaryBonus, Aliases: []string{"S.C."}},
		{Name: "CR", Class: ClassSalaryBonus, Aliases: []string{"C.R."}},
		{Name: "KLH", Class: ClassCommissioned, Aliases: []string{"K.L.H."}},
		{Name: "DM", Class: ClassCommissioned},
		{Name: "JT", Class: ClassCommissioned},
		{Name: "Wholesale Lifts", Class: ClassWholesaler, Aliases: []string{"WholesaleLifts"}},
		{Name: "National Equipment", Class: ClassWholesaler, Aliases: []string{"NationalEquipment", "Natl Equipment"}},
	})
}
