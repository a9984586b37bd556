// Package filter holds the gates a record passes before it is scored.
// Every gate returns a Verdict; a gate that cannot decide rejects.
package filter

import (
	"strings"

	"jobdigest-engine/internal/config"
)

// Verdict is the outcome of one gate. Reason is set when Keep is false.
type Verdict struct {
	Keep   bool
	Reason string
}

func keep() Verdict                { return Verdict{Keep: true} }
func reject(reason string) Verdict { return Verdict{Reason: reason} }

// Reject reasons, stable so they can be counted in logs.
const (
	ReasonExcludedTitle    = "excluded_title_term"
	ReasonNoRoleTerm       = "no_role_term"
	ReasonNotProduct       = "not_product_or_domain"
	ReasonExcludedCompany  = "excluded_company"
	ReasonExcludedLocation = "excluded_location"
	ReasonRemoteOutside    = "remote_outside_region"
	ReasonNoAllowedRegion  = "no_allowed_region"
)

// Relevance decides whether a title, company or location is worth
// scoring at all. Terms are matched as lowercase substrings.
type Relevance struct {
	excludeTitle     []string
	roleRequirements []string
	domainTerms      []string
	excludeCompanies []string
	allow            []string
	block            []string
}

func NewRelevance(f config.Filters, v config.Vocabulary) Relevance {
	return Relevance{
		excludeTitle:     lower(f.ExcludeTitleTerms),
		roleRequirements: lower(f.RoleTitleRequirements),
		domainTerms:      lower(v.DomainTerms),
		excludeCompanies: lower(f.ExcludeCompanies),
		allow:            lower(f.LocationsAllow),
		block:            lower(f.LocationsBlock),
	}
}

// Title keeps titles that name a role function and are about product,
// the domain or a platform. The role function is a hard prerequisite.
func (r Relevance) Title(title string) Verdict {
	t := strings.ToLower(title)
	if containsAny(t, r.excludeTitle) {
		return reject(ReasonExcludedTitle)
	}
	if !containsAny(t, r.roleRequirements) {
		return reject(ReasonNoRoleTerm)
	}
	if strings.Contains(t, "product") || containsAny(t, r.domainTerms) || strings.Contains(t, "platform") {
		return keep()
	}
	return reject(ReasonNotProduct)
}

func (r Relevance) Company(company string) Verdict {
	if containsAny(strings.ToLower(company), r.excludeCompanies) {
		return reject(ReasonExcludedCompany)
	}
	return keep()
}

// Location reads the location and, optionally, the description as one
// text. "northern ireland" is accepted before the block list is checked
// because it contains "ireland". Remote or hybrid alone is not enough:
// an allowed region has to be named as well.
func (r Relevance) Location(location, description string) Verdict {
	text := strings.ToLower(location + " " + description)

	if strings.Contains(text, "northern ireland") {
		return keep()
	}
	if containsAny(text, r.block) {
		return reject(ReasonExcludedLocation)
	}
	if containsAny(text, r.allow) {
		return keep()
	}
	if strings.Contains(text, "remote") || strings.Contains(text, "hybrid") {
		return reject(ReasonRemoteOutside)
	}
	return reject(ReasonNoAllowedRegion)
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func lower(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if x = strings.ToLower(strings.TrimSpace(x)); x != "" {
			out = append(out, x)
		}
	}
	return out
}
