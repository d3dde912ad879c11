package ai

import (
	"fmt"
	"sort"
)

// Registry maps domain IDs to their Planners. It is filled during startup and
// read-only afterwards, so lookups need no locking.
type Registry struct {
	planners map[string]*Planner
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{planners: make(map[string]*Planner)}
}

// Register adds a Planner for domain. Its preconditions are evaluated in the
// script scope named after the domain ID.
//
// Precondition: domain and caller must not be nil.
// Postcondition: a second domain with the same ID is rejected.
func (r *Registry) Register(domain *Domain, caller ScriptCaller) error {
	if _, dup := r.planners[domain.ID]; dup {
		return fmt.Errorf("ai domain %q registered twice", domain.ID)
	}
	r.planners[domain.ID] = NewPlanner(domain, caller, domain.ID)
	return nil
}

// PlannerFor returns the Planner for domainID. A nil Registry has none.
func (r *Registry) PlannerFor(domainID string) (*Planner, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.planners[domainID]
	return p, ok
}

// Len returns the number of registered domains.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.planners)
}

// Domains returns the registered domain IDs in sorted order.
func (r *Registry) Domains() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.planners))
	for id := range r.planners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Unknown returns the entries of tactics that name no registered domain, sorted
// and without duplicates. Empty entries are ignored. A nil registry knows no domain.
func (r *Registry) Unknown(tactics []string) []string {
	var planners map[string]*Planner
	if r != nil {
		planners = r.planners
	}
	seen := make(map[string]bool)
	var out []string
	for _, t := range tactics {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if _, ok := planners[t]; !ok {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
