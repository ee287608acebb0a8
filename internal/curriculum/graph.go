// Package curriculum models the course prerequisite graph.
package curriculum

import "sort"

// PrerequisiteGraph is a directed graph keyed by course code. An edge
// course -> prerequisite means the prerequisite must be passed first.
// Cycles are tolerated; lookups never traverse more than one hop.
type PrerequisiteGraph struct {
	edges map[string]map[string]struct{}
}

// NewPrerequisiteGraph returns an empty graph.
func NewPrerequisiteGraph() *PrerequisiteGraph {
	return &PrerequisiteGraph{edges: make(map[string]map[string]struct{})}
}

// AddPrerequisite records that course requires prerequisite.
func (g *PrerequisiteGraph) AddPrerequisite(course, prerequisite string) {
	if course == "" || prerequisite == "" {
		return
	}
	set, ok := g.edges[course]
	if !ok {
		set = make(map[string]struct{})
		g.edges[course] = set
	}
	set[prerequisite] = struct{}{}
}

// Prerequisites lists the direct prerequisites of course in sorted order.
func (g *PrerequisiteGraph) Prerequisites(course string) []string {
	set := g.edges[course]
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// MissingPrerequisites returns the prerequisites of course absent from passed.
// A course is eligible iff the result is empty.
func (g *PrerequisiteGraph) MissingPrerequisites(course string, passed map[string]struct{}) []string {
	var missing []string
	for _, code := range g.Prerequisites(course) {
		if _, ok := passed[code]; !ok {
			missing = append(missing, code)
		}
	}
	return missing
}

// Satisfied reports whether every prerequisite of course is in passed.
func (g *PrerequisiteGraph) Satisfied(course string, passed map[string]struct{}) bool {
	return len(g.MissingPrerequisites(course, passed)) == 0
}

// PassedSet builds a lookup set from course codes.
func PassedSet(codes ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}
