// Package readiness tracks which configuration groups have been fully
// delivered.
//
// A group is registered with the complete set of names it expects. Every
// observed name is struck off; once nothing is outstanding the group is ready
// and stays ready until the tracker is reset. Order and repetition of
// observations do not matter, only coverage of the set.
package readiness

import "sort"

type group struct {
	required    []string
	outstanding map[string]struct{}
	ready       bool
}

func (g *group) seed() {
	g.outstanding = make(map[string]struct{}, len(g.required))
	for _, n := range g.required {
		g.outstanding[n] = struct{}{}
	}
	g.ready = len(g.outstanding) == 0
}

// Tracker is not safe for concurrent use.
type Tracker[G comparable] struct {
	groups map[G]*group
}

func New[G comparable]() *Tracker[G] {
	return &Tracker[G]{groups: make(map[G]*group)}
}

// Register (re)seeds g with its full expected name set. A group with no
// names is ready immediately.
func (t *Tracker[G]) Register(g G, names []string) {
	grp := &group{required: append([]string(nil), names...)}
	grp.seed()
	t.groups[g] = grp
}

// Observe strikes name off g's outstanding set and reports whether this call
// made g ready. Unknown groups and names are ignored.
func (t *Tracker[G]) Observe(g G, name string) bool {
	grp, ok := t.groups[g]
	if !ok || grp.ready {
		return false
	}
	delete(grp.outstanding, name)
	if len(grp.outstanding) == 0 {
		grp.ready = true
		return true
	}
	return false
}

func (t *Tracker[G]) Ready(g G) bool {
	grp, ok := t.groups[g]
	return ok && grp.ready
}

// Outstanding lists the names g is still waiting for, sorted.
func (t *Tracker[G]) Outstanding(g G) []string {
	grp, ok := t.groups[g]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(grp.outstanding))
	for n := range grp.outstanding {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Reset reseeds every registered group, clearing all readiness.
func (t *Tracker[G]) Reset() {
	for _, grp := range t.groups {
		grp.seed()
	}
}
