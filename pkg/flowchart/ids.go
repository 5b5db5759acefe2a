package flowchart

import "strconv"

// idSet hands out generated ids that collide with nothing in the diagram
// and nothing handed out before.
type idSet struct {
	taken map[string]bool
}

func newIDSet(d *Data) *idSet {
	s := &idSet{taken: make(map[string]bool, len(d.Nodes)+len(d.Edges))}
	for _, n := range d.Nodes {
		s.taken[n.ID] = true
	}
	for _, e := range d.Edges {
		s.taken[e.ID] = true
	}
	return s
}

// next returns prefix+k for the first free k >= start.
func (s *idSet) next(prefix string, start int) string {
	for k := start; ; k++ {
		id := prefix + strconv.Itoa(k)
		if !s.taken[id] {
			s.taken[id] = true
			return id
		}
	}
}

// claim reserves id if it is free.
func (s *idSet) claim(id string) bool {
	if id == "" || s.taken[id] {
		return false
	}
	s.taken[id] = true
	return true
}
