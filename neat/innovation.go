package neat

// linkEnds identifies a structural connection by its endpoints.
type linkEnds struct {
	from, to int
}

// InnovationRegistry hands out historical markings for links. The same
// (from, to) pair always receives the same id within a run. It is owned by
// the Population and is not safe for concurrent use.
type InnovationRegistry struct {
	next int
	ids  map[linkEnds]int
}

// NewInnovationRegistry creates an empty registry whose first id is 0.
func NewInnovationRegistry() *InnovationRegistry {
	return &InnovationRegistry{ids: make(map[linkEnds]int)}
}

// Assign returns the id already registered for (from, to), or allocates the next one.
func (r *InnovationRegistry) Assign(from, to int) int {
	key := linkEnds{from, to}
	if id, ok := r.ids[key]; ok {
		return id
	}
	id := r.next
	r.ids[key] = id
	r.next++
	return id
}

// Lookup reports the id registered for (from, to) without allocating.
func (r *InnovationRegistry) Lookup(from, to int) (int, bool) {
	id, ok := r.ids[linkEnds{from, to}]
	return id, ok
}

// Count returns the number of ids allocated so far.
func (r *InnovationRegistry) Count() int {
	return r.next
}

// Clone returns an independent snapshot of the registry.
func (r *InnovationRegistry) Clone() *InnovationRegistry {
	c := &InnovationRegistry{next: r.next, ids: make(map[linkEnds]int, len(r.ids))}
	for k, v := range r.ids {
		c.ids[k] = v
	}
	return c
}

// Restore replaces the registry state with a snapshot taken by Clone.
func (r *InnovationRegistry) Restore(snapshot *InnovationRegistry) {
	c := snapshot.Clone()
	r.next = c.next
	r.ids = c.ids
}
