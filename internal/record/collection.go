package record

// Collection is the ordered in-memory set of records for one session.
// Order is whatever the store returned on Load (newest first) with inserts
// prepended; the collection never re-sorts. Lookups by id are map-backed.
//
// Not safe for concurrent use; the owning desk serializes access.
type Collection[S Status, R Record[S, R]] struct {
	order []string
	byID  map[string]R
}

func NewCollection[S Status, R Record[S, R]]() *Collection[S, R] {
	return &Collection[S, R]{byID: make(map[string]R)}
}

// Load replaces the contents with records. A repeated id keeps its first
// occurrence.
func (c *Collection[S, R]) Load(records []R) {
	c.order = make([]string, 0, len(records))
	c.byID = make(map[string]R, len(records))
	for _, r := range records {
		id := r.RecordID()
		if _, dup := c.byID[id]; dup {
			continue
		}
		c.order = append(c.order, id)
		c.byID[id] = r
	}
}

func (c *Collection[S, R]) Len() int {
	return len(c.order)
}

func (c *Collection[S, R]) Find(id string) (R, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Prepend adds a newly created record at the front. If the id is already
// present the existing entry is replaced in place.
func (c *Collection[S, R]) Prepend(r R) {
	id := r.RecordID()
	if _, ok := c.byID[id]; ok {
		c.byID[id] = r
		return
	}
	c.order = append([]string{id}, c.order...)
	c.byID[id] = r
}

// Replace swaps in a confirmed version of an existing record. It reports
// false when the id is unknown.
func (c *Collection[S, R]) Replace(r R) bool {
	id := r.RecordID()
	if _, ok := c.byID[id]; !ok {
		return false
	}
	c.byID[id] = r
	return true
}

// Records returns a copy of all records in collection order.
func (c *Collection[S, R]) Records() []R {
	out := make([]R, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// View returns the records matching f, in collection order.
func (c *Collection[S, R]) View(f Filter[S]) []R {
	return Apply(c.Records(), f)
}

// Stats aggregates over the full collection, regardless of any view.
func (c *Collection[S, R]) Stats(statuses []S) Stats[S] {
	return Aggregate(c.Records(), statuses)
}
