package assessment

// Catalog is an ordered set of records keyed by name.
// A later record with an existing name replaces the earlier one in place.
type Catalog struct {
	records []Record
	index   map[string]int
}

// NewCatalog builds a catalog preserving insertion order.
func NewCatalog(records []Record) *Catalog {
	c := &Catalog{
		records: make([]Record, 0, len(records)),
		index:   make(map[string]int, len(records)),
	}
	for _, r := range records {
		c.Add(r)
	}
	return c
}

// Add inserts or replaces a record by name.
func (c *Catalog) Add(r Record) {
	if pos, ok := c.index[r.Name]; ok {
		c.records[pos] = r
		return
	}
	c.index[r.Name] = len(c.records)
	c.records = append(c.records, r)
}

// Get looks a record up by name.
func (c *Catalog) Get(name string) (Record, bool) {
	pos, ok := c.index[name]
	if !ok {
		return Record{}, false
	}
	return c.records[pos], true
}

// Position returns the insertion position of a record.
func (c *Catalog) Position(name string) (int, bool) {
	pos, ok := c.index[name]
	return pos, ok
}

// Records returns a copy of the records in insertion order.
func (c *Catalog) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// CombinedTexts returns embedding inputs aligned with Records.
func (c *Catalog) CombinedTexts() []string {
	out := make([]string, len(c.records))
	for i, r := range c.records {
		out[i] = r.CombinedText()
	}
	return out
}

// Len returns the number of distinct records.
func (c *Catalog) Len() int { return len(c.records) }
