// Package catalog holds the ordered, immutable set of icons served by the
// viewer. Order is authoring order and is the default display order.
package catalog

import (
	"fmt"
	"iter"
)

// DuplicateNameError reports two records sharing a name. First and Second
// are the positions of the clashing records.
type DuplicateNameError struct {
	Name   string
	First  int
	Second int
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate icon name %q at positions %d and %d", e.Name, e.First, e.Second)
}

// InvalidNameError reports a record that cannot be catalogued.
type InvalidNameError struct {
	Name     string
	Position int
	Reason   string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid icon %q at position %d: %s", e.Name, e.Position, e.Reason)
}

// Catalog is safe for concurrent use; nothing mutates it after New.
type Catalog struct {
	records []Record
	byName  map[string]int
}

// New validates records and returns a catalog preserving their order.
func New(records []Record) (*Catalog, error) {
	c := &Catalog{
		records: make([]Record, len(records)),
		byName:  make(map[string]int, len(records)),
	}
	copy(c.records, records)

	for i, r := range c.records {
		if !ValidName(r.Name) {
			return nil, &InvalidNameError{Name: r.Name, Position: i, Reason: "name must be lower-case kebab"}
		}
		if r.Outline == "" || r.Solid == "" {
			return nil, &InvalidNameError{Name: r.Name, Position: i, Reason: "both outline and solid glyphs are required"}
		}
		if first, ok := c.byName[r.Name]; ok {
			return nil, &DuplicateNameError{Name: r.Name, First: first, Second: i}
		}
		c.byName[r.Name] = i
	}
	return c, nil
}

// Len returns the number of icons.
func (c *Catalog) Len() int {
	return len(c.records)
}

// At returns the record at position i.
func (c *Catalog) At(i int) Record {
	return c.records[i]
}

// All returns a copy of the records in catalog order.
func (c *Catalog) All() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Records iterates in catalog order.
func (c *Catalog) Records() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		for i, r := range c.records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Lookup finds a record by exact name.
func (c *Catalog) Lookup(name string) (Record, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// Names returns the icon names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.records))
	for i, r := range c.records {
		names[i] = r.Name
	}
	return names
}
