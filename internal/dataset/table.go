package dataset

import "strings"

// Table is an in-memory dataset: an ordered list of named columns that all
// hold the same number of rows.
type Table struct {
	Name     string
	Columns  []Column
	Rows     int
	Warnings []string
}

// Column keeps the raw cell text of one column. Missing cells are stored as "".
type Column struct {
	Name   string
	Values []string
}

// Names returns column names in file order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks a column up by exact name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

var missingMarkers = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
	"none": {},
	"-":    {},
}

// IsMissing reports whether a cell should be treated as an absent value.
func IsMissing(s string) bool {
	_, ok := missingMarkers[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
