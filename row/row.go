// Package row holds the flat, string-valued records produced by the table queries.
package row

import (
	"sort"
	"strconv"
)

// Row maps a column name to its scalar rendering. Integers are stored in base 10.
type Row map[string]string

// Results is an ordered set of rows, in the order they were produced.
type Results []Row

// SetText sets a text column.
func (r Row) SetText(column, value string) {
	r[column] = value
}

// SetInt sets an integer column, rendered base 10.
func (r Row) SetInt(column string, value int64) {
	r[column] = strconv.FormatInt(value, 10)
}

// SetUint sets an unsigned integer column, rendered base 10.
func (r Row) SetUint(column string, value uint64) {
	r[column] = strconv.FormatUint(value, 10)
}

// Text returns the column value and whether it was present.
func (r Row) Text(column string) (string, bool) {
	v, ok := r[column]
	return v, ok
}

// Int parses a column back to an integer. Missing or non-numeric columns report false.
func (r Row) Int(column string) (int64, bool) {
	v, ok := r[column]
	if !ok {
		return 0, false
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Columns returns the column names of r, sorted.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Append adds r to the results. r must not be modified afterwards.
func (res *Results) Append(r Row) {
	*res = append(*res, r)
}

// Columns returns the union of the column names across all rows, in the order given by
// preferred first and then any remaining columns sorted.
func (res Results) Columns(preferred ...string) []string {
	seen := map[string]bool{}
	for _, r := range res {
		for k := range r {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for _, c := range preferred {
		if seen[c] {
			cols = append(cols, c)
			delete(seen, c)
		}
	}
	rest := make([]string, 0, len(seen))
	for c := range seen {
		rest = append(rest, c)
	}
	sort.Strings(rest)
	return append(cols, rest...)
}
