package query

import (
	"sort"
	"strings"
)

// Record is one package line from the backend catalog
type Record struct {
	Name        string
	Version     string
	Description string
	Installed   bool
	Score       int // match confidence, 0-100
}

// ResultSet is an ordered list of records plus the widest name among them
type ResultSet struct {
	Records     []Record
	LongestName int
}

// NewResultSet builds a set and computes LongestName
func NewResultSet(records []Record) *ResultSet {
	rs := &ResultSet{Records: records}
	if rs.Records == nil {
		rs.Records = []Record{}
	}
	for _, rec := range rs.Records {
		if len(rec.Name) > rs.LongestName {
			rs.LongestName = len(rec.Name)
		}
	}
	return rs
}

// Len returns the number of records
func (rs *ResultSet) Len() int {
	return len(rs.Records)
}

// Names returns record names in order
func (rs *ResultSet) Names() []string {
	names := make([]string, len(rs.Records))
	for i, rec := range rs.Records {
		names[i] = rec.Name
	}
	return names
}

// Top returns the first record
func (rs *ResultSet) Top() (Record, bool) {
	if len(rs.Records) == 0 {
		return Record{}, false
	}
	return rs.Records[0], true
}

// SortByScore orders records by descending score, keeping catalog order on ties
func (rs *ResultSet) SortByScore() {
	sort.SliceStable(rs.Records, func(i, j int) bool {
		return rs.Records[i].Score > rs.Records[j].Score
	})
}

// CollapseExact reduces a sorted set to its top record when that record is an
// exact match. It reports whether the set was collapsed.
func (rs *ResultSet) CollapseExact() bool {
	top, ok := rs.Top()
	if !ok || top.Score < 100 {
		return false
	}
	rs.Records = []Record{top}
	rs.LongestName = len(top.Name)
	return true
}

// Include returns the records whose name or description contains term
func (rs *ResultSet) Include(term string) *ResultSet {
	return rs.filter(func(rec Record) bool {
		return strings.Contains(rec.Name, term) || strings.Contains(rec.Description, term)
	})
}

// Exclude returns the records whose name and description both lack term
func (rs *ResultSet) Exclude(term string) *ResultSet {
	return rs.filter(func(rec Record) bool {
		return !strings.Contains(rec.Name, term) && !strings.Contains(rec.Description, term)
	})
}

// Installed returns only the records marked as installed
func (rs *ResultSet) Installed() *ResultSet {
	return rs.filter(InstalledOnly)
}

func (rs *ResultSet) filter(keep func(Record) bool) *ResultSet {
	out := make([]Record, 0, len(rs.Records))
	for _, rec := range rs.Records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return NewResultSet(out)
}
