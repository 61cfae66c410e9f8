package query

import (
	"bufio"
	"io"
	"strings"
)

const maxCatalogLine = 1024 * 1024

// Parse turns xbps-query search output into records scored against term.
// Lines that do not parse, or score below threshold, are dropped.
func Parse(r io.Reader, term string, scorer Scorer, threshold float64) *ResultSet {
	var records []Record

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxCatalogLine)
	for scanner.Scan() {
		rec, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		score := scorer.Score(term, rec.Name)
		if score < threshold {
			continue
		}
		rec.Score = toPercent(score)
		records = append(records, rec)
	}

	return NewResultSet(records)
}

// ParseString is Parse over an in-memory catalog
func ParseString(raw, term string, scorer Scorer, threshold float64) *ResultSet {
	return Parse(strings.NewReader(raw), term, scorer, threshold)
}

// parseLine reads "<marker> <name>-<version> <description>". The marker is
// '*' or '-', optionally bracketed. The last hyphen of the name block starts
// the version.
func parseLine(line string) (Record, bool) {
	line = strings.TrimRight(line, "\r")

	sep := strings.IndexAny(line, " \t")
	if sep < 0 {
		return Record{}, false
	}
	marker, rest := line[:sep], line[sep+1:]

	var rec Record
	switch strings.Trim(marker, "[]") {
	case "*":
		rec.Installed = true
	case "-":
	default:
		return Record{}, false
	}

	rest = strings.TrimLeft(rest, " \t")
	block, desc := rest, ""
	if idx := strings.IndexAny(rest, " \t"); idx >= 0 {
		block, desc = rest[:idx], rest[idx:]
	}
	if block == "" {
		return Record{}, false
	}

	if idx := strings.LastIndexByte(block, '-'); idx >= 0 {
		rec.Name, rec.Version = block[:idx], block[idx+1:]
	} else {
		rec.Name = block
	}
	if rec.Name == "" {
		return Record{}, false
	}

	rec.Description = strings.TrimSpace(desc)
	return rec, true
}
