package ui

import (
	"fmt"
	"strconv"
	"strings"
)

// Columns returns how many "NN. name" entries fit across width. Each cell is
// longest + digits(count) + 2 wide and cells are joined by one space, so the
// count is (width + 1) / (cell + 1), at least 1.
func Columns(width, longest, count int) int {
	cell := longest + digits(count) + 2
	if cell <= 0 || width <= 0 {
		return 1
	}
	return max(1, (width+1)/(cell+1))
}

// GridRows lays names out row by row with zero-padded indices starting at 1,
// Columns entries per row
func GridRows(names []string, longest, width int) []string {
	if len(names) == 0 {
		return nil
	}

	d := digits(len(names))
	cell := d + 2 + longest
	cols := Columns(width, longest, len(names))

	var rows []string
	var b strings.Builder
	for i, name := range names {
		col := i % cols
		if col > 0 {
			b.WriteByte(' ')
		}
		entry := fmt.Sprintf("%0*d. %s", d, i+1, name)
		if col < cols-1 && i < len(names)-1 {
			entry = fmt.Sprintf("%-*s", cell, entry)
		}
		b.WriteString(entry)
		if col == cols-1 || i == len(names)-1 {
			rows = append(rows, b.String())
			b.Reset()
		}
	}
	return rows
}

// MenuRows lists the trailing actions numbered after count, then the
// zero entry
func MenuRows(count int, extras []string, zeroLabel string) []string {
	rows := make([]string, 0, len(extras)+1)
	for i, extra := range extras {
		rows = append(rows, fmt.Sprintf("%d. %s", count+i+1, extra))
	}
	return append(rows, "0. "+zeroLabel)
}

func digits(n int) int {
	if n < 1 {
		return 1
	}
	return len(strconv.Itoa(n))
}
