package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUserCancelled ends the whole invocation
	ErrUserCancelled = errors.New("cancelled by user")

	// ErrInvalidSelection is a single token that is not a usable index
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrInvalidMultiSelection rejects a line of several indices when any one
	// of them is 0 or out of range
	ErrInvalidMultiSelection = errors.New("invalid multi-selection")
)

// Selection is the outcome of one selection prompt. It is one of
// Replacement, Replacements, OtherOption or Removed.
type Selection interface {
	selection()
}

// Replacement is a single chosen package
type Replacement struct {
	Name string
}

// Replacements is an ordered, non-empty set of chosen packages
type Replacements struct {
	Names []string
}

// OtherOption refers to the Index-th (1-based) action listed after the packages
type OtherOption struct {
	Index int
}

// Removed means no package was chosen
type Removed struct{}

func (Replacement) selection()  {}
func (Replacements) selection() {}
func (OtherOption) selection()  {}
func (Removed) selection()      {}

// Chosen returns the package names carried by sel, if any
func Chosen(sel Selection) []string {
	switch s := sel.(type) {
	case Replacement:
		return []string{s.Name}
	case Replacements:
		return append([]string(nil), s.Names...)
	default:
		return nil
	}
}

// ParseSelection reads one line of 1-based indices into names.
//
// A single token selects one package, or Removed for 0, or an OtherOption
// for indices past len(names). Several tokens must all lie in
// 1..len(names); otherwise the whole line is rejected.
func ParseSelection(input string, names []string) (Selection, error) {
	fields := strings.Fields(input)
	count := len(names)

	switch len(fields) {
	case 0:
		return nil, fmt.Errorf("%w: empty input", ErrInvalidSelection)
	case 1:
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q is not an index", ErrInvalidSelection, fields[0])
		}
		switch {
		case n == 0:
			return Removed{}, nil
		case n <= count:
			return Replacement{Name: names[n-1]}, nil
		default:
			return OtherOption{Index: n - count}, nil
		}
	}

	picked := make([]string, 0, len(fields))
	seen := make(map[int]bool, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > count {
			return nil, fmt.Errorf("%w: %q must be between 1 and %d", ErrInvalidMultiSelection, f, count)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		picked = append(picked, names[n-1])
	}
	return Replacements{Names: picked}, nil
}
