package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quantmind-br/xpkg/internal/config"
	"github.com/quantmind-br/xpkg/internal/query"
)

// Selector renders a result set and collects one selection
type Selector struct {
	prompter  *Prompter
	out       io.Writer
	term      Terminal
	pager     *Pager
	mode      string
	smallList int
	zeroLabel string
	log       *zerolog.Logger
}

// SelectorOption configures a Selector
type SelectorOption func(*Selector)

// WithPager overrides the full-screen pager
func WithPager(p *Pager) SelectorOption {
	return func(s *Selector) { s.pager = p }
}

// WithZeroLabel changes the text of the 0 entry
func WithZeroLabel(label string) SelectorOption {
	return func(s *Selector) { s.zeroLabel = label }
}

// WithMode overrides query.display_mode
func WithMode(mode string) SelectorOption {
	return func(s *Selector) {
		if mode != "" {
			s.mode = strings.ToLower(mode)
		}
	}
}

// NewSelector builds a selector from configuration
func NewSelector(cfg *config.Config, prompter *Prompter, t Terminal, log *zerolog.Logger, opts ...SelectorOption) *Selector {
	s := &Selector{
		prompter:  prompter,
		out:       prompter.Out(),
		term:      t,
		mode:      strings.ToLower(cfg.Query.DisplayMode),
		smallList: cfg.UI.SmallListSize,
		zeroLabel: "None",
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pager == nil {
		s.pager = NewPager(DefaultScreen)
	}
	return s
}

// Select shows the candidates for term followed by extras and returns the
// user's choice. OtherOption indices always refer to an entry of extras.
func (s *Selector) Select(ctx context.Context, term string, rs *query.ResultSet, extras []string) (Selection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := rs.Names()
	width, height := s.term.Size()
	rows := GridRows(names, rs.LongestName, width)
	menu := MenuRows(len(names), extras, s.zeroLabel)
	title := fmt.Sprintf("Candidates for %q", term)

	var sel Selection
	var err error
	if s.paginate(len(names), len(rows)+len(menu), height) {
		s.log.Debug().Str("term", term).Int("count", len(names)).Msg("paginated selector")
		sel, err = s.pager.Run(title, append(rows, menu...), names, len(extras))
	} else {
		sel, err = s.list(title, rows, menu, names, len(extras))
	}
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("term", term).Str("selection", Describe(sel)).Msg("selection made")
	return sel, nil
}

// paginate picks the rendering regime for count results spread over rows lines
func (s *Selector) paginate(count, rows, height int) bool {
	switch s.mode {
	case config.DisplayList:
		return false
	case config.DisplayTUI:
		return true
	}
	if !s.term.IsTTY() {
		return false
	}
	return count > s.smallList || rows > height-chrome
}

func (s *Selector) list(title string, rows, menu, names []string, extras int) (Selection, error) {
	Bold.Fprintln(s.out, title)
	for _, row := range rows {
		fmt.Fprintln(s.out, row)
	}
	for _, row := range menu {
		Muted.Fprintln(s.out, row)
	}

	for {
		line, err := s.prompter.ReadLine(Info.Sprint("Select package(s) (e.g. 1 or 1 3): "))
		if err != nil {
			return nil, err
		}

		sel, err := ParseSelection(line, names)
		if err == nil {
			if other, ok := sel.(OtherOption); ok && other.Index > extras {
				err = fmt.Errorf("%w: no option %d", ErrInvalidSelection, len(names)+other.Index)
			}
		}
		if err == nil {
			return sel, nil
		}
		if !errors.Is(err, ErrInvalidSelection) && !errors.Is(err, ErrInvalidMultiSelection) {
			return nil, err
		}
		PrintWarning("%v", err)
	}
}

// Describe renders a selection for logs and history
func Describe(sel Selection) string {
	switch s := sel.(type) {
	case Replacement:
		return s.Name
	case Replacements:
		return strings.Join(s.Names, " ")
	case OtherOption:
		return fmt.Sprintf("option %d", s.Index)
	case Removed:
		return "none"
	default:
		return "unknown"
	}
}
