package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/xpkg/internal/config"
	"github.com/quantmind-br/xpkg/internal/query"
)

func candidates() *query.ResultSet {
	return query.NewResultSet([]query.Record{
		{Name: "blender", Score: 71},
		{Name: "blendervr", Score: 55},
		{Name: "bleachbit", Score: 33},
	})
}

func newTestSelector(t *testing.T, input string, mode string, term Terminal, opts ...SelectorOption) (*Selector, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Query.DisplayMode = mode
	log := zerolog.New(bytes.NewBuffer(nil))
	var out bytes.Buffer
	prompter := NewPrompter(strings.NewReader(input), &out)
	return NewSelector(cfg, prompter, term, &log, opts...), &out
}

func TestSelector_ListMode(t *testing.T) {
	t.Run("single pick", func(t *testing.T) {
		sel, out := newTestSelector(t, "1\n", config.DisplayList, FixedTerminal{Width: 80, Height: 24})
		got, err := sel.Select(context.Background(), "bledner", candidates(), nil)
		require.NoError(t, err)
		assert.Equal(t, Replacement{Name: "blender"}, got)

		text := out.String()
		assert.Contains(t, text, `Candidates for "bledner"`)
		assert.Contains(t, text, "1. blender")
		assert.Contains(t, text, "0. None")
	})

	t.Run("reprompts on invalid input", func(t *testing.T) {
		sel, _ := newTestSelector(t, "abc\n1 9\n0 1\n2 3\n", config.DisplayList, FixedTerminal{Width: 80, Height: 24})
		got, err := sel.Select(context.Background(), "ble", candidates(), nil)
		require.NoError(t, err)
		assert.Equal(t, Replacements{Names: []string{"blendervr", "bleachbit"}}, got)
	})

	t.Run("extras addressed after packages", func(t *testing.T) {
		sel, out := newTestSelector(t, "5\n", config.DisplayList, FixedTerminal{Width: 80, Height: 24})
		got, err := sel.Select(context.Background(), "ble", candidates(), []string{"Retry with fuzzy search", "Show details"})
		require.NoError(t, err)
		assert.Equal(t, OtherOption{Index: 2}, got)
		assert.Contains(t, out.String(), "4. Retry with fuzzy search")
	})

	t.Run("other option without extras is rejected", func(t *testing.T) {
		sel, _ := newTestSelector(t, "4\n0\n", config.DisplayList, FixedTerminal{Width: 80, Height: 24}, WithZeroLabel("Remove package"))
		got, err := sel.Select(context.Background(), "ble", candidates(), nil)
		require.NoError(t, err)
		assert.Equal(t, Removed{}, got)
	})

	t.Run("EOF cancels", func(t *testing.T) {
		sel, _ := newTestSelector(t, "", config.DisplayList, FixedTerminal{Width: 80, Height: 24})
		_, err := sel.Select(context.Background(), "ble", candidates(), nil)
		assert.ErrorIs(t, err, ErrUserCancelled)
	})

	t.Run("cancelled context", func(t *testing.T) {
		sel, _ := newTestSelector(t, "1\n", config.DisplayList, FixedTerminal{Width: 80, Height: 24})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := sel.Select(ctx, "ble", candidates(), nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSelector_TUIMode(t *testing.T) {
	s := simScreen(t, 60, 12)
	s.InjectKey(tcell.KeyRune, '2', tcell.ModNone)
	s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)

	pager := NewPager(func() (tcell.Screen, error) { return s, nil })
	sel, _ := newTestSelector(t, "", config.DisplayTUI, FixedTerminal{Width: 60, Height: 12}, WithPager(pager))

	got, err := sel.Select(context.Background(), "ble", candidates(), nil)
	require.NoError(t, err)
	assert.Equal(t, Replacement{Name: "blendervr"}, got)
}

func TestSelector_Paginate(t *testing.T) {
	t.Parallel()

	tty := FixedTerminal{TTY: true, Width: 80, Height: 24}
	pipe := FixedTerminal{TTY: false, Width: 80, Height: 24}

	tests := []struct {
		name  string
		mode  string
		term  Terminal
		count int
		rows  int
		want  bool
	}{
		{"list never paginates", config.DisplayList, tty, 500, 200, false},
		{"tui always paginates", config.DisplayTUI, pipe, 1, 2, true},
		{"smart small list", config.DisplaySmart, tty, 10, 5, false},
		{"smart large count", config.DisplaySmart, tty, 51, 10, true},
		{"smart overflowing rows", config.DisplaySmart, tty, 40, 21, true},
		{"smart not a tty", config.DisplaySmart, pipe, 500, 200, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sel, _ := newTestSelector(t, "", tt.mode, tt.term)
			assert.Equal(t, tt.want, sel.paginate(tt.count, tt.rows, 24))
		})
	}
}

func TestWithMode(t *testing.T) {
	t.Parallel()

	sel, _ := newTestSelector(t, "", config.DisplaySmart, FixedTerminal{}, WithMode("TUI"))
	assert.Equal(t, config.DisplayTUI, sel.mode)

	sel, _ = newTestSelector(t, "", config.DisplayList, FixedTerminal{}, WithMode(""))
	assert.Equal(t, config.DisplayList, sel.mode)
}
