package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// chrome is the number of screen rows not used for entries:
// title, blank line, input line and status line
const chrome = 4

const jumpRows = 10

// ScreenFactory returns an initialised screen
type ScreenFactory func() (tcell.Screen, error)

// DefaultScreen opens the real terminal
func DefaultScreen() (tcell.Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

// pagerModel holds the pager state independent of drawing
type pagerModel struct {
	title  string
	rows   []string
	names  []string
	extras int
	top    int
	page   int
	input  string
	status string
}

func newPagerModel(title string, rows, names []string, extras, height int) *pagerModel {
	m := &pagerModel{title: title, rows: rows, names: names, extras: extras}
	m.resize(height)
	return m
}

func (m *pagerModel) resize(height int) {
	m.page = max(1, height-chrome)
	m.scrollTo(m.top)
}

func (m *pagerModel) maxTop() int {
	return max(0, len(m.rows)-m.page)
}

func (m *pagerModel) scrollTo(top int) {
	m.top = min(max(0, top), m.maxTop())
}

func (m *pagerModel) visible() []string {
	end := min(len(m.rows), m.top+m.page)
	return m.rows[m.top:end]
}

func (m *pagerModel) pageInfo() (current, total int) {
	total = max(1, (len(m.rows)+m.page-1)/m.page)
	current = min(total, m.top/m.page+1)
	if m.top == m.maxTop() {
		current = total
	}
	return current, total
}

// handle applies one key. done is true once a selection is made or the
// user quits.
func (m *pagerModel) handle(ev *tcell.EventKey) (Selection, bool, error) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return nil, true, ErrUserCancelled
	case tcell.KeyPgDn, tcell.KeyRight:
		m.scrollTo(m.top + m.page)
	case tcell.KeyPgUp, tcell.KeyLeft:
		m.scrollTo(m.top - m.page)
	case tcell.KeyDown:
		m.scrollTo(m.top + 1)
	case tcell.KeyUp:
		m.scrollTo(m.top - 1)
	case tcell.KeyHome:
		m.scrollTo(0)
	case tcell.KeyEnd:
		m.scrollTo(m.maxTop())
	case tcell.KeyCtrlD:
		m.scrollTo(m.top + jumpRows)
	case tcell.KeyCtrlU:
		m.scrollTo(m.top - jumpRows)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if m.input != "" {
			m.input = m.input[:len(m.input)-1]
		}
	case tcell.KeyEnter:
		return m.confirm()
	case tcell.KeyRune:
		if ev.Rune() == 'q' {
			return nil, true, ErrUserCancelled
		}
		m.rune(ev.Rune())
	}
	return nil, false, nil
}

func (m *pagerModel) rune(r rune) {
	if (r >= '0' && r <= '9') || r == ' ' {
		m.input += string(r)
		m.status = ""
		return
	}

	switch r {
	case 'n':
		m.scrollTo(m.top + m.page)
	case 'p':
		m.scrollTo(m.top - m.page)
	case 'j':
		m.scrollTo(m.top + 1)
	case 'k':
		m.scrollTo(m.top - 1)
	case 'g':
		m.scrollTo(0)
	case 'G':
		m.scrollTo(m.maxTop())
	}
}

func (m *pagerModel) confirm() (Selection, bool, error) {
	sel, err := ParseSelection(m.input, m.names)
	if err == nil {
		if other, ok := sel.(OtherOption); ok && other.Index > m.extras {
			err = fmt.Errorf("%w: no option %d", ErrInvalidSelection, len(m.names)+other.Index)
		}
	}
	if err != nil {
		m.status = err.Error()
		return nil, false, nil
	}
	return sel, true, nil
}

// Pager is the full-screen paginated selector
type Pager struct {
	screen ScreenFactory
}

// NewPager creates a pager drawing on screens from factory
func NewPager(factory ScreenFactory) *Pager {
	if factory == nil {
		factory = DefaultScreen
	}
	return &Pager{screen: factory}
}

// Run shows rows and returns the confirmed selection. q, Esc and Ctrl-C
// cancel with ErrUserCancelled.
func (p *Pager) Run(title string, rows, names []string, extras int) (Selection, error) {
	s, err := p.screen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	defer s.Fini()

	_, height := s.Size()
	m := newPagerModel(title, rows, names, extras, height)

	for {
		draw(s, m)

		switch ev := s.PollEvent().(type) {
		case nil:
			return nil, ErrUserCancelled
		case *tcell.EventResize:
			_, height := ev.Size()
			m.resize(height)
			s.Sync()
		case *tcell.EventKey:
			if sel, done, err := m.handle(ev); done {
				return sel, err
			}
		}
	}
}

func draw(s tcell.Screen, m *pagerModel) {
	s.Clear()
	width, height := s.Size()

	titleStyle := tcell.StyleDefault.Bold(true)
	mutedStyle := tcell.StyleDefault.Dim(true)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed)

	drawText(s, 0, 0, width, titleStyle, m.title)

	for i, row := range m.visible() {
		drawText(s, 0, 1+i, width, tcell.StyleDefault, row)
	}

	current, total := m.pageInfo()
	prompt := fmt.Sprintf("Selection [%d/%d]: %s", current, total, m.input)
	drawText(s, 0, height-2, width, tcell.StyleDefault, prompt)
	s.ShowCursor(min(width-1, len(prompt)), height-2)

	if m.status != "" {
		drawText(s, 0, height-1, width, errStyle, m.status)
	} else {
		drawText(s, 0, height-1, width, mutedStyle, "n/p page  j/k row  g/G first/last  ^D/^U ±10  digits+enter select  q quit")
	}

	s.Show()
}

func drawText(s tcell.Screen, x, y, width int, style tcell.Style, text string) {
	for _, r := range text {
		if x >= width {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
