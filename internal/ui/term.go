package ui

import (
	"os"

	"golang.org/x/term"
)

const (
	fallbackWidth  = 80
	fallbackHeight = 24
)

// Terminal reports the properties of the output terminal
type Terminal interface {
	IsTTY() bool
	Size() (width, height int)
}

// FileTerminal inspects an *os.File
type FileTerminal struct {
	f *os.File
}

// StdoutTerminal returns the terminal attached to stdout
func StdoutTerminal() *FileTerminal {
	return &FileTerminal{f: os.Stdout}
}

// IsTTY reports whether the file is a terminal
func (t *FileTerminal) IsTTY() bool {
	return term.IsTerminal(int(t.f.Fd()))
}

// Size returns the terminal size, or 80x24 when unknown
func (t *FileTerminal) Size() (int, int) {
	w, h, err := term.GetSize(int(t.f.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return fallbackWidth, fallbackHeight
	}
	return w, h
}

// FixedTerminal is a Terminal with preset answers
type FixedTerminal struct {
	TTY           bool
	Width, Height int
}

func (t FixedTerminal) IsTTY() bool { return t.TTY }

func (t FixedTerminal) Size() (int, int) { return t.Width, t.Height }
