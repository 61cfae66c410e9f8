package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
)

// Prompter reads line-oriented answers
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter reading from in and writing questions to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// ReadLine prints label and returns the trimmed answer.
// EOF before any input is a cancellation.
func (p *Prompter) ReadLine(label string) (string, error) {
	if label != "" {
		fmt.Fprint(p.out, label)
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return "", ErrUserCancelled
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a [Y/n] question. Empty, y and yes accept; n and no decline;
// anything else asks again.
func (p *Prompter) Confirm(question string) (bool, error) {
	for {
		answer, err := p.ReadLine(fmt.Sprintf("%s %s ", Warning.Sprint(question), Muted.Sprint("[Y/n]")))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "", "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		PrintWarning("please answer y or n")
	}
}

// Out returns the writer questions go to
func (p *Prompter) Out() io.Writer {
	return p.out
}

// AutoConfirmer accepts every question, echoing Y
type AutoConfirmer struct {
	Out io.Writer
}

// Confirm prints the question with a Y answer and accepts
func (a AutoConfirmer) Confirm(question string) (bool, error) {
	if a.Out != nil {
		fmt.Fprintf(a.Out, "%s %s Y\n", question, Muted.Sprint("[Y/n]"))
	}
	return true, nil
}

// SelectPrompt presents a list of options for selection
func SelectPrompt(label string, items []string) (int, string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  min(10, len(items)),
	}

	index, result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return -1, "", ErrUserCancelled
		}
		return -1, "", err
	}

	return index, result, nil
}
