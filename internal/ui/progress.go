package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ProgressBar wraps progressbar/v3 with xpkg styling
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewIndeterminateProgressBar creates a spinner for unknown-length operations
func NewIndeterminateProgressBar(w io.Writer, description string) *ProgressBar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(10),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)

	return &ProgressBar{bar: bar}
}

// Finish completes the progress bar
func (p *ProgressBar) Finish() error {
	return p.bar.Finish()
}

const spinInterval = 100 * time.Millisecond

// spin animates the bar until the returned func is called
func (p *ProgressBar) spin(every time.Duration) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = p.bar.Add(1)
			}
		}
	}()
	return func() {
		close(stop)
		<-done
		_ = p.bar.Finish()
	}
}

// QuerySpinner returns a hook that shows a spinner on stderr while the whole
// catalog is fetched. Strict searches are quick and get no spinner.
func QuerySpinner(enabled bool) func(mode, term string) func() {
	return func(mode, term string) func() {
		if !enabled || mode != "fuzzy" {
			return nil
		}
		bar := NewIndeterminateProgressBar(os.Stderr, fmt.Sprintf("searching catalog for %q", term))
		return bar.spin(spinInterval)
	}
}
