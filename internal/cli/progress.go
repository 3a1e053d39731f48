package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// Progress counts finished documents on a terminal progress bar.
type Progress struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
	failed int
}

// NewProgress creates a bar for total documents written to w.
func NewProgress(w io.Writer, total int, description string) *Progress {
	p := &Progress{writer: w}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Done advances the bar by one document. A non-nil err counts as a failure.
func (p *Progress) Done(err error) {
	if err != nil {
		p.failed++
	}
	if addErr := p.bar.Add(1); addErr != nil {
		slog.Warn("Failed to update progress bar", "error", addErr)
	}
}

// Failed returns how many documents failed so far.
func (p *Progress) Failed() int {
	return p.failed
}

// Finish completes the bar even when documents were skipped.
func (p *Progress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
