// Package ui renders bulk export progress and results on a terminal.
package ui

import (
	"fmt"
	"sync"

	"github.com/grcdesk/grcdesk/internal/bulk"
	"github.com/pterm/pterm"
)

// Progress is a bulk.Reporter that drives a single spinner through a run.
type Progress struct {
	mu      sync.Mutex
	spinner *pterm.SpinnerPrinter
}

func NewProgress() *Progress {
	return &Progress{}
}

func (p *Progress) Report(e bulk.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case e.Done:
		p.finish(e)
	case e.Item != nil:
		p.update(ItemLine(e))
	default:
		p.start(fmt.Sprintf("Exporting %d reports as %s...", e.Total, e.Format))
	}
}

func (p *Progress) start(text string) {
	if p.spinner != nil {
		p.spinner.UpdateText(text)
		return
	}
	spinner, _ := pterm.DefaultSpinner.Start(text)
	p.spinner = spinner
}

func (p *Progress) update(text string) {
	if p.spinner == nil {
		p.start(text)
		return
	}
	p.spinner.UpdateText(text)
}

func (p *Progress) finish(e bulk.Event) {
	if p.spinner == nil {
		return
	}
	defer func() { p.spinner = nil }()
	if e.Err != nil {
		p.spinner.Fail(fmt.Sprintf("Bulk export aborted: %v", e.Err))
		return
	}
	p.spinner.Success(e.Message)
}

// ItemLine describes a finished item, e.g. "audit exported (2/5, 40%)".
func ItemLine(e bulk.Event) string {
	status := bulk.StatusFailed
	if e.Item != nil {
		status = e.Item.Status
	}
	return fmt.Sprintf("%s %s (%d/%d, %d%%)", e.Report, status, e.Completed, e.Total, e.Progress)
}
