package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/grcdesk/grcdesk/internal/http/viewmodels"
)

// Layout wraps body in the common page chrome.
func Layout(data viewmodels.LayoutData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := "grcdesk"
		if data.Title != "" {
			title = data.Title + " · grcdesk"
		}
		p := printer{w: w}
		p.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`)
		p.text(title)
		p.raw(`</title></head><body>`)
		if data.UserEmail != "" {
			p.raw(`<header class="topbar"><nav><a href="/"`)
			if data.ActivePath == "/" {
				p.raw(` aria-current="page"`)
			}
			p.raw(`>Reports</a></nav><span class="user">`)
			p.text(data.UserEmail)
			p.raw(` (`)
			p.text(data.UserRole)
			p.raw(`)</span><form method="post" action="/logout"><button type="submit">Sign out</button></form></header>`)
		}
		if t := data.Toast; t != nil {
			p.raw(`<div class="toast toast-`)
			p.text(t.Category)
			p.raw(`" role="status"><strong>`)
			p.text(t.Title)
			p.raw(`</strong>`)
			if t.Description != "" {
				p.raw(`<p>`)
				p.text(t.Description)
				p.raw(`</p>`)
			}
			p.raw(`</div>`)
		}
		p.raw(`<main>`)
		if p.err != nil {
			return p.err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		p.raw(`</main></body></html>`)
		return p.err
	})
}

// printer writes markup and stops at the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}
