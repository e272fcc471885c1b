package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/grcdesk/grcdesk/internal/http/viewmodels"
)

func LoginPage(data viewmodels.LoginViewData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := printer{w: w}
		p.raw(`<section class="login"><h1>Sign in</h1>`)
		if data.SetupRequired {
			p.raw(`<p class="notice">No users exist yet. Run <code>grcdesk users bootstrap-admin</code> to create the first admin.</p></section>`)
			return p.err
		}
		if data.ErrorMessage != "" {
			p.raw(`<p class="error" role="alert">`)
			p.text(data.ErrorMessage)
			p.raw(`</p>`)
		}
		p.raw(`<form method="post" action="/login">`)
		if data.Next != "" {
			p.raw(`<input type="hidden" name="next" value="`)
			p.text(data.Next)
			p.raw(`">`)
		}
		p.raw(`<label>Email <input type="email" name="email" autocomplete="username" required value="`)
		p.text(data.Email)
		p.raw(`"></label>`)
		p.raw(`<label>Password <input type="password" name="password" autocomplete="current-password" required></label>`)
		p.raw(`<button type="submit">Sign in</button></form></section>`)
		return p.err
	})
	return Layout(viewmodels.LayoutData{Title: "Sign in", Toast: data.Toast}, body)
}
