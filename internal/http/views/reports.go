package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/grcdesk/grcdesk/internal/http/viewmodels"
)

// ReportsPage lists every report with JSON and download links and the bulk
// export form.
func ReportsPage(data viewmodels.ReportsViewData) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := printer{w: w}
		p.raw(`<section class="reports"><h1>Reports</h1><table><thead><tr><th>Report</th><th>Data</th><th>Download</th></tr></thead><tbody>`)
		for _, r := range data.Reports {
			p.raw(`<tr><td>`)
			p.text(r.Title)
			p.raw(`</td><td><a href="`)
			p.text(r.JSONHref)
			p.raw(`">JSON</a></td><td>`)
			for i, link := range r.Exports {
				if i > 0 {
					p.raw(` · `)
				}
				p.raw(`<a href="`)
				p.text(link.Href)
				p.raw(`" download>`)
				p.text(link.Label)
				p.raw(`</a>`)
			}
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table></section>`)

		p.raw(`<section class="bulk-export"><h2>Bulk export</h2>`)
		bulkStatus(&p, data.Bulk)
		if data.Layout.IsAdmin {
			p.raw(`<form id="bulk-export" data-endpoint="/api/exports/bulk"><fieldset><legend>Reports</legend>`)
			for _, r := range data.Reports {
				p.raw(`<label><input type="checkbox" name="reports" value="`)
				p.text(r.Type)
				p.raw(`" checked> `)
				p.text(r.Title)
				p.raw(`</label>`)
			}
			p.raw(`</fieldset><label>Format <select name="format">`)
			for _, f := range data.Formats {
				p.raw(`<option value="`)
				p.text(f)
				p.raw(`">`)
				p.text(f)
				p.raw(`</option>`)
			}
			p.raw(`</select></label><button type="submit">Export selected</button></form>`)
		}
		p.raw(`</section>`)
		return p.err
	})
	return Layout(data.Layout, body)
}

func bulkStatus(p *printer, b viewmodels.BulkExportView) {
	p.raw(`<div class="bulk-status" data-state="`)
	p.text(b.State)
	p.raw(`">`)
	if b.State == "running" {
		p.raw(`<progress max="100" value="`)
		p.text(FormatInt(b.Progress))
		p.raw(`" style="width: `)
		p.text(ProgressWidth(b.Progress))
		p.raw(`"></progress><p>Exporting `)
		p.text(b.Current)
		p.raw(` (`)
		p.text(FormatInt(b.Completed))
		p.raw(` of `)
		p.text(FormatInt(b.Total))
		p.raw(`)</p>`)
	} else if b.Message != "" {
		p.raw(`<p>`)
		p.text(b.Message)
		p.raw(`</p>`)
	}
	p.raw(`</div>`)
}
