// Package templates renders the HTML pages and partials of the web UI.
package templates

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
)

// SessionRow is one line of the dashboard's session list.
type SessionRow struct {
	ID       string
	Name     string
	Rows     int
	Columns  int
	LastUsed time.Time
}

// PreviewData is the input of TablePreview.
type PreviewData struct {
	SessionID string
	Name      string
	Headers   []string
	Rows      [][]string
	TotalRows int
	Encoding  string
	Delimiter string
	History   []string
}

func esc(s string) string { return templ.EscapeString(s) }

// page wraps body in the common document shell.
func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title></head><body><main>`, esc(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// Dashboard lists open sessions and offers the upload form.
func Dashboard(sessions []SessionRow) templ.Component {
	return page("csvmaster", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h1>csvmaster</h1>`+
			`<form method="post" action="/api/sessions" enctype="multipart/form-data">`+
			`<input type="file" name="file" required> `+
			`<select name="encoding"><option value="">detect encoding</option><option>utf-8</option><option>cp1251</option></select> `+
			`<select name="delimiter"><option value="">detect delimiter</option><option>comma</option><option>semicolon</option><option>tab</option><option>space</option><option>colon</option></select> `+
			`<button type="submit">Open</button></form>`); err != nil {
			return err
		}

		if len(sessions) == 0 {
			_, err := io.WriteString(w, `<p class="empty">No open files.</p>`)
			return err
		}

		if _, err := io.WriteString(w, `<table class="sessions"><thead><tr><th>File</th><th>Rows</th><th>Columns</th><th>Last used</th><th></th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, s := range sessions {
			id := esc(s.ID)
			if _, err := fmt.Fprintf(w,
				`<tr><td><a href="/api/sessions/%s/preview">%s</a></td><td>%d</td><td>%d</td><td>%s</td>`+
					`<td><a href="/api/sessions/%s/download">download</a></td></tr>`,
				id, esc(s.Name), s.Rows, s.Columns, s.LastUsed.Format(time.DateTime), id); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	}))
}

// TablePreview renders the first rows of a session's current table.
func TablePreview(p PreviewData) templ.Component {
	return page(p.Name, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>%s</h1><p class="meta">Showing %d of %d rows. Output: %s, %s.</p>`,
			esc(p.Name), len(p.Rows), p.TotalRows, esc(p.Encoding), esc(p.Delimiter)); err != nil {
			return err
		}

		if len(p.History) > 0 {
			if _, err := io.WriteString(w, `<ol class="history">`); err != nil {
				return err
			}
			for _, h := range p.History {
				if _, err := fmt.Fprintf(w, `<li>%s</li>`, esc(h)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</ol>`); err != nil {
				return err
			}
		}

		if _, err := io.WriteString(w, `<table class="preview"><thead><tr>`); err != nil {
			return err
		}
		for _, h := range p.Headers {
			if _, err := fmt.Fprintf(w, `<th>%s</th>`, esc(h)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tr></thead><tbody>`); err != nil {
			return err
		}
		for _, row := range p.Rows {
			if _, err := io.WriteString(w, `<tr>`); err != nil {
				return err
			}
			for _, cell := range row {
				if _, err := fmt.Fprintf(w, `<td>%s</td>`, esc(cell)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</tr>`); err != nil {
				return err
			}
		}
		id := esc(p.SessionID)
		_, err := fmt.Fprintf(w, `</tbody></table><p><a href="/api/sessions/%s/download">download</a> <a href="/">back</a></p>`, id)
		return err
	}))
}

// ErrorAlert is the error fragment shown in place of a failed partial.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert alert-error" role="alert"><strong>%s</strong>`, esc(message))
		if err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, ` <span class="action">%s</span>`, esc(action)); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, ` <code>%s</code></div>`, esc(code))
		return err
	})
}
