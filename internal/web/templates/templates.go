// Package templates renders the viewer's HTML as templ components.
package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

// html accumulates output and keeps the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) { h.raw(templ.EscapeString(s)) }

func (h *html) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (h *html) flag(name string, on bool) {
	if on {
		h.raw(" " + name)
	}
}

func component(fn func(h *html)) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		fn(h)
		return h.err
	})
}

// Page is the full viewer document. today prefills the date field when no
// date was submitted yet.
func Page(v viewer.View, today string) templ.Component {
	return component(func(h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>EMIS Data Viewer</title>`)
		h.raw(`<link rel="stylesheet" href="/static/app.css">`)
		h.raw(`</head><body><main class="container"><h1>EMIS Data Viewer</h1>`)
		queryForm(h, v, today)
		h.raw(`<div id="viewer-panel">`)
		panel(h, v)
		h.raw(`</div></main><script src="/static/app.js"></script></body></html>`)
	})
}

// ViewerPanel is the status, table and pagination fragment that commands
// return to script-driven clients.
func ViewerPanel(v viewer.View) templ.Component {
	return component(func(h *html) { panel(h, v) })
}

// ErrorAlert renders an inline error notice.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(h *html) {
		h.raw(`<div class="status status-error" role="alert">`)
		h.text(message)
		if action != "" {
			h.raw(` <span class="status-action">`)
			h.text(action)
			h.raw(`</span>`)
		}
		h.raw(` <small>(`)
		h.text(code)
		h.raw(`)</small></div>`)
	})
}

func queryForm(h *html, v viewer.View, today string) {
	selected := v.LastParameters.Type()
	if selected == "" {
		selected = viewer.TypeStudents
	}
	date := v.LastParameters.Date()
	if date == "" {
		date = today
	}

	h.raw(`<form id="fetch-form" method="post" action="/fetch">`)
	h.raw(`<label for="type">Data type</label><select id="type" name="type">`)
	for _, t := range viewer.RecordTypes {
		h.raw(`<option`)
		h.attr("value", t)
		h.flag("selected", t == selected)
		h.raw(`>`)
		h.text(typeLabel(t))
		h.raw(`</option>`)
	}
	h.raw(`</select>`)
	h.raw(`<label for="date">Date</label><input type="date" id="date" name="date"`)
	h.attr("value", date)
	h.raw(`>`)
	h.raw(`<button type="submit" id="submit-btn"`)
	h.flag("disabled", v.Loading)
	h.raw(`><span id="loading-icon"`)
	h.flag("hidden", !v.Loading)
	h.raw(` class="spinner"></span><span id="btn-text">`)
	h.text(v.SubmitLabel)
	h.raw(`</span></button></form>`)

	h.raw(`<div class="actions">`)
	h.raw(`<form method="post" action="/refresh"><button type="submit" id="refresh-btn">Refresh</button></form>`)
	h.raw(`<a id="download-btn" class="button" href="/download">Download CSV</a>`)
	h.raw(`</div>`)
}

func panel(h *html, v viewer.View) {
	status(h, v.Status)
	table(h, v.Table)
	pagination(h, v.Pagination)
}

func status(h *html, s viewer.Status) {
	h.raw(`<div id="status-message"`)
	h.attr("class", "status status-"+string(s.Kind))
	h.attr("data-kind", string(s.Kind))
	h.flag("hidden", !s.Visible)
	h.raw(`>`)
	h.text(s.Message)
	h.raw(`</div>`)
}

func table(h *html, t viewer.TableView) {
	h.raw(`<table class="data-table"><thead><tr id="table-header">`)
	for _, col := range t.Headers {
		h.raw(`<th>`)
		h.text(col)
		h.raw(`</th>`)
	}
	h.raw(`</tr></thead><tbody id="table-body">`)
	for _, row := range t.Rows {
		h.raw(`<tr>`)
		for _, cell := range row {
			if t.Empty {
				h.raw(`<td class="empty"`)
				h.attr("colspan", strconv.Itoa(len(t.Headers)))
				h.raw(`>`)
			} else {
				h.raw(`<td>`)
			}
			h.text(cell)
			h.raw(`</td>`)
		}
		h.raw(`</tr>`)
	}
	h.raw(`</tbody></table>`)
}

func pagination(h *html, p viewer.PaginationSummary) {
	h.raw(`<nav id="pagination" class="pagination"`)
	h.flag("hidden", !p.Visible)
	h.raw(`><span>Showing <span id="showing-start">`)
	h.text(strconv.Itoa(p.ShowingStart))
	h.raw(`</span> to <span id="showing-end">`)
	h.text(strconv.Itoa(p.ShowingEnd))
	h.raw(`</span> of <span id="total-items">`)
	h.text(strconv.Itoa(p.Total))
	h.raw(`</span> entries</span>`)
	h.raw(`<form method="post" action="/page/prev"><button type="submit" id="prev-page"`)
	h.flag("disabled", p.PrevDisabled)
	h.raw(`>Previous</button></form>`)
	h.raw(`<span class="page-indicator">Page `)
	h.text(strconv.Itoa(p.CurrentPage))
	h.raw(` of `)
	h.text(strconv.Itoa(p.TotalPages))
	h.raw(`</span>`)
	h.raw(`<form method="post" action="/page/next"><button type="submit" id="next-page"`)
	h.flag("disabled", p.NextDisabled)
	h.raw(`>Next</button></form></nav>`)
}

func typeLabel(t string) string {
	switch t {
	case viewer.TypeStudents:
		return "Students"
	case viewer.TypeTeachers:
		return "Teachers"
	case viewer.TypeClasses:
		return "Classes"
	case viewer.TypeAttendance:
		return "Attendance"
	}
	return t
}
