package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/emis-viewer/internal/datasource"
	"github.com/JonMunkholm/emis-viewer/internal/logging"
	"github.com/JonMunkholm/emis-viewer/internal/viewer"
	"github.com/JonMunkholm/emis-viewer/internal/web/templates"
)

// maxFormBytes bounds the query form body.
const maxFormBytes = 64 << 10

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	}
	for name, fn := range s.health {
		body[name] = fn()
	}
	writeJSON(w, r, http.StatusOK, body)
}

// handleIndex renders the page, or only the viewer panel for script clients.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderView(w, r, controllerFrom(r.Context()).Snapshot())
}

func (s *Server) renderView(w http.ResponseWriter, r *http.Request, v viewer.View) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	var err error
	if isHTMX(r) {
		err = templates.ViewerPanel(v).Render(r.Context(), w)
	} else {
		err = templates.Page(v, s.now().UTC().Format(time.DateOnly)).Render(r.Context(), w)
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("render failed", "error", err)
	}
}

// afterCommand answers a form POST: script clients get the fresh panel,
// plain browsers are redirected back to the page.
func (s *Server) afterCommand(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		s.renderView(w, r, controllerFrom(r.Context()).Snapshot())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// queryParams collects the submitted form fields. Only presence of the
// type field is checked.
func queryParams(r *http.Request) (viewer.QueryParameters, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}

	params := viewer.QueryParameters{}
	for key, values := range r.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	if params.Type() == "" {
		return nil, fmt.Errorf("%w: missing field %q", errBadRequest, "type")
	}
	return params, nil
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	params, err := queryParams(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	f, err := controllerFrom(r.Context()).SubmitQuery(params)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	logging.FromContext(r.Context()).Info("query submitted", "fetch_id", f.ID, "type", params.Type())
	s.afterCommand(w, r)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	f, err := controllerFrom(r.Context()).Refresh()
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	logging.FromContext(r.Context()).Info("refresh submitted", "fetch_id", f.ID, "type", f.Params.Type())
	s.afterCommand(w, r)
}

// Out-of-range pages are ignored like the disabled buttons they stand for.
func (s *Server) handleChangePage(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: page %q", errBadRequest, chi.URLParam(r, "n")), http.StatusBadRequest)
		return
	}
	controllerFrom(r.Context()).ChangePage(n)
	s.afterCommand(w, r)
}

func (s *Server) handleNextPage(w http.ResponseWriter, r *http.Request) {
	controllerFrom(r.Context()).NextPage()
	s.afterCommand(w, r)
}

func (s *Server) handlePrevPage(w http.ResponseWriter, r *http.Request) {
	controllerFrom(r.Context()).PrevPage()
	s.afterCommand(w, r)
}

// responseDownloader streams the export as an attachment.
type responseDownloader struct {
	w http.ResponseWriter
}

func (d responseDownloader) Download(filename string, content []byte) error {
	h := d.w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	h.Set("Content-Length", strconv.Itoa(len(content)))
	h.Set("Cache-Control", "no-store")
	d.w.WriteHeader(http.StatusOK)
	_, err := d.w.Write(content)
	return err
}

// handleDownload exports the loaded result set. Without data, browsers go
// back to the page where the error status is shown.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	err := controllerFrom(r.Context()).ExportCSV(responseDownloader{w: w})
	switch {
	case err == nil:
		return
	case errors.Is(err, viewer.ErrNoData):
		if wantsJSON(r) || isHTMX(r) {
			s.respondError(w, r, err, http.StatusNotFound)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		// the body may already be partially written
		logging.FromContext(r.Context()).Warn("download interrupted", "error", err)
	}
}

func (s *Server) handleAPIView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, controllerFrom(r.Context()).Snapshot())
}

// QueryResponse is the body of POST /api/query.
type QueryResponse struct {
	FetchID string      `json:"fetch_id"`
	Records int         `json:"records,omitempty"`
	View    viewer.View `json:"view"`
}

// handleAPIQuery submits a query from form or JSON fields. With ?wait=true
// it answers once the fetch has completed.
func (s *Server) handleAPIQuery(w http.ResponseWriter, r *http.Request) {
	params, err := apiParams(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	ctrl := controllerFrom(r.Context())
	f, err := ctrl.SubmitQuery(params)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	status := http.StatusAccepted
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		if err := f.Wait(r.Context()); err != nil {
			s.respondError(w, r, err, statusFor(err))
			return
		}
		status = http.StatusOK
	}

	writeJSON(w, r, status, QueryResponse{
		FetchID: f.ID,
		Records: f.Count(),
		View:    ctrl.Snapshot(),
	})
}

// statusFor picks the HTTP status of a controller error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, viewer.ErrFetchInFlight), errors.Is(err, viewer.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, viewer.ErrClosed):
		return http.StatusGone
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, datasource.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, viewer.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, viewer.ErrNoData):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
