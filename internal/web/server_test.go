package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/emis-viewer/internal/config"
	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

type sourceFunc func(ctx context.Context, p viewer.QueryParameters) (viewer.ResultSet, error)

func (f sourceFunc) Fetch(ctx context.Context, p viewer.QueryParameters) (viewer.ResultSet, error) {
	return f(ctx, p)
}

// rows returns a source answering every query with n two-column records.
func rows(n int) viewer.DataSource {
	return sourceFunc(func(context.Context, viewer.QueryParameters) (viewer.ResultSet, error) {
		rs := make(viewer.ResultSet, n)
		for i := range rs {
			rs[i] = viewer.Record{}.With("ID", fmt.Sprintf("A%d", i+1)).With("Name", "X")
		}
		return rs, nil
	})
}

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second, ShutdownTimeout: time.Second},
		Viewer: config.ViewerConfig{ExportPrefix: "emis_data", StatusDismissAfter: 5 * time.Second},
		Rate:   config.RateLimitConfig{Enabled: false},
	}
}

func newTestServer(t *testing.T, src viewer.DataSource, cfg *config.Config) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewSessionStore(func(string) *viewer.Controller {
		return viewer.New(src, viewer.Options{Logger: logger, FetchTimeout: 2 * time.Second})
	}, time.Hour)

	s := NewServer(store, cfg)
	s.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

// client replays the session cookie across requests.
type client struct {
	t      *testing.T
	s      *Server
	cookie *http.Cookie
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	c.s.Router().ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == SessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) get(path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return c.do(req)
}

func (c *client) postForm(path string, form url.Values, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return c.do(req)
}

func (c *client) view() viewer.View {
	c.t.Helper()
	rec := c.get("/api/view")
	require.Equal(c.t, http.StatusOK, rec.Code)
	var v viewer.View
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// queryAndWait runs a blocking API query.
func (c *client) queryAndWait(typ string) QueryResponse {
	c.t.Helper()
	rec := c.postForm("/api/query?wait=true", url.Values{"type": {typ}})
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp QueryResponse
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestIndex_IssuesSessionAndDefaultsDate(t *testing.T) {
	c := &client{t: t, s: newTestServer(t, rows(3), testConfig())}

	rec := c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, c.cookie)
	assert.True(t, c.cookie.HttpOnly)

	body := rec.Body.String()
	assert.Contains(t, body, `value="2024-03-01"`)
	assert.Contains(t, body, "No Data Available")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestSessions_AreIsolated(t *testing.T) {
	s := newTestServer(t, rows(3), testConfig())
	a := &client{t: t, s: s}
	b := &client{t: t, s: s}

	a.queryAndWait("students")

	assert.Len(t, a.view().Table.Rows, 3)
	assert.True(t, b.view().Table.Empty)
	assert.Equal(t, 2, s.sessions.Len())
}

func TestAPIQuery_WaitReturnsView(t *testing.T) {
	c := &client{t: t, s: newTestServer(t, rows(25), testConfig())}

	resp := c.queryAndWait("students")

	assert.NotEmpty(t, resp.FetchID)
	assert.Equal(t, 25, resp.Records)
	assert.Equal(t, []string{"ID", "Name"}, resp.View.Table.Headers)
	assert.Len(t, resp.View.Table.Rows, 10)
	assert.True(t, resp.View.Pagination.Visible)
	assert.Equal(t, "Successfully fetched 25 records", resp.View.Status.Message)
	assert.Equal(t, viewer.QueryParameters{"type": "students"}, resp.View.LastParameters)
}

func TestAPIQuery_JSONBody(t *testing.T) {
	c := &client{t: t, s: newTestServer(t, rows(2), testConfig())}

	req := httptest.NewRequest(http.MethodPost, "/api/query?wait=true", strings.NewReader(`{"type":"attendance","date":"2024-03-01"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := c.do(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2024-03-01", c.view().LastParameters.Date())
}

func TestAPIQuery_MissingType(t *testing.T) {
	c := &client{t: t, s: newTestServer(t, rows(2), testConfig())}

	rec := c.postForm("/api/query", url.Values{"date": {"2024-03-01"}})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	assert.Equal(t, "REQ001", er.Code)
}

func TestAPIQuery_FetchFailure(t *testing.T) {
	src := sourceFunc(func(context.Context, viewer.QueryParameters) (viewer.ResultSet, error) {
		return nil, errors.New("emis unreachable")
	})
	c := &client{t: t, s: newTestServer(t, src, testConfig())}

	rec := c.postForm("/api/query?wait=true", url.Values{"type": {"students"}})

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	assert.Equal(t, "FETCH002", er.Code)

	st := c.view().Status
	assert.Equal(t, viewer.StatusError, st.Kind)
	assert.Equal(t, "Failed to fetch data: emis unreachable", st.Message)
}

func TestFetch_RejectedWhileLoading(t *testing.T) {
	release := make(chan struct{})
	src := sourceFunc(func(ctx context.Context, _ viewer.QueryParameters) (viewer.ResultSet, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return viewer.ResultSet{}, nil
	})
	c := &client{t: t, s: newTestServer(t, src, testConfig())}
	defer close(release)

	rec := c.postForm("/fetch", url.Values{"type": {"students"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	v := c.view()
	assert.True(t, v.Loading)
	assert.Equal(t, viewer.SubmitLabelLoading, v.SubmitLabel)
	assert.Equal(t, "Fetching data from EMIS...", v.Status.Message)

	rec = c.postForm("/fetch", url.Values{"type": {"teachers"}}, "Accept", "application/json")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "FETCH001")

	// refresh is not blocked
	rec = c.postForm("/refresh", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestFetch_HTMXReturnsPanel(t *testing.T) {
	c := &client{t: t, s: newTestServer(t, rows(1), testConfig())}

	rec := c.postForm("/fetch", url.Values{"type": {"students"}}, "HX-Request", "true")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, `id="status-message"`)
}

func TestPaging(t *testing.T) {
	c := &client{t: t, s: newTestServer(t, rows(25), testConfig())}
	c.queryAndWait("students")

	c.postForm("/page/next", nil)
	assert.Equal(t, 2, c.view().Pagination.CurrentPage)

	c.postForm("/page/3", nil)
	v := c.view()
	assert.Equal(t, 3, v.Pagination.CurrentPage)
	assert.True(t, v.Pagination.NextDisabled)
	assert.Len(t, v.Table.Rows, 5)

	// out of range is ignored
	rec := c.postForm("/page/9", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 3, c.view().Pagination.CurrentPage)

	c.postForm("/page/prev", nil)
	assert.Equal(t, 2, c.view().Pagination.CurrentPage)

	rec = c.postForm("/page/abc", nil, "Accept", "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownload(t *testing.T) {
	c := &client{t: t, s: newTestServer(t, rows(2), testConfig())}
	c.queryAndWait("students")

	rec := c.get("/download")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="emis_data_`+time.Now().UTC().Format(time.DateOnly)+`.csv"`,
		rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "ID,Name\n\"A1\",\"X\"\n\"A2\",\"X\"", rec.Body.String())
	assert.Equal(t, "Data downloaded successfully", c.view().Status.Message)
}

func TestDownload_NoData(t *testing.T) {
	c := &client{t: t, s: newTestServer(t, rows(0), testConfig())}

	rec := c.get("/download")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "No data available to download", c.view().Status.Message)

	rec = c.get("/download", "Accept", "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "EXP001")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 3, FetchLimit: 3}
	c := &client{t: t, s: newTestServer(t, rows(1), cfg)}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, c.get("/healthz").Code)
	}
	rec := c.get("/healthz")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE001")
}

func TestHealthz(t *testing.T) {
	c := &client{t: t, s: newTestServer(t, rows(1), testConfig())}

	c.s.ReportHealth("fetches", func() any { return map[string]int{"active": 0} })

	rec := c.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0,"fetches":{"active":0}}`, rec.Body.String())
}

func TestStatusSocket(t *testing.T) {
	s := newTestServer(t, rows(4), testConfig())
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	// obtain a session first
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)

	hdr := http.Header{}
	hdr.Set("Cookie", cookie.String())
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/status", hdr)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var st viewer.Status
	require.NoError(t, conn.ReadJSON(&st))
	assert.False(t, st.Visible, "initial status is hidden")

	form := url.Values{"type": {"students"}}
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/query", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	qr, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	qr.Body.Close()
	require.Equal(t, http.StatusAccepted, qr.StatusCode)

	var kinds []viewer.StatusKind
	for len(kinds) < 2 {
		require.NoError(t, conn.ReadJSON(&st))
		kinds = append(kinds, st.Kind)
	}
	assert.Equal(t, []viewer.StatusKind{viewer.StatusInfo, viewer.StatusSuccess}, kinds)
	assert.Equal(t, "Successfully fetched 4 records", st.Message)
}

func TestStatusSocket_RejectsForeignOrigin(t *testing.T) {
	s := newTestServer(t, rows(1), testConfig())
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	hdr := http.Header{}
	hdr.Set("Origin", "https://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/status", hdr)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
