package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultFetchTimeout bounds a single DataSource.Fetch call.
const DefaultFetchTimeout = 30 * time.Second

// Submit button labels.
const (
	SubmitLabelIdle    = "Fetch Data"
	SubmitLabelLoading = "Loading..."
)

// DataSource supplies records for a query. Implementations decide how
// parameters map to records; an unknown type should yield an empty result.
type DataSource interface {
	Fetch(ctx context.Context, params QueryParameters) (ResultSet, error)
}

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	Clock              Clock
	Logger             *slog.Logger
	FetchTimeout       time.Duration // default: DefaultFetchTimeout
	ExportPrefix       string        // default: DefaultExportPrefix
	StatusDismissAfter time.Duration // default: DefaultStatusDismissAfter
}

// Controller owns the viewer state of one session: the loaded result set,
// the current page, the last submitted parameters, the loading flag and the
// status notification. It is safe for concurrent use.
type Controller struct {
	source       DataSource
	clock        Clock
	logger       *slog.Logger
	fetchTimeout time.Duration
	exportPrefix string
	status       *statusBoard

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	data       ResultSet
	page       Pagination
	lastParams QueryParameters
	latest     uint64 // sequence of the most recently started fetch
	inFlight   int
	fetchedAt  time.Time
	closed     bool
}

// New creates a controller backed by source.
func New(source DataSource, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.ExportPrefix == "" {
		opts.ExportPrefix = DefaultExportPrefix
	}
	if opts.StatusDismissAfter <= 0 {
		opts.StatusDismissAfter = DefaultStatusDismissAfter
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		source:       source,
		clock:        opts.Clock,
		logger:       opts.Logger,
		fetchTimeout: opts.FetchTimeout,
		exportPrefix: opts.ExportPrefix,
		status:       newStatusBoard(opts.Clock, opts.StatusDismissAfter),
		ctx:          ctx,
		cancel:       cancel,
		page:         Pagination{CurrentPage: 1, ItemsPerPage: ItemsPerPage},
		lastParams:   QueryParameters{},
	}
}

// Fetch is the handle of one asynchronous fetch.
type Fetch struct {
	ID     string
	Params QueryParameters

	seq   uint64
	done  chan struct{}
	count int
	err   error
}

// Done is closed once the fetch has completed and its outcome was applied
// or discarded.
func (f *Fetch) Done() <-chan struct{} { return f.done }

// Wait blocks until the fetch completes or ctx ends. It returns the fetch
// error, ErrSuperseded if a newer fetch won, or ctx.Err().
func (f *Fetch) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Count is the number of records fetched. Valid after Done.
func (f *Fetch) Count() int { return f.count }

// SubmitQuery records params as the last parameters and starts a fetch.
// It fails with ErrFetchInFlight while another fetch is outstanding.
func (c *Controller) SubmitQuery(params QueryParameters) (*Fetch, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.inFlight > 0 {
		c.mu.Unlock()
		return nil, ErrFetchInFlight
	}
	c.lastParams = params.Clone()
	f := c.beginFetchLocked(params.Clone())
	c.mu.Unlock()

	c.launch(f)
	return f, nil
}

// Refresh repeats the last submitted query. It is not blocked by an
// outstanding fetch. Before any submission the parameters are empty.
func (c *Controller) Refresh() (*Fetch, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	f := c.beginFetchLocked(c.lastParams.Clone())
	c.mu.Unlock()

	c.launch(f)
	return f, nil
}

// beginFetchLocked registers a new fetch as the latest one. c.mu must be held.
func (c *Controller) beginFetchLocked(params QueryParameters) *Fetch {
	c.latest++
	c.inFlight++
	c.wg.Add(1)
	return &Fetch{
		ID:     uuid.New().String(),
		Params: params,
		seq:    c.latest,
		done:   make(chan struct{}),
	}
}

func (c *Controller) launch(f *Fetch) {
	c.status.show(StatusInfo, "Fetching data from EMIS...")
	c.logger.Debug("fetch started", "fetch_id", f.ID, "type", f.Params.Type(), "date", f.Params.Date())
	go c.runFetch(f)
}

func (c *Controller) runFetch(f *Fetch) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(c.ctx, c.fetchTimeout)
	defer cancel()

	start := c.clock.Now()
	rs, err := c.fetchSafely(ctx, f.Params)
	c.complete(f, rs, err, c.clock.Now().Sub(start))
}

// fetchSafely converts a panicking data source into a fetch error.
func (c *Controller) fetchSafely(ctx context.Context, params QueryParameters) (rs ResultSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("data source panic: %v", r)
		}
	}()
	return c.source.Fetch(ctx, params)
}

func (c *Controller) complete(f *Fetch, rs ResultSet, err error, elapsed time.Duration) {
	c.mu.Lock()
	c.inFlight--
	if f.seq != c.latest {
		c.mu.Unlock()
		f.err = ErrSuperseded
		close(f.done)
		c.logger.Info("stale fetch discarded",
			"fetch_id", f.ID,
			"type", f.Params.Type(),
			"duration_ms", elapsed.Milliseconds(),
		)
		return
	}

	if err != nil {
		c.mu.Unlock()
		f.err = fmt.Errorf("%w: %w", ErrFetch, err)
		c.status.show(StatusError, "Failed to fetch data: "+err.Error())
		close(f.done)
		c.logger.Warn("fetch failed",
			"fetch_id", f.ID,
			"type", f.Params.Type(),
			"error", err,
			"duration_ms", elapsed.Milliseconds(),
		)
		return
	}

	c.data = rs
	c.page.CurrentPage = 1
	c.fetchedAt = c.clock.Now()
	c.mu.Unlock()

	f.count = len(rs)
	c.status.show(StatusSuccess, fmt.Sprintf("Successfully fetched %d records", len(rs)))
	close(f.done)
	c.logger.Info("fetch completed",
		"fetch_id", f.ID,
		"type", f.Params.Type(),
		"records", len(rs),
		"duration_ms", elapsed.Milliseconds(),
	)
}

// ChangePage moves to target and reports whether it did. Targets outside
// [1, TotalPages] leave the state unchanged.
func (c *Controller) ChangePage(target int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.page.Valid(target, len(c.data)) {
		return false
	}
	c.page.CurrentPage = target
	return true
}

// NextPage is ChangePage(current+1).
func (c *Controller) NextPage() bool {
	c.mu.Lock()
	target := c.page.CurrentPage + 1
	c.mu.Unlock()
	return c.ChangePage(target)
}

// PrevPage is ChangePage(current-1).
func (c *Controller) PrevPage() bool {
	c.mu.Lock()
	target := c.page.CurrentPage - 1
	c.mu.Unlock()
	return c.ChangePage(target)
}

// RenderTable renders the current page. It has no side effects.
func (c *Controller) RenderTable() TableView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return renderTable(c.data, c.page)
}

// Pagination returns the pagination controls for the current state.
func (c *Controller) Pagination() PaginationSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page.Summary(len(c.data))
}

// ExportCSV serializes the loaded result set and hands it to dst under
// "<prefix>_YYYY-MM-DD.csv". An empty result set produces no file.
func (c *Controller) ExportCSV(dst Downloader) error {
	c.mu.Lock()
	data := c.data
	c.mu.Unlock()

	if len(data) == 0 {
		c.status.show(StatusError, "No data available to download")
		return ErrNoData
	}

	filename := ExportFilename(c.exportPrefix, c.clock.Now())
	if err := dst.Download(filename, []byte(EncodeCSV(data))); err != nil {
		c.status.show(StatusError, "Failed to download data: "+err.Error())
		c.logger.Warn("export failed", "file", filename, "error", err)
		return fmt.Errorf("%w: %w", ErrExport, err)
	}

	c.status.show(StatusSuccess, "Data downloaded successfully")
	c.logger.Info("export completed", "file", filename, "records", len(data))
	return nil
}

// ShowStatus replaces the visible status notification.
func (c *Controller) ShowStatus(kind StatusKind, message string) {
	c.status.show(kind, message)
}

// Status returns the current status notification.
func (c *Controller) Status() Status {
	return c.status.get()
}

// SubscribeStatus streams status changes, beginning with the current status.
// Call the returned func to stop; the channel is also closed by Close.
func (c *Controller) SubscribeStatus() (<-chan Status, func()) {
	return c.status.subscribe()
}

// Loading reports whether a fetch is outstanding.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

// LastParameters returns a copy of the most recently submitted parameters.
func (c *Controller) LastParameters() QueryParameters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastParams.Clone()
}

// View is everything a presentation layer needs to draw the viewer.
type View struct {
	Loading        bool              `json:"loading"`
	SubmitLabel    string            `json:"submit_label"`
	Status         Status            `json:"status"`
	Table          TableView         `json:"table"`
	Pagination     PaginationSummary `json:"pagination"`
	LastParameters QueryParameters   `json:"last_parameters"`
	FetchedAt      time.Time         `json:"fetched_at,omitzero"`
}

// Snapshot captures the current view in one consistent read.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	v := View{
		Loading:        c.inFlight > 0,
		SubmitLabel:    SubmitLabelIdle,
		Table:          renderTable(c.data, c.page),
		Pagination:     c.page.Summary(len(c.data)),
		LastParameters: c.lastParams.Clone(),
		FetchedAt:      c.fetchedAt,
	}
	c.mu.Unlock()

	if v.Loading {
		v.SubmitLabel = SubmitLabelLoading
	}
	v.Status = c.status.get()
	return v
}

// Close cancels outstanding fetches, waits for them to finish and releases
// status subscribers. Commands after Close return ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.status.close()
}
