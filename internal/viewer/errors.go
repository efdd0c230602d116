package viewer

import "errors"

var (
	// ErrFetchInFlight is returned by SubmitQuery while a fetch is outstanding.
	ErrFetchInFlight = errors.New("fetch already in progress")

	// ErrFetch wraps failures reported by the data source.
	ErrFetch = errors.New("fetch failed")

	// ErrSuperseded is returned by Fetch.Wait when a newer fetch started
	// before this one completed. The result was discarded.
	ErrSuperseded = errors.New("fetch superseded by a newer request")

	// ErrNoData is returned by ExportCSV when the result set is empty.
	ErrNoData = errors.New("no data available to download")

	// ErrExport wraps serialization or download failures.
	ErrExport = errors.New("export failed")

	// ErrClosed is returned by commands issued after Close.
	ErrClosed = errors.New("viewer closed")
)
