// Package viewer holds the state and commands behind the EMIS data viewer.
//
// A [Controller] is created once per browser session. It accepts query
// parameters, asks a [DataSource] for records, keeps the result set and the
// current page, renders a presentation-neutral [TableView], exports the
// result set as CSV, and tracks a single status notification.
//
// The package has no HTTP or HTML dependencies. The web package and the
// emis-export command both drive it through the same commands:
//
//	ctrl := viewer.New(source, viewer.Options{})
//	defer ctrl.Close()
//
//	f, err := ctrl.SubmitQuery(viewer.QueryParameters{"type": "students"})
//	if err != nil {
//	    return err
//	}
//	if err := f.Wait(ctx); err != nil {
//	    return err
//	}
//	table := ctrl.RenderTable()
//
// # Status notifications
//
// Exactly one status is visible at a time. Success statuses hide themselves
// after [DefaultStatusDismissAfter]; info and error statuses stay until the
// next status replaces them.
//
// # Overlapping fetches
//
// Submitting while a fetch is outstanding is rejected with
// [ErrFetchInFlight]. Refresh is not blocked, so two fetches can overlap.
// Only the most recently started fetch may replace the result set; a
// completion from an older fetch is discarded and its [Fetch.Wait] returns
// [ErrSuperseded].
package viewer
