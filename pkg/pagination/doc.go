// Package pagination drives paged collections of the dashboard API.
//
// The Controller is an incremental fetcher for one list view (the company
// sidebar, the pickers, an employee table). It keeps at most one request in
// flight, accumulates pages in server order, and restarts from offset 0
// whenever the query identity (parent id, search term) changes:
//
//	ctrl := pagination.NewController(fetchCompanies, pagination.Options[api.Company]{
//		Name:  "sidebar",
//		Limit: 10,
//		Mode:  pagination.ModeAppend,
//		OnChange: func(s pagination.Snapshot[api.Company]) {
//			program.Send(sidebarMsg(s))
//		},
//	})
//	ctrl.Start()
//	defer ctrl.Close()
//
//	// the view scrolled to the end of the list
//	ctrl.Visible()
//
// Advancement follows a small state machine:
//
//	WaitingForVisibility -> Fetching -> WaitingForVisibility | Exhausted
//	Exhausted -> WaitingForVisibility (on reset)
//
// ModeReplace serves page tables: each fetch replaces the visible items and
// NextPage / PrevPage move the cursor. After a delete or detach, Removed
// re-fetches the current page and steps back one page when the page would
// otherwise be empty.
//
// Debouncer delays search-driven resets so that only the last keystroke in
// the window triggers a fetch.
//
// FetchAll collects every page of a collection with a bounded worker pool,
// for non-interactive listings.
//
// # Metrics
//
//   - dashboard_pagination_fetches_total{list,result}
//   - dashboard_pagination_fetch_duration_seconds{list}
//   - dashboard_pagination_resets_total{list}
//   - dashboard_pagination_step_backs_total{list}
package pagination
