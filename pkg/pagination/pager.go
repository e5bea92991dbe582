package pagination

import "net/http"

// Pager drives one pagination strategy.
// NextRequest returns nil when there are no more pages.
type Pager interface {
	NextRequest() (*http.Request, error)
	UpdateState(resp *http.Response) error
	// Pages reports how many requests have been issued.
	Pages() int
	// Truncated reports whether a page cap ended the feed early.
	Truncated() bool
}

var _ Pager = (*LinkCursorPager)(nil)
