package pagination

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/saturnines/catalog-sync/pkg/errors"
)

// DefaultCursorParam is the query parameter carrying the feed cursor.
const DefaultCursorParam = "cursor"

// cursorPattern matches the value of param in the rel="next" entry of a Link header.
// The value may not cross '>' so a preceding rel="prev" entry is never captured.
func cursorPattern(param string) *regexp.Regexp {
	return regexp.MustCompile(`<[^>]*[?&]` + regexp.QuoteMeta(param) + `=([^&>]*)[^>]*>\s*;\s*rel="next"`)
}

// LinkCursorPager follows the cursor advertised in the Link header.
// Each response only contributes its rel="next" cursor; the body is left to the caller.
type LinkCursorPager struct {
	BaseReq     *http.Request
	CursorParam string
	MaxPages    int

	nextCursor string
	first      bool
	pages      int
	truncated  bool
	seen       map[string]struct{}
	pattern    *regexp.Regexp
}

// NewLinkCursorPager builds a LinkCursorPager. maxPages <= 0 means unlimited.
func NewLinkCursorPager(req *http.Request, cursorParam string, maxPages int) *LinkCursorPager {
	if cursorParam == "" {
		cursorParam = DefaultCursorParam
	}
	return &LinkCursorPager{
		BaseReq:     req,
		CursorParam: cursorParam,
		MaxPages:    maxPages,
		first:       true,
		seen:        make(map[string]struct{}),
		pattern:     cursorPattern(cursorParam),
	}
}

// NextRequest returns the next *http.Request, or nil when there are no more pages.
func (p *LinkCursorPager) NextRequest() (*http.Request, error) {
	if !p.first && p.nextCursor == "" {
		return nil, nil
	}
	if p.MaxPages > 0 && p.pages >= p.MaxPages {
		p.truncated = true
		return nil, nil
	}

	req := p.BaseReq.Clone(p.BaseReq.Context())

	if !p.first {
		q := req.URL.Query()
		q.Set(p.CursorParam, p.nextCursor)
		req.URL.RawQuery = q.Encode()
	}

	p.first = false
	p.pages++
	return req, nil
}

// UpdateState reads the Link header and stores the next cursor.
// A missing header or no rel="next" cursor ends pagination normally.
// A cursor that was already followed ends pagination with ErrPagination.
func (p *LinkCursorPager) UpdateState(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.WrapError(
			fmt.Errorf("unexpected status %d", resp.StatusCode),
			errors.ErrPagination,
			"link cursor pager",
		)
	}

	cursor, ok := matchCursor(p.pattern, strings.Join(resp.Header.Values("Link"), ", "))
	if !ok {
		p.nextCursor = ""
		return nil
	}

	if _, dup := p.seen[cursor]; dup {
		p.nextCursor = ""
		return errors.WrapError(nil, errors.ErrPagination, fmt.Sprintf("cursor %q returned twice", cursor))
	}
	p.seen[cursor] = struct{}{}
	p.nextCursor = cursor
	return nil
}

// Pages reports how many requests have been issued.
func (p *LinkCursorPager) Pages() int { return p.pages }

// Truncated reports whether MaxPages stopped the feed while a next cursor was still advertised.
func (p *LinkCursorPager) Truncated() bool { return p.truncated }

// matchCursor extracts and percent-decodes the rel="next" cursor from a Link header.
// Path-unescape semantics keep a literal '+'; an undecodable value is used as-is.
func matchCursor(pattern *regexp.Regexp, header string) (string, bool) {
	if header == "" {
		return "", false
	}
	m := pattern.FindStringSubmatch(header)
	if m == nil || m[1] == "" {
		return "", false
	}
	decoded, err := url.PathUnescape(m[1])
	if err != nil {
		return m[1], true
	}
	return decoded, true
}
