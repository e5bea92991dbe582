package marketplace

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/saturnines/catalog-sync/pkg/errors"
	"github.com/saturnines/catalog-sync/pkg/pagination"
	"github.com/saturnines/catalog-sync/pkg/transport/rest"
)

// Fixed parameters of the offers feed.
const (
	offerStatus = "ACTIVE"
	offerFields = "offerId,inventory.supplyMode"
)

// OffersQuery configures the offers feed.
type OffersQuery struct {
	UpdatedAtMin string
	PageSize     int
	MaxPages     int
}

// Page is one fetched page of fulfilled offer ids.
type Page struct {
	Number   int
	IDs      []string
	Filtered int
}

// FetchStats summarizes a drained feed.
type FetchStats struct {
	Pages     int
	Found     int
	Filtered  int
	Truncated bool
}

// PageFetcher walks the offers feed one page at a time.
type PageFetcher struct {
	client *Client
	pager  pagination.Pager
	number int
	done   bool
}

// NewPageFetcher builds the first feed request and returns a fetcher positioned before page 1.
func (c *Client) NewPageFetcher(ctx context.Context, q OffersQuery) (*PageFetcher, error) {
	params := url.Values{}
	params.Set("status", offerStatus)
	params.Set("fields", offerFields)
	params.Set("limit", strconv.Itoa(q.PageSize))
	params.Set("updatedAtMin", q.UpdatedAtMin)

	req, err := c.builder.Build(ctx, params, "offers")
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrConfiguration, OpListOffers)
	}

	return &PageFetcher{
		client: c,
		pager:  pagination.NewLinkCursorPager(req, pagination.DefaultCursorParam, q.MaxPages),
	}, nil
}

// NextPage fetches the next page, or returns nil when the feed is exhausted.
// A page can come back together with an ErrPagination error when the feed repeats a cursor;
// its ids are valid and the feed is over.
func (f *PageFetcher) NextPage(ctx context.Context) (*Page, error) {
	if f.done {
		return nil, nil
	}

	req, err := f.pager.NextRequest()
	if err != nil {
		f.done = true
		return nil, errors.WrapError(err, errors.ErrPagination, "build next page request")
	}
	if req == nil {
		f.done = true
		if f.pager.Truncated() {
			f.client.logger.Warn("offers feed stopped at max pages", "pages", f.pager.Pages())
		}
		return nil, nil
	}
	req = req.WithContext(ctx)

	f.number++
	f.client.logger.Info("fetching offers page", "page", f.number)

	resp, err := f.client.send(req, OpListOffers)
	if err != nil {
		f.done = true
		return nil, err
	}

	stateErr := f.pager.UpdateState(resp)

	var list OfferList
	if err := rest.DecodeJSON(resp, &list); err != nil {
		f.done = true
		return nil, err
	}

	page := &Page{Number: f.number}
	for i, raw := range list.Items.OrElse(nil) {
		var item OfferSummary
		if err := json.Unmarshal(raw, &item); err != nil {
			f.client.logger.Warn("undecodable offers item", "page", f.number, "index", i, "error", err)
			page.Filtered++
			continue
		}
		id, ok := item.OfferID.Get()
		if !item.Fulfilled() || !ok || id == "" {
			page.Filtered++
			continue
		}
		page.IDs = append(page.IDs, id.String())
	}

	f.client.logger.Info("offers page fetched", "page", f.number, "fulfilled", len(page.IDs), "filtered", page.Filtered)

	if stateErr != nil {
		f.done = true
		return page, stateErr
	}
	return page, nil
}

// FetchAll drains the feed. On error it returns the ids gathered so far with the error.
func (f *PageFetcher) FetchAll(ctx context.Context) ([]string, FetchStats, error) {
	var ids []string
	var stats FetchStats

	for {
		page, err := f.NextPage(ctx)
		if page != nil {
			stats.Pages++
			stats.Found += len(page.IDs)
			stats.Filtered += page.Filtered
			ids = append(ids, page.IDs...)
		}
		if err != nil {
			stats.Truncated = f.pager.Truncated()
			return ids, stats, err
		}
		if page == nil {
			stats.Truncated = f.pager.Truncated()
			return ids, stats, nil
		}
	}
}
