package marketplace

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/saturnines/catalog-sync/pkg/auth"
	"github.com/saturnines/catalog-sync/pkg/errors"
	"github.com/saturnines/catalog-sync/pkg/metrics"
	"github.com/saturnines/catalog-sync/pkg/transport/rest"
)

// Operation names used in errors and metric labels.
const (
	OpListOffers  = "list_offers"
	OpGetOffer    = "get_offer"
	OpGetProduct  = "get_product"
	OpGetCategory = "get_category"
)

// Client talks to the marketplace API with one bearer token.
type Client struct {
	doer    rest.HTTPDoer
	builder *rest.Builder
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewClient builds a Client. doer carries timeouts and rate limiting; m may be nil.
func NewClient(baseURL string, authHandler auth.Handler, doer rest.HTTPDoer, m *metrics.Metrics, logger *slog.Logger) *Client {
	if doer == nil {
		doer = rest.NewHTTPClient(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		doer:    doer,
		builder: rest.NewBuilder(baseURL, nil, authHandler),
		metrics: m,
		logger:  logger.With("component", "marketplace"),
	}
	c.logger.Debug("client ready", "base_url", baseURL, "auth", authHandler)
	return c
}

// GetOffer fetches /offers/{offerID}.
func (c *Client) GetOffer(ctx context.Context, offerID string) (*OfferDetail, error) {
	var offer OfferDetail
	if err := c.getJSON(ctx, OpGetOffer, &offer, "offers", offerID); err != nil {
		return nil, err
	}
	return &offer, nil
}

// GetProduct fetches /products/{productID}.
func (c *Client) GetProduct(ctx context.Context, productID string) (*ProductDetail, error) {
	var product ProductDetail
	if err := c.getJSON(ctx, OpGetProduct, &product, "products", productID); err != nil {
		return nil, err
	}
	return &product, nil
}

// GetCategory fetches /categories/{reference}.
func (c *Client) GetCategory(ctx context.Context, reference string) (*Category, error) {
	var category Category
	if err := c.getJSON(ctx, OpGetCategory, &category, "categories", reference); err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *Client) getJSON(ctx context.Context, op string, target interface{}, segments ...string) error {
	req, err := c.builder.Build(ctx, nil, segments...)
	if err != nil {
		return errors.WrapError(err, errors.ErrConfiguration, op)
	}
	resp, err := c.send(req, op)
	if err != nil {
		return err
	}
	return rest.DecodeJSON(resp, target)
}

// send executes req and records the call. Non-200 responses come back as errors.
func (c *Client) send(req *http.Request, op string) (*http.Response, error) {
	start := time.Now()
	resp, err := rest.Send(c.doer, req, op)
	elapsed := time.Since(start)

	status := 0
	var ue *errors.UpstreamError
	switch {
	case err == nil:
		status = resp.StatusCode
	case errors.As(err, &ue):
		status = ue.StatusCode
	}
	c.metrics.RecordRequest(op, status, elapsed)

	if err != nil {
		c.logger.Debug("request failed", "operation", op, "url", redactURL(req.URL), "error", err)
	}
	return resp, err
}

func redactURL(u *url.URL) string {
	return u.Scheme + "://" + u.Host + u.EscapedPath()
}
