package core

import (
	"context"

	"github.com/saturnines/catalog-sync/pkg/auth"
	"github.com/saturnines/catalog-sync/pkg/catalog"
	"github.com/saturnines/catalog-sync/pkg/marketplace"
)

// TokenSource obtains the run's bearer token
type TokenSource interface {
	Acquire(ctx context.Context) (auth.Token, error)
}

// Marketplace is the authenticated API surface a run needs.
// *marketplace.Client implements it.
type Marketplace interface {
	catalog.CategoryGetter
	NewPageFetcher(ctx context.Context, q marketplace.OffersQuery) (*marketplace.PageFetcher, error)
	GetOffer(ctx context.Context, offerID string) (*marketplace.OfferDetail, error)
	GetProduct(ctx context.Context, productID string) (*marketplace.ProductDetail, error)
}

// ConnectFunc binds a Marketplace to a freshly acquired token
type ConnectFunc func(token auth.Token) Marketplace

// CatalogSink is the destination table
type CatalogSink interface {
	ReplaceAll(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, rows []catalog.CatalogRow) (int, error)
}
