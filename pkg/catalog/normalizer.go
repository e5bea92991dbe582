package catalog

import (
	"sort"

	"github.com/saturnines/catalog-sync/pkg/marketplace"
	"github.com/saturnines/catalog-sync/pkg/transform"
)

// missingPosition sorts images without a position last.
const missingPosition = 9999

// Options tunes Normalize. The zero value stores every field as received.
type Options struct {
	// CleanText puts title, description and brand in NFC and trims them;
	// whitespace-only values become absent.
	CleanText bool
}

// Normalize merges an offer, its product and the resolved categories into one row.
// It has no side effects.
func Normalize(offer *marketplace.OfferDetail, product *marketplace.ProductDetail, categories [3]CategoryLevel, opts Options) CatalogRow {
	text := func(v marketplace.Optional[string]) *string { return v.Ptr() }
	if opts.CleanText {
		text = cleanText
	}

	row := CatalogRow{
		ProductID:   idPtr(product.ProductID),
		GTIN:        idPtr(product.GTIN),
		Title:       text(product.Title),
		Description: text(product.Description),
		Brand:       text(product.BrandLabel()),

		CategoryID1: categories[0].ID.Ptr(),
		Label1:      categories[0].Label.Ptr(),
		CategoryID2: categories[1].ID.Ptr(),
		Label2:      categories[1].Label.Ptr(),
		CategoryID3: categories[2].ID.Ptr(),
		Label3:      categories[2].Label.Ptr(),

		Pictures: Pictures(product.Images.OrElse(nil)),

		OfferID:       idPtr(offer.OfferID),
		Condition:     offer.Condition.Ptr(),
		SellerID:      idPtr(offer.SellerID),
		BestOfferRank: offer.BestOfferRank.Ptr(),

		PriceWithoutTax: netPrice(offer.TaxInclusivePrice()),
		VATRate:         VATRate,
		DEA:             DEA,
		Ecotax:          Ecotax,

		InventoryStock: offer.Stock().Ptr(),
		SupplyMode:     offer.SupplyMode().Ptr(),
		Sorecop:        Sorecop,
		CreatedAt:      product.CreatedAt.Ptr(),
	}

	if mode, ok := offer.FirstDeliveryMode(); ok {
		row.DeliveryMode = mode.Mode.Ptr()
		row.ShippingCostWithoutTax = transform.ExcludeTax(mode.ShippingCost.OrElse(0), transform.DefaultVATRate)
		row.AdditionalShippingCostWithoutTax = transform.ExcludeTax(mode.AdditionalShippingCost.OrElse(0), transform.DefaultVATRate)
		row.MinDeliveryTime = mode.MinDeliveryTime.Ptr()
		row.MaxDeliveryTime = mode.MaxDeliveryTime.Ptr()
	}

	return row
}

// Pictures returns up to six image URLs ordered by position, padded with nil.
// The sort is stable, so images sharing a position keep their source order.
func Pictures(images []marketplace.Image) [PictureSlots]*string {
	sorted := make([]marketplace.Image, len(images))
	copy(sorted, images)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position.OrElse(missingPosition) < sorted[j].Position.OrElse(missingPosition)
	})

	var out [PictureSlots]*string
	for i := 0; i < len(sorted) && i < PictureSlots; i++ {
		out[i] = sorted[i].URL.Ptr()
	}
	return out
}

func netPrice(price marketplace.Optional[float64]) *float64 {
	v, ok := price.Get()
	if !ok {
		return nil
	}
	net, err := transform.NetPrice.Transform(v)
	if err != nil {
		return nil
	}
	f := net.(float64)
	return &f
}

func cleanText(text marketplace.Optional[string]) *string {
	v, ok := text.Get()
	if !ok {
		return nil
	}
	out, err := transform.CleanText.Transform(v)
	if err != nil || out == nil {
		return nil
	}
	s := out.(string)
	return &s
}

func idPtr(id marketplace.Optional[marketplace.ID]) *string {
	v, ok := id.Get()
	if !ok {
		return nil
	}
	s := v.String()
	return &s
}
