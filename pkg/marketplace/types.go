package marketplace

import "encoding/json"

// SupplyModeFulfillment is the only supply mode the catalog keeps.
const SupplyModeFulfillment = "FULFILLMENT"

// OfferList is one page of the offers feed.
// Items stay raw so one malformed entry does not drop the whole page.
type OfferList struct {
	Items Optional[[]json.RawMessage] `json:"items"`
}

// OfferSummary is the projection requested from the offers feed.
type OfferSummary struct {
	OfferID   Optional[ID]               `json:"offerId"`
	Inventory Optional[SummaryInventory] `json:"inventory"`
}

// SummaryInventory carries the supply mode used to filter the feed.
type SummaryInventory struct {
	SupplyMode Optional[string] `json:"supplyMode"`
}

// Fulfilled reports whether the offer is shipped by the marketplace.
func (s OfferSummary) Fulfilled() bool {
	return s.Inventory.Valid && s.Inventory.Value.SupplyMode.OrElse("") == SupplyModeFulfillment
}

// OfferDetail is the body of GET /offers/{offerId}.
type OfferDetail struct {
	OfferID       Optional[ID]             `json:"offerId"`
	ProductID     Optional[ID]             `json:"productId"`
	Condition     Optional[string]         `json:"condition"`
	SellerID      Optional[ID]             `json:"sellerId"`
	BestOfferRank Optional[int64]          `json:"bestOfferRank"`
	Price         Optional[OfferPrice]     `json:"price"`
	Inventory     Optional[OfferInventory] `json:"inventory"`
}

// OfferPrice is the tax-inclusive price block of an offer.
type OfferPrice struct {
	Price Optional[float64] `json:"price"`
	Taxes Optional[[]Tax]   `json:"taxes"`
}

// Tax is one tax line attached to a price.
type Tax struct {
	Code  Optional[string]  `json:"code"`
	Value Optional[float64] `json:"value"`
}

// OfferInventory is the stock and delivery block of an offer.
type OfferInventory struct {
	Stock         Optional[int64]          `json:"stock"`
	SupplyMode    Optional[string]         `json:"supplyMode"`
	DeliveryModes Optional[[]DeliveryMode] `json:"deliveryModes"`
}

// DeliveryMode is one shipping option. Costs are tax-inclusive.
type DeliveryMode struct {
	Mode                   Optional[string]  `json:"mode"`
	ShippingCost           Optional[float64] `json:"shippingCost"`
	AdditionalShippingCost Optional[float64] `json:"additionalShippingCost"`
	MinDeliveryTime        Optional[int64]   `json:"minDeliveryTime"`
	MaxDeliveryTime        Optional[int64]   `json:"maxDeliveryTime"`
}

// TaxInclusivePrice returns price.price.
func (o *OfferDetail) TaxInclusivePrice() Optional[float64] {
	if !o.Price.Valid {
		return None[float64]()
	}
	return o.Price.Value.Price
}

// Stock returns inventory.stock.
func (o *OfferDetail) Stock() Optional[int64] {
	if !o.Inventory.Valid {
		return None[int64]()
	}
	return o.Inventory.Value.Stock
}

// SupplyMode returns inventory.supplyMode.
func (o *OfferDetail) SupplyMode() Optional[string] {
	if !o.Inventory.Valid {
		return None[string]()
	}
	return o.Inventory.Value.SupplyMode
}

// FirstDeliveryMode returns the first entry of inventory.deliveryModes.
func (o *OfferDetail) FirstDeliveryMode() (DeliveryMode, bool) {
	if !o.Inventory.Valid {
		return DeliveryMode{}, false
	}
	modes := o.Inventory.Value.DeliveryModes.OrElse(nil)
	if len(modes) == 0 {
		return DeliveryMode{}, false
	}
	return modes[0], true
}

// ProductDetail is the body of GET /products/{productId}.
type ProductDetail struct {
	ProductID   Optional[ID]      `json:"productId"`
	GTIN        Optional[ID]      `json:"gtin"`
	Title       Optional[string]  `json:"title"`
	Description Optional[string]  `json:"description"`
	Brand       Optional[Brand]   `json:"brand"`
	Category    Optional[string]  `json:"category"`
	Images      Optional[[]Image] `json:"images"`
	CreatedAt   Optional[string]  `json:"createdAt"`
}

// Brand of a product.
type Brand struct {
	Label Optional[string] `json:"label"`
}

// Image is one product picture.
type Image struct {
	URL      Optional[string]  `json:"url"`
	Position Optional[float64] `json:"position"`
}

// BrandLabel returns brand.label.
func (p *ProductDetail) BrandLabel() Optional[string] {
	if !p.Brand.Valid {
		return None[string]()
	}
	return p.Brand.Value.Label
}

// Category is the body of GET /categories/{categoryReference}.
type Category struct {
	Label Optional[string] `json:"label"`
}
