package catalog

// Fixed column values of every catalog row.
const (
	VATRate = 0.20
	DEA     = 0
	Ecotax  = 0
	Sorecop = 0
)

// PictureSlots is the number of picture columns.
const PictureSlots = 6

// Columns lists the catalog table columns in insertion order.
var Columns = []string{
	"productId", "gtin", "title", "description", "brand",
	"categoryId1", "label1", "categoryId2", "label2", "categoryId3", "label3",
	"picture1", "picture2", "picture3", "picture4", "picture5", "picture6",
	"offerId", "condition", "sellerId", "bestOfferRank",
	"priceWithoutTax", "VATRate", "DEA", "ecotax",
	"inventoryStock", "supplyMode", "deliveryMode", "shippingCostWithoutTax", "additionalShippingCostWithoutTax",
	"minDeliveryTime", "maxDeliveryTime", "sorecop", "createdAt",
}

// CatalogRow is one denormalized offer/product pair. Nil pointers are stored as NULL.
type CatalogRow struct {
	ProductID   *string
	GTIN        *string
	Title       *string
	Description *string
	Brand       *string

	CategoryID1 *string
	Label1      *string
	CategoryID2 *string
	Label2      *string
	CategoryID3 *string
	Label3      *string

	Pictures [PictureSlots]*string

	OfferID       *string
	Condition     *string
	SellerID      *string
	BestOfferRank *int64

	PriceWithoutTax *float64
	VATRate         float64
	DEA             int
	Ecotax          int

	InventoryStock                   *int64
	SupplyMode                       *string
	DeliveryMode                     *string
	ShippingCostWithoutTax           float64
	AdditionalShippingCostWithoutTax float64
	MinDeliveryTime                  *int64
	MaxDeliveryTime                  *int64
	Sorecop                          int
	CreatedAt                        *string
}

// Values returns the row's arguments in Columns order.
func (r *CatalogRow) Values() []interface{} {
	return []interface{}{
		r.ProductID, r.GTIN, r.Title, r.Description, r.Brand,
		r.CategoryID1, r.Label1, r.CategoryID2, r.Label2, r.CategoryID3, r.Label3,
		r.Pictures[0], r.Pictures[1], r.Pictures[2], r.Pictures[3], r.Pictures[4], r.Pictures[5],
		r.OfferID, r.Condition, r.SellerID, r.BestOfferRank,
		r.PriceWithoutTax, r.VATRate, r.DEA, r.Ecotax,
		r.InventoryStock, r.SupplyMode, r.DeliveryMode, r.ShippingCostWithoutTax, r.AdditionalShippingCostWithoutTax,
		r.MinDeliveryTime, r.MaxDeliveryTime, r.Sorecop, r.CreatedAt,
	}
}
